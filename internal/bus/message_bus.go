// Package bus defines the message types that flow between input sources and
// the agent loop.
package bus

import "time"

type ChannelType string

const (
	ChannelCLI    ChannelType = "cli"
	ChannelCron   ChannelType = "cron"
	ChannelSystem ChannelType = "system"
)

// InboundMessage is one utterance headed for the agent.
type InboundMessage struct {
	channel   ChannelType
	content   string
	timestamp time.Time
}

// NewInboundMessage creates an InboundMessage with Timestamp set to now.
func NewInboundMessage(channel ChannelType, content string) InboundMessage {
	return InboundMessage{channel: channel, content: content, timestamp: time.Now()}
}

func (m InboundMessage) Channel() ChannelType { return m.channel }

func (m InboundMessage) Content() string { return m.content }

func (m InboundMessage) Timestamp() time.Time { return m.timestamp }

// Preview returns a short snippet of the message content for logging.
func (m InboundMessage) Preview() string {
	if len(m.content) > 80 {
		return m.content[:80] + "..."
	}
	return m.content
}

// OutboundMessage is a reply headed back to an input source.
type OutboundMessage struct {
	channel ChannelType
	content string
}

func NewOutboundMessage(channel ChannelType, content string) OutboundMessage {
	return OutboundMessage{channel: channel, content: content}
}

func (m OutboundMessage) Channel() ChannelType { return m.channel }

func (m OutboundMessage) Content() string { return m.content }

// Bus is the contract between input sources and the agent loop.
type Bus interface {
	PublishInbound(msg InboundMessage)
	PublishOutbound(msg OutboundMessage)
	InboundChan() <-chan InboundMessage
	OutboundChan() <-chan OutboundMessage
}

// MessageBus is the default in-process Bus backed by buffered Go channels.
// Buffering keeps the cron publisher from blocking on a slow terminal.
type MessageBus struct {
	inbound  chan InboundMessage
	outbound chan OutboundMessage
}

func NewMessageBus(bufSize int) Bus {
	return &MessageBus{
		inbound:  make(chan InboundMessage, bufSize),
		outbound: make(chan OutboundMessage, bufSize),
	}
}

func (b *MessageBus) PublishInbound(msg InboundMessage) { b.inbound <- msg }

func (b *MessageBus) PublishOutbound(msg OutboundMessage) { b.outbound <- msg }

func (b *MessageBus) InboundChan() <-chan InboundMessage { return b.inbound }

func (b *MessageBus) OutboundChan() <-chan OutboundMessage { return b.outbound }
