// Package schema contains the core contracts shared across docpilot packages.
// Concrete implementations live in their respective packages; this package is
// the single canonical source of truth for every shared type.
package schema

// Role tags a conversation message. Only the three constants below are valid;
// the constructors are the only way messages are created, so a Message with an
// empty role is unrepresentable in practice.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the conversation history. Immutable once created.
type Message struct {
	Role    Role
	Content string
}

func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
