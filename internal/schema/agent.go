package schema

import "context"

// AgentSettings carries the per-session LLM tuning knobs.
type AgentSettings struct {
	Model         string
	MaxTokens     int
	Temperature   float64
	HistoryWindow int // messages sent to the LLM; 0 = unlimited
}

func NewAgentSettings(model string, maxTokens int, temperature float64, historyWindow int) AgentSettings {
	return AgentSettings{
		Model:         model,
		MaxTokens:     maxTokens,
		Temperature:   temperature,
		HistoryWindow: historyWindow,
	}
}

// AgentLooper is the surface the CLI and cron service use to drive the agent.
type AgentLooper interface {
	// ProcessDirect handles one utterance outside the bus flow (one-shot CLI,
	// cron firings) and returns the final reply text.
	ProcessDirect(ctx context.Context, content string) string
	// Run consumes inbound bus messages until ctx is cancelled.
	Run(ctx context.Context) error
}
