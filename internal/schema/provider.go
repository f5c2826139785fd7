package schema

import "context"

// ChatOptions configures a single LLM chat request.
type ChatOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// LLMResponse is the normalised response from any LLM provider.
type LLMResponse struct {
	Content      string
	FinishReason string
	Usage        map[string]int // "prompt_tokens", "completion_tokens", "total_tokens"
}

// LLMProvider is the interface every LLM backend must satisfy.
// Chat blocks until the provider answers or ctx is cancelled; callers bound
// the call with a context deadline.
type LLMProvider interface {
	Chat(ctx context.Context, messages Messages, opts ChatOptions) (LLMResponse, error)
	DefaultModel() string
}
