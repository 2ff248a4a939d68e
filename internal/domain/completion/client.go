package completion

import "context"

// Request is one instruction/prompt pair for a text-generation service.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float32
}

// Client submits a request and returns the generated prose.
// Implementations own their request timeout and retry policy.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
