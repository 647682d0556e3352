package domain

import "context"

// Prompt is a provider-neutral completion request.
type Prompt struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
	// JSONOutput asks providers that support it for a JSON-only response.
	JSONOutput bool
}

// CompletionService sends a prompt to a language model and returns its raw text.
type CompletionService interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
	// Name identifies the provider and model for logs and audit rows.
	Name() string
}
