package engine

import "context"

// Engine abstracts a text-generation backend (local Ollama or the Gemini
// API). The intent classifier depends on this interface for name extraction
// and category labelling instead of on a concrete client.
type Engine interface {
	// Generate runs a single-prompt completion. maxTokens caps the output
	// length; zero leaves the backend default.
	Generate(ctx context.Context, model, prompt string, maxTokens int) (string, error)

	// IsRunning reports whether the backend is reachable.
	IsRunning(ctx context.Context) bool

	// HasModel reports whether the given model name is available.
	HasModel(ctx context.Context, name string) bool

	// PullModel downloads a model. The optional callback receives progress updates.
	PullModel(ctx context.Context, name string, onProgress func(PullProgress)) error
}
