package engine

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenAIEngine generates text with Google's Gemini API. Models are hosted,
// so HasModel always succeeds and PullModel is a no-op.
type GenAIEngine struct {
	client *genai.Client
}

// NewGenAIEngine creates a GenAIEngine using the given API key.
func NewGenAIEngine(ctx context.Context, apiKey string) (*GenAIEngine, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating GenAI client: %w", err)
	}
	return &GenAIEngine{client: client}, nil
}

func (e *GenAIEngine) Generate(ctx context.Context, model, prompt string, maxTokens int) (string, error) {
	var temperature float32
	cfg := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = int32(maxTokens)
	}

	resp, err := e.client.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("genai generate: %w", err)
	}
	return resp.Text(), nil
}

func (e *GenAIEngine) IsRunning(_ context.Context) bool {
	return e.client != nil
}

func (e *GenAIEngine) HasModel(_ context.Context, _ string) bool {
	return true
}

func (e *GenAIEngine) PullModel(_ context.Context, _ string, _ func(PullProgress)) error {
	return nil
}
