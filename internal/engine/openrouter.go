package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/kalambet/askorg/internal/proxy"
)

// OpenRouterEngine generates text through the OpenRouter API. Models are
// hosted, so PullModel is a no-op.
type OpenRouterEngine struct {
	client *proxy.Client
}

// NewOpenRouterEngine creates an OpenRouterEngine for the given API key.
// An empty baseURL selects the public endpoint.
func NewOpenRouterEngine(apiKey, baseURL string) (*OpenRouterEngine, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenRouter API key is required")
	}
	c := proxy.NewClient(apiKey)
	if baseURL != "" {
		c = proxy.NewClientWithBaseURL(apiKey, baseURL)
	}
	return &OpenRouterEngine{client: c}, nil
}

func (e *OpenRouterEngine) Generate(ctx context.Context, model, prompt string, maxTokens int) (string, error) {
	text, err := e.client.Complete(ctx, model, prompt, maxTokens)
	if err != nil {
		return "", fmt.Errorf("openrouter generate: %w", err)
	}
	return text, nil
}

func (e *OpenRouterEngine) IsRunning(ctx context.Context) bool {
	_, err := e.client.ListModels(ctx)
	return err == nil
}

func (e *OpenRouterEngine) HasModel(ctx context.Context, name string) bool {
	models, err := e.client.ListModels(ctx)
	if err != nil {
		return false
	}
	return slices.ContainsFunc(models, func(m proxy.Model) bool { return m.ID == name })
}

func (e *OpenRouterEngine) PullModel(_ context.Context, name string, _ func(PullProgress)) error {
	return fmt.Errorf("model %s is not offered by OpenRouter", name)
}
