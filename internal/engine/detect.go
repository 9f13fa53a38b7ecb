package engine

import (
	"context"
	"fmt"
	"strings"
)

// DetectConfig holds parameters for backend selection.
type DetectConfig struct {
	Backend       string
	OllamaBaseURL string
	GenAIAPIKey   string

	OpenRouterAPIKey  string
	OpenRouterBaseURL string
}

// Detect returns the Engine named by cfg.Backend. An empty backend selects Ollama.
func Detect(ctx context.Context, cfg DetectConfig) (Engine, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "ollama":
		return NewOllamaEngine(cfg.OllamaBaseURL), nil
	case "genai":
		return NewGenAIEngine(ctx, cfg.GenAIAPIKey)
	case "openrouter":
		return NewOpenRouterEngine(cfg.OpenRouterAPIKey, cfg.OpenRouterBaseURL)
	default:
		return nil, fmt.Errorf("unknown text-generation backend %q", cfg.Backend)
	}
}
