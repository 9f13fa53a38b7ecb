package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/kalambet/askorg/internal/config"
	"github.com/kalambet/askorg/internal/engine"
	"github.com/kalambet/askorg/internal/intent"
	"github.com/kalambet/askorg/internal/mediator"
	"github.com/kalambet/askorg/internal/pipeline"
	"github.com/kalambet/askorg/internal/storage"
)

// app is the wired question pipeline shared by serve, mcp and ask --local.
type app struct {
	mediator *mediator.Mediator
	answerer *pipeline.Answerer
}

func (a *app) Close() error {
	return a.mediator.Close()
}

// setupLogging installs a text slog handler on stderr at the configured level.
func setupLogging(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

// openStore opens the configured database, applies migrations and seeds the
// sample organization into an empty store.
func openStore(ctx context.Context, cfg config.Config) (*storage.Pool, error) {
	pool, err := storage.Open(ctx, cfg.Storage.Engine, cfg.Storage.DataDir, cfg.Storage.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	ds, err := loadDataset(cfg.Storage.SeedFile)
	if err != nil {
		pool.Close()
		return nil, err
	}
	var seeded bool
	err = pool.Do(ctx, func(c storage.Conn) error {
		seeded, err = storage.SeedIfEmpty(ctx, c, ds)
		return err
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("seeding storage: %w", err)
	}
	if seeded {
		slog.Info("seeded empty store", "employees", len(ds.Employees), "projects", len(ds.Projects), "issues", len(ds.Issues))
	}
	return pool, nil
}

func loadDataset(path string) (storage.Dataset, error) {
	if path == "" {
		return storage.DefaultDataset()
	}
	return storage.LoadDataset(path)
}

// buildApp wires engine, store and pipeline. When progress is non-nil the
// classifier model is checked (and pulled if missing) with output to progress.
func buildApp(ctx context.Context, cfg config.Config, progress io.Writer) (*app, error) {
	eng, err := engine.Detect(ctx, engine.DetectConfig{
		Backend:       cfg.LLM.Backend,
		OllamaBaseURL: cfg.Ollama.BaseURL,
		GenAIAPIKey:   cfg.GenAI.APIKey,

		OpenRouterAPIKey:  cfg.OpenRouter.APIKey,
		OpenRouterBaseURL: cfg.OpenRouter.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("detecting text-generation engine: %w", err)
	}
	if progress != nil {
		if err := engine.EnsureReady(ctx, eng, cfg.ClassifierModel(), progress); err != nil {
			return nil, err
		}
	}

	pool, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	med := mediator.New(pool)

	labeler := intent.NewModelLabeler(eng, cfg.ClassifierModel(), cfg.ClassifierTimeout())
	answerer := pipeline.NewAnswerer(intent.NewClassifier(labeler), pipeline.NewDispatcher(med), med)

	return &app{mediator: med, answerer: answerer}, nil
}

// runJoined runs fn in a goroutine. The returned stop cancels fn's context
// and waits for fn to return.
func runJoined(ctx context.Context, fn func(context.Context)) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}
