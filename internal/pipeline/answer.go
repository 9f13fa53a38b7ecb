package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kalambet/askorg/internal/format"
	"github.com/kalambet/askorg/internal/intent"
	"github.com/kalambet/askorg/internal/storage"
)

// Classifier turns a question into an intent.
type Classifier interface {
	Classify(ctx context.Context, question string) intent.Intent
}

// QueryRecorder persists answered questions.
type QueryRecorder interface {
	RecordQuery(ctx context.Context, r storage.QueryRecord) (storage.QueryRecord, error)
}

// Answerer runs classify, resolve and format for one question at a time.
// It keeps no state between calls.
type Answerer struct {
	classifier Classifier
	dispatcher *Dispatcher
	recorder   QueryRecorder
}

// NewAnswerer creates an Answerer. recorder may be nil to disable history.
func NewAnswerer(c Classifier, d *Dispatcher, recorder QueryRecorder) *Answerer {
	return &Answerer{classifier: c, dispatcher: d, recorder: recorder}
}

// Ask answers question. Only store failures are returned; ambiguity and empty
// results produce an answer.
func (a *Answerer) Ask(ctx context.Context, question string) (format.Response, error) {
	start := time.Now()

	in := a.classifier.Classify(ctx, question)
	rows, err := a.dispatcher.Resolve(ctx, in)
	if err != nil {
		return format.Response{}, fmt.Errorf("resolving %s: %w", in.Type, err)
	}
	resp := format.Format(in, rows)

	slog.Debug("question answered",
		"intent", in.Type,
		"parameter", in.Parameter,
		"rows", len(rows),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if a.recorder != nil {
		_, err := a.recorder.RecordQuery(ctx, storage.QueryRecord{
			Question:   question,
			IntentType: string(in.Type),
			Parameter:  in.Parameter,
			RowCount:   len(rows),
			Answer:     resp.FormattedAnswer,
		})
		if err != nil {
			slog.Warn("failed to record query", "error", err)
		}
	}
	return resp, nil
}

// Run answers a pre-classified intent, bypassing the classifier. It is not
// recorded in the history.
func (a *Answerer) Run(ctx context.Context, in intent.Intent) (format.Response, error) {
	rows, err := a.dispatcher.Resolve(ctx, in)
	if err != nil {
		return format.Response{}, fmt.Errorf("resolving %s: %w", in.Type, err)
	}
	return format.Format(in, rows), nil
}
