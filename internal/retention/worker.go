package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Pruner trims the question history.
type Pruner interface {
	PruneHistory(ctx context.Context, keep int) (int64, error)
}

// Worker periodically trims the question history to a fixed number of rows.
type Worker struct {
	store  Pruner
	keep   int
	poll   time.Duration
	logger *slog.Logger
}

// NewWorker creates a Worker keeping the newest keep records.
// If pollInterval is <= 0, it defaults to one minute.
func NewWorker(store Pruner, keep int, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = time.Minute
	}
	return &Worker{
		store:  store,
		keep:   keep,
		poll:   pollInterval,
		logger: slog.Default(),
	}
}

// Run prunes once per interval until ctx is cancelled. A non-positive keep
// disables pruning and Run returns immediately.
func (w *Worker) Run(ctx context.Context) {
	if w.keep <= 0 {
		w.logger.Debug("history retention disabled")
		return
	}
	for {
		if ctx.Err() != nil {
			return
		}

		if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("history prune failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.poll):
		}
	}
}

// RunOnce performs a single prune and returns the number of rows removed.
func (w *Worker) RunOnce(ctx context.Context) (int64, error) {
	n, err := w.store.PruneHistory(ctx, w.keep)
	if err != nil {
		return 0, fmt.Errorf("pruning history to %d rows: %w", w.keep, err)
	}
	if n > 0 {
		w.logger.Info("pruned question history", "removed", n, "kept", w.keep)
	}
	return n, nil
}
