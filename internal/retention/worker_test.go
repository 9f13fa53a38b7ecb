package retention

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

type mockPruner struct {
	mu    sync.Mutex
	calls []int
	n     int64
	err   error
}

func (m *mockPruner) PruneHistory(_ context.Context, keep int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, keep)
	return m.n, m.err
}

func (m *mockPruner) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func TestRunOnce(t *testing.T) {
	p := &mockPruner{n: 3}
	w := NewWorker(p, 100, time.Second)

	n, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if n != 3 {
		t.Errorf("removed = %d, want 3", n)
	}
	if len(p.calls) != 1 || p.calls[0] != 100 {
		t.Errorf("calls = %v, want [100]", p.calls)
	}
}

func TestRunOnce_Error(t *testing.T) {
	p := &mockPruner{err: errors.New("disk full")}
	w := NewWorker(p, 10, time.Second)

	_, err := w.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, p.err) {
		t.Errorf("err = %v, want it to wrap %v", err, p.err)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := &mockPruner{}
	w := NewWorker(p, 10, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for p.callCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if p.callCount() < 2 {
		t.Errorf("calls = %d, want at least 2", p.callCount())
	}
}

func TestRun_DisabledWhenKeepNotPositive(t *testing.T) {
	p := &mockPruner{}
	w := NewWorker(p, 0, time.Millisecond)

	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return immediately when retention is disabled")
	}
	if p.callCount() != 0 {
		t.Errorf("calls = %d, want 0", p.callCount())
	}
}

func TestNewWorker_DefaultPoll(t *testing.T) {
	w := NewWorker(&mockPruner{}, 1, 0)
	if w.poll != time.Minute {
		t.Errorf("poll = %v, want 1m", w.poll)
	}
}
