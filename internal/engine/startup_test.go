package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

type mockEngine struct {
	isRunning bool
	models    map[string]bool
	pulled    []string
	pullErr   error
}

func (m *mockEngine) Generate(_ context.Context, _, _ string, _ int) (string, error) {
	return "", nil
}
func (m *mockEngine) IsRunning(_ context.Context) bool             { return m.isRunning }
func (m *mockEngine) HasModel(_ context.Context, name string) bool { return m.models[name] }
func (m *mockEngine) PullModel(_ context.Context, name string, cb func(PullProgress)) error {
	m.pulled = append(m.pulled, name)
	if m.pullErr != nil {
		return m.pullErr
	}
	if cb != nil {
		cb(PullProgress{Status: "downloading", Total: 100, Completed: 50})
		cb(PullProgress{Status: "success"})
	}
	return nil
}

func TestEnsureReady_ModelPresent(t *testing.T) {
	m := &mockEngine{isRunning: true, models: map[string]bool{"phi3.5": true}}
	if err := EnsureReady(context.Background(), m, "phi3.5", io.Discard); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	if len(m.pulled) != 0 {
		t.Errorf("expected no pulls, got %v", m.pulled)
	}
}

func TestEnsureReady_PullsMissing(t *testing.T) {
	m := &mockEngine{isRunning: true, models: map[string]bool{}}
	var out bytes.Buffer
	if err := EnsureReady(context.Background(), m, "phi3.5", &out); err != nil {
		t.Fatalf("EnsureReady: %v", err)
	}
	if len(m.pulled) != 1 || m.pulled[0] != "phi3.5" {
		t.Errorf("expected pull of phi3.5, got %v", m.pulled)
	}
	if !strings.Contains(out.String(), "downloading 50%") {
		t.Errorf("progress output = %q, want a percentage line", out.String())
	}
}

func TestEnsureReady_PullFails(t *testing.T) {
	m := &mockEngine{isRunning: true, models: map[string]bool{}, pullErr: errors.New("disk full")}
	err := EnsureReady(context.Background(), m, "phi3.5", io.Discard)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("err = %v, want wrapped pull error", err)
	}
}

func TestEnsureReady_EngineDown(t *testing.T) {
	m := &mockEngine{isRunning: false, models: map[string]bool{}}
	if err := EnsureReady(context.Background(), m, "phi3.5", io.Discard); err == nil {
		t.Fatal("expected error when engine is down")
	}
}
