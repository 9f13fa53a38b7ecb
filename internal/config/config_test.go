package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// mockSecrets is a test double for the secretStore interface.
type mockSecrets struct {
	value string
	err   error
}

func (m mockSecrets) Get(service, account string) (string, error) {
	return m.value, m.err
}

func writeTempConfig(t *testing.T, content string) *fileBackend {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return newFileBackend(path)
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
	}
}

// TestDefaults verifies all default values are applied when loading an empty config file.
func TestDefaults(t *testing.T) {
	clearEnv(t)
	b := writeTempConfig(t, `{}`)

	cfg, err := loadWith(b, mockSecrets{err: errors.New("none")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want 4100", cfg.Server.Port)
	}
	if cfg.Server.MaxConns != 64 {
		t.Errorf("Server.MaxConns = %d, want 64", cfg.Server.MaxConns)
	}
	if cfg.LLM.Backend != "ollama" {
		t.Errorf("LLM.Backend = %q, want %q", cfg.LLM.Backend, "ollama")
	}
	if cfg.Ollama.BaseURL != "http://localhost:11434" {
		t.Errorf("Ollama.BaseURL = %q, want %q", cfg.Ollama.BaseURL, "http://localhost:11434")
	}
	if cfg.Ollama.Model != "phi3.5" {
		t.Errorf("Ollama.Model = %q, want %q", cfg.Ollama.Model, "phi3.5")
	}
	if cfg.Storage.Engine != "modernc" {
		t.Errorf("Storage.Engine = %q, want %q", cfg.Storage.Engine, "modernc")
	}
	if cfg.Storage.PoolSize != 4 {
		t.Errorf("Storage.PoolSize = %d, want 4", cfg.Storage.PoolSize)
	}
	if got := cfg.ClassifierTimeout(); got != 10*time.Second {
		t.Errorf("ClassifierTimeout() = %v, want 10s", got)
	}
}

// TestFileValues verifies that all fields are correctly read from the JSON file.
func TestFileValues(t *testing.T) {
	clearEnv(t)
	b := writeTempConfig(t, `{
		"server.port": 5000,
		"ollama.base_url": "http://custom:11434",
		"ollama.model": "flan-t5",
		"classifier.timeout": "2s",
		"storage.engine": "ncruces",
		"storage.pool_size": "8",
		"storage.data_dir": "/tmp/askorg-test"
	}`)

	cfg, err := loadWith(b, mockSecrets{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Ollama.BaseURL != "http://custom:11434" {
		t.Errorf("Ollama.BaseURL = %q", cfg.Ollama.BaseURL)
	}
	if cfg.Ollama.Model != "flan-t5" {
		t.Errorf("Ollama.Model = %q", cfg.Ollama.Model)
	}
	if cfg.Storage.Engine != "ncruces" {
		t.Errorf("Storage.Engine = %q", cfg.Storage.Engine)
	}
	if cfg.Storage.PoolSize != 8 {
		t.Errorf("Storage.PoolSize = %d, want 8", cfg.Storage.PoolSize)
	}
	if cfg.Storage.DataDir != "/tmp/askorg-test" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
	if got := cfg.ClassifierTimeout(); got != 2*time.Second {
		t.Errorf("ClassifierTimeout() = %v, want 2s", got)
	}
}

// TestEnvOverride verifies that environment variables override config file values.
func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	b := writeTempConfig(t, `{"server.port": 5000}`)
	t.Setenv("ASKORG_SERVER_PORT", "6000")
	t.Setenv("ASKORG_STORAGE_ENGINE", "ncruces")

	cfg, err := loadWith(b, mockSecrets{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 6000 {
		t.Errorf("Server.Port = %d, want 6000", cfg.Server.Port)
	}
	if cfg.Storage.Engine != "ncruces" {
		t.Errorf("Storage.Engine = %q, want ncruces", cfg.Storage.Engine)
	}
}

// TestInvalidEnvInt keeps the file value when the env var does not parse.
func TestInvalidEnvInt(t *testing.T) {
	clearEnv(t)
	b := writeTempConfig(t, `{"server.port": 5000}`)
	t.Setenv("ASKORG_SERVER_PORT", "not-a-number")

	cfg, err := loadWith(b, mockSecrets{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
}

func TestGenAIBackendRequiresKey(t *testing.T) {
	clearEnv(t)
	b := writeTempConfig(t, `{"llm.backend": "genai"}`)

	_, err := loadWith(b, mockSecrets{err: errors.New("no secrets file")})
	if err == nil {
		t.Fatal("expected error for missing API key, got nil")
	}
	if !strings.Contains(err.Error(), "missing required config") {
		t.Errorf("error = %q, want it to mention missing required config", err)
	}
}

// TestSecretsFallback verifies the secrets file is consulted when the key is not in env.
func TestSecretsFallback(t *testing.T) {
	clearEnv(t)
	b := writeTempConfig(t, `{"llm.backend": "genai"}`)

	cfg, err := loadWith(b, mockSecrets{value: "secret-from-file"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GenAI.APIKey != "secret-from-file" {
		t.Errorf("GenAI.APIKey = %q, want %q", cfg.GenAI.APIKey, "secret-from-file")
	}
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown backend", `{"llm.backend": "mlx"}`, "invalid llm.backend"},
		{"zero pool", `{"storage.pool_size": 0}`, "invalid storage.pool_size"},
		{"bad int", `{"server.port": "abc"}`, "reading server.port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			b := writeTempConfig(t, tt.content)
			_, err := loadWith(b, mockSecrets{})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestSetKey(t *testing.T) {
	b := newFileBackend(filepath.Join(t.TempDir(), "askorg", "config.json"))

	if err := setKeyWith(b, "storage.pool_size", "6"); err != nil {
		t.Fatalf("setKeyWith: %v", err)
	}
	reloaded := newFileBackend(b.path)
	v, ok, err := reloaded.GetInt("storage.pool_size")
	if err != nil || !ok || v != 6 {
		t.Errorf("GetInt = (%d, %v, %v), want (6, true, nil)", v, ok, err)
	}

	if err := setKeyWith(b, "genai.api_key", "x"); err == nil {
		t.Error("setting a secret key should fail")
	}
	if err := setKeyWith(b, "no.such.key", "x"); err == nil {
		t.Error("setting an unknown key should fail")
	}
	if err := setKeyWith(b, "server.port", "many"); err == nil {
		t.Error("setting a non-integer port should fail")
	}
}

func TestShowAllHidesSecrets(t *testing.T) {
	cfg := defaults()
	cfg.GenAI.APIKey = "top-secret"
	for _, k := range ShowAll(cfg) {
		if k.Key == "genai.api_key" || k.Value == "top-secret" {
			t.Errorf("ShowAll exposed secret key %q", k.Key)
		}
	}
}

func TestAPITokenFromEnv(t *testing.T) {
	clearEnv(t)
	b := writeTempConfig(t, `{}`)
	t.Setenv("ASKORG_SERVER_API_TOKEN", "tok")

	cfg, err := loadWith(b, mockSecrets{err: errors.New("none")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.APIToken != "tok" {
		t.Errorf("Server.APIToken = %q, want tok", cfg.Server.APIToken)
	}
}

func TestClassifierModel(t *testing.T) {
	cfg := defaults()
	if got := cfg.ClassifierModel(); got != "phi3.5" {
		t.Errorf("ClassifierModel() = %q, want phi3.5", got)
	}
	cfg.LLM.Backend = "GenAI"
	if got := cfg.ClassifierModel(); got != "gemini-2.0-flash" {
		t.Errorf("ClassifierModel() = %q, want gemini-2.0-flash", got)
	}
}

func TestHistoryConfig(t *testing.T) {
	clearEnv(t)
	b := writeTempConfig(t, `{"history.max_rows": 50, "history.prune_interval": "30s"}`)

	cfg, err := loadWith(b, mockSecrets{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.History.MaxRows != 50 {
		t.Errorf("History.MaxRows = %d, want 50", cfg.History.MaxRows)
	}
	if got := cfg.PruneInterval(); got != 30*time.Second {
		t.Errorf("PruneInterval() = %v, want 30s", got)
	}

	cfg.History.PruneInterval = "soon"
	if got := cfg.PruneInterval(); got != time.Minute {
		t.Errorf("PruneInterval() with bad value = %v, want 1m", got)
	}

	b = writeTempConfig(t, `{"history.max_rows": -1}`)
	if _, err := loadWith(b, mockSecrets{}); err == nil || !strings.Contains(err.Error(), "history.max_rows") {
		t.Errorf("err = %v, want invalid history.max_rows", err)
	}
}

func TestOpenRouterBackend(t *testing.T) {
	clearEnv(t)
	b := writeTempConfig(t, `{"llm.backend": "openrouter", "openrouter.model": "a/b"}`)

	if _, err := loadWith(b, mockSecrets{err: errors.New("none")}); err == nil || !strings.Contains(err.Error(), "OpenRouter API key") {
		t.Fatalf("err = %v, want missing OpenRouter API key", err)
	}

	t.Setenv("ASKORG_OPENROUTER_API_KEY", "or-key")
	cfg, err := loadWith(b, mockSecrets{err: errors.New("none")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OpenRouter.APIKey != "or-key" {
		t.Errorf("OpenRouter.APIKey = %q, want or-key", cfg.OpenRouter.APIKey)
	}
	if got := cfg.ClassifierModel(); got != "a/b" {
		t.Errorf("ClassifierModel() = %q, want a/b", got)
	}
}
