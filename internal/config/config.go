package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	LLM        LLMConfig
	Ollama     OllamaConfig
	GenAI      GenAIConfig
	OpenRouter OpenRouterConfig
	Classifier ClassifierConfig
	Storage    StorageConfig
	History    HistoryConfig
	Log        LogConfig
}

type ServerConfig struct {
	Port     int
	MaxConns int
	// APIToken guards the history endpoint when set.
	APIToken string
}

type LLMConfig struct {
	// Backend selects the text-generation engine: "ollama", "genai" or "openrouter".
	Backend string
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type GenAIConfig struct {
	APIKey string
	Model  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type ClassifierConfig struct {
	Timeout string
}

type StorageConfig struct {
	DataDir  string
	Engine   string
	PoolSize int
	SeedFile string
}

type HistoryConfig struct {
	// MaxRows caps the query log; 0 keeps everything.
	MaxRows       int
	PruneInterval string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:     4100,
			MaxConns: 64,
		},
		LLM: LLMConfig{
			Backend: "ollama",
		},
		Ollama: OllamaConfig{
			BaseURL: "http://localhost:11434",
			Model:   "phi3.5",
		},
		GenAI: GenAIConfig{
			Model: "gemini-2.0-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: "meta-llama/llama-3.1-8b-instruct",
		},
		Classifier: ClassifierConfig{
			Timeout: "10s",
		},
		Storage: StorageConfig{
			DataDir:  defaultDataDir(),
			Engine:   "modernc",
			PoolSize: 4,
		},
		History: HistoryConfig{
			MaxRows:       1000,
			PruneInterval: "1m",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ClassifierTimeout parses Classifier.Timeout, falling back to 10s when the
// value is empty or malformed. A non-positive duration disables the timeout.
func (c Config) ClassifierTimeout() time.Duration {
	d, err := time.ParseDuration(c.Classifier.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// PruneInterval parses History.PruneInterval, falling back to one minute.
func (c Config) PruneInterval() time.Duration {
	d, err := time.ParseDuration(c.History.PruneInterval)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// ClassifierModel returns the model name for the selected llm.backend.
func (c Config) ClassifierModel() string {
	switch strings.ToLower(c.LLM.Backend) {
	case "genai":
		return c.GenAI.Model
	case "openrouter":
		return c.OpenRouter.Model
	default:
		return c.Ollama.Model
	}
}

// Load reads configuration from the JSON config file, environment variables,
// and the local secrets file.
//
// The config file lives at $XDG_CONFIG_HOME/askorg/config.json. Environment
// variables (ASKORG_*) override file values. Secrets are never read from the
// config file; they come from the environment or
// $XDG_DATA_HOME/askorg/secrets.json.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), secretsFile{})
}

// secretStore abstracts secret lookup for testing.
type secretStore interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, secrets secretStore) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.GenAI.APIKey == "" {
		if key, err := secrets.Get("askorg", "genai_api_key"); err == nil && key != "" {
			cfg.GenAI.APIKey = key
		}
	}
	if cfg.OpenRouter.APIKey == "" {
		if key, err := secrets.Get("askorg", "openrouter_api_key"); err == nil && key != "" {
			cfg.OpenRouter.APIKey = key
		}
	}
	if cfg.Server.APIToken == "" {
		if tok, err := secrets.Get("askorg", "api_token"); err == nil {
			cfg.Server.APIToken = tok
		}
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	switch strings.ToLower(cfg.LLM.Backend) {
	case "ollama":
	case "genai":
		if cfg.GenAI.APIKey == "" {
			return fmt.Errorf("missing required config: Gemini API key. " +
				"Set it via environment variable ASKORG_GENAI_API_KEY")
		}
	case "openrouter":
		if cfg.OpenRouter.APIKey == "" {
			return fmt.Errorf("missing required config: OpenRouter API key. " +
				"Set it via environment variable ASKORG_OPENROUTER_API_KEY")
		}
	default:
		return fmt.Errorf("invalid llm.backend %q: want ollama, genai or openrouter", cfg.LLM.Backend)
	}
	if cfg.Storage.PoolSize < 1 {
		return fmt.Errorf("invalid storage.pool_size %d: must be at least 1", cfg.Storage.PoolSize)
	}
	if cfg.History.MaxRows < 0 {
		return fmt.Errorf("invalid history.max_rows %d: must not be negative", cfg.History.MaxRows)
	}
	if cfg.Server.MaxConns < 1 {
		return fmt.Errorf("invalid server.max_conns %d: must be at least 1", cfg.Server.MaxConns)
	}
	return nil
}
