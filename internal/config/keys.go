package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "ASKORG_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.max_conns", typ: kInt, env: "ASKORG_SERVER_MAX_CONNS",
		apply:   func(cfg *Config, v any) { cfg.Server.MaxConns = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.MaxConns },
	},
	{
		key: "server.api_token", typ: kString, env: "ASKORG_SERVER_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.APIToken },
	},
	{
		key: "llm.backend", typ: kString, env: "ASKORG_LLM_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.LLM.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.LLM.Backend },
	},
	{
		key: "ollama.base_url", typ: kString, env: "ASKORG_OLLAMA_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.BaseURL },
	},
	{
		key: "ollama.model", typ: kString, env: "ASKORG_OLLAMA_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.Model },
	},
	{
		key: "genai.model", typ: kString, env: "ASKORG_GENAI_MODEL",
		apply:   func(cfg *Config, v any) { cfg.GenAI.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.GenAI.Model },
	},
	{
		key: "genai.api_key", typ: kString, env: "ASKORG_GENAI_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.GenAI.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.GenAI.APIKey },
	},
	{
		key: "openrouter.model", typ: kString, env: "ASKORG_OPENROUTER_MODEL",
		apply:   func(cfg *Config, v any) { cfg.OpenRouter.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.OpenRouter.Model },
	},
	{
		key: "openrouter.base_url", typ: kString, env: "ASKORG_OPENROUTER_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.OpenRouter.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.OpenRouter.BaseURL },
	},
	{
		key: "openrouter.api_key", typ: kString, env: "ASKORG_OPENROUTER_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.OpenRouter.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.OpenRouter.APIKey },
	},
	{
		key: "classifier.timeout", typ: kString, env: "ASKORG_CLASSIFIER_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Classifier.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Classifier.Timeout },
	},
	{
		key: "storage.data_dir", typ: kString, env: "ASKORG_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "storage.engine", typ: kString, env: "ASKORG_STORAGE_ENGINE",
		apply:   func(cfg *Config, v any) { cfg.Storage.Engine = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.Engine },
	},
	{
		key: "storage.pool_size", typ: kInt, env: "ASKORG_STORAGE_POOL_SIZE",
		apply:   func(cfg *Config, v any) { cfg.Storage.PoolSize = v.(int) },
		extract: func(cfg Config) any { return cfg.Storage.PoolSize },
	},
	{
		key: "storage.seed_file", typ: kString, env: "ASKORG_STORAGE_SEED_FILE",
		apply:   func(cfg *Config, v any) { cfg.Storage.SeedFile = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.SeedFile },
	},
	{
		key: "history.max_rows", typ: kInt, env: "ASKORG_HISTORY_MAX_ROWS",
		apply:   func(cfg *Config, v any) { cfg.History.MaxRows = v.(int) },
		extract: func(cfg Config) any { return cfg.History.MaxRows },
	},
	{
		key: "history.prune_interval", typ: kString, env: "ASKORG_HISTORY_PRUNE_INTERVAL",
		apply:   func(cfg *Config, v any) { cfg.History.PruneInterval = v.(string) },
		extract: func(cfg Config) any { return cfg.History.PruneInterval },
	},
	{
		key: "log.level", typ: kString, env: "ASKORG_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
