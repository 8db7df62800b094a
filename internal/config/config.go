package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Addr string `toml:"addr" env:"PERSONAPANEL_ADDR"`
	Port string `toml:"-" env:"PORT"`
	// Mode is passed to gin.SetMode: debug, release or test.
	Mode string `toml:"mode" env:"PERSONAPANEL_GIN_MODE"`
}

type StorageConfig struct {
	Path string `toml:"path" env:"PERSONAPANEL_DB_PATH"`
}

type LLMConfig struct {
	Provider    string  `toml:"provider" env:"LLM_PROVIDER"`
	Model       string  `toml:"model" env:"LLM_MODEL"`
	APIKey      string  `toml:"api_key" env:"LLM_API_KEY"`
	BaseURL     string  `toml:"base_url" env:"LLM_BASE_URL"`
	MaxTokens   int     `toml:"max_tokens" env:"LLM_MAX_TOKENS"`
	Temperature float32 `toml:"temperature" env:"LLM_TEMPERATURE"`
}

// GraphConfig points at an optional Memgraph/Neo4j instance that mirrors
// who-talked-to-whom for every completed simulation.
type GraphConfig struct {
	Enabled  bool   `toml:"enabled" env:"PERSONAPANEL_GRAPH_ENABLED"`
	URI      string `toml:"uri" env:"MEMGRAPH_URI"`
	User     string `toml:"user" env:"MEMGRAPH_USER"`
	Password string `toml:"password" env:"MEMGRAPH_PASSWORD"`
}

// Prompts are fmt templates. Entity takes (type name, type description,
// dimension block, instructions). Dialogue takes (context, participants,
// turn count, first turn). Continuation takes (context, participants,
// previous interaction, turn count, first turn).
type Prompts struct {
	Entity       string `toml:"entity"`
	Dialogue     string `toml:"dialogue"`
	Continuation string `toml:"continuation"`
}

type ConcurrencyConfig struct {
	EntityGeneration int `toml:"entity_generation" env:"PERSONAPANEL_ENTITY_CONCURRENCY"`
}

type LoggingConfig struct {
	Level       string `toml:"level" env:"PERSONAPANEL_LOG_LEVEL"`
	Development bool   `toml:"development" env:"PERSONAPANEL_LOG_DEVELOPMENT"`
}

type Config struct {
	Server      ServerConfig      `toml:"server"`
	Storage     StorageConfig     `toml:"storage"`
	LLM         LLMConfig         `toml:"llm"`
	Graph       GraphConfig       `toml:"graph"`
	Prompts     Prompts           `toml:"prompts"`
	Concurrency ConcurrencyConfig `toml:"concurrency"`
	Logging     LoggingConfig     `toml:"logging"`
}

var providers = map[string]bool{
	"openai":        true,
	"ollama":        true,
	"ollama-openai": true,
	"claude":        true,
	"gemini":        true,
	"none":          true,
}

// Default returns a configuration that runs against a local Ollama instance
// and stores data in ./personapanel.db.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
			Mode: "release",
		},
		Storage: StorageConfig{
			Path: "personapanel.db",
		},
		LLM: LLMConfig{
			Provider:    "ollama",
			Model:       "llama3.1:latest",
			BaseURL:     "http://localhost:11434",
			MaxTokens:   4000,
			Temperature: 0.8,
		},
		Graph: GraphConfig{
			URI: "bolt://localhost:7687",
		},
		Prompts: Prompts{
			Entity:       DefaultEntityPrompt,
			Dialogue:     DefaultDialoguePrompt,
			Continuation: DefaultContinuationPrompt,
		},
		Concurrency: ConcurrencyConfig{
			EntityGeneration: 4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path on top of Default. A missing file is not an error when
// allowMissing is set; environment overrides are applied last.
func Load(path string, allowMissing bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && allowMissing:
	default:
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with any environment variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if cfg.Server.Port != "" {
		cfg.Server.Addr = ":" + strings.TrimPrefix(cfg.Server.Port, ":")
	}
	return nil
}

func (c *Config) Validate() error {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = "none"
	}
	if !providers[c.LLM.Provider] {
		return fmt.Errorf("unsupported llm provider: %s", c.LLM.Provider)
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("storage.path must not be empty")
	}
	if c.Concurrency.EntityGeneration <= 0 {
		return fmt.Errorf("concurrency.entity_generation must be positive, got %d", c.Concurrency.EntityGeneration)
	}
	if c.Prompts.Entity == "" || c.Prompts.Dialogue == "" || c.Prompts.Continuation == "" {
		return fmt.Errorf("prompt templates must not be empty")
	}
	if c.Graph.Enabled && c.Graph.URI == "" {
		return fmt.Errorf("graph.uri is required when graph export is enabled")
	}
	return nil
}
