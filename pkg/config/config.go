// Package config loads application configuration from defaults layered with
// ROUTINE_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "ROUTINE_"

// Config is the root application configuration.
type Config struct {
	Log     LogConfig     `koanf:"log"`
	Runtime RuntimeConfig `koanf:"runtime"`
	Agent   AgentConfig   `koanf:"agent"`
	Tools   ToolsConfig   `koanf:"tools"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

type RuntimeConfig struct {
	// Type selects the converter runtime executable, "bun" or "node".
	Type string `koanf:"type"`
	// ExecutionTimeout bounds one converter run.
	ExecutionTimeout time.Duration `koanf:"execution_timeout"`
}

type AgentConfig struct {
	Provider    string `koanf:"provider"`
	Model       string `koanf:"model"`
	APIKey      string `koanf:"api_key"`
	APIURL      string `koanf:"api_url"`
	MaxAttempts int    `koanf:"max_attempts"`
}

type ToolsConfig struct {
	// CallTimeout bounds one tool invocation.
	CallTimeout time.Duration `koanf:"call_timeout"`
	// BinanceBaseURL overrides the Binance API host, mainly for tests.
	BinanceBaseURL string `koanf:"binance_base_url"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Runtime: RuntimeConfig{
			Type:             "bun",
			ExecutionTimeout: 30 * time.Second,
		},
		Agent: AgentConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			MaxAttempts: 3,
		},
		Tools: ToolsConfig{
			CallTimeout: 60 * time.Second,
		},
	}
}

// Load layers ROUTINE_* environment variables over the defaults.
// ROUTINE_AGENT_API_KEY maps to agent.api_key, and so on.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key string, value string) (string, any) {
			return transformEnvKey(key), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// transformEnvKey converts ROUTINE_SECTION_SOME_KEY to section.some_key. The
// first underscore separates the section; the rest of the name keeps its
// underscores.
func transformEnvKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	if idx := strings.IndexByte(key, '_'); idx >= 0 {
		return key[:idx] + "." + key[idx+1:]
	}
	return key
}
