package agent

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider names the LLM backend used for synthesis.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGroq      Provider = "groq"
	ProviderOllama    Provider = "ollama"
)

// ProviderConfig selects and configures the synthesis model.
type ProviderConfig struct {
	Provider Provider `json:"provider" yaml:"provider"`
	Model    string   `json:"model"    yaml:"model"`
	APIKey   string   `json:"-"        yaml:"-"`
	APIURL   string   `json:"api_url,omitempty" yaml:"api_url,omitempty"`
}

// NewModel creates the langchaingo model for the configured provider.
func NewModel(cfg *ProviderConfig) (llms.Model, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return newOpenAIModel(cfg)
	case ProviderAnthropic:
		return newAnthropicModel(cfg)
	case ProviderGroq:
		return newGroqModel(cfg)
	case ProviderOllama:
		return newOllamaModel(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
}

func newOpenAIModel(cfg *ProviderConfig) (llms.Model, error) {
	opts := []openai.Option{openai.WithModel(cfg.Model)}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	if cfg.APIURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.APIURL))
	}
	return openai.New(opts...)
}

func newAnthropicModel(cfg *ProviderConfig) (llms.Model, error) {
	opts := []anthropic.Option{anthropic.WithModel(cfg.Model)}
	if cfg.APIKey != "" {
		opts = append(opts, anthropic.WithToken(cfg.APIKey))
	}
	return anthropic.New(opts...)
}

func newGroqModel(cfg *ProviderConfig) (llms.Model, error) {
	baseURL := "https://api.groq.com/openai/v1"
	if cfg.APIURL != "" {
		baseURL = cfg.APIURL
	}
	opts := []openai.Option{
		openai.WithModel(cfg.Model),
		openai.WithBaseURL(baseURL),
	}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	return openai.New(opts...)
}

func newOllamaModel(cfg *ProviderConfig) (llms.Model, error) {
	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.APIURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.APIURL))
	}
	return ollama.New(opts...)
}
