package perception

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"kirby/internal/config"
)

// ErrInvalidConfig is wrapped by every ModelConfig validation failure.
var ErrInvalidConfig = errors.New("invalid model config")

// Provider identifies an LLM backend.
type Provider string

const (
	ProviderOpenAI Provider = config.ProviderOpenAI
	ProviderGemini Provider = config.ProviderGemini
)

// ModelConfig is everything a client needs. It is checked once, when the
// client is built.
type ModelConfig struct {
	Provider    Provider
	Model       string
	APIKey      string
	Temperature float64
	TopP        float64
	MaxTokens   int
	Timeout     time.Duration
	// BaseURL overrides the provider endpoint (tests, proxies).
	BaseURL string
}

// ModelConfigFrom builds a ModelConfig from the loaded configuration.
func ModelConfigFrom(cfg *config.Config) ModelConfig {
	return ModelConfig{
		Provider:    Provider(strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))),
		Model:       cfg.LLM.ResolvedModel(),
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
		TopP:        cfg.LLM.TopP,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.GetLLMTimeout(),
		BaseURL:     cfg.LLM.BaseURL,
	}
}

// Validate reports the first missing or out-of-range field.
func (c ModelConfig) Validate() error {
	switch c.Provider {
	case "":
		return fmt.Errorf("%w: no provider set (set AI_CLIENT or llm.provider)", ErrInvalidConfig)
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("%w: unsupported AI_CLIENT %q (valid: %s, %s)",
			ErrInvalidConfig, c.Provider, ProviderOpenAI, ProviderGemini)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: model is required", ErrInvalidConfig)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w: %s is not set", ErrInvalidConfig, apiKeyEnv(c.Provider))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("%w: temperature %.2f out of range [0, 2]", ErrInvalidConfig, c.Temperature)
	}
	if c.TopP < 0 || c.TopP > 1 {
		return fmt.Errorf("%w: top_p %.2f out of range [0, 1]", ErrInvalidConfig, c.TopP)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("%w: max_tokens must be positive", ErrInvalidConfig)
	}
	return nil
}

func apiKeyEnv(p Provider) string {
	if p == ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "OPENAI_API_KEY"
}
