package config

import "strings"

// Providers
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{ProviderOpenAI, ProviderGemini}

// LLMConfig configures the model used by `kirby ask`.
type LLMConfig struct {
	Provider     string  `yaml:"provider"` // openai, gemini
	APIKey       string  `yaml:"api_key"`
	Model        string  `yaml:"model"`
	Temperature  float64 `yaml:"temperature"`
	TopP         float64 `yaml:"top_p"`
	MaxTokens    int     `yaml:"max_tokens"`
	Timeout      string  `yaml:"timeout"`
	SystemPrompt string  `yaml:"system_prompt"`
	// BaseURL overrides the provider endpoint, e.g. for a proxy.
	BaseURL string `yaml:"base_url,omitempty"`
}

// DefaultLLMConfig returns the LLM defaults. The provider is left empty so
// AI_CLIENT (or the config file) must pick one.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Temperature:  0.25,
		TopP:         0.96,
		MaxTokens:    4096,
		Timeout:      "120s",
		SystemPrompt: "You are a helpful assistant. Answer using the provided context.",
	}
}

// DefaultModelFor returns the model used when none is configured.
func DefaultModelFor(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o"
	case ProviderGemini:
		return "gemini-2.5-flash"
	default:
		return ""
	}
}

// ResolvedModel returns Model, or the provider default when unset.
func (c LLMConfig) ResolvedModel() string {
	if c.Model != "" {
		return c.Model
	}
	return DefaultModelFor(strings.ToLower(strings.TrimSpace(c.Provider)))
}
