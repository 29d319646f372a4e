package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/vouch/internal/model"
)

// NewProvider creates a completion provider from configuration. An empty
// or "none" provider disables the LLM and returns nil, nil.
func NewProvider(config Config) (Provider, error) {
	switch providerName(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)
	case "anthropic":
		return NewAnthropicProvider(config)
	case "ollama":
		return NewOllamaProvider(config)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// FromModel builds the provider for the application's LLM section
func FromModel(c model.LLMConfig) (Provider, error) {
	return NewProvider(ConfigFromModel(c))
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(c model.LLMConfig) Config {
	return Config{
		Provider:    providerName(c.Provider),
		Model:       c.Model,
		APIKey:      c.APIKey,
		BaseURL:     c.BaseURL,
		Timeout:     c.Timeout,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
		HTTPProxy:   c.HTTPProxy,
		HTTPSProxy:  c.HTTPSProxy,
	}
}

func providerName(name string) string {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "claude":
		return "anthropic"
	case "none", "disabled", "off":
		return ""
	default:
		return n
	}
}
