package factory

import (
	"context"
	"fmt"

	"oreza-assistant-be/pkg/llm"
	"oreza-assistant-be/pkg/llm/gemini"
	"oreza-assistant-be/pkg/llm/ollama"
	"oreza-assistant-be/pkg/llm/openai"
)

// ProviderConfig is the subset of generator settings a backend needs.
type ProviderConfig struct {
	Provider string // "ollama", "openai", "huggingface", "gemini"
	Model    string
	BaseURL  string
	APIKey   string
}

func NewLLMProvider(ctx context.Context, cfg ProviderConfig) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai: api key is required")
		}
		return openai.NewProvider(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	case "huggingface":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("huggingface: api key is required")
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = openai.HuggingFaceBaseURL
		}
		return openai.NewProvider(cfg.APIKey, baseURL, cfg.Model), nil
	case "gemini":
		return gemini.NewProvider(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
