package llm

import (
	"fmt"
	"time"

	"github.com/jordanlanch/beautyos/config"
	"github.com/jordanlanch/beautyos/pkg/logger"
)

// Provider default endpoints for OpenAI compatible hosts.
const (
	GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	OllamaBaseURL = "http://localhost:11434/v1"
)

// NewFromConfig builds the client selected by LLM_PROVIDER.
func NewFromConfig(cfg *config.Config, log logger.Logger) (LLMClient, error) {
	c := Config{
		BaseURL:   cfg.LLMBaseURL,
		Model:     cfg.LLMModel,
		MaxTokens: cfg.LLMMaxTokens,
		Timeout:   time.Duration(cfg.LLMTimeoutSec) * time.Second,
	}

	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		c.APIKey = cfg.OpenAIAPIKey
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is not set")
		}
		c.APIKey = cfg.GeminiAPIKey
		if c.BaseURL == "" {
			c.BaseURL = GeminiBaseURL
		}
	case "ollama":
		// API key not needed for Ollama
		c.APIKey = "ollama"
		if c.BaseURL == "" {
			c.BaseURL = OllamaBaseURL
		}
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER: %s", cfg.LLMProvider)
	}

	return NewOpenAIClient(c, log), nil
}
