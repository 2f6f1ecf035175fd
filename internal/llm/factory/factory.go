// internal/llm/factory/factory.go
package factory

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/newthinker/quantsafe/internal/config"
	"github.com/newthinker/quantsafe/internal/llm"
	"github.com/newthinker/quantsafe/internal/llm/claude"
	"github.com/newthinker/quantsafe/internal/llm/gemini"
	"github.com/newthinker/quantsafe/internal/llm/ollama"
	"github.com/newthinker/quantsafe/internal/llm/openai"
)

// New creates an LLM provider based on configuration. cfg.Timeout bounds
// every provider's HTTP calls.
func New(cfg config.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "gemini", "":
		return gemini.New(cfg.Gemini.Endpoint, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Timeout)
	case "claude":
		var opts []option.RequestOption
		if cfg.Timeout > 0 {
			opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
		}
		if cfg.Claude.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.Claude.BaseURL))
		}
		return claude.New(cfg.Claude.APIKey, cfg.Claude.Model, opts...)
	case "openai":
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL, cfg.Timeout)
	case "ollama":
		return ollama.New(cfg.Ollama.Endpoint, cfg.Ollama.Model, cfg.Timeout)
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
