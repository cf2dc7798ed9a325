package ai

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/suPer8Hu/gopherchat/internal/config"
)

// NewRegistryFromConfig registers every provider that has enough
// configuration to be constructed.
func NewRegistryFromConfig(ctx context.Context, cfg config.Config) *Registry {
	reg := NewRegistry()

	reg.Register("ollama", cfg.OllamaModel, func(_ context.Context, model string) (Provider, error) {
		return NewOllamaProvider(cfg.OllamaBaseURL, model), nil
	})

	if cfg.OpenRouterAPIKey != "" {
		reg.Register("openrouter", cfg.OpenRouterModel, func(_ context.Context, model string) (Provider, error) {
			return NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, model, cfg.OpenRouterSiteURL, cfg.OpenRouterAppName), nil
		})
	}

	if cfg.GeminiAPIKey != "" {
		gemini, err := NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Error().Err(err).Msg("gemini provider disabled")
		} else {
			reg.Register("gemini", cfg.GeminiModel, func(_ context.Context, model string) (Provider, error) {
				return gemini.WithModel(model), nil
			})
		}
	}

	if cfg.OpenAIAPIKey != "" {
		oai, err := NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		if err != nil {
			log.Error().Err(err).Msg("openai provider disabled")
		} else {
			reg.Register("openai", cfg.OpenAIModel, func(_ context.Context, model string) (Provider, error) {
				return oai.WithModel(model), nil
			})
		}
	}

	log.Debug().Strs("providers", reg.Names()).Msg("ai providers registered")
	return reg
}
