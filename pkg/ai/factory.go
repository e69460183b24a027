package ai

import (
	"context"
	"fmt"
	"log/slog"

	"alertsphere/pkg/gemini"
)

// DynamicConfig holds AI provider configuration. Ollama settings are read
// through getters so they can change at runtime.
type DynamicConfig struct {
	Provider         ProviderType
	GeminiAPIKey     string
	GeminiModel      string
	GetOllamaBaseURL func() string
	GetOllamaModel   func() string
}

// NewAssistant creates an Assistant for the configured provider. "auto"
// chains Gemini (when a key is set) with Ollama.
func NewAssistant(ctx context.Context, cfg DynamicConfig, logger *slog.Logger) (Assistant, error) {
	ollama := NewOllamaServiceWithGetters(cfg.GetOllamaBaseURL, cfg.GetOllamaModel)

	switch cfg.Provider {
	case ProviderGemini:
		return gemini.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, SystemPrompt)

	case ProviderOllama:
		return ollama, nil

	case ProviderAuto, "":
		if cfg.GeminiAPIKey == "" {
			return NewFallbackService(nil, ollama, logger), nil
		}
		g, err := gemini.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, SystemPrompt)
		if err != nil {
			return nil, err
		}
		return NewFallbackService(g, ollama, logger), nil

	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
