package api

import (
	"context"
	"log/slog"

	alertDelivery "alertsphere/internal/alert/delivery"
	alertUsecase "alertsphere/internal/alert/usecase"
	chatDelivery "alertsphere/internal/chat/delivery"
	chatUsecase "alertsphere/internal/chat/usecase"
	subscriberDelivery "alertsphere/internal/subscriber/delivery"
	subscriberUsecase "alertsphere/internal/subscriber/usecase"
	"alertsphere/pkg/ai"
	"alertsphere/pkg/config"
	"alertsphere/pkg/logger"
	"alertsphere/pkg/metrics"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	config *config.Config
	logger *slog.Logger
	routes Routes
}

// NewHandler wires the relay server handlers. broadcastUc may be nil when
// Firebase is not configured.
func NewHandler(ctx context.Context, cfg *config.Config, subscriberUc subscriberUsecase.SubscriberUsecase, broadcastUc alertUsecase.BroadcastUsecase, log *slog.Logger) *Handler {
	log = logger.Component(log, "api")

	// Runtime config for the settings API
	settings := NewRuntimeSettings(cfg.OllamaBaseURL, cfg.OllamaModel)

	// The assistant reads Ollama settings through getters so updates apply
	// without a restart.
	aiCfg := ai.DynamicConfig{
		Provider:         ai.ProviderType(cfg.AIProvider),
		GeminiAPIKey:     cfg.GeminiAPIKey,
		GeminiModel:      cfg.GeminiModel,
		GetOllamaBaseURL: settings.BaseURL,
		GetOllamaModel:   settings.Model,
	}
	assistant, err := ai.NewAssistant(ctx, aiCfg, log)
	if err != nil {
		log.Warn("failed to initialize assistant, chat will answer 502", slog.Any("error", err))
		assistant = nil
	} else {
		log.Info("assistant initialized", slog.String("provider", cfg.AIProvider))
	}

	routes := Routes{
		JWTSecret:   cfg.JWTSecret,
		Subscribers: subscriberDelivery.NewSubscriberHandler(subscriberUc),
		Chat:        chatDelivery.NewChatHandler(chatUsecase.NewChatUsecase(assistant), log),
		Settings:    settings,
	}
	if broadcastUc != nil {
		routes.Broadcasts = alertDelivery.NewBroadcastHandler(broadcastUc)
	}

	return &Handler{config: cfg, logger: log, routes: routes}
}

// Engine builds the gin engine with middleware and routes.
func (h *Handler) Engine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), metrics.GinMiddleware())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.routes)
	return r
}
