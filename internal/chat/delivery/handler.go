package delivery

import (
	"errors"
	"log/slog"
	"net/http"

	"alertsphere/internal/chat/domain"
	"alertsphere/internal/chat/usecase"

	"github.com/gin-gonic/gin"
)

// ChatHandler serves the citizen assistant endpoint
type ChatHandler struct {
	chatUsecase usecase.ChatUsecase
	logger      *slog.Logger
}

func NewChatHandler(chatUsecase usecase.ChatUsecase, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{chatUsecase: chatUsecase, logger: logger}
}

// Chat answers one message
// POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply, err := h.chatUsecase.Reply(c.Request.Context(), req.Message)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("assistant failed", slog.Any("error", err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "assistant unavailable"})
		return
	}

	c.JSON(http.StatusOK, domain.ChatResponse{Reply: reply})
}
