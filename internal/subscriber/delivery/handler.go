package delivery

import (
	"errors"
	"net/http"
	"strings"

	"alertsphere/internal/subscriber/domain"
	"alertsphere/internal/subscriber/usecase"

	"github.com/gin-gonic/gin"
)

type SubscriberHandler struct {
	subscriberUsecase usecase.SubscriberUsecase
}

func NewSubscriberHandler(subscriberUsecase usecase.SubscriberUsecase) *SubscriberHandler {
	return &SubscriberHandler{subscriberUsecase: subscriberUsecase}
}

// RegisterToken handles POST /register-token
func (h *SubscriberHandler) RegisterToken(c *gin.Context) {
	var req domain.RegisterTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	platform, err := h.subscriberUsecase.RegisterToken(c.Request.Context(), ownerFrom(c), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrTokenSuppressed):
			c.JSON(http.StatusGone, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register token"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "token registered", "platform": platform})
}

// UnregisterToken handles DELETE /register-token/*token. The wildcard keeps
// Pub/Sub tokens, which contain slashes, in one parameter.
func (h *SubscriberHandler) UnregisterToken(c *gin.Context) {
	token := strings.TrimPrefix(c.Param("token"), "/")
	err := h.subscriberUsecase.UnregisterToken(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrTokenRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove token"})
		}
		return
	}
	c.Status(http.StatusNoContent)
}
