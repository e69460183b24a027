package delivery

import (
	"errors"
	"net/http"

	"alertsphere/internal/alert/domain"
	"alertsphere/internal/alert/usecase"

	"github.com/gin-gonic/gin"
)

// BroadcastHandler handles operator broadcast requests
type BroadcastHandler struct {
	broadcastUsecase usecase.BroadcastUsecase
}

func NewBroadcastHandler(broadcastUsecase usecase.BroadcastUsecase) *BroadcastHandler {
	return &BroadcastHandler{broadcastUsecase: broadcastUsecase}
}

// PublishBroadcastRequest represents the request body for a broadcast
type PublishBroadcastRequest struct {
	Title   string `json:"title" binding:"required"`
	Message string `json:"message"`
}

// Publish records a broadcast and pushes it to every subscriber
// POST /api/broadcasts
func (h *BroadcastHandler) Publish(c *gin.Context) {
	var req PublishBroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.broadcastUsecase.Publish(c.Request.Context(), req.Title, req.Message)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidBroadcast) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, result)
}
