package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"alertsphere/pkg/ai"

	"github.com/gin-gonic/gin"
)

// RuntimeSettings holds assistant settings that can change without a restart.
type RuntimeSettings struct {
	mu            sync.RWMutex
	OllamaBaseURL string `json:"ollama_base_url"`
	OllamaModel   string `json:"ollama_model,omitempty"`

	client *http.Client
}

func NewRuntimeSettings(ollamaBaseURL, ollamaModel string) *RuntimeSettings {
	return &RuntimeSettings{
		OllamaBaseURL: ollamaBaseURL,
		OllamaModel:   ollamaModel,
		client:        &http.Client{Timeout: 5 * time.Second},
	}
}

// BaseURL returns the current Ollama base URL
func (s *RuntimeSettings) BaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.OllamaBaseURL
}

// Model returns the current Ollama model
func (s *RuntimeSettings) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.OllamaModel
}

// UpdateOllamaSettingsRequest represents the request body for updating Ollama settings
type UpdateOllamaSettingsRequest struct {
	OllamaBaseURL string `json:"ollama_base_url" binding:"required"`
	OllamaModel   string `json:"ollama_model,omitempty"`
}

// GetOllamaSettings returns current Ollama configuration
// GET /api/settings/ollama
func (s *RuntimeSettings) GetOllamaSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ollama_base_url": s.BaseURL(),
		"ollama_model":    s.Model(),
	})
}

// UpdateOllamaSettings updates Ollama configuration at runtime
// PUT /api/settings/ollama
func (s *RuntimeSettings) UpdateOllamaSettings(c *gin.Context) {
	var req UpdateOllamaSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	s.OllamaBaseURL = req.OllamaBaseURL
	if req.OllamaModel != "" {
		s.OllamaModel = req.OllamaModel
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"message":         "Ollama settings updated successfully",
		"ollama_base_url": req.OllamaBaseURL,
		"ollama_model":    s.Model(),
	})
}

// TestOllamaConnection checks that the Ollama server is reachable
// POST /api/settings/ollama/test
func (s *RuntimeSettings) TestOllamaConnection(c *gin.Context) {
	var req struct {
		OllamaBaseURL string `json:"ollama_base_url"`
	}
	// An empty body tests the current settings.
	_ = c.ShouldBindJSON(&req)
	if req.OllamaBaseURL == "" {
		req.OllamaBaseURL = s.BaseURL()
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := ai.Ping(ctx, s.client, req.OllamaBaseURL)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"connected": false,
			"error":     err.Error(),
		})
		return
	}
	if status != http.StatusOK {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"connected":   false,
			"status_code": status,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected":       true,
		"ollama_base_url": req.OllamaBaseURL,
	})
}
