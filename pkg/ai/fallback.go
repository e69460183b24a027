package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
)

// FallbackService routes chat to Gemini first for answer quality and falls
// back to the local Ollama model when Gemini is unreachable or out of quota.
type FallbackService struct {
	gemini Assistant
	ollama Assistant
	logger *slog.Logger
}

// NewFallbackService creates a new fallback service; either provider may be nil.
func NewFallbackService(gemini, ollama Assistant, logger *slog.Logger) *FallbackService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackService{gemini: gemini, ollama: ollama, logger: logger}
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return containsAny(err.Error(),
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"EOF",
	)
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(err.Error(),
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
	)
}

func containsAny(s string, indicators ...string) bool {
	s = strings.ToLower(s)
	for _, indicator := range indicators {
		if strings.Contains(s, strings.ToLower(indicator)) {
			return true
		}
	}
	return false
}

// Reply tries Gemini, then Ollama. When Ollama fails to connect after a
// Gemini quota error there is nothing left to try.
func (f *FallbackService) Reply(ctx context.Context, message string) (string, error) {
	var geminiErr error
	if f.gemini != nil {
		reply, err := f.gemini.Reply(ctx, message)
		if err == nil {
			return reply, nil
		}
		geminiErr = err
		switch {
		case isQuotaError(err):
			f.logger.Warn("gemini quota exhausted, falling back to ollama", slog.Any("error", err))
		case isConnectionError(err):
			f.logger.Warn("gemini unreachable, falling back to ollama", slog.Any("error", err))
		default:
			f.logger.Warn("gemini error, falling back to ollama", slog.Any("error", err))
		}
	}

	if f.ollama != nil {
		reply, err := f.ollama.Reply(ctx, message)
		if err == nil {
			return reply, nil
		}
		f.logger.Error("ollama chat failed", slog.Any("error", err))
		return "", errors.Join(geminiErr, fmt.Errorf("ollama chat failed: %w", err))
	}

	if geminiErr != nil {
		return "", fmt.Errorf("gemini chat failed: %w", geminiErr)
	}
	return "", fmt.Errorf("no AI provider available for chat")
}
