package usecase

import (
	"context"
	"fmt"
	"strings"

	"alertsphere/internal/chat/domain"
	"alertsphere/pkg/ai"
)

// ChatUsecase answers chat requests on the relay server.
type ChatUsecase interface {
	Reply(ctx context.Context, message string) (string, error)
}

type chatUsecase struct {
	assistant ai.Assistant
}

func NewChatUsecase(assistant ai.Assistant) ChatUsecase {
	return &chatUsecase{assistant: assistant}
}

func (u *chatUsecase) Reply(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", domain.ErrEmptyMessage
	}
	if u.assistant == nil {
		return "", fmt.Errorf("no AI provider configured")
	}
	return u.assistant.Reply(ctx, message)
}
