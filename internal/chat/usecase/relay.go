package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"alertsphere/internal/chat/domain"
	"alertsphere/pkg/metrics"
	"alertsphere/pkg/remote"
)

// ChatClient sends one message to the remote assistant.
type ChatClient interface {
	Ask(ctx context.Context, message string) (string, error)
}

// Relay keeps a session transcript and relays user text to the assistant.
// It never fails visibly: every failure becomes a fixed fallback reply.
type Relay struct {
	client ChatClient
	logger *slog.Logger

	mu         sync.Mutex
	transcript []domain.Message
}

func NewRelay(client ChatClient, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{
		client:     client,
		logger:     logger,
		transcript: []domain.Message{{Sender: domain.SenderAssistant, Text: domain.Greeting}},
	}
}

// Send appends text to the transcript, asks the assistant once and appends
// the reply or a fallback. Blank input is ignored and reported with
// ErrEmptyMessage.
func (r *Relay) Send(ctx context.Context, text string) (domain.Message, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Message{}, domain.ErrEmptyMessage
	}
	r.append(domain.Message{Sender: domain.SenderUser, Text: text})

	reply, err := r.client.Ask(ctx, text)
	msg := domain.Message{Sender: domain.SenderAssistant, Text: reply}

	var se *remote.ServerError
	switch {
	case errors.As(err, &se):
		r.logger.Error("chat server error", slog.Int("status", se.Status), slog.Any("error", err))
		metrics.ChatRequestsTotal.WithLabelValues("server_error").Inc()
		msg.Text = domain.ServerErrorText
	case err != nil:
		r.logger.Error("chat transport error", slog.Any("error", err))
		metrics.ChatRequestsTotal.WithLabelValues("transport_error").Inc()
		msg.Text = domain.TransportErrorText
	case strings.TrimSpace(reply) == "":
		r.logger.Warn("chat response carried no reply")
		metrics.ChatRequestsTotal.WithLabelValues("no_reply").Inc()
		msg.Text = domain.NoReplyText
	default:
		metrics.ChatRequestsTotal.WithLabelValues("ok").Inc()
	}

	r.append(msg)
	return msg, nil
}

// Transcript returns a copy of the session so far.
func (r *Relay) Transcript() []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Message(nil), r.transcript...)
}

func (r *Relay) append(m domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcript = append(r.transcript, m)
}
