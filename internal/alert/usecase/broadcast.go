package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"alertsphere/internal/alert/domain"
	"alertsphere/pkg/fcm"
	"alertsphere/pkg/metrics"
)

// BroadcastWriter persists a broadcast record and returns its id.
type BroadcastWriter interface {
	Create(ctx context.Context, title, message string) (string, error)
}

// AlertPublisher puts a push payload on the alerts topic.
type AlertPublisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error)
}

// WebPushSender delivers a notification to FCM web tokens.
type WebPushSender interface {
	SendToDevices(ctx context.Context, tokens []string, n fcm.NotificationData) (fcm.SendResult, error)
}

// WebTokens lists registered web push tokens and drops dead ones.
type WebTokens interface {
	WebTokens(ctx context.Context) ([]string, error)
	RemoveDead(ctx context.Context, tokens []string) error
}

// PublishResult summarises one broadcast fan-out.
type PublishResult struct {
	ID            string   `json:"id"`
	PubSubMessage string   `json:"pubsub_message_id,omitempty"`
	WebDelivered  int      `json:"web_delivered"`
	WebRemoved    int      `json:"web_removed"`
	Warnings      []string `json:"warnings,omitempty"`
}

type BroadcastUsecase interface {
	Publish(ctx context.Context, title, message string) (*PublishResult, error)
}

type broadcastUsecase struct {
	writer    BroadcastWriter
	publisher AlertPublisher
	web       WebPushSender
	tokens    WebTokens
	logger    *slog.Logger
	marshal   func(v any) ([]byte, error)
}

// NewBroadcastUsecase wires the broadcast fan-out. publisher, web and tokens
// may be nil when the corresponding channel is not configured.
func NewBroadcastUsecase(writer BroadcastWriter, publisher AlertPublisher, web WebPushSender, tokens WebTokens, logger *slog.Logger) BroadcastUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &broadcastUsecase{
		writer:    writer,
		publisher: publisher,
		web:       web,
		tokens:    tokens,
		logger:    logger,
		marshal:   json.Marshal,
	}
}

// Publish records the broadcast in the authoritative collection first, then
// pushes it. Push failures are reported as warnings; only a failed write is
// an error, because clients only ever show records from the collection.
func (u *broadcastUsecase) Publish(ctx context.Context, title, message string) (*PublishResult, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.ErrInvalidBroadcast
	}

	id, err := u.writer.Create(ctx, title, message)
	if err != nil {
		metrics.BroadcastsPublishedTotal.WithLabelValues("collection", "error").Inc()
		return nil, err
	}
	metrics.BroadcastsPublishedTotal.WithLabelValues("collection", "ok").Inc()
	result := &PublishResult{ID: id}

	if u.publisher != nil {
		u.publish(ctx, result, title, message)
	}

	if u.web != nil && u.tokens != nil {
		u.sendWeb(ctx, result, title, message)
	}

	u.logger.Info("broadcast published",
		slog.String("id", id),
		slog.Int("web_delivered", result.WebDelivered),
		slog.Int("warnings", len(result.Warnings)),
	)
	return result, nil
}

func (u *broadcastUsecase) publish(ctx context.Context, result *PublishResult, title, message string) {
	payload, err := u.marshal(map[string]any{
		"notification": map[string]string{"title": title, "body": message},
		"data":         map[string]string{"broadcast_id": result.ID},
	})
	if err != nil {
		u.warn(result, "pubsub", fmt.Errorf("encode push payload: %w", err))
		return
	}
	msgID, err := u.publisher.Publish(ctx, payload, map[string]string{"audience": "all", "broadcast_id": result.ID})
	if err != nil {
		u.warn(result, "pubsub", err)
		return
	}
	result.PubSubMessage = msgID
	metrics.BroadcastsPublishedTotal.WithLabelValues("pubsub", "ok").Inc()
}

func (u *broadcastUsecase) sendWeb(ctx context.Context, result *PublishResult, title, message string) {
	tokens, err := u.tokens.WebTokens(ctx)
	if err != nil {
		u.warn(result, "fcm", fmt.Errorf("list web tokens: %w", err))
		return
	}
	if len(tokens) == 0 {
		return
	}

	sent, err := u.web.SendToDevices(ctx, tokens, fcm.NotificationData{
		Title: title,
		Body:  message,
		Data:  map[string]string{"type": "broadcast", "broadcast_id": result.ID},
	})
	result.WebDelivered = sent.Success
	if err != nil {
		u.warn(result, "fcm", err)
	} else {
		metrics.BroadcastsPublishedTotal.WithLabelValues("fcm", "ok").Inc()
	}

	if len(sent.Dead) > 0 {
		if err := u.tokens.RemoveDead(ctx, sent.Dead); err != nil {
			u.warn(result, "fcm", fmt.Errorf("remove dead tokens: %w", err))
			return
		}
		result.WebRemoved = len(sent.Dead)
	}
}

func (u *broadcastUsecase) warn(result *PublishResult, channel string, err error) {
	metrics.BroadcastsPublishedTotal.WithLabelValues(channel, "error").Inc()
	result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", channel, err))
	u.logger.Warn("broadcast channel failed",
		slog.String("channel", channel),
		slog.String("id", result.ID),
		slog.Any("error", err),
	)
}
