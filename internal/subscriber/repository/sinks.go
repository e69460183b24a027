package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"

	notificationdomain "alertsphere/internal/notification/domain"
	"alertsphere/internal/subscriber/domain"
	"alertsphere/pkg/remote"
	"alertsphere/pkg/retry"

	"cloud.google.com/go/firestore"
)

const subscribersCollection = "subscribers"

// FirestoreSink writes the device token to subscribers/{sha256(token)}.
type FirestoreSink struct {
	client *firestore.Client
}

func NewFirestoreSink(client *firestore.Client) *FirestoreSink {
	return &FirestoreSink{client: client}
}

func (s *FirestoreSink) Name() string { return "firestore" }

func (s *FirestoreSink) Persist(ctx context.Context, token notificationdomain.DeviceToken) error {
	_, err := s.client.Collection(subscribersCollection).Doc(TokenDocID(token.Value)).Set(ctx, map[string]any{
		"token":     token.Value,
		"owner":     token.Owner,
		"platform":  token.Platform,
		"issuedAt":  token.IssuedAt,
		"updatedAt": firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("failed to write subscriber document: %w", err)
	}
	return nil
}

// TokenDocID is the document id a token is stored under.
func TokenDocID(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// HTTPSink posts the device token to the relay server's /register-token.
type HTTPSink struct {
	client    *remote.Client
	retry     retry.Config
	authToken string
}

// NewHTTPSink builds the sink. authToken, when set, is sent as a bearer
// token so the server can resolve the owner.
func NewHTTPSink(client *remote.Client, retryCfg retry.Config, authToken string) *HTTPSink {
	if retryCfg.Retryable == nil {
		retryCfg.Retryable = remote.Retryable
	}
	return &HTTPSink{client: client, retry: retryCfg, authToken: authToken}
}

func (s *HTTPSink) Name() string { return "http" }

func (s *HTTPSink) Persist(ctx context.Context, token notificationdomain.DeviceToken) error {
	var headers map[string]string
	if s.authToken != "" {
		headers = map[string]string{"Authorization": "Bearer " + s.authToken}
	}
	body := domain.RegisterTokenRequest{Token: token.Value, Platform: token.Platform}

	return retry.Do(ctx, s.retry, func() error {
		return s.client.Do(ctx, http.MethodPost, "/register-token", body, nil, headers)
	})
}
