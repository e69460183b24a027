package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	notificationdomain "alertsphere/internal/notification/domain"
	"alertsphere/internal/subscriber/domain"
	"alertsphere/internal/subscriber/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memorySuppression struct {
	mu     sync.Mutex
	tokens map[string]bool
	err    error
}

func newMemorySuppression() *memorySuppression {
	return &memorySuppression{tokens: map[string]bool{}}
}

func (m *memorySuppression) IsSuppressed(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[token], m.err
}

func (m *memorySuppression) Suppress(_ context.Context, tokens ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tokens {
		m.tokens[t] = true
	}
	return nil
}

func newRepo(t *testing.T) repository.TokenRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Subscriber{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return repository.NewTokenRepository(db)
}

func TestRegisterToken_ClassifiesPlatform(t *testing.T) {
	uc := NewSubscriberUsecase(newRepo(t), nil, discardLogger())
	ctx := context.Background()
	pubsubToken := notificationdomain.FormatPubSubToken("BKey", "projects/demo/subscriptions/firebase-messaging-sw-js-dev1")

	tests := []struct {
		name string
		req  domain.RegisterTokenRequest
		want string
	}{
		{"pubsub by shape", domain.RegisterTokenRequest{Token: pubsubToken}, domain.PlatformPubSub},
		{"pubsub ignores requested platform", domain.RegisterTokenRequest{Token: pubsubToken, Platform: "web"}, domain.PlatformPubSub},
		{"web default", domain.RegisterTokenRequest{Token: "fcm-web-token"}, domain.PlatformWeb},
		{"explicit platform", domain.RegisterTokenRequest{Token: "apns-token", Platform: "iOS"}, "ios"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := uc.RegisterToken(ctx, "", tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegisterToken_Rejections(t *testing.T) {
	supp := newMemorySuppression()
	uc := NewSubscriberUsecase(newRepo(t), supp, discardLogger())
	ctx := context.Background()

	_, err := uc.RegisterToken(ctx, "", domain.RegisterTokenRequest{Token: "  "})
	assert.ErrorIs(t, err, domain.ErrTokenRequired)

	require.NoError(t, supp.Suppress(ctx, "dead"))
	_, err = uc.RegisterToken(ctx, "", domain.RegisterTokenRequest{Token: "dead"})
	assert.ErrorIs(t, err, domain.ErrTokenSuppressed)
}

func TestRegisterToken_SuppressionOutageDoesNotBlock(t *testing.T) {
	supp := newMemorySuppression()
	supp.err = errors.New("redis down")
	uc := NewSubscriberUsecase(newRepo(t), supp, discardLogger())

	_, err := uc.RegisterToken(context.Background(), "", domain.RegisterTokenRequest{Token: "web-1"})
	assert.NoError(t, err)
}

func TestRemoveDead(t *testing.T) {
	repo := newRepo(t)
	supp := newMemorySuppression()
	uc := NewSubscriberUsecase(repo, supp, discardLogger())
	ctx := context.Background()

	for _, tok := range []string{"web-1", "web-2", "web-3"} {
		_, err := uc.RegisterToken(ctx, "", domain.RegisterTokenRequest{Token: tok})
		require.NoError(t, err)
	}

	require.NoError(t, uc.RemoveDead(ctx, []string{"web-1", "web-3"}))

	left, err := uc.WebTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"web-2"}, left)

	_, err = uc.RegisterToken(ctx, "", domain.RegisterTokenRequest{Token: "web-1"})
	assert.ErrorIs(t, err, domain.ErrTokenSuppressed)
}

func TestUnregisterToken(t *testing.T) {
	uc := NewSubscriberUsecase(newRepo(t), nil, discardLogger())
	ctx := context.Background()

	_, err := uc.RegisterToken(ctx, "", domain.RegisterTokenRequest{Token: "web-1"})
	require.NoError(t, err)

	require.NoError(t, uc.UnregisterToken(ctx, "web-1"))
	assert.ErrorIs(t, uc.UnregisterToken(ctx, "web-1"), domain.ErrNotFound)
}

type fakeSink struct {
	name  string
	err   error
	delay time.Duration

	mu  sync.Mutex
	got []notificationdomain.DeviceToken
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Persist(ctx context.Context, token notificationdomain.DeviceToken) error {
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, token)
	return f.err
}

func TestRegistrar_WritesEverySink(t *testing.T) {
	keyring := &fakeSink{name: "keyring"}
	store := &fakeSink{name: "firestore", delay: 100 * time.Millisecond}
	server := &fakeSink{name: "http", delay: 100 * time.Millisecond}
	r := NewRegistrar(discardLogger(), keyring, store, server)
	token := notificationdomain.DeviceToken{Value: "tok-1", Owner: "anonymous"}

	start := time.Now()
	require.NoError(t, r.Register(context.Background(), token))

	assert.Less(t, time.Since(start), 190*time.Millisecond, "sinks should run concurrently")
	for _, s := range []*fakeSink{keyring, store, server} {
		assert.Equal(t, []notificationdomain.DeviceToken{token}, s.got, s.name)
	}
}

func TestRegistrar_OneFailureDoesNotStopOthers(t *testing.T) {
	boom := errors.New("boom")
	failing := &fakeSink{name: "http", err: boom}
	ok := &fakeSink{name: "firestore"}
	r := NewRegistrar(discardLogger(), failing, ok)

	err := r.Register(context.Background(), notificationdomain.DeviceToken{Value: "tok"})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "http")
	assert.Len(t, ok.got, 1)
}

func TestRegistrar_EmptyToken(t *testing.T) {
	sink := &fakeSink{name: "keyring"}
	r := NewRegistrar(discardLogger(), sink)

	assert.Error(t, r.Register(context.Background(), notificationdomain.DeviceToken{}))
	assert.Empty(t, sink.got)
}
