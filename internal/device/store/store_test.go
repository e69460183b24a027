package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alertsphere/internal/notification/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestDeviceIDIsStable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.DeviceID(ctx)
	require.NoError(t, err)
	second, err := s.DeviceID(ctx)
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestPermissionDefaultsAndPersists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.Permission(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.PermissionDefault, p)

	require.NoError(t, s.SetPermission(ctx, domain.PermissionGranted))
	p, err = s.Permission(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.PermissionGranted, p)
}

func TestRegistrationRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Registration(ctx, "/firebase-messaging-sw.js")
	assert.ErrorIs(t, err, ErrNotFound)

	reg := domain.Registration{
		Path:         "/firebase-messaging-sw.js",
		Subscription: "projects/p/subscriptions/firebase-messaging-sw-js-d1",
		RegisteredAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SaveRegistration(ctx, reg))

	got, err := s.Registration(ctx, reg.Path)
	require.NoError(t, err)
	assert.Equal(t, reg.Subscription, got.Subscription)
	assert.True(t, reg.RegisteredAt.Equal(got.RegisteredAt))
}

func TestRecordTokenSupersedesPrevious(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	sub := "projects/p/subscriptions/sw-d1"

	require.NoError(t, s.RecordToken(ctx, TokenRecord{
		Value: "old", Subscription: sub, KeyHash: "k1",
		IssuedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, s.RecordToken(ctx, TokenRecord{
		Value: "new", Subscription: sub, KeyHash: "k2",
		IssuedAt: time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC),
	}))

	active, err := s.ActiveToken(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, "new", active.Value)

	history, err := s.TokenHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "new", history[0].Value)
	assert.Nil(t, history[0].SupersededAt)
	assert.Equal(t, "old", history[1].Value)
	assert.NotNil(t, history[1].SupersededAt)
}

func TestRecordTokenSameValueIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := TokenRecord{Value: "tok", Subscription: "sub", KeyHash: "k"}

	require.NoError(t, s.RecordToken(ctx, rec))
	require.NoError(t, s.RecordToken(ctx, rec))

	history, err := s.TokenHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].SupersededAt)
}

func TestActiveTokenMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ActiveToken(context.Background(), "nothing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestForegroundLease(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	active, err := s.ForegroundActive(ctx)
	require.NoError(t, err)
	assert.False(t, active)

	held, err := s.HoldForeground(ctx, "citizen-1", 15*time.Second)
	require.NoError(t, err)
	assert.True(t, held)

	held, err = s.HoldForeground(ctx, "citizen-2", 15*time.Second)
	require.NoError(t, err)
	assert.False(t, held, "live lease must not be taken over")

	now = now.Add(10 * time.Second)
	held, err = s.HoldForeground(ctx, "citizen-1", 15*time.Second)
	require.NoError(t, err)
	assert.True(t, held, "holder renews")

	now = now.Add(14 * time.Second)
	active, err = s.ForegroundActive(ctx)
	require.NoError(t, err)
	assert.True(t, active)

	now = now.Add(2 * time.Second)
	active, err = s.ForegroundActive(ctx)
	require.NoError(t, err)
	assert.False(t, active, "lease expires without heartbeat")

	held, err = s.HoldForeground(ctx, "citizen-2", 15*time.Second)
	require.NoError(t, err)
	assert.True(t, held, "expired lease can be claimed")

	require.NoError(t, s.ReleaseForeground(ctx, "citizen-1"))
	active, err = s.ForegroundActive(ctx)
	require.NoError(t, err)
	assert.True(t, active, "only the holder releases")

	require.NoError(t, s.ReleaseForeground(ctx, "citizen-2"))
	active, err = s.ForegroundActive(ctx)
	require.NoError(t, err)
	assert.False(t, active)
}
