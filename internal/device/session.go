package device

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"alertsphere/internal/device/store"
	"alertsphere/internal/notification/domain"
	"alertsphere/internal/notification/platform"
	"alertsphere/pkg/config"
	"alertsphere/pkg/pushbus"

	"cloud.google.com/go/pubsub"
)

// Session is the per-installation state both client binaries start from:
// the local device database and the push channel bound to this device.
type Session struct {
	Store    *store.SQLiteStore
	DeviceID string
	PubSub   *pubsub.Client
	Admin    *platform.PubSubAdmin
	Registry *platform.ContextRegistry
}

func OpenSession(ctx context.Context, cfg *config.Config) (*Session, error) {
	if dir := filepath.Dir(cfg.DeviceStatePath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create device state dir: %w", err)
		}
	}

	st, err := store.NewSQLiteStore(cfg.DeviceStatePath)
	if err != nil {
		return nil, err
	}
	client, err := pushbus.NewClient(ctx, cfg.GoogleProjectID, cfg.FirebaseCredentials)
	if err != nil {
		st.Close()
		return nil, err
	}

	s, err := NewSession(ctx, st, client, cfg.AlertsTopic)
	if err != nil {
		client.Close()
		st.Close()
		return nil, err
	}
	return s, nil
}

// NewSession binds an open device store to a Pub/Sub client and the alerts
// topic.
func NewSession(ctx context.Context, st *store.SQLiteStore, client *pubsub.Client, topic string) (*Session, error) {
	deviceID, err := st.DeviceID(ctx)
	if err != nil {
		return nil, err
	}
	admin := platform.NewPubSubAdmin(client, topic)
	return &Session{
		Store:    st,
		DeviceID: deviceID,
		PubSub:   client,
		Admin:    admin,
		Registry: platform.NewContextRegistry(admin, st, deviceID),
	}, nil
}

// Subscription resolves the push subscription for path, registering the
// background context first if this device has not done so yet.
func (s *Session) Subscription(path string) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		reg, err := s.Registry.Register(ctx, path)
		if err != nil {
			return "", err
		}
		return reg.Subscription, nil
	}
}

// Connector initialises foreground messaging: it checks the alerts topic
// and receives from the subscription bound to path.
func (s *Session) Connector(path string) platform.Connector {
	return func(ctx context.Context) (platform.MessageSource, error) {
		ok, err := s.Admin.TopicExists(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &domain.PlatformError{Op: "initMessaging", Code: "topic-missing"}
		}
		return platform.NewSubscriptionSource(s.PubSub, s.Subscription(path)), nil
	}
}

// HoldForeground claims the device's pushes for the foreground client and
// keeps the claim alive until the returned func is called or ctx is done.
// The push worker stops receiving while the claim is live.
func (s *Session) HoldForeground(ctx context.Context, ttl time.Duration, log *slog.Logger) func() {
	holder := fmt.Sprintf("citizen-%d-%s", os.Getpid(), s.DeviceID)
	hold := func() {
		held, err := s.Store.HoldForeground(ctx, holder, ttl)
		switch {
		case err != nil:
			if ctx.Err() == nil {
				log.Warn("failed to renew foreground lease", slog.Any("error", err))
			}
		case !held:
			log.Warn("another foreground client holds this device's pushes")
		}
	}
	hold()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(ttl / 3)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				hold()
			}
		}
	}()

	return func() {
		cancel()
		<-done
		if err := s.Store.ReleaseForeground(context.Background(), holder); err != nil {
			log.Warn("failed to release foreground lease", slog.Any("error", err))
		}
	}
}

func (s *Session) Close() error {
	err := s.PubSub.Close()
	if cerr := s.Store.Close(); err == nil {
		err = cerr
	}
	return err
}
