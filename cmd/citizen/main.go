// Command citizen is the foreground alert client: it registers this device
// for pushes, shows alerts while open, mirrors the live dashboard and relays
// questions to the disaster assistant.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	alertdomain "alertsphere/internal/alert/domain"
	alertRepo "alertsphere/internal/alert/repository"
	alertUsecase "alertsphere/internal/alert/usecase"
	chatRepo "alertsphere/internal/chat/repository"
	chatUsecase "alertsphere/internal/chat/usecase"
	"alertsphere/internal/device"
	"alertsphere/internal/device/credential"
	notificationdomain "alertsphere/internal/notification/domain"
	"alertsphere/internal/notification/platform"
	notificationUsecase "alertsphere/internal/notification/usecase"
	subscriberRepo "alertsphere/internal/subscriber/repository"
	subscriberUsecase "alertsphere/internal/subscriber/usecase"
	"alertsphere/pkg/config"
	"alertsphere/pkg/fcm"
	"alertsphere/pkg/logger"
	"alertsphere/pkg/metrics"
	"alertsphere/pkg/remote"
	"alertsphere/pkg/retry"

	"cloud.google.com/go/firestore"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	if err := cfg.ValidateClient(); err != nil {
		log.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}
	metrics.MustRegister()
	metrics.Serve(cfg.MetricsAddr, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("citizen client stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	session, err := device.OpenSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer session.Close()

	// Firestore backs the dashboard and one of the token sinks. Without it
	// the client still receives alerts and chats.
	var store *firestore.Client
	if app, err := fcm.NewApp(ctx, cfg.GoogleProjectID, cfg.FirebaseCredentials); err != nil {
		log.Warn("firebase unavailable, dashboard disabled", slog.Any("error", err))
	} else if store, err = app.Firestore(ctx); err != nil {
		log.Warn("firestore unavailable, dashboard disabled", slog.Any("error", err))
		store = nil
	} else {
		defer store.Close()
	}

	var prompter platform.Prompter = platform.HuhPrompter{
		Description: "Flood, fire and evacuation alerts for your area.",
	}
	if cfg.NotificationPermission != "" {
		prompter = platform.StaticPrompter(cfg.NotificationPermission)
	}
	gateway := platform.NewGateway(
		platform.NewPermissions(session.Store, prompter),
		session.Registry,
		platform.NewTokenIssuer(session.Admin, session.Store),
		platform.NewTerminalDisplay(os.Stdout),
	)

	messaging := platform.NewMessaging(logger.Component(log, "messaging"))
	messaging.Init(ctx, session.Connector(cfg.BackgroundContextPath))

	// While the lease is held the push worker leaves this device's pushes to
	// the foreground bridge.
	release := session.HoldForeground(ctx, cfg.ForegroundLeaseTTL, logger.Component(log, "lease"))
	defer release()

	bridge := notificationUsecase.NewForegroundBridge(messaging, gateway, cfg.NotificationIcon, logger.Component(log, "foreground"))
	defer bridge.Close()
	go func() {
		if err := messaging.Ready().Wait(ctx, cfg.MessagingReadyTimeout); err != nil {
			log.Warn("foreground alerts disabled", slog.Any("error", err))
			return
		}
		bridge.Listen(nil)
	}()

	tokens := notificationUsecase.NewTokenManager(gateway, messaging, notificationUsecase.TokenManagerConfig{
		VAPIDKey:       cfg.VAPIDKey,
		BackgroundPath: cfg.BackgroundContextPath,
		ReadyTimeout:   cfg.MessagingReadyTimeout,
		Owner:          cfg.OwnerID,
		Platform:       "pubsub",
	}, logger.Component(log, "tokens"))

	registrar := subscriberUsecase.NewRegistrar(logger.Component(log, "registrar"), tokenSinks(cfg, store, log)...)

	// The permission prompt owns the terminal until it is answered, so it
	// settles before the chat loop reads stdin.
	stored := registerDevice(ctx, tokens, registrar, log)
	defer func() { <-stored }()

	if store != nil {
		dashboard := alertUsecase.NewDashboard(alertRepo.NewFirestoreSource(store), logger.Component(log, "dashboard"))
		dashboard.OnChange(func(s alertdomain.Stats) { printDashboard(os.Stdout, s) })
		if err := dashboard.Start(ctx); err != nil {
			log.Warn("dashboard unavailable", slog.Any("error", err))
		}
		defer dashboard.Close()
	}

	chatClient := chatRepo.NewHTTPChatClient(remote.NewClient(cfg.ServerBaseURL, cfg.HTTPTimeout))
	relay := chatUsecase.NewRelay(chatClient, logger.Component(log, "chat"))
	return runChat(ctx, relay, os.Stdin, os.Stdout)
}

type tokenAcquirer interface {
	AcquireToken(ctx context.Context) (*notificationdomain.DeviceToken, error)
}

type tokenRegistrar interface {
	Register(ctx context.Context, token notificationdomain.DeviceToken) error
}

// registerDevice acquires the device token and returns once any permission
// prompt has finished with the terminal. The token is stored in the
// background; the returned channel closes when that is done.
func registerDevice(ctx context.Context, tokens tokenAcquirer, registrar tokenRegistrar, log *slog.Logger) <-chan struct{} {
	stored := make(chan struct{})
	token, err := tokens.AcquireToken(ctx)
	if err != nil {
		close(stored)
		return stored
	}
	go func() {
		defer close(stored)
		if err := registrar.Register(ctx, *token); err != nil {
			log.Warn("device token not stored everywhere", slog.Any("error", err))
		}
	}()
	return stored
}

func tokenSinks(cfg *config.Config, store *firestore.Client, log *slog.Logger) []subscriberUsecase.TokenSink {
	var sinks []subscriberUsecase.TokenSink

	if vault, err := credential.Open(cfg.KeyringDir, cfg.KeyringPassword); err != nil {
		log.Warn("keyring unavailable, token not kept locally", slog.Any("error", err))
	} else {
		sinks = append(sinks, vault)
	}
	if store != nil {
		sinks = append(sinks, subscriberRepo.NewFirestoreSink(store))
	}
	sinks = append(sinks, subscriberRepo.NewHTTPSink(
		remote.NewClient(cfg.ServerBaseURL, cfg.HTTPTimeout),
		retry.Config{MaxAttempts: cfg.RegistrationMaxAttempts},
		"",
	))
	return sinks
}
