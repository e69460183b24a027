package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "alertsphere/cmd/api"
	alertRepo "alertsphere/internal/alert/repository"
	alertUsecase "alertsphere/internal/alert/usecase"
	subscriberdomain "alertsphere/internal/subscriber/domain"
	subscriberRepo "alertsphere/internal/subscriber/repository"
	subscriberUsecase "alertsphere/internal/subscriber/usecase"
	"alertsphere/pkg/config"
	"alertsphere/pkg/fcm"
	"alertsphere/pkg/logger"
	"alertsphere/pkg/metrics"
	"alertsphere/pkg/pushbus"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}
	metrics.MustRegister()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Error("failed to connect database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.AutoMigrate(&subscriberdomain.Subscriber{}); err != nil {
		log.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}

	// Dead token suppression is optional
	var suppression subscriberRepo.SuppressionCache = subscriberRepo.NoSuppression{}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			opts = &redis.Options{Addr: cfg.RedisURL}
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		suppression = subscriberRepo.NewRedisSuppression(rdb, 24*time.Hour)
	}

	subscriberUc := subscriberUsecase.NewSubscriberUsecase(
		subscriberRepo.NewTokenRepository(db),
		suppression,
		logger.Component(log, "subscribers"),
	)

	// Broadcasts need Firebase; the server still runs without it
	var broadcastUc alertUsecase.BroadcastUsecase
	if cfg.GoogleProjectID != "" {
		uc, cleanup, err := newBroadcastUsecase(ctx, cfg, subscriberUc, log)
		if err != nil {
			log.Warn("broadcasts disabled", slog.Any("error", err))
		} else {
			defer cleanup()
			broadcastUc = uc
		}
	} else {
		log.Warn("GOOGLE_PROJECT_ID not configured, broadcasts disabled")
	}

	handler := api.NewHandler(ctx, cfg, subscriberUc, broadcastUc, log)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("relay server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", slog.Any("error", err))
	}
	log.Info("relay server stopped")
}

// newBroadcastUsecase opens the Firebase and Pub/Sub clients behind
// POST /api/broadcasts. The returned cleanup closes them.
func newBroadcastUsecase(ctx context.Context, cfg *config.Config, tokens alertUsecase.WebTokens, log *slog.Logger) (alertUsecase.BroadcastUsecase, func(), error) {
	app, err := fcm.NewApp(ctx, cfg.GoogleProjectID, cfg.FirebaseCredentials)
	if err != nil {
		return nil, nil, err
	}
	store, err := app.Firestore(ctx)
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){func() { _ = store.Close() }}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var web alertUsecase.WebPushSender
	if fcmClient, err := fcm.NewClient(ctx, app, cfg.NotificationIcon, logger.Component(log, "fcm")); err != nil {
		log.Warn("failed to initialize FCM client, web push disabled", slog.Any("error", err))
	} else {
		web = fcmClient
	}

	var publisher alertUsecase.AlertPublisher
	if psClient, err := pushbus.NewClient(ctx, cfg.GoogleProjectID, cfg.FirebaseCredentials); err != nil {
		log.Warn("failed to initialize pubsub client, device push disabled", slog.Any("error", err))
	} else {
		pub := pushbus.NewPublisher(psClient, cfg.AlertsTopic)
		closers = append(closers, func() { _ = psClient.Close() }, pub.Stop)
		if err := pub.EnsureTopic(ctx); err != nil {
			log.Warn("alerts topic unavailable, device push disabled", slog.Any("error", err))
		} else {
			publisher = pub
		}
	}

	uc := alertUsecase.NewBroadcastUsecase(
		alertRepo.NewFirestoreBroadcastWriter(store),
		publisher,
		web,
		tokens,
		logger.Component(log, "broadcasts"),
	)
	return uc, cleanup, nil
}
