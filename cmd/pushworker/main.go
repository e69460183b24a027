// Command pushworker is the background delivery context: it renders alerts
// pushed to this device while the citizen client is closed.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"alertsphere/internal/device"
	"alertsphere/internal/notification"
	"alertsphere/internal/notification/platform"
	"alertsphere/internal/notification/usecase"
	"alertsphere/pkg/config"
	"alertsphere/pkg/logger"
	"alertsphere/pkg/metrics"
)

func main() {
	cfg := config.Load()
	log := logger.Component(logger.New(cfg.LogLevel), "pushworker")
	if err := cfg.ValidateClient(); err != nil {
		log.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}
	metrics.MustRegister()
	metrics.Serve(cfg.MetricsAddr, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := device.OpenSession(ctx, cfg)
	if err != nil {
		log.Error("failed to open device session", slog.Any("error", err))
		os.Exit(1)
	}
	defer session.Close()

	path := cfg.BackgroundContextPath
	sub, err := notification.EnsureRegistered(ctx, session.Registry, path)
	if err != nil {
		log.Error("failed to register background context", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("background context registered", slog.String("subscription", sub))

	handler := usecase.NewBackgroundHandler(platform.NewTerminalDisplay(os.Stdout), cfg.NotificationIcon, log)
	source := platform.NewSubscriptionSource(session.PubSub, session.Subscription(path))

	svc := notification.NewService(source, handler, path, log).
		WithForegroundLease(session.Store, cfg.ForegroundLeaseTTL/3)
	if err := svc.Start(ctx); err != nil {
		log.Error("background delivery stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
