package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/app"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/config"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/goroutine"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/http/handlers"
	httpRouter "github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/http/router"
	"github.com/SyedNoorArefin/BRACU-Lost-and-Found/internal/logger"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: failed to load config: %v", err)
	}
	app.InitLogger(cfg)

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("main: startup failed")
	}
	defer a.Close()

	applied, err := a.Migrate(ctx)
	if err != nil {
		logger.Log.WithError(err).Fatal("main: migrations failed")
	}
	logger.Log.WithField("applied", applied).Info("main: migrations done")

	// Склад проверяется при чтении списка; таймер включается только через SWEEP_INTERVAL.
	if cfg.SweepInterval > 0 {
		logger.Log.WithField("interval", cfg.SweepInterval.String()).Info("main: periodic warehouse sweep enabled")
	}
	goroutine.Every(ctx, "warehouse-sweep", cfg.SweepInterval, func(ctx context.Context) {
		if _, err := a.Svc.Sweeper.Sweep(ctx, time.Now().UTC()); err != nil {
			logger.WithFields(logrus.Fields{"error": err.Error()}).Warn("main: scheduled sweep failed")
		}
	})

	svc := a.Svc
	engine := httpRouter.SetupRouter(cfg, httpRouter.Handlers{
		Auth:          handlers.NewAuthHandler(svc.Auth),
		Listings:      handlers.NewListingHandler(svc.Listings, svc.Returns, a.Posters, svc.Activity),
		Media:         handlers.NewMediaHandler(a.Storage),
		Reports:       handlers.NewReportHandler(svc.Moderation),
		Admin:         handlers.NewAdminHandler(svc.Moderation),
		Conversations: handlers.NewConversationHandler(svc.Chat),
		Notifications: handlers.NewNotificationHandler(svc.Notifications),
		Profile:       handlers.NewProfileHandler(a.Repos.Users, svc.Points, svc.Moderation),
		Activity:      handlers.NewActivityHandler(svc.Activity),
		Health:        handlers.NewHealthHandler(a.DB),
	}, svc.Tokens)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Log.WithError(err).Error("main: http server shutdown")
		}
	}()

	logger.Log.WithFields(logrus.Fields{
		"port": cfg.HTTPPort,
		"env":  cfg.Env,
	}).Info("main: HTTP server started")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Log.WithError(err).Fatal("main: server stopped with error")
	}
}
