package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/app"
	"github.com/mamadbah2/coopkeeper/internal/config"
	"github.com/mamadbah2/coopkeeper/internal/server/handlers"
	"github.com/mamadbah2/coopkeeper/internal/server/router"
	"github.com/mamadbah2/coopkeeper/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coop, err := app.New(ctx, cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to initialize application", zap.Error(err))
	}
	defer func() {
		if err := coop.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close storage", zap.Error(err))
		}
	}()

	coopHandler := handlers.NewCoopHandler(coop.Services, cfg.Location(), baseLogger.Named("handlers.coop"))
	var webhookHandler *handlers.WebhookHandler
	if coop.Chat != nil {
		webhookHandler = handlers.NewWebhookHandler(coop.Chat, baseLogger.Named("handlers.webhook"))
	}
	engine := router.New(coopHandler, webhookHandler, baseLogger.Named("router"))

	sched := coop.Scheduler()
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("storage", cfg.Storage.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}

	if pending := coop.Store.Pending(); len(pending) > 0 {
		baseLogger.Warn("records not persisted before shutdown", zap.Strings("keys", pending))
	}
}
