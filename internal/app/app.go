// Package app wires configuration, storage and services into a running coop keeper.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/config"
	"github.com/mamadbah2/coopkeeper/internal/repository/filestore"
	"github.com/mamadbah2/coopkeeper/internal/repository/kv"
	"github.com/mamadbah2/coopkeeper/internal/repository/mongodb"
	"github.com/mamadbah2/coopkeeper/internal/repository/sheets"
	"github.com/mamadbah2/coopkeeper/internal/repository/sqlite"
	"github.com/mamadbah2/coopkeeper/internal/scheduler"
	"github.com/mamadbah2/coopkeeper/internal/server/handlers"
	"github.com/mamadbah2/coopkeeper/internal/service/commands"
	"github.com/mamadbah2/coopkeeper/internal/service/eggs"
	"github.com/mamadbah2/coopkeeper/internal/service/expenses"
	"github.com/mamadbah2/coopkeeper/internal/service/export"
	"github.com/mamadbah2/coopkeeper/internal/service/flock"
	"github.com/mamadbah2/coopkeeper/internal/service/notify"
	"github.com/mamadbah2/coopkeeper/internal/service/reporting"
	"github.com/mamadbah2/coopkeeper/internal/service/tasks"
	whatsappsvc "github.com/mamadbah2/coopkeeper/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/coopkeeper/pkg/clients/whatsapp"
)

// App holds the wired services and the resources that must be released on exit.
type App struct {
	Config   *config.Config
	Store    *kv.Session
	Services handlers.Services
	Notify   *notify.Service
	// Chat is nil unless the WhatsApp webhook is configured.
	Chat *whatsappsvc.MetaWhatsAppService

	logger  *zap.Logger
	closers []func(context.Context) error
}

// New opens the configured backend and builds every service on top of it.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{Config: cfg, logger: logger}

	backend, err := a.openBackend(ctx)
	if err != nil {
		return nil, err
	}
	a.Store = kv.NewSession(backend, logger.Named("kv.session"))

	eggSvc := eggs.NewService(a.Store, logger.Named("svc.eggs"))
	taskSvc := tasks.NewService(a.Store, logger.Named("svc.tasks"))
	expenseSvc := expenses.NewService(a.Store, time.Now, logger.Named("svc.expenses"))
	flockSvc := flock.NewService(a.Store, time.Now, logger.Named("svc.flock"))
	reportSvc := reporting.NewService(eggSvc, taskSvc, expenseSvc, flockSvc, logger.Named("svc.reporting"))

	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		sheetsRepo, err = sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named("repo.sheets"))
		if err != nil {
			_ = a.Close(ctx)
			return nil, fmt.Errorf("init sheets repository: %w", err)
		}
		logger.Info("google sheets export enabled")
	}
	exportSvc := export.NewService(eggSvc, expenseSvc, sheetsRepo, logger.Named("svc.export"))

	var wa whatsappclient.Client
	if cfg.WhatsApp.Enabled() {
		wa = whatsappclient.NewClient(cfg.WhatsApp)
		logger.Info("whatsapp notifications enabled")
	} else {
		logger.Warn("whatsapp credentials missing, notifications disabled")
	}
	a.Notify = notify.NewService(wa, cfg.WhatsApp.OwnerID, reportSvc, logger.Named("svc.notify"))

	if cfg.WhatsApp.WebhookEnabled() {
		dispatcher := commands.NewService(eggSvc, taskSvc, expenseSvc, flockSvc, reportSvc, logger.Named("svc.commands"))
		a.Chat = whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, wa, dispatcher, cfg.Location(), logger.Named("svc.chat"))
		logger.Info("whatsapp chat commands enabled")
	}

	a.Services = handlers.Services{
		Eggs:      eggSvc,
		Tasks:     taskSvc,
		Expenses:  expenseSvc,
		Flock:     flockSvc,
		Reporting: reportSvc,
		Export:    exportSvc,
	}
	return a, nil
}

// Scheduler builds the cron scheduler for the weekly report and the Sunday reminder.
func (a *App) Scheduler() *scheduler.Scheduler {
	return scheduler.NewScheduler(a.Config.Reporting, a.Config.Location(), a.Store, a.Notify,
		a.Services.Export, a.logger.Named("scheduler"))
}

// Close releases the storage backend.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openBackend(ctx context.Context) (kv.Store, error) {
	storage := a.Config.Storage
	log := a.logger.With(zap.String("backend", storage.Backend))

	switch storage.Backend {
	case config.BackendFile:
		store, err := filestore.NewOS(storage.DataDir, a.logger.Named("repo.file"))
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		log.Info("storage ready", zap.String("dir", storage.DataDir))
		return store, nil

	case config.BackendSQLite:
		store, err := sqlite.Open(ctx, storage.SQLitePath, a.logger.Named("repo.sqlite"))
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return store.Close() })
		log.Info("storage ready", zap.String("path", storage.SQLitePath))
		return store, nil

	case config.BackendMongoDB:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		repo, err := mongodb.NewMongoDBRepository(connectCtx, a.Config.MongoDB.URI, a.Config.MongoDB.DBName)
		if err != nil {
			return nil, fmt.Errorf("open mongodb store: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		log.Info("storage ready", zap.String("db", a.Config.MongoDB.DBName))
		return repo, nil

	case config.BackendMemory:
		log.Warn("memory storage selected, records are lost on exit")
		return kv.NewMemoryStore(a.logger.Named("repo.memory")), nil

	default:
		return nil, fmt.Errorf("unsupported storage backend %q", storage.Backend)
	}
}
