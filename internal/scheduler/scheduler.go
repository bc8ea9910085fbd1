package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/config"
	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	"github.com/mamadbah2/coopkeeper/internal/repository/kv"
	"github.com/mamadbah2/coopkeeper/internal/service/export"
	"github.com/mamadbah2/coopkeeper/internal/service/notify"
)

const reminderMarker = "shown"

// Notifier sends the scheduled messages.
type Notifier interface {
	SendWeeklySummary(ctx context.Context, day models.DayKey) error
	SendReminder(ctx context.Context) error
}

// SheetsPusher mirrors the exports into a spreadsheet.
type SheetsPusher interface {
	PushToSheets(ctx context.Context, day models.DayKey) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	cfg      config.ReportingConfig
	loc      *time.Location
	store    kv.Store
	notifier Notifier
	sheets   SheetsPusher
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler creates a new scheduler instance. sheets may be nil.
func NewScheduler(cfg config.ReportingConfig, loc *time.Location, store kv.Store, notifier Notifier, sheets SheetsPusher, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	// Standard 5-field cron specs evaluated in the configured timezone.
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:     c,
		cfg:      cfg,
		loc:      loc,
		store:    store,
		notifier: notifier,
		sheets:   sheets,
		logger:   logger,
		now:      time.Now,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("weekly_report", s.cfg.CronSchedule),
		zap.String("reminder", s.cfg.ReminderSchedule),
		zap.String("timezone", s.loc.String()))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.weeklyJob); err != nil {
		return fmt.Errorf("schedule weekly report %q: %w", s.cfg.CronSchedule, err)
	}
	if _, err := s.cron.AddFunc(s.cfg.ReminderSchedule, s.reminderJob); err != nil {
		return fmt.Errorf("schedule reminder %q: %w", s.cfg.ReminderSchedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// Today returns the current day key in the scheduler's timezone.
func (s *Scheduler) Today() models.DayKey {
	return models.DayKeyOf(s.now().In(s.loc))
}

func (s *Scheduler) weeklyJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.RunWeekly(ctx); err != nil {
		s.logger.Error("weekly job failed", zap.Error(err))
	}
}

func (s *Scheduler) reminderJob() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := s.RunReminder(ctx); err != nil {
		s.logger.Error("reminder job failed", zap.Error(err))
	}
}

// RunWeekly sends the weekly summary and refreshes the spreadsheet export.
func (s *Scheduler) RunWeekly(ctx context.Context) error {
	day := s.Today()
	s.logger.Info("generating weekly report", zap.String("day", day.String()))

	var errs []error
	if err := s.notifier.SendWeeklySummary(ctx, day); err != nil {
		if errors.Is(err, notify.ErrDisabled) {
			s.logger.Debug("weekly summary not sent, notifications disabled")
		} else {
			errs = append(errs, err)
		}
	}

	if s.sheets != nil {
		if err := s.sheets.PushToSheets(ctx, day); err != nil && !errors.Is(err, export.ErrSheetsDisabled) {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// RunReminder sends the Sunday reminder at most once per Sunday. It reports whether a
// reminder was due today.
func (s *Scheduler) RunReminder(ctx context.Context) (bool, error) {
	day := s.Today()
	if day.Time().Weekday() != time.Sunday {
		return false, nil
	}

	key := kv.ReminderKey(day)
	_, err := s.store.Load(ctx, key)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, kv.ErrNotFound):
		return false, fmt.Errorf("load reminder marker: %w", err)
	}

	if err := s.store.Save(ctx, key, []byte(reminderMarker)); err != nil && !kv.IsWarning(err) {
		return false, fmt.Errorf("save reminder marker: %w", err)
	}

	if err := s.notifier.SendReminder(ctx); err != nil && !errors.Is(err, notify.ErrDisabled) {
		return true, err
	}

	s.logger.Info("sunday reminder issued", zap.String("day", day.String()))
	return true, nil
}
