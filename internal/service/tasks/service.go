// Package tasks materializes the daily chore checklist and tracks completion.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	"github.com/mamadbah2/coopkeeper/internal/metrics"
	"github.com/mamadbah2/coopkeeper/internal/repository/kv"
)

// Service manages one checklist per day. Materialization and toggles are serialized
// so concurrent callers never overwrite each other's flags.
type Service struct {
	store    kv.Store
	template []models.TaskTemplate
	logger   *zap.Logger

	mu sync.Mutex
}

// NewService wires a checklist service using the default chore template.
func NewService(store kv.Store, logger *zap.Logger) *Service {
	return NewServiceWithTemplate(store, models.DailyTasks, logger)
}

// NewServiceWithTemplate wires a checklist service with a custom template.
func NewServiceWithTemplate(store kv.Store, template []models.TaskTemplate, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, template: template, logger: logger}
}

// Ensure returns the checklist of day, materializing it from the template the first
// time the day is seen. Already materialized days are returned verbatim.
//
// When the fresh checklist cannot be persisted it is still returned together with
// the warning error.
func (s *Service) Ensure(ctx context.Context, day models.DayKey) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensure(ctx, day)
}

func (s *Service) ensure(ctx context.Context, day models.DayKey) ([]models.Task, error) {
	if !day.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidDayKey, day)
	}

	tasks, found, err := s.load(ctx, day)
	if err != nil {
		return nil, err
	}
	if found {
		return tasks, nil
	}

	tasks = models.MaterializeTasks(s.template)
	err = kv.SaveJSON(ctx, s.store, kv.TasksKey(day), tasks)
	metrics.RecordOperation("tasks", "materialize", err == nil)
	if err != nil && !kv.IsWarning(err) {
		return nil, fmt.Errorf("save tasks %s: %w", day, err)
	}

	s.logger.Info("checklist materialized", zap.String("day", day.String()), zap.Int("tasks", len(tasks)))
	return tasks, err
}

// Toggle flips the completion flag of taskID on day and returns the updated list.
// An unknown taskID leaves the checklist untouched.
func (s *Service) Toggle(ctx context.Context, day models.DayKey, taskID string) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.ensure(ctx, day)
	if err != nil && !kv.IsWarning(err) {
		return nil, err
	}

	idx := -1
	for i := range tasks {
		if tasks[i].ID == taskID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.logger.Debug("toggle of unknown task ignored", zap.String("day", day.String()), zap.String("task", taskID))
		return tasks, nil
	}

	tasks[idx].Completed = !tasks[idx].Completed
	err = kv.SaveJSON(ctx, s.store, kv.TasksKey(day), tasks)
	metrics.RecordOperation("tasks", "toggle", err == nil)
	if err != nil && !kv.IsWarning(err) {
		return nil, fmt.Errorf("save tasks %s: %w", day, err)
	}

	s.logger.Debug("task toggled",
		zap.String("day", day.String()),
		zap.String("task", taskID),
		zap.Bool("completed", tasks[idx].Completed))
	return tasks, err
}

// CompletionRatio returns the rounded completion percentage of day's checklist.
func (s *Service) CompletionRatio(ctx context.Context, day models.DayKey) (int, error) {
	tasks, err := s.Ensure(ctx, day)
	if err != nil && !kv.IsWarning(err) {
		return 0, err
	}
	return models.CompletionRatio(tasks), nil
}

func (s *Service) load(ctx context.Context, day models.DayKey) ([]models.Task, bool, error) {
	var tasks []models.Task
	err := kv.LoadJSON(ctx, s.store, kv.TasksKey(day), &tasks)
	if err == nil && tasks == nil {
		err = fmt.Errorf("%w: %s: null checklist", kv.ErrMalformed, kv.TasksKey(day))
	}
	switch {
	case err == nil:
		return tasks, true, nil
	case errors.Is(err, kv.ErrNotFound):
		return nil, false, nil
	case errors.Is(err, kv.ErrMalformed):
		metrics.RecordMalformed("tasks")
		s.logger.Warn("malformed checklist treated as new day", zap.String("day", day.String()), zap.Error(err))
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("load tasks %s: %w", day, err)
	}
}
