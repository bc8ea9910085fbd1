package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	"github.com/mamadbah2/coopkeeper/internal/repository/kv"
)

// EggSource is the slice of the egg counter the report reads.
type EggSource interface {
	History(ctx context.Context, day models.DayKey, n int) ([]models.DayCount, error)
}

// TaskSource is the slice of the checklist service the report reads.
type TaskSource interface {
	Ensure(ctx context.Context, day models.DayKey) ([]models.Task, error)
}

// ExpenseSource is the slice of the ledger the report reads.
type ExpenseSource interface {
	MonthOverview(ctx context.Context, year int, month time.Month) (models.MonthOverview, error)
}

// FlockSource is the slice of the roster the report reads.
type FlockSource interface {
	Count(ctx context.Context) (int, error)
}

// Service assembles weekly summaries across the four record kinds.
type Service struct {
	eggs     EggSource
	tasks    TaskSource
	expenses ExpenseSource
	flock    FlockSource
	logger   *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(eggs EggSource, tasks TaskSource, expenses ExpenseSource, flock FlockSource, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{eggs: eggs, tasks: tasks, expenses: expenses, flock: flock, logger: logger}
}

// WeeklySummary gathers the week ending with day. Only the egg figures are required;
// the other sections are left at zero when their source fails.
func (s *Service) WeeklySummary(ctx context.Context, day models.DayKey) (models.WeeklySummary, error) {
	week, err := s.eggs.History(ctx, day, 7)
	if err != nil {
		return models.WeeklySummary{}, fmt.Errorf("load egg week: %w", err)
	}

	summary := models.WeeklySummary{Day: day, Week: week, MonthExpenses: decimal.Zero}
	for _, dc := range week {
		summary.EggsThisWeek += dc.Count
	}
	if len(week) > 0 {
		summary.EggsToday = week[len(week)-1].Count
	}

	if s.tasks != nil {
		tasks, err := s.tasks.Ensure(ctx, day)
		if err != nil && !kv.IsWarning(err) {
			s.logger.Debug("checklist section skipped", zap.Error(err))
		} else {
			summary.TasksTotal = len(tasks)
			summary.TasksCompleted = models.CompletedCount(tasks)
			summary.TasksRatio = models.CompletionRatio(tasks)
		}
	}

	if s.expenses != nil {
		overview, err := s.expenses.MonthOverview(ctx, day.Year(), day.Month())
		if err != nil {
			s.logger.Debug("expense section skipped", zap.Error(err))
		} else {
			summary.MonthExpenses = overview.Total
			summary.MonthEntries = overview.Count
		}
	}

	if s.flock != nil {
		size, err := s.flock.Count(ctx)
		if err != nil {
			s.logger.Debug("flock section skipped", zap.Error(err))
		} else {
			summary.FlockSize = size
		}
	}

	return summary, nil
}

// GenerateWeeklyReport renders the weekly summary for day as text.
func (s *Service) GenerateWeeklyReport(ctx context.Context, day models.DayKey) (string, error) {
	summary, err := s.WeeklySummary(ctx, day)
	if err != nil {
		return "", err
	}
	return summary.Format(), nil
}
