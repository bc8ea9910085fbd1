// Package eggs tracks one egg count per calendar day.
package eggs

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

// WindowDays is the length of the rolling weekly window.
const WindowDays = 7

// ErrInvalidCount indicates a non-positive number of eggs to add.
var ErrInvalidCount = errors.New("egg count to add must be positive")

// Service reads and writes daily egg counts. Writes are serialized so concurrent
// increments of the same day are never lost.
type Service struct {
	store  kv.Store
	logger *zap.Logger

	mu sync.Mutex
}

// NewService wires a new egg counter.
func NewService(store kv.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Today returns the count stored for day, 0 when absent or unreadable.
func (s *Service) Today(ctx context.Context, day models.DayKey) (int, error) {
	if err := checkDay(day); err != nil {
		return 0, err
	}
	return s.count(ctx, day)
}

// Increment adds one egg to day and returns the new count. A non-durable write still
// returns the new count along with the warning error.
func (s *Service) Increment(ctx context.Context, day models.DayKey) (int, error) {
	return s.add(ctx, day, 1, "increment")
}

// Add records n eggs on day in a single write and returns the new count.
func (s *Service) Add(ctx context.Context, day models.DayKey, n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}
	return s.add(ctx, day, n, "add")
}

func (s *Service) add(ctx context.Context, day models.DayKey, n int, op string) (int, error) {
	if err := checkDay(day); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.count(ctx, day)
	if err != nil {
		metrics.RecordOperation("eggs", op, false)
		return 0, err
	}

	next := current + n
	err = s.store.Save(ctx, kv.EggsKey(day), models.FormatEggCount(next))
	metrics.RecordOperation("eggs", op, err == nil)
	if err != nil && !kv.IsWarning(err) {
		return 0, fmt.Errorf("save eggs %s: %w", day, err)
	}

	metrics.RecordEggs(n)
	s.logger.Debug("eggs recorded", zap.String("day", day.String()), zap.Int("added", n), zap.Int("count", next))
	return next, err
}

// Reset sets the count of day to zero.
func (s *Service) Reset(ctx context.Context, day models.DayKey) error {
	if err := checkDay(day); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.Save(ctx, kv.EggsKey(day), models.FormatEggCount(0))
	metrics.RecordOperation("eggs", "reset", err == nil)
	if err != nil && !kv.IsWarning(err) {
		return fmt.Errorf("reset eggs %s: %w", day, err)
	}

	s.logger.Info("egg count reset", zap.String("day", day.String()))
	return err
}

// WeeklyWindow returns the counts of the seven days ending with day, oldest first.
func (s *Service) WeeklyWindow(ctx context.Context, day models.DayKey) ([]int, error) {
	history, err := s.History(ctx, day, WindowDays)
	if err != nil {
		return nil, err
	}
	counts := make([]int, len(history))
	for i, dc := range history {
		counts[i] = dc.Count
	}
	return counts, nil
}

// WeeklyTotal sums the weekly window.
func (s *Service) WeeklyTotal(ctx context.Context, day models.DayKey) (int, error) {
	counts, err := s.WeeklyWindow(ctx, day)
	if err != nil {
		return 0, err
	}
	return models.SumCounts(counts), nil
}

// History returns the counts of the n days ending with day, oldest first.
func (s *Service) History(ctx context.Context, day models.DayKey, n int) ([]models.DayCount, error) {
	if err := checkDay(day); err != nil {
		return nil, err
	}

	days := day.Window(n)
	out := make([]models.DayCount, 0, len(days))
	for _, d := range days {
		c, err := s.count(ctx, d)
		if err != nil {
			return nil, err
		}
		out = append(out, models.DayCount{Day: d, Count: c})
	}
	return out, nil
}

func (s *Service) count(ctx context.Context, day models.DayKey) (int, error) {
	raw, err := s.store.Load(ctx, kv.EggsKey(day))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("load eggs %s: %w", day, err)
	}

	n, err := models.ParseEggCount(raw)
	if err != nil {
		metrics.RecordMalformed("eggs")
		s.logger.Warn("ignoring malformed egg count", zap.String("day", day.String()), zap.Error(err))
		return 0, nil
	}
	return n, nil
}

func checkDay(day models.DayKey) error {
	if !day.Valid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidDayKey, day)
	}
	return nil
}
