// Package expenses keeps the expense ledger: a newest-first list of immutable entries.
package expenses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	"github.com/mamadbah2/coopkeeper/internal/metrics"
	"github.com/mamadbah2/coopkeeper/internal/repository/kv"
)

// ErrInvalidExpense indicates a missing description or a missing, unparseable or
// non-positive amount. The ledger is left untouched.
var ErrInvalidExpense = errors.New("invalid expense")

// Service appends to and aggregates the expense ledger. Appends are serialized so
// concurrent adds never drop each other's entries.
type Service struct {
	store  kv.Store
	ids    *models.IDSource
	logger *zap.Logger

	mu sync.Mutex
}

// NewService wires a ledger service. A nil clock uses time.Now for entry IDs.
func NewService(store kv.Store, now func() time.Time, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, ids: models.NewIDSource(now), logger: logger}
}

// Add validates the input, stamps it with day and prepends it to the ledger.
// A non-durable write returns the new entry along with the warning error.
func (s *Service) Add(ctx context.Context, day models.DayKey, description, amount string) (models.Expense, error) {
	if !day.Valid() {
		return models.Expense{}, fmt.Errorf("%w: %q", models.ErrInvalidDayKey, day)
	}

	description = strings.TrimSpace(description)
	if description == "" {
		return models.Expense{}, fmt.Errorf("%w: description is required", ErrInvalidExpense)
	}

	value, err := ParseAmount(amount)
	if err != nil {
		return models.Expense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.storedEntries(ctx)
	if err != nil {
		return models.Expense{}, err
	}
	for _, item := range stored {
		s.ids.ObserveRaw(item)
	}

	entry := models.Expense{
		ID:          s.ids.Next(),
		Description: description,
		Amount:      value,
		Date:        day,
		Category:    models.Categorize(description),
	}
	encoded, err := json.Marshal(entry)
	if err != nil {
		return models.Expense{}, fmt.Errorf("encode expense: %w", err)
	}

	// Stored entries are carried forward untouched, unreadable ones included.
	updated := make([]json.RawMessage, 0, len(stored)+1)
	updated = append(updated, encoded)
	updated = append(updated, stored...)

	err = kv.SaveJSON(ctx, s.store, kv.ExpensesKey, updated)
	metrics.RecordOperation("expenses", "add", err == nil)
	if err != nil && !kv.IsWarning(err) {
		return models.Expense{}, fmt.Errorf("save expenses: %w", err)
	}

	s.logger.Info("expense added",
		zap.String("id", entry.ID),
		zap.String("day", day.String()),
		zap.String("category", string(entry.Category)),
		zap.String("amount", entry.Amount.StringFixed(2)))
	return entry, err
}

// ParseAmount parses a user-entered amount, which must be a positive decimal.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", ErrInvalidExpense)
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q is not a number", ErrInvalidExpense, raw)
	}
	if !value.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", ErrInvalidExpense)
	}
	return value, nil
}

// storedEntries returns the raw ledger entries. A ledger that is not a list at all is
// replaced on the next write.
func (s *Service) storedEntries(ctx context.Context) ([]json.RawMessage, error) {
	stored, err := kv.LoadRawList(ctx, s.store, kv.ExpensesKey)
	switch {
	case err == nil:
		return stored, nil
	case errors.Is(err, kv.ErrNotFound):
		return nil, nil
	case errors.Is(err, kv.ErrMalformed):
		metrics.RecordMalformed("expenses")
		s.logger.Warn("unreadable expense ledger will be replaced", zap.Error(err))
		return nil, nil
	default:
		return nil, fmt.Errorf("load expenses: %w", err)
	}
}

// List returns the ledger, newest first. Entries that fail validation are skipped and
// a ledger that is not a list at all reads as empty.
func (s *Service) List(ctx context.Context) ([]models.Expense, error) {
	ledger, skipped, err := kv.LoadJSONList[models.Expense](ctx, s.store, kv.ExpensesKey)
	switch {
	case err == nil:
		if skipped > 0 {
			metrics.RecordMalformed("expenses")
			s.logger.Warn("skipped malformed expense entries", zap.Int("skipped", skipped))
		}
		return ledger, nil
	case errors.Is(err, kv.ErrNotFound):
		return nil, nil
	case errors.Is(err, kv.ErrMalformed):
		metrics.RecordMalformed("expenses")
		s.logger.Warn("malformed expense ledger read as empty", zap.Error(err))
		return nil, nil
	default:
		return nil, fmt.Errorf("load expenses: %w", err)
	}
}

// Total sums every entry of the ledger.
func (s *Service) Total(ctx context.Context) (decimal.Decimal, error) {
	ledger, err := s.List(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return Sum(ledger), nil
}

// MonthlyTotal sums the entries stamped within the given month.
func (s *Service) MonthlyTotal(ctx context.Context, year int, month time.Month) (decimal.Decimal, error) {
	overview, err := s.MonthOverview(ctx, year, month)
	if err != nil {
		return decimal.Zero, err
	}
	return overview.Total, nil
}

// MonthlyCount counts the entries stamped within the given month.
func (s *Service) MonthlyCount(ctx context.Context, year int, month time.Month) (int, error) {
	overview, err := s.MonthOverview(ctx, year, month)
	if err != nil {
		return 0, err
	}
	return overview.Count, nil
}

// MonthOverview aggregates the entries stamped within the given month.
func (s *Service) MonthOverview(ctx context.Context, year int, month time.Month) (models.MonthOverview, error) {
	if month < time.January || month > time.December {
		return models.MonthOverview{}, fmt.Errorf("month %d out of range", month)
	}

	ledger, err := s.List(ctx)
	if err != nil {
		return models.MonthOverview{}, err
	}
	return Overview(ledger, year, month), nil
}

// Sum adds up the amounts of entries.
func Sum(entries []models.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}

// Overview aggregates entries stamped within the given month.
func Overview(entries []models.Expense, year int, month time.Month) models.MonthOverview {
	overview := models.MonthOverview{Year: year, Month: month, Total: decimal.Zero}
	byCategory := make(map[models.Category]decimal.Decimal)

	for _, e := range entries {
		if !e.Date.InMonth(year, month) {
			continue
		}
		overview.Total = overview.Total.Add(e.Amount)
		overview.Count++
		byCategory[e.Category] = byCategory[e.Category].Add(e.Amount)
	}

	for category, amount := range byCategory {
		overview.ByCategory = append(overview.ByCategory, models.CategoryAmount{Category: category, Amount: amount})
	}
	sort.Slice(overview.ByCategory, func(i, j int) bool {
		return overview.ByCategory[i].Category < overview.ByCategory[j].Category
	})
	return overview
}
