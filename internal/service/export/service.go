// Package export renders the egg and expense records into one-way export formats:
// CSV files and rows pushed to a Google Sheet.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	"github.com/mamadbah2/coopkeeper/internal/repository/sheets"
)

// DefaultEggDays is how many days the egg export covers by default.
const DefaultEggDays = 30

const (
	eggsSheetRange     = "Eggs!A:B"
	expensesSheetRange = "Expenses!A:C"
)

// ErrSheetsDisabled indicates the Sheets export target is not configured.
var ErrSheetsDisabled = errors.New("google sheets export is not configured")

var (
	eggsHeader     = []string{"Date", "Eggs"}
	expensesHeader = []string{"Date", "Description", "Amount"}
)

// EggHistory is the slice of the egg counter the export reads.
type EggHistory interface {
	History(ctx context.Context, day models.DayKey, n int) ([]models.DayCount, error)
}

// ExpenseLister is the slice of the ledger the export reads.
type ExpenseLister interface {
	List(ctx context.Context) ([]models.Expense, error)
}

// Service produces exports from the domain read APIs.
type Service struct {
	eggs     EggHistory
	expenses ExpenseLister
	sheets   sheets.Repository
	logger   *zap.Logger
}

// NewService wires an export service. sheetsRepo may be nil when Sheets is not configured.
func NewService(eggs EggHistory, expenses ExpenseLister, sheetsRepo sheets.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{eggs: eggs, expenses: expenses, sheets: sheetsRepo, logger: logger}
}

// EggsFilename is the download name of the egg export for day.
func EggsFilename(day models.DayKey) string {
	return "eggs_" + day.Compact() + ".csv"
}

// ExpensesFilename is the download name of the expense export for day.
func ExpensesFilename(day models.DayKey) string {
	return "expenses_" + day.Compact() + ".csv"
}

// EggsCSV writes one row per day for the days ending with day, oldest first.
// A non-positive days falls back to DefaultEggDays.
func (s *Service) EggsCSV(ctx context.Context, w io.Writer, day models.DayKey, days int) error {
	rows, err := s.eggRows(ctx, day, days)
	if err != nil {
		return err
	}
	return writeCSV(w, eggsHeader, rows)
}

// ExpensesCSV writes one row per ledger entry in ledger order.
func (s *Service) ExpensesCSV(ctx context.Context, w io.Writer) error {
	rows, err := s.expenseRows(ctx)
	if err != nil {
		return err
	}
	return writeCSV(w, expensesHeader, rows)
}

// PushToSheets replaces the Eggs and Expenses tabs with the current export rows.
func (s *Service) PushToSheets(ctx context.Context, day models.DayKey) error {
	if s.sheets == nil {
		return ErrSheetsDisabled
	}

	eggRows, err := s.eggRows(ctx, day, DefaultEggDays)
	if err != nil {
		return err
	}
	expenseRows, err := s.expenseRows(ctx)
	if err != nil {
		return err
	}

	if err := s.replace(ctx, eggsSheetRange, eggsHeader, eggRows); err != nil {
		return err
	}
	if err := s.replace(ctx, expensesSheetRange, expensesHeader, expenseRows); err != nil {
		return err
	}

	s.logger.Info("export pushed to sheets",
		zap.String("day", day.String()),
		zap.Int("egg_rows", len(eggRows)),
		zap.Int("expense_rows", len(expenseRows)))
	return nil
}

func (s *Service) replace(ctx context.Context, sheetRange string, header []string, rows [][]string) error {
	if err := s.sheets.ClearRange(ctx, sheetRange); err != nil {
		return err
	}

	values := make([][]interface{}, 0, len(rows)+1)
	values = append(values, toValues(header))
	for _, row := range rows {
		values = append(values, toValues(row))
	}
	return s.sheets.AppendRows(ctx, sheetRange, values)
}

func (s *Service) eggRows(ctx context.Context, day models.DayKey, days int) ([][]string, error) {
	if days <= 0 {
		days = DefaultEggDays
	}
	history, err := s.eggs.History(ctx, day, days)
	if err != nil {
		return nil, fmt.Errorf("load egg history: %w", err)
	}

	rows := make([][]string, 0, len(history))
	for _, dc := range history {
		rows = append(rows, []string{dc.Day.String(), strconv.Itoa(dc.Count)})
	}
	return rows, nil
}

func (s *Service) expenseRows(ctx context.Context) ([][]string, error) {
	ledger, err := s.expenses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}

	rows := make([][]string, 0, len(ledger))
	for _, e := range ledger {
		rows = append(rows, []string{e.Date.String(), e.Description, e.Amount.String()})
	}
	return rows, nil
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

func toValues(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
