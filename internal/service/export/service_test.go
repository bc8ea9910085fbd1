package export

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	"github.com/mamadbah2/coopkeeper/internal/repository/kv"
	"github.com/mamadbah2/coopkeeper/internal/service/eggs"
	"github.com/mamadbah2/coopkeeper/internal/service/expenses"
)

type recordingSheets struct {
	cleared  []string
	appended map[string][][]interface{}
	err      error
}

func (r *recordingSheets) ClearRange(ctx context.Context, sheetRange string) error {
	if r.err != nil {
		return r.err
	}
	r.cleared = append(r.cleared, sheetRange)
	return nil
}

func (r *recordingSheets) AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error {
	if r.appended == nil {
		r.appended = make(map[string][][]interface{})
	}
	r.appended[sheetRange] = rows
	return nil
}

func setup(t *testing.T) (*eggs.Service, *expenses.Service) {
	t.Helper()
	ctx := context.Background()
	store := kv.NewMemoryStore(nil)
	eggSvc := eggs.NewService(store, nil)
	expenseSvc := expenses.NewService(store, func() time.Time { return time.UnixMilli(1704585600000) }, nil)

	_, err := eggSvc.Increment(ctx, "2024-01-07")
	require.NoError(t, err)
	_, err = eggSvc.Increment(ctx, "2024-01-07")
	require.NoError(t, err)
	_, err = expenseSvc.Add(ctx, "2024-01-06", "Layer feed", "12.50")
	require.NoError(t, err)
	_, err = expenseSvc.Add(ctx, "2024-01-07", "Straw, 2 bales", "8")
	require.NoError(t, err)
	return eggSvc, expenseSvc
}

func TestEggsCSV(t *testing.T) {
	eggSvc, expenseSvc := setup(t)
	svc := NewService(eggSvc, expenseSvc, nil, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.EggsCSV(context.Background(), &buf, "2024-01-07", 3))
	assert.Equal(t, "Date,Eggs\n2024-01-05,0\n2024-01-06,0\n2024-01-07,2\n", buf.String())

	buf.Reset()
	require.NoError(t, svc.EggsCSV(context.Background(), &buf, "2024-01-07", 0))
	assert.Equal(t, DefaultEggDays+1, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestExpensesCSV(t *testing.T) {
	eggSvc, expenseSvc := setup(t)
	svc := NewService(eggSvc, expenseSvc, nil, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.ExpensesCSV(context.Background(), &buf))
	assert.Equal(t,
		"Date,Description,Amount\n2024-01-07,\"Straw, 2 bales\",8\n2024-01-06,Layer feed,12.5\n",
		buf.String())
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "eggs_20240107.csv", EggsFilename("2024-01-07"))
	assert.Equal(t, "expenses_20240107.csv", ExpensesFilename("2024-01-07"))
}

func TestPushToSheets(t *testing.T) {
	eggSvc, expenseSvc := setup(t)
	sheets := &recordingSheets{}
	svc := NewService(eggSvc, expenseSvc, sheets, nil)

	require.NoError(t, svc.PushToSheets(context.Background(), models.DayKey("2024-01-07")))
	assert.Equal(t, []string{"Eggs!A:B", "Expenses!A:C"}, sheets.cleared)

	eggRows := sheets.appended["Eggs!A:B"]
	require.Len(t, eggRows, DefaultEggDays+1)
	assert.Equal(t, []interface{}{"Date", "Eggs"}, eggRows[0])
	assert.Equal(t, []interface{}{"2024-01-07", "2"}, eggRows[len(eggRows)-1])

	expenseRows := sheets.appended["Expenses!A:C"]
	require.Len(t, expenseRows, 3)
	assert.Equal(t, []interface{}{"2024-01-07", "Straw, 2 bales", "8"}, expenseRows[1])
}

func TestPushToSheetsDisabledOrFailing(t *testing.T) {
	eggSvc, expenseSvc := setup(t)

	disabled := NewService(eggSvc, expenseSvc, nil, nil)
	assert.ErrorIs(t, disabled.PushToSheets(context.Background(), "2024-01-07"), ErrSheetsDisabled)

	boom := errors.New("quota")
	failing := NewService(eggSvc, expenseSvc, &recordingSheets{err: boom}, nil)
	assert.ErrorIs(t, failing.PushToSheets(context.Background(), "2024-01-07"), boom)
}
