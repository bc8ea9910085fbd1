package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/coopkeeper/internal/repository/kv"
	"github.com/mamadbah2/coopkeeper/internal/service/eggs"
	"github.com/mamadbah2/coopkeeper/internal/service/expenses"
	"github.com/mamadbah2/coopkeeper/internal/service/export"
	"github.com/mamadbah2/coopkeeper/internal/service/flock"
	"github.com/mamadbah2/coopkeeper/internal/service/reporting"
	"github.com/mamadbah2/coopkeeper/internal/service/tasks"
)

type downStore struct{ *kv.MemoryStore }

func (downStore) Save(context.Context, string, []byte) error {
	return errors.New("storage full")
}

func newTestEngine(store kv.Store) (*gin.Engine, *CoopHandler) {
	gin.SetMode(gin.TestMode)

	clock := func() time.Time { return time.UnixMilli(1704585600000) }
	eggSvc := eggs.NewService(store, nil)
	taskSvc := tasks.NewService(store, nil)
	expenseSvc := expenses.NewService(store, clock, nil)
	flockSvc := flock.NewService(store, clock, nil)

	h := NewCoopHandler(Services{
		Eggs:      eggSvc,
		Tasks:     taskSvc,
		Expenses:  expenseSvc,
		Flock:     flockSvc,
		Reporting: reporting.NewService(eggSvc, taskSvc, expenseSvc, flockSvc, nil),
		Export:    export.NewService(eggSvc, expenseSvc, nil, nil),
	}, time.UTC, nil)
	h.now = func() time.Time { return time.Date(2024, 1, 7, 9, 30, 0, 0, time.UTC) }

	r := gin.New()
	r.GET("/eggs", h.GetEggs)
	r.POST("/eggs/increment", h.IncrementEggs)
	r.POST("/eggs/reset", h.ResetEggs)
	r.GET("/tasks", h.GetTasks)
	r.POST("/tasks/:id/toggle", h.ToggleTask)
	r.GET("/expenses", h.ListExpenses)
	r.POST("/expenses", h.AddExpense)
	r.GET("/expenses/monthly", h.MonthlyExpenses)
	r.GET("/chickens", h.ListChickens)
	r.POST("/chickens", h.AddChicken)
	r.GET("/export/eggs.csv", h.ExportEggs)
	r.GET("/export/expenses.csv", h.ExportExpenses)
	r.GET("/report/weekly", h.WeeklyReport)
	return r, h
}

func do(t *testing.T, r http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestEggsEndpoints(t *testing.T) {
	r, _ := newTestEngine(kv.NewMemoryStore(nil))

	for i := 1; i <= 3; i++ {
		rec, body := do(t, r, http.MethodPost, "/eggs/increment", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, i, body["today"])
		assert.Equal(t, "2024-01-07", body["day"])
	}

	rec, body := do(t, r, http.MethodGet, "/eggs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, body["today"])
	assert.EqualValues(t, 3, body["weekly_total"])
	assert.Len(t, body["week"], 7)

	rec, body = do(t, r, http.MethodGet, "/eggs?day=2024-01-08", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, body["today"])
	assert.EqualValues(t, 3, body["weekly_total"])

	rec, _ = do(t, r, http.MethodPost, "/eggs/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	_, body = do(t, r, http.MethodGet, "/eggs", "")
	assert.EqualValues(t, 0, body["today"])
}

func TestInvalidDayIsBadRequest(t *testing.T) {
	r, _ := newTestEngine(kv.NewMemoryStore(nil))

	rec, body := do(t, r, http.MethodPost, "/eggs/increment?day=2024-02-30", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, body["error"])
}

func TestTasksEndpoints(t *testing.T) {
	r, _ := newTestEngine(kv.NewMemoryStore(nil))

	rec, body := do(t, r, http.MethodGet, "/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 5, body["total"])
	assert.EqualValues(t, 0, body["ratio"])

	rec, body = do(t, r, http.MethodPost, "/tasks/collect/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["completed"])
	assert.EqualValues(t, 20, body["ratio"])

	rec, body = do(t, r, http.MethodPost, "/tasks/unknown/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["completed"])
}

func TestExpensesEndpoints(t *testing.T) {
	r, _ := newTestEngine(kv.NewMemoryStore(nil))

	rec, body := do(t, r, http.MethodPost, "/expenses", `{"description":"Feed","amount":12.50}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, body["warning"])

	rec, _ = do(t, r, http.MethodPost, "/expenses", `{"description":"Vet","amount":"40.00"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body = do(t, r, http.MethodGet, "/expenses", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "52.50", body["total"])
	ledger := body["expenses"].([]any)
	require.Len(t, ledger, 2)
	assert.Equal(t, "Vet", ledger[0].(map[string]any)["description"])

	rec, body = do(t, r, http.MethodGet, "/expenses/monthly?year=2024&month=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, body["count"])

	rec, _ = do(t, r, http.MethodGet, "/expenses/monthly?month=13", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddExpenseValidation(t *testing.T) {
	r, _ := newTestEngine(kv.NewMemoryStore(nil))

	tests := []struct {
		name string
		body string
	}{
		{"missing description", `{"amount":5}`},
		{"negative amount", `{"description":"Feed","amount":-5}`},
		{"missing amount", `{"description":"Feed"}`},
		{"not json", `feed please`},
		{"text amount", `{"description":"Feed","amount":"lots"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := do(t, r, http.MethodPost, "/expenses", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	_, body := do(t, r, http.MethodGet, "/expenses", "")
	assert.Empty(t, body["expenses"])
}

func TestChickensEndpoints(t *testing.T) {
	r, _ := newTestEngine(kv.NewMemoryStore(nil))

	rec, body := do(t, r, http.MethodPost, "/chickens", `{"name":"Henrietta","breed":"Silkie","dateOfBirth":"2023-12-08"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	chicken := body["chicken"].(map[string]any)
	assert.Equal(t, "1 month old", chicken["age"])

	rec, _ = do(t, r, http.MethodPost, "/chickens", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, r, http.MethodPost, "/chickens", `{"name":"Pip","dateOfBirth":"whenever"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = do(t, r, http.MethodGet, "/chickens?day=2024-12-07", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["count"])
	listed := body["chickens"].([]any)[0].(map[string]any)
	assert.Equal(t, "Henrietta", listed["name"])
	assert.Equal(t, "1 year old", listed["age"])
}

func TestExportEndpoints(t *testing.T) {
	r, _ := newTestEngine(kv.NewMemoryStore(nil))
	do(t, r, http.MethodPost, "/eggs/increment", "")
	do(t, r, http.MethodPost, "/expenses", `{"description":"Feed","amount":3}`)

	rec, _ := do(t, r, http.MethodGet, "/export/eggs.csv?days=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="eggs_20240107.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Date,Eggs\n2024-01-06,0\n2024-01-07,1\n", rec.Body.String())

	rec, _ = do(t, r, http.MethodGet, "/export/expenses.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="expenses_20240107.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Date,Description,Amount\n2024-01-07,Feed,3\n", rec.Body.String())

	rec, _ = do(t, r, http.MethodGet, "/export/eggs.csv?days=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWeeklyReportEndpoint(t *testing.T) {
	r, _ := newTestEngine(kv.NewMemoryStore(nil))
	do(t, r, http.MethodPost, "/eggs/increment", "")

	rec, body := do(t, r, http.MethodGet, "/report/weekly", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body["text"], "Eggs this week: 1")
}

func TestStorageFailureIsWarning(t *testing.T) {
	r, _ := newTestEngine(kv.NewSession(downStore{kv.NewMemoryStore(nil)}, nil))

	rec, body := do(t, r, http.MethodPost, "/eggs/increment", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["today"])
	assert.NotEmpty(t, body["warning"])

	rec, body = do(t, r, http.MethodPost, "/expenses", `{"description":"Feed","amount":3}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, body["warning"])

	_, body = do(t, r, http.MethodGet, "/eggs", "")
	assert.EqualValues(t, 1, body["today"])
}
