package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	"github.com/mamadbah2/coopkeeper/internal/repository/kv"
	"github.com/mamadbah2/coopkeeper/internal/service/eggs"
	"github.com/mamadbah2/coopkeeper/internal/service/expenses"
	"github.com/mamadbah2/coopkeeper/internal/service/export"
	"github.com/mamadbah2/coopkeeper/internal/service/flock"
	"github.com/mamadbah2/coopkeeper/internal/service/reporting"
	"github.com/mamadbah2/coopkeeper/internal/service/tasks"
)

// Services groups the domain services exposed over HTTP.
type Services struct {
	Eggs      *eggs.Service
	Tasks     *tasks.Service
	Expenses  *expenses.Service
	Flock     *flock.Service
	Reporting *reporting.Service
	Export    *export.Service
}

// CoopHandler adapts the domain services to JSON endpoints. It is the only place that
// reads the wall clock: the current day key is derived here and passed down.
type CoopHandler struct {
	svc    Services
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewCoopHandler constructs the HTTP handler adapter.
func NewCoopHandler(svc Services, loc *time.Location, logger *zap.Logger) *CoopHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CoopHandler{svc: svc, loc: loc, now: time.Now, logger: logger}
}

type addExpenseRequest struct {
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
}

type chickenView struct {
	models.Chicken
	Age string `json:"age"`
}

// GetEggs returns today's count and the weekly window.
func (h *CoopHandler) GetEggs(c *gin.Context) {
	day, ok := h.day(c)
	if !ok {
		return
	}

	history, err := h.svc.Eggs.History(c.Request.Context(), day, eggs.WindowDays)
	if err != nil {
		h.fail(c, "load eggs", err)
		return
	}

	counts := make([]int, len(history))
	for i, dc := range history {
		counts[i] = dc.Count
	}

	c.JSON(http.StatusOK, gin.H{
		"day":          day,
		"today":        counts[len(counts)-1],
		"week":         history,
		"weekly_total": models.SumCounts(counts),
	})
}

// IncrementEggs adds one egg to the day.
func (h *CoopHandler) IncrementEggs(c *gin.Context) {
	day, ok := h.day(c)
	if !ok {
		return
	}

	count, err := h.svc.Eggs.Increment(c.Request.Context(), day)
	if err != nil && !kv.IsWarning(err) {
		h.fail(c, "increment eggs", err)
		return
	}
	h.ok(c, gin.H{"day": day, "today": count}, err)
}

// ResetEggs sets the day's count to zero.
func (h *CoopHandler) ResetEggs(c *gin.Context) {
	day, ok := h.day(c)
	if !ok {
		return
	}

	err := h.svc.Eggs.Reset(c.Request.Context(), day)
	if err != nil && !kv.IsWarning(err) {
		h.fail(c, "reset eggs", err)
		return
	}
	h.ok(c, gin.H{"day": day, "today": 0}, err)
}

// GetTasks returns the day's checklist, materializing it on first access.
func (h *CoopHandler) GetTasks(c *gin.Context) {
	day, ok := h.day(c)
	if !ok {
		return
	}

	list, err := h.svc.Tasks.Ensure(c.Request.Context(), day)
	if err != nil && !kv.IsWarning(err) {
		h.fail(c, "load tasks", err)
		return
	}
	h.ok(c, tasksBody(day, list), err)
}

// ToggleTask flips one task of the day's checklist.
func (h *CoopHandler) ToggleTask(c *gin.Context) {
	day, ok := h.day(c)
	if !ok {
		return
	}

	list, err := h.svc.Tasks.Toggle(c.Request.Context(), day, c.Param("id"))
	if err != nil && !kv.IsWarning(err) {
		h.fail(c, "toggle task", err)
		return
	}
	h.ok(c, tasksBody(day, list), err)
}

// ListExpenses returns the ledger, its total and the day's month overview.
func (h *CoopHandler) ListExpenses(c *gin.Context) {
	day, ok := h.day(c)
	if !ok {
		return
	}

	ledger, err := h.svc.Expenses.List(c.Request.Context())
	if err != nil {
		h.fail(c, "list expenses", err)
		return
	}
	if ledger == nil {
		ledger = []models.Expense{}
	}

	c.JSON(http.StatusOK, gin.H{
		"expenses": ledger,
		"total":    expenses.Sum(ledger).StringFixed(2),
		"month":    expenses.Overview(ledger, day.Year(), day.Month()),
	})
}

// AddExpense appends an expense stamped with the day.
func (h *CoopHandler) AddExpense(c *gin.Context) {
	day, ok := h.day(c)
	if !ok {
		return
	}

	var req addExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid expense payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	entry, err := h.svc.Expenses.Add(c.Request.Context(), day, req.Description, req.Amount.String())
	if err != nil && !kv.IsWarning(err) {
		h.fail(c, "add expense", err)
		return
	}
	h.created(c, gin.H{"expense": entry}, err)
}

// MonthlyExpenses returns the overview of the requested month.
func (h *CoopHandler) MonthlyExpenses(c *gin.Context) {
	day, ok := h.day(c)
	if !ok {
		return
	}

	year, month := day.Year(), day.Month()
	if raw := c.Query("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return
		}
		year = v
	}
	if raw := c.Query("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 12 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
			return
		}
		month = time.Month(v)
	}

	overview, err := h.svc.Expenses.MonthOverview(c.Request.Context(), year, month)
	if err != nil {
		h.fail(c, "month overview", err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// ListChickens returns the roster with ages formatted for the day.
func (h *CoopHandler) ListChickens(c *gin.Context) {
	day, ok := h.day(c)
	if !ok {
		return
	}

	roster, err := h.svc.Flock.List(c.Request.Context())
	if err != nil {
		h.fail(c, "list chickens", err)
		return
	}

	views := make([]chickenView, 0, len(roster))
	for _, ch := range roster {
		views = append(views, chickenView{Chicken: ch, Age: ch.AgeLabel(day)})
	}
	c.JSON(http.StatusOK, gin.H{"chickens": views, "count": len(views)})
}

// AddChicken appends a chicken to the roster.
func (h *CoopHandler) AddChicken(c *gin.Context) {
	day, ok := h.day(c)
	if !ok {
		return
	}

	var input models.ChickenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("invalid chicken payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	chicken, err := h.svc.Flock.Add(c.Request.Context(), input)
	if err != nil && !kv.IsWarning(err) {
		h.fail(c, "add chicken", err)
		return
	}
	h.created(c, gin.H{"chicken": chickenView{Chicken: chicken, Age: chicken.AgeLabel(day)}}, err)
}

// ExportEggs streams the egg history as CSV.
func (h *CoopHandler) ExportEggs(c *gin.Context) {
	day, ok := h.day(c)
	if !ok {
		return
	}

	days := export.DefaultEggDays
	if raw := c.Query("days"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > 3660 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days"})
			return
		}
		days = v
	}

	var buf bytes.Buffer
	if err := h.svc.Export.EggsCSV(c.Request.Context(), &buf, day, days); err != nil {
		h.fail(c, "export eggs", err)
		return
	}
	h.attachment(c, export.EggsFilename(day), buf.Bytes())
}

// ExportExpenses streams the ledger as CSV.
func (h *CoopHandler) ExportExpenses(c *gin.Context) {
	day, ok := h.day(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.svc.Export.ExpensesCSV(c.Request.Context(), &buf); err != nil {
		h.fail(c, "export expenses", err)
		return
	}
	h.attachment(c, export.ExpensesFilename(day), buf.Bytes())
}

// WeeklyReport returns the weekly summary and its text rendering.
func (h *CoopHandler) WeeklyReport(c *gin.Context) {
	day, ok := h.day(c)
	if !ok {
		return
	}

	summary, err := h.svc.Reporting.WeeklySummary(c.Request.Context(), day)
	if err != nil {
		h.fail(c, "weekly report", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary, "text": summary.Format()})
}

func (h *CoopHandler) day(c *gin.Context) (models.DayKey, bool) {
	raw := c.Query("day")
	if raw == "" {
		return models.DayKeyOf(h.now().In(h.loc)), true
	}

	day, err := models.ParseDayKey(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "day must be formatted as YYYY-MM-DD"})
		return "", false
	}
	return day, true
}

func (h *CoopHandler) ok(c *gin.Context, body gin.H, err error) {
	h.withWarning(body, err)
	c.JSON(http.StatusOK, body)
}

func (h *CoopHandler) created(c *gin.Context, body gin.H, err error) {
	h.withWarning(body, err)
	c.JSON(http.StatusCreated, body)
}

func (h *CoopHandler) withWarning(body gin.H, err error) {
	if kv.IsWarning(err) {
		body["warning"] = "saved for this session only; storage is unavailable"
	}
}

func (h *CoopHandler) fail(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, expenses.ErrInvalidExpense),
		errors.Is(err, flock.ErrNameRequired),
		errors.Is(err, flock.ErrInvalidBirthDate),
		errors.Is(err, flock.ErrInvalidAge),
		errors.Is(err, models.ErrInvalidDayKey):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", zap.String("op", op), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + op})
	}
}

func (h *CoopHandler) attachment(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func tasksBody(day models.DayKey, list []models.Task) gin.H {
	return gin.H{
		"day":       day,
		"tasks":     list,
		"completed": models.CompletedCount(list),
		"total":     len(list),
		"ratio":     models.CompletionRatio(list),
	}
}
