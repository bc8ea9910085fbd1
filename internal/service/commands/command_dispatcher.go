// Package commands turns chat commands from the owner into coop service calls.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	"github.com/mamadbah2/coopkeeper/internal/repository/kv"
	"github.com/mamadbah2/coopkeeper/internal/service/expenses"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// maxEggBatch bounds a single "eggs +N" message.
const maxEggBatch = 100

// HelpText lists the supported chat commands.
const HelpText = `CoopKeeper commands:
eggs - today's count
eggs +N - add N eggs (default 1)
eggs reset - set today to zero
tasks - today's checklist
done <task> - toggle a task (feed, water, collect, clean, health)
spent <amount> <description> - record an expense
expenses - this month's spending
chickens - list the flock
report - weekly summary`

const volatileNote = "\n(saved for this session only; storage is unavailable)"

// EggCounter is the slice of the egg service the dispatcher drives.
type EggCounter interface {
	Today(ctx context.Context, day models.DayKey) (int, error)
	Add(ctx context.Context, day models.DayKey, n int) (int, error)
	Reset(ctx context.Context, day models.DayKey) error
}

// Checklist is the slice of the task service the dispatcher drives.
type Checklist interface {
	Ensure(ctx context.Context, day models.DayKey) ([]models.Task, error)
	Toggle(ctx context.Context, day models.DayKey, taskID string) ([]models.Task, error)
}

// Ledger is the slice of the expense service the dispatcher drives.
type Ledger interface {
	Add(ctx context.Context, day models.DayKey, description, amount string) (models.Expense, error)
	MonthOverview(ctx context.Context, year int, month time.Month) (models.MonthOverview, error)
}

// Roster is the slice of the flock service the dispatcher reads.
type Roster interface {
	List(ctx context.Context) ([]models.Chicken, error)
}

// Reporter renders the weekly summary.
type Reporter interface {
	GenerateWeeklyReport(ctx context.Context, day models.DayKey) (string, error)
}

// Dispatcher executes parsed commands and returns the reply text.
type Dispatcher interface {
	HandleCommand(ctx context.Context, day models.DayKey, cmd models.Command) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	eggs     EggCounter
	tasks    Checklist
	expenses Ledger
	flock    Roster
	reports  Reporter
	logger   *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(eggs EggCounter, tasks Checklist, ledger Ledger, flock Roster, reports Reporter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		eggs:     eggs,
		tasks:    tasks,
		expenses: ledger,
		flock:    flock,
		reports:  reports,
		logger:   logger,
	}
}

// HandleCommand runs cmd against day's records. Argument errors come back as a reply
// together with ErrInvalidArguments so the caller can still answer the sender.
func (s *Service) HandleCommand(ctx context.Context, day models.DayKey, cmd models.Command) (string, error) {
	s.logger.Debug("dispatching command",
		zap.String("command", string(cmd.Type)),
		zap.String("day", day.String()),
		zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandEggs:
		return s.handleEggs(ctx, day, cmd.Args)
	case models.CommandTasks:
		list, err := s.tasks.Ensure(ctx, day)
		if err != nil && !kv.IsWarning(err) {
			return "", fmt.Errorf("load tasks: %w", err)
		}
		return withNote(formatTasks(day, list), err), nil
	case models.CommandDone:
		return s.handleDone(ctx, day, cmd.Args)
	case models.CommandSpent:
		return s.handleSpent(ctx, day, cmd.Args)
	case models.CommandExpenses:
		overview, err := s.expenses.MonthOverview(ctx, day.Year(), day.Month())
		if err != nil {
			return "", fmt.Errorf("month overview: %w", err)
		}
		return formatOverview(overview), nil
	case models.CommandChickens:
		roster, err := s.flock.List(ctx)
		if err != nil {
			return "", fmt.Errorf("list chickens: %w", err)
		}
		return formatRoster(day, roster), nil
	case models.CommandReport:
		text, err := s.reports.GenerateWeeklyReport(ctx, day)
		if err != nil {
			return "", fmt.Errorf("weekly report: %w", err)
		}
		return text, nil
	case models.CommandHelp:
		return HelpText, nil
	default:
		return "Unknown command.\n\n" + HelpText, nil
	}
}

func (s *Service) handleEggs(ctx context.Context, day models.DayKey, args []string) (string, error) {
	if len(args) == 0 {
		count, err := s.eggs.Today(ctx, day)
		if err != nil {
			return "", fmt.Errorf("load eggs: %w", err)
		}
		return fmt.Sprintf("%s: %d eggs so far", day, count), nil
	}

	if strings.EqualFold(args[0], "reset") {
		err := s.eggs.Reset(ctx, day)
		if err != nil && !kv.IsWarning(err) {
			return "", fmt.Errorf("reset eggs: %w", err)
		}
		return withNote(fmt.Sprintf("%s: egg count reset to 0", day), err), nil
	}

	n, err := strconv.Atoi(strings.TrimPrefix(args[0], "+"))
	if err != nil || n <= 0 || n > maxEggBatch {
		return fmt.Sprintf("Usage: eggs +N with N between 1 and %d", maxEggBatch), ErrInvalidArguments
	}

	// One write for the whole batch, so a failure never leaves part of it applied.
	count, err := s.eggs.Add(ctx, day, n)
	if err != nil && !kv.IsWarning(err) {
		return "", fmt.Errorf("add eggs: %w", err)
	}
	return withNote(fmt.Sprintf("%s: +%d, %d eggs today", day, n, count), err), nil
}

func (s *Service) handleDone(ctx context.Context, day models.DayKey, args []string) (string, error) {
	if len(args) != 1 {
		return "Usage: done <task>", ErrInvalidArguments
	}
	taskID := strings.ToLower(args[0])

	list, err := s.tasks.Toggle(ctx, day, taskID)
	if err != nil && !kv.IsWarning(err) {
		return "", fmt.Errorf("toggle task: %w", err)
	}
	for _, t := range list {
		if t.ID == taskID {
			return withNote(formatTasks(day, list), err), nil
		}
	}
	return fmt.Sprintf("No task %q today.", taskID), ErrInvalidArguments
}

func (s *Service) handleSpent(ctx context.Context, day models.DayKey, args []string) (string, error) {
	if len(args) < 2 {
		return "Usage: spent <amount> <description>", ErrInvalidArguments
	}
	amount := strings.TrimPrefix(args[0], "$")
	description := strings.Join(args[1:], " ")

	entry, err := s.expenses.Add(ctx, day, description, amount)
	switch {
	case errors.Is(err, expenses.ErrInvalidExpense):
		return err.Error(), ErrInvalidArguments
	case err != nil && !kv.IsWarning(err):
		return "", fmt.Errorf("add expense: %w", err)
	}
	return withNote(fmt.Sprintf("Recorded $%s for %s (%s)", entry.Amount.StringFixed(2), entry.Description, entry.Category), err), nil
}

func formatTasks(day models.DayKey, list []models.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tasks for %s\n", day)
	for _, t := range list {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(&b, "[%s] %s (%s)\n", mark, t.Name, t.ID)
	}
	fmt.Fprintf(&b, "%d/%d done (%d%%)", models.CompletedCount(list), len(list), models.CompletionRatio(list))
	return b.String()
}

func formatOverview(o models.MonthOverview) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d: $%s across %d entries", o.Month, o.Year, o.Total.StringFixed(2), o.Count)
	for _, c := range o.ByCategory {
		fmt.Fprintf(&b, "\n- %s: $%s", c.Category, c.Amount.StringFixed(2))
	}
	return b.String()
}

func formatRoster(day models.DayKey, roster []models.Chicken) string {
	if len(roster) == 0 {
		return "No chickens yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d chickens", len(roster))
	for _, ch := range roster {
		fmt.Fprintf(&b, "\n- %s (%s), %s", ch.Name, ch.Breed, ch.AgeLabel(day))
	}
	return b.String()
}

func withNote(reply string, err error) string {
	if kv.IsWarning(err) {
		return reply + volatileNote
	}
	return reply
}
