package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// WeeklySummary aggregates the figures shown in the weekly report.
type WeeklySummary struct {
	Day            DayKey          `json:"day"`
	Week           []DayCount      `json:"week"`
	EggsThisWeek   int             `json:"eggs_this_week"`
	EggsToday      int             `json:"eggs_today"`
	TasksCompleted int             `json:"tasks_completed"`
	TasksTotal     int             `json:"tasks_total"`
	TasksRatio     int             `json:"tasks_ratio"`
	MonthExpenses  decimal.Decimal `json:"month_expenses"`
	MonthEntries   int             `json:"month_entries"`
	FlockSize      int             `json:"flock_size"`
}

// Format renders the summary as a short plain-text message.
func (s WeeklySummary) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CoopKeeper weekly summary (%s)\n", s.Day)
	fmt.Fprintf(&b, "Eggs this week: %d\n", s.EggsThisWeek)
	if len(s.Week) > 0 {
		parts := make([]string, 0, len(s.Week))
		for _, dc := range s.Week {
			parts = append(parts, fmt.Sprintf("%s %d", dc.Day.Time().Weekday().String()[:3], dc.Count))
		}
		fmt.Fprintf(&b, "Daily: %s\n", strings.Join(parts, ", "))
	}
	fmt.Fprintf(&b, "Chores today: %d/%d (%d%%)\n", s.TasksCompleted, s.TasksTotal, s.TasksRatio)
	fmt.Fprintf(&b, "Spent this month: $%s across %d entries\n", s.MonthExpenses.StringFixed(2), s.MonthEntries)
	fmt.Fprintf(&b, "Flock: %d chickens", s.FlockSize)
	return b.String()
}
