package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/coopkeeper/internal/service/expenses"
)

var (
	monthYear  int
	monthMonth int
)

var expensesCmd = &cobra.Command{
	Use:   "expenses",
	Short: "Track money spent on the coop",
}

var expensesAddCmd = &cobra.Command{
	Use:   "add <amount> <description...>",
	Short: "Record an expense on the day",
	Args:  cobra.MinimumNArgs(2),
	RunE:  addExpense,
}

var expensesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every expense, newest first",
	Args:  cobra.NoArgs,
	RunE:  listExpenses,
}

var expensesMonthCmd = &cobra.Command{
	Use:   "month",
	Short: "Summarize one month of expenses by category",
	Args:  cobra.NoArgs,
	RunE:  monthExpenses,
}

func init() {
	expensesMonthCmd.Flags().IntVar(&monthYear, "year", 0, "Year to summarize (default: the day's year)")
	expensesMonthCmd.Flags().IntVar(&monthMonth, "month", 0, "Month to summarize, 1-12 (default: the day's month)")

	expensesCmd.AddCommand(expensesAddCmd)
	expensesCmd.AddCommand(expensesListCmd)
	expensesCmd.AddCommand(expensesMonthCmd)
}

func addExpense(cmd *cobra.Command, args []string) error {
	day, err := currentDay()
	if err != nil {
		return err
	}

	entry, err := coop.Services.Expenses.Add(cmd.Context(), day, strings.Join(args[1:], " "), args[0])
	if err = warnIfVolatile(cmd, err); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s $%s (%s) on %s\n",
		entry.Description, entry.Amount.StringFixed(2), entry.Category, entry.Date)
	return nil
}

func listExpenses(cmd *cobra.Command, args []string) error {
	ledger, err := coop.Services.Expenses.List(cmd.Context())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tCATEGORY\tAMOUNT\tDESCRIPTION")
	for _, e := range ledger {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Date, e.Category, e.Amount.StringFixed(2), e.Description)
	}
	fmt.Fprintf(tw, "\t\t%s\tTotal\n", expenses.Sum(ledger).StringFixed(2))
	return tw.Flush()
}

func monthExpenses(cmd *cobra.Command, args []string) error {
	day, err := currentDay()
	if err != nil {
		return err
	}

	year, month := day.Year(), day.Month()
	if monthYear != 0 {
		year = monthYear
	}
	if monthMonth != 0 {
		month = time.Month(monthMonth)
	}

	overview, err := coop.Services.Expenses.MonthOverview(cmd.Context(), year, month)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %d: $%s across %d entries\n", overview.Month, overview.Year, overview.Total.StringFixed(2), overview.Count)
	for _, ca := range overview.ByCategory {
		fmt.Fprintf(out, "  %-12s $%s\n", ca.Category, ca.Amount.StringFixed(2))
	}
	return nil
}
