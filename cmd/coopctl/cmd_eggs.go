package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/coopkeeper/internal/service/eggs"
)

var eggsCmd = &cobra.Command{
	Use:   "eggs",
	Short: "Count the eggs collected each day",
}

var eggsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the day's count and the last seven days",
	Args:  cobra.NoArgs,
	RunE:  showEggs,
}

var eggsAddCmd = &cobra.Command{
	Use:   "add [count]",
	Short: "Record collected eggs (one by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  addEggs,
}

var eggsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Set the day's count back to zero",
	Args:  cobra.NoArgs,
	RunE:  resetEggs,
}

func init() {
	eggsCmd.AddCommand(eggsShowCmd)
	eggsCmd.AddCommand(eggsAddCmd)
	eggsCmd.AddCommand(eggsResetCmd)
}

func showEggs(cmd *cobra.Command, args []string) error {
	day, err := currentDay()
	if err != nil {
		return err
	}

	history, err := coop.Services.Eggs.History(cmd.Context(), day, eggs.WindowDays)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	total := 0
	for _, dc := range history {
		total += dc.Count
		fmt.Fprintf(out, "%s  %s  %d\n", dc.Day, dc.Day.Time().Weekday().String()[:3], dc.Count)
	}
	fmt.Fprintf(out, "Today: %d\n", history[len(history)-1].Count)
	fmt.Fprintf(out, "This week: %d\n", total)
	return nil
}

func addEggs(cmd *cobra.Command, args []string) error {
	day, err := currentDay()
	if err != nil {
		return err
	}

	n := 1
	if len(args) == 1 {
		n, err = strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("count must be a positive whole number, got %q", args[0])
		}
	}

	count, err := coop.Services.Eggs.Add(cmd.Context(), day, n)
	if err = warnIfVolatile(cmd, err); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d eggs\n", day, count)
	return nil
}

func resetEggs(cmd *cobra.Command, args []string) error {
	day, err := currentDay()
	if err != nil {
		return err
	}

	if err := warnIfVolatile(cmd, coop.Services.Eggs.Reset(cmd.Context(), day)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: 0 eggs\n", day)
	return nil
}
