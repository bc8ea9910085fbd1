package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/coopkeeper/internal/domain/models"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Work through the daily chore checklist",
}

var tasksShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the day's checklist",
	Args:  cobra.NoArgs,
	RunE:  showTasks,
}

var tasksToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Mark a chore done or not done",
	Args:  cobra.ExactArgs(1),
	RunE:  toggleTask,
}

func init() {
	tasksCmd.AddCommand(tasksShowCmd)
	tasksCmd.AddCommand(tasksToggleCmd)
}

func showTasks(cmd *cobra.Command, args []string) error {
	day, err := currentDay()
	if err != nil {
		return err
	}

	list, err := coop.Services.Tasks.Ensure(cmd.Context(), day)
	if err = warnIfVolatile(cmd, err); err != nil {
		return err
	}
	printTasks(cmd.OutOrStdout(), day, list)
	return nil
}

func toggleTask(cmd *cobra.Command, args []string) error {
	day, err := currentDay()
	if err != nil {
		return err
	}

	list, err := coop.Services.Tasks.Toggle(cmd.Context(), day, args[0])
	if err = warnIfVolatile(cmd, err); err != nil {
		return err
	}
	printTasks(cmd.OutOrStdout(), day, list)
	return nil
}

func printTasks(out io.Writer, day models.DayKey, list []models.Task) {
	fmt.Fprintf(out, "Chores for %s\n", day)
	for _, t := range list {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(out, "[%s] %-8s %s\n", mark, t.ID, t.Name)
	}
	fmt.Fprintf(out, "%d/%d done (%d%%)\n", models.CompletedCount(list), len(list), models.CompletionRatio(list))
}
