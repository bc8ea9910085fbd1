package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reportSend bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the weekly summary ending with the day",
	Args:  cobra.NoArgs,
	RunE:  weeklyReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportSend, "send", false, "Also send the summary over WhatsApp")
}

func weeklyReport(cmd *cobra.Command, args []string) error {
	day, err := currentDay()
	if err != nil {
		return err
	}

	text, err := coop.Services.Reporting.GenerateWeeklyReport(cmd.Context(), day)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)

	if reportSend {
		if err := coop.Notify.SendWeeklySummary(cmd.Context(), day); err != nil {
			return fmt.Errorf("send summary: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Summary sent")
	}
	return nil
}
