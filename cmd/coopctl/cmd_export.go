package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/coopkeeper/internal/service/export"
)

var (
	exportDays int
	exportOut  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export records as CSV",
}

var exportEggsCmd = &cobra.Command{
	Use:   "eggs",
	Short: "Export the daily egg counts ending with the day",
	Args:  cobra.NoArgs,
	RunE:  exportEggs,
}

var exportExpensesCmd = &cobra.Command{
	Use:   "expenses",
	Short: "Export the expense ledger",
	Args:  cobra.NoArgs,
	RunE:  exportExpenses,
}

var exportSheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "Mirror both exports into the configured Google spreadsheet",
	Args:  cobra.NoArgs,
	RunE:  exportSheets,
}

func init() {
	exportCmd.PersistentFlags().StringVarP(&exportOut, "out", "o", "", "Write to this file; \"-\" for stdout (default: dated file name)")
	exportEggsCmd.Flags().IntVar(&exportDays, "days", export.DefaultEggDays, "Number of days to export")

	exportCmd.AddCommand(exportEggsCmd)
	exportCmd.AddCommand(exportExpensesCmd)
	exportCmd.AddCommand(exportSheetsCmd)
}

func exportEggs(cmd *cobra.Command, args []string) error {
	day, err := currentDay()
	if err != nil {
		return err
	}
	if exportDays < 1 {
		return fmt.Errorf("--days must be positive, got %d", exportDays)
	}

	var buf bytes.Buffer
	if err := coop.Services.Export.EggsCSV(cmd.Context(), &buf, day, exportDays); err != nil {
		return err
	}
	return writeExport(cmd, export.EggsFilename(day), buf.Bytes())
}

func exportExpenses(cmd *cobra.Command, args []string) error {
	day, err := currentDay()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := coop.Services.Export.ExpensesCSV(cmd.Context(), &buf); err != nil {
		return err
	}
	return writeExport(cmd, export.ExpensesFilename(day), buf.Bytes())
}

func exportSheets(cmd *cobra.Command, args []string) error {
	day, err := currentDay()
	if err != nil {
		return err
	}

	if err := coop.Services.Export.PushToSheets(cmd.Context(), day); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Spreadsheet updated")
	return nil
}

func writeExport(cmd *cobra.Command, filename string, data []byte) error {
	target := exportOut
	if target == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if target == "" {
		target = filename
	}

	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", target)
	return nil
}
