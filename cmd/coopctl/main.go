package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/coopkeeper/internal/app"
	"github.com/mamadbah2/coopkeeper/internal/config"
	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	"github.com/mamadbah2/coopkeeper/internal/repository/kv"
	"github.com/mamadbah2/coopkeeper/pkg/logger"
)

var (
	// Global flags
	dayFlag string
	envFile string
	verbose bool

	// Set up by PersistentPreRunE
	log  *zap.Logger
	coop *app.App
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "coopctl",
	Short: "Keep the records of a backyard chicken coop",
	Long: `coopctl records eggs, chores, expenses and chickens in the same store the
CoopKeeper server uses. Every command acts on today's date unless --day is given.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}

		level := "warn"
		if verbose {
			level = "debug"
		}
		log, err = logger.New(level)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		coop, err = app.New(cmd.Context(), cfg, log)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		defer func() { _ = log.Sync() }()
		if coop == nil {
			return nil
		}
		if pending := coop.Store.Pending(); len(pending) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d record(s) could not be saved\n", len(pending))
		}
		err := coop.Close(context.Background())
		coop = nil
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dayFlag, "day", "", "Day to act on as YYYY-MM-DD (default: today)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load configuration from this .env file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(eggsCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(expensesCmd)
	rootCmd.AddCommand(chickensCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(reportCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// currentDay resolves --day, falling back to the wall clock in the configured timezone.
func currentDay() (models.DayKey, error) {
	if dayFlag == "" {
		return models.DayKeyOf(time.Now().In(coop.Config.Location())), nil
	}
	return models.ParseDayKey(dayFlag)
}

// warnIfVolatile prints the not-durable warning and swallows it.
func warnIfVolatile(cmd *cobra.Command, err error) error {
	if kv.IsWarning(err) {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: storage is unavailable, change kept for this run only")
		return nil
	}
	return err
}
