package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/coopkeeper/internal/domain/models"
	"github.com/mamadbah2/coopkeeper/internal/service/flock"
)

var (
	chickenBreed         string
	chickenSpecificBreed string
	chickenDOB           string
	chickenWeeks         int
	chickenNotes         string
	chickenPhoto         string
)

var chickensCmd = &cobra.Command{
	Use:   "chickens",
	Short: "Keep the flock roster",
}

var chickensAddCmd = &cobra.Command{
	Use:   "add <name...>",
	Short: "Add a chicken to the flock",
	Long: `Adds a chicken to the roster. Give either --dob or --weeks for its age.

Breeds: ` + strings.Join(models.BreedOptions, ", "),
	Args: cobra.MinimumNArgs(1),
	RunE: addChicken,
}

var chickensListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the flock with ages on the day",
	Args:  cobra.NoArgs,
	RunE:  listChickens,
}

func init() {
	chickensAddCmd.Flags().StringVar(&chickenBreed, "breed", "", "Breed (default: "+models.DefaultBreed+")")
	chickensAddCmd.Flags().StringVar(&chickenSpecificBreed, "specific-breed", "", "Breed name when --breed is Other")
	chickensAddCmd.Flags().StringVar(&chickenDOB, "dob", "", "Date of birth as YYYY-MM-DD")
	chickensAddCmd.Flags().IntVar(&chickenWeeks, "weeks", -1, "Age in weeks when the birth date is unknown")
	chickensAddCmd.Flags().StringVar(&chickenNotes, "notes", "", "Free-form notes")
	chickensAddCmd.Flags().StringVar(&chickenPhoto, "photo", "", "Path to a photo of the chicken")

	chickensCmd.AddCommand(chickensAddCmd)
	chickensCmd.AddCommand(chickensListCmd)
}

func addChicken(cmd *cobra.Command, args []string) error {
	day, err := currentDay()
	if err != nil {
		return err
	}

	input := models.ChickenInput{
		Name:          strings.Join(args, " "),
		Breed:         chickenBreed,
		SpecificBreed: chickenSpecificBreed,
		DateOfBirth:   chickenDOB,
		Notes:         chickenNotes,
	}
	if cmd.Flags().Changed("weeks") {
		weeks := chickenWeeks
		input.AgeInWeeks = &weeks
	}
	if chickenPhoto != "" {
		data, err := os.ReadFile(chickenPhoto)
		if err != nil {
			return fmt.Errorf("read photo: %w", err)
		}
		input.Photo = flock.EncodePhoto("", data)
	}

	chicken, err := coop.Services.Flock.Add(cmd.Context(), input)
	if err = warnIfVolatile(cmd, err); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s), %s\n", chicken.Name, breedLabel(chicken), chicken.AgeLabel(day))
	return nil
}

func listChickens(cmd *cobra.Command, args []string) error {
	day, err := currentDay()
	if err != nil {
		return err
	}

	roster, err := coop.Services.Flock.List(cmd.Context())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tBREED\tAGE\tNOTES")
	for _, c := range roster {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Name, breedLabel(c), c.AgeLabel(day), c.Notes)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d chickens\n", len(roster))
	return nil
}

func breedLabel(c models.Chicken) string {
	if c.SpecificBreed != "" {
		return c.SpecificBreed
	}
	return c.Breed
}
