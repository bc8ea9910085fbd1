package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultBreed is used when a chicken is added without a breed.
const DefaultBreed = "Mixed Breed"

// BreedOptions lists the breeds offered by the add form.
var BreedOptions = []string{
	"Rhode Island Red",
	"Leghorn",
	"Plymouth Rock",
	"Australorp",
	"Buff Orpington",
	"New Hampshire Red",
	"Sussex",
	"Wyandotte",
	"Marans",
	"Silkie",
	DefaultBreed,
	"Other",
}

// Chicken is one flock member. Optional fields are omitted from storage when empty.
type Chicken struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Breed         string `json:"breed"`
	SpecificBreed string `json:"specificBreed,omitempty"`
	DateOfBirth   DayKey `json:"dateOfBirth,omitempty"`
	AgeInWeeks    *int   `json:"ageInWeeks,omitempty"`
	Photo         string `json:"photo,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// ChickenInput carries the user-supplied fields for a new chicken.
type ChickenInput struct {
	Name          string `json:"name"`
	Breed         string `json:"breed"`
	SpecificBreed string `json:"specificBreed"`
	DateOfBirth   string `json:"dateOfBirth"`
	AgeInWeeks    *int   `json:"ageInWeeks"`
	Photo         string `json:"photo"`
	Notes         string `json:"notes"`
}

// UnmarshalJSON implements json.Unmarshaler and validates the stored shape.
func (c *Chicken) UnmarshalJSON(data []byte) error {
	type plain Chicken
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.ID == "" {
		return errors.New("chicken: missing id")
	}
	if p.Name == "" {
		return fmt.Errorf("chicken %s: missing name", p.ID)
	}
	if p.DateOfBirth != "" && !p.DateOfBirth.Valid() {
		return fmt.Errorf("chicken %s: %w: %q", p.ID, ErrInvalidDayKey, p.DateOfBirth)
	}
	*c = Chicken(p)
	return nil
}

// AgeDays returns the chicken's age in days on the given day. A birth date wins over
// the stored weeks snapshot; the result is never negative.
func (c Chicken) AgeDays(day DayKey) int {
	var days int
	switch {
	case c.DateOfBirth != "":
		days = day.DaysSince(c.DateOfBirth)
	case c.AgeInWeeks != nil:
		days = *c.AgeInWeeks * 7
	}
	if days < 0 {
		return 0
	}
	return days
}

// AgeLabel formats the chicken's age on the given day.
func (c Chicken) AgeLabel(day DayKey) string {
	return FormatAge(c.AgeDays(day))
}

// FormatAge renders an age in days using 30-day months and 365-day years.
func FormatAge(days int) string {
	if days < 0 {
		days = 0
	}

	switch {
	case days < 30:
		return plural(days, "day") + " old"
	case days < 365:
		months := days / 30
		rest := days % 30
		if rest == 0 {
			return plural(months, "month") + " old"
		}
		return plural(months, "month") + ", " + plural(rest, "day") + " old"
	default:
		years := days / 365
		months := (days % 365) / 30
		if months == 0 {
			return plural(years, "year") + " old"
		}
		return plural(years, "year") + ", " + plural(months, "month") + " old"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
