package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category tags an expense for display and monthly breakdowns.
type Category string

const (
	CategoryFeed        Category = "feed"
	CategoryHealth      Category = "health"
	CategoryMaintenance Category = "maintenance"
	CategoryGeneral     Category = "general"
)

type categoryRule struct {
	category Category
	keywords []string
}

// Order matters: the first matching rule wins.
var categoryRules = []categoryRule{
	{category: CategoryFeed, keywords: []string{"feed", "food"}},
	{category: CategoryHealth, keywords: []string{"medicine", "vitamin", "health"}},
	{category: CategoryMaintenance, keywords: []string{"repair", "tool", "maintenance"}},
}

// Categorize infers a category from keywords in the description.
func Categorize(description string) Category {
	lower := strings.ToLower(description)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return CategoryGeneral
}

// Expense is one immutable ledger entry.
type Expense struct {
	ID          string
	Description string
	Amount      decimal.Decimal
	Date        DayKey
	Category    Category
}

// expenseDoc is the persisted shape; the amount is kept as a JSON number.
type expenseDoc struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Date        string      `json:"date"`
	Category    string      `json:"category,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e Expense) MarshalJSON() ([]byte, error) {
	return json.Marshal(expenseDoc{
		ID:          e.ID,
		Description: e.Description,
		Amount:      json.Number(e.Amount.String()),
		Date:        string(e.Date),
		Category:    string(e.Category),
	})
}

// UnmarshalJSON implements json.Unmarshaler and validates the stored shape.
func (e *Expense) UnmarshalJSON(data []byte) error {
	var doc expenseDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.ID == "" {
		return fmt.Errorf("expense: missing id")
	}
	amount, err := decimal.NewFromString(doc.Amount.String())
	if err != nil {
		return fmt.Errorf("expense %s: amount %q: %w", doc.ID, doc.Amount, err)
	}
	day, err := ParseDayKey(doc.Date)
	if err != nil {
		return fmt.Errorf("expense %s: %w", doc.ID, err)
	}

	category := Category(doc.Category)
	if category == "" {
		category = Categorize(doc.Description)
	}

	*e = Expense{
		ID:          doc.ID,
		Description: doc.Description,
		Amount:      amount,
		Date:        day,
		Category:    category,
	}
	return nil
}

// CategoryAmount is an amount aggregated by category.
type CategoryAmount struct {
	Category Category        `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// MonthOverview summarizes the expenses stamped within one calendar month.
type MonthOverview struct {
	Year       int              `json:"year"`
	Month      time.Month       `json:"month"`
	Total      decimal.Decimal  `json:"total"`
	Count      int              `json:"count"`
	ByCategory []CategoryAmount `json:"by_category"`
}
