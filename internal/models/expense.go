package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseCategory classifies an expense record.
type ExpenseCategory string

const (
	CategoryWater        ExpenseCategory = "water"
	CategoryElectricity  ExpenseCategory = "electricity"
	CategoryConnectivity ExpenseCategory = "connectivity"
	CategoryRepairs      ExpenseCategory = "repairs"
	CategoryRent         ExpenseCategory = "rent"
	CategorySubscription ExpenseCategory = "subscription"
)

// ExpenseCategories lists every known category in display order.
var ExpenseCategories = []ExpenseCategory{
	CategoryWater,
	CategoryElectricity,
	CategoryConnectivity,
	CategoryRepairs,
	CategoryRent,
	CategorySubscription,
}

// Valid reports whether c is one of the known categories.
func (c ExpenseCategory) Valid() bool {
	for _, known := range ExpenseCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseExpenseCategory converts a stored value into an ExpenseCategory.
func ParseExpenseCategory(s string) (ExpenseCategory, error) {
	c := ExpenseCategory(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown expense category %q", s)
	}
	return c, nil
}

// ExpenseRecord represents a bill charged to a property for a billing period.
// Records are immutable once created except for Description.
type ExpenseRecord struct {
	// ID is the unique identifier for the record (UUID format).
	ID string

	// PropertyID is the property the expense is charged to.
	PropertyID string

	// Category classifies the expense.
	Category ExpenseCategory

	// Amount is the expense amount. Invalid (missing) amounts are rejected during aggregation.
	Amount decimal.NullDecimal

	// Date is the day the expense applies to; it must fall inside the billing period.
	Date time.Time

	// Description is free-form metadata (e.g., "EDF invoice March").
	Description string
}
