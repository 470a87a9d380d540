package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/colivsplit/internal/models"
)

// ExpenseTotals is the aggregated cost picture of a property for one billing period.
type ExpenseTotals struct {
	// TotalFixed is SharedServiceFee + ManagementFee, always split among occupants present.
	TotalFixed decimal.Decimal

	// TotalVariable is the sum of the period's expense records, including the
	// subscription fee when it is billed to occupants.
	TotalVariable decimal.Decimal

	// PerCategory sums TotalVariable by expense category.
	PerCategory map[models.ExpenseCategory]decimal.Decimal

	// SubscriptionInjected is true when the subscription fee was added as a synthetic line.
	SubscriptionInjected bool
}

// AggregateExpenses sums a property's expense records for the period and adds its fixed fees.
//
// When the property bills its subscription to occupants and subscriptionFee is valid, the fee
// is added as a synthetic "subscription" line unless the records already carry one
// (the billing run persists that line), so the fee is never counted twice.
func AggregateExpenses(property models.Property, period models.Period, records []models.ExpenseRecord, subscriptionFee decimal.NullDecimal) (*ExpenseTotals, error) {
	if err := property.Validate(); err != nil {
		return nil, err
	}

	totals := &ExpenseTotals{
		TotalFixed:    property.SharedServiceFee.Add(property.ManagementFee),
		TotalVariable: decimal.Zero,
		PerCategory:   make(map[models.ExpenseCategory]decimal.Decimal),
	}

	hasSubscriptionLine := false
	for _, rec := range records {
		if err := validateExpense(rec, period); err != nil {
			return nil, err
		}
		if rec.Category == models.CategorySubscription {
			hasSubscriptionLine = true
		}
		totals.add(rec.Category, rec.Amount.Decimal)
	}

	if property.SubscriptionBillingTarget == models.BillOccupants && subscriptionFee.Valid && !hasSubscriptionLine {
		if subscriptionFee.Decimal.IsNegative() {
			return nil, &InvalidExpenseError{RecordID: "subscription", Reason: "negative subscription fee"}
		}
		totals.add(models.CategorySubscription, subscriptionFee.Decimal)
		totals.SubscriptionInjected = true
	}

	return totals, nil
}

func (t *ExpenseTotals) add(category models.ExpenseCategory, amount decimal.Decimal) {
	t.TotalVariable = t.TotalVariable.Add(amount)
	t.PerCategory[category] = t.PerCategory[category].Add(amount)
}

func validateExpense(rec models.ExpenseRecord, period models.Period) error {
	switch {
	case !rec.Amount.Valid:
		return &InvalidExpenseError{RecordID: rec.ID, Reason: "missing amount"}
	case rec.Amount.Decimal.IsNegative():
		return &InvalidExpenseError{RecordID: rec.ID, Reason: "negative amount " + rec.Amount.Decimal.String()}
	case !rec.Category.Valid():
		return &InvalidExpenseError{RecordID: rec.ID, Reason: "unknown category " + string(rec.Category)}
	case !period.Contains(rec.Date):
		return &InvalidExpenseError{RecordID: rec.ID, Reason: "dated " + rec.Date.Format("2006-01-02") + " outside " + period.String()}
	}
	return nil
}
