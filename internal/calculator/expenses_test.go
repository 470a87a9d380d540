package calculator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/colivsplit/internal/models"
)

func TestAggregateExpenses(t *testing.T) {
	inMarch := time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)
	record := func(id string, c models.ExpenseCategory, amt decimal.NullDecimal, at time.Time) models.ExpenseRecord {
		return models.ExpenseRecord{ID: id, PropertyID: "prop-1", Category: c, Amount: amt, Date: at}
	}

	occupantsPay := property(models.AllocationPerUnit, models.VacancyRedistribute, models.BillOccupants)
	occupantsPay.SharedServiceFee = money("29.99")
	occupantsPay.ManagementFee = money("50")

	tests := []struct {
		name         string
		property     models.Property
		records      []models.ExpenseRecord
		fee          decimal.NullDecimal
		wantErr      bool
		validateFunc func(t *testing.T, totals *ExpenseTotals)
	}{
		{
			name:     "fixed fees come from configuration",
			property: occupantsPay,
			records: []models.ExpenseRecord{
				record("w", models.CategoryWater, amount("40.50"), inMarch),
				record("e1", models.CategoryElectricity, amount("60"), inMarch),
				record("e2", models.CategoryElectricity, amount("15.25"), inMarch),
			},
			validateFunc: func(t *testing.T, totals *ExpenseTotals) {
				assertMoney(t, "79.99", totals.TotalFixed)
				assertMoney(t, "115.75", totals.TotalVariable)
				assertMoney(t, "75.25", totals.PerCategory[models.CategoryElectricity])
				assertMoney(t, "40.50", totals.PerCategory[models.CategoryWater])
				assert.False(t, totals.SubscriptionInjected)
			},
		},
		{
			name:     "subscription fee injected for occupants",
			property: occupantsPay,
			records:  []models.ExpenseRecord{record("e", models.CategoryElectricity, amount("100"), inMarch)},
			fee:      amount("20"),
			validateFunc: func(t *testing.T, totals *ExpenseTotals) {
				assertMoney(t, "120", totals.TotalVariable)
				assertMoney(t, "20", totals.PerCategory[models.CategorySubscription])
				assert.True(t, totals.SubscriptionInjected)
			},
		},
		{
			name:     "persisted subscription line is not counted twice",
			property: occupantsPay,
			records: []models.ExpenseRecord{
				record("e", models.CategoryElectricity, amount("100"), inMarch),
				record("s", models.CategorySubscription, amount("20"), inMarch),
			},
			fee: amount("20"),
			validateFunc: func(t *testing.T, totals *ExpenseTotals) {
				assertMoney(t, "120", totals.TotalVariable)
				assert.False(t, totals.SubscriptionInjected)
			},
		},
		{
			name:     "owner-billed subscription is ignored",
			property: property(models.AllocationPerUnit, models.VacancyRedistribute, models.BillOwner),
			records:  []models.ExpenseRecord{record("e", models.CategoryElectricity, amount("100"), inMarch)},
			fee:      amount("20"),
			validateFunc: func(t *testing.T, totals *ExpenseTotals) {
				assertMoney(t, "100", totals.TotalVariable)
				assertMoney(t, "0", totals.TotalFixed)
			},
		},
		{
			name:     "negative amount rejected",
			property: occupantsPay,
			records:  []models.ExpenseRecord{record("neg", models.CategoryRepairs, amount("-1"), inMarch)},
			wantErr:  true,
		},
		{
			name:     "missing amount rejected",
			property: occupantsPay,
			records:  []models.ExpenseRecord{record("nil", models.CategoryRepairs, decimal.NullDecimal{}, inMarch)},
			wantErr:  true,
		},
		{
			name:     "unknown category rejected",
			property: occupantsPay,
			records:  []models.ExpenseRecord{record("odd", "Elec", amount("10"), inMarch)},
			wantErr:  true,
		},
		{
			name:     "record outside the period rejected",
			property: occupantsPay,
			records:  []models.ExpenseRecord{record("apr", models.CategoryWater, amount("10"), inMarch.AddDate(0, 1, 0))},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals, err := AggregateExpenses(tt.property, march, tt.records, tt.fee)
			if tt.wantErr {
				var invalid *InvalidExpenseError
				require.ErrorAs(t, err, &invalid)
				assert.Equal(t, tt.records[0].ID, invalid.RecordID)
				return
			}
			require.NoError(t, err)
			tt.validateFunc(t, totals)
		})
	}
}

func TestAggregateExpensesRejectsBadConfiguration(t *testing.T) {
	p := property(models.AllocationPerUnit, "SOMETIMES", models.BillOwner)
	_, err := AggregateExpenses(p, march, nil, decimal.NullDecimal{})

	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "vacancy_policy", cfgErr.Field)
}
