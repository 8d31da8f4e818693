package invoicing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	items := []LineItem{
		{Description: "Consult", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("100.00"), TaxRate: decimal.NewFromInt(21)},
		{Description: "Reiskosten", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("25.00"), TaxRate: decimal.NewFromInt(21)},
	}

	totals := ComputeTotals(items)

	assert.Equal(t, "225.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "47.25", totals.TaxAmount.StringFixed(2))
	assert.Equal(t, "272.25", totals.Total.StringFixed(2))
}

func TestComputeTotals_MixedRates(t *testing.T) {
	items := []LineItem{
		{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100), TaxRate: decimal.NewFromInt(21)},
		{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100), TaxRate: decimal.NewFromInt(9)},
		{Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(10), TaxRate: decimal.Zero},
	}

	totals := ComputeTotals(items)

	assert.Equal(t, "230.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "30.00", totals.TaxAmount.StringFixed(2))
	assert.Equal(t, "260.00", totals.Total.StringFixed(2))
}

func TestComputeTotals_SubtotalMatchesRoundedRows(t *testing.T) {
	item := LineItem{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("0.005"), TaxRate: decimal.NewFromInt(21)}
	items := []LineItem{item, item, item}

	totals := ComputeTotals(items)

	rows := decimal.Zero
	for _, li := range items {
		rows = rows.Add(li.LineTotal())
	}
	assert.Equal(t, "0.03", totals.Subtotal.StringFixed(2))
	assert.True(t, rows.Equal(totals.Subtotal))
	assert.Equal(t, "0.01", totals.TaxAmount.StringFixed(2))
	assert.Equal(t, "0.04", totals.Total.StringFixed(2))
}

func TestComputeTotals_NoItems(t *testing.T) {
	totals := ComputeTotals(nil)

	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Total.IsZero())
}
