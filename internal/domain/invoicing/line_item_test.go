package invoicing

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLineItem_LineTotal(t *testing.T) {
	item := LineItem{
		Quantity:  decimal.NewFromInt(2),
		UnitPrice: decimal.RequireFromString("100.00"),
		TaxRate:   decimal.NewFromInt(21),
	}

	assert.True(t, item.LineTotal().Equal(decimal.NewFromInt(200)))
	assert.True(t, item.TaxAmount().Equal(decimal.NewFromInt(42)))
}

func TestLineItem_LineTotalRoundsToCents(t *testing.T) {
	tests := []struct {
		quantity, price, want string
	}{
		{"1", "0.005", "0.01"},
		{"3", "0.333", "1.00"},
		{"1", "19.999", "20.00"},
		{"0.5", "0.01", "0.01"},
	}
	for _, tt := range tests {
		item := LineItem{
			Quantity:  decimal.RequireFromString(tt.quantity),
			UnitPrice: decimal.RequireFromString(tt.price),
			TaxRate:   decimal.NewFromInt(21),
		}
		assert.Equal(t, tt.want, item.LineTotal().StringFixed(2), "%s × %s", tt.quantity, tt.price)
	}
}

func TestSortedByPosition(t *testing.T) {
	items := []LineItem{
		{Description: "third", Position: 3},
		{Description: "first", Position: 1},
		{Description: "second", Position: 2},
	}

	sorted := SortedByPosition(items)

	assert.Equal(t, []string{"first", "second", "third"}, descriptions(sorted))
	assert.Equal(t, "third", items[0].Description, "input must not be reordered")
}

func TestSortedByPosition_ExtremePositions(t *testing.T) {
	items := []LineItem{
		{Description: "last", Position: math.MaxInt},
		{Description: "first", Position: math.MinInt},
		{Description: "middle", Position: 0},
	}

	sorted := SortedByPosition(items)

	assert.Equal(t, []string{"first", "middle", "last"}, descriptions(sorted))
}

func TestSortedByPosition_Empty(t *testing.T) {
	assert.Empty(t, SortedByPosition(nil))
}

func descriptions(items []LineItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Description
	}
	return out
}
