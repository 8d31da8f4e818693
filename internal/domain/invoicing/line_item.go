package invoicing

import (
	"cmp"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one billed row of an invoice
type LineItem struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal // percentage
	Position    int
}

// LineTotal returns quantity × unit price rounded half-up to cents, the
// amount printed on the row. Tax is applied separately. Any stored line total
// is ignored in favour of this value.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice).Round(2)
}

// TaxAmount returns the tax owed on the rounded line total
func (li LineItem) TaxAmount() decimal.Decimal {
	return li.LineTotal().Mul(li.TaxRate).Div(decimal.NewFromInt(100))
}

// SortedByPosition returns a copy of items ordered by ascending sort position.
// Items sharing a position keep their relative order.
func SortedByPosition(items []LineItem) []LineItem {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b LineItem) int {
		return cmp.Compare(a.Position, b.Position)
	})
	return sorted
}
