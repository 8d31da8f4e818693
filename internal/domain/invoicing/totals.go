package invoicing

import "github.com/shopspring/decimal"

// Totals holds the monetary aggregates of a set of line items
type Totals struct {
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

// ComputeTotals derives the invoice aggregates from its line items. The
// subtotal is the sum of the rounded line totals, so it always equals the
// sum of the printed rows. Tax keeps full precision until display.
func ComputeTotals(items []LineItem) Totals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
		tax = tax.Add(item.TaxAmount())
	}
	return Totals{
		Subtotal:  subtotal,
		TaxAmount: tax,
		Total:     subtotal.Add(tax),
	}
}
