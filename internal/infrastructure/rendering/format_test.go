package rendering_test

import (
	"testing"
	"time"

	"github.com/factuurdesk/backend/internal/infrastructure/rendering"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatter_Money(t *testing.T) {
	f := rendering.DefaultFormatter()

	tests := []struct {
		input    string
		expected string
	}{
		{"19.999", "20.00"},
		{"20", "20.00"},
		{"0.005", "0.01"},
		{"1234567.891", "1234567.89"},
		{"-3.335", "-3.34"},
		{"0", "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, f.Money(decimal.RequireFromString(tt.input)))
		})
	}
	assert.Equal(t, "€ 25.00", f.Currency(decimal.NewFromInt(25)))
}

func TestFormatter_Date(t *testing.T) {
	f := rendering.DefaultFormatter()
	day := time.Date(2025, 6, 1, 15, 4, 0, 0, time.UTC)

	assert.Equal(t, "01-06-2025", f.Date(day))
	assert.Empty(t, f.Date(time.Time{}))

	f.DateLayout = rendering.DateLayoutForLocale("de-DE")
	assert.Equal(t, "01.06.2025", f.Date(day))
}

func TestFormatter_PercentAndQuantity(t *testing.T) {
	f := rendering.DefaultFormatter()

	assert.Equal(t, "21", f.Percent(decimal.RequireFromString("21.00")))
	assert.Equal(t, "9.5", f.Percent(decimal.RequireFromString("9.50")))
	assert.Equal(t, "2", f.Quantity(decimal.RequireFromString("2.000")))
	assert.Equal(t, "1.5", f.Quantity(decimal.RequireFromString("1.5")))
}

func TestDateLayoutForLocale(t *testing.T) {
	tests := []struct {
		locale   string
		expected string
	}{
		{"", rendering.DefaultDateLayout},
		{"nl", "02-01-2006"},
		{"nl-NL", "02-01-2006"},
		{"nl-BE", "02-01-2006"},
		{"de-DE", "02.01.2006"},
		{"en-US", "01/02/2006"},
		{"en-GB", "02/01/2006"},
		{"not a locale!", rendering.DefaultDateLayout},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			assert.Equal(t, tt.expected, rendering.DateLayoutForLocale(tt.locale))
		})
	}
}
