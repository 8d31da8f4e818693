package rendering

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// DefaultDateLayout renders dates day-month-year, the Dutch convention
const DefaultDateLayout = "02-01-2006"

// DefaultCurrencySymbol prefixes currency values in generated line rows and
// is the value of {{currency_symbol}}
const DefaultCurrencySymbol = "€ "

var (
	supportedLocales = []language.Tag{
		language.Dutch,
		language.BritishEnglish,
		language.AmericanEnglish,
		language.German,
		language.French,
	}
	localeMatcher = language.NewMatcher(supportedLocales)
	localeLayouts = map[language.Tag]string{
		language.Dutch:           "02-01-2006",
		language.BritishEnglish:  "02/01/2006",
		language.AmericanEnglish: "01/02/2006",
		language.German:          "02.01.2006",
		language.French:          "02/01/2006",
	}
)

// DateLayoutForLocale returns the date layout for a BCP 47 locale string.
// Unknown or malformed locales fall back to DefaultDateLayout.
func DateLayoutForLocale(locale string) string {
	if locale == "" {
		return DefaultDateLayout
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return DefaultDateLayout
	}
	_, index, confidence := localeMatcher.Match(tag)
	if confidence == language.No {
		return DefaultDateLayout
	}
	return localeLayouts[supportedLocales[index]]
}

// Formatter turns typed invoice values into display strings
type Formatter struct {
	DateLayout     string
	CurrencySymbol string
}

// DefaultFormatter returns a formatter using the Dutch conventions
func DefaultFormatter() Formatter {
	return Formatter{
		DateLayout:     DefaultDateLayout,
		CurrencySymbol: DefaultCurrencySymbol,
	}
}

// Money renders a value with exactly two decimal places, rounding half away
// from zero. No thousands separator is inserted.
func (f Formatter) Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Currency renders a value as Money prefixed with the currency symbol
func (f Formatter) Currency(d decimal.Decimal) string {
	return f.CurrencySymbol + f.Money(d)
}

// Date renders a date in the configured layout. A zero time renders empty.
func (f Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	layout := f.DateLayout
	if layout == "" {
		layout = DefaultDateLayout
	}
	return t.Format(layout)
}

// Percent renders a percentage as a bare number without the percent sign
func (f Formatter) Percent(d decimal.Decimal) string {
	return d.String()
}

// Quantity renders a quantity without trailing zeros
func (f Formatter) Quantity(d decimal.Decimal) string {
	return d.String()
}
