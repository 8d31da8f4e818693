package rendering

import (
	"html"
	"strconv"
	"strings"

	"github.com/factuurdesk/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
)

// RenderRequest is the input of a single render. It is built fresh per call
// and never persisted.
type RenderRequest struct {
	Invoice   *invoicing.InvoiceRecord
	LineItems []invoicing.LineItem
	// Template is optional. A nil or blank template selects the engine's default.
	Template *invoicing.Template
	Company  invoicing.CompanyProfile
}

// Engine substitutes placeholder tokens in template HTML with formatted
// invoice values. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	defaultTemplate string
	format          Formatter
}

// EngineOption configures the engine
type EngineOption func(*Engine)

// WithDefaultTemplate sets the markup used when a request carries no usable template
func WithDefaultTemplate(markup string) EngineOption {
	return func(e *Engine) {
		e.defaultTemplate = markup
	}
}

// WithFormatter replaces the value formatter
func WithFormatter(f Formatter) EngineOption {
	return func(e *Engine) {
		e.format = f
	}
}

// NewEngine creates a substitution engine. Without WithDefaultTemplate the
// built-in invoice layout is the fallback.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		defaultTemplate: DefaultInvoiceTemplate(),
		format:          DefaultFormatter(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Substitute resolves every known token in the request's template. Unknown
// tokens stay in the output as literal text. Only a missing request or
// invoice is an error; absent optional fields substitute as empty strings.
func (e *Engine) Substitute(req *RenderRequest) (string, error) {
	if req == nil {
		return "", NewRenderError(ErrCodeInvalidRequest, "render request is nil", nil)
	}
	if req.Invoice == nil {
		return "", NewRenderError(ErrCodeInvalidRequest, "render request has no invoice", nil)
	}

	markup := e.defaultTemplate
	if !req.Template.IsBlank() {
		markup = req.Template.HTMLContent
	}

	values := e.Values(req)
	pairs := make([]string, 0, len(values)*2)
	for _, token := range Tokens {
		pairs = append(pairs, Placeholder(token), values[token])
	}
	return strings.NewReplacer(pairs...).Replace(markup), nil
}

// Values returns the formatted value of every token for a request. Text
// values are HTML-escaped; the line items block and the logo are markup.
func (e *Engine) Values(req *RenderRequest) map[string]string {
	inv := req.Invoice
	company := req.Company
	items := invoicing.SortedByPosition(req.LineItems)
	totals := invoicing.ComputeTotals(items)

	values := map[string]string{
		TokenCompanyName:       html.EscapeString(company.Name),
		TokenCompanyAddress:    html.EscapeString(company.Address),
		TokenCompanyPostalCode: html.EscapeString(company.PostalCode),
		TokenCompanyCity:       html.EscapeString(company.City),
		TokenCompanyPhone:      html.EscapeString(company.Phone),
		TokenCompanyEmail:      html.EscapeString(company.Email),
		TokenCompanyKVK:        html.EscapeString(company.RegistrationNumber),
		TokenCompanyBTW:        html.EscapeString(company.TaxNumber),
		TokenCompanyIBAN:       html.EscapeString(company.BankAccount),
		TokenCompanyBIC:        html.EscapeString(company.BankIdentifier),
		TokenCompanyLogo:       logoMarkup(company),

		TokenInvoiceNumber:  html.EscapeString(inv.Number),
		TokenInvoiceDate:    e.format.Date(inv.IssueDate),
		TokenDueDate:        e.format.Date(inv.DueDate),
		TokenInvoiceSubject: html.EscapeString(inv.Subject),
		TokenNotes:          html.EscapeString(inv.Notes),

		TokenCustomerName:       html.EscapeString(inv.Client.Name),
		TokenCustomerAddress:    html.EscapeString(inv.Client.Address),
		TokenCustomerPostalCode: html.EscapeString(inv.Client.PostalCode),
		TokenCustomerCity:       html.EscapeString(inv.Client.City),

		TokenLineItems:     e.LineItemsBlock(items),
		TokenSubtotal:      e.format.Money(totals.Subtotal),
		TokenVATPercentage: e.format.Percent(headlineTaxRate(inv, items)),
		TokenVATAmount:     e.format.Money(totals.TaxAmount),
		TokenTotalAmount:   e.format.Money(totals.Total),
		TokenPaymentTerms:  strconv.Itoa(inv.PaymentTerms),

		TokenCurrencySymbol: html.EscapeString(e.format.CurrencySymbol),
	}
	return values
}

// LineItemsBlock builds one table row per item in the given order. An empty
// collection yields an empty block.
func (e *Engine) LineItemsBlock(items []invoicing.LineItem) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	for _, item := range items {
		b.WriteString(`<tr class="line-item">`)
		b.WriteString(`<td class="description">`)
		b.WriteString(html.EscapeString(item.Description))
		b.WriteString(`</td><td class="num quantity">`)
		b.WriteString(e.format.Quantity(item.Quantity))
		b.WriteString(`</td><td class="num unit-price">`)
		b.WriteString(html.EscapeString(e.format.Currency(item.UnitPrice)))
		b.WriteString(`</td><td class="num vat-rate">`)
		b.WriteString(e.format.Percent(item.TaxRate))
		b.WriteString(`%</td><td class="num line-total">`)
		b.WriteString(html.EscapeString(e.format.Currency(item.LineTotal())))
		b.WriteString("</td></tr>\n")
	}
	return b.String()
}

// headlineTaxRate is the invoice's own rate, or the first line's rate when
// the invoice carries none.
func headlineTaxRate(inv *invoicing.InvoiceRecord, items []invoicing.LineItem) decimal.Decimal {
	if !inv.TaxRate.IsZero() || len(items) == 0 {
		return inv.TaxRate
	}
	return items[0].TaxRate
}

func logoMarkup(company invoicing.CompanyProfile) string {
	if strings.TrimSpace(company.LogoURL) == "" {
		return ""
	}
	return `<img class="logo" src="` + html.EscapeString(company.LogoURL) +
		`" alt="` + html.EscapeString(company.Name) + `" crossorigin="anonymous"><br>`
}
