package rendering_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/factuurdesk/backend/internal/domain/invoicing"
	"github.com/factuurdesk/backend/internal/infrastructure/rendering"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func everyTokenTemplate() string {
	var b strings.Builder
	for _, token := range rendering.Tokens {
		b.WriteString("<span data-token=\"" + token + "\">")
		b.WriteString(rendering.Placeholder(token))
		b.WriteString("</span>\n")
	}
	return b.String()
}

func TestEngine_Substitute_ResolvesEveryToken(t *testing.T) {
	engine := rendering.NewEngine()
	req := &rendering.RenderRequest{
		Invoice:   sampleInvoice(),
		LineItems: sampleLineItems(),
		Template:  &invoicing.Template{HTMLContent: everyTokenTemplate()},
		Company:   sampleCompany(),
	}

	out, err := engine.Substitute(req)
	require.NoError(t, err)

	for _, token := range rendering.Tokens {
		assert.NotContains(t, out, rendering.Placeholder(token))
	}
	assert.NotContains(t, out, "{{")

	expected := map[string]string{
		rendering.TokenCompanyName:   "Factuurdesk BV",
		rendering.TokenCompanyKVK:    "12345678",
		rendering.TokenCompanyBTW:    "NL001234567B01",
		rendering.TokenCompanyIBAN:   "NL91ABNA0417164300",
		rendering.TokenCompanyBIC:    "ABNANL2A",
		rendering.TokenInvoiceNumber: "2025-185",
		rendering.TokenInvoiceDate:   "01-06-2025",
		rendering.TokenDueDate:       "01-07-2025",
		rendering.TokenCustomerName:  "Acme BV",
		rendering.TokenCustomerCity:  "Amsterdam",
		rendering.TokenSubtotal:      "225.00",
		rendering.TokenVATPercentage: "21",
		rendering.TokenVATAmount:     "47.25",
		rendering.TokenTotalAmount:   "272.25",
		rendering.TokenPaymentTerms:  "30",
	}
	for token, value := range expected {
		assert.Contains(t, out, `<span data-token="`+token+`">`+value+`</span>`, token)
	}
	assert.Contains(t, out, `src="https://cdn.example.com/logo.png"`)
}

func TestEngine_Substitute_LeavesUnknownTokens(t *testing.T) {
	engine := rendering.NewEngine()
	req := &rendering.RenderRequest{
		Invoice:  sampleInvoice(),
		Template: &invoicing.Template{HTMLContent: "<p>{{invoice_number}} {{purchase_order}} {{ invoice_number }}</p>"},
	}

	out, err := engine.Substitute(req)
	require.NoError(t, err)
	assert.Equal(t, "<p>2025-185 {{purchase_order}} {{ invoice_number }}</p>", out)
}

func TestEngine_Substitute_FallsBackToDefaultTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template *invoicing.Template
	}{
		{name: "nil template", template: nil},
		{name: "empty template", template: &invoicing.Template{HTMLContent: ""}},
		{name: "whitespace template", template: &invoicing.Template{HTMLContent: "  \n\t "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := rendering.NewEngine()
			out, err := engine.Substitute(&rendering.RenderRequest{
				Invoice:   sampleInvoice(),
				LineItems: sampleLineItems(),
				Template:  tt.template,
				Company:   sampleCompany(),
			})
			require.NoError(t, err)

			assert.Contains(t, out, "FACTUUR")
			assert.Contains(t, out, "2025-185")
			for _, token := range rendering.Tokens {
				assert.NotContains(t, out, rendering.Placeholder(token))
			}
		})
	}
}

func TestDefaultInvoiceTemplate_UsesEveryToken(t *testing.T) {
	markup := rendering.DefaultInvoiceTemplate()
	for _, token := range rendering.Tokens {
		assert.Contains(t, markup, rendering.Placeholder(token), token)
	}
}

func TestEngine_WithDefaultTemplate(t *testing.T) {
	engine := rendering.NewEngine(rendering.WithDefaultTemplate("<h1>{{invoice_number}}</h1>"))

	out, err := engine.Substitute(&rendering.RenderRequest{Invoice: sampleInvoice()})
	require.NoError(t, err)
	assert.Equal(t, "<h1>2025-185</h1>", out)
}

func TestEngine_LineItemsFollowSortPosition(t *testing.T) {
	items := []invoicing.LineItem{
		{Description: "item-4", Position: 4, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(4)},
		{Description: "item-1", Position: 1, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)},
		{Description: "item-3", Position: 3, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(3)},
		{Description: "item-2", Position: 2, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(2)},
	}
	engine := rendering.NewEngine()

	out, err := engine.Substitute(&rendering.RenderRequest{
		Invoice:   sampleInvoice(),
		LineItems: items,
		Template:  &invoicing.Template{HTMLContent: "<table>{{line_items}}</table>"},
	})
	require.NoError(t, err)

	last := -1
	for _, name := range []string{"item-1", "item-2", "item-3", "item-4"} {
		idx := strings.Index(out, name)
		require.NotEqual(t, -1, idx, name)
		assert.Greater(t, idx, last, "%s out of order", name)
		last = idx
	}
	assert.Equal(t, 4, strings.Count(out, `<tr class="line-item">`))
}

func TestEngine_LineItemRow(t *testing.T) {
	engine := rendering.NewEngine()
	block := engine.LineItemsBlock([]invoicing.LineItem{{
		Description: "Consult",
		Quantity:    decimal.NewFromInt(2),
		UnitPrice:   decimal.RequireFromString("100.00"),
		TaxRate:     decimal.NewFromInt(21),
	}})

	assert.Contains(t, block, `<td class="description">Consult</td>`)
	assert.Contains(t, block, `<td class="num quantity">2</td>`)
	assert.Contains(t, block, `<td class="num unit-price">€ 100.00</td>`)
	assert.Contains(t, block, `<td class="num vat-rate">21%</td>`)
	assert.Contains(t, block, `<td class="num line-total">€ 200.00</td>`)
}

func TestEngine_EmptyLineItemsYieldEmptyBlock(t *testing.T) {
	engine := rendering.NewEngine()
	assert.Empty(t, engine.LineItemsBlock(nil))

	out, err := engine.Substitute(&rendering.RenderRequest{
		Invoice:  sampleInvoice(),
		Template: &invoicing.Template{HTMLContent: "<tbody>{{line_items}}</tbody>{{total_amount}}"},
	})
	require.NoError(t, err)
	assert.Equal(t, "<tbody></tbody>0.00", out)
}

func TestEngine_MonetaryRounding(t *testing.T) {
	engine := rendering.NewEngine()
	out, err := engine.Substitute(&rendering.RenderRequest{
		Invoice: sampleInvoice(),
		LineItems: []invoicing.LineItem{{
			Description: "Afgerond",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.RequireFromString("19.999"),
		}},
		Template: &invoicing.Template{HTMLContent: "{{line_items}}|{{subtotal}}"},
	})
	require.NoError(t, err)

	assert.Contains(t, out, "€ 20.00</td>")
	assert.True(t, strings.HasSuffix(out, "|20.00"))
	assert.NotContains(t, out, "19.999")
}

var lineTotalCell = regexp.MustCompile(`<td class="num line-total">€ ([0-9.]+)</td>`)

func TestEngine_PrintedRowsAddUpToSubtotal(t *testing.T) {
	item := invoicing.LineItem{
		Description: "Kleinverbruik",
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   decimal.RequireFromString("0.005"),
		TaxRate:     decimal.NewFromInt(21),
	}
	engine := rendering.NewEngine()
	out, err := engine.Substitute(&rendering.RenderRequest{
		Invoice:   sampleInvoice(),
		LineItems: []invoicing.LineItem{item, item, item},
		Template:  &invoicing.Template{HTMLContent: "{{line_items}}|{{subtotal}}|{{vat_amount}}|{{total_amount}}"},
	})
	require.NoError(t, err)

	cells := lineTotalCell.FindAllStringSubmatch(out, -1)
	require.Len(t, cells, 3)
	rows := decimal.Zero
	for _, cell := range cells {
		rows = rows.Add(decimal.RequireFromString(cell[1]))
	}

	parts := strings.Split(out, "|")
	require.Len(t, parts, 4)
	assert.Equal(t, rows.StringFixed(2), parts[1])
	assert.Equal(t, "0.03", parts[1])
	assert.Equal(t, "0.01", parts[2])
	assert.Equal(t, "0.04", parts[3])
}

func TestEngine_DefaultTemplateUsesConfiguredCurrency(t *testing.T) {
	f := rendering.DefaultFormatter()
	f.CurrencySymbol = "$"
	engine := rendering.NewEngine(rendering.WithFormatter(f))

	out, err := engine.Substitute(&rendering.RenderRequest{
		Invoice:   sampleInvoice(),
		LineItems: sampleLineItems(),
		Company:   sampleCompany(),
	})
	require.NoError(t, err)

	assert.NotContains(t, out, "€")
	assert.Contains(t, out, "$225.00")
	assert.Contains(t, out, "$47.25")
	assert.Contains(t, out, `<td class="num total-amount">$272.25</td>`)
	assert.Contains(t, out, `<td class="num line-total">$200.00</td>`)
}

func TestEngine_MissingOptionalFieldsSubstituteEmpty(t *testing.T) {
	engine := rendering.NewEngine()
	inv := sampleInvoice()
	inv.Notes = ""
	inv.Client.Address = ""

	out, err := engine.Substitute(&rendering.RenderRequest{
		Invoice:  inv,
		Template: &invoicing.Template{HTMLContent: "[{{notes}}][{{customer_address}}][{{company_phone}}][{{company_logo}}]"},
	})
	require.NoError(t, err)
	assert.Equal(t, "[][][][]", out)
}

func TestEngine_EscapesValues(t *testing.T) {
	engine := rendering.NewEngine()
	inv := sampleInvoice()
	inv.Client.Name = `<script>alert("x")</script> & Zn`

	out, err := engine.Substitute(&rendering.RenderRequest{
		Invoice:  inv,
		Template: &invoicing.Template{HTMLContent: "{{customer_name}}"},
	})
	require.NoError(t, err)
	assert.Equal(t, "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt; &amp; Zn", out)
}

func TestEngine_ValuesAreNotResubstituted(t *testing.T) {
	engine := rendering.NewEngine()
	inv := sampleInvoice()
	inv.Notes = "see {{invoice_number}}"

	out, err := engine.Substitute(&rendering.RenderRequest{
		Invoice:  inv,
		Template: &invoicing.Template{HTMLContent: "{{notes}}"},
	})
	require.NoError(t, err)
	assert.Equal(t, "see {{invoice_number}}", out)
}

func TestEngine_VATPercentageFallsBackToLineRate(t *testing.T) {
	engine := rendering.NewEngine()
	inv := sampleInvoice()
	inv.TaxRate = decimal.Zero
	items := []invoicing.LineItem{{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10), TaxRate: decimal.NewFromInt(9)}}

	values := engine.Values(&rendering.RenderRequest{Invoice: inv, LineItems: items})
	assert.Equal(t, "9", values[rendering.TokenVATPercentage])
}

func TestEngine_RejectsMissingRequest(t *testing.T) {
	engine := rendering.NewEngine()

	_, err := engine.Substitute(nil)
	require.Error(t, err)

	_, err = engine.Substitute(&rendering.RenderRequest{})
	var renderErr *rendering.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, rendering.ErrCodeInvalidRequest, renderErr.Code)
}
