package rendering

// Placeholder tokens recognized in template HTML. Each is written in a
// template as {{name}}.
const (
	TokenCompanyName       = "company_name"
	TokenCompanyAddress    = "company_address"
	TokenCompanyPostalCode = "company_postal_code"
	TokenCompanyCity       = "company_city"
	TokenCompanyPhone      = "company_phone"
	TokenCompanyEmail      = "company_email"
	TokenCompanyKVK        = "company_kvk"
	TokenCompanyBTW        = "company_btw"
	TokenCompanyIBAN       = "company_iban"
	TokenCompanyBIC        = "company_bic"
	TokenCompanyLogo       = "company_logo"

	TokenInvoiceNumber  = "invoice_number"
	TokenInvoiceDate    = "invoice_date"
	TokenDueDate        = "due_date"
	TokenInvoiceSubject = "invoice_subject"
	TokenNotes          = "notes"

	TokenCustomerName       = "customer_name"
	TokenCustomerAddress    = "customer_address"
	TokenCustomerPostalCode = "customer_postal_code"
	TokenCustomerCity       = "customer_city"

	TokenLineItems     = "line_items"
	TokenSubtotal      = "subtotal"
	TokenVATPercentage = "vat_percentage"
	TokenVATAmount     = "vat_amount"
	TokenTotalAmount   = "total_amount"
	TokenPaymentTerms  = "payment_terms"

	// TokenCurrencySymbol is the symbol generated line rows carry, for
	// templates that print the bare totals
	TokenCurrencySymbol = "currency_symbol"
)

// Tokens lists the complete vocabulary in a stable order
var Tokens = []string{
	TokenCompanyName,
	TokenCompanyAddress,
	TokenCompanyPostalCode,
	TokenCompanyCity,
	TokenCompanyPhone,
	TokenCompanyEmail,
	TokenCompanyKVK,
	TokenCompanyBTW,
	TokenCompanyIBAN,
	TokenCompanyBIC,
	TokenCompanyLogo,
	TokenInvoiceNumber,
	TokenInvoiceDate,
	TokenDueDate,
	TokenCustomerName,
	TokenCustomerAddress,
	TokenCustomerPostalCode,
	TokenCustomerCity,
	TokenInvoiceSubject,
	TokenNotes,
	TokenLineItems,
	TokenSubtotal,
	TokenVATPercentage,
	TokenVATAmount,
	TokenTotalAmount,
	TokenPaymentTerms,
	TokenCurrencySymbol,
}

// Placeholder returns the literal form of a token as it appears in a template
func Placeholder(token string) string {
	return "{{" + token + "}}"
}
