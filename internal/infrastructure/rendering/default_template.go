package rendering

import _ "embed"

//go:embed templates/invoice_default.html
var defaultInvoiceTemplate string

// DefaultInvoiceTemplate returns the built-in one-page invoice layout. It
// references every token in the vocabulary and is the value the host wires
// into the engine with WithDefaultTemplate at startup.
func DefaultInvoiceTemplate() string {
	return defaultInvoiceTemplate
}
