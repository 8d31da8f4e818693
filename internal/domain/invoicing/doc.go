// Package invoicing contains the invoice aggregate, its line items, the
// document templates used to render it, and the issuer's company profile.
package invoicing
