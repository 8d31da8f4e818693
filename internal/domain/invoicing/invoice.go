package invoicing

import (
	"strings"
	"time"

	"github.com/factuurdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Client holds the billed party's identity as captured on the invoice
type Client struct {
	Name       string
	Email      string
	Address    string
	PostalCode string
	City       string
	Country    string
}

// InvoiceRecord is one billable document. The rendering pipeline treats it
// as read-only input.
type InvoiceRecord struct {
	shared.OrganizationEntity
	Number       string
	IssueDate    time.Time
	DueDate      time.Time
	PaymentTerms int // days
	Client       Client
	Subject      string
	Notes        string
	Subtotal     decimal.Decimal
	TaxAmount    decimal.Decimal
	Total        decimal.Decimal
	TaxRate      decimal.Decimal // percentage, e.g. 21
	Status       Status
}

// NewInvoiceRecord creates a draft invoice
func NewInvoiceRecord(organizationID uuid.UUID, number string, issueDate time.Time, paymentTerms int, client Client) (*InvoiceRecord, error) {
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if paymentTerms < 0 {
		return nil, shared.NewDomainError("INVALID_PAYMENT_TERMS", "Payment terms cannot be negative")
	}
	if strings.TrimSpace(client.Name) == "" {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client name cannot be empty")
	}

	return &InvoiceRecord{
		OrganizationEntity: shared.NewOrganizationEntity(organizationID),
		Number:             strings.TrimSpace(number),
		IssueDate:          issueDate,
		DueDate:            issueDate.AddDate(0, 0, paymentTerms),
		PaymentTerms:       paymentTerms,
		Client:             client,
		Status:             StatusDraft,
	}, nil
}

// ApplyTotals stores the aggregates computed from the invoice's line items
func (r *InvoiceRecord) ApplyTotals(t Totals) {
	r.Subtotal = t.Subtotal
	r.TaxAmount = t.TaxAmount
	r.Total = t.Total
	r.UpdatedAt = time.Now()
}

// TransitionTo moves the invoice to the target status
func (r *InvoiceRecord) TransitionTo(target Status) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Invalid invoice status: "+string(target))
	}
	if !r.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			"Cannot move invoice from "+r.Status.String()+" to "+target.String())
	}
	r.Status = target
	r.UpdatedAt = time.Now()
	return nil
}

// IsOverdueAt reports whether a sent invoice is past its due date at the given time
func (r *InvoiceRecord) IsOverdueAt(now time.Time) bool {
	return r.Status == StatusSent && !r.DueDate.IsZero() && now.After(r.DueDate)
}
