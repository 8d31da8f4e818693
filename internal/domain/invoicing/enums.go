package invoicing

// Status represents the lifecycle status of an invoice
type Status string

const (
	StatusDraft   Status = "draft"
	StatusSent    Status = "sent"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// IsValid checks if the Status is a valid value
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions are possible
func (s Status) IsTerminal() bool {
	return s == StatusPaid
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusSent
	case StatusSent:
		return target == StatusPaid || target == StatusOverdue
	case StatusOverdue:
		return target == StatusPaid
	case StatusPaid:
		return false
	}
	return false
}

// DocumentKind identifies the document family a template renders
type DocumentKind string

const (
	DocumentKindInvoice DocumentKind = "invoice"
	DocumentKindQuote   DocumentKind = "quote"
)

// IsValid checks if the DocumentKind is a valid value
func (k DocumentKind) IsValid() bool {
	return k == DocumentKindInvoice || k == DocumentKindQuote
}

// FilePrefix returns the file name prefix used for downloads of this kind
func (k DocumentKind) FilePrefix() string {
	switch k {
	case DocumentKindQuote:
		return "offerte"
	default:
		return "factuur"
	}
}
