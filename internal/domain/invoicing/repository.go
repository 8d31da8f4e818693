package invoicing

import (
	"context"

	"github.com/google/uuid"
)

// InvoiceRepository reads invoices and their line items
type InvoiceRepository interface {
	// FindByID returns the invoice or shared.ErrNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*InvoiceRecord, error)
	// FindLineItems returns the invoice's line items ordered by sort position
	FindLineItems(ctx context.Context, invoiceID uuid.UUID) ([]LineItem, error)
}

// TemplateRepository reads document templates
type TemplateRepository interface {
	// FindDefault returns the organization's default template for a kind,
	// preferring one scoped to the workspace. It returns (nil, nil) when
	// none is configured.
	FindDefault(ctx context.Context, organizationID uuid.UUID, workspaceID *uuid.UUID, kind DocumentKind) (*Template, error)
}

// CompanyDirectory supplies the issuing company's letterhead data
type CompanyDirectory interface {
	CompanyProfile(ctx context.Context, organizationID uuid.UUID) (CompanyProfile, error)
}
