package invoicedoc

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/factuurdesk/backend/internal/domain/invoicing"
	"github.com/factuurdesk/backend/internal/infrastructure/rendering"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Names of the render inputs, as reported by DataUnavailableError.Missing
const (
	InputLineItems = "line_items"
	InputTemplate  = "template"
	InputCompany   = "company_profile"
)

// DefaultLoadTimeout bounds how long the loaders may take together
const DefaultLoadTimeout = 10 * time.Second

// LineItemSource loads an invoice's line items
type LineItemSource interface {
	FindLineItems(ctx context.Context, invoiceID uuid.UUID) ([]invoicing.LineItem, error)
}

// TemplateSource loads the active template of an organization
type TemplateSource interface {
	FindDefault(ctx context.Context, organizationID uuid.UUID, workspaceID *uuid.UUID, kind invoicing.DocumentKind) (*invoicing.Template, error)
}

// Loader gathers everything a render needs besides the invoice itself. The
// three inputs are fetched concurrently and joined: the request is built
// only once all of them have resolved.
type Loader struct {
	items     LineItemSource
	templates TemplateSource
	companies invoicing.CompanyDirectory
	timeout   time.Duration
	logger    *zap.Logger
}

// NewLoader creates a loader. A non-positive timeout selects DefaultLoadTimeout.
func NewLoader(items LineItemSource, templates TemplateSource, companies invoicing.CompanyDirectory, timeout time.Duration, logger *zap.Logger) *Loader {
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		items:     items,
		templates: templates,
		companies: companies,
		timeout:   timeout,
		logger:    logger,
	}
}

// Load resolves the line items, template and company profile for inv. If
// any of them fails or does not resolve within the timeout, it returns a
// *rendering.DataUnavailableError naming the inputs that are missing.
func (l *Loader) Load(ctx context.Context, inv *invoicing.InvoiceRecord) (*rendering.RenderRequest, error) {
	if inv == nil {
		return nil, rendering.NewRenderError(rendering.ErrCodeInvalidRequest, "invoice is required", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	var (
		items    []invoicing.LineItem
		template *invoicing.Template
		company  invoicing.CompanyProfile

		itemsOK, templateOK, companyOK atomic.Bool
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := l.items.FindLineItems(gctx, inv.ID)
		if err != nil {
			return fmt.Errorf("%s: %w", InputLineItems, err)
		}
		items = v
		itemsOK.Store(true)
		return nil
	})
	g.Go(func() error {
		v, err := l.templates.FindDefault(gctx, inv.OrganizationID, inv.WorkspaceID, invoicing.DocumentKindInvoice)
		if err != nil {
			return fmt.Errorf("%s: %w", InputTemplate, err)
		}
		template = v
		templateOK.Store(true)
		return nil
	})
	g.Go(func() error {
		v, err := l.companies.CompanyProfile(gctx, inv.OrganizationID)
		if err != nil {
			return fmt.Errorf("%s: %w", InputCompany, err)
		}
		company = v
		companyOK.Store(true)
		return nil
	})

	// A loader that ignores cancellation must not hold the caller hostage.
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	if err != nil {
		var missing []string
		for _, in := range []struct {
			name string
			ok   *atomic.Bool
		}{
			{InputLineItems, &itemsOK},
			{InputTemplate, &templateOK},
			{InputCompany, &companyOK},
		} {
			if !in.ok.Load() {
				missing = append(missing, in.name)
			}
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("inputs did not resolve within %s: %w", l.timeout, err)
		}
		l.logger.Warn("render inputs unavailable",
			zap.String("invoice_id", inv.ID.String()),
			zap.Strings("missing", missing),
			zap.Error(err))
		return nil, rendering.NewDataUnavailableError(missing, err)
	}

	return &rendering.RenderRequest{
		Invoice:   inv,
		LineItems: items,
		Template:  template,
		Company:   company,
	}, nil
}

// StaticCompany serves one configured company profile to every organization
type StaticCompany struct {
	Profile invoicing.CompanyProfile
}

// CompanyProfile implements invoicing.CompanyDirectory
func (s StaticCompany) CompanyProfile(ctx context.Context, organizationID uuid.UUID) (invoicing.CompanyProfile, error) {
	return s.Profile, nil
}
