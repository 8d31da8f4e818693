package invoicedoc_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/factuurdesk/backend/internal/domain/invoicing"
	"github.com/factuurdesk/backend/internal/domain/shared"
	"github.com/factuurdesk/backend/internal/infrastructure/rendering"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeInvoices struct {
	invoices map[uuid.UUID]*invoicing.InvoiceRecord
	items    map[uuid.UUID][]invoicing.LineItem
	itemsErr error
	block    chan struct{} // when set, FindLineItems waits on it ignoring ctx
}

func newFakeInvoices() *fakeInvoices {
	return &fakeInvoices{
		invoices: make(map[uuid.UUID]*invoicing.InvoiceRecord),
		items:    make(map[uuid.UUID][]invoicing.LineItem),
	}
}

func (f *fakeInvoices) add(inv *invoicing.InvoiceRecord, items []invoicing.LineItem) {
	f.invoices[inv.ID] = inv
	f.items[inv.ID] = items
}

func (f *fakeInvoices) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.InvoiceRecord, error) {
	inv, ok := f.invoices[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return inv, nil
}

func (f *fakeInvoices) FindLineItems(ctx context.Context, invoiceID uuid.UUID) ([]invoicing.LineItem, error) {
	if f.block != nil {
		<-f.block
	}
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	return f.items[invoiceID], nil
}

type fakeTemplates struct {
	template *invoicing.Template
	err      error
	calls    int
	mu       sync.Mutex
}

func (f *fakeTemplates) FindDefault(ctx context.Context, organizationID uuid.UUID, workspaceID *uuid.UUID, kind invoicing.DocumentKind) (*invoicing.Template, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.template, nil
}

type failingCompany struct{}

func (failingCompany) CompanyProfile(ctx context.Context, organizationID uuid.UUID) (invoicing.CompanyProfile, error) {
	return invoicing.CompanyProfile{}, errors.New("company settings offline")
}

type memorySink struct {
	mu     sync.Mutex
	stored []*rendering.StoreRequest
	err    error
}

func (s *memorySink) Store(ctx context.Context, req *rendering.StoreRequest) (*rendering.StoreResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = append(s.stored, req)
	return &rendering.StoreResult{Path: req.OrganizationID.String() + "/" + req.Filename, Size: int64(len(req.Data))}, nil
}

func sampleInvoice() *invoicing.InvoiceRecord {
	return &invoicing.InvoiceRecord{
		OrganizationEntity: shared.NewOrganizationEntity(uuid.New()),
		Number:             "2025-185",
		IssueDate:          time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		DueDate:            time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		PaymentTerms:       30,
		Client:             invoicing.Client{Name: "Acme BV", City: "Amsterdam"},
		TaxRate:            decimal.NewFromInt(21),
		Status:             invoicing.StatusSent,
	}
}

func sampleLineItems(invoiceID uuid.UUID) []invoicing.LineItem {
	return []invoicing.LineItem{
		{InvoiceID: invoiceID, Description: "Reiskosten", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("25.00"), TaxRate: decimal.NewFromInt(21), Position: 2},
		{InvoiceID: invoiceID, Description: "Consult", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("100.00"), TaxRate: decimal.NewFromInt(21), Position: 1},
	}
}

func sampleCompany() invoicing.CompanyProfile {
	return invoicing.CompanyProfile{Name: "Factuurdesk BV", City: "Utrecht", BankAccount: "NL91ABNA0417164300"}
}
