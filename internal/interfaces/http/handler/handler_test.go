package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/factuurdesk/backend/internal/application/invoicedoc"
	"github.com/factuurdesk/backend/internal/application/preview"
	"github.com/factuurdesk/backend/internal/domain/invoicing"
	"github.com/factuurdesk/backend/internal/domain/shared"
	"github.com/factuurdesk/backend/internal/infrastructure/rendering"
	"github.com/factuurdesk/backend/internal/infrastructure/rendering/renderingtest"
	"github.com/factuurdesk/backend/internal/interfaces/http/dto"
	"github.com/factuurdesk/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newEngine mounts handlers the way the server does, under /api/v1
func newEngine(register func(api *gin.RouterGroup)) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID())
	register(engine.Group("/api/v1"))
	return engine
}

func do(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func testInvoice() *invoicing.InvoiceRecord {
	return &invoicing.InvoiceRecord{
		OrganizationEntity: shared.NewOrganizationEntity(uuid.New()),
		Number:             "2025-185",
		IssueDate:          time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		DueDate:            time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Client:             invoicing.Client{Name: "Acme BV"},
		TaxRate:            decimal.NewFromInt(21),
		Status:             invoicing.StatusSent,
	}
}

func testDocument(t *testing.T) *rendering.Document {
	t.Helper()
	doc, err := rendering.NewAssembler().Assemble(&rendering.Bitmap{Data: renderingtest.BlankPNG(), Width: 8, Height: 8, Scale: 1})
	require.NoError(t, err)
	return doc
}

type invoiceStore struct {
	invoice *invoicing.InvoiceRecord
}

func (s *invoiceStore) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.InvoiceRecord, error) {
	if s.invoice == nil || s.invoice.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.invoice, nil
}

func (s *invoiceStore) FindLineItems(ctx context.Context, invoiceID uuid.UUID) ([]invoicing.LineItem, error) {
	return []invoicing.LineItem{{
		InvoiceID:   invoiceID,
		Description: "Consult",
		Quantity:    decimal.NewFromInt(2),
		UnitPrice:   decimal.NewFromInt(100),
		TaxRate:     decimal.NewFromInt(21),
		Position:    1,
	}}, nil
}

type noTemplates struct{}

func (noTemplates) FindDefault(ctx context.Context, organizationID uuid.UUID, workspaceID *uuid.UUID, kind invoicing.DocumentKind) (*invoicing.Template, error) {
	return nil, nil
}

// newNegotiator wires a real negotiator over the in-memory backend
func newNegotiator(t *testing.T, inv *invoicing.InvoiceRecord, renderer preview.Renderer) *preview.Negotiator {
	t.Helper()
	store := &invoiceStore{invoice: inv}
	if renderer == nil {
		renderer = rendering.NewPipeline(rendering.NewEngine(), renderingtest.NewBackend(), rendering.NewAssembler(),
			rendering.PipelineConfig{SettleDelay: -1, Logger: zaptest.NewLogger(t)})
	}
	company := invoicedoc.StaticCompany{Profile: invoicing.CompanyProfile{Name: "Factuurdesk BV"}}
	loader := invoicedoc.NewLoader(store, noTemplates{}, company, time.Second, zaptest.NewLogger(t))
	n := preview.NewNegotiator(store, loader, renderer, preview.Config{}, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = n.Close() })
	return n
}
