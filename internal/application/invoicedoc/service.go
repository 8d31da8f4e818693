package invoicedoc

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/factuurdesk/backend/internal/domain/invoicing"
	"github.com/factuurdesk/backend/internal/domain/shared"
	"github.com/factuurdesk/backend/internal/infrastructure/logger"
	"github.com/factuurdesk/backend/internal/infrastructure/rendering"
	"github.com/factuurdesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Metric paths
const (
	PathDownload   = "download"
	PathAttachment = "attachment"
)

// InvoiceSource loads invoice headers
type InvoiceSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*invoicing.InvoiceRecord, error)
}

// Renderer produces a download quality document
type Renderer interface {
	Download(ctx context.Context, req *rendering.RenderRequest) (*rendering.Document, error)
}

// Service produces the downloadable and attachable PDF of an invoice
type Service struct {
	invoices InvoiceSource
	loader   *Loader
	renderer Renderer
	archive  rendering.DocumentSink
	metrics  *telemetry.RenderMetrics
	logger   *zap.Logger
}

// Option configures the service
type Option func(*Service)

// WithArchive stores a copy of every downloaded document in sink
func WithArchive(sink rendering.DocumentSink) Option {
	return func(s *Service) {
		s.archive = sink
	}
}

// WithMetrics records render outcomes
func WithMetrics(m *telemetry.RenderMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a new Service
func NewService(invoices InvoiceSource, loader *Loader, renderer Renderer, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		invoices: invoices,
		loader:   loader,
		renderer: renderer,
		logger:   log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Download renders the invoice as a PDF attachment named after its number.
func (s *Service) Download(ctx context.Context, invoiceID uuid.UUID) (*DownloadResult, error) {
	start := time.Now()
	inv, doc, err := s.render(ctx, invoiceID)
	if err != nil {
		s.metrics.RecordRender(ctx, PathDownload, outcomeOf(err), time.Since(start), 0)
		return nil, err
	}
	s.metrics.RecordRender(ctx, PathDownload, "ok", time.Since(start), doc.Size())

	result := &DownloadResult{
		Filename: Filename(invoicing.DocumentKindInvoice, inv.Number),
		Document: doc,
	}

	if s.archive != nil {
		stored, err := doc.Save(ctx, s.archive, inv.OrganizationID, result.Filename)
		if err != nil {
			// Archiving never fails the download.
			logger.Enrich(ctx, s.logger).Warn("failed to archive invoice document",
				zap.String("invoice_id", inv.ID.String()),
				zap.Error(err))
		} else {
			result.ArchivePath = stored.Path
		}
	}

	return result, nil
}

// Attachment renders the invoice for another module, such as mail, as an
// in-memory blob.
func (s *Service) Attachment(ctx context.Context, invoiceID uuid.UUID) (*AttachmentResponse, error) {
	start := time.Now()
	inv, doc, err := s.render(ctx, invoiceID)
	if err != nil {
		s.metrics.RecordRender(ctx, PathAttachment, outcomeOf(err), time.Since(start), 0)
		return nil, err
	}
	s.metrics.RecordRender(ctx, PathAttachment, "ok", time.Since(start), doc.Size())

	return &AttachmentResponse{
		Filename:    Filename(invoicing.DocumentKindInvoice, inv.Number),
		ContentType: rendering.ContentTypePDF,
		Size:        doc.Size(),
		Data:        base64.StdEncoding.EncodeToString(doc.Bytes()),
	}, nil
}

func (s *Service) render(ctx context.Context, invoiceID uuid.UUID) (*invoicing.InvoiceRecord, *rendering.Document, error) {
	inv, err := LoadInvoice(ctx, s.invoices, invoiceID)
	if err != nil {
		return nil, nil, err
	}

	req, err := s.loader.Load(ctx, inv)
	if err != nil {
		return nil, nil, err
	}

	doc, err := s.renderer.Download(ctx, req)
	if err != nil {
		logger.Enrich(ctx, s.logger).Error("invoice document render failed",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("invoice_number", inv.Number),
			zap.Error(err))
		return nil, nil, err
	}

	logger.Enrich(ctx, s.logger).Info("invoice document rendered",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", inv.Number),
		zap.String("status", inv.Status.String()),
		zap.Int("bytes", doc.Size()))
	return inv, doc, nil
}

// LoadInvoice fetches an invoice, mapping absence to a NOT_FOUND domain error.
func LoadInvoice(ctx context.Context, invoices InvoiceSource, invoiceID uuid.UUID) (*invoicing.InvoiceRecord, error) {
	inv, err := invoices.FindByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Invoice not found")
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return inv, nil
}

// Filename returns the download name of a document, e.g. factuur-2025-185.pdf.
// Characters that are unsafe in file names are replaced by '-'.
func Filename(kind invoicing.DocumentKind, number string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '-'
		}
	}, strings.TrimSpace(number))
	return kind.FilePrefix() + "-" + safe + ".pdf"
}

// outcomeOf labels a failed render for metrics
func outcomeOf(err error) string {
	var re *rendering.RenderError
	if errors.As(err, &re) {
		return strings.ToLower(re.Code)
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return strings.ToLower(de.Code)
	}
	return "error"
}
