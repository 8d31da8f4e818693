package rendering

import (
	"context"
	"time"

	"github.com/factuurdesk/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// PipelineConfig tunes the layout, capture and output stages
type PipelineConfig struct {
	// SettleDelay is the wait after staging; zero selects DefaultSettleDelay
	SettleDelay time.Duration
	// MinCaptureBytes rejects implausibly small captures
	MinCaptureBytes int
	// DownloadScale and PreviewScale are the raster multipliers per output path
	DownloadScale float64
	PreviewScale  float64
	Logger        *zap.Logger
}

// Pipeline runs substitution, layout, capture and assembly for one request.
// Stages run strictly in sequence. Each call is self-contained, so
// concurrent calls need no coordination beyond what the backend does.
type Pipeline struct {
	engine        *Engine
	layout        *LayoutStage
	capture       *CaptureStage
	assembler     *Assembler
	downloadScale float64
	previewScale  float64
	logger        *zap.Logger
}

// NewPipeline wires the stages around a layout backend
func NewPipeline(engine *Engine, backend Backend, assembler *Assembler, cfg PipelineConfig) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DownloadScale <= 0 {
		cfg.DownloadScale = DownloadScale
	}
	if cfg.PreviewScale <= 0 {
		cfg.PreviewScale = PreviewScale
	}
	return &Pipeline{
		engine:        engine,
		layout:        NewLayoutStage(backend, cfg.SettleDelay, logger),
		capture:       NewCaptureStage(backend, cfg.MinCaptureBytes, logger),
		assembler:     assembler,
		downloadScale: cfg.DownloadScale,
		previewScale:  cfg.PreviewScale,
		logger:        logger,
	}
}

// Download renders at the download scale
func (p *Pipeline) Download(ctx context.Context, req *RenderRequest) (*Document, error) {
	return p.Render(ctx, req, p.downloadScale)
}

// Preview renders at the faster preview scale
func (p *Pipeline) Preview(ctx context.Context, req *RenderRequest) (*Document, error) {
	return p.Render(ctx, req, p.previewScale)
}

// Render produces a one-page document. It returns either a complete
// document or a typed error; never both and never neither.
func (p *Pipeline) Render(ctx context.Context, req *RenderRequest, scale float64) (*Document, error) {
	ctx, span := telemetry.StartSpan(ctx, "rendering.render", telemetry.AttrScale.Float64(scale))
	defer span.End()
	start := time.Now()

	if req != nil && req.Invoice != nil {
		span.SetAttributes(telemetry.InvoiceAttributes(
			req.Invoice.ID, req.Invoice.Number, req.Invoice.Status.String(), len(req.LineItems))...)
	}

	html, err := p.engine.Substitute(req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.AddEvent(span, "substituted", attribute.Int("html_bytes", len(html)))

	var bitmap *Bitmap
	err = p.layout.WithStaged(ctx, html, func(handle LaidOutHandle) error {
		var captureErr error
		bitmap, captureErr = p.capture.Capture(ctx, handle, scale)
		return captureErr
	})
	if err != nil {
		telemetry.RecordError(span, err)
		p.logger.Warn("document render failed", zap.Error(err))
		return nil, err
	}
	telemetry.AddEvent(span, "captured", attribute.Int("png_bytes", bitmap.Size()))

	doc, err := p.assembler.Assemble(bitmap)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	p.logger.Debug("document rendered",
		zap.String("invoice_number", req.Invoice.Number),
		zap.Float64("scale", scale),
		zap.Int("pdf_bytes", doc.Size()),
		zap.Duration("duration", time.Since(start)))
	return doc, nil
}
