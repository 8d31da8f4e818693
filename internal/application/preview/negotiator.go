package preview

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/factuurdesk/backend/internal/application/invoicedoc"
	"github.com/factuurdesk/backend/internal/domain/invoicing"
	"github.com/factuurdesk/backend/internal/domain/shared"
	"github.com/factuurdesk/backend/internal/infrastructure/logger"
	"github.com/factuurdesk/backend/internal/infrastructure/rendering"
	"github.com/factuurdesk/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Defaults for Config
const (
	DefaultInlineSizeLimit = 2 << 20
	DefaultSessionTTL      = 15 * time.Minute
	DefaultRunTimeout      = time.Minute
)

// PathPreview labels preview renders in metrics
const PathPreview = "preview"

// ErrSessionNotFound is returned for unknown or expired sessions
var ErrSessionNotFound = shared.NewDomainError("NOT_FOUND", "Preview session not found")

// ErrNegotiatorClosed is returned for work submitted after Close
var ErrNegotiatorClosed = shared.NewDomainError("SHUTTING_DOWN", "Preview service is shutting down")

// Renderer produces a preview quality document
type Renderer interface {
	Preview(ctx context.Context, req *rendering.RenderRequest) (*rendering.Document, error)
}

// InputLoader resolves everything a render needs besides the invoice
type InputLoader interface {
	Load(ctx context.Context, inv *invoicing.InvoiceRecord) (*rendering.RenderRequest, error)
}

// Config tunes the negotiator
type Config struct {
	// InlineSizeLimit is the largest PDF shown inline; larger documents
	// degrade to the page image
	InlineSizeLimit int
	// SessionTTL expires sessions that were not accessed for this long
	SessionTTL time.Duration
	// RunTimeout bounds one attempt, loaders included
	RunTimeout time.Duration
	// Formatter formats the text summary
	Formatter rendering.Formatter
}

// Negotiator drives preview sessions: it gathers inputs, renders at preview
// scale and picks the richest representation that fits inline, falling back
// to an image and finally to a text summary.
type Negotiator struct {
	invoices invoicedoc.InvoiceSource
	inputs   InputLoader
	renderer Renderer
	cfg      Config
	metrics  *telemetry.RenderMetrics
	logger   *zap.Logger
	now      func() time.Time

	mu        sync.RWMutex
	sessions  map[uuid.UUID]*Session
	closed    bool
	runs      sync.WaitGroup
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Option configures the negotiator
type Option func(*Negotiator)

// WithMetrics records preview outcomes
func WithMetrics(m *telemetry.RenderMetrics) Option {
	return func(n *Negotiator) {
		n.metrics = m
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(n *Negotiator) {
		n.now = now
	}
}

// NewNegotiator creates a negotiator and starts its session janitor
func NewNegotiator(invoices invoicedoc.InvoiceSource, inputs InputLoader, renderer Renderer, cfg Config, log *zap.Logger, opts ...Option) *Negotiator {
	if cfg.InlineSizeLimit <= 0 {
		cfg.InlineSizeLimit = DefaultInlineSizeLimit
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = DefaultRunTimeout
	}
	if cfg.Formatter.DateLayout == "" {
		cfg.Formatter = rendering.DefaultFormatter()
	}
	if log == nil {
		log = zap.NewNop()
	}

	n := &Negotiator{
		invoices: invoices,
		inputs:   inputs,
		renderer: renderer,
		cfg:      cfg,
		logger:   log.Named("preview"),
		now:      time.Now,
		sessions: make(map[uuid.UUID]*Session),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}

	n.wg.Add(1)
	go n.cleanupLoop()
	return n
}

// Start opens a session for the invoice and begins the first attempt in the
// background. It fails only when the invoice itself cannot be found.
func (n *Negotiator) Start(ctx context.Context, invoiceID uuid.UUID) (*Session, error) {
	inv, err := invoicedoc.LoadInvoice(ctx, n.invoices, invoiceID)
	if err != nil {
		return nil, err
	}

	s := newSession(inv, n.now())
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil, ErrNegotiatorClosed
	}
	n.sessions[s.id] = s
	n.mu.Unlock()

	logger.Enrich(ctx, n.logger).Info("preview session started",
		zap.String("session_id", s.id.String()),
		zap.String("invoice_id", inv.ID.String()))

	if err := n.launch(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns a live session
func (n *Negotiator) Get(id uuid.UUID) (*Session, error) {
	n.mu.RLock()
	s, ok := n.sessions[id]
	n.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch(n.now())
	return s, nil
}

// Retry restarts the session from AwaitingData. Retrying while an attempt
// is running does nothing, so repeated retries start a single attempt.
func (n *Negotiator) Retry(ctx context.Context, id uuid.UUID) (*Session, error) {
	s, err := n.Get(id)
	if err != nil {
		return nil, err
	}
	if err := n.launch(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// CloseSession closes and forgets a session. A running attempt completes
// but its result is discarded.
func (n *Negotiator) CloseSession(id uuid.UUID) error {
	n.mu.Lock()
	s, ok := n.sessions[id]
	delete(n.sessions, id)
	n.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.close()
	n.logger.Info("preview session closed", zap.String("session_id", id.String()))
	return nil
}

// Len returns the number of live sessions
func (n *Negotiator) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.sessions)
}

// Close rejects new work, stops the janitor, closes every session and waits
// for running attempts to finish. Safe to call multiple times.
func (n *Negotiator) Close() error {
	n.closeOnce.Do(func() {
		n.mu.Lock()
		n.closed = true
		n.mu.Unlock()

		close(n.stopChan)
		n.wg.Wait()

		n.mu.Lock()
		for id, s := range n.sessions {
			s.close()
			delete(n.sessions, id)
		}
		n.mu.Unlock()
		n.runs.Wait()
	})
	return nil
}

// launch starts an attempt unless one is already running. Runs are counted
// under mu so Close never waits on a group that is still growing.
func (n *Negotiator) launch(ctx context.Context, s *Session) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return ErrNegotiatorClosed
	}
	n.runs.Add(1)
	n.mu.Unlock()

	attempt, ok := s.begin(n.now())
	if !ok {
		n.runs.Done()
		return nil
	}
	// The attempt outlives the request that triggered it.
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.cfg.RunTimeout)
	go func() {
		defer n.runs.Done()
		defer cancel()
		n.run(runCtx, s, attempt)
	}()
	return nil
}

func (n *Negotiator) run(ctx context.Context, s *Session, attempt int) {
	ctx, span := telemetry.StartSpan(ctx, "preview.run",
		telemetry.AttrSessionID.String(s.id.String()),
		telemetry.AttrInvoiceID.String(s.invoice.ID.String()),
		telemetry.AttrAttempt.Int(attempt))
	defer span.End()

	log := logger.Enrich(ctx, n.logger).With(
		zap.String("session_id", s.id.String()),
		zap.Int("attempt", attempt))
	start := time.Now()

	req, err := n.inputs.Load(ctx, s.invoice)
	if err != nil {
		var unavailable *rendering.DataUnavailableError
		if !errors.As(err, &unavailable) {
			unavailable = rendering.NewDataUnavailableError(nil, err)
			err = unavailable
		}
		s.update(attempt, n.now(), func(s *Session) {
			s.inputErr = &InputError{
				Code:    unavailable.Code,
				Message: unavailable.Error(),
				Missing: unavailable.Missing,
			}
		})
		telemetry.RecordError(span, err)
		span.SetAttributes(telemetry.AttrPreviewState.String(string(StateAwaitingData)))
		n.metrics.RecordRender(ctx, PathPreview, "data_unavailable", time.Since(start), 0)
		log.Warn("preview inputs unavailable", zap.Strings("missing", unavailable.Missing), zap.Error(err))
		s.finish(attempt, err)
		return
	}

	n.transition(s, attempt, log, func(s *Session) { s.state = StateRendering })

	doc, err := n.renderer.Preview(ctx, req)
	var state State
	switch {
	case err != nil:
		summary := n.summarize(req, err)
		state = n.transition(s, attempt, log, func(s *Session) {
			s.state = StateFailed
			s.summary = summary
		})
		telemetry.RecordError(span, err)
		n.metrics.RecordRender(ctx, PathPreview, string(StateFailed), time.Since(start), 0)
		log.Warn("preview render failed", zap.Error(err))
	case doc.Size() <= n.cfg.InlineSizeLimit:
		uri := doc.DataURI()
		state = n.transition(s, attempt, log, func(s *Session) {
			s.state = StateReady
			s.pdf = uri
		})
		n.metrics.RecordRender(ctx, PathPreview, string(StateReady), time.Since(start), doc.Size())
	default:
		uri := doc.Bitmap().DataURI()
		state = n.transition(s, attempt, log, func(s *Session) {
			s.state = StateDegraded
			s.image = uri
			s.notice = DegradedNotice
		})
		n.metrics.RecordRender(ctx, PathPreview, string(StateDegraded), time.Since(start), doc.Size())
	}

	span.SetAttributes(telemetry.AttrPreviewState.String(string(state)))
	s.finish(attempt, err)
}

// transition applies fn and logs the new state. It returns the state the
// session is in afterwards; for a discarded update that is the empty state.
func (n *Negotiator) transition(s *Session, attempt int, log *zap.Logger, fn func(*Session)) State {
	var state State
	applied := s.update(attempt, n.now(), func(s *Session) {
		fn(s)
		state = s.state
	})
	if !applied {
		log.Debug("preview update discarded")
		return ""
	}
	log.Info("preview state changed", zap.String("state", string(state)))
	return state
}

func (n *Negotiator) summarize(req *rendering.RenderRequest, err error) *Summary {
	f := n.cfg.Formatter
	inv := req.Invoice
	return &Summary{
		InvoiceNumber: inv.Number,
		ClientName:    inv.Client.Name,
		InvoiceDate:   f.Date(inv.IssueDate),
		DueDate:       f.Date(inv.DueDate),
		TotalAmount:   f.Currency(invoicing.ComputeTotals(req.LineItems).Total),
		ErrorMessage:  err.Error(),
	}
}

func (n *Negotiator) cleanupLoop() {
	defer n.wg.Done()

	interval := n.cfg.SessionTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-n.stopChan:
			return
		case <-ticker.C:
			n.Expire()
		}
	}
}

// Expire closes sessions idle for longer than the session TTL and returns
// how many were removed.
func (n *Negotiator) Expire() int {
	cutoff := n.now().Add(-n.cfg.SessionTTL)

	n.mu.Lock()
	var expired []*Session
	for id, s := range n.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(n.sessions, id)
		}
	}
	n.mu.Unlock()

	for _, s := range expired {
		s.close()
	}
	if len(expired) > 0 {
		n.logger.Debug("expired preview sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}
