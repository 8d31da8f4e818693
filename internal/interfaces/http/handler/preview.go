package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/factuurdesk/backend/internal/application/preview"
	"github.com/factuurdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DefaultMaxPreviewWait caps the ?wait= long poll
const DefaultMaxPreviewWait = 30 * time.Second

// PreviewService manages preview sessions
type PreviewService interface {
	Start(ctx context.Context, invoiceID uuid.UUID) (*preview.Session, error)
	Get(id uuid.UUID) (*preview.Session, error)
	Retry(ctx context.Context, id uuid.UUID) (*preview.Session, error)
	CloseSession(id uuid.UUID) error
}

// PreviewHandler exposes preview sessions. Rendering continues after the
// request that started it; clients poll the session, optionally long
// polling with ?wait=<duration> until the attempt settles.
type PreviewHandler struct {
	BaseHandler
	previews     PreviewService
	locationBase string
	maxWait      time.Duration
}

// PreviewHandlerOption configures a PreviewHandler
type PreviewHandlerOption func(*PreviewHandler)

// WithMaxWait overrides DefaultMaxPreviewWait
func WithMaxWait(d time.Duration) PreviewHandlerOption {
	return func(h *PreviewHandler) {
		if d > 0 {
			h.maxWait = d
		}
	}
}

// NewPreviewHandler creates a PreviewHandler. apiBase is the mount point of
// the API, e.g. /api/v1, and prefixes the Location of new sessions.
func NewPreviewHandler(previews PreviewService, apiBase string, opts ...PreviewHandlerOption) *PreviewHandler {
	h := &PreviewHandler{
		previews:     previews,
		locationBase: strings.TrimSuffix(apiBase, "/") + "/previews/",
		maxWait:      DefaultMaxPreviewWait,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// StartPreview opens a preview session for the invoice.
//
//	POST /invoices/:id/previews
func (h *PreviewHandler) StartPreview(c *gin.Context) {
	invoiceID, ok := h.uuidParam(c, "id", "invoice ID")
	if !ok {
		return
	}
	wait, ok := h.waitParam(c)
	if !ok {
		return
	}

	session, err := h.previews.Start(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Location", h.locationBase+session.ID().String())
	h.respond(c, session, wait, http.StatusAccepted)
}

// GetPreview returns the session state.
//
//	GET /previews/:session_id
func (h *PreviewHandler) GetPreview(c *gin.Context) {
	id, ok := h.uuidParam(c, "session_id", "session ID")
	if !ok {
		return
	}
	wait, ok := h.waitParam(c)
	if !ok {
		return
	}

	session, err := h.previews.Get(id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.respond(c, session, wait, http.StatusOK)
}

// RetryPreview starts a new attempt unless one is already running.
//
//	POST /previews/:session_id/retry
func (h *PreviewHandler) RetryPreview(c *gin.Context) {
	id, ok := h.uuidParam(c, "session_id", "session ID")
	if !ok {
		return
	}
	wait, ok := h.waitParam(c)
	if !ok {
		return
	}

	session, err := h.previews.Retry(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.respond(c, session, wait, http.StatusAccepted)
}

// ClosePreview discards the session.
//
//	DELETE /previews/:session_id
func (h *PreviewHandler) ClosePreview(c *gin.Context) {
	id, ok := h.uuidParam(c, "session_id", "session ID")
	if !ok {
		return
	}
	if err := h.previews.CloseSession(id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// respond sends the session snapshot, first waiting up to wait for the
// running attempt to finish. An idle session answers 200.
func (h *PreviewHandler) respond(c *gin.Context, session *preview.Session, wait time.Duration, pending int) {
	snap := session.Snapshot()
	if wait > 0 && snap.Running {
		ctx, cancel := context.WithTimeout(c.Request.Context(), wait)
		// The attempt's own error is already reflected in the snapshot.
		snap, _ = session.Wait(ctx)
		cancel()
	}

	status := pending
	if !snap.Running {
		status = http.StatusOK
	}
	c.JSON(status, dto.NewSuccessResponse(snap))
}

// waitParam parses ?wait=, clamped to maxWait
func (h *PreviewHandler) waitParam(c *gin.Context) (time.Duration, bool) {
	raw := c.Query("wait")
	if raw == "" {
		return 0, true
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		h.BadRequest(c, "Invalid wait duration")
		return 0, false
	}
	return min(d, h.maxWait), true
}
