package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/factuurdesk/backend/internal/application/preview"
	"github.com/factuurdesk/backend/internal/domain/shared"
	"github.com/factuurdesk/backend/internal/infrastructure/rendering"
	"github.com/factuurdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMissing []string
	}{
		{
			name:       "domain not found",
			err:        shared.NewDomainError("NOT_FOUND", "Invoice not found"),
			wantStatus: http.StatusNotFound,
			wantCode:   dto.ErrCodeNotFound,
		},
		{
			name:       "wrapped domain error",
			err:        fmt.Errorf("loading: %w", shared.NewDomainError("INVALID_STATUS", "bad status")),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   dto.ErrCodeInvalidState,
		},
		{
			name:        "data unavailable lists missing inputs",
			err:         rendering.NewDataUnavailableError([]string{"line_items", "company"}, errors.New("timeout")),
			wantStatus:  http.StatusServiceUnavailable,
			wantCode:    dto.ErrCodeDataUnavailable,
			wantMissing: []string{"line_items", "company"},
		},
		{
			name:        "data unavailable wrapping a domain error",
			err:         rendering.NewDataUnavailableError([]string{"line_items"}, fmt.Errorf("line items: %w", shared.ErrNotFound)),
			wantStatus:  http.StatusServiceUnavailable,
			wantCode:    dto.ErrCodeDataUnavailable,
			wantMissing: []string{"line_items"},
		},
		{
			name:       "shutting down",
			err:        preview.ErrNegotiatorClosed,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   dto.ErrCodeShuttingDown,
		},
		{
			name:       "capture failure",
			err:        rendering.NewEmptyCaptureError(10, 1000),
			wantStatus: http.StatusBadGateway,
			wantCode:   dto.ErrCodeRenderFailed,
		},
		{
			name:       "staging failure",
			err:        rendering.NewStagingError("layout failed", nil),
			wantStatus: http.StatusBadGateway,
			wantCode:   dto.ErrCodeRenderFailed,
		},
		{
			name:       "deadline",
			err:        fmt.Errorf("render: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   dto.ErrCodeRenderFailed,
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   dto.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			engine := newEngine(func(api *gin.RouterGroup) {
				api.GET("/fail", func(c *gin.Context) { h.HandleError(c, tt.err) })
			})

			w := do(engine, http.MethodGet, "/api/v1/fail")
			assert.Equal(t, tt.wantStatus, w.Code)

			resp := decode(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)
			assert.Equal(t, tt.wantMissing, resp.Error.Missing)
		})
	}
}

func TestBaseHandler_HandleErrorNil(t *testing.T) {
	h := &BaseHandler{}
	engine := newEngine(func(api *gin.RouterGroup) {
		api.GET("/ok", func(c *gin.Context) {
			h.HandleError(c, nil)
			c.Status(http.StatusTeapot)
		})
	})
	assert.Equal(t, http.StatusTeapot, do(engine, http.MethodGet, "/api/v1/ok").Code)
}

func TestBaseHandler_UUIDParam(t *testing.T) {
	h := &BaseHandler{}
	engine := newEngine(func(api *gin.RouterGroup) {
		api.GET("/things/:id", func(c *gin.Context) {
			if id, ok := h.uuidParam(c, "id", "thing ID"); ok {
				c.String(http.StatusOK, id.String())
			}
		})
	})

	w := do(engine, http.MethodGet, "/api/v1/things/nope")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid thing ID format", decode(t, w).Error.Message)

	w = do(engine, http.MethodGet, "/api/v1/things/6f1c1d8e-9a55-4c3b-8f3e-0a6b4b1f2c11")
	assert.Equal(t, http.StatusOK, w.Code)
}
