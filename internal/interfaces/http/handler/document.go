package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/factuurdesk/backend/internal/application/invoicedoc"
	"github.com/factuurdesk/backend/internal/infrastructure/rendering"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DocumentService renders invoices for download and as attachments
type DocumentService interface {
	Download(ctx context.Context, invoiceID uuid.UUID) (*invoicedoc.DownloadResult, error)
	Attachment(ctx context.Context, invoiceID uuid.UUID) (*invoicedoc.AttachmentResponse, error)
}

// DocumentHandler serves rendered invoice PDFs
type DocumentHandler struct {
	BaseHandler
	documents DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documents DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// DownloadPDF renders the invoice and sends it as a file download.
//
//	GET /invoices/:id/pdf
func (h *DocumentHandler) DownloadPDF(c *gin.Context) {
	invoiceID, ok := h.uuidParam(c, "id", "invoice ID")
	if !ok {
		return
	}

	result, err := h.documents.Download(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.Filename))
	c.Header("Content-Length", strconv.Itoa(result.Document.Size()))
	c.Data(http.StatusOK, rendering.ContentTypePDF, result.Document.Bytes())
}

// Attachment renders the invoice and returns it base64 encoded, for
// modules such as mail that attach the PDF themselves.
//
//	GET /invoices/:id/attachment
func (h *DocumentHandler) Attachment(c *gin.Context) {
	invoiceID, ok := h.uuidParam(c, "id", "invoice ID")
	if !ok {
		return
	}

	attachment, err := h.documents.Attachment(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, attachment)
}
