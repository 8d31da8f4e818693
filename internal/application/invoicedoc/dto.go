package invoicedoc

import "github.com/factuurdesk/backend/internal/infrastructure/rendering"

// DownloadResult is a rendered invoice ready to be sent as a file
type DownloadResult struct {
	Filename string
	Document *rendering.Document
	// ArchivePath is set when an archive copy was stored
	ArchivePath string
}

// AttachmentResponse carries a rendered invoice as base64 for other modules
type AttachmentResponse struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	Data        string `json:"data"`
}
