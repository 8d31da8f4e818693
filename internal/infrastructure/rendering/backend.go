package rendering

import "context"

// Reference page dimensions: one A4 page at 96 DPI, in CSS pixels. Layout,
// capture and assembly all measure against this canvas.
const (
	ReferenceWidth  = 794
	ReferenceHeight = 1123
)

// Raster multipliers for the two output paths
const (
	DownloadScale = 2.0
	PreviewScale  = 1.5
)

// LaidOutHandle is a staged, laid-out document fragment held by a backend.
// Release removes the fragment from the host document. It must be safe to
// call more than once.
type LaidOutHandle interface {
	ID() string
	Release(ctx context.Context) error
}

// LayoutEngine stages resolved HTML at a fixed width and lays it out
type LayoutEngine interface {
	Layout(ctx context.Context, html string, width int) (LaidOutHandle, error)
}

// Rasterizer captures one reference page of a laid-out fragment as PNG
type Rasterizer interface {
	Capture(ctx context.Context, handle LaidOutHandle, scale float64) (*Bitmap, error)
}

// Backend is a layout engine that can also rasterize what it lays out
type Backend interface {
	LayoutEngine
	Rasterizer
}

// Bitmap is an encoded PNG of one reference page
type Bitmap struct {
	Data []byte
	// Width and Height are in device pixels
	Width  int
	Height int
	Scale  float64
}

// Size returns the encoded size in bytes
func (b *Bitmap) Size() int {
	if b == nil {
		return 0
	}
	return len(b.Data)
}

// DataURI returns the bitmap as an inline PNG data URI
func (b *Bitmap) DataURI() string {
	return dataURI("image/png", b.Data)
}
