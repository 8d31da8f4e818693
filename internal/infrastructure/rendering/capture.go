package rendering

import (
	"bytes"
	"context"
	"errors"
	"image/png"

	"go.uber.org/zap"
)

// DefaultMinCaptureBytes is the smallest PNG accepted as a real page. A blank
// 794x1123 canvas encodes well below this.
const DefaultMinCaptureBytes = 1000

// CaptureStage rasterizes a settled fragment and validates the result
type CaptureStage struct {
	rasterizer Rasterizer
	minBytes   int
	logger     *zap.Logger
}

// NewCaptureStage creates a capture stage. minBytes <= 0 selects DefaultMinCaptureBytes.
func NewCaptureStage(rasterizer Rasterizer, minBytes int, logger *zap.Logger) *CaptureStage {
	if minBytes <= 0 {
		minBytes = DefaultMinCaptureBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaptureStage{rasterizer: rasterizer, minBytes: minBytes, logger: logger}
}

// Capture returns a validated PNG bitmap of one reference page at scale
func (s *CaptureStage) Capture(ctx context.Context, handle LaidOutHandle, scale float64) (*Bitmap, error) {
	if scale <= 0 {
		scale = DownloadScale
	}

	bitmap, err := s.rasterizer.Capture(ctx, handle, scale)
	if err != nil {
		var captureErr *CaptureError
		if errors.As(err, &captureErr) {
			return nil, err
		}
		return nil, NewCaptureError("failed to capture document", err)
	}

	size := bitmap.Size()
	if size < s.minBytes {
		return nil, NewEmptyCaptureError(size, s.minBytes)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(bitmap.Data))
	if err != nil {
		return nil, NewCaptureError("captured image is not a valid PNG", err)
	}
	bitmap.Width = cfg.Width
	bitmap.Height = cfg.Height
	bitmap.Scale = scale

	s.logger.Debug("document captured",
		zap.String("handle", handle.ID()),
		zap.Float64("scale", scale),
		zap.Int("bytes", size),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height))
	return bitmap, nil
}
