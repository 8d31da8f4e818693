// Package renderingtest provides an in-memory layout backend for tests.
package renderingtest

import (
	"bytes"
	"context"
	"errors"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"sync"

	"github.com/factuurdesk/backend/internal/infrastructure/rendering"
)

// Backend stages documents in a map and "captures" them as a deterministic
// noise PNG seeded from the staged HTML. Failures can be injected per stage.
type Backend struct {
	mu       sync.Mutex
	seq      int
	staged   map[string]string
	released int

	// LayoutErr makes Layout fail. With LeakOnLayoutError the element is
	// created before the failure, as a real backend would.
	LayoutErr         error
	LeakOnLayoutError bool
	// CaptureErr makes Capture fail
	CaptureErr error
	// CaptureData replaces the generated PNG when non-nil
	CaptureData []byte
	// Downsample divides the reference canvas to keep generated images small
	Downsample int

	lastHTML string
	scales   []float64
}

// NewBackend creates an empty backend
func NewBackend() *Backend {
	return &Backend{staged: make(map[string]string), Downsample: 4}
}

// Layout records html as a staged element
func (b *Backend) Layout(ctx context.Context, html string, width int) (rendering.LaidOutHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.LayoutErr != nil && !b.LeakOnLayoutError {
		return nil, b.LayoutErr
	}

	b.seq++
	h := &handle{backend: b, id: "stage-" + strconv.Itoa(b.seq)}
	b.staged[h.id] = html
	b.lastHTML = html

	if b.LayoutErr != nil {
		return h, b.LayoutErr
	}
	return h, nil
}

// Capture renders the staged element as PNG
func (b *Backend) Capture(ctx context.Context, lh rendering.LaidOutHandle, scale float64) (*rendering.Bitmap, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.scales = append(b.scales, scale)
	if b.CaptureErr != nil {
		return nil, b.CaptureErr
	}
	html, ok := b.staged[lh.ID()]
	if !ok {
		return nil, errors.New("handle is not staged")
	}
	if b.CaptureData != nil {
		return &rendering.Bitmap{Data: b.CaptureData, Scale: scale}, nil
	}

	data, err := NoisePNG(html, b.Downsample)
	if err != nil {
		return nil, err
	}
	return &rendering.Bitmap{Data: data, Scale: scale}, nil
}

// StagedCount returns the number of elements currently staged
func (b *Backend) StagedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.staged)
}

// Released returns how many elements have been removed
func (b *Backend) Released() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released
}

// LastHTML returns the most recently staged markup
func (b *Backend) LastHTML() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastHTML
}

// Scales returns the scale of every capture so far
func (b *Backend) Scales() []float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]float64(nil), b.scales...)
}

type handle struct {
	backend *Backend
	id      string
}

func (h *handle) ID() string { return h.id }

func (h *handle) Release(ctx context.Context) error {
	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	if _, ok := h.backend.staged[h.id]; ok {
		delete(h.backend.staged, h.id)
		h.backend.released++
	}
	return nil
}

// NoisePNG encodes a reference page, divided by downsample, filled with
// pseudo-random pixels seeded from seed. Equal seeds give equal bytes.
func NoisePNG(seed string, downsample int) ([]byte, error) {
	if downsample < 1 {
		downsample = 1
	}
	width := rendering.ReferenceWidth / downsample
	height := rendering.ReferenceHeight / downsample

	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(seed))
	state := hasher.Sum64() | 1

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			state ^= state << 13
			state ^= state >> 7
			state ^= state << 17
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(state), G: uint8(state >> 8), B: uint8(state >> 16), A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BlankPNG encodes a tiny single-colour image, well under any plausible
// capture size
func BlankPNG() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

var _ rendering.Backend = (*Backend)(nil)
