package rendering

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout = 30 * time.Second
	stagingAttribute     = "data-render-staging"
)

// hostDocument is the long-lived page that staged fragments are attached to
const hostDocument = `<!DOCTYPE html><html><head><meta charset="UTF-8">` +
	`<style>html,body{margin:0;padding:0;background:#ffffff;}</style>` +
	`</head><body><main id="app"></main></body></html>`

// ChromedpConfig contains configuration for the chromedp backend
type ChromedpConfig struct {
	// DefaultTimeout bounds each layout, capture and release call
	DefaultTimeout time.Duration
	// RemoteURL is the DevTools URL of a running Chrome instance (optional).
	// If empty, a local headless browser is launched.
	RemoteURL string
	// NoSandbox runs Chrome without sandbox (required for Docker/root)
	NoSandbox bool
	// Logger for debug output
	Logger *zap.Logger
}

// ChromedpBackend lays out and rasterizes documents in a single long-lived
// headless Chrome tab. Fragments are staged below the viewport of a host
// page so they take part in normal layout and styling.
//
// One fragment is staged at a time: Layout blocks until the previous handle
// has been released, because template styles apply to the whole host page.
type ChromedpBackend struct {
	config        *ChromedpConfig
	logger        *zap.Logger
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	slot          chan struct{}
	seq           atomic.Uint64
}

// NewChromedpBackend starts the browser and loads the host page
func NewChromedpBackend(config *ChromedpConfig) (*ChromedpBackend, error) {
	if config == nil {
		config = &ChromedpConfig{}
	}
	if config.DefaultTimeout == 0 {
		config.DefaultTimeout = defaultChromeTimeout
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &ChromedpBackend{
		config: config,
		logger: logger,
		slot:   make(chan struct{}, 1),
	}
	b.initAllocator()

	b.browserCtx, b.browserCancel = chromedp.NewContext(b.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			b.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)

	startCtx, cancel := context.WithTimeout(b.browserCtx, config.DefaultTimeout)
	defer cancel()
	err := chromedp.Run(startCtx,
		chromedp.EmulateViewport(ReferenceWidth, ReferenceHeight),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, hostDocument).Do(ctx)
		}),
	)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	logger.Info("chromedp backend ready", zap.Bool("remote", config.RemoteURL != ""))
	return b, nil
}

// initAllocator initializes the Chrome allocator
func (b *ChromedpBackend) initAllocator() {
	if b.config.RemoteURL != "" {
		b.allocCtx, b.allocCancel = chromedp.NewRemoteAllocator(context.Background(), b.config.RemoteURL)
		return
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("font-render-hinting", "none"),
		chromedp.Flag("hide-scrollbars", true),
		// Logos and fonts are often served from other origins without CORS
		// headers; they must render rather than taint or fail the capture.
		chromedp.Flag("disable-web-security", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.Flag("allow-running-insecure-content", true),
	)
	if b.config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
}

// run executes actions on the host tab, bounded by the caller's context and
// the configured timeout
func (b *ChromedpBackend) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(b.browserCtx, b.config.DefaultTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

type stagedRect struct {
	Top  float64 `json:"top"`
	Left float64 `json:"left"`
}

// Layout attaches html to the host page inside a fixed-width element and
// waits for web fonts to load. If the element was created before a failure,
// the returned handle is non-nil and must still be released.
func (b *ChromedpBackend) Layout(ctx context.Context, html string, width int) (LaidOutHandle, error) {
	select {
	case b.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, NewStagingError("staging slot unavailable", ctx.Err())
	}

	id := "render-stage-" + strconv.FormatUint(b.seq.Add(1), 10)
	h := &chromedpHandle{backend: b, id: id}

	script, err := stagingScript(id, html, width)
	if err != nil {
		h.releaseSlot()
		return nil, NewStagingError("failed to encode document", err)
	}

	var rect stagedRect
	err = b.run(ctx, chromedp.Evaluate(script, &rect, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
	if err != nil {
		return h, NewStagingError("failed to lay out document", err)
	}
	h.rect = rect

	b.logger.Debug("fragment staged",
		zap.String("id", id),
		zap.Int("width", width),
		zap.Float64("top", rect.Top))
	return h, nil
}

// Capture screenshots one reference page of a staged fragment
func (b *ChromedpBackend) Capture(ctx context.Context, handle LaidOutHandle, scale float64) (*Bitmap, error) {
	h, ok := handle.(*chromedpHandle)
	if !ok || h.backend != b {
		return nil, NewCaptureError("handle does not belong to this backend", nil)
	}

	var data []byte
	err := b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		data, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithClip(&page.Viewport{
				X:      h.rect.Left,
				Y:      h.rect.Top,
				Width:  ReferenceWidth,
				Height: ReferenceHeight,
				Scale:  scale,
			}).
			WithCaptureBeyondViewport(true).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, NewCaptureError("screenshot failed", err)
	}

	return &Bitmap{Data: data, Scale: scale}, nil
}

// StagedCount returns how many staged fragments are attached to the host page
func (b *ChromedpBackend) StagedCount(ctx context.Context) (int, error) {
	var count int
	err := b.run(ctx, chromedp.Evaluate(
		`document.querySelectorAll("[`+stagingAttribute+`]").length`, &count))
	return count, err
}

// Close shuts down the browser
func (b *ChromedpBackend) Close() error {
	if b.browserCancel != nil {
		b.browserCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	return nil
}

type chromedpHandle struct {
	backend *ChromedpBackend
	id      string
	rect    stagedRect
	once    sync.Once
	err     error
}

func (h *chromedpHandle) ID() string { return h.id }

// Release removes the fragment and frees the staging slot
func (h *chromedpHandle) Release(ctx context.Context) error {
	h.once.Do(func() {
		defer h.releaseSlot()
		var removed bool
		h.err = h.backend.run(ctx, chromedp.Evaluate(
			`(function(){const el=document.getElementById(`+strconv.Quote(h.id)+`);`+
				`if(!el){return false;}el.remove();return true;})()`, &removed))
	})
	return h.err
}

func (h *chromedpHandle) releaseSlot() {
	<-h.backend.slot
}

// stagingScript builds the expression that creates the staging element below
// the viewport, fills it and resolves with its document position once fonts
// have loaded.
func stagingScript(id, html string, width int) (string, error) {
	args, err := json.Marshal([]interface{}{id, html, width, ReferenceHeight, stagingAttribute})
	if err != nil {
		return "", err
	}
	return `(function(id, html, width, height, attr){
  const el = document.createElement("div");
  el.id = id;
  el.setAttribute(attr, "true");
  el.style.cssText = "position:absolute;left:0;top:" + (window.innerHeight + 200) + "px;" +
    "width:" + width + "px;min-height:" + height + "px;box-sizing:border-box;background:#ffffff;";
  document.body.appendChild(el);
  el.innerHTML = html;
  return document.fonts.ready.then(function(){
    const r = el.getBoundingClientRect();
    return {top: r.top + window.scrollY, left: r.left + window.scrollX};
  });
}).apply(null, ` + string(args) + `)`, nil
}

// Ensure ChromedpBackend implements Backend
var _ Backend = (*ChromedpBackend)(nil)
