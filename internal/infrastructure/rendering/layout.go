package rendering

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// DefaultSettleDelay is how long a staged fragment is left to settle
// (web fonts, late style application) before it is considered ready
const DefaultSettleDelay = 300 * time.Millisecond

// LayoutStage stages resolved HTML in the backend at the reference width
// and waits for it to settle.
type LayoutStage struct {
	engine      LayoutEngine
	settleDelay time.Duration
	logger      *zap.Logger
}

// NewLayoutStage creates a layout stage. A negative settle delay disables
// the wait; zero selects DefaultSettleDelay.
func NewLayoutStage(engine LayoutEngine, settleDelay time.Duration, logger *zap.Logger) *LayoutStage {
	if settleDelay == 0 {
		settleDelay = DefaultSettleDelay
	}
	if settleDelay < 0 {
		settleDelay = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LayoutStage{engine: engine, settleDelay: settleDelay, logger: logger}
}

// Stage lays out html and returns a settled handle. On any failure the
// partially staged fragment is released before returning.
func (s *LayoutStage) Stage(ctx context.Context, html string) (LaidOutHandle, error) {
	handle, err := s.engine.Layout(ctx, html, ReferenceWidth)
	if err != nil {
		release(ctx, handle, s.logger)
		var staging *StagingError
		if errors.As(err, &staging) {
			return nil, staging
		}
		return nil, NewStagingError("failed to stage document", err)
	}
	if handle == nil {
		return nil, NewStagingError("layout engine returned no handle", nil)
	}

	if s.settleDelay > 0 {
		timer := time.NewTimer(s.settleDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			release(ctx, handle, s.logger)
			return nil, NewStagingError("document did not settle", ctx.Err())
		case <-timer.C:
		}
	}

	s.logger.Debug("document staged",
		zap.String("handle", handle.ID()),
		zap.Duration("settle_delay", s.settleDelay))
	return handle, nil
}

// WithStaged stages html, hands the settled handle to fn and releases the
// handle on every exit path.
func (s *LayoutStage) WithStaged(ctx context.Context, html string, fn func(LaidOutHandle) error) error {
	handle, err := s.Stage(ctx, html)
	if err != nil {
		return err
	}
	defer release(ctx, handle, s.logger)
	return fn(handle)
}

// release removes a staged fragment. Cleanup runs even when ctx is already
// cancelled.
func release(ctx context.Context, handle LaidOutHandle, logger *zap.Logger) {
	if handle == nil {
		return
	}
	if err := handle.Release(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("failed to release staged document",
			zap.String("handle", handle.ID()),
			zap.Error(err))
	}
}
