// Package scheduler runs background maintenance for the document archive.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper removes archived documents older than a given age
type Sweeper interface {
	CleanupOlderThan(ctx context.Context, age time.Duration) (int, error)
}

// RetentionConfig holds retention scheduler configuration
type RetentionConfig struct {
	// Retention is the age after which archived documents are removed
	Retention time.Duration
	// Interval between sweeps
	Interval time.Duration
	// SweepTimeout bounds a single sweep
	SweepTimeout time.Duration
}

// DefaultRetentionConfig returns default retention configuration
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		Retention:    90 * 24 * time.Hour,
		Interval:     time.Hour,
		SweepTimeout: 10 * time.Minute,
	}
}

// RetentionStatus describes the last sweep
type RetentionStatus struct {
	Running     bool
	LastRun     time.Time
	LastDeleted int
	LastError   string
}

// RetentionScheduler periodically sweeps the archive
type RetentionScheduler struct {
	config  RetentionConfig
	sweeper Sweeper
	logger  *zap.Logger
	now     func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	sweeping  bool
	status    RetentionStatus
}

// NewRetentionScheduler validates config and creates a stopped scheduler
func NewRetentionScheduler(config RetentionConfig, sweeper Sweeper, logger *zap.Logger) (*RetentionScheduler, error) {
	if config.Retention <= 0 || config.Interval <= 0 {
		return nil, fmt.Errorf("%w: retention and interval must be positive", ErrInvalidConfig)
	}
	if sweeper == nil {
		return nil, fmt.Errorf("%w: sweeper is required", ErrInvalidConfig)
	}
	if config.SweepTimeout <= 0 {
		config.SweepTimeout = DefaultRetentionConfig().SweepTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetentionScheduler{
		config:  config,
		sweeper: sweeper,
		logger:  logger.Named("retention"),
		now:     time.Now,
	}, nil
}

// Start sweeps once and then on every interval until Stop
func (s *RetentionScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Retention scheduler started",
		zap.Duration("retention", s.config.Retention),
		zap.Duration("interval", s.config.Interval),
	)
	return nil
}

// Stop cancels the loop and waits for a running sweep, bounded by ctx
func (s *RetentionScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Retention scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Retention scheduler stop timed out")
		return ctx.Err()
	}
}

// RunOnce performs a sweep now. Concurrent sweeps are refused.
func (s *RetentionScheduler) RunOnce(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.sweeping {
		s.mu.Unlock()
		return 0, ErrSweepInProgress
	}
	s.sweeping = true
	s.mu.Unlock()

	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	started := s.now()
	deleted, err := s.sweeper.CleanupOlderThan(sweepCtx, s.config.Retention)

	s.mu.Lock()
	s.sweeping = false
	s.status.LastRun = started
	s.status.LastDeleted = deleted
	s.status.LastError = ""
	if err != nil {
		s.status.LastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Retention sweep failed", zap.Int("deleted", deleted), zap.Error(err))
		return deleted, err
	}
	s.logger.Debug("Retention sweep finished",
		zap.Int("deleted", deleted),
		zap.Duration("elapsed", s.now().Sub(started)),
	)
	return deleted, nil
}

// Status reports the scheduler state and the outcome of the last sweep
func (s *RetentionScheduler) Status() RetentionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	st.Running = s.isRunning
	return st
}

func (s *RetentionScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
