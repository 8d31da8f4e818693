package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	mu     sync.Mutex
	calls  int
	ages   []time.Duration
	result int
	err    error
	block  chan struct{}
}

func (f *fakeSweeper) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	f.mu.Lock()
	f.calls++
	f.ages = append(f.ages, age)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return f.result, f.err
}

func (f *fakeSweeper) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestNewRetentionScheduler_Validation(t *testing.T) {
	tests := []struct {
		name    string
		config  RetentionConfig
		sweeper Sweeper
	}{
		{"zero retention", RetentionConfig{Interval: time.Hour}, &fakeSweeper{}},
		{"zero interval", RetentionConfig{Retention: time.Hour}, &fakeSweeper{}},
		{"missing sweeper", DefaultRetentionConfig(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRetentionScheduler(tt.config, tt.sweeper, nil)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestRetentionScheduler_RunOnce(t *testing.T) {
	t.Run("records the outcome", func(t *testing.T) {
		sweeper := &fakeSweeper{result: 4}
		cfg := DefaultRetentionConfig()
		cfg.Retention = 30 * 24 * time.Hour
		s, err := NewRetentionScheduler(cfg, sweeper, nil)
		require.NoError(t, err)

		fixed := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
		s.now = func() time.Time { return fixed }

		n, err := s.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Equal(t, []time.Duration{30 * 24 * time.Hour}, sweeper.ages)

		st := s.Status()
		assert.False(t, st.Running)
		assert.Equal(t, fixed, st.LastRun)
		assert.Equal(t, 4, st.LastDeleted)
		assert.Empty(t, st.LastError)
	})

	t.Run("keeps the last error", func(t *testing.T) {
		sweeper := &fakeSweeper{result: 1, err: errors.New("disk gone")}
		s, err := NewRetentionScheduler(DefaultRetentionConfig(), sweeper, nil)
		require.NoError(t, err)

		n, err := s.RunOnce(context.Background())
		assert.EqualError(t, err, "disk gone")
		assert.Equal(t, 1, n)
		assert.Equal(t, "disk gone", s.Status().LastError)
	})

	t.Run("refuses overlapping sweeps", func(t *testing.T) {
		sweeper := &fakeSweeper{block: make(chan struct{})}
		s, err := NewRetentionScheduler(DefaultRetentionConfig(), sweeper, nil)
		require.NoError(t, err)

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = s.RunOnce(context.Background())
		}()
		require.Eventually(t, func() bool { return sweeper.callCount() == 1 }, time.Second, 5*time.Millisecond)

		_, err = s.RunOnce(context.Background())
		assert.ErrorIs(t, err, ErrSweepInProgress)

		close(sweeper.block)
		<-done
	})
}

func TestRetentionScheduler_StartStop(t *testing.T) {
	sweeper := &fakeSweeper{}
	s, err := NewRetentionScheduler(RetentionConfig{
		Retention: time.Hour,
		Interval:  10 * time.Millisecond,
	}, sweeper, nil)
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()), "second start is a no-op")
	assert.True(t, s.Status().Running)

	assert.Eventually(t, func() bool { return sweeper.callCount() >= 2 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.False(t, s.Status().Running)

	calls := sweeper.callCount()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, sweeper.callCount(), "no sweeps after stop")
	assert.NoError(t, s.Stop(ctx), "second stop is a no-op")
}
