package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when a sweep is requested from a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrSweepInProgress is returned when a sweep is already running
	ErrSweepInProgress = errors.New("retention sweep already in progress")
)
