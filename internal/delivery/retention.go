package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultRetention is how long entries are kept
	DefaultRetention = 7 * 24 * time.Hour
	// DefaultSweepInterval is how often old entries are removed
	DefaultSweepInterval = time.Hour
)

// Sweeper removes entries older than the retention period
type Sweeper struct {
	db         DB
	retention  time.Duration
	interval   time.Duration
	timeSource TimeSource
}

// NewSweeper creates a Sweeper using the system clock
func NewSweeper(db DB, retention, interval time.Duration) *Sweeper {
	return NewSweeperWithDeps(db, retention, interval, &defaultTimeSource{})
}

// NewSweeperWithDeps creates a Sweeper with a custom time source for testing
func NewSweeperWithDeps(db DB, retention, interval time.Duration, timeSrc TimeSource) *Sweeper {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		db:         db,
		retention:  retention,
		interval:   interval,
		timeSource: timeSrc,
	}
}

// Sweep removes the expired entries once
func (s *Sweeper) Sweep() (int, error) {
	cutoff := s.timeSource.Now().Add(-s.retention)
	removed, err := s.db.DeleteOlderThan(cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting expired entries: %w", err)
	}
	if removed > 0 {
		slog.Info("Expired entries removed", "count", removed, "cutoff", cutoff)
	}
	return removed, nil
}

// Run sweeps immediately and then on every interval until ctx is done.
// Failed sweeps are logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	s.sweepAndLog()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweepAndLog()
		}
	}
}

func (s *Sweeper) sweepAndLog() {
	if _, err := s.Sweep(); err != nil {
		slog.Error("Retention sweep failed", "error", err)
	}
}
