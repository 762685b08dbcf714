package scheduler

import (
	"context"
	"time"

	"chemradar/internal/ports"
)

// TickerScheduler runs the job immediately and then on a fixed interval.
// The radar runs daily; a cron library would buy exact wall-clock alignment
// this pipeline does not need.
type TickerScheduler struct {
	interval time.Duration
	stop     chan struct{}
}

var _ ports.Scheduler = (*TickerScheduler)(nil)

// NewTickerScheduler builds a scheduler with the given repeat interval.
func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &TickerScheduler{interval: interval}
}

// Start begins ticking.
func (t *TickerScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	if t.stop != nil {
		return nil
	}

	t.stop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		job(time.Now())
		for {
			select {
			case tick := <-ticker.C:
				job(tick)
			case <-ctx.Done():
				return
			case <-t.stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine.
func (t *TickerScheduler) Stop(ctx context.Context) error {
	if t.stop == nil {
		return nil
	}
	close(t.stop)
	t.stop = nil
	return nil
}
