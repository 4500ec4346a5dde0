package app

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

const (
	defaultPollInterval = 2 * time.Second
	maxBackoff          = 30 * time.Second
)

// StartPoller launches a background goroutine that calls poll at a fixed
// cadence until ctx is cancelled. Consecutive failures back the cadence off
// exponentially up to maxBackoff. It returns immediately.
func StartPoller(ctx context.Context, interval time.Duration, poll func(context.Context) error, logger *log.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		failures := 0
		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			if err := poll(ctx); err != nil {
				failures++
				if failures == 1 || failures%10 == 0 {
					logger.Warn("poll failed", "failures", failures, "err", err)
				}
			} else {
				failures = 0
			}
			timer.Reset(calculateBackoff(failures, interval))
		}
	}()
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for range failures {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
