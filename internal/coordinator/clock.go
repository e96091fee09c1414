package coordinator

import (
	"context"
	"time"
)

// Clock supplies the current time. Injected so cooldown logic is testable
// with a fake clock instead of real timers.
type Clock interface {
	Now() time.Time
}

// Sleeper blocks for a duration, honoring context cancellation. Injected so
// settle-verification polling is deterministic under test.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// NewClock returns a Clock backed by time.Now.
func NewClock() Clock {
	return realClock{}
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NewSleeper returns a Sleeper backed by real timers.
func NewSleeper() Sleeper {
	return realSleeper{}
}
