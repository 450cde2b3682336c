package pipeline

import (
	"context"
	"time"
)

// intervalGate enforces a minimum interval between successive requests to
// one remote site. The first Wait passes immediately. Not safe for
// concurrent use; each source run owns its own gate.
type intervalGate struct {
	every time.Duration
	last  time.Time
}

func newIntervalGate(every time.Duration) *intervalGate {
	return &intervalGate{every: every}
}

// Wait blocks until the interval since the previous pass has elapsed, or the
// context is done.
func (g *intervalGate) Wait(ctx context.Context) error {
	if g.every > 0 && !g.last.IsZero() {
		remaining := g.every - time.Since(g.last)
		if remaining > 0 {
			timer := time.NewTimer(remaining)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	g.last = time.Now()
	return nil
}
