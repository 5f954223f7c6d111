package infra

import (
	"context"
	"time"
)

// CalculateBackoff returns the exponential delay before retry n (1-based): 1s, 2s, 4s...
// capped at 30s.
func CalculateBackoff(retry int) time.Duration {
	if retry < 1 {
		return 0
	}
	if retry > 5 {
		return 30 * time.Second
	}
	return time.Duration(1<<uint(retry-1)) * time.Second
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
