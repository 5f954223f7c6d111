package infra

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		retry int
		want  time.Duration
	}{
		{0, 0},
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{10, 30 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CalculateBackoff(tt.retry), "retry %d", tt.retry)
	}
}

func TestSleepContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	assert.ErrorIs(t, SleepContext(ctx, time.Minute), context.Canceled)
	assert.Less(t, time.Since(start), time.Second, "SleepContext did not return promptly on cancel")
}
