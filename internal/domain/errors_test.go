package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkError(t *testing.T) {
	baseErr := errors.New("connection refused")

	t.Run("retriable error", func(t *testing.T) {
		err := NewNetworkError("quote", baseErr)

		assert.True(t, err.IsRetriable())
		assert.EqualError(t, err, "quote: connection refused")
		assert.ErrorIs(t, err, baseErr)
	})

	t.Run("fatal error", func(t *testing.T) {
		err := NewFatalNetworkError("quote", baseErr)
		assert.False(t, err.IsRetriable())
	})

	t.Run("IsRetriable helper", func(t *testing.T) {
		retriable := fmt.Errorf("wrapped: %w", NewNetworkError("dial", baseErr))
		fatal := NewFatalNetworkError("auth", baseErr)
		plain := errors.New("plain error")

		assert.True(t, IsRetriable(retriable), "wrapped retriable error")
		assert.False(t, IsRetriable(fatal), "fatal error")
		assert.False(t, IsRetriable(plain), "plain error")
	})
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Field: "buy_amount", Err: errors.New("must be positive")}

	assert.False(t, err.IsRetriable(), "ConfigError should never be retriable")
	assert.EqualError(t, err, "config error [buy_amount]: must be positive")
}

func TestSwapFailure(t *testing.T) {
	err := error(&SwapFailure{Stage: StageQuote, Err: ErrNoInstructions})

	var sf *SwapFailure
	require.ErrorAs(t, err, &sf)
	assert.Equal(t, StageQuote, sf.Stage)
	assert.ErrorIs(t, err, ErrNoInstructions)
	assert.EqualError(t, err, "swap failed at quote: invalid swap response: transaction data is missing")
}

func TestFatalSequencerError(t *testing.T) {
	base := errors.New("bad key")
	err := &FatalSequencerError{Err: base}

	assert.ErrorIs(t, err, base)
	assert.EqualError(t, err, "fatal sequencer error: bad key")
}
