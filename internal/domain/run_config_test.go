package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRunConfig() RunConfig {
	return RunConfig{
		BuyAmount:            decimal.RequireFromString("0.0105"),
		FeeAmount:            decimal.RequireFromString("0.0005"),
		SlippageBps:          200,
		QuoteAsset:           "So11111111111111111111111111111111111111112",
		CycleCount:           3,
		MaxSimultaneousBuys:  1,
		MaxSimultaneousSells: 1,
		InterActionDelay:     15 * time.Second,
		InterCycleDelay:      30 * time.Second,
		InitialDelay:         60 * time.Second,
	}
}

func TestRunConfig_Validate(t *testing.T) {
	require.NoError(t, validRunConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*RunConfig)
		field  string
	}{
		{"zero buy amount", func(c *RunConfig) { c.BuyAmount = decimal.Zero }, string(FieldBuyAmount)},
		{"negative fee", func(c *RunConfig) { c.FeeAmount = decimal.NewFromInt(-1) }, string(FieldFeeAmount)},
		{"slippage too high", func(c *RunConfig) { c.SlippageBps = 20000 }, string(FieldSlippageBps)},
		{"negative cycles", func(c *RunConfig) { c.CycleCount = -1 }, string(FieldCycleCount)},
		{"zero buys", func(c *RunConfig) { c.MaxSimultaneousBuys = 0 }, string(FieldMaxBuys)},
		{"zero sells", func(c *RunConfig) { c.MaxSimultaneousSells = 0 }, string(FieldMaxSells)},
		{"negative delay", func(c *RunConfig) { c.InterCycleDelay = -time.Second }, string(FieldInterCycleDelay)},
		{"missing quote asset", func(c *RunConfig) { c.QuoteAsset = "" }, "quote_asset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validRunConfig()
			tt.mutate(&cfg)

			var ce *ConfigError
			require.ErrorAs(t, cfg.Validate(), &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestRunConfig_EstimatedTransactions(t *testing.T) {
	cfg := validRunConfig() // 0.0105 + 0.0005 = 0.011

	assert.Equal(t, int64(100), cfg.EstimatedTransactions(decimal.RequireFromString("1.1")))
	assert.Equal(t, int64(1), cfg.EstimatedTransactions(decimal.RequireFromString("0.0219")))
	assert.Zero(t, cfg.EstimatedTransactions(decimal.Zero), "empty wallet")

	cfg.BuyAmount = decimal.Zero
	cfg.FeeAmount = decimal.Zero
	assert.Zero(t, cfg.EstimatedTransactions(decimal.NewFromInt(5)), "zero cost")
}

func TestRunConfig_CycleDuration(t *testing.T) {
	cfg := validRunConfig()
	cfg.MaxSimultaneousBuys = 2

	// 15s * 2 + 30s
	assert.Equal(t, 60*time.Second, cfg.CycleDuration())
}

func TestRunState_String(t *testing.T) {
	assert.Equal(t, "IDLE", StateIdle.String())
	assert.Equal(t, "RUNNING", StateRunning.String())
	assert.False(t, StateIdle.Active())
	assert.True(t, StateStopping.Active())
}
