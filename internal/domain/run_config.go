package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Field names a mutable RunConfig parameter.
type Field string

const (
	FieldBuyAmount        Field = "buy_amount"
	FieldFeeAmount        Field = "fee_amount"
	FieldSlippageBps      Field = "slippage_bps"
	FieldTargetAsset      Field = "target_asset"
	FieldCycleCount       Field = "cycle_count"
	FieldMaxBuys          Field = "max_simultaneous_buys"
	FieldMaxSells         Field = "max_simultaneous_sells"
	FieldInterActionDelay Field = "inter_action_delay"
	FieldInterCycleDelay  Field = "inter_cycle_delay"
	FieldInitialDelay     Field = "initial_delay"
)

// MaxSlippageBps caps slippage at 100%.
const MaxSlippageBps = 10_000

// RunConfig holds the parameters of a buy/sell run.
// It is a value type: readers always work on a snapshot.
type RunConfig struct {
	BuyAmount   decimal.Decimal `json:"buy_amount"` // quote units (SOL)
	FeeAmount   decimal.Decimal `json:"fee_amount"` // priority fee (SOL)
	SlippageBps int             `json:"slippage_bps"`

	QuoteAsset  string `json:"quote_asset"`
	TargetAsset string `json:"target_asset"`

	CycleCount           int `json:"cycle_count"`
	MaxSimultaneousBuys  int `json:"max_simultaneous_buys"`
	MaxSimultaneousSells int `json:"max_simultaneous_sells"`

	InterActionDelay time.Duration `json:"inter_action_delay"`
	InterCycleDelay  time.Duration `json:"inter_cycle_delay"`
	InitialDelay     time.Duration `json:"initial_delay"`
}

// Validate checks every field and returns the first violation as a *ConfigError.
func (c RunConfig) Validate() error {
	checks := []struct {
		field Field
		err   error
	}{
		{FieldBuyAmount, ValidateBuyAmount(c.BuyAmount)},
		{FieldFeeAmount, ValidateFeeAmount(c.FeeAmount)},
		{FieldSlippageBps, ValidateSlippageBps(c.SlippageBps)},
		{FieldCycleCount, ValidateCycleCount(c.CycleCount)},
		{FieldMaxBuys, ValidateActionCount(c.MaxSimultaneousBuys)},
		{FieldMaxSells, ValidateActionCount(c.MaxSimultaneousSells)},
		{FieldInterActionDelay, ValidateDelay(c.InterActionDelay)},
		{FieldInterCycleDelay, ValidateDelay(c.InterCycleDelay)},
		{FieldInitialDelay, ValidateDelay(c.InitialDelay)},
	}
	for _, check := range checks {
		if check.err != nil {
			return &ConfigError{Field: string(check.field), Err: check.err}
		}
	}
	if c.QuoteAsset == "" {
		return &ConfigError{Field: "quote_asset", Err: errors.New("must not be empty")}
	}
	return nil
}

// ValidateBuyAmount requires a strictly positive amount.
func ValidateBuyAmount(v decimal.Decimal) error {
	if !v.IsPositive() {
		return errors.New("must be greater than zero")
	}
	return nil
}

// ValidateFeeAmount requires a non-negative fee.
func ValidateFeeAmount(v decimal.Decimal) error {
	if v.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
}

func ValidateSlippageBps(v int) error {
	if v < 0 || v > MaxSlippageBps {
		return errors.New("must be between 0 and 10000 bps")
	}
	return nil
}

func ValidateCycleCount(v int) error {
	if v < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

// ValidateActionCount is used for both buy and sell fan-out counts.
func ValidateActionCount(v int) error {
	if v < 1 {
		return errors.New("must be at least 1")
	}
	return nil
}

func ValidateDelay(v time.Duration) error {
	if v < 0 {
		return errors.New("must not be negative")
	}
	return nil
}

// CycleDuration is the nominal duration of one cycle as reported to the operator.
// It ignores swap latency and the sell phase.
func (c RunConfig) CycleDuration() time.Duration {
	return c.InterActionDelay*time.Duration(c.MaxSimultaneousBuys) + c.InterCycleDelay
}

// EstimatedTransactions returns floor(quoteBalance / (buy + fee)), or 0 if the
// per-transaction cost is not positive.
func (c RunConfig) EstimatedTransactions(quoteBalance decimal.Decimal) int64 {
	cost := c.BuyAmount.Add(c.FeeAmount)
	if !cost.IsPositive() || !quoteBalance.IsPositive() {
		return 0
	}
	return quoteBalance.Div(cost).Floor().IntPart()
}
