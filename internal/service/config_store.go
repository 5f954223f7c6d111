package service

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"sol_cycle/internal/domain"

	"github.com/shopspring/decimal"
)

// largest whole-second delay a time.Duration can hold
const maxDelaySeconds = math.MaxInt64 / int64(time.Second)

// ConfigStore holds the mutable run parameters.
// Writers are serialized; readers take a value snapshot at the start of each action.
type ConfigStore struct {
	mu            sync.RWMutex
	cfg           domain.RunConfig
	validateAsset func(string) error
}

// NewConfigStore creates a store seeded with the startup defaults
func NewConfigStore(initial domain.RunConfig) *ConfigStore {
	return &ConfigStore{cfg: initial}
}

// SetAssetValidator installs a format check for target asset identifiers
func (s *ConfigStore) SetAssetValidator(fn func(string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.validateAsset = fn
}

// Snapshot returns a copy of the current configuration
func (s *ConfigStore) Snapshot() domain.RunConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cfg
}

// update validates v with check and applies set under the write lock.
// Rejected input leaves the configuration unchanged.
func update[T any](s *ConfigStore, field domain.Field, v T, check func(T) error, set func(*domain.RunConfig, T)) error {
	if err := check(v); err != nil {
		return &domain.ConfigError{Field: string(field), Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set(&s.cfg, v)
	return nil
}

func (s *ConfigStore) SetBuyAmount(v decimal.Decimal) error {
	return update(s, domain.FieldBuyAmount, v, domain.ValidateBuyAmount,
		func(c *domain.RunConfig, v decimal.Decimal) { c.BuyAmount = v })
}

func (s *ConfigStore) SetFeeAmount(v decimal.Decimal) error {
	return update(s, domain.FieldFeeAmount, v, domain.ValidateFeeAmount,
		func(c *domain.RunConfig, v decimal.Decimal) { c.FeeAmount = v })
}

func (s *ConfigStore) SetSlippageBps(v int) error {
	return update(s, domain.FieldSlippageBps, v, domain.ValidateSlippageBps,
		func(c *domain.RunConfig, v int) { c.SlippageBps = v })
}

func (s *ConfigStore) SetCycleCount(v int) error {
	return update(s, domain.FieldCycleCount, v, domain.ValidateCycleCount,
		func(c *domain.RunConfig, v int) { c.CycleCount = v })
}

func (s *ConfigStore) SetMaxSimultaneousBuys(v int) error {
	return update(s, domain.FieldMaxBuys, v, domain.ValidateActionCount,
		func(c *domain.RunConfig, v int) { c.MaxSimultaneousBuys = v })
}

func (s *ConfigStore) SetMaxSimultaneousSells(v int) error {
	return update(s, domain.FieldMaxSells, v, domain.ValidateActionCount,
		func(c *domain.RunConfig, v int) { c.MaxSimultaneousSells = v })
}

func (s *ConfigStore) SetInterActionDelay(v time.Duration) error {
	return update(s, domain.FieldInterActionDelay, v, domain.ValidateDelay,
		func(c *domain.RunConfig, v time.Duration) { c.InterActionDelay = v })
}

func (s *ConfigStore) SetInterCycleDelay(v time.Duration) error {
	return update(s, domain.FieldInterCycleDelay, v, domain.ValidateDelay,
		func(c *domain.RunConfig, v time.Duration) { c.InterCycleDelay = v })
}

func (s *ConfigStore) SetInitialDelay(v time.Duration) error {
	return update(s, domain.FieldInitialDelay, v, domain.ValidateDelay,
		func(c *domain.RunConfig, v time.Duration) { c.InitialDelay = v })
}

// SetTargetAsset replaces the traded token
func (s *ConfigStore) SetTargetAsset(v string) error {
	v = strings.TrimSpace(v)

	s.mu.RLock()
	validate := s.validateAsset
	s.mu.RUnlock()

	return update(s, domain.FieldTargetAsset, v, func(v string) error {
		if v == "" {
			return errors.New("must not be empty")
		}
		if validate != nil {
			return validate(v)
		}
		return nil
	}, func(c *domain.RunConfig, v string) { c.TargetAsset = v })
}

// ApplyText parses operator input for field and applies it.
// Amounts are decimals, slippage is a percentage, counts are integers and
// delays are whole seconds.
func (s *ConfigStore) ApplyText(field domain.Field, text string) error {
	text = strings.TrimSpace(text)

	switch field {
	case domain.FieldBuyAmount, domain.FieldFeeAmount:
		v, err := decimal.NewFromString(text)
		if err != nil {
			return parseError(field, text, "a decimal number")
		}
		if field == domain.FieldBuyAmount {
			return s.SetBuyAmount(v)
		}
		return s.SetFeeAmount(v)

	case domain.FieldSlippageBps:
		pct, err := decimal.NewFromString(strings.TrimSuffix(text, "%"))
		if err != nil {
			return parseError(field, text, "a percentage")
		}
		bps := pct.Mul(decimal.NewFromInt(100))
		if !bps.Equal(bps.Truncate(0)) {
			return parseError(field, text, "a percentage with at most two decimals")
		}
		// bound before narrowing; IntPart wraps on huge inputs
		if bps.IsNegative() || bps.GreaterThan(decimal.NewFromInt(domain.MaxSlippageBps)) {
			return &domain.ConfigError{Field: string(field), Err: fmt.Errorf("%s%% is outside 0-100%%", pct)}
		}
		return s.SetSlippageBps(int(bps.IntPart()))

	case domain.FieldCycleCount, domain.FieldMaxBuys, domain.FieldMaxSells:
		v, err := strconv.Atoi(text)
		if err != nil {
			return parseError(field, text, "a whole number")
		}
		switch field {
		case domain.FieldCycleCount:
			return s.SetCycleCount(v)
		case domain.FieldMaxBuys:
			return s.SetMaxSimultaneousBuys(v)
		default:
			return s.SetMaxSimultaneousSells(v)
		}

	case domain.FieldInterActionDelay, domain.FieldInterCycleDelay, domain.FieldInitialDelay:
		sec, err := strconv.ParseInt(text, 10, 64)
		if err != nil || sec > maxDelaySeconds {
			return parseError(field, text, "a number of seconds")
		}
		d := time.Duration(sec) * time.Second
		switch field {
		case domain.FieldInterActionDelay:
			return s.SetInterActionDelay(d)
		case domain.FieldInterCycleDelay:
			return s.SetInterCycleDelay(d)
		default:
			return s.SetInitialDelay(d)
		}

	case domain.FieldTargetAsset:
		return s.SetTargetAsset(text)
	}

	return &domain.ConfigError{Field: string(field), Err: errors.New("unknown field")}
}

func parseError(field domain.Field, text, want string) error {
	return &domain.ConfigError{Field: string(field), Err: fmt.Errorf("%q is not %s", text, want)}
}
