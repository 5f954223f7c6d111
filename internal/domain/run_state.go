package domain

import "github.com/shopspring/decimal"

// RunState is the lifecycle state of the cycle sequencer.
type RunState int32

const (
	StateIdle     RunState = iota
	StateStarting          // initial wait
	StateRunning
	StateStopping // stop requested, current cycle still finishing
)

// String returns the string representation of RunState
func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateStarting:
		return "STARTING"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	default:
		return "UNKNOWN"
	}
}

// Active reports whether a run is in progress in any phase.
func (s RunState) Active() bool {
	return s != StateIdle
}

// StatusSnapshot is a point-in-time view of the bot for the operator.
type StatusSnapshot struct {
	Config                RunConfig
	State                 RunState
	WalletAddress         string
	QuoteBalance          decimal.Decimal
	TargetBalance         decimal.Decimal
	EstimatedTransactions int64
	CyclesCompleted       uint64
	SwapsSucceeded        uint64
	SwapsFailed           uint64
}
