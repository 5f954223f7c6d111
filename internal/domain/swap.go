package domain

import "github.com/shopspring/decimal"

// Side of a swap relative to the target asset.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// SwapRequest describes one swap action.
// Amount is expressed in units of From.
type SwapRequest struct {
	From        string
	To          string
	Amount      decimal.Decimal
	SlippageBps int
	Payer       string
	Fee         decimal.Decimal
}

// SwapInstructions is the gateway's unsigned (or partially signed) transaction.
type SwapInstructions struct {
	Transaction []byte // serialized wire transaction
	Kind        string // e.g. "v0", "legacy"
}

// Empty reports whether the gateway returned nothing usable.
func (i *SwapInstructions) Empty() bool {
	return i == nil || len(i.Transaction) == 0
}

// SwapStatus is the outcome recorded in the swap journal.
type SwapStatus string

const (
	SwapStatusConfirmed SwapStatus = "CONFIRMED"
	SwapStatusFailed    SwapStatus = "FAILED"
)
