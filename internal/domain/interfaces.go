package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// SwapGateway builds swap transactions. Route finding happens on the other side.
type SwapGateway interface {
	Quote(ctx context.Context, req SwapRequest) (*SwapInstructions, error)
}

// Wallet holds the signing key material.
type Wallet interface {
	Address() string
	// Sign signs a serialized transaction and returns the serialized signed form.
	Sign(raw []byte) ([]byte, error)
}

// WalletLoader constructs the signing wallet. A failure aborts the run.
type WalletLoader func() (Wallet, error)

// LedgerClient talks to the chain.
type LedgerClient interface {
	Submit(ctx context.Context, signed []byte) (string, error)
	Confirm(ctx context.Context, txID string) error
	// TokenBalance returns the UI amount held, 0 when no token account exists.
	TokenBalance(ctx context.Context, owner, asset string) (decimal.Decimal, error)
	// NativeBalance returns the quote asset balance in whole units.
	NativeBalance(ctx context.Context, owner string) (decimal.Decimal, error)
}

// Notifier pushes human-readable progress lines to the operator.
// Delivery failures are not reported back.
type Notifier interface {
	Notify(dest int64, text string)
}

// SwapJournal is an append-only audit trail of swap actions.
type SwapJournal interface {
	RecordSwap(ctx context.Context, rec *SwapRecord) error
	RecentSwaps(ctx context.Context, limit int) ([]SwapRecord, error)
	SwapsByRun(ctx context.Context, runID string) ([]SwapRecord, error)
}
