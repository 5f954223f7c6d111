package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sol_cycle/internal/domain"
	"sol_cycle/internal/infra"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
)

// lamportsDecimals is the SOL precision (1 SOL = 1e9 lamports)
const lamportsDecimals = 9

// Ledger is a Solana JSON-RPC client implementing domain.LedgerClient.
type Ledger struct {
	client         *rpc.Client
	confirmTimeout time.Duration
	pollInterval   time.Duration
	watcher        *SignatureWatcher // optional, races the status poll
	logger         *slog.Logger
}

// NewLedger creates a ledger client from config
func NewLedger(cfg *infra.Config) *Ledger {
	l := NewLedgerWithClient(
		rpc.New(cfg.Solana.RPCURL),
		time.Duration(cfg.Solana.ConfirmTimeoutSec)*time.Second,
		time.Duration(cfg.Solana.ConfirmPollMS)*time.Millisecond,
	)
	if cfg.Solana.WSURL != "" {
		l.watcher = NewSignatureWatcher(cfg.Solana.WSURL)
	}
	return l
}

// WithWatcher enables WebSocket signature notifications alongside polling.
func (l *Ledger) WithWatcher(w *SignatureWatcher) *Ledger {
	l.watcher = w
	return l
}

func NewLedgerWithClient(client *rpc.Client, confirmTimeout, pollInterval time.Duration) *Ledger {
	if confirmTimeout <= 0 {
		confirmTimeout = 60 * time.Second
	}
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	return &Ledger{
		client:         client,
		confirmTimeout: confirmTimeout,
		pollInterval:   pollInterval,
		logger:         slog.Default().With(slog.String("module", "ledger")),
	}
}

// Submit sends a signed transaction and returns its signature.
func (l *Ledger) Submit(ctx context.Context, signed []byte) (string, error) {
	tx, err := decodeTransaction(signed)
	if err != nil {
		return "", err
	}

	sig, err := l.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: rpc.CommitmentProcessed,
	})
	if err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}
	return sig.String(), nil
}

// Confirm waits until the transaction is confirmed, fails on chain, or the
// confirm timeout elapses. Signature status is polled; when a watcher is set
// its notification may resolve the wait first.
func (l *Ledger) Confirm(ctx context.Context, txID string) error {
	sig, err := solana.SignatureFromBase58(txID)
	if err != nil {
		return fmt.Errorf("parse signature: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, l.confirmTimeout)
	defer cancel()

	var notified <-chan error
	if l.watcher != nil {
		ch := make(chan error, 1)
		go func() { ch <- l.watcher.Wait(ctx, txID) }()
		notified = ch
	}

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		done, err := l.checkStatus(ctx, sig)
		if done {
			return err
		}

		select {
		case err := <-notified:
			if err == nil || errors.Is(err, ErrTransactionFailed) {
				return err
			}
			if ctx.Err() == nil {
				l.logger.Debug("Signature subscription ended, polling only", slog.Any("error", err))
			}
			notified = nil
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s", domain.ErrConfirmTimeout, txID)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *Ledger) checkStatus(ctx context.Context, sig solana.Signature) (bool, error) {
	statuses, err := l.client.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		// transient, keep polling
		l.logger.Debug("Signature status query failed", slog.Any("error", err))
		return false, nil
	}
	if statuses == nil || len(statuses.Value) == 0 || statuses.Value[0] == nil {
		return false, nil
	}

	status := statuses.Value[0]
	if status.Err != nil {
		return true, fmt.Errorf("%w: %v", ErrTransactionFailed, status.Err)
	}
	if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
		status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
		return true, nil
	}
	return false, nil
}

// NativeBalance returns the SOL balance of owner.
func (l *Ledger) NativeBalance(ctx context.Context, owner string) (decimal.Decimal, error) {
	pub, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse owner: %w", err)
	}

	res, err := l.client.GetBalance(ctx, pub, rpc.CommitmentConfirmed)
	if err != nil {
		return decimal.Zero, domain.NewNetworkError("balance", err)
	}
	if res == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromInt(int64(res.Value)).Shift(-lamportsDecimals), nil
}

// TokenBalance returns the UI amount of asset held by owner.
// No token account, or a null amount, is a zero balance.
func (l *Ledger) TokenBalance(ctx context.Context, owner, asset string) (decimal.Decimal, error) {
	pub, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse owner: %w", err)
	}
	mint, err := solana.PublicKeyFromBase58(asset)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse mint: %w", err)
	}

	accounts, err := l.client.GetTokenAccountsByOwner(ctx, pub,
		&rpc.GetTokenAccountsConfig{Mint: &mint},
		&rpc.GetTokenAccountsOpts{
			Commitment: rpc.CommitmentConfirmed,
			Encoding:   solana.EncodingBase64,
		},
	)
	if err != nil {
		return decimal.Zero, domain.NewNetworkError("token_accounts", err)
	}
	if accounts == nil || len(accounts.Value) == 0 || accounts.Value[0] == nil {
		return decimal.Zero, nil
	}

	bal, err := l.client.GetTokenAccountBalance(ctx, accounts.Value[0].Pubkey, rpc.CommitmentConfirmed)
	if err != nil {
		return decimal.Zero, domain.NewNetworkError("token_balance", err)
	}
	if bal == nil || bal.Value == nil || bal.Value.UiAmountString == "" {
		return decimal.Zero, nil
	}

	amount, err := decimal.NewFromString(bal.Value.UiAmountString)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse token amount %q: %w", bal.Value.UiAmountString, err)
	}
	return amount, nil
}
