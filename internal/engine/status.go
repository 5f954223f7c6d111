package engine

import (
	"context"
	"log/slog"

	"sol_cycle/internal/domain"

	"github.com/shopspring/decimal"
)

// Status returns the current configuration, run state and live balances.
// It never fails: balances that cannot be read are reported as zero.
func (s *Sequencer) Status(ctx context.Context) domain.StatusSnapshot {
	cfg := s.cfg.Snapshot()
	m := s.metrics.Snapshot()

	snap := domain.StatusSnapshot{
		Config:          cfg,
		State:           s.State(),
		QuoteBalance:    decimal.Zero,
		TargetBalance:   decimal.Zero,
		CyclesCompleted: m.CyclesCompleted,
		SwapsSucceeded:  m.SwapsSucceeded,
		SwapsFailed:     m.SwapsFailed,
	}

	addr := s.WalletAddress()
	if addr == "" {
		return snap
	}
	snap.WalletAddress = addr

	if bal, err := s.ledger.NativeBalance(ctx, addr); err != nil {
		s.logger.Warn("Native balance query failed", slog.Any("error", err))
	} else {
		snap.QuoteBalance = bal
	}

	if cfg.TargetAsset != "" {
		snap.TargetBalance = s.tokenBalance(ctx, addr, cfg.TargetAsset)
	}

	snap.EstimatedTransactions = cfg.EstimatedTransactions(snap.QuoteBalance)
	return snap
}

// WalletAddress returns the signer address, loading the wallet on first use.
// An empty string means the key material could not be loaded.
func (s *Sequencer) WalletAddress() string {
	if addr := s.walletAddress(); addr != "" {
		return addr
	}

	wallet, err := s.loadWallet()
	if err != nil {
		s.logger.Warn("Wallet unavailable", slog.Any("error", err))
		return ""
	}
	s.setWalletAddress(wallet.Address())
	return wallet.Address()
}
