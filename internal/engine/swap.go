package engine

import (
	"context"
	"log/slog"
	"time"

	"sol_cycle/internal/domain"

	"github.com/shopspring/decimal"
)

// swap performs one swap action and reports the outcome. It never fails the
// cycle: errors are notified, journaled and counted.
func (s *Sequencer) swap(
	ctx context.Context,
	dest int64,
	wallet domain.Wallet,
	runID string,
	cycle int,
	side domain.Side,
	from, to string,
	amount decimal.Decimal,
) {
	cfg := s.cfg.Snapshot()
	req := domain.SwapRequest{
		From:        from,
		To:          to,
		Amount:      amount,
		SlippageBps: cfg.SlippageBps,
		Payer:       wallet.Address(),
		Fee:         cfg.FeeAmount,
	}

	start := time.Now()
	txID, err := s.executeSwap(ctx, wallet, req)
	latency := time.Since(start)

	s.metrics.RecordSwap(err == nil, latency)
	s.record(ctx, runID, cycle, side, req, txID, err, latency)

	if err != nil {
		s.logger.Warn("Swap failed",
			slog.String("side", string(side)),
			slog.String("amount", amount.String()),
			slog.Any("error", err),
		)
		s.notify(dest, "⚠️ Error when trying to swap: "+err.Error())
		return
	}

	s.logger.Info("Swap confirmed",
		slog.String("side", string(side)),
		slog.String("amount", amount.String()),
		slog.String("tx", txID),
		slog.Duration("latency", latency),
	)
	s.notify(dest, "✅ Swap completed: "+txID)
}

// executeSwap runs quote, sign, submit and confirm. Every failure is a
// *domain.SwapFailure naming the stage.
func (s *Sequencer) executeSwap(ctx context.Context, wallet domain.Wallet, req domain.SwapRequest) (string, error) {
	ins, err := s.gateway.Quote(ctx, req)
	if err != nil {
		return "", &domain.SwapFailure{Stage: domain.StageQuote, Err: err}
	}
	if ins.Empty() {
		return "", &domain.SwapFailure{Stage: domain.StageQuote, Err: domain.ErrNoInstructions}
	}

	signed, err := wallet.Sign(ins.Transaction)
	if err != nil {
		return "", &domain.SwapFailure{Stage: domain.StageSign, Err: err}
	}

	txID, err := s.ledger.Submit(ctx, signed)
	if err != nil {
		return "", &domain.SwapFailure{Stage: domain.StageSubmit, Err: err}
	}

	if err := s.ledger.Confirm(ctx, txID); err != nil {
		return txID, &domain.SwapFailure{Stage: domain.StageConfirm, Err: err}
	}
	return txID, nil
}

func (s *Sequencer) record(
	ctx context.Context,
	runID string,
	cycle int,
	side domain.Side,
	req domain.SwapRequest,
	txID string,
	swapErr error,
	latency time.Duration,
) {
	if s.journal == nil {
		return
	}

	rec := &domain.SwapRecord{
		RunID:     runID,
		Cycle:     cycle,
		Side:      side,
		FromAsset: req.From,
		ToAsset:   req.To,
		Amount:    req.Amount,
		TxID:      txID,
		Status:    domain.SwapStatusConfirmed,
		LatencyMS: latency.Milliseconds(),
	}
	if swapErr != nil {
		rec.Status = domain.SwapStatusFailed
		rec.Error = swapErr.Error()
	}

	// journal writes outlive a cancelled run context
	if err := s.journal.RecordSwap(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Warn("Failed to journal swap", slog.Any("error", err))
	}
}
