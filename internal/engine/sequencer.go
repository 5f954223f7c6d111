package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"sol_cycle/internal/domain"
	"sol_cycle/internal/infra"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConfigSource provides the current run parameters.
type ConfigSource interface {
	Snapshot() domain.RunConfig
}

// Option configures optional Sequencer collaborators.
type Option func(*Sequencer)

// WithJournal records every swap action outcome.
func WithJournal(j domain.SwapJournal) Option {
	return func(s *Sequencer) { s.journal = j }
}

// WithMetrics overrides the process-wide metrics (tests).
func WithMetrics(m *infra.Metrics) Option {
	return func(s *Sequencer) { s.metrics = m }
}

// WithSleep replaces the timed wait (tests).
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Sequencer) { s.sleep = fn }
}

// Sequencer drives buy/sell cycles. At most one run is active at a time.
type Sequencer struct {
	cfg        ConfigSource
	gateway    domain.SwapGateway
	ledger     domain.LedgerClient
	notifier   domain.Notifier
	loadWallet domain.WalletLoader
	journal    domain.SwapJournal
	metrics    *infra.Metrics
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *slog.Logger

	state atomic.Int32 // domain.RunState

	mu         sync.Mutex // guards lifecycle transitions and the fields below
	token      *runToken
	runID      string
	walletAddr string

	wg sync.WaitGroup
}

// NewSequencer creates a new sequencer instance.
func NewSequencer(
	cfg ConfigSource,
	gateway domain.SwapGateway,
	ledger domain.LedgerClient,
	notifier domain.Notifier,
	loadWallet domain.WalletLoader,
	opts ...Option,
) *Sequencer {
	s := &Sequencer{
		cfg:        cfg,
		gateway:    gateway,
		ledger:     ledger,
		notifier:   notifier,
		loadWallet: loadWallet,
		metrics:    infra.GlobalMetrics,
		sleep:      infra.SleepContext,
		logger:     slog.Default().With(slog.String("module", "sequencer")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Sequencer) State() domain.RunState {
	return domain.RunState(s.state.Load())
}

// RunID returns the identifier of the current (or last) run.
func (s *Sequencer) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// Start begins a run in the background and reports progress to dest.
// It returns domain.ErrAlreadyRunning if a run is active. ctx bounds the
// whole run and should live as long as the process.
func (s *Sequencer) Start(ctx context.Context, dest int64) error {
	if s.cfg.Snapshot().TargetAsset == "" {
		return &domain.ConfigError{Field: string(domain.FieldTargetAsset), Err: errors.New("target asset is not set")}
	}

	s.mu.Lock()
	if !s.state.CompareAndSwap(int32(domain.StateIdle), int32(domain.StateStarting)) {
		s.mu.Unlock()
		return domain.ErrAlreadyRunning
	}
	tok := newRunToken()
	s.token = tok
	s.runID = uuid.NewString()
	runID := s.runID
	s.mu.Unlock()

	s.metrics.RecordRunStarted()
	s.logger.Info("Run started", slog.String("run_id", runID), slog.Int64("dest", dest))

	s.wg.Add(1)
	go s.run(ctx, dest, tok, runID)
	return nil
}

// Stop requests the active run to end. The request is observed before the
// next cycle begins (or during the initial wait); the current cycle always
// completes. Returns domain.ErrNotRunning when idle.
func (s *Sequencer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		cur := s.State()
		switch cur {
		case domain.StateIdle:
			return domain.ErrNotRunning
		case domain.StateStopping:
			return nil
		}
		if s.state.CompareAndSwap(int32(cur), int32(domain.StateStopping)) {
			s.token.stop()
			s.logger.Info("Stop requested", slog.String("run_id", s.runID), slog.String("from", cur.String()))
			return nil
		}
	}
}

// Wait blocks until the background run (if any) has returned.
func (s *Sequencer) Wait() {
	s.wg.Wait()
}

func (s *Sequencer) run(ctx context.Context, dest int64, tok *runToken, runID string) {
	defer s.wg.Done()
	defer s.state.Store(int32(domain.StateIdle))
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
			s.fatal(dest, runID, &domain.FatalSequencerError{Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	if err := s.execute(ctx, dest, tok, runID); err != nil {
		s.fatal(dest, runID, err)
	}
}

func (s *Sequencer) fatal(dest int64, runID string, err error) {
	s.metrics.RecordRunFatal()
	s.logger.Error("Run aborted", slog.String("run_id", runID), slog.Any("error", err))
	s.notify(dest, fmt.Sprintf("⚠️ Error in main execution: %v", err))
}

// execute runs the initial wait and all cycles. Only errors that must abort
// the run are returned.
func (s *Sequencer) execute(ctx context.Context, dest int64, tok *runToken, runID string) error {
	wallet, err := s.loadWallet()
	if err != nil {
		return &domain.FatalSequencerError{Err: fmt.Errorf("load wallet: %w", err)}
	}
	s.setWalletAddress(wallet.Address())

	initial := s.cfg.Snapshot().InitialDelay
	s.notify(dest, fmt.Sprintf("🔄 Initial cycle wait interval: %s", formatSeconds(initial)))
	if err := s.waitInitial(ctx, tok, initial); err != nil && ctx.Err() != nil {
		s.notify(dest, "🛑 Run aborted: shutting down.")
		return nil
	}

	s.state.CompareAndSwap(int32(domain.StateStarting), int32(domain.StateRunning))

	completed := 0
	for i := 0; ; i++ {
		total := s.cfg.Snapshot().CycleCount
		if i >= total {
			break
		}
		if tok.stopped() {
			s.notify(dest, fmt.Sprintf("🛑 Cycles stopped after %d of %d.", completed, total))
			return nil
		}

		if err := s.runCycle(ctx, dest, wallet, runID, i+1); err != nil {
			if ctx.Err() != nil {
				s.notify(dest, "🛑 Run aborted: shutting down.")
				return nil
			}
			return err
		}
		completed++
		s.metrics.RecordCycle()
	}

	s.notify(dest, "✅ All cycles completed.")
	s.logger.Info("Run completed", slog.String("run_id", runID), slog.Int("cycles", completed))
	return nil
}

// waitInitial is the only wait interrupted by Stop.
func (s *Sequencer) waitInitial(ctx context.Context, tok *runToken, d time.Duration) error {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-tok.done:
			cancel()
		case <-waitCtx.Done():
		}
	}()

	return s.sleep(waitCtx, d)
}

// runCycle performs one buy phase, balance check and sell phase.
// Swap failures are reported and never returned.
func (s *Sequencer) runCycle(ctx context.Context, dest int64, wallet domain.Wallet, runID string, cycle int) error {
	cfg := s.cfg.Snapshot()

	// Buy phase
	s.notify(dest, fmt.Sprintf("🔄 Cycle %d: Performing buy...", cycle))
	for j := 0; j < cfg.MaxSimultaneousBuys; j++ {
		action := s.cfg.Snapshot()
		s.swap(ctx, dest, wallet, runID, cycle, domain.SideBuy, action.QuoteAsset, action.TargetAsset, action.BuyAmount)
		if err := s.sleep(ctx, action.InterActionDelay); err != nil {
			return err
		}
	}

	// Balance check; the sell phase is sized from this snapshot
	sellCfg := s.cfg.Snapshot()
	holding := domain.WholeUnits(s.tokenBalance(ctx, wallet.Address(), sellCfg.TargetAsset))

	// Sell phase
	sells := sellCfg.MaxSimultaneousSells
	if holding.IsPositive() {
		amount := domain.SplitEvenly(holding, sells)
		s.notify(dest, fmt.Sprintf("🔄 Cycle %d: Performing sell...", cycle))
		for k := 0; k < sells; k++ {
			action := s.cfg.Snapshot()
			s.swap(ctx, dest, wallet, runID, cycle, domain.SideSell, sellCfg.TargetAsset, action.QuoteAsset, amount)
			if err := s.sleep(ctx, action.InterActionDelay); err != nil {
				return err
			}
		}
	} else {
		s.notify(dest, fmt.Sprintf("🔄 Cycle %d: No balance available to sell.", cycle))
	}

	end := s.cfg.Snapshot()
	s.notify(dest, fmt.Sprintf("🕰️ Duration for cycle %d: %s", cycle, formatSeconds(end.CycleDuration())))

	return s.sleep(ctx, end.InterCycleDelay)
}

// tokenBalance never fails; query errors read as an empty holding.
func (s *Sequencer) tokenBalance(ctx context.Context, owner, asset string) decimal.Decimal {
	bal, err := s.ledger.TokenBalance(ctx, owner, asset)
	if err != nil {
		s.logger.Warn("Token balance query failed", slog.String("asset", asset), slog.Any("error", err))
		return decimal.Zero
	}
	return bal
}

func (s *Sequencer) notify(dest int64, text string) {
	s.logger.Info("NOTIFY", slog.Int64("dest", dest), slog.String("text", text))
	if s.notifier != nil {
		s.notifier.Notify(dest, text)
	}
}

func (s *Sequencer) setWalletAddress(addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.walletAddr = addr
}

func (s *Sequencer) walletAddress() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.walletAddr
}

// runToken is the cooperative cancellation token of one run.
type runToken struct {
	done chan struct{}
	once sync.Once
}

func newRunToken() *runToken {
	return &runToken{done: make(chan struct{})}
}

func (t *runToken) stop() {
	t.once.Do(func() { close(t.done) })
}

func (t *runToken) stopped() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// formatSeconds renders a duration the way operators type it.
func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%g seconds", d.Seconds())
}
