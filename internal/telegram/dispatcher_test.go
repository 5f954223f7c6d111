package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"sol_cycle/internal/domain"
	"sol_cycle/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testChat   = int64(1001)
	testWallet = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
	sendErr  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.sendErr
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent, "no message sent")
	return f.sent[len(f.sent)-1]
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeRunner struct {
	startErr error
	stopErr  error
	starts   int
	stops    int
	address  string
	status   domain.StatusSnapshot
	runID    string
}

func (r *fakeRunner) Start(context.Context, int64) error {
	r.starts++
	return r.startErr
}

func (r *fakeRunner) Stop() error {
	r.stops++
	return r.stopErr
}

func (r *fakeRunner) Status(context.Context) domain.StatusSnapshot { return r.status }

func (r *fakeRunner) WalletAddress() string { return r.address }

func (r *fakeRunner) RunID() string { return r.runID }

type fakeJournal struct {
	records []domain.SwapRecord
	err     error
	limit   int
	runID   string
}

func (j *fakeJournal) RecordSwap(context.Context, *domain.SwapRecord) error { return nil }

func (j *fakeJournal) RecentSwaps(_ context.Context, limit int) ([]domain.SwapRecord, error) {
	j.limit = limit
	return j.records, j.err
}

func (j *fakeJournal) SwapsByRun(_ context.Context, runID string) ([]domain.SwapRecord, error) {
	j.runID = runID
	return j.records, j.err
}

func testRunConfig() domain.RunConfig {
	return domain.RunConfig{
		BuyAmount:            decimal.RequireFromString("0.0105"),
		FeeAmount:            decimal.RequireFromString("0.0005"),
		SlippageBps:          200,
		QuoteAsset:           "So11111111111111111111111111111111111111112",
		TargetAsset:          "6TmL8DiBTvCgfwsfaR5WhSyEfaNV54qQKtpjgQS6pump",
		CycleCount:           3,
		MaxSimultaneousBuys:  1,
		MaxSimultaneousSells: 2,
		InterActionDelay:     15 * time.Second,
		InterCycleDelay:      30 * time.Second,
		InitialDelay:         60 * time.Second,
	}
}

type dispatcherHarness struct {
	sender  *fakeSender
	runner  *fakeRunner
	store   *service.ConfigStore
	journal *fakeJournal
	d       *Dispatcher
}

func newDispatcherHarness(allowed int64) *dispatcherHarness {
	h := &dispatcherHarness{
		sender:  &fakeSender{},
		runner:  &fakeRunner{address: testWallet},
		store:   service.NewConfigStore(testRunConfig()),
		journal: &fakeJournal{},
	}
	h.d = NewDispatcher(h.sender, h.runner, h.store, h.journal, allowed)
	return h
}

func command(chatID int64, text string) tgbotapi.Update {
	cmd := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

func text(chatID int64, s string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: s,
	}}
}

func callback(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		Data:    data,
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}

func TestDispatcher_StartCommandShowsMenu(t *testing.T) {
	h := newDispatcherHarness(0)
	h.d.HandleUpdate(context.Background(), command(testChat, "/start"))

	msg := h.sender.last(t)
	assert.Equal(t, testChat, msg.ChatID)
	assert.Equal(t, "Welcome! Please choose an option:", msg.Text)
	assert.IsType(t, tgbotapi.InlineKeyboardMarkup{}, msg.ReplyMarkup)
}

func TestDispatcher_RunAndStop(t *testing.T) {
	ctx := context.Background()

	t.Run("start", func(t *testing.T) {
		h := newDispatcherHarness(0)
		h.d.HandleUpdate(ctx, callback(testChat, cbStartCycles))
		assert.Equal(t, 1, h.runner.starts)
		assert.Equal(t, "🔄 Starting the buy and sell cycles...", h.sender.last(t).Text)
		assert.Len(t, h.sender.requests, 1, "callback must be answered")
	})

	t.Run("already running", func(t *testing.T) {
		h := newDispatcherHarness(0)
		h.runner.startErr = domain.ErrAlreadyRunning
		h.d.HandleUpdate(ctx, command(testChat, "/run"))
		assert.Equal(t, `🔄 Already running. Use "🛑 Stop Cycles" to stop the current process.`, h.sender.last(t).Text)
	})

	t.Run("start rejected", func(t *testing.T) {
		h := newDispatcherHarness(0)
		h.runner.startErr = &domain.ConfigError{Field: string(domain.FieldTargetAsset), Err: errors.New("target asset is not set")}
		h.d.HandleUpdate(ctx, command(testChat, "/run"))
		assert.True(t, strings.HasPrefix(h.sender.last(t).Text, "❌ Cannot start:"))
	})

	t.Run("stop", func(t *testing.T) {
		h := newDispatcherHarness(0)
		h.d.HandleUpdate(ctx, callback(testChat, cbStopCycles))
		assert.Equal(t, 1, h.runner.stops)
		assert.True(t, strings.HasPrefix(h.sender.last(t).Text, "🛑 Stopping the process..."))
	})

	t.Run("stop when idle", func(t *testing.T) {
		h := newDispatcherHarness(0)
		h.runner.stopErr = domain.ErrNotRunning
		h.d.HandleUpdate(ctx, command(testChat, "/stop"))
		assert.Equal(t, "🛑 No process is currently running.", h.sender.last(t).Text)
	})
}

func TestDispatcher_SettingFlow(t *testing.T) {
	ctx := context.Background()
	h := newDispatcherHarness(0)

	h.d.HandleUpdate(ctx, callback(testChat, cbSetBuyAmount))
	assert.Equal(t, settingPrompts[cbSetBuyAmount].prompt, h.sender.last(t).Text)

	h.d.HandleUpdate(ctx, text(testChat, " 0.5 "))
	msg := h.sender.last(t)
	assert.Equal(t, "✅ Buy amount set to 0.5 SOL.", msg.Text)
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok, "settings menu must follow a confirmation")
	assert.Equal(t, settingsMenu(), markup)
	assert.True(t, h.store.Snapshot().BuyAmount.Equal(decimal.RequireFromString("0.5")))

	// the pending input is consumed
	h.d.HandleUpdate(ctx, text(testChat, "0.7"))
	assert.Equal(t, "Use /start to open the menu or /help for commands.", h.sender.last(t).Text)
	assert.True(t, h.store.Snapshot().BuyAmount.Equal(decimal.RequireFromString("0.5")))
}

func TestDispatcher_SettingRejected(t *testing.T) {
	ctx := context.Background()
	h := newDispatcherHarness(0)

	tests := []struct {
		cb    string
		input string
	}{
		{cbSetBuyAmount, "abc"},
		{cbSetBuyAmount, "-1"},
		{cbSetSlippage, "150"},
		{cbSetCycles, "-1"},
		{cbSetInterval, "-5"},
		{cbSetSlippage, "184467440737095516.16"},
		{cbSetCycleInterval, "18446744074"},
	}

	before := h.store.Snapshot()
	for _, tt := range tests {
		h.d.HandleUpdate(ctx, callback(testChat, tt.cb))
		h.d.HandleUpdate(ctx, text(testChat, tt.input))
		msg := h.sender.last(t)
		assert.True(t, strings.HasPrefix(msg.Text, "❌ Invalid value, nothing changed:"), "%s=%q", tt.cb, tt.input)
		assert.Nil(t, msg.ReplyMarkup)
	}
	assert.Equal(t, before, h.store.Snapshot())
}

func TestDispatcher_SlippageAndDelayConfirmations(t *testing.T) {
	ctx := context.Background()
	h := newDispatcherHarness(0)

	h.d.HandleUpdate(ctx, callback(testChat, cbSetSlippage))
	h.d.HandleUpdate(ctx, text(testChat, "2.5"))
	assert.Equal(t, "✅ Slippage set to 2.5%.", h.sender.last(t).Text)
	assert.Equal(t, 250, h.store.Snapshot().SlippageBps)

	h.d.HandleUpdate(ctx, callback(testChat, cbSetSlippage))
	h.d.HandleUpdate(ctx, text(testChat, "0.33"))
	assert.Equal(t, "✅ Slippage set to 0.33%.", h.sender.last(t).Text)

	h.d.HandleUpdate(ctx, callback(testChat, cbSetCycleInterval))
	h.d.HandleUpdate(ctx, text(testChat, "45"))
	assert.Equal(t, "✅ Interval between cycles set to 45 seconds.", h.sender.last(t).Text)
}

func TestDispatcher_CommandCancelsPendingInput(t *testing.T) {
	ctx := context.Background()
	h := newDispatcherHarness(0)

	h.d.HandleUpdate(ctx, callback(testChat, cbSetCycles))
	h.d.HandleUpdate(ctx, command(testChat, "/cancel"))
	assert.Equal(t, "❌ Input cancelled.", h.sender.last(t).Text)

	h.d.HandleUpdate(ctx, text(testChat, "9"))
	assert.Equal(t, 3, h.store.Snapshot().CycleCount)

	h.d.HandleUpdate(ctx, command(testChat, "/cancel"))
	assert.Equal(t, "👌 Nothing pending.", h.sender.last(t).Text)
}

func TestDispatcher_ForeignChatIgnored(t *testing.T) {
	ctx := context.Background()
	h := newDispatcherHarness(testChat)

	h.d.HandleUpdate(ctx, command(999, "/run"))
	h.d.HandleUpdate(ctx, callback(999, cbStartCycles))

	assert.Zero(t, h.runner.starts)
	assert.Zero(t, h.sender.count())
	assert.Empty(t, h.sender.requests)
}

func TestDispatcher_Wallet(t *testing.T) {
	ctx := context.Background()

	h := newDispatcherHarness(0)
	h.d.HandleUpdate(ctx, callback(testChat, cbShowWallet))
	msg := h.sender.last(t)
	assert.Equal(t, "📜 Wallet Address 👇👇👇👇👇", msg.Text)
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, testWallet, markup.InlineKeyboard[0][0].Text)

	h.d.HandleUpdate(ctx, callback(testChat, cbCopyWallet))
	assert.Equal(t, "📝 Wallet address:\n"+testWallet, h.sender.last(t).Text)

	h.runner.address = ""
	h.d.HandleUpdate(ctx, command(testChat, "/wallet"))
	assert.True(t, strings.HasPrefix(h.sender.last(t).Text, "⚠️ Wallet is not available."))
}

func TestDispatcher_Status(t *testing.T) {
	h := newDispatcherHarness(0)
	h.runner.status = domain.StatusSnapshot{
		Config:                testRunConfig(),
		State:                 domain.StateRunning,
		QuoteBalance:          decimal.RequireFromString("1.1"),
		TargetBalance:         decimal.RequireFromString("250"),
		EstimatedTransactions: 1234,
		CyclesCompleted:       2,
		SwapsSucceeded:        5,
		SwapsFailed:           1,
	}
	h.d.HandleUpdate(context.Background(), command(testChat, "/status"))

	got := h.sender.last(t).Text
	for _, want := range []string{
		"💸 SOL Balance: 1.1",
		"💸 Token Balance: 250",
		"🔄 Estimated Transactions: 1,234",
		"📈 Slippage: 2%",
		"⏳ Cycle Interval: 30 seconds",
		"🚀 Running: Yes (RUNNING)",
		"📈 Swaps: 5 ok / 1 failed, 2 cycles completed",
	} {
		assert.Contains(t, got, want)
	}
}

func TestDispatcher_History(t *testing.T) {
	ctx := context.Background()

	t.Run("records", func(t *testing.T) {
		h := newDispatcherHarness(0)
		h.journal.records = []domain.SwapRecord{
			{ID: 2, Cycle: 1, Side: domain.SideSell, Amount: decimal.NewFromInt(50), Status: domain.SwapStatusFailed, Error: "swap failed at confirm: timeout", CreatedAt: time.Now()},
			{ID: 1, Cycle: 1, Side: domain.SideBuy, Amount: decimal.RequireFromString("0.01"), TxID: "sig1", Status: domain.SwapStatusConfirmed, CreatedAt: time.Now()},
		}
		h.d.HandleUpdate(ctx, command(testChat, "/history 5"))

		got := h.sender.last(t).Text
		assert.Equal(t, 5, h.journal.limit)
		assert.Contains(t, got, "⚠️ #2 cycle 1 SELL 50")
		assert.Contains(t, got, "✅ #1 cycle 1 BUY 0.01")
		assert.Contains(t, got, "tx sig1")
		assert.Contains(t, got, "swap failed at confirm: timeout")
	})

	t.Run("default limit", func(t *testing.T) {
		h := newDispatcherHarness(0)
		h.d.HandleUpdate(ctx, callback(testChat, cbHistory))
		assert.Equal(t, defaultHistoryLimit, h.journal.limit)
		assert.Equal(t, "📜 No swaps recorded yet.", h.sender.last(t).Text)
	})

	t.Run("capped at message limit", func(t *testing.T) {
		h := newDispatcherHarness(0)
		for i := 50; i > 0; i-- {
			h.journal.records = append(h.journal.records, domain.SwapRecord{
				ID:        uint(i),
				Cycle:     i,
				Side:      domain.SideSell,
				Amount:    decimal.RequireFromString("123456.789"),
				TxID:      strings.Repeat("5", 88),
				Status:    domain.SwapStatusFailed,
				Error:     "swap failed at submit: " + strings.Repeat("custom program error 0x1771 ", 4),
				CreatedAt: time.Now(),
			})
		}
		h.d.HandleUpdate(ctx, command(testChat, "/history 50"))

		got := h.sender.last(t).Text
		assert.LessOrEqual(t, utf8.RuneCountInString(got), maxMessageLen)
		assert.Contains(t, got, "⚠️ #50 cycle 50")
		assert.Regexp(t, `… and \d+ more$`, got)
	})

	t.Run("journal error", func(t *testing.T) {
		h := newDispatcherHarness(0)
		h.journal.err = errors.New("disk I/O error")
		h.d.HandleUpdate(ctx, command(testChat, "/history"))
		assert.Equal(t, "⚠️ Could not read swap history.", h.sender.last(t).Text)
	})

	t.Run("current run", func(t *testing.T) {
		h := newDispatcherHarness(0)
		h.runner.runID = "run-42"
		h.journal.records = []domain.SwapRecord{
			{ID: 1, RunID: "run-42", Cycle: 1, Side: domain.SideBuy, Amount: decimal.RequireFromString("0.01"), TxID: "sig1", Status: domain.SwapStatusConfirmed, CreatedAt: time.Now()},
			{ID: 2, RunID: "run-42", Cycle: 1, Side: domain.SideSell, Amount: decimal.NewFromInt(50), Status: domain.SwapStatusFailed, Error: "boom", CreatedAt: time.Now()},
		}
		h.d.HandleUpdate(ctx, command(testChat, "/history run"))

		got := h.sender.last(t).Text
		assert.Equal(t, "run-42", h.journal.runID)
		assert.True(t, strings.HasPrefix(got, "📈 2 swaps: 1 ok / 1 failed\n📜 Swaps of run run-42:"), got)
		assert.Contains(t, got, "✅ #1 cycle 1 BUY 0.01")
		assert.Zero(t, h.journal.limit, "run history must not fall back to recent swaps")
	})

	t.Run("no run yet", func(t *testing.T) {
		h := newDispatcherHarness(0)
		h.d.HandleUpdate(ctx, command(testChat, "/history run"))
		assert.Equal(t, "ℹ️ No run has started yet.", h.sender.last(t).Text)
		assert.Empty(t, h.journal.runID)
	})

	t.Run("disabled", func(t *testing.T) {
		h := newDispatcherHarness(0)
		d := NewDispatcher(h.sender, h.runner, h.store, nil, 0)
		d.HandleUpdate(ctx, command(testChat, "/history"))
		assert.Equal(t, "ℹ️ Swap journal is disabled.", h.sender.last(t).Text)
	})
}

func TestDispatcher_RunStopsOnContextCancel(t *testing.T) {
	h := newDispatcherHarness(0)
	updates := make(chan tgbotapi.Update, 1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.d.Run(ctx, updates)
		close(done)
	}()

	updates <- command(testChat, "/help")
	require.Eventually(t, func() bool { return h.sender.count() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}

func TestNotifier_SendFailureIsSwallowed(t *testing.T) {
	s := &fakeSender{sendErr: errors.New("Forbidden: bot was blocked by the user")}
	n := NewNotifier(s)
	assert.NotPanics(t, func() { n.Notify(testChat, "hello") })
	assert.Equal(t, 1, s.count())
}
