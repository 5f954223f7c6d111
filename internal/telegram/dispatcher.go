package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"sol_cycle/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const defaultHistoryLimit = 10

// Runner controls the cycle sequencer.
type Runner interface {
	Start(ctx context.Context, dest int64) error
	Stop() error
	Status(ctx context.Context) domain.StatusSnapshot
	WalletAddress() string
	RunID() string
}

// Settings is the mutable run configuration.
type Settings interface {
	Snapshot() domain.RunConfig
	ApplyText(field domain.Field, text string) error
}

// Dispatcher turns operator messages and button presses into settings
// changes and sequencer calls.
type Dispatcher struct {
	api           Sender
	notifier      *Notifier
	runner        Runner
	settings      Settings
	journal       domain.SwapJournal // optional
	allowedChatID int64
	logger        *slog.Logger

	mu      sync.Mutex
	pending map[int64]domain.Field // chat -> field awaiting a text value
}

// NewDispatcher creates a dispatcher. allowedChatID 0 accepts every chat.
func NewDispatcher(api Sender, runner Runner, settings Settings, journal domain.SwapJournal, allowedChatID int64) *Dispatcher {
	return &Dispatcher{
		api:           api,
		notifier:      NewNotifier(api),
		runner:        runner,
		settings:      settings,
		journal:       journal,
		allowedChatID: allowedChatID,
		logger:        slog.Default().With(slog.String("module", "dispatcher")),
		pending:       make(map[int64]domain.Field),
	}
}

// Run consumes updates until ctx is done or the channel closes.
func (d *Dispatcher) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	d.logger.Info("Dispatcher started", slog.Int64("allowed_chat_id", d.allowedChatID))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Dispatcher stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			d.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes a single update.
func (d *Dispatcher) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		d.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		d.handleMessage(ctx, update.Message)
	}
}

func (d *Dispatcher) allowed(chatID int64) bool {
	return d.allowedChatID == 0 || chatID == d.allowedChatID
}

func (d *Dispatcher) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	if !d.allowed(chatID) {
		d.logger.Warn("Ignoring callback from foreign chat", slog.Int64("chat_id", chatID))
		return
	}

	// stops the client-side spinner
	if _, err := d.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		d.logger.Debug("Callback answer failed", slog.Any("error", err))
	}

	if p, ok := settingPrompts[cb.Data]; ok {
		d.setPending(chatID, p.field)
		d.reply(chatID, p.prompt)
		return
	}

	switch cb.Data {
	case cbStartCycles:
		d.startCycles(ctx, chatID)
	case cbStopCycles:
		d.stopCycles(chatID)
	case cbStatus:
		d.showStatus(ctx, chatID)
	case cbSettings:
		d.notifier.sendWithMarkup(chatID, "Settings:", settingsMenu())
	case cbBackToMain:
		d.showMainMenu(chatID)
	case cbShowWallet:
		d.showWallet(chatID)
	case cbCopyWallet:
		d.copyWallet(chatID)
	case cbHistory:
		d.showHistory(ctx, chatID, defaultHistoryLimit)
	case cbHelp:
		d.reply(chatID, helpText)
	default:
		d.logger.Warn("Unknown callback", slog.String("data", cb.Data))
	}
}

func (d *Dispatcher) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID
	if !d.allowed(chatID) {
		d.logger.Warn("Ignoring message from foreign chat", slog.Int64("chat_id", chatID))
		return
	}

	if msg.IsCommand() {
		// any command abandons a pending input
		_, hadPending := d.takePending(chatID)
		if msg.Command() == "cancel" {
			if hadPending {
				d.reply(chatID, "❌ Input cancelled.")
			} else {
				d.reply(chatID, "👌 Nothing pending.")
			}
			return
		}
		d.handleCommand(ctx, chatID, msg.Command(), msg.CommandArguments())
		return
	}

	text := strings.TrimSpace(msg.Text)
	if field, ok := d.takePending(chatID); ok {
		d.applySetting(chatID, field, text)
		return
	}
	if text != "" {
		d.reply(chatID, "Use /start to open the menu or /help for commands.")
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, chatID int64, cmd, args string) {
	switch cmd {
	case "start", "menu":
		d.showMainMenu(chatID)
	case "run":
		d.startCycles(ctx, chatID)
	case "stop":
		d.stopCycles(chatID)
	case "status":
		d.showStatus(ctx, chatID)
	case "settings":
		d.notifier.sendWithMarkup(chatID, "Settings:", settingsMenu())
	case "wallet":
		d.showWallet(chatID)
	case "history":
		if strings.TrimSpace(args) == "run" {
			d.showRunHistory(ctx, chatID)
			return
		}
		limit := defaultHistoryLimit
		if n, err := strconv.Atoi(strings.TrimSpace(args)); err == nil && n > 0 {
			limit = min(n, 50)
		}
		d.showHistory(ctx, chatID, limit)
	case "help", "commands":
		d.reply(chatID, helpText)
	default:
		d.reply(chatID, "❌ Unknown command. Use /help.")
	}
}

func (d *Dispatcher) showMainMenu(chatID int64) {
	d.notifier.sendWithMarkup(chatID, "Welcome! Please choose an option:", mainMenu())
}

func (d *Dispatcher) startCycles(ctx context.Context, chatID int64) {
	err := d.runner.Start(ctx, chatID)
	switch {
	case err == nil:
		d.reply(chatID, "🔄 Starting the buy and sell cycles...")
	case errors.Is(err, domain.ErrAlreadyRunning):
		d.reply(chatID, `🔄 Already running. Use "🛑 Stop Cycles" to stop the current process.`)
	default:
		d.reply(chatID, "❌ Cannot start: "+err.Error())
	}
}

func (d *Dispatcher) stopCycles(chatID int64) {
	if err := d.runner.Stop(); errors.Is(err, domain.ErrNotRunning) {
		d.reply(chatID, "🛑 No process is currently running.")
		return
	}
	d.reply(chatID, "🛑 Stopping the process... the current cycle will finish first.")
}

func (d *Dispatcher) showStatus(ctx context.Context, chatID int64) {
	d.reply(chatID, formatStatus(d.runner.Status(ctx)))
}

func (d *Dispatcher) showWallet(chatID int64) {
	addr := d.runner.WalletAddress()
	if addr == "" {
		d.reply(chatID, "⚠️ Wallet is not available. Check the private key configuration.")
		return
	}
	d.notifier.sendWithMarkup(chatID, "📜 Wallet Address 👇👇👇👇👇", walletKeyboard(addr))
}

// copyWallet sends the address as plain text so it can be long-pressed and copied.
func (d *Dispatcher) copyWallet(chatID int64) {
	addr := d.runner.WalletAddress()
	if addr == "" {
		d.reply(chatID, "⚠️ Wallet is not available.")
		return
	}
	d.reply(chatID, "📝 Wallet address:\n"+addr)
}

func (d *Dispatcher) showHistory(ctx context.Context, chatID int64, limit int) {
	if d.journal == nil {
		d.reply(chatID, "ℹ️ Swap journal is disabled.")
		return
	}
	records, err := d.journal.RecentSwaps(ctx, limit)
	if err != nil {
		d.logger.Error("Failed to read swap journal", slog.Any("error", err))
		d.reply(chatID, "⚠️ Could not read swap history.")
		return
	}
	d.reply(chatID, formatHistory("📜 Recent swaps:", records))
}

// showRunHistory lists every swap of the current (or last) run in execution order.
func (d *Dispatcher) showRunHistory(ctx context.Context, chatID int64) {
	if d.journal == nil {
		d.reply(chatID, "ℹ️ Swap journal is disabled.")
		return
	}
	runID := d.runner.RunID()
	if runID == "" {
		d.reply(chatID, "ℹ️ No run has started yet.")
		return
	}
	records, err := d.journal.SwapsByRun(ctx, runID)
	if err != nil {
		d.logger.Error("Failed to read swap journal", slog.String("run_id", runID), slog.Any("error", err))
		d.reply(chatID, "⚠️ Could not read swap history.")
		return
	}
	title := formatRunSummary(records) + "\n📜 Swaps of run " + runID + ":"
	d.reply(chatID, formatHistory(title, records))
}

func (d *Dispatcher) applySetting(chatID int64, field domain.Field, text string) {
	if err := d.settings.ApplyText(field, text); err != nil {
		d.logger.Info("Rejected setting", slog.String("field", string(field)), slog.Any("error", err))
		d.reply(chatID, "❌ Invalid value, nothing changed: "+err.Error())
		return
	}
	d.logger.Info("Setting updated", slog.String("field", string(field)), slog.String("value", text))
	// keep the settings menu at hand for the next change
	d.notifier.sendWithMarkup(chatID, formatSetting(field, d.settings.Snapshot()), settingsMenu())
}

func (d *Dispatcher) setPending(chatID int64, field domain.Field) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending[chatID] = field
}

// takePending returns and clears the field awaiting input for chatID.
func (d *Dispatcher) takePending(chatID int64) (domain.Field, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	field, ok := d.pending[chatID]
	delete(d.pending, chatID)
	return field, ok
}

func (d *Dispatcher) reply(chatID int64, text string) {
	d.notifier.Notify(chatID, text)
}
