package app

import (
	"log/slog"

	"sol_cycle/internal/domain"
	"sol_cycle/internal/engine"
	"sol_cycle/internal/infra"
	"sol_cycle/internal/infra/chain"
	"sol_cycle/internal/infra/storage"
	"sol_cycle/internal/infra/swap"
	"sol_cycle/internal/service"
	"sol_cycle/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const defaultConfigPath = "configs/config.yaml"

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	Journal    *storage.Journal // nil when disabled
	Settings   *service.ConfigStore
	Bot        *tgbotapi.BotAPI
	Sequencer  *engine.Sequencer
	Dispatcher *telegram.Dispatcher
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configuration, sets up logging and opens the swap journal.
func (b *Bootstrap) Initialize(configPath string) error {
	if configPath == "" {
		configPath = defaultConfigPath
	}
	slog.Info("🚀 Bootstrapping sol_cycle...", slog.String("config", configPath))

	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Swap journal (optional)
	if cfg.Storage.JournalPath != "" {
		journal, err := storage.NewJournal(cfg.Storage.JournalPath)
		if err != nil {
			return err
		}
		b.Journal = journal
		slog.Info("✅ Swap journal opened", slog.String("path", cfg.Storage.JournalPath))
	} else {
		slog.Info("ℹ️ Swap journal disabled")
	}

	return nil
}

// Wire builds the chain, gateway, telegram and sequencer components.
func (b *Bootstrap) Wire() error {
	cfg := b.Config

	b.Settings = service.NewConfigStore(cfg.RunConfig())
	b.Settings.SetAssetValidator(chain.ValidateAddress)

	ledger := chain.NewLedger(cfg)
	gateway := swap.NewClient(cfg)
	slog.Info("✅ Chain and swap gateway ready",
		slog.String("rpc", cfg.Solana.RPCURL),
		slog.String("swap_api", cfg.Swap.BaseURL))

	bot, err := telegram.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return err
	}
	b.Bot = bot
	slog.Info("✅ Telegram bot authorized", slog.String("username", bot.Self.UserName))

	// a typed nil pointer must not reach the interfaces below
	var journal domain.SwapJournal
	opts := []engine.Option{}
	if b.Journal != nil {
		journal = b.Journal
		opts = append(opts, engine.WithJournal(b.Journal))
	}

	b.Sequencer = engine.NewSequencer(
		b.Settings,
		gateway,
		ledger,
		telegram.NewNotifier(bot),
		chain.NewWalletLoader(cfg.Solana.PrivateKey),
		opts...,
	)
	b.Dispatcher = telegram.NewDispatcher(bot, b.Sequencer, b.Settings, journal, cfg.Telegram.AllowedChatID)

	return nil
}

// Close releases resources opened by Initialize.
func (b *Bootstrap) Close() {
	if b.Journal != nil {
		if err := b.Journal.Close(); err != nil {
			slog.Warn("Failed to close swap journal", slog.Any("error", err))
		}
	}
}
