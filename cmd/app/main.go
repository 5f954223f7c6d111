package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"sol_cycle/internal/app"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	_ "net/http/pprof" // For pprof profiling
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration")
	flag.Parse()

	// 1. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Close()

	cfg := bootstrap.Config

	// 2. Pprof Server (opt-in)
	if addr := cfg.Debug.PprofAddr; addr != "" {
		go func() {
			slog.Info("🕵️ Pprof server started", slog.String("addr", addr))
			if err := http.ListenAndServe(addr, nil); err != nil {
				slog.Error("Pprof server failed", slog.Any("error", err))
			}
		}()
	}

	if err := bootstrap.Wire(); err != nil {
		slog.Error("❌ Wiring failed", slog.Any("error", err))
		bootstrap.Close()
		os.Exit(1)
	}

	// 3. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Telegram long polling
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bootstrap.Bot.GetUpdatesChan(u)

	done := make(chan struct{})
	go func() {
		defer close(done)
		bootstrap.Dispatcher.Run(ctx, updates)
	}()

	if addr := bootstrap.Sequencer.WalletAddress(); addr != "" {
		slog.InfoContext(ctx, "👛 Trading wallet", slog.String("address", addr))
	}
	slog.InfoContext(ctx, "✨ sol_cycle fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()

	slog.Info("👋 Shutting down gracefully...")
	bootstrap.Bot.StopReceivingUpdates()
	<-done

	// ctx is already cancelled, so a running cycle aborts at its next wait
	_ = bootstrap.Sequencer.Stop()
	bootstrap.Sequencer.Wait()

	slog.Info("✅ Shutdown complete")
}
