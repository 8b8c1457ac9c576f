package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kirillm/hft-bot/internal/api"
	"github.com/kirillm/hft-bot/internal/config"
	"github.com/kirillm/hft-bot/internal/domain"
	"github.com/kirillm/hft-bot/internal/engine"
	"github.com/kirillm/hft-bot/internal/events"
	"github.com/kirillm/hft-bot/internal/exchange"
	"github.com/kirillm/hft-bot/internal/lifecycle"
	"github.com/kirillm/hft-bot/internal/observability"
	"github.com/kirillm/hft-bot/internal/storage"
	"github.com/kirillm/hft-bot/internal/telegram"
	"github.com/kirillm/hft-bot/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting hft-bot: symbol=%s interval=%s", cfg.Trading.Symbol, cfg.Trading.FetchInterval)

	// Журнал сделок: Postgres при DB_ENABLED, иначе JSON-файл
	var store storage.TradeStore
	if cfg.Database.Enabled {
		pg, err := storage.NewPostgresStore(
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.DBName,
			cfg.Database.SSLMode,
		)
		if err != nil {
			logger.Error("Failed to connect to database: %v", err)
			os.Exit(1)
		}
		defer pg.Close()
		store = pg
		logger.Info("Trade log backed by PostgreSQL at %s:%d", cfg.Database.Host, cfg.Database.Port)
	} else {
		store = storage.NewFileStore(cfg.Trading.TradeLogFile)
		logger.Info("Trade log backed by file %s", cfg.Trading.TradeLogFile)
	}

	// Настройки: снапшот с прошлого запуска поверх значений из окружения
	settings := domain.EngineSettings{
		APIKey:          cfg.BingX.APIKey,
		SecretKey:       cfg.BingX.APISecret,
		DemoModeEnabled: cfg.Trading.DemoModeEnabled,
		OrderAmountUSDT: cfg.Trading.OrderAmountUSDT,
		Leverage:        cfg.Trading.Leverage,
		TPPercent:       cfg.Trading.TPPercent,
		SLPercent:       cfg.Trading.SLPercent,
	}
	if saved, found, err := storage.LoadSettings(cfg.Trading.SettingsFile); err != nil {
		logger.Warn("Failed to read settings snapshot: %v", err)
	} else if found {
		saved.APIKey = settings.APIKey
		saved.SecretKey = settings.SecretKey
		settings = saved
		logger.Info("Restored settings snapshot from %s", cfg.Trading.SettingsFile)
	}

	bybit := exchange.NewBybitClient(cfg.Bybit.BaseURL)
	bingx := exchange.NewBingXClient(cfg.BingX.APIKey, cfg.BingX.APISecret, cfg.BingX.BaseURL)

	ring := events.NewRing(domain.MaxRecentEvents)

	var notifier *telegram.Notifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		notifier, err = telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)
		if err != nil {
			logger.Warn("Telegram notifier disabled: %v", err)
			notifier = nil
		}
	}

	lifecycleNotify := func(message string) {
		ring.Push(message)
		if notifier != nil {
			notifier.Send(message)
		}
	}
	engineNotify := func(message string) {
		if notifier != nil {
			notifier.Send(message)
		}
	}

	lc := lifecycle.New(store, bingx, logger, lifecycleNotify)

	restored, err := lc.Restore()
	if err != nil {
		logger.Error("Failed to restore trade log: %v", err)
		os.Exit(1)
	}
	if restored > 0 {
		logger.Info("Restored %d active trade(s) from log", restored)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Торгуем только тем, что котируется на Bybit и торгуется на BingX
	symbols := bootstrapSymbols(ctx, bybit, bingx, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	eng := engine.New(engine.Config{
		Symbol:           cfg.Trading.Symbol,
		Interval:         cfg.Trading.FetchInterval,
		TriggerThreshold: cfg.Trading.TriggerPercentage,
		SettingsFile:     cfg.Trading.SettingsFile,
		Symbols:          symbols,
	}, bybit, bingx, lc, ring, metrics, logger, engineNotify, settings)

	// Статус связности из снапшота не наследуется: проверяем заново на
	// каждом старте, при провале real-режим принудительно выключается
	eng.VerifyConnectivity(ctx)

	go eng.Run(ctx)

	server := api.NewServer(logger, eng, lc, registry, cfg.Server.Port)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed: %v", err)
	}
}

// bootstrapSymbols собирает пересечение инструментов обеих бирж.
// Любой сбой не фатален: без списка проверка символа в движке
// отключается.
func bootstrapSymbols(ctx context.Context, bybit *exchange.BybitClient, bingx *exchange.BingXClient, logger *utils.Logger) []string {
	bootstrapCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	bybitSymbols, err := bybit.Symbols(bootstrapCtx)
	if err != nil {
		logger.Warn("Failed to list Bybit symbols: %v", err)
		return nil
	}

	bingxSymbols, err := bingx.Symbols(bootstrapCtx)
	if err != nil {
		logger.Warn("Failed to list BingX symbols: %v", err)
		return nil
	}

	common := exchange.CommonSymbols(bybitSymbols, bingxSymbols)
	logger.Info("Symbol bootstrap: %d common instruments", len(common))
	return common
}
