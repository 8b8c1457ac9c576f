// Package engine содержит торговый цикл: опрос котировок, детекция
// сигнала и управление настройками через контрольную поверхность.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kirillm/hft-bot/internal/domain"
	"github.com/kirillm/hft-bot/internal/events"
	"github.com/kirillm/hft-bot/internal/lifecycle"
	"github.com/kirillm/hft-bot/internal/observability"
	"github.com/kirillm/hft-bot/internal/signal"
	"github.com/kirillm/hft-bot/internal/storage"
	"github.com/kirillm/hft-bot/pkg/utils"
)

// PriceFeed поставляет последнюю цену инструмента
type PriceFeed interface {
	LatestPrice(ctx context.Context, symbol string) (float64, error)
}

// ExecutionGateway - торговый API биржи исполнения
type ExecutionGateway interface {
	SetCredentials(apiKey, apiSecret string)
	VerifyConnectivity(ctx context.Context) (bool, string)
	SetLeverage(ctx context.Context, symbol string, leverage int, positionSide string) error
}

// Config задает параметры цикла при старте
type Config struct {
	Symbol           string
	Interval         time.Duration
	TriggerThreshold float64 // доля, 0.0015 = 0.15%
	SettingsFile     string  // пустая строка отключает персист настроек
	Symbols          []string
}

// Engine опрашивает котировки с фиксированным интервалом, сравнивает
// движение от базовой цены с порогом и открывает позиции через lifecycle.
// Все мутаторы потокобезопасны.
type Engine struct {
	feed      PriceFeed
	gateway   ExecutionGateway
	lifecycle *lifecycle.Lifecycle
	ring      *events.Ring
	metrics   *observability.Metrics
	logger    *utils.Logger
	notify    func(string)

	interval     time.Duration
	threshold    float64
	settingsFile string

	mu         sync.Mutex
	symbol     string
	symbols    []string
	baseline   float64 // 0 - базовая цена не установлена
	lastPrice  float64
	confidence float64
	settings   domain.EngineSettings
}

// New собирает движок. notify может быть nil.
func New(cfg Config, feed PriceFeed, gateway ExecutionGateway, lc *lifecycle.Lifecycle,
	ring *events.Ring, metrics *observability.Metrics, logger *utils.Logger,
	notify func(string), initial domain.EngineSettings) *Engine {
	if notify == nil {
		notify = func(string) {}
	}

	return &Engine{
		feed:         feed,
		gateway:      gateway,
		lifecycle:    lc,
		ring:         ring,
		metrics:      metrics,
		logger:       logger,
		notify:       notify,
		interval:     cfg.Interval,
		threshold:    cfg.TriggerThreshold,
		settingsFile: cfg.SettingsFile,
		symbol:       cfg.Symbol,
		symbols:      cfg.Symbols,
		settings:     initial,
	}
}

// Run крутит цикл опроса до отмены контекста
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("Engine started: symbol=%s interval=%s threshold=%.4f%%",
		e.symbol, e.interval, e.threshold*100)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Engine stopped")
			return
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Tick выполняет один шаг цикла: цена -> закрытия -> сигнал -> открытие.
// Сбой фида пропускает шаг без события, базовая цена сохраняется.
func (e *Engine) Tick(ctx context.Context) {
	e.mu.Lock()
	symbol := e.symbol
	e.mu.Unlock()

	price, err := e.feed.LatestPrice(ctx, symbol)
	if err != nil {
		e.metrics.FeedErrorsTotal.Inc()
		e.logger.Debug("Price fetch failed for %s: %v", symbol, err)
		return
	}

	e.metrics.TicksTotal.Inc()
	e.metrics.LastPrice.Set(price)

	for _, closed := range e.lifecycle.CheckClosures(symbol, price) {
		result := "tp"
		if closed.Status == domain.StatusClosedSL {
			result = "sl"
		}
		e.metrics.TradesClosedTotal.WithLabelValues(result).Inc()
	}

	e.mu.Lock()
	if symbol != e.symbol {
		// инструмент сменили, пока шел запрос
		e.mu.Unlock()
		return
	}

	confidence, direction := signal.Evaluate(e.baseline, price, e.threshold)
	e.lastPrice = price
	e.confidence = confidence
	e.metrics.ConfidencePct.Set(confidence)

	if direction == domain.DirectionNone {
		e.baseline = price
		e.mu.Unlock()
		return
	}

	e.metrics.TriggersTotal.WithLabelValues(direction).Inc()
	settings := e.settings

	if !settings.TradingEnabled() || e.lifecycle.HasActive(symbol) {
		e.baseline = price
		e.mu.Unlock()
		return
	}

	// Сброс до запуска открытия: следующий тик начнет накопление
	// движения заново и не продублирует сигнал
	e.baseline = 0
	e.mu.Unlock()

	side := domain.SideBuy
	if direction == domain.DirectionDown {
		side = domain.SideSell
	}

	e.logger.Info("Trigger %s on %s: confidence %.1f%% at %.6f", direction, symbol, confidence, price)
	go e.openTrade(symbol, side, price, settings)
}

func (e *Engine) openTrade(symbol, side string, price float64, settings domain.EngineSettings) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	trade, err := e.lifecycle.Open(ctx, symbol, side, price, settings)
	if err != nil {
		if errors.Is(err, domain.ErrGatewayRejected) {
			e.metrics.GatewayErrorsTotal.Inc()
		}
		e.logger.Warn("Failed to open %s trade on %s: %v", side, symbol, err)
		return
	}

	e.metrics.TradesOpenedTotal.WithLabelValues(trade.Mode, trade.Side).Inc()
}

// Snapshot возвращает текущее состояние для контрольной поверхности
func (e *Engine) Snapshot() domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return domain.Snapshot{
		Symbol:        e.symbol,
		LastPrice:     e.lastPrice,
		ConfidencePct: e.confidence,
		RecentEvents:  e.ring.Items(),
	}
}

// Settings возвращает копию настроек
func (e *Engine) Settings() domain.EngineSettings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// Symbol возвращает отслеживаемый инструмент
func (e *Engine) Symbol() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.symbol
}

// Symbols возвращает список доступных инструментов
func (e *Engine) Symbols() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.symbols))
	copy(out, e.symbols)
	return out
}

// UpdateSettings применяет частичное обновление. Невалидные значения
// отклоняются целиком - прежние настройки сохраняются. Каждое обновление
// прогоняет проверку связности с актуальными ключами; при успехе и
// смене плеча оно переустанавливается на бирже для обеих сторон.
func (e *Engine) UpdateSettings(ctx context.Context, update domain.SettingsUpdate) (domain.EngineSettings, error) {
	if err := validateUpdate(update); err != nil {
		return e.Settings(), err
	}

	e.mu.Lock()
	next := e.settings
	leverageChanged := false

	if update.APIKey != nil {
		next.APIKey = strings.TrimSpace(*update.APIKey)
	}
	if update.SecretKey != nil {
		next.SecretKey = strings.TrimSpace(*update.SecretKey)
	}
	if update.OrderAmountUSDT != nil {
		next.OrderAmountUSDT = *update.OrderAmountUSDT
	}
	if update.Leverage != nil && *update.Leverage != next.Leverage {
		next.Leverage = *update.Leverage
		leverageChanged = true
	}
	if update.TPPercent != nil {
		next.TPPercent = *update.TPPercent
	}
	if update.SLPercent != nil {
		next.SLPercent = *update.SLPercent
	}

	e.settings = next
	symbol := e.symbol
	e.mu.Unlock()

	e.reverifyConnectivity(ctx)
	if leverageChanged {
		// applyLeverage смотрит на свежий результат проверки
		e.applyLeverage(ctx, symbol)
	}

	e.persistSettings()
	return e.Settings(), nil
}

// SetMode переключает режимы торговли. real и demo взаимоисключающие:
// включение одного гасит другой. Включение real требует подтвержденной
// связности с API.
func (e *Engine) SetMode(realEnabled, demoEnabled bool) (domain.EngineSettings, error) {
	e.mu.Lock()

	if realEnabled && !e.settings.APIConnected {
		e.mu.Unlock()
		return e.Settings(), fmt.Errorf("real trading requires verified API connection: %w", domain.ErrNotConnected)
	}

	e.settings.RealTradingEnabled = realEnabled
	e.settings.DemoModeEnabled = demoEnabled
	if realEnabled {
		e.settings.DemoModeEnabled = false
	}
	mode := e.settings.Mode()
	enabled := e.settings.TradingEnabled()
	e.mu.Unlock()

	if enabled {
		e.event(fmt.Sprintf("[MODE] %s trading enabled", mode))
	} else {
		e.event("[MODE] trading disabled")
	}

	e.persistSettings()
	return e.Settings(), nil
}

// SetSymbol переключает отслеживаемый инструмент и сбрасывает базовую
// цену. Если при старте собран список инструментов, символ проверяется
// по нему.
func (e *Engine) SetSymbol(ctx context.Context, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return fmt.Errorf("empty symbol: %w", domain.ErrUnknownSymbol)
	}

	e.mu.Lock()
	if len(e.symbols) > 0 {
		i := sort.SearchStrings(e.symbols, symbol)
		if i >= len(e.symbols) || e.symbols[i] != symbol {
			e.mu.Unlock()
			return fmt.Errorf("%s: %w", symbol, domain.ErrUnknownSymbol)
		}
	}
	if symbol == e.symbol {
		e.mu.Unlock()
		return nil
	}
	e.symbol = symbol
	e.baseline = 0
	e.lastPrice = 0
	e.confidence = 0
	e.mu.Unlock()

	e.event(fmt.Sprintf("[SYMBOL] switched to %s", symbol))
	e.applyLeverage(ctx, symbol)
	return nil
}

// VerifyConnectivity прогоняет проверку связности с текущими ключами
// и обновляет статус в настройках. При провале real-режим принудительно
// выключается.
func (e *Engine) VerifyConnectivity(ctx context.Context) {
	e.reverifyConnectivity(ctx)
	e.persistSettings()
}

func (e *Engine) reverifyConnectivity(ctx context.Context) {
	e.mu.Lock()
	apiKey, secretKey := e.settings.APIKey, e.settings.SecretKey
	e.mu.Unlock()

	e.gateway.SetCredentials(apiKey, secretKey)
	connected, status := e.gateway.VerifyConnectivity(ctx)

	e.mu.Lock()
	e.settings.APIConnected = connected
	e.settings.APIConnectionStatus = status
	forcedOff := false
	if !connected && e.settings.RealTradingEnabled {
		e.settings.RealTradingEnabled = false
		forcedOff = true
	}
	e.mu.Unlock()

	if connected {
		e.event("[API] " + status)
	} else {
		e.event("[API ERROR] " + status)
	}
	if forcedOff {
		e.event("[MODE] real trading disabled: connection lost")
	}
}

func (e *Engine) applyLeverage(ctx context.Context, symbol string) {
	e.mu.Lock()
	leverage := e.settings.Leverage
	connected := e.settings.APIConnected
	e.mu.Unlock()

	if !connected {
		return
	}

	for _, side := range []string{domain.BingXPositionLong, domain.BingXPositionShort} {
		if err := e.gateway.SetLeverage(ctx, symbol, leverage, side); err != nil {
			e.logger.Warn("Failed to set %s leverage on %s: %v", side, symbol, err)
		}
	}
}

func (e *Engine) persistSettings() {
	if e.settingsFile == "" {
		return
	}
	if err := storage.SaveSettings(e.settingsFile, e.Settings()); err != nil {
		e.logger.Error("Failed to persist settings: %v", err)
	}
}

func (e *Engine) event(message string) {
	e.ring.Push(message)
	e.notify(message)
}

func validateUpdate(update domain.SettingsUpdate) error {
	if update.OrderAmountUSDT != nil && *update.OrderAmountUSDT <= 0 {
		return fmt.Errorf("order amount must be positive: %w", domain.ErrInvalidSettings)
	}
	if update.Leverage != nil && (*update.Leverage < 1 || *update.Leverage > 125) {
		return fmt.Errorf("leverage must be between 1 and 125: %w", domain.ErrInvalidSettings)
	}
	if update.TPPercent != nil && *update.TPPercent < 0 {
		return fmt.Errorf("tp percent must not be negative: %w", domain.ErrInvalidSettings)
	}
	if update.SLPercent != nil && *update.SLPercent < 0 {
		return fmt.Errorf("sl percent must not be negative: %w", domain.ErrInvalidSettings)
	}
	return nil
}
