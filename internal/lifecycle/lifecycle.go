package lifecycle

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kirillm/hft-bot/internal/domain"
	"github.com/kirillm/hft-bot/internal/storage"
	"github.com/kirillm/hft-bot/pkg/utils"
)

// Счетчик в хвосте локального id: метка времени одна на все сделки
// внутри миллисекунды, а id должен быть уникальным - по нему ключуется
// активный набор и ищется запись в журнале
var tradeSeq atomic.Uint64

// OrderGateway размещает рыночные ордера на бирже исполнения
type OrderGateway interface {
	PlaceOrder(ctx context.Context, symbol, side string, quantity, tpPrice, slPrice float64) (string, error)
}

// Lifecycle отслеживает открытые позиции до закрытия по TP или SL.
// Состояния: ACTIVE -> CLOSED_TP | CLOSED_SL, оба терминальные.
// Активный набор и резервации защищены одним мьютексом: инвариант
// "не больше одной ACTIVE позиции на инструмент" держится и пока REAL
// ордер уходит на биржу.
type Lifecycle struct {
	store   storage.TradeStore
	gateway OrderGateway
	logger  *utils.Logger
	notify  func(string)

	mu      sync.Mutex
	active  map[string]*domain.TradeRecord
	pending map[string]bool // символы с открытием в полете
}

// New создает state machine поверх журнала и шлюза исполнения.
// notify получает человекочитаемые события ([NEW], [TP HIT], [SL HIT], ошибки).
func New(store storage.TradeStore, gateway OrderGateway, logger *utils.Logger, notify func(string)) *Lifecycle {
	if notify == nil {
		notify = func(string) {}
	}
	return &Lifecycle{
		store:   store,
		gateway: gateway,
		logger:  logger,
		notify:  notify,
		active:  make(map[string]*domain.TradeRecord),
		pending: make(map[string]bool),
	}
}

// Restore восстанавливает активный набор из журнала после рестарта.
// Закрытые записи остаются в истории, но в память не попадают.
// Возвращает число активных позиций.
func (l *Lifecycle) Restore() (int, error) {
	trades, err := l.store.LoadAll()
	if err != nil {
		return 0, fmt.Errorf("failed to load trade log: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range trades {
		trade := trades[i]
		switch trade.Status {
		case domain.StatusActive:
			l.active[trade.ID] = &trade
			l.notify(fmt.Sprintf("[ACTIVE] %s %s from %s", trade.Symbol, trade.Side, formatPrice(trade.EntryPrice)))
		case domain.StatusClosedTP:
			l.notify(fmt.Sprintf("[TP HIT] %s closed at %s", trade.Symbol, formatClosing(trade.ClosingPrice)))
		case domain.StatusClosedSL:
			l.notify(fmt.Sprintf("[SL HIT] %s closed at %s", trade.Symbol, formatClosing(trade.ClosingPrice)))
		}
	}

	return len(l.active), nil
}

// HasActive возвращает true, если по инструменту есть открытая или
// находящаяся в процессе открытия позиция
func (l *Lifecycle) HasActive(symbol string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hasActiveLocked(symbol)
}

func (l *Lifecycle) hasActiveLocked(symbol string) bool {
	if l.pending[symbol] {
		return true
	}
	for _, trade := range l.active {
		if trade.Symbol == symbol {
			return true
		}
	}
	return false
}

// ActiveTrades возвращает копии всех открытых позиций
func (l *Lifecycle) ActiveTrades() []domain.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.TradeRecord, 0, len(l.active))
	for _, trade := range l.active {
		out = append(out, *trade)
	}
	return out
}

// Open открывает позицию по инструменту.
// Уровни TP/SL считаются от цены входа с учетом стороны. В REAL режиме
// ордер сначала уходит на шлюз: при отказе запись не создается и ошибка
// не ретраится, при успехе локальный id заменяется биржевым до записи
// в журнал. Повторное открытие по инструменту с ACTIVE позицией
// отклоняется с ErrTradeActive.
func (l *Lifecycle) Open(ctx context.Context, symbol, side string, price float64, settings domain.EngineSettings) (*domain.TradeRecord, error) {
	l.mu.Lock()
	if l.hasActiveLocked(symbol) {
		l.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", symbol, domain.ErrTradeActive)
	}
	l.pending[symbol] = true
	l.mu.Unlock()

	trade, err := l.open(ctx, symbol, side, price, settings)

	l.mu.Lock()
	delete(l.pending, symbol)
	if trade != nil {
		l.active[trade.ID] = trade
	}
	l.mu.Unlock()

	return trade, err
}

func (l *Lifecycle) open(ctx context.Context, symbol, side string, price float64, settings domain.EngineSettings) (*domain.TradeRecord, error) {
	mode := settings.Mode()

	tpPrice, slPrice := exitLevels(side, price, settings.TPPercent, settings.SLPercent)

	trade := &domain.TradeRecord{
		ID:         fmt.Sprintf("%s-%d-%d", mode, time.Now().UnixMilli(), tradeSeq.Add(1)),
		Symbol:     symbol,
		Side:       side,
		AmountUSDT: settings.OrderAmountUSDT,
		EntryPrice: price,
		Leverage:   settings.Leverage,
		TPPrice:    tpPrice,
		SLPrice:    slPrice,
		Status:     domain.StatusActive,
		Mode:       mode,
		OpenedAt:   time.Now().UTC(),
	}

	if mode == domain.ModeReal {
		if !settings.APIConnected {
			l.notify("ERROR: REAL mode order skipped, API is not connected")
			return nil, domain.ErrNotConnected
		}

		quantity := settings.OrderAmountUSDT / price
		orderID, err := l.gateway.PlaceOrder(ctx, symbol, side, quantity, tpPrice, slPrice)
		if err != nil {
			l.notify(fmt.Sprintf("ERROR: REAL order failed: %v", err))
			return nil, err
		}
		trade.ID = orderID
	}

	if err := l.store.Append(trade); err != nil {
		// Позиция уже может существовать на бирже, поэтому отслеживаем ее
		// несмотря на сбой журнала
		l.logger.Error("Failed to persist trade %s: %v", trade.ID, err)
	}

	l.notify(fmt.Sprintf("[NEW] [%s] %s %s @ %s", mode, strings.ToUpper(side), symbol, formatPrice(price)))
	l.logger.Info("Opened %s %s trade %s at %s (tp %.6f, sl %.6f)",
		mode, side, trade.ID, formatPrice(price), tpPrice, slPrice)

	return trade, nil
}

// CheckClosures проверяет все открытые позиции инструмента против новой цены.
// Сравнение стороннее: buy закрывается по TP при price >= tp и по SL при
// price <= sl, sell наоборот. TP проверяется первым - фиксированный
// tie-break при одновременном пересечении обоих уровней.
// Возвращает копии закрытых записей.
func (l *Lifecycle) CheckClosures(symbol string, price float64) []domain.TradeRecord {
	if price <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var closed []domain.TradeRecord
	for id, trade := range l.active {
		if trade.Symbol != symbol {
			continue
		}

		status := closureStatus(trade, price)
		if status == "" {
			continue
		}

		now := time.Now().UTC()
		closing := price
		trade.Status = status
		trade.ClosingPrice = &closing
		trade.ClosedAt = &now

		if err := l.store.Update(id, status, price); err != nil {
			l.logger.Error("Failed to persist closure of %s: %v", id, err)
		}

		label := "[TP HIT]"
		if status == domain.StatusClosedSL {
			label = "[SL HIT]"
		}
		l.notify(fmt.Sprintf("%s %s %s closed at %s", label, trade.Symbol, trade.Side, formatPrice(price)))
		l.logger.Info("Trade %s closed with %s at %s", id, status, formatPrice(price))

		closed = append(closed, *trade)
		delete(l.active, id)
	}

	return closed
}

// closureStatus возвращает терминальный статус или пустую строку
func closureStatus(trade *domain.TradeRecord, price float64) string {
	if trade.Side == domain.SideBuy {
		if price >= trade.TPPrice {
			return domain.StatusClosedTP
		}
		if price <= trade.SLPrice {
			return domain.StatusClosedSL
		}
		return ""
	}

	if price <= trade.TPPrice {
		return domain.StatusClosedTP
	}
	if price >= trade.SLPrice {
		return domain.StatusClosedSL
	}
	return ""
}

// exitLevels считает абсолютные уровни TP/SL от цены входа.
// tpPercent и slPercent заданы в процентах (0.15 == 0.15%).
func exitLevels(side string, price, tpPercent, slPercent float64) (tpPrice, slPrice float64) {
	if side == domain.SideBuy {
		return price * (1 + tpPercent/100), price * (1 - slPercent/100)
	}
	return price * (1 - tpPercent/100), price * (1 + slPercent/100)
}

func formatPrice(price float64) string {
	return "$" + strconv.FormatFloat(price, 'f', 5, 64)
}

func formatClosing(price *float64) string {
	if price == nil {
		return "$?"
	}
	return formatPrice(*price)
}
