package domain

import "time"

// TradeRecord представляет одну открытую позицию
type TradeRecord struct {
	ID           string     `json:"id"`
	Symbol       string     `json:"symbol"`
	Side         string     `json:"side"` // "buy" or "sell"
	AmountUSDT   float64    `json:"amount_usdt"`
	EntryPrice   float64    `json:"entry_price"`
	Leverage     int        `json:"leverage"`
	TPPrice      float64    `json:"tp_price"`
	SLPrice      float64    `json:"sl_price"`
	Status       string     `json:"status"` // "ACTIVE", "CLOSED_TP", "CLOSED_SL"
	Mode         string     `json:"mode"`   // "DEMO" or "REAL", фиксируется при создании
	OpenedAt     time.Time  `json:"opened_at"`
	ClosedAt     *time.Time `json:"closed_at"`
	ClosingPrice *float64   `json:"closing_price"`
}

// IsClosed возвращает true для терминальных статусов
func (t *TradeRecord) IsClosed() bool {
	return t.Status != StatusActive
}

// EngineSettings содержит изменяемую конфигурацию движка.
// Настройками владеет только TradingEngine, все изменения идут через control surface.
type EngineSettings struct {
	APIKey              string  `json:"api_key" yaml:"-"`
	SecretKey           string  `json:"-" yaml:"-"`
	RealTradingEnabled  bool    `json:"real_trading_enabled" yaml:"real_trading_enabled"`
	DemoModeEnabled     bool    `json:"demo_mode_enabled" yaml:"demo_mode_enabled"`
	OrderAmountUSDT     float64 `json:"order_amount_usdt" yaml:"order_amount_usdt"`
	Leverage            int     `json:"leverage" yaml:"leverage"`
	TPPercent           float64 `json:"tp_percent" yaml:"tp_percent"`
	SLPercent           float64 `json:"sl_percent" yaml:"sl_percent"`
	APIConnected        bool    `json:"api_connected" yaml:"api_connected"`
	APIConnectionStatus string  `json:"api_connection_status" yaml:"api_connection_status"`
}

// Mode возвращает режим для новой сделки: DEMO имеет приоритет
func (s EngineSettings) Mode() string {
	if s.DemoModeEnabled {
		return ModeDemo
	}
	return ModeReal
}

// TradingEnabled возвращает true, если включен хотя бы один режим
func (s EngineSettings) TradingEnabled() bool {
	return s.RealTradingEnabled || s.DemoModeEnabled
}

// SettingsUpdate описывает частичное обновление настроек.
// Nil-поле означает "оставить прежнее значение".
type SettingsUpdate struct {
	APIKey          *string  `json:"api_key"`
	SecretKey       *string  `json:"secret_key"`
	OrderAmountUSDT *float64 `json:"order_amount_usdt"`
	Leverage        *int     `json:"leverage"`
	TPPercent       *float64 `json:"tp_percent"`
	SLPercent       *float64 `json:"sl_percent"`
}

// Snapshot представляет публикуемое состояние движка для presentation layer
type Snapshot struct {
	Symbol        string   `json:"symbol"`
	LastPrice     float64  `json:"last_price"`
	ConfidencePct float64  `json:"confidence_pct"`
	RecentEvents  []string `json:"recent_events"`
}
