package domain

// Trade sides
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Trade statuses
const (
	StatusActive   = "ACTIVE"
	StatusClosedTP = "CLOSED_TP"
	StatusClosedSL = "CLOSED_SL"
)

// Trading modes
const (
	ModeDemo = "DEMO"
	ModeReal = "REAL"
)

// Signal directions
const (
	DirectionNone = "none"
	DirectionUp   = "up"
	DirectionDown = "down"
)

// Bybit constants
const (
	BybitCategoryLinear = "linear"
	BybitKlineInterval  = "1"
)

// BingX constants
const (
	BingXPositionBoth  = "BOTH"
	BingXPositionLong  = "LONG"
	BingXPositionShort = "SHORT"
	BingXOrderMarket   = "MARKET"
)

// MaxRecentEvents ограничивает длину списка последних событий
const MaxRecentEvents = 20
