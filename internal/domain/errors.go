package domain

import "errors"

var (
	// ErrFeedUnavailable возвращается когда фид цен недоступен или не вернул данные
	ErrFeedUnavailable = errors.New("price feed unavailable")

	// ErrTradeActive возвращается при попытке открыть вторую позицию по инструменту
	ErrTradeActive = errors.New("active trade already exists for symbol")

	// ErrGatewayRejected возвращается когда биржа отклонила ордер
	ErrGatewayRejected = errors.New("execution gateway rejected order")

	// ErrNotConnected возвращается когда REAL операция требует подключенного API
	ErrNotConnected = errors.New("API connection is not verified")

	// ErrInvalidSettings возвращается при некорректном обновлении настроек
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrUnknownSymbol возвращается при переключении на неизвестный инструмент
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrNotFound возвращается когда запись не найдена
	ErrNotFound = errors.New("not found")

	// ErrExchangeAPI возвращается при ошибке API биржи
	ErrExchangeAPI = errors.New("exchange API error")
)
