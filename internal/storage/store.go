package storage

import "github.com/kirillm/hft-bot/internal/domain"

// TradeStore определяет интерфейс журнала сделок.
// Журнал только пополняется и патчится, записи никогда не удаляются.
type TradeStore interface {
	// Append добавляет новую запись в журнал
	Append(trade *domain.TradeRecord) error

	// Update переводит запись в терминальный статус и проставляет цену закрытия
	Update(id, status string, closingPrice float64) error

	// LoadAll возвращает все записи журнала в порядке добавления
	LoadAll() ([]domain.TradeRecord, error)
}
