package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kirillm/hft-bot/internal/domain"
)

// FileStore хранит журнал сделок одной JSON-коллекцией на диске.
// Каждый цикл read-modify-write выполняется под мьютексом, чтобы конкурентные
// писатели не повредили файл. Нечитаемый или битый файл трактуется как пустой
// журнал: durability здесь best-effort, источником истины внутри запуска
// является in-memory активный набор.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore создает файловый журнал по указанному пути
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Append добавляет запись в конец журнала
func (s *FileStore) Append(trade *domain.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trades := s.read()
	trades = append(trades, *trade)
	return s.write(trades)
}

// Update находит запись по id и проставляет статус, цену и время закрытия
func (s *FileStore) Update(id, status string, closingPrice float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trades := s.read()
	for i := range trades {
		if trades[i].ID == id {
			now := time.Now().UTC()
			trades[i].Status = status
			trades[i].ClosingPrice = &closingPrice
			trades[i].ClosedAt = &now
			return s.write(trades)
		}
	}
	return fmt.Errorf("trade %s: %w", id, domain.ErrNotFound)
}

// LoadAll возвращает все записи журнала
func (s *FileStore) LoadAll() ([]domain.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(), nil
}

// read читает коллекцию с диска. Вызывается только под мьютексом.
func (s *FileStore) read() []domain.TradeRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return []domain.TradeRecord{}
	}

	var trades []domain.TradeRecord
	if err := json.Unmarshal(data, &trades); err != nil {
		// Битый файл - холодный старт
		return []domain.TradeRecord{}
	}
	return trades
}

// write сериализует коллекцию целиком. Вызывается только под мьютексом.
func (s *FileStore) write(trades []domain.TradeRecord) error {
	data, err := json.MarshalIndent(trades, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal trades: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write trade log: %w", err)
	}
	return nil
}
