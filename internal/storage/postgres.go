package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kirillm/hft-bot/internal/domain"
	_ "github.com/lib/pq"
)

// PostgresStore реализует TradeStore поверх PostgreSQL.
// Альтернатива файловому журналу для деплоев с базой данных, включается
// через DB_ENABLED.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore подключается к базе и выполняет миграции
func NewPostgresStore(host string, port int, user, password, dbname, sslmode string) (*PostgresStore, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS trade_records (
			id VARCHAR(100) PRIMARY KEY,
			symbol VARCHAR(20) NOT NULL,
			side VARCHAR(10) NOT NULL,
			amount_usdt DECIMAL(20, 8) NOT NULL,
			entry_price DECIMAL(20, 8) NOT NULL,
			leverage INTEGER NOT NULL DEFAULT 1,
			tp_price DECIMAL(20, 8) NOT NULL,
			sl_price DECIMAL(20, 8) NOT NULL,
			status VARCHAR(20) NOT NULL,
			mode VARCHAR(10) NOT NULL,
			opened_at TIMESTAMPTZ NOT NULL,
			closed_at TIMESTAMPTZ,
			closing_price DECIMAL(20, 8)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trade_records_symbol ON trade_records(symbol)`,
		`CREATE INDEX IF NOT EXISTS idx_trade_records_status ON trade_records(status)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Append сохраняет новую запись журнала
func (s *PostgresStore) Append(trade *domain.TradeRecord) error {
	query := `
		INSERT INTO trade_records (id, symbol, side, amount_usdt, entry_price, leverage,
		                           tp_price, sl_price, status, mode, opened_at, closed_at, closing_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.Exec(
		query,
		trade.ID,
		trade.Symbol,
		trade.Side,
		trade.AmountUSDT,
		trade.EntryPrice,
		trade.Leverage,
		trade.TPPrice,
		trade.SLPrice,
		trade.Status,
		trade.Mode,
		trade.OpenedAt,
		trade.ClosedAt,
		trade.ClosingPrice,
	)
	return err
}

// Update переводит запись в терминальный статус
func (s *PostgresStore) Update(id, status string, closingPrice float64) error {
	query := `
		UPDATE trade_records
		SET status = $2, closing_price = $3, closed_at = $4
		WHERE id = $1
	`
	result, err := s.db.Exec(query, id, status, closingPrice, time.Now().UTC())
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("trade %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// LoadAll возвращает весь журнал в порядке открытия
func (s *PostgresStore) LoadAll() ([]domain.TradeRecord, error) {
	query := `
		SELECT id, symbol, side, amount_usdt, entry_price, leverage,
		       tp_price, sl_price, status, mode, opened_at, closed_at, closing_price
		FROM trade_records
		ORDER BY opened_at
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []domain.TradeRecord
	for rows.Next() {
		var trade domain.TradeRecord
		var closedAt sql.NullTime
		var closingPrice sql.NullFloat64
		err := rows.Scan(
			&trade.ID,
			&trade.Symbol,
			&trade.Side,
			&trade.AmountUSDT,
			&trade.EntryPrice,
			&trade.Leverage,
			&trade.TPPrice,
			&trade.SLPrice,
			&trade.Status,
			&trade.Mode,
			&trade.OpenedAt,
			&closedAt,
			&closingPrice,
		)
		if err != nil {
			return nil, err
		}
		if closedAt.Valid {
			t := closedAt.Time
			trade.ClosedAt = &t
		}
		if closingPrice.Valid {
			p := closingPrice.Float64
			trade.ClosingPrice = &p
		}
		trades = append(trades, trade)
	}

	return trades, rows.Err()
}

// Close закрывает соединение с базой данных
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
