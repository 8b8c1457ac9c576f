package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит все настройки приложения
type Config struct {
	Server   ServerConfig
	Bybit    BybitConfig
	BingX    BingXConfig
	Database DatabaseConfig
	Telegram TelegramConfig
	Trading  TradingConfig
	LogLevel string
}

type ServerConfig struct {
	Port int
}

type BybitConfig struct {
	BaseURL string
}

type BingXConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type TelegramConfig struct {
	BotToken string
	ChatID   int64
}

type TradingConfig struct {
	Symbol            string
	FetchInterval     time.Duration
	TriggerPercentage float64 // доля: 0.0015 = 0.15%
	OrderAmountUSDT   float64
	Leverage          int
	TPPercent         float64
	SLPercent         float64
	DemoModeEnabled   bool
	TradeLogFile      string
	SettingsFile      string
}

// Load загружает конфигурацию из .env файла
func Load() (*Config, error) {
	// Загружаем .env файл (если есть)
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	serverPort, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	chatID, err := strconv.ParseInt(getEnv("TELEGRAM_CHAT_ID", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
	}

	dbEnabled, err := strconv.ParseBool(getEnv("DB_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_ENABLED: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	fetchInterval, err := time.ParseDuration(getEnv("FETCH_INTERVAL", "500ms"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}

	triggerPercentage, err := strconv.ParseFloat(getEnv("TRIGGER_PERCENTAGE", "0.0015"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TRIGGER_PERCENTAGE: %w", err)
	}

	orderAmount, err := strconv.ParseFloat(getEnv("ORDER_AMOUNT_USDT", "2"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ORDER_AMOUNT_USDT: %w", err)
	}

	leverage, err := strconv.Atoi(getEnv("LEVERAGE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEVERAGE: %w", err)
	}

	tpPercent, err := strconv.ParseFloat(getEnv("TP_PERCENT", "0.15"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TP_PERCENT: %w", err)
	}

	slPercent, err := strconv.ParseFloat(getEnv("SL_PERCENT", "0.15"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SL_PERCENT: %w", err)
	}

	demoMode, err := strconv.ParseBool(getEnv("DEMO_MODE_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEMO_MODE_ENABLED: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port: serverPort,
		},
		Bybit: BybitConfig{
			BaseURL: getEnv("BYBIT_BASE_URL", "https://api.bybit.com"),
		},
		BingX: BingXConfig{
			APIKey:    getEnv("BINGX_API_KEY", ""),
			APISecret: getEnv("BINGX_API_SECRET", ""),
			BaseURL:   getEnv("BINGX_BASE_URL", "https://open-api.bingx.com"),
		},
		Database: DatabaseConfig{
			Enabled:  dbEnabled,
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "hft_bot"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   chatID,
		},
		Trading: TradingConfig{
			Symbol:            getEnv("TRADING_SYMBOL", "BRETT/USDT"),
			FetchInterval:     fetchInterval,
			TriggerPercentage: triggerPercentage,
			OrderAmountUSDT:   orderAmount,
			Leverage:          leverage,
			TPPercent:         tpPercent,
			SLPercent:         slPercent,
			DemoModeEnabled:   demoMode,
			TradeLogFile:      getEnv("TRADE_LOG_FILE", "trades.json"),
			SettingsFile:      getEnv("SETTINGS_FILE", "settings.yaml"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate проверяет числовые поля конфигурации
func (c *Config) Validate() error {
	if c.Trading.FetchInterval <= 0 {
		return fmt.Errorf("FETCH_INTERVAL must be positive")
	}
	if c.Trading.TriggerPercentage <= 0 {
		return fmt.Errorf("TRIGGER_PERCENTAGE must be positive")
	}
	if c.Trading.OrderAmountUSDT <= 0 {
		return fmt.Errorf("ORDER_AMOUNT_USDT must be positive")
	}
	if c.Trading.Leverage < 1 {
		return fmt.Errorf("LEVERAGE must be at least 1")
	}
	if c.Trading.TPPercent < 0 || c.Trading.SLPercent < 0 {
		return fmt.Errorf("TP_PERCENT and SL_PERCENT must not be negative")
	}
	if c.Database.Enabled && c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required when DB_ENABLED is true")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
