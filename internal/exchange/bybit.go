package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kirillm/hft-bot/internal/domain"
)

// BybitClient читает публичные рыночные данные Bybit V5.
// Используется только как фид цен, приватные эндпоинты не нужны.
type BybitClient struct {
	baseURL string
	client  *http.Client
}

type klineResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List [][]string `json:"list"`
	} `json:"result"`
}

type tickersResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []struct {
			Symbol string `json:"symbol"`
		} `json:"list"`
	} `json:"result"`
}

// NewBybitClient создает клиент фида цен с коротким таймаутом
func NewBybitClient(baseURL string) *BybitClient {
	return &BybitClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 3 * time.Second},
	}
}

// LatestPrice получает цену закрытия последней минутной свечи.
// Любой сбой (сеть, ошибка API, пустой ответ) сводится к ErrFeedUnavailable.
func (b *BybitClient) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	params := fmt.Sprintf("category=%s&symbol=%s&interval=%s&limit=1",
		domain.BybitCategoryLinear, bybitSymbol(symbol), domain.BybitKlineInterval)
	url := fmt.Sprintf("%s/v5/market/kline?%s", b.baseURL, params)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrFeedUnavailable, err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrFeedUnavailable, err)
	}

	var klineResp klineResponse
	if err := json.Unmarshal(body, &klineResp); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrFeedUnavailable, err)
	}

	if klineResp.RetCode != 0 {
		return 0, fmt.Errorf("%w: %s", domain.ErrFeedUnavailable, klineResp.RetMsg)
	}

	// Свеча: [startTime, open, high, low, close, ...]
	if len(klineResp.Result.List) == 0 || len(klineResp.Result.List[0]) < 5 {
		return 0, fmt.Errorf("%w: no kline data for %s", domain.ErrFeedUnavailable, symbol)
	}

	price, err := strconv.ParseFloat(klineResp.Result.List[0][4], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad close price for %s", domain.ErrFeedUnavailable, symbol)
	}

	return price, nil
}

// Symbols возвращает список линейных USDT-инструментов в виде "BASE/USDT"
func (b *BybitClient) Symbols(ctx context.Context) ([]string, error) {
	url := fmt.Sprintf("%s/v5/market/tickers?category=%s", b.baseURL, domain.BybitCategoryLinear)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var tickersResp tickersResponse
	if err := json.Unmarshal(body, &tickersResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if tickersResp.RetCode != 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrExchangeAPI, tickersResp.RetMsg)
	}

	var symbols []string
	for _, item := range tickersResp.Result.List {
		if strings.HasSuffix(item.Symbol, "USDT") {
			base := strings.TrimSuffix(item.Symbol, "USDT")
			symbols = append(symbols, base+"/USDT")
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// bybitSymbol переводит "BRETT/USDT" в "BRETTUSDT"
func bybitSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "")
}
