package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kirillm/hft-bot/internal/domain"
	"golang.org/x/time/rate"
)

// BingXClient исполняет ордера на BingX perpetual swap.
// Ключи API изменяемы на лету (control surface обновляет их вместе с
// настройками), доступ к ним сериализован мьютексом. Подписанные запросы
// дополнительно проходят через client-side rate limiter.
type BingXClient struct {
	mu        sync.Mutex
	apiKey    string
	apiSecret string

	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

type bingxResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

type bingxOrderResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Order struct {
			OrderID json.Number `json:"orderId"`
		} `json:"order"`
	} `json:"data"`
}

type bingxContractsResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		Symbol string `json:"symbol"`
	} `json:"data"`
}

// NewBingXClient создает клиент шлюза исполнения
func NewBingXClient(apiKey, apiSecret, baseURL string) *BingXClient {
	return &BingXClient{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   baseURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(5), 10),
	}
}

// SetCredentials заменяет ключи API для последующих запросов
func (c *BingXClient) SetCredentials(apiKey, apiSecret string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = apiKey
	c.apiSecret = apiSecret
}

func (c *BingXClient) credentials() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apiKey, c.apiSecret
}

// VerifyConnectivity проверяет ключи запросом баланса.
// Возвращает флаг успеха и человекочитаемый статус для UI.
func (c *BingXClient) VerifyConnectivity(ctx context.Context) (bool, string) {
	params := map[string]string{
		"timestamp": strconv.FormatInt(time.Now().UnixMilli(), 10),
	}

	body, err := c.signedRequest(ctx, http.MethodGet, "/openApi/swap/v2/user/balance", params)
	if err != nil {
		return false, fmt.Sprintf("connection failed: %v", err)
	}

	var resp bingxResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, fmt.Sprintf("connection failed: bad response: %v", err)
	}
	if resp.Code != 0 {
		return false, fmt.Sprintf("connection failed: %d - %s", resp.Code, resp.Msg)
	}

	return true, "connected to BingX API"
}

// PlaceOrder размещает рыночный ордер с уровнями TP/SL.
// Возвращает присвоенный биржей id ордера.
func (c *BingXClient) PlaceOrder(ctx context.Context, symbol, side string, quantity, tpPrice, slPrice float64) (string, error) {
	params := map[string]string{
		"symbol":       bingxSymbol(symbol),
		"side":         strings.ToUpper(side),
		"positionSide": domain.BingXPositionBoth,
		"type":         domain.BingXOrderMarket,
		"quantity":     strconv.FormatFloat(quantity, 'f', -1, 64),
		"timestamp":    strconv.FormatInt(time.Now().UnixMilli(), 10),
	}
	if tpPrice > 0 {
		params["takeProfit"] = fmt.Sprintf("%.5f", tpPrice)
	}
	if slPrice > 0 {
		params["stopLoss"] = fmt.Sprintf("%.5f", slPrice)
	}

	body, err := c.signedRequest(ctx, http.MethodPost, "/openApi/swap/v2/trade/order", params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGatewayRejected, err)
	}

	var resp bingxOrderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: bad response: %v", domain.ErrGatewayRejected, err)
	}
	if resp.Code != 0 {
		return "", fmt.Errorf("%w: %s", domain.ErrGatewayRejected, resp.Msg)
	}

	return resp.Data.Order.OrderID.String(), nil
}

// SetLeverage устанавливает плечо для одной стороны позиции
func (c *BingXClient) SetLeverage(ctx context.Context, symbol string, leverage int, positionSide string) error {
	params := map[string]string{
		"symbol":    bingxSymbol(symbol),
		"side":      positionSide,
		"leverage":  strconv.Itoa(leverage),
		"timestamp": strconv.FormatInt(time.Now().UnixMilli(), 10),
	}

	body, err := c.signedRequest(ctx, http.MethodPost, "/openApi/swap/v2/trade/leverage", params)
	if err != nil {
		return fmt.Errorf("failed to set leverage: %w", err)
	}

	var resp bingxResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if resp.Code != 0 {
		return fmt.Errorf("%w: %s", domain.ErrExchangeAPI, resp.Msg)
	}

	return nil
}

// Symbols возвращает список USDT-контрактов в виде "BASE/USDT"
func (c *BingXClient) Symbols(ctx context.Context) ([]string, error) {
	reqURL := fmt.Sprintf("%s/openApi/swap/v2/quote/contracts", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var contractsResp bingxContractsResponse
	if err := json.Unmarshal(body, &contractsResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if contractsResp.Code != 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrExchangeAPI, contractsResp.Msg)
	}

	var symbols []string
	for _, item := range contractsResp.Data {
		if strings.HasSuffix(item.Symbol, "-USDT") {
			symbols = append(symbols, strings.ReplaceAll(item.Symbol, "-", "/"))
		}
	}
	sort.Strings(symbols)
	return symbols, nil
}

// signedRequest подписывает параметры и выполняет запрос.
// Строка для подписи собирается из params, отсортированных по ключу, и
// хэшируется HMAC-SHA256 секретом; подпись добавляется параметром signature.
func (c *BingXClient) signedRequest(ctx context.Context, method, endpoint string, params map[string]string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	apiKey, apiSecret := c.credentials()
	if apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("API credentials are not set")
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	payload := strings.Join(parts, "&")

	mac := hmac.New(sha256.New, []byte(apiSecret))
	mac.Write([]byte(payload))
	signature := hex.EncodeToString(mac.Sum(nil))

	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	query.Set("signature", signature)

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, query.Encode())

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-BX-APIKEY", apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return body, nil
}

// bingxSymbol переводит "BRETT/USDT" в "BRETT-USDT"
func bingxSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "-")
}
