package exchange

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kirillm/hft-bot/internal/domain"
)

func TestBybitClient_LatestPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "BRETTUSDT" {
			t.Errorf("symbol = %s, want BRETTUSDT", got)
		}
		if got := r.URL.Query().Get("category"); got != "linear" {
			t.Errorf("category = %s, want linear", got)
		}
		w.Write([]byte(`{"retCode":0,"result":{"list":[["1717243200000","1.0010","1.0025","1.0005","1.0020","1000","1002"]]}}`))
	}))
	defer server.Close()

	client := NewBybitClient(server.URL)
	price, err := client.LatestPrice(context.Background(), "BRETT/USDT")
	if err != nil {
		t.Fatalf("LatestPrice() error = %v", err)
	}
	if price != 1.0020 {
		t.Errorf("LatestPrice() = %v, want 1.0020", price)
	}
}

func TestBybitClient_LatestPriceUnavailable(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"api error", `{"retCode":10001,"retMsg":"params error"}`},
		{"empty list", `{"retCode":0,"result":{"list":[]}}`},
		{"garbage", `not json at all`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.response))
			}))
			defer server.Close()

			client := NewBybitClient(server.URL)
			_, err := client.LatestPrice(context.Background(), "BRETT/USDT")
			if !errors.Is(err, domain.ErrFeedUnavailable) {
				t.Errorf("LatestPrice() error = %v, want ErrFeedUnavailable", err)
			}
		})
	}
}

func TestBybitClient_Symbols(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"retCode":0,"result":{"list":[{"symbol":"BTCUSDT"},{"symbol":"ETHUSDC"},{"symbol":"BRETTUSDT"}]}}`))
	}))
	defer server.Close()

	client := NewBybitClient(server.URL)
	symbols, err := client.Symbols(context.Background())
	if err != nil {
		t.Fatalf("Symbols() error = %v", err)
	}

	want := []string{"BRETT/USDT", "BTC/USDT"}
	if len(symbols) != len(want) {
		t.Fatalf("Symbols() = %v, want %v", symbols, want)
	}
	for i := range want {
		if symbols[i] != want[i] {
			t.Errorf("Symbols()[%d] = %s, want %s", i, symbols[i], want[i])
		}
	}
}
