package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
)

// Проверяет подпись входящего запроса: sorted k=v&... без signature,
// HMAC-SHA256 секретом.
func verifySignature(t *testing.T, r *http.Request, secret string) {
	t.Helper()

	query := r.URL.Query()
	signature := query.Get("signature")
	if signature == "" {
		t.Fatal("request has no signature parameter")
	}

	keys := make([]string, 0, len(query))
	for k := range query {
		if k != "signature" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+query.Get(k))
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, "&")))
	want := hex.EncodeToString(mac.Sum(nil))

	if signature != want {
		t.Errorf("signature = %s, want %s", signature, want)
	}
}

func TestBingXClient_PlaceOrder(t *testing.T) {
	var gotPath, gotSymbol, gotSide, gotTP string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSymbol = r.URL.Query().Get("symbol")
		gotSide = r.URL.Query().Get("side")
		gotTP = r.URL.Query().Get("takeProfit")
		if got := r.Header.Get("X-BX-APIKEY"); got != "test-key" {
			t.Errorf("X-BX-APIKEY = %s, want test-key", got)
		}
		verifySignature(t, r, "test-secret")
		w.Write([]byte(`{"code":0,"data":{"order":{"orderId":123456789}}}`))
	}))
	defer server.Close()

	client := NewBingXClient("test-key", "test-secret", server.URL)
	orderID, err := client.PlaceOrder(context.Background(), "BRETT/USDT", "buy", 1.996, 1.003503, 1.000497)
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}

	if orderID != "123456789" {
		t.Errorf("orderID = %s, want 123456789", orderID)
	}
	if gotPath != "/openApi/swap/v2/trade/order" {
		t.Errorf("path = %s", gotPath)
	}
	if gotSymbol != "BRETT-USDT" {
		t.Errorf("symbol = %s, want BRETT-USDT", gotSymbol)
	}
	if gotSide != "BUY" {
		t.Errorf("side = %s, want BUY", gotSide)
	}
	if gotTP != "1.00350" {
		t.Errorf("takeProfit = %s, want 1.00350", gotTP)
	}
}

func TestBingXClient_PlaceOrderRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":80012,"msg":"insufficient margin"}`))
	}))
	defer server.Close()

	client := NewBingXClient("k", "s", server.URL)
	_, err := client.PlaceOrder(context.Background(), "BRETT/USDT", "sell", 1, 0, 0)
	if err == nil {
		t.Fatal("PlaceOrder() error = nil, want rejection")
	}
	if !strings.Contains(err.Error(), "insufficient margin") {
		t.Errorf("error %q does not carry the venue reason", err)
	}
}

func TestBingXClient_VerifyConnectivity(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantOK   bool
	}{
		{"success", `{"code":0}`, true},
		{"bad keys", `{"code":100413,"msg":"invalid api key"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				verifySignature(t, r, "s")
				w.Write([]byte(tt.response))
			}))
			defer server.Close()

			client := NewBingXClient("k", "s", server.URL)
			ok, status := client.VerifyConnectivity(context.Background())
			if ok != tt.wantOK {
				t.Errorf("VerifyConnectivity() ok = %v, want %v (status %q)", ok, tt.wantOK, status)
			}
			if status == "" {
				t.Error("VerifyConnectivity() returned empty status")
			}
		})
	}
}

func TestBingXClient_MissingCredentials(t *testing.T) {
	client := NewBingXClient("", "", "http://127.0.0.1:0")
	ok, status := client.VerifyConnectivity(context.Background())
	if ok {
		t.Error("VerifyConnectivity() ok = true without credentials")
	}
	if !strings.Contains(status, "credentials") {
		t.Errorf("status = %q, want credentials hint", status)
	}
}

func TestCommonSymbols(t *testing.T) {
	a := []string{"BTC/USDT", "ETH/USDT", "BRETT/USDT"}
	b := []string{"BRETT/USDT", "SOL/USDT", "BTC/USDT"}

	got := CommonSymbols(a, b)
	want := []string{"BRETT/USDT", "BTC/USDT"}
	if len(got) != len(want) {
		t.Fatalf("CommonSymbols() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CommonSymbols()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
