package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kirillm/hft-bot/internal/domain"
)

func testTrade(id string) *domain.TradeRecord {
	return &domain.TradeRecord{
		ID:         id,
		Symbol:     "BRETT/USDT",
		Side:       domain.SideBuy,
		AmountUSDT: 2,
		EntryPrice: 1.0020,
		Leverage:   10,
		TPPrice:    1.003503,
		SLPrice:    1.000497,
		Status:     domain.StatusActive,
		Mode:       domain.ModeDemo,
		OpenedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFileStore_AppendAndLoad(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "trades.json"))

	if err := store.Append(testTrade("DEMO-1")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Append(testTrade("DEMO-2")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	trades, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("LoadAll() len = %d, want 2", len(trades))
	}
	if trades[0].ID != "DEMO-1" || trades[1].ID != "DEMO-2" {
		t.Errorf("LoadAll() order = %s, %s; want DEMO-1, DEMO-2", trades[0].ID, trades[1].ID)
	}
}

// Сохраненная запись восстанавливается эквивалентной в сериализуемых полях.
func TestFileStore_RoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "trades.json"))
	want := testTrade("DEMO-42")

	if err := store.Append(want); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	trades, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	got := trades[0]

	if got.ID != want.ID || got.Symbol != want.Symbol || got.Side != want.Side {
		t.Errorf("identity fields changed: got %+v", got)
	}
	if got.EntryPrice != want.EntryPrice || got.TPPrice != want.TPPrice || got.SLPrice != want.SLPrice {
		t.Errorf("price fields changed: got %+v", got)
	}
	if got.Status != want.Status || got.Mode != want.Mode || !got.OpenedAt.Equal(want.OpenedAt) {
		t.Errorf("status fields changed: got %+v", got)
	}
	if got.ClosedAt != nil || got.ClosingPrice != nil {
		t.Errorf("close fields set on active trade: %+v", got)
	}
}

func TestFileStore_Update(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "trades.json"))
	if err := store.Append(testTrade("DEMO-1")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if err := store.Update("DEMO-1", domain.StatusClosedTP, 1.0036); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	trades, _ := store.LoadAll()
	got := trades[0]
	if got.Status != domain.StatusClosedTP {
		t.Errorf("status = %s, want %s", got.Status, domain.StatusClosedTP)
	}
	if got.ClosingPrice == nil || *got.ClosingPrice != 1.0036 {
		t.Errorf("closing price = %v, want 1.0036", got.ClosingPrice)
	}
	if got.ClosedAt == nil {
		t.Error("closed_at not set")
	}
}

func TestFileStore_UpdateUnknownID(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "trades.json"))
	if err := store.Append(testTrade("DEMO-1")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	err := store.Update("REAL-missing", domain.StatusClosedSL, 1.0)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestFileStore_MissingFileIsColdStart(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nope.json"))

	trades, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("LoadAll() len = %d, want 0", len(trades))
	}
}

func TestFileStore_CorruptFileIsColdStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	store := NewFileStore(path)

	trades, err := store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("LoadAll() len = %d, want 0", len(trades))
	}

	// Запись поверх битого файла начинает журнал заново
	if err := store.Append(testTrade("DEMO-1")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	trades, _ = store.LoadAll()
	if len(trades) != 1 {
		t.Errorf("LoadAll() after append len = %d, want 1", len(trades))
	}
}
