package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillm/hft-bot/internal/domain"
)

func TestSettings_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	want := domain.EngineSettings{
		DemoModeEnabled:     true,
		OrderAmountUSDT:     5,
		Leverage:            20,
		TPPercent:           0.25,
		SLPercent:           0.15,
		APIConnected:        true,
		APIConnectionStatus: "connected to BingX API",
	}

	if err := SaveSettings(path, want); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}

	got, found, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if !found {
		t.Fatal("LoadSettings() found = false, want true")
	}
	if got != want {
		t.Errorf("LoadSettings() = %+v, want %+v", got, want)
	}
}

func TestSettings_CredentialsNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	settings := domain.EngineSettings{
		APIKey:    "public-key",
		SecretKey: "very-secret",
	}

	if err := SaveSettings(path, settings); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "public-key") || strings.Contains(string(data), "very-secret") {
		t.Errorf("settings snapshot contains credentials: %s", data)
	}
}

func TestSettings_MissingFile(t *testing.T) {
	_, found, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if found {
		t.Error("LoadSettings() found = true for missing file")
	}
}

func TestSettings_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("{unclosed: ["), 0644); err != nil {
		t.Fatal(err)
	}

	_, found, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if found {
		t.Error("LoadSettings() found = true for corrupt file")
	}
}
