package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log:\n  level: debug\n"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Engine.GracePeriod != 3*time.Second {
		t.Errorf("Expected grace period 3s, got %s", cfg.Engine.GracePeriod)
	}
	if cfg.Engine.BatchThreshold != 15 {
		t.Errorf("Expected batch threshold 15, got %d", cfg.Engine.BatchThreshold)
	}
	if cfg.Database.Driver != "memory" {
		t.Errorf("Expected memory driver, got %s", cfg.Database.Driver)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Log.Level)
	}
}

func TestLoad_ContractTerms(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
contract:
  id: 42
  weight_threshold: "1.5"
  weight_threshold_unit: ton
  break_even_price: "2100"
  max_date_to_buy: "2025-03-31"
`))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	terms, err := cfg.Contract.Terms()
	if err != nil {
		t.Fatalf("Failed to convert terms: %v", err)
	}
	if terms.ContractID != 42 {
		t.Errorf("Expected contract 42, got %d", terms.ContractID)
	}
	if terms.WeightThreshold.Decimal.String() != "1.5" || terms.WeightThresholdUnit != "ton" {
		t.Errorf("Expected threshold 1.5 ton, got %s %s", terms.WeightThreshold.Decimal, terms.WeightThresholdUnit)
	}
	if terms.MaxDateToBuy.Month() != time.March || terms.MaxDateToBuy.Day() != 31 {
		t.Errorf("Expected max date 2025-03-31, got %s", terms.MaxDateToBuy)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PACKPLAN_ENGINE_BATCH_THRESHOLD", "40")
	cfg, err := Load(writeConfig(t, "engine:\n  batch_threshold: 20\n"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Engine.BatchThreshold != 40 {
		t.Errorf("Expected env override 40, got %d", cfg.Engine.BatchThreshold)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero threshold", "engine:\n  batch_threshold: 0\n"},
		{"unknown driver", "database:\n  driver: oracle\n"},
		{"postgres without dsn", "database:\n  driver: postgres\n"},
		{"bad unit", "engine:\n  base_unit: stone\n"},
		{"bad price", "contract:\n  break_even_price: abc\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}
