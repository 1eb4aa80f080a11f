package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
[engine]
tick_rate = "20ms"
starting_currency = 250

[gateway]
bind_address = "0.0.0.0:9000"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.TickRate != 20*time.Millisecond {
		t.Errorf("TickRate = %v, want 20ms", cfg.Engine.TickRate)
	}
	if cfg.Engine.StartingCurrency != 250 {
		t.Errorf("StartingCurrency = %d, want 250", cfg.Engine.StartingCurrency)
	}
	if cfg.Gateway.BindAddress != "0.0.0.0:9000" {
		t.Errorf("BindAddress = %q", cfg.Gateway.BindAddress)
	}

	// Untouched keys keep their defaults.
	if cfg.Engine.StartingLives != 20 {
		t.Errorf("StartingLives = %d, want default 20", cfg.Engine.StartingLives)
	}
	if cfg.Engine.SellRefund != 0.7 {
		t.Errorf("SellRefund = %v, want default 0.7", cfg.Engine.SellRefund)
	}
	if cfg.Data.Dir != "data" {
		t.Errorf("Data.Dir = %q, want default", cfg.Data.Dir)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want default", cfg.Logging.Level)
	}
	if cfg.Server.StartTime == 0 {
		t.Error("StartTime not stamped")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"zero tick rate":        "[engine]\ntick_rate = \"0s\"\n",
		"refund above one":      "[engine]\nsell_refund = 1.5\n",
		"zero lives":            "[engine]\nstarting_lives = 0\n",
		"negative currency":     "[engine]\nstarting_currency = -5\n",
		"unparseable tick rate": "[engine]\ntick_rate = \"fast\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatal("invalid config accepted")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("missing file accepted")
	}
}
