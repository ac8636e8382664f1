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
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalYAML = `
api:
  base_rest_url: "https://contract.mexc.com"
  base_ws_url: "wss://contract.mexc.com/edge"
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("default port expected, got %d", cfg.Server.Port)
	}
	if cfg.Cooldowns.PerSymbolSeconds != 300 {
		t.Fatalf("default cooldown expected, got %d", cfg.Cooldowns.PerSymbolSeconds)
	}
	if cfg.Strategy2.SpikeLookbackSecs != 10 || cfg.Strategy2.SpikeRatioMin != 1.05 {
		t.Fatalf("strategy2 defaults missing: %+v", cfg.Strategy2)
	}
	if cfg.ChartExport.ChartsDir != "charts" {
		t.Fatalf("chart dir default expected, got %q", cfg.ChartExport.ChartsDir)
	}
	if cfg.API.PingInterval != 30*time.Second {
		t.Fatalf("ping interval default expected, got %v", cfg.API.PingInterval)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	body := minimalYAML + `
cooldowns:
  per_symbol_seconds: 60
strategy1:
  spread_ratio_min: 1.10
`
	cfg, err := Load(writeConfig(t, body))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Cooldowns.PerSymbolSeconds != 60 {
		t.Fatalf("override lost, got %d", cfg.Cooldowns.PerSymbolSeconds)
	}
	if cfg.Strategy1.SpreadRatioMin != 1.10 {
		t.Fatalf("override lost, got %v", cfg.Strategy1.SpreadRatioMin)
	}
}

func TestLoadRejectsMissingURLs(t *testing.T) {
	if _, err := Load(writeConfig(t, "environment: test\n")); err == nil {
		t.Fatalf("missing URLs must fail validation")
	}
}

func TestLoadRejectsExcessiveLookback(t *testing.T) {
	body := minimalYAML + `
strategy2:
  spike_lookback_secs: 600
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("lookback beyond history retention must fail")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("SYMBOLS", "BTC_USDT,ETH_USDT")
	t.Setenv("LOG_DIR", "/tmp/eplogs")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.General.Symbols) != 2 || cfg.General.Symbols[0] != "BTC_USDT" {
		t.Fatalf("env symbols not applied: %v", cfg.General.Symbols)
	}
	if cfg.General.LogDir != "/tmp/eplogs" {
		t.Fatalf("env log dir not applied: %q", cfg.General.LogDir)
	}
}
