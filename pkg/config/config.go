package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"production"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	API struct {
		BaseRestURL  string        `yaml:"base_rest_url"`
		BaseWSURL    string        `yaml:"base_ws_url"`
		PingInterval time.Duration `yaml:"ping_interval" default:"30s"`
	} `yaml:"api"`
	General struct {
		Symbols []string `yaml:"symbols"`
		LogDir  string   `yaml:"log_dir" default:"logs"`
	} `yaml:"general"`
	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`
	Cooldowns struct {
		PerSymbolSeconds int `yaml:"per_symbol_seconds" default:"300"`
	} `yaml:"cooldowns"`
	Orderbook         OrderbookConfig   `yaml:"orderbook"`
	Strategy1         Strategy1Config   `yaml:"strategy1"`
	Strategy2         Strategy2Config   `yaml:"strategy2"`
	Strategy3         Strategy3Config   `yaml:"strategy3"`
	Strategy4         Strategy4Config   `yaml:"strategy4"`
	Strategy5         Strategy5Config   `yaml:"strategy5"`
	ChartExport       ChartExportConfig `yaml:"chart_export"`
}

type OrderbookConfig struct {
	MaxLevels         int     `yaml:"max_levels" default:"20"`
	DepthBandPct      float64 `yaml:"depth_band_pct" default:"0.01"`
	MinThickDepthUSDT float64 `yaml:"min_thick_depth_usdt" default:"50000"`
	MaxSpreadPct      float64 `yaml:"max_spread_pct" default:"0.005"`
}

type Strategy1Config struct {
	Enabled        bool    `yaml:"enabled" default:"true"`
	SpreadRatioMin float64 `yaml:"spread_ratio_min" default:"1.02"`
	MinAbsDiff     float64 `yaml:"min_abs_diff" default:"0.0001"`
	MinPrice       float64 `yaml:"min_price" default:"0.0001"`
}

type Strategy2Config struct {
	Enabled           bool    `yaml:"enabled" default:"true"`
	SpreadRatioMin    float64 `yaml:"spread_ratio_min" default:"1.02"`
	SpikeLookbackSecs int     `yaml:"spike_lookback_secs" default:"10"`
	SpikeRatioMin     float64 `yaml:"spike_ratio_min" default:"1.05"`
	MinPrice          float64 `yaml:"min_price" default:"0.0001"`
}

type Strategy3Config struct {
	Enabled            bool    `yaml:"enabled" default:"true"`
	SpreadRatioMin     float64 `yaml:"spread_ratio_min" default:"1.02"`
	BaselineWindowSecs int     `yaml:"baseline_window_secs" default:"60"`
	PumpVsBaselineMin  float64 `yaml:"pump_vs_baseline_min" default:"1.03"`
	MarkStabilityMax   float64 `yaml:"mark_stability_max" default:"0.005"`
	MinPrice           float64 `yaml:"min_price" default:"0.0001"`
}

type Strategy4Config struct {
	Enabled        bool    `yaml:"enabled" default:"true"`
	SpreadRatioMin float64 `yaml:"spread_ratio_min" default:"1.02"`
	MinAbsDiff     float64 `yaml:"min_abs_diff" default:"0.0001"`
	MinPrice       float64 `yaml:"min_price" default:"0.0001"`
}

type Strategy5Config struct {
	Enabled  bool    `yaml:"enabled" default:"true"`
	MinPrice float64 `yaml:"min_price" default:"0.0001"`
}

type ChartExportConfig struct {
	Enabled              bool   `yaml:"enabled" default:"true"`
	ChartsDir            string `yaml:"charts_dir" default:"charts"`
	PreAnomalyBufferSecs int    `yaml:"pre_anomaly_buffer_secs" default:"10"`
	PostAnomalySecs      int    `yaml:"post_anomaly_recording_secs" default:"10"`
}

// Load reads and parses a YAML configuration file, applying struct defaults
// before validation.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("MEXC_REST_URL"); v != "" {
		c.API.BaseRestURL = v
	}
	if v := os.Getenv("MEXC_WS_URL"); v != "" {
		c.API.BaseWSURL = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.General.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("LOG_DIR"); v != "" {
		c.General.LogDir = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.API.BaseRestURL == "" {
		return fmt.Errorf("api.base_rest_url is required")
	}
	if c.API.BaseWSURL == "" {
		return fmt.Errorf("api.base_ws_url is required")
	}
	if c.Cooldowns.PerSymbolSeconds <= 0 {
		return fmt.Errorf("cooldowns.per_symbol_seconds must be positive")
	}
	if c.Orderbook.MaxLevels <= 0 {
		return fmt.Errorf("orderbook.max_levels must be positive")
	}
	if c.Orderbook.DepthBandPct <= 0 || c.Orderbook.DepthBandPct >= 1 {
		return fmt.Errorf("orderbook.depth_band_pct must be in (0, 1)")
	}
	// History retains 120s; longer lookbacks would defer forever.
	if c.Strategy2.SpikeLookbackSecs <= 0 || c.Strategy2.SpikeLookbackSecs > 120 {
		return fmt.Errorf("strategy2.spike_lookback_secs must be in (0, 120]")
	}
	if c.Strategy3.BaselineWindowSecs <= 0 || c.Strategy3.BaselineWindowSecs > 120 {
		return fmt.Errorf("strategy3.baseline_window_secs must be in (0, 120]")
	}
	if c.ChartExport.Enabled {
		if c.ChartExport.PreAnomalyBufferSecs < 0 || c.ChartExport.PostAnomalySecs < 0 {
			return fmt.Errorf("chart_export buffer durations must not be negative")
		}
	}
	return nil
}
