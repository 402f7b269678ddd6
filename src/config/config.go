package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"pipwatch/src/scoring"

	"gopkg.in/yaml.v3"
)

// DefaultPairs are the major forex pairs watched when none are configured
var DefaultPairs = []string{
	"EURUSD", "GBPUSD", "USDJPY", "USDCHF",
	"AUDUSD", "USDCAD", "NZDUSD", "EURGBP",
}

// Config holds all application configuration.
type Config struct {
	Pairs          []string `yaml:"pairs"`
	UpdateInterval int      `yaml:"update_interval"` // seconds between polls
	Lookback       int      `yaml:"lookback"`        // samples fetched per pair
	TopN           int      `yaml:"top_n"`           // footer size

	Indicators struct {
		ShortWindow   int     `yaml:"short_window"`
		LongWindow    int     `yaml:"long_window"`
		RSIWindow     int     `yaml:"rsi_window"`
		Annualization float64 `yaml:"annualization"`
	} `yaml:"indicators"`

	Provider struct {
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		Proxy          string  `yaml:"proxy"`
		RequestsPerSec float64 `yaml:"requests_per_sec"`
	} `yaml:"provider"`

	StreamURL string `yaml:"stream_url"` // optional websocket tick feed

	Thresholds scoring.Thresholds `yaml:"thresholds"`

	Telegram struct {
		BotToken        string  `yaml:"bot_token"`
		ChatID          string  `yaml:"chat_id"`
		AlertScore      float64 `yaml:"alert_score"`
		CooldownMinutes int     `yaml:"cooldown_minutes"`
	} `yaml:"telegram"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is fine; defaults carry the tool.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// Environment variable overrides
	if v := os.Getenv("PIPWATCH_STREAM_URL"); v != "" {
		cfg.StreamURL = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Provider.Proxy = v
	}
	if v := os.Getenv("PIPWATCH_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.UpdateInterval = n
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if len(c.Pairs) == 0 {
		c.Pairs = append([]string(nil), DefaultPairs...)
	}
	if c.UpdateInterval == 0 {
		c.UpdateInterval = 60
	}
	if c.Lookback == 0 {
		c.Lookback = 90
	}
	if c.TopN == 0 {
		c.TopN = 3
	}
	if c.Indicators.ShortWindow == 0 {
		c.Indicators.ShortWindow = 20
	}
	if c.Indicators.LongWindow == 0 {
		c.Indicators.LongWindow = 50
	}
	if c.Indicators.RSIWindow == 0 {
		c.Indicators.RSIWindow = 14
	}
	if c.Indicators.Annualization == 0 {
		c.Indicators.Annualization = 252
	}
	if c.Provider.TimeoutSeconds == 0 {
		c.Provider.TimeoutSeconds = 10
	}
	if c.Provider.RequestsPerSec == 0 {
		c.Provider.RequestsPerSec = 4
	}
	if c.Thresholds == (scoring.Thresholds{}) {
		c.Thresholds = scoring.DefaultThresholds()
	}
	if c.Telegram.AlertScore == 0 {
		c.Telegram.AlertScore = 80
	}
	if c.Telegram.CooldownMinutes == 0 {
		c.Telegram.CooldownMinutes = 30
	}
}

// Validate checks that the configuration can actually run. Any failure
// here is fatal at startup; the dashboard never starts half-configured.
func (c *Config) Validate() error {
	if c.UpdateInterval <= 0 {
		return fmt.Errorf("update interval must be a positive number of seconds, got %d", c.UpdateInterval)
	}
	if c.Thresholds.MinRiskReward <= 0 {
		return fmt.Errorf("min risk/reward must be positive, got %g", c.Thresholds.MinRiskReward)
	}
	if c.Thresholds.MinConfidence < 0 || c.Thresholds.MinConfidence > 100 {
		return fmt.Errorf("min confidence must be within [0,100], got %g", c.Thresholds.MinConfidence)
	}
	if c.Thresholds.MaxVolatility <= 0 {
		return fmt.Errorf("max volatility must be positive, got %g", c.Thresholds.MaxVolatility)
	}
	if c.Thresholds.RSIOversold >= c.Thresholds.RSIOverbought {
		return fmt.Errorf("rsi oversold (%g) must be below rsi overbought (%g)",
			c.Thresholds.RSIOversold, c.Thresholds.RSIOverbought)
	}
	if c.Lookback < c.Indicators.LongWindow {
		return fmt.Errorf("lookback (%d) must cover the long window (%d)",
			c.Lookback, c.Indicators.LongWindow)
	}
	if len(c.Pairs) == 0 {
		return fmt.Errorf("at least one pair is required")
	}
	return nil
}

// Interval returns the update interval as a duration
func (c *Config) Interval() time.Duration {
	return time.Duration(c.UpdateInterval) * time.Second
}

// ProviderTimeout returns the per-request timeout as a duration
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSeconds) * time.Second
}
