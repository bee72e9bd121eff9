package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"BreakoutScanner/internal/collector"
	"BreakoutScanner/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	Universe struct {
		Path   string `yaml:"path"`
		Column string `yaml:"column"`
		Suffix string `yaml:"suffix"`
	} `yaml:"universe"`
	DataSource struct {
		BaseURL         string `yaml:"base_url"`
		Lookback        string `yaml:"lookback"`
		TimeoutSeconds  int    `yaml:"timeout_seconds"`
		CacheTTLMinutes int    `yaml:"cache_ttl_minutes"`
	} `yaml:"data_source"`
	Detector struct {
		SupportThreshold      float64 `yaml:"support_threshold"`
		AppreciationThreshold float64 `yaml:"appreciation_threshold"`
	} `yaml:"detector"`
	Scan struct {
		Workers int `yaml:"workers"`
	} `yaml:"scan"`
	Output struct {
		ResultsCSV string `yaml:"results_csv"`
		ChartDir   string `yaml:"chart_dir"`
		StatePath  string `yaml:"state_path"`
	} `yaml:"output"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		ScanCron string `yaml:"scan_cron"`
	} `yaml:"schedule"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment overrides.
// A missing file is not an error. Numeric settings keep their defaults only
// when neither the file nor the environment sets them, so an explicit 0
// reaches Validate.
func Load(path string) (*Config, error) {
	cfg := newDefault()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("UNIVERSE_PATH", &c.Universe.Path)
	setString("SYMBOL_SUFFIX", &c.Universe.Suffix)
	setString("LOOKBACK", &c.DataSource.Lookback)
	setString("RESULTS_CSV", &c.Output.ResultsCSV)
	setString("CHART_DIR", &c.Output.ChartDir)
	setString("STATE_PATH", &c.Output.StatePath)
	setString("SQLITE_PATH", &c.Database.SQLitePath)
	setString("TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken)
	setString("TELEGRAM_CHAT_ID", &c.Telegram.ChatID)
	setString("CRON_SCAN", &c.Schedule.ScanCron)
	setString("HTTPS_PROXY", &c.Proxy)
	setString("LOG_LEVEL", &c.Log.Level)

	if v := os.Getenv("SUPPORT_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SUPPORT_THRESHOLD: %w", err)
		}
		c.Detector.SupportThreshold = f
	}
	if v := os.Getenv("APPRECIATION_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("APPRECIATION_THRESHOLD: %w", err)
		}
		c.Detector.AppreciationThreshold = f
	}
	if v := os.Getenv("SCAN_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SCAN_WORKERS: %w", err)
		}
		c.Scan.Workers = n
	}
	return nil
}

func newDefault() *Config {
	cfg := &Config{}
	cfg.DataSource.TimeoutSeconds = 30
	cfg.DataSource.CacheTTLMinutes = 60
	cfg.Detector.SupportThreshold = strategy.DefaultSupportThreshold
	cfg.Detector.AppreciationThreshold = strategy.DefaultAppreciationThreshold
	cfg.Scan.Workers = 1
	return cfg
}

// applyDefaults fills string settings left empty.
func (c *Config) applyDefaults() {
	if c.Universe.Path == "" {
		c.Universe.Path = "NSElist.csv"
	}
	if c.Universe.Column == "" {
		c.Universe.Column = "SYMBOL"
	}
	if c.Universe.Suffix == "" {
		c.Universe.Suffix = ".NS"
	}
	if c.DataSource.Lookback == "" {
		c.DataSource.Lookback = collector.DefaultLookback
	}
	if c.Output.ResultsCSV == "" {
		c.Output.ResultsCSV = "stock_scanner_results.csv"
	}
	if c.Output.ChartDir == "" {
		c.Output.ChartDir = "StockGraphs"
	}
	if c.Output.StatePath == "" {
		c.Output.StatePath = "data/last_scan.json"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/scanner.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Thresholds returns the detector thresholds.
func (c *Config) Thresholds() strategy.Thresholds {
	return strategy.Thresholds{
		Support:      c.Detector.SupportThreshold,
		Appreciation: c.Detector.AppreciationThreshold,
	}
}

// Timeout returns the provider request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.DataSource.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long fetched series stay cached. Zero or less disables caching.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.DataSource.CacheTTLMinutes) * time.Minute
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if err := c.Thresholds().Validate(); err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("scan.workers must be at least 1")
	}
	if !collector.ValidLookback(c.DataSource.Lookback) {
		return fmt.Errorf("data_source.lookback %q is not one of %v", c.DataSource.Lookback, collector.Lookbacks)
	}
	if c.DataSource.TimeoutSeconds < 1 {
		return fmt.Errorf("data_source.timeout_seconds must be at least 1")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Schedule.ScanCron != "" {
		if _, err := cron.NewParser(cronFields).Parse(c.Schedule.ScanCron); err != nil {
			return fmt.Errorf("schedule.scan_cron: %w", err)
		}
	}
	return nil
}

// cronFields matches cron.WithSeconds().
const cronFields = cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor
