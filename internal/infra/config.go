package infra

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"stock_sim/internal/domain"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// InstrumentConfig lists one symbol at its opening price
type InstrumentConfig struct {
	Symbol string          `yaml:"symbol"`
	Price  decimal.Decimal `yaml:"price"`
}

// Config holds every application setting.
// LoadConfig overlays the file on DefaultConfig, then applies STOCKSIM_* environment variables.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Market struct {
		TickIntervalMS int                `yaml:"tick_interval_ms"`
		Volatility     float64            `yaml:"volatility"`
		SentimentBand  float64            `yaml:"sentiment_band"`
		MinPrice       decimal.Decimal    `yaml:"min_price"`
		Instruments    []InstrumentConfig `yaml:"instruments"`
	} `yaml:"market"`

	Account struct {
		StartingCash decimal.Decimal `yaml:"starting_cash"`
	} `yaml:"account"`

	Strategy struct {
		Enabled     bool     `yaml:"enabled"`
		Symbols     []string `yaml:"symbols"`
		ShortPeriod int      `yaml:"short_period"`
		LongPeriod  int      `yaml:"long_period"`
		Quantity    int64    `yaml:"quantity"`
		AutoTrade   bool     `yaml:"auto_trade"`
	} `yaml:"strategy"`

	Server struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// DefaultConfig returns the built-in eight stock market with $10,000 starting cash.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "stocksim"
	cfg.App.Version = "0.1.0"

	cfg.Market.TickIntervalMS = 2000
	cfg.Market.Volatility = 0.02
	cfg.Market.SentimentBand = 0.005
	cfg.Market.MinPrice = decimal.RequireFromString("0.01")
	cfg.Market.Instruments = []InstrumentConfig{
		{Symbol: "AAPL", Price: decimal.RequireFromString("150.50")},
		{Symbol: "GOOGL", Price: decimal.RequireFromString("2750.25")},
		{Symbol: "MSFT", Price: decimal.RequireFromString("285.75")},
		{Symbol: "AMZN", Price: decimal.RequireFromString("3300.00")},
		{Symbol: "TSLA", Price: decimal.RequireFromString("850.25")},
		{Symbol: "META", Price: decimal.RequireFromString("330.50")},
		{Symbol: "NFLX", Price: decimal.RequireFromString("450.75")},
		{Symbol: "NVDA", Price: decimal.RequireFromString("420.25")},
	}

	cfg.Account.StartingCash = decimal.RequireFromString("10000.00")

	cfg.Strategy.Enabled = false
	cfg.Strategy.Symbols = []string{"AAPL", "MSFT"}
	cfg.Strategy.ShortPeriod = 5
	cfg.Strategy.LongPeriod = 20
	cfg.Strategy.Quantity = 10
	cfg.Strategy.AutoTrade = false

	cfg.Server.Enabled = true
	cfg.Server.Addr = ":8080"

	cfg.Storage.Enabled = true
	cfg.Storage.Path = "data/stocksim.db"

	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	return &cfg
}

// LoadConfig reads and parses the config file. An empty path uses the defaults.
// A .env file beside the config (or in the working directory) feeds the
// STOCKSIM_* overrides without replacing variables already set.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	loadDotEnv(path)
	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes cfg as YAML
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	// Market
	if c.Market.TickIntervalMS <= 0 {
		return configError("market.tick_interval_ms", "must be positive")
	}
	if c.Market.Volatility < 0 {
		return configError("market.volatility", "must not be negative")
	}
	if c.Market.SentimentBand < 0 {
		return configError("market.sentiment_band", "must not be negative")
	}
	if !c.Market.MinPrice.IsPositive() {
		return configError("market.min_price", "must be positive")
	}
	if len(c.Market.Instruments) == 0 {
		return configError("market.instruments", "at least one instrument is required")
	}
	seen := make(map[string]bool, len(c.Market.Instruments))
	for i, inst := range c.Market.Instruments {
		field := fmt.Sprintf("market.instruments[%d]", i)
		if inst.Symbol == "" {
			return configError(field, "symbol is required")
		}
		if seen[inst.Symbol] {
			return configError(field, "duplicate symbol "+inst.Symbol)
		}
		seen[inst.Symbol] = true
		if !inst.Price.IsPositive() {
			return configError(field, "price must be positive")
		}
	}

	// Account
	if c.Account.StartingCash.IsNegative() {
		return configError("account.starting_cash", "must not be negative")
	}

	// Strategy
	if c.Strategy.Enabled {
		if c.Strategy.ShortPeriod <= 0 || c.Strategy.ShortPeriod >= c.Strategy.LongPeriod {
			return configError("strategy.short_period", "must be positive and below strategy.long_period")
		}
		if c.Strategy.Quantity <= 0 {
			return configError("strategy.quantity", "must be positive")
		}
		for i, sym := range c.Strategy.Symbols {
			if !seen[sym] {
				return configError(fmt.Sprintf("strategy.symbols[%d]", i), "unknown symbol "+sym)
			}
		}
	}

	// Server
	if c.Server.Enabled && c.Server.Addr == "" {
		return configError("server.addr", "required when server is enabled")
	}

	// Storage
	if c.Storage.Enabled && c.Storage.Path == "" {
		return configError("storage.path", "required when storage is enabled")
	}

	return nil
}

func configError(field, msg string) error {
	return &domain.ConfigError{Field: field, Err: errors.New(msg)}
}

func loadDotEnv(configPath string) {
	envPath := ".env"
	if configPath != "" {
		envPath = filepath.Join(filepath.Dir(configPath), ".env")
	}
	_ = godotenv.Load(envPath) // missing file is fine
}

// overrideWithEnv overwrites settings with environment variables when present.
// Unparseable values are logged and ignored.
func overrideWithEnv(cfg *Config) {
	if level := os.Getenv("STOCKSIM_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = strings.ToLower(level)
	}
	if dir := os.Getenv("STOCKSIM_LOG_DIR"); dir != "" {
		cfg.Logging.Dir = dir
	}
	if addr := os.Getenv("STOCKSIM_SERVER_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if path := os.Getenv("STOCKSIM_STORAGE_PATH"); path != "" {
		cfg.Storage.Path = path
	}
	if v := os.Getenv("STOCKSIM_TICK_INTERVAL_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("Ignoring STOCKSIM_TICK_INTERVAL_MS", slog.String("value", v), slog.Any("error", err))
		} else {
			cfg.Market.TickIntervalMS = ms
		}
	}
	if v := os.Getenv("STOCKSIM_STARTING_CASH"); v != "" {
		cash, err := decimal.NewFromString(v)
		if err != nil {
			slog.Warn("Ignoring STOCKSIM_STARTING_CASH", slog.String("value", v), slog.Any("error", err))
		} else {
			cfg.Account.StartingCash = cash
		}
	}
}
