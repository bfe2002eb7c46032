// Package config implements env-var driven startup configuration
// (SPEC_FULL.md Part B.3), grounded on libs/database/config.go's
// self-correcting-defaults style: a Config struct with sensible defaults,
// loaded from BACKTEST_* environment variables and validated with
// go-playground/validator. Invalid config is a startup-time fatal error,
// never a mid-run one.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Config is the engine's startup configuration, independent of any one
// run's strategy or instrument set.
type Config struct {
	InitialCash       float64 `validate:"gt=0"`
	AllowFractions    bool
	AllowNegativeCash bool
	VolumeLimit       float64 `validate:"gte=0,lte=1"`

	TradingDayEndOfDay bool
	TradingDayEndHour  int `validate:"gte=0,lte=23"`

	DailySharpe  bool
	RiskFreeRate float64 `validate:"gte=0"`

	// ListenAddr is cmd/backtestd's bind address.
	ListenAddr string `validate:"required"`
	// JWTSecret signs/verifies bearer tokens (SPEC_FULL.md Part C.3).
	JWTSecret string `validate:"required"`
	// DatabaseURL is the store's Postgres DSN (SPEC_FULL.md Part C.2).
	DatabaseURL string `validate:"required"`
}

// Default returns a Config with the same production defaults the
// monorepo's other self-correcting configs use as a starting point.
func Default() *Config {
	return &Config{
		InitialCash:       100000,
		AllowFractions:    true,
		AllowNegativeCash: false,
		VolumeLimit:       0,
		TradingDayEndHour: 16,
		DailySharpe:       true,
		RiskFreeRate:      0,
		ListenAddr:        ":8080",
	}
}

// FromEnv loads a Config starting from Default(), overriding any field with
// a matching BACKTEST_* environment variable, then validates the result.
func FromEnv() (*Config, error) {
	cfg := Default()

	if v := os.Getenv("BACKTEST_INITIAL_CASH"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("config: BACKTEST_INITIAL_CASH: %w", err)
		}
		cfg.InitialCash = f
	}
	if v := os.Getenv("BACKTEST_ALLOW_FRACTIONS"); v != "" {
		cfg.AllowFractions = v == "true" || v == "1"
	}
	if v := os.Getenv("BACKTEST_ALLOW_NEGATIVE_CASH"); v != "" {
		cfg.AllowNegativeCash = v == "true" || v == "1"
	}
	if v := os.Getenv("BACKTEST_VOLUME_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("config: BACKTEST_VOLUME_LIMIT: %w", err)
		}
		cfg.VolumeLimit = f
	}
	if v := os.Getenv("BACKTEST_TRADING_DAY_END_HOUR"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("config: BACKTEST_TRADING_DAY_END_HOUR: %w", err)
		}
		cfg.TradingDayEndHour = n
	}
	if v := os.Getenv("BACKTEST_DAILY_SHARPE"); v != "" {
		cfg.DailySharpe = v == "true" || v == "1"
	}
	if v := os.Getenv("BACKTEST_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("BACKTEST_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("BACKTEST_DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration's struct tags with
// go-playground/validator, the same way the monorepo's ingest/auth layers
// validate inbound config and request structs.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: invalid configuration: %w", err)
	}
	return nil
}
