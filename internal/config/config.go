// Package config loads tradecal settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/roach88/tradecal/internal/exchange"
	"github.com/roach88/tradecal/internal/rule"
)

// Environment variables read by Load.
const (
	EnvAdditionalRules       = "TRADECAL_ADDITIONAL_RULES"
	EnvAdditionalRulesLegacy = "ADDITIONAL_RULES"
	EnvFirstYear             = "TRADECAL_FIRST_YEAR"
	EnvLastYear              = "TRADECAL_LAST_YEAR"
	EnvDB                    = "TRADECAL_DB"
	EnvAddr                  = "TRADECAL_ADDR"
	EnvLogLevel              = "TRADECAL_LOG_LEVEL"
	EnvCORSOrigins           = "TRADECAL_CORS_ORIGINS"
)

// Defaults for unset variables.
const (
	DefaultDB   = "tradecal.db"
	DefaultAddr = ":8080"
)

// Config holds settings loaded from environment variables.
type Config struct {
	// AdditionalRules are appended to the default exchange table.
	AdditionalRules []rule.Rule

	// FirstYear and LastYear bound the default build range.
	FirstYear int
	LastYear  int

	DBPath   string
	Addr     string
	LogLevel slog.Level

	// CORSOrigins lists origins allowed to call the HTTP API
	// (comma-separated in the environment). Empty disables CORS headers.
	CORSOrigins []string
}

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads configuration through getenv. Malformed values are errors,
// not silently replaced with defaults.
func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		FirstYear: exchange.DefaultFirstYear,
		LastYear:  exchange.DefaultLastYear,
		DBPath:    getEnv(getenv, EnvDB, DefaultDB),
		Addr:      getEnv(getenv, EnvAddr, DefaultAddr),
		LogLevel:  slog.LevelInfo,
	}

	raw := getenv(EnvAdditionalRules)
	source := EnvAdditionalRules
	if raw == "" {
		raw = getenv(EnvAdditionalRulesLegacy)
		source = EnvAdditionalRulesLegacy
	}
	if raw != "" {
		rules, err := rule.DecodeList([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		cfg.AdditionalRules = rules
	}

	var err error
	if cfg.FirstYear, err = getInt(getenv, EnvFirstYear, cfg.FirstYear); err != nil {
		return nil, err
	}
	if cfg.LastYear, err = getInt(getenv, EnvLastYear, cfg.LastYear); err != nil {
		return nil, err
	}
	if cfg.FirstYear > cfg.LastYear {
		return nil, fmt.Errorf("%s (%d) after %s (%d)", EnvFirstYear, cfg.FirstYear, EnvLastYear, cfg.LastYear)
	}

	if lvl := getenv(EnvLogLevel); lvl != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(lvl)); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
	}

	for _, origin := range strings.Split(getenv(EnvCORSOrigins), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	return cfg, nil
}

// ExchangeOptions returns the RuleSet options implied by the config.
func (c *Config) ExchangeOptions() []exchange.Option {
	return []exchange.Option{exchange.WithAdditionalRules(c.AdditionalRules...)}
}

func getEnv(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(getenv func(string) string, key string, fallback int) (int, error) {
	v := getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
