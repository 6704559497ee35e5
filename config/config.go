// Package config loads the ctax configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Environment variables read by Load.
const (
	EnvCurrency       = "CTAX_CURRENCY"
	EnvThreshold      = "CTAX_THRESHOLD"
	EnvOracleURL      = "CTAX_ORACLE_URL"
	EnvOracleTimeout  = "CTAX_ORACLE_TIMEOUT"
	EnvOracleAPIKey   = "CTAX_ORACLE_API_KEY"
	EnvOracleCache    = "CTAX_ORACLE_CACHE"
	EnvLedgerFile     = "CTAX_LEDGER_FILE"
	EnvEnvironment    = "CTAX_ENV"
	EnvAddr           = "CTAX_ADDR"
	EnvParallelism    = "CTAX_PARALLELISM"
	EnvAssistantModel = "CTAX_ASSISTANT_MODEL"
)

// Config holds the application configuration.
type Config struct {
	// Currency is the valuation currency (ISO-4217) of every declared value.
	Currency string
	// Threshold is the reporting threshold for compliance alerts.
	Threshold decimal.Decimal

	OracleURL     string
	OracleTimeout time.Duration
	OracleAPIKey  string
	// OracleCache enables the daily disk cache in front of the price oracle,
	// stored in OracleCacheDir or a temporary directory when empty.
	OracleCache    bool
	OracleCacheDir string

	LedgerFile  string
	Environment string
	Addr        string
	Parallelism int

	AssistantModel string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Currency:       "UGX",
		Threshold:      decimal.NewFromInt(10_000_000),
		OracleURL:      "https://api.coingecko.com/api/v3",
		OracleTimeout:  10 * time.Second,
		LedgerFile:     "ledger.jsonl",
		Environment:    "development",
		Addr:           ":8080",
		Parallelism:    4,
		AssistantModel: "gemini-2.5-flash",
	}
}

// Load loads a .env file from the working directory if there is one, and then
// reads the configuration from the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("cannot read .env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, starting from Default.
func FromEnv(getenv func(string) string) (Config, error) {
	c := Default()
	var errs error

	if v := strings.TrimSpace(getenv(EnvCurrency)); v != "" {
		c.Currency = strings.ToUpper(v)
	}
	if err := ValidateCurrency(c.Currency); err != nil {
		errs = errors.Join(errs, fmt.Errorf("%s: %w", EnvCurrency, err))
	}

	if v := strings.TrimSpace(getenv(EnvThreshold)); v != "" {
		d, err := decimal.NewFromString(strings.ReplaceAll(v, "_", ""))
		switch {
		case err != nil:
			errs = errors.Join(errs, fmt.Errorf("%s: invalid decimal %q: %w", EnvThreshold, v, err))
		case d.IsNegative():
			errs = errors.Join(errs, fmt.Errorf("%s: threshold must not be negative, got %s", EnvThreshold, v))
		default:
			c.Threshold = d
		}
	}

	if v := strings.TrimSpace(getenv(EnvOracleURL)); v != "" {
		c.OracleURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(getenv(EnvOracleTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			errs = errors.Join(errs, fmt.Errorf("%s: invalid duration %q", EnvOracleTimeout, v))
		} else {
			c.OracleTimeout = d
		}
	}
	c.OracleAPIKey = strings.TrimSpace(getenv(EnvOracleAPIKey))
	if v := strings.TrimSpace(getenv(EnvOracleCache)); v != "" {
		// a boolean, or the cache directory.
		if b, err := strconv.ParseBool(v); err == nil {
			c.OracleCache = b
		} else {
			c.OracleCache, c.OracleCacheDir = true, v
		}
	}

	if v := strings.TrimSpace(getenv(EnvLedgerFile)); v != "" {
		c.LedgerFile = v
	}
	if v := strings.TrimSpace(getenv(EnvEnvironment)); v != "" {
		c.Environment = v
	}
	if v := strings.TrimSpace(getenv(EnvAddr)); v != "" {
		c.Addr = v
	}
	if v := strings.TrimSpace(getenv(EnvParallelism)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			errs = errors.Join(errs, fmt.Errorf("%s: must be a positive integer, got %q", EnvParallelism, v))
		} else {
			c.Parallelism = n
		}
	}
	if v := strings.TrimSpace(getenv(EnvAssistantModel)); v != "" {
		c.AssistantModel = v
	}

	if errs != nil {
		return Config{}, errs
	}
	return c, nil
}

// ValidateCurrency checks that cur is a known ISO-4217 currency code.
func ValidateCurrency(cur string) error {
	if len(cur) != 3 || money.GetCurrency(cur) == nil {
		return fmt.Errorf("unknown currency %q", cur)
	}
	return nil
}
