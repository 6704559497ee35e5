// Package cmd implements the subcommands of the ctax command line.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/cryptotax"
	"github.com/etnz/cryptotax/config"
	"github.com/etnz/cryptotax/logger"
	"github.com/etnz/cryptotax/oracle"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, g := range groups {
		for _, cmd := range g.commands {
			c.Register(cmd, g.name)
		}
	}
}

type group struct {
	name     string
	commands []subcommands.Command
}

var groups = []group{
	{"entries", []subcommands.Command{&tradeCmd{}, &stakeCmd{}, &mineCmd{}, &nftCmd{}, &defiCmd{}, &importCmd{}, &fmtCmd{}}},
	{"reports", []subcommands.Command{&logCmd{}, &gainsCmd{}, &alertsCmd{}, &summaryCmd{}, &priceCmd{}, &publishCmd{}}},
	{"services", []subcommands.Command{&serveCmd{}, &assistCmd{}}},
	{"help", []subcommands.Command{&topicCmd{}}},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	ledgerFile = flag.String("ledger-file", "", "Path to the ledger file (JSONL). Defaults to $CTAX_LEDGER_FILE or ledger.jsonl")
	currency   = flag.String("currency", "", "Valuation currency (ISO-4217). Defaults to $CTAX_CURRENCY or UGX")
	threshold  = flag.String("threshold", "", "Reporting threshold for compliance alerts. Defaults to $CTAX_THRESHOLD or 10000000")
	oracleURL  = flag.String("oracle-url", "", "Base url of the price history API. Defaults to $CTAX_ORACLE_URL")
	pricesFile = flag.String("prices", "", "Optional CSV or XLSX file of manual prices (Token, Date, Price), looked up before the price API")
	offline    = flag.Bool("offline", false, "Never call the price API, only manual prices and recorded valuations are used")
	raw        = flag.Bool("raw", false, "Print reports as raw markdown")
	// Verbose enables debug logging.
	Verbose = flag.Bool("v", false, "Verbose logging")
)

// Settings returns the configuration read from the environment, overridden by
// the global flags.
func Settings() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if *ledgerFile != "" {
		cfg.LedgerFile = *ledgerFile
	}
	if *currency != "" {
		if err := config.ValidateCurrency(strings.ToUpper(*currency)); err != nil {
			return cfg, fmt.Errorf("-currency: %w", err)
		}
		cfg.Currency = strings.ToUpper(*currency)
	}
	if *threshold != "" {
		d, err := decimal.NewFromString(strings.ReplaceAll(*threshold, "_", ""))
		if err != nil || d.IsNegative() {
			return cfg, fmt.Errorf("-threshold: invalid value %q", *threshold)
		}
		cfg.Threshold = d
	}
	if *oracleURL != "" {
		cfg.OracleURL = strings.TrimRight(*oracleURL, "/")
	}
	if *Verbose {
		cfg.Environment = "debug"
	}
	return cfg, nil
}

// loadLedger loads the ledger file. An existing ledger keeps its own currency
// unless -currency asks for another one.
func loadLedger(cfg config.Config) (*cryptotax.Ledger, error) {
	cur := *currency
	if _, err := os.Stat(cfg.LedgerFile); errors.Is(err, fs.ErrNotExist) {
		cur = cfg.Currency
	}
	return cryptotax.LoadLedger(cfg.LedgerFile, cur)
}

// saveLedger writes the ledger back to the ledger file.
func saveLedger(cfg config.Config, l *cryptotax.Ledger) error {
	if err := cryptotax.SaveLedger(cfg.LedgerFile, l); err != nil {
		return fmt.Errorf("cannot save ledger %q: %w", cfg.LedgerFile, err)
	}
	return nil
}

// newOracle builds the price oracle: manual prices in currency first, then
// the price API.
func newOracle(cfg config.Config, currency string) (oracle.Oracle, error) {
	var oracles []oracle.Oracle
	if *pricesFile != "" {
		manual, err := loadPrices(*pricesFile, currency)
		if err != nil {
			return nil, err
		}
		oracles = append(oracles, manual)
	}
	if !*offline {
		client := &http.Client{Timeout: cfg.OracleTimeout}
		if cfg.OracleCache {
			client.Transport = oracle.NewCachingTransport(nil, cfg.OracleCacheDir, logger.Get())
		}
		oracles = append(oracles, oracle.NewCoinGecko(
			oracle.WithBaseURL(cfg.OracleURL),
			oracle.WithAPIKey(cfg.OracleAPIKey),
			oracle.WithClient(client),
			oracle.WithLogger(logger.Get()),
		))
	}
	return oracle.Instrument(oracle.Fallback(oracles...)), nil
}

// newEngine builds the lot accounting engine for a ledger.
func newEngine(cfg config.Config, l *cryptotax.Ledger) (*cryptotax.Engine, error) {
	o, err := newOracle(cfg, l.Currency())
	if err != nil {
		return nil, err
	}
	return &cryptotax.Engine{
		Oracle:      o,
		Currency:    l.Currency(),
		Parallelism: cfg.Parallelism,
		Logger:      logger.Get(),
	}, nil
}

// printMarkdown renders md for the terminal.
func printMarkdown(md string) {
	if *raw {
		fmt.Print(md)
		return
	}
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// decimalFlag is a flag.Value for optional decimal values.
type decimalFlag struct{ decimal.NullDecimal }

func (f *decimalFlag) String() string {
	if f == nil || !f.Valid {
		return ""
	}
	return f.Decimal.String()
}

func (f *decimalFlag) Set(s string) error {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	f.NullDecimal = decimal.NewNullDecimal(d)
	return nil
}
