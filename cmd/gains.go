package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/cryptotax"
	"github.com/etnz/cryptotax/renderer"
	"github.com/google/subcommands"
)

// gainsCmd holds the flags for the 'gains' subcommand.
type gainsCmd struct {
	filterFlags
}

func (*gainsCmd) Name() string     { return "gains" }
func (*gainsCmd) Synopsis() string { return "realized capital gains, first in first out" }
func (*gainsCmd) Usage() string {
	return `ctax gains [-s <start_date>] [-d <end_date> | -year <year>] [-a <asset>]

  Matches every disposal against the earliest acquisitions of the same asset
  and reports the realized gains of the period, the lots still open, and the
  assets that could not be processed.

  Events without a unit valuation are priced with the manual prices (-prices)
  and then the price API, unless -offline is set.
`
}

func (c *gainsCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
}

func (c *gainsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	period, err := c.period()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	// lots depend on the whole history: the period only selects realizations.
	filters, err := c.filters(false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	report, status := computeGains(ctx, filters...)
	if report == nil {
		return status
	}
	printMarkdown(renderer.GainsMarkdown(report.Within(period)))
	if len(report.Errors) > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// computeGains runs the engine over the ledger events.
func computeGains(ctx context.Context, filters ...cryptotax.Filter) (*cryptotax.Report, subcommands.ExitStatus) {
	cfg, err := Settings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	l, err := loadLedger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	engine, err := newEngine(cfg, l)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	return engine.Process(ctx, l.Events(filters...)), subcommands.ExitSuccess
}
