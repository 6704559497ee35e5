package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"

	"github.com/etnz/cryptotax"
	"github.com/etnz/cryptotax/renderer"
	"github.com/google/subcommands"
)

type alertsCmd struct {
	filterFlags
	gains bool
}

func (*alertsCmd) Name() string     { return "alerts" }
func (*alertsCmd) Synopsis() string { return "flag entries above the reporting threshold" }
func (*alertsCmd) Usage() string {
	return `ctax [-threshold <value>] alerts [-gains] [-s <start_date>] [-d <end_date> | -year <year>] [-c <category>] [-a <asset>]

  Flags every entry whose declared value is strictly above the reporting
  threshold. With -gains, realized gains above the threshold are flagged too.
`
}

func (c *alertsCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.BoolVar(&c.gains, "gains", false, "Also flag realized gains above the threshold (may query the price API)")
}

func (c *alertsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	filters, err := c.filters(true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	cfg, err := Settings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	l, err := loadLedger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	events := l.Events(filters...)
	alerts := cryptotax.Evaluate(slices.Values(events), cfg.Threshold)

	if c.gains {
		period, _ := c.period()
		gainFilters, _ := c.filters(false)
		report, status := computeGains(ctx, gainFilters...)
		if report == nil {
			return status
		}
		for _, err := range report.Errors {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		alerts = append(alerts, cryptotax.EvaluateRealizations(report.Within(period).Realizations, cfg.Threshold)...)
	}

	printMarkdown(renderer.AlertsMarkdown(alerts, len(events), cfg.Threshold, l.Currency()))
	return subcommands.ExitSuccess
}
