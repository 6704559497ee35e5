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

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct {
	filterFlags
	entries bool
	html    string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "total the declared income per category" }
func (*summaryCmd) Usage() string {
	return `ctax summary [-entries] [-html <file>] [-s <start_date>] [-d <end_date> | -year <year>] [-c <category>] [-a <asset>]

  Displays the declared income of every category and the total declared
  income, for a tax return.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.BoolVar(&c.entries, "entries", false, "List the entries before the summary")
	f.StringVar(&c.html, "html", "", "Write the report as HTML to this file instead of printing it")
}

func (c *summaryCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	s := cryptotax.Summarize(slices.Values(events))
	s.Currency = l.Currency()

	md := renderer.SummaryMarkdown(s)
	if c.entries {
		md = renderer.LogMarkdown(events, l.Currency()) + "\n" + md
	}

	if c.html == "" {
		printMarkdown(md)
		return subcommands.ExitSuccess
	}
	html, err := renderer.HTML(md)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := os.WriteFile(c.html, []byte(html), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %q: %v\n", c.html, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Summary written to %s\n", c.html)
	return subcommands.ExitSuccess
}
