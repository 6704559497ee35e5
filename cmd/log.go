package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/cryptotax/renderer"
	"github.com/google/subcommands"
)

type logCmd struct {
	filterFlags
	head int
	tail int
}

func (*logCmd) Name() string     { return "log" }
func (*logCmd) Synopsis() string { return "list the income entries of the ledger" }
func (*logCmd) Usage() string {
	return `ctax log [-s <start_date>] [-d <end_date> | -year <year>] [-c <category>] [-a <asset>] [-head <n>] [-tail <n>]

  Lists the recorded income entries, with options for filtering and limiting the output.
`
}

func (p *logCmd) SetFlags(f *flag.FlagSet) {
	p.setFlags(f)
	f.IntVar(&p.head, "head", 0, "Show only the first N entries.")
	f.IntVar(&p.tail, "tail", 0, "Show only the last N entries.")
}

func (p *logCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.head > 0 && p.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}
	filters, err := p.filters(true)
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
	if p.head > 0 && len(events) > p.head {
		events = events[:p.head]
	}
	if p.tail > 0 && len(events) > p.tail {
		events = events[len(events)-p.tail:]
	}

	printMarkdown(renderer.LogMarkdown(events, l.Currency()))
	return subcommands.ExitSuccess
}
