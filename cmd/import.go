package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/cryptotax"
	"github.com/etnz/cryptotax/date"
	"github.com/etnz/cryptotax/renderer"
	"github.com/google/subcommands"
)

type importCmd struct {
	preview  bool
	category string
	date     string
	sheet    string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a wallet or exchange export (CSV or XLSX)" }
func (*importCmd) Usage() string {
	return `ctax import [-preview] [-c <category>] [-d <date>] [-sheet <name>] <file>

  Imports the rows of a wallet or exchange export. The file needs a header
  with at least the Token and Amount columns. Date, Type, Category, Price and
  Value columns are used when present.

  Every row is either added to the ledger or reported with its line number.
  With -preview, the rows are only displayed.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.preview, "preview", false, "Display the rows found without importing them")
	f.StringVar(&c.category, "c", "", "Category of rows without a Category column (default trading)")
	f.StringVar(&c.date, "d", date.Today().String(), "Date of rows without a Date column")
	f.StringVar(&c.sheet, "sheet", "", "Sheet to read in a spreadsheet, the first one by default")
}

func (c *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	var opts cryptotax.ImportOptions
	var err error
	if c.category != "" {
		if opts.Category, err = cryptotax.ParseCategory(c.category); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	if c.date != "" {
		if opts.DefaultDate, err = date.Parse(c.date); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	path := f.Arg(0)
	file, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer file.Close()
	table, err := cryptotax.ReadTable(file, cryptotax.FormatOf(path), c.sheet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", path, err)
		return subcommands.ExitFailure
	}

	if c.preview {
		rows, rowErrors, err := table.Drafts(opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", path, err)
			return subcommands.ExitFailure
		}
		printMarkdown(renderer.PreviewMarkdown(rows, rowErrors))
		return subcommands.ExitSuccess
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
	report, err := cryptotax.ImportTable(l, table, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing %q: %v\n", path, err)
		return subcommands.ExitFailure
	}
	if len(report.Appended) > 0 {
		if err := saveLedger(cfg, l); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	printMarkdown(renderer.ImportMarkdown(report))
	return subcommands.ExitSuccess
}
