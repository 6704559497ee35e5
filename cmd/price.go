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

// priceCmd estimates a gain or loss from market prices, without the ledger.
type priceCmd struct {
	asset        string
	purchaseDate string
	saleDate     string
	purchased    decimalFlag
	sold         decimalFlag
}

func (*priceCmd) Name() string     { return "price" }
func (*priceCmd) Synopsis() string { return "estimate a gain or loss from historical market prices" }
func (*priceCmd) Usage() string {
	return `ctax price -a <asset> -buy <date> -sell <date> -q <quantity> [-sold <quantity>]

  Looks up the market price of the asset on the purchase and sale days and
  computes the gain or loss of selling what was bought. The ledger is not
  used: see 'ctax gains' for the gains of recorded events.
`
}

func (c *priceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.asset, "a", "bitcoin", "Asset identifier as known by the price API")
	f.StringVar(&c.purchaseDate, "buy", "", "Purchase date (YYYY-MM-DD)")
	f.StringVar(&c.saleDate, "sell", date.Today().String(), "Sale date (YYYY-MM-DD)")
	f.Var(&c.purchased, "q", "Purchased quantity")
	f.Var(&c.sold, "sold", "Sold quantity, the purchased quantity by default")
}

func (c *priceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.purchaseDate == "" || !c.purchased.Valid {
		f.Usage()
		return subcommands.ExitUsageError
	}
	bought, err := date.Parse(c.purchaseDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing purchase date: %v\n", err)
		return subcommands.ExitUsageError
	}
	sold, err := date.Parse(c.saleDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing sale date: %v\n", err)
		return subcommands.ExitUsageError
	}
	quantity := c.purchased.Decimal
	if c.sold.Valid {
		quantity = c.sold.Decimal
	}

	cfg, err := Settings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	o, err := newOracle(cfg, cfg.Currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	e, err := cryptotax.EstimateGain(ctx, o, cfg.Currency, c.asset, bought, c.purchased.Decimal, sold, quantity)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not fetch prices for given dates: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.EstimateMarkdown(e))
	return subcommands.ExitSuccess
}
