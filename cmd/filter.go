package cmd

import (
	"flag"
	"fmt"

	"github.com/etnz/cryptotax"
	"github.com/etnz/cryptotax/date"
)

// filterFlags select the events a report is about.
type filterFlags struct {
	start    string
	end      string
	year     int
	category string
	asset    string
}

func (p *filterFlags) setFlags(f *flag.FlagSet) {
	f.StringVar(&p.start, "s", "", "Start date of the reporting period (YYYY-MM-DD)")
	f.StringVar(&p.end, "d", "", "End date of the reporting period (YYYY-MM-DD)")
	f.IntVar(&p.year, "year", 0, "Report on a calendar year. Overrides -s and -d")
	f.StringVar(&p.category, "c", "", "Only report on a category (trading, staking, mining, nft, defi)")
	f.StringVar(&p.asset, "a", "", "Only report on an asset")
}

// period returns the reporting period, open ended when no flag is set.
func (p *filterFlags) period() (date.Range, error) {
	if p.year != 0 {
		return date.Year(p.year), nil
	}
	var r date.Range
	var err error
	if p.start != "" {
		if r.From, err = date.Parse(p.start); err != nil {
			return r, fmt.Errorf("invalid start date: %w", err)
		}
	}
	if p.end != "" {
		if r.To, err = date.Parse(p.end); err != nil {
			return r, fmt.Errorf("invalid end date: %w", err)
		}
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return r, fmt.Errorf("end date %s is before start date %s", r.To, r.From)
	}
	return r, nil
}

// filters returns the ledger filters for the flags. When period is false the
// reporting period is left out.
func (p *filterFlags) filters(period bool) ([]cryptotax.Filter, error) {
	var filters []cryptotax.Filter
	if period {
		r, err := p.period()
		if err != nil {
			return nil, err
		}
		filters = append(filters, cryptotax.Between(r))
	}
	if p.category != "" {
		c, err := cryptotax.ParseCategory(p.category)
		if err != nil {
			return nil, err
		}
		filters = append(filters, cryptotax.ByCategory(c))
	}
	if p.asset != "" {
		filters = append(filters, cryptotax.ByAsset(p.asset))
	}
	return filters, nil
}
