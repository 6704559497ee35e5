package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/etnz/cryptotax"
	"github.com/etnz/cryptotax/date"
	"github.com/etnz/cryptotax/oracle"
)

// loadPrices reads manual prices from a CSV or XLSX file with Token, Date and
// Price columns. Prices are in currency.
func loadPrices(path, currency string) (*oracle.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open prices: %w", err)
	}
	defer f.Close()

	t, err := cryptotax.ReadTable(f, cryptotax.FormatOf(path), "")
	if err != nil {
		return nil, fmt.Errorf("cannot read prices %q: %w", path, err)
	}
	token, day, price := t.Column(cryptotax.ColToken), t.Column(cryptotax.ColDate), t.Column(cryptotax.ColPrice)
	if token < 0 || day < 0 || price < 0 {
		return nil, fmt.Errorf("prices %q: %s, %s and %s columns are required", path, cryptotax.ColToken, cryptotax.ColDate, cryptotax.ColPrice)
	}

	var table oracle.Table
	var errs error
	for i, row := range t.Rows {
		if len(row) <= max(token, day, price) {
			continue
		}
		on, err := date.Parse(row[day])
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("line %d: %w", t.Line(i), err))
			continue
		}
		var p decimalFlag
		if err := p.Set(row[price]); err != nil || p.Decimal.IsNegative() {
			errs = errors.Join(errs, fmt.Errorf("line %d: invalid price %q", t.Line(i), row[price]))
			continue
		}
		table.Set(row[token], on, currency, p.Decimal)
	}
	if errs != nil {
		return nil, fmt.Errorf("prices %q: %w", path, errs)
	}
	return &table, nil
}
