package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/cryptotax"
	md "github.com/nao1215/markdown"
)

// LogMarkdown renders the events of a ledger as a table.
func LogMarkdown(events []cryptotax.Event, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Crypto Income Entries")
	if len(events) == 0 {
		doc.PlainText("No crypto income entries yet.")
		return doc.String()
	}

	table := md.TableSet{
		Header: []string{"#", "Date", "Category", "Kind", "Asset", "Quantity", "Unit Valuation", "Declared", "Details"},
		Rows:   [][]string{},
	}
	for _, e := range events {
		unit := "-"
		if e.Valuation.Valid {
			unit = money(e.Valuation.Decimal, currency)
		}
		table.Rows = append(table.Rows, []string{
			fmt.Sprint(e.ID),
			e.Date.String(),
			e.Category.Title(),
			string(e.Kind),
			e.Asset,
			e.Quantity.String(),
			unit,
			declared(e, currency),
			metadata(e),
		})
	}
	doc.Table(table)
	return doc.String()
}
