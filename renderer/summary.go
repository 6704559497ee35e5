package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/cryptotax"
	md "github.com/nao1215/markdown"
)

// SummaryMarkdown renders the declared income per category.
func SummaryMarkdown(s cryptotax.Summary) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Summary of Crypto Income Entries")

	entries := 0
	for _, n := range s.Count {
		entries += n
	}
	if entries == 0 {
		doc.PlainText("No crypto income entries yet.")
	}
	doc.PlainText("")

	table := md.TableSet{
		Header: []string{"Category", "Entries", fmt.Sprintf("Declared (%s)", s.Currency)},
		Rows:   [][]string{},
	}
	for _, c := range cryptotax.Categories {
		table.Rows = append(table.Rows, []string{
			c.Title(),
			fmt.Sprint(s.Count[c]),
			money(s.ByCategory[c], s.Currency),
		})
	}
	doc.Table(table)
	doc.PlainText("")
	doc.PlainText(fmt.Sprintf("**Total Declared Crypto Income (%s):** %s", s.Currency, money(s.Total, s.Currency)))
	return doc.String()
}
