package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/cryptotax"
	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"
)

// AlertsMarkdown renders compliance alerts. scanned is the number of events
// that were evaluated.
func AlertsMarkdown(alerts []cryptotax.Alert, scanned int, threshold decimal.Decimal, currency string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Compliance & Risk Alerts")
	doc.PlainText(fmt.Sprintf("Reporting threshold: %s", money(threshold, currency)))

	switch {
	case scanned == 0:
		doc.PlainText("No crypto income entries yet to analyze.")
	case len(alerts) == 0:
		doc.PlainText("All entries appear below the reporting threshold. Good compliance!")
	default:
		items := make([]string, 0, len(alerts))
		for _, a := range alerts {
			what := "High-value transaction detected"
			if a.Realized {
				what = "High realized gain detected"
			}
			items = append(items, fmt.Sprintf("%s in %s (#%d, %s, %s): %s",
				what, a.Category.Title(), a.EventID, a.Asset, a.Date, money(a.Value, currency)))
		}
		doc.BulletList(items...)
	}
	return doc.String()
}
