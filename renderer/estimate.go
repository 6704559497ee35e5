package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/cryptotax"
	md "github.com/nao1215/markdown"
)

// EstimateMarkdown renders a gain or loss computed from two market prices.
func EstimateMarkdown(e cryptotax.Estimate) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(fmt.Sprintf("Gain/Loss Estimate for %s", e.Asset))
	doc.BulletList(
		fmt.Sprintf("Purchase Price on %s: %s", e.PurchaseDate, money(e.PurchasePrice, e.Currency)),
		fmt.Sprintf("Sale Price on %s: %s", e.SaleDate, money(e.SalePrice, e.Currency)),
		fmt.Sprintf("Cost Basis (%s units): %s", e.PurchaseQuantity, money(e.CostBasis(), e.Currency)),
		fmt.Sprintf("Realization (%s units): %s", e.SaleQuantity, money(e.Proceeds(), e.Currency)),
	)
	doc.PlainText("")
	doc.PlainText(fmt.Sprintf("**Net Gain/Loss:** %s", signed(e.Gain(), e.Currency)))
	return doc.String()
}
