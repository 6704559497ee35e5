package renderer

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/etnz/cryptotax"
	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"
)

// GainsMarkdown renders the realized gains, the open lots and the failures of
// an engine run.
func GainsMarkdown(r *cryptotax.Report) string {
	var b strings.Builder
	cur := r.Currency

	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Capital Gains Report")
	doc.PlainText("Method: FIFO")

	if len(r.Realizations) == 0 {
		doc.PlainText("No disposal realized.")
	} else {
		doc.H2("Realized Gains")
		table := md.TableSet{
			Header: []string{"Disposal", "Date", "Asset", "Quantity", "Proceeds", "Cost Basis", "Gain/Loss"},
			Rows:   [][]string{},
		}
		total := decimal.Zero
		for _, rz := range r.Realizations {
			total = total.Add(rz.Gain)
			table.Rows = append(table.Rows, []string{
				fmt.Sprintf("#%d", rz.DisposalID),
				rz.Date.String(),
				rz.Asset,
				rz.Quantity.String(),
				money(rz.Proceeds, cur),
				money(rz.CostBasis, cur),
				signed(rz.Gain, cur),
			})
		}
		table.Rows = append(table.Rows, []string{"**Total**", "", "", "", "", "", "**" + signed(total, cur) + "**"})
		doc.Table(table)
	}
	b.WriteString(doc.String())

	ConditionalBlock(&b, func(w io.Writer) bool {
		var buf bytes.Buffer
		doc := md.NewMarkdown(&buf)
		doc.H2("Open Lots")
		table := md.TableSet{
			Header: []string{"Asset", "Acquisition", "Acquired On", "Remaining", "Unit Cost", "Cost"},
			Rows:   [][]string{},
		}
		assets := make([]string, 0, len(r.Lots))
		for asset := range r.Lots {
			assets = append(assets, asset)
		}
		slices.Sort(assets)
		for _, asset := range assets {
			for _, l := range r.Lots[asset] {
				table.Rows = append(table.Rows, []string{
					asset,
					fmt.Sprintf("#%d", l.AcquisitionID),
					l.AcquiredOn.String(),
					l.Remaining.String(),
					money(l.UnitCost, cur),
					money(l.Cost(), cur),
				})
			}
		}
		doc.Table(table)
		io.WriteString(w, "\n"+doc.String())
		return len(table.Rows) > 0
	})

	ConditionalBlock(&b, func(w io.Writer) bool {
		var buf bytes.Buffer
		doc := md.NewMarkdown(&buf)
		doc.H2("Errors")
		items := make([]string, 0, len(r.Errors))
		for _, err := range r.Errors {
			items = append(items, err.Error())
		}
		doc.BulletList(items...)
		io.WriteString(w, "\n"+doc.String())
		return len(items) > 0
	})
	return b.String()
}
