package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/cryptotax"
	md "github.com/nao1215/markdown"
)

// PreviewMarkdown renders the tokens and amounts found in an export, and the
// rows that could not be read.
func PreviewMarkdown(rows []cryptotax.Row, rowErrors []cryptotax.RowError) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Preview of Uploaded Data")
	if len(rows) == 0 {
		doc.PlainText("No row can be imported.")
	} else {
		doc.PlainText("Tokens and amounts found:")
		doc.PlainText("")
		table := md.TableSet{
			Header: []string{"Row", "Token", "Amount", "Date", "Category", "Kind"},
			Rows:   [][]string{},
		}
		for _, r := range rows {
			kind := string(r.Draft.Kind)
			if kind == "" {
				kind = "default"
			}
			table.Rows = append(table.Rows, []string{
				fmt.Sprint(r.Row), r.Token, r.Amount, r.Draft.Date.String(), string(r.Draft.Category), kind,
			})
		}
		doc.Table(table)
	}
	writeRowErrors(doc, rowErrors)
	return doc.String()
}

// ImportMarkdown renders the outcome of an import.
func ImportMarkdown(report *cryptotax.ImportReport) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Import")
	doc.PlainText(fmt.Sprintf("%d entries added, %d rows rejected.", len(report.Appended), len(report.Errors)))
	writeRowErrors(doc, report.Errors)
	return doc.String()
}

func writeRowErrors(doc *md.Markdown, rowErrors []cryptotax.RowError) {
	if len(rowErrors) == 0 {
		return
	}
	doc.H2("Rejected Rows")
	table := md.TableSet{
		Header: []string{"Row", "Field", "Reason"},
		Rows:   [][]string{},
	}
	for _, e := range rowErrors {
		table.Rows = append(table.Rows, []string{fmt.Sprint(e.Row), e.Field, e.Reason})
	}
	doc.Table(table)
}
