package cryptotax

import (
	"cmp"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/etnz/cryptotax/date"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// this file contains the import of wallet and exchange exports.
// An export is a rectangular table whose first row is a header. Only the
// Token and Amount columns are required, the others refine the events:
//
//	Token     asset identifier
//	Amount    quantity, a negative amount is a disposal
//	Date      event date (ImportOptions.DefaultDate if absent)
//	Type      buy, sell, swap for trading, or an event kind
//	Category  income category (ImportOptions.Category if absent)
//	Price     unit valuation
//	Value     declared value of the event

// Column names, matched ignoring case.
const (
	ColToken    = "Token"
	ColAmount   = "Amount"
	ColDate     = "Date"
	ColType     = "Type"
	ColCategory = "Category"
	ColPrice    = "Price"
	ColValue    = "Value"
)

// TableFormat is the file format of an export.
type TableFormat int

const (
	CSV TableFormat = iota
	XLSX
)

// FormatOf guesses the format of a file from its name.
func FormatOf(name string) TableFormat {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return XLSX
	default:
		return CSV
	}
}

// Table is a header and its rows, as read from an export.
type Table struct {
	Header []string
	Rows   [][]string
	// lines holds the line number of each row in the file.
	lines []int
}

// Line returns the line number of the row i in the file, the header being
// on line 1.
func (t *Table) Line(i int) int {
	if i < len(t.lines) {
		return t.lines[i]
	}
	return i + 2
}

// ReadTable reads a table from r. For spreadsheets, sheet selects the sheet,
// the first one if empty.
func ReadTable(r io.Reader, format TableFormat, sheet string) (*Table, error) {
	var (
		records [][]string
		lines   []int
	)
	switch format {
	case XLSX:
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("cannot read spreadsheet: %w", err)
		}
		defer f.Close()
		if sheet == "" {
			sheets := f.GetSheetList()
			if len(sheets) == 0 {
				return nil, errors.New("spreadsheet has no sheet")
			}
			sheet = sheets[0]
		}
		records, err = f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("cannot read sheet %q: %w", sheet, err)
		}
		for i := range records {
			lines = append(lines, i+1)
		}
	default:
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		for {
			record, err := cr.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("cannot read csv: %w", err)
			}
			line, _ := cr.FieldPos(0)
			records = append(records, record)
			lines = append(lines, line)
		}
	}
	if len(records) == 0 {
		return nil, &ValidationError{Field: "header", Reason: "empty file"}
	}
	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return &Table{Header: header, Rows: records[1:], lines: lines[1:]}, nil
}

// Column returns the index of the header name, or -1.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// ImportOptions tunes how rows become events.
type ImportOptions struct {
	// Category of rows without a Category column, Trading if empty.
	Category Category
	// DefaultDate is the date of rows without a date.
	DefaultDate date.Date
}

// RowError reports a row that was not imported.
type RowError struct {
	// Row is the line number in the file, see Table.Line.
	Row    int    `json:"row"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: invalid %s: %s", e.Row, e.Field, e.Reason)
}

// Row is a table row converted into a draft.
type Row struct {
	Row    int    `json:"row"`
	Token  string `json:"token"`
	Amount string `json:"amount"`
	Draft  Draft  `json:"draft"`
}

// Drafts converts every row of t into a draft or a row error. It fails if the
// Token or Amount column is missing.
func (t *Table) Drafts(opts ImportOptions) ([]Row, []RowError, error) {
	cols := make(map[string]int)
	for _, name := range []string{ColToken, ColAmount, ColDate, ColType, ColCategory, ColPrice, ColValue} {
		cols[name] = t.Column(name)
	}
	for _, required := range []string{ColToken, ColAmount} {
		if cols[required] < 0 {
			return nil, nil, &ValidationError{Field: required, Reason: "missing column"}
		}
	}

	var rows []Row
	var rowErrors []RowError
	for i, record := range t.Rows {
		if blank(record) {
			continue
		}
		n := t.Line(i)
		cell := func(name string) string {
			j := cols[name]
			if j < 0 || j >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[j])
		}
		row := Row{Row: n, Token: cell(ColToken), Amount: cell(ColAmount)}
		d, err := draftOf(cell, opts)
		if err != nil {
			rowErrors = append(rowErrors, RowError{Row: n, Field: err.Field, Reason: err.Reason})
			continue
		}
		row.Draft = d
		rows = append(rows, row)
	}
	return rows, rowErrors, nil
}

// draftOf converts a row, reading its cells through cell.
func draftOf(cell func(string) string, opts ImportOptions) (Draft, *ValidationError) {
	var d Draft
	if d.Asset = cell(ColToken); d.Asset == "" {
		return d, &ValidationError{Field: ColToken, Reason: "is required"}
	}
	amount, err := parseNumber(cell(ColAmount))
	if err != nil {
		return d, &ValidationError{Field: ColAmount, Reason: err.Error()}
	}
	d.Quantity = amount.Abs()

	d.Category = cmp.Or(opts.Category, Trading)
	if s := cell(ColCategory); s != "" {
		c, err := ParseCategory(s)
		if err != nil {
			return d, &ValidationError{Field: ColCategory, Reason: err.Error()}
		}
		d.Category = c
	}
	d.Details = NewDetails(d.Category)

	typ := cell(ColType)
	switch {
	case d.Category == Trading:
		t := Buy
		if amount.IsNegative() {
			t = Sell
		}
		if typ != "" {
			if t, err = ParseTradeType(typ); err != nil {
				return d, &ValidationError{Field: ColType, Reason: err.Error()}
			}
		}
		d.Details = TradingDetails{Type: t}
	case typ != "":
		if d.Kind, err = ParseKind(typ); err != nil {
			return d, &ValidationError{Field: ColType, Reason: err.Error()}
		}
	case amount.IsNegative():
		d.Kind = Disposal
	}

	d.Date = opts.DefaultDate
	if s := cell(ColDate); s != "" {
		if d.Date, err = date.Parse(s); err != nil {
			return d, &ValidationError{Field: ColDate, Reason: err.Error()}
		}
	}
	if d.Date.IsZero() {
		return d, &ValidationError{Field: ColDate, Reason: "is required"}
	}

	if s := cell(ColPrice); s != "" {
		p, err := parseNumber(s)
		if err != nil {
			return d, &ValidationError{Field: ColPrice, Reason: err.Error()}
		}
		d.Valuation = decimal.NewNullDecimal(p)
	}
	if s := cell(ColValue); s != "" {
		v, err := parseNumber(s)
		if err != nil {
			return d, &ValidationError{Field: ColValue, Reason: err.Error()}
		}
		d.Details = WithDeclaredValue(d.Details, v)
	}
	return d, nil
}

// ImportReport is the outcome of an import.
type ImportReport struct {
	Appended []EventID  `json:"appended"`
	Errors   []RowError `json:"errors"`
}

// ImportTable appends every valid row of t to l. Invalid rows are reported,
// never dropped silently.
func ImportTable(l *Ledger, t *Table, opts ImportOptions) (*ImportReport, error) {
	rows, rowErrors, err := t.Drafts(opts)
	if err != nil {
		return nil, err
	}
	report := &ImportReport{Errors: rowErrors}
	for _, row := range rows {
		id, err := l.Append(row.Draft)
		if err != nil {
			rerr := RowError{Row: row.Row, Reason: err.Error()}
			var verr *ValidationError
			if errors.As(err, &verr) {
				rerr.Field, rerr.Reason = verr.Field, verr.Reason
			}
			report.Errors = append(report.Errors, rerr)
			continue
		}
		report.Appended = append(report.Appended, id)
	}
	// keep row errors in file order.
	slices.SortStableFunc(report.Errors, func(a, b RowError) int { return cmp.Compare(a.Row, b.Row) })
	return report, nil
}

// parseNumber parses amounts as exported by spreadsheets, with thousand
// separators.
func parseNumber(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, errors.New("is required")
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}

func blank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
