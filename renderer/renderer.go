// Package renderer formats ledger content and computed reports as markdown.
//
// Every report is plain markdown so that it can be printed as is, rendered in
// a terminal, or converted to HTML with [HTML].
package renderer

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/etnz/cryptotax"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// HTML converts a markdown report into an HTML fragment. Tables use the
// GitHub flavor.
func HTML(markdown string) (string, error) {
	conv := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := conv.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("cannot convert report to html: %w", err)
	}
	return buf.String(), nil
}

// money formats v in currency cur.
func money(v decimal.Decimal, cur string) string { return cryptotax.M(v, cur).String() }

// signed formats v in currency cur with an explicit sign.
func signed(v decimal.Decimal, cur string) string { return cryptotax.M(v, cur).SignedString() }

// declared formats the declared value of e, or "-" when it has none.
func declared(e cryptotax.Event, cur string) string {
	v, ok := e.DeclaredValue()
	if !ok {
		return "-"
	}
	return money(v, cur)
}

// metadata formats the metadata of e as sorted key=value pairs.
func metadata(e cryptotax.Event) string {
	fields := e.Metadata()
	keys := slices.Sorted(maps.Keys(fields))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+fields[k])
	}
	return strings.Join(parts, ", ")
}
