package cryptotax

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/etnz/cryptotax/date"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// this file contains the ledger file format.
// It is a JSONL file: a header line identifying the session and its currency,
// then one event per line, in insertion order. Category specific fields are
// inlined next to the common ones.

// ledgerHeader is the first line of a ledger file.
type ledgerHeader struct {
	Session  uuid.UUID `json:"session"`
	Currency string    `json:"currency"`
}

// MarshalJSON writes the event as a flat object.
func (e Event) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", e.ID).
		Append("date", e.Date).
		Append("category", e.Category).
		Append("kind", e.Kind).
		Append("asset", e.Asset).
		Append("quantity", e.Quantity)
	if e.Valuation.Valid {
		w.Append("unitValuation", e.Valuation.Decimal)
	}
	if e.Details != nil {
		w.EmbedFrom(e.Details)
	}
	return w.MarshalJSON()
}

// UnmarshalJSON reads an event written by MarshalJSON.
func (e *Event) UnmarshalJSON(data []byte) error {
	var head struct {
		ID        EventID             `json:"id"`
		Date      date.Date           `json:"date"`
		Category  Category            `json:"category"`
		Kind      Kind                `json:"kind"`
		Asset     string              `json:"asset"`
		Quantity  decimal.Decimal     `json:"quantity"`
		Valuation decimal.NullDecimal `json:"unitValuation"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	details, err := decodeDetails(head.Category, data)
	if err != nil {
		return err
	}
	*e = Event{
		ID:        head.ID,
		Category:  head.Category,
		Kind:      head.Kind,
		Asset:     head.Asset,
		Quantity:  head.Quantity,
		Date:      head.Date,
		Valuation: head.Valuation,
		Details:   details,
	}
	return nil
}

// UnmarshalJSON reads a draft whose category specific fields are inlined.
func (d *Draft) UnmarshalJSON(data []byte) error {
	type plain Draft
	if err := json.Unmarshal(data, (*plain)(d)); err != nil {
		return err
	}
	if NewDetails(d.Category) == nil {
		// left to Append to report.
		d.Details = nil
		return nil
	}
	details, err := decodeDetails(d.Category, data)
	if err != nil {
		return err
	}
	d.Details = details
	return nil
}

// decodeDetails reads the details of category c from a flat json object.
func decodeDetails(c Category, data []byte) (Details, error) {
	var (
		d   Details
		err error
	)
	switch c {
	case Trading:
		var x TradingDetails
		err = json.Unmarshal(data, &x)
		d = x
	case Staking:
		var x StakingDetails
		err = json.Unmarshal(data, &x)
		d = x
	case Mining:
		var x MiningDetails
		err = json.Unmarshal(data, &x)
		d = x
	case NFT:
		var x NFTDetails
		err = json.Unmarshal(data, &x)
		d = x
	case DeFi:
		var x DeFiDetails
		err = json.Unmarshal(data, &x)
		d = x
	default:
		return nil, fmt.Errorf("unknown category %q", c)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot decode %s details: %w", c, err)
	}
	return d, nil
}

// EncodeLedger writes the ledger to w in the ledger file format.
func EncodeLedger(w io.Writer, l *Ledger) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ledgerHeader{Session: l.Session(), Currency: l.Currency()}); err != nil {
		return fmt.Errorf("cannot write ledger header: %w", err)
	}
	for e := range l.List() {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("cannot write event #%d: %w", e.ID, err)
		}
	}
	return bw.Flush()
}

// DecodeLedger reads a ledger in the ledger file format. The header line is
// optional, without it the ledger gets a new session in DefaultCurrency.
func DecodeLedger(r io.Reader) (*Ledger, error) {
	var l *Ledger
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for scanner.Scan() {
		line++
		lineBytes := bytes.TrimSpace(scanner.Bytes())
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}

		if l == nil {
			var probe struct {
				Session *uuid.UUID `json:"session"`
			}
			if err := json.Unmarshal(lineBytes, &probe); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			if probe.Session != nil {
				var h ledgerHeader
				if err := json.Unmarshal(lineBytes, &h); err != nil {
					return nil, fmt.Errorf("line %d: invalid header: %w", line, err)
				}
				l = NewLedger(h.Currency)
				l.session = h.Session
				continue
			}
			l = NewLedger(DefaultCurrency)
		}

		var e Event
		if err := json.Unmarshal(lineBytes, &e); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := l.restore(e); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if l == nil {
		l = NewLedger(DefaultCurrency)
	}
	return l, nil
}
