package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/etnz/cryptotax"
	"github.com/etnz/cryptotax/date"
	"github.com/etnz/cryptotax/renderer"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// maxUpload bounds the size of an imported file.
const maxUpload = 32 << 20

var errNoOracle = errors.New("no price oracle configured")

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"session":  h.ledger.Session(),
		"currency": h.ledger.Currency(),
		"events":   h.ledger.Len(),
	})
}

// EventsResponse lists ledger events.
type EventsResponse struct {
	Currency string            `json:"currency"`
	Events   []cryptotax.Event `json:"events"`
}

func (h *handler) listEvents(w http.ResponseWriter, r *http.Request) {
	filters, err := queryFilters(r, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	events := h.ledger.Events(filters...)
	respond(w, r, func() string { return renderer.LogMarkdown(events, h.ledger.Currency()) },
		EventsResponse{Currency: h.ledger.Currency(), Events: events})
}

func (h *handler) getEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, invalid("id", "must be an integer"))
		return
	}
	e, ok := h.ledger.Event(cryptotax.EventID(id))
	if !ok {
		writeError(w, r, fmt.Errorf("event #%d: %w", id, errNotFound))
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// addEvent records the draft in the body. Category specific fields are
// inlined in the draft object.
func (h *handler) addEvent(w http.ResponseWriter, r *http.Request) {
	var d cryptotax.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeError(w, r, invalid("body", err.Error()))
		return
	}

	h.writes.Lock()
	defer h.writes.Unlock()
	id, err := h.ledger.Append(d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.persist(); err != nil {
		writeError(w, r, err)
		return
	}
	h.log.Infow("event recorded", "id", id, "category", d.Category, "asset", d.Asset)
	e, _ := h.ledger.Event(id)
	writeJSON(w, http.StatusCreated, e)
}

// PreviewResponse is the outcome of an import preview.
type PreviewResponse struct {
	Rows   []cryptotax.Row      `json:"rows"`
	Errors []cryptotax.RowError `json:"errors"`
}

// importTable imports the multipart "file" field. The "preview" field only
// converts the rows without recording them.
func (h *handler) importTable(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeError(w, r, invalid("file", err.Error()))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, invalid("file", err.Error()))
		return
	}
	defer file.Close()

	opts := cryptotax.ImportOptions{DefaultDate: date.Today()}
	if s := r.FormValue("category"); s != "" {
		if opts.Category, err = cryptotax.ParseCategory(s); err != nil {
			writeError(w, r, invalid("category", err.Error()))
			return
		}
	}
	if s := r.FormValue("date"); s != "" {
		if opts.DefaultDate, err = date.Parse(s); err != nil {
			writeError(w, r, invalid("date", err.Error()))
			return
		}
	}
	t, err := cryptotax.ReadTable(file, cryptotax.FormatOf(header.Filename), r.FormValue("sheet"))
	if err != nil {
		writeError(w, r, invalid("file", err.Error()))
		return
	}

	if preview, _ := strconv.ParseBool(r.FormValue("preview")); preview {
		rows, rowErrors, err := t.Drafts(opts)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respond(w, r, func() string { return renderer.PreviewMarkdown(rows, rowErrors) },
			PreviewResponse{Rows: rows, Errors: rowErrors})
		return
	}

	h.writes.Lock()
	defer h.writes.Unlock()
	report, err := cryptotax.ImportTable(h.ledger, t, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(report.Appended) > 0 {
		if err := h.persist(); err != nil {
			writeError(w, r, err)
			return
		}
	}
	h.log.Infow("table imported", "file", header.Filename, "appended", len(report.Appended), "rejected", len(report.Errors))
	respond(w, r, func() string { return renderer.ImportMarkdown(report) }, report)
}

func (h *handler) summary(w http.ResponseWriter, r *http.Request) {
	filters, err := queryFilters(r, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s := cryptotax.Summarize(h.ledger.List(filters...))
	s.Currency = h.ledger.Currency()
	respond(w, r, func() string { return renderer.SummaryMarkdown(s) }, s)
}

// AlertsResponse lists the values above the reporting threshold.
type AlertsResponse struct {
	Currency  string            `json:"currency"`
	Threshold decimal.Decimal   `json:"threshold"`
	Scanned   int               `json:"scanned"`
	Alerts    []cryptotax.Alert `json:"alerts"`
	// Warnings are the assets whose gains could not be computed.
	Warnings []ErrorResponse `json:"warnings,omitempty"`
}

// alerts flags declared values above the threshold, and realized gains too
// with ?gains=true.
func (h *handler) alerts(w http.ResponseWriter, r *http.Request) {
	filters, err := queryFilters(r, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	threshold := h.threshold
	if s := r.URL.Query().Get("threshold"); s != "" {
		if threshold, err = parseDecimal("threshold", s); err != nil {
			writeError(w, r, err)
			return
		}
	}
	events := h.ledger.Events(filters...)
	resp := AlertsResponse{
		Currency:  h.ledger.Currency(),
		Threshold: threshold,
		Scanned:   len(events),
		Alerts:    cryptotax.Evaluate(slices.Values(events), threshold),
	}

	if gains, _ := strconv.ParseBool(r.URL.Query().Get("gains")); gains {
		period, _ := queryPeriod(r)
		gainFilters, _ := queryFilters(r, false)
		report := h.engine.Process(r.Context(), h.ledger.Events(gainFilters...))
		for _, aerr := range report.Errors {
			resp.Warnings = append(resp.Warnings, newErrorResponse(r, aerr))
		}
		resp.Alerts = append(resp.Alerts, cryptotax.EvaluateRealizations(report.Within(period).Realizations, threshold)...)
	}
	if resp.Alerts == nil {
		resp.Alerts = []cryptotax.Alert{}
	}
	respond(w, r, func() string {
		return renderer.AlertsMarkdown(resp.Alerts, resp.Scanned, threshold, resp.Currency)
	}, resp)
}

// GainsResponse is the JSON form of a gains report.
type GainsResponse struct {
	Currency     string                     `json:"currency"`
	Realizations []cryptotax.Realization    `json:"realizations"`
	TotalGain    decimal.Decimal            `json:"totalGain"`
	Lots         map[string][]cryptotax.Lot `json:"lots"`
	Errors       []ErrorResponse            `json:"errors,omitempty"`
}

// gains computes the realized gains of the period. Lots always come from the
// whole history. When an asset failed, the partial report is returned with
// the status of the first failure.
func (h *handler) gains(w http.ResponseWriter, r *http.Request) {
	period, err := queryPeriod(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filters, err := queryFilters(r, false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report := h.engine.Process(r.Context(), h.ledger.Events(filters...)).Within(period)

	resp := GainsResponse{
		Currency:     report.Currency,
		Realizations: report.Realizations,
		TotalGain:    decimal.Zero,
		Lots:         report.Lots,
	}
	if resp.Realizations == nil {
		resp.Realizations = []cryptotax.Realization{}
	}
	for _, rz := range report.Realizations {
		resp.TotalGain = resp.TotalGain.Add(rz.Gain)
	}
	status := http.StatusOK
	for i, aerr := range report.Errors {
		if i == 0 {
			status, _ = statusOf(aerr)
		}
		resp.Errors = append(resp.Errors, newErrorResponse(r, aerr))
	}
	respondStatus(w, r, status, func() string { return renderer.GainsMarkdown(report) }, resp)
}

// EstimateResponse is the JSON form of a gain estimate.
type EstimateResponse struct {
	Asset            string          `json:"asset"`
	Currency         string          `json:"currency"`
	PurchaseDate     date.Date       `json:"purchaseDate"`
	PurchaseQuantity decimal.Decimal `json:"purchaseQuantity"`
	PurchasePrice    decimal.Decimal `json:"purchasePrice"`
	SaleDate         date.Date       `json:"saleDate"`
	SaleQuantity     decimal.Decimal `json:"saleQuantity"`
	SalePrice        decimal.Decimal `json:"salePrice"`
	CostBasis        decimal.Decimal `json:"costBasis"`
	Proceeds         decimal.Decimal `json:"proceeds"`
	Gain             decimal.Decimal `json:"gain"`
}

// estimate values a purchase and a sale at the market price of their day.
// Query: asset, buy, sell (today), quantity, sold (quantity).
func (h *handler) estimate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if h.engine.Oracle == nil {
		writeError(w, r, errNoOracle)
		return
	}
	buy, err := parseDate("buy", q.Get("buy"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	sell := date.Today()
	if s := q.Get("sell"); s != "" {
		if sell, err = parseDate("sell", s); err != nil {
			writeError(w, r, err)
			return
		}
	}
	quantity, err := parseDecimal("quantity", q.Get("quantity"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	sold := quantity
	if s := q.Get("sold"); s != "" {
		if sold, err = parseDecimal("sold", s); err != nil {
			writeError(w, r, err)
			return
		}
	}

	e, err := cryptotax.EstimateGain(r.Context(), h.engine.Oracle, h.ledger.Currency(), q.Get("asset"), buy, quantity, sell, sold)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond(w, r, func() string { return renderer.EstimateMarkdown(e) }, EstimateResponse{
		Asset:            e.Asset,
		Currency:         e.Currency,
		PurchaseDate:     e.PurchaseDate,
		PurchaseQuantity: e.PurchaseQuantity,
		PurchasePrice:    e.PurchasePrice,
		SaleDate:         e.SaleDate,
		SaleQuantity:     e.SaleQuantity,
		SalePrice:        e.SalePrice,
		CostBasis:        e.CostBasis(),
		Proceeds:         e.Proceeds(),
		Gain:             e.Gain(),
	})
}

// persist saves the ledger. Callers hold h.writes.
func (h *handler) persist() error {
	if h.save == nil {
		return nil
	}
	if err := h.save(h.ledger); err != nil {
		h.log.Errorw("cannot save ledger", "err", err)
		return fmt.Errorf("cannot save ledger: %w", err)
	}
	return nil
}

// respond writes payload as JSON, or the markdown report in the format
// requested by ?format=markdown or ?format=html.
func respond(w http.ResponseWriter, r *http.Request, markdown func() string, payload any) {
	respondStatus(w, r, http.StatusOK, markdown, payload)
}

func respondStatus(w http.ResponseWriter, r *http.Request, status int, markdown func() string, payload any) {
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSON(w, status, payload)
	case "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(markdown()))
	case "html":
		html, err := renderer.HTML(markdown())
		if err != nil {
			writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(html))
	default:
		writeError(w, r, invalid("format", fmt.Sprintf("unknown format %q, want json, markdown or html", format)))
	}
}

// queryPeriod reads the reporting period from the from, to and year query
// parameters.
func queryPeriod(r *http.Request) (date.Range, error) {
	q := r.URL.Query()
	if s := q.Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil {
			return date.Range{}, invalid("year", "must be an integer")
		}
		return date.Year(y), nil
	}
	var rng date.Range
	var err error
	if s := q.Get("from"); s != "" {
		if rng.From, err = parseDate("from", s); err != nil {
			return rng, err
		}
	}
	if s := q.Get("to"); s != "" {
		if rng.To, err = parseDate("to", s); err != nil {
			return rng, err
		}
	}
	if !rng.From.IsZero() && !rng.To.IsZero() && rng.To.Before(rng.From) {
		return rng, invalid("to", "is before from")
	}
	return rng, nil
}

// queryFilters reads the ledger filters from the query parameters. When
// period is false the reporting period is left out.
func queryFilters(r *http.Request, period bool) ([]cryptotax.Filter, error) {
	var filters []cryptotax.Filter
	if period {
		rng, err := queryPeriod(r)
		if err != nil {
			return nil, err
		}
		filters = append(filters, cryptotax.Between(rng))
	}
	q := r.URL.Query()
	if s := q.Get("category"); s != "" {
		c, err := cryptotax.ParseCategory(s)
		if err != nil {
			return nil, invalid("category", err.Error())
		}
		filters = append(filters, cryptotax.ByCategory(c))
	}
	if s := q.Get("kind"); s != "" {
		k, err := cryptotax.ParseKind(s)
		if err != nil {
			return nil, invalid("kind", err.Error())
		}
		filters = append(filters, cryptotax.ByKind(k))
	}
	if s := q.Get("asset"); s != "" {
		filters = append(filters, cryptotax.ByAsset(s))
	}
	return filters, nil
}

func parseDate(field, s string) (date.Date, error) {
	if s == "" {
		return date.Date{}, invalid(field, "is required")
	}
	d, err := date.Parse(s)
	if err != nil {
		return d, invalid(field, err.Error())
	}
	return d, nil
}

// parseDecimal accepts thousand separators.
func parseDecimal(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, invalid(field, "is required")
	}
	v, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return v, invalid(field, "not a number")
	}
	return v, nil
}
