package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/cryptotax/date"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/etnz/cryptotax/logger"
)

// DefaultBaseURL is the public CoinGecko API.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// maxBody bounds the size of a history response we are willing to read.
const maxBody = 4 << 20

var reCurrency = regexp.MustCompile(`^[a-z]{3}$`)

// HTTPDoer is the subset of *http.Client used by CoinGecko.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// CoinGecko resolves prices with the CoinGecko coin history endpoint.
//
//	GET {base}/coins/{id}/history?date=DD-MM-YYYY
//
// The asset is a CoinGecko coin id (e.g. "bitcoin"), the price is read from
// market_data.current_price.{currency}.
type CoinGecko struct {
	client  HTTPDoer
	baseURL string
	apiKey  string
	log     *zap.SugaredLogger
}

// Option configures a CoinGecko oracle.
type Option func(*CoinGecko)

// WithBaseURL overrides the API base url (used for tests and pro endpoints).
func WithBaseURL(u string) Option {
	return func(c *CoinGecko) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithAPIKey sends a demo API key with every request.
func WithAPIKey(key string) Option { return func(c *CoinGecko) { c.apiKey = key } }

// WithClient sets the http client. Its timeout bounds every Resolve.
func WithClient(client HTTPDoer) Option { return func(c *CoinGecko) { c.client = client } }

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option { return func(c *CoinGecko) { c.log = logger.OrNop(l) } }

// NewCoinGecko creates a CoinGecko oracle.
func NewCoinGecko(opts ...Option) *CoinGecko {
	c := &CoinGecko{
		client:  http.DefaultClient,
		baseURL: DefaultBaseURL,
		log:     logger.OrNop(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve implements Oracle with a single GET request.
func (c *CoinGecko) Resolve(ctx context.Context, asset string, on date.Date, currency string) (decimal.Decimal, error) {
	fail := func(kind Kind, err error) (decimal.Decimal, error) {
		c.log.Debugw("price lookup failed", "asset", asset, "date", on, "currency", currency, "kind", kind, "err", err)
		return decimal.Zero, &Error{Kind: kind, Asset: asset, Date: on, Currency: currency, Err: err}
	}

	cur := strings.ToLower(currency)
	if !reCurrency.MatchString(cur) {
		return fail(MalformedResponse, fmt.Errorf("invalid currency code %q", currency))
	}
	if strings.TrimSpace(asset) == "" {
		return fail(NotFound, errors.New("empty asset identifier"))
	}

	addr := fmt.Sprintf("%s/coins/%s/history?date=%s&localization=false",
		c.baseURL, url.PathEscape(asset), on.Format(date.DayFirstFormat))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return fail(Unreachable, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fail(Unreachable, err)
	}
	defer resp.Body.Close()
	c.log.Debugw("price lookup", "method", req.Method, "path", req.URL.Path, "status", resp.Status)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fail(NotFound, fmt.Errorf("cannot http GET %v: %v", req.URL.Path, resp.Status))
	case resp.StatusCode != http.StatusOK:
		return fail(Unreachable, fmt.Errorf("cannot http GET %v: %v", req.URL.Path, resp.Status))
	}

	var jobj any
	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBody))
	dec.UseNumber()
	if err := dec.Decode(&jobj); err != nil {
		return fail(Unreachable, fmt.Errorf("cannot parse response body: %w", err))
	}

	// The service answers 200 with only the coin identity when it has no
	// market data for that day.
	if _, err := jsonpath.Get("$.market_data", jobj); err != nil {
		return fail(NotFound, fmt.Errorf("no market data on %s", on))
	}

	path := "$.market_data.current_price." + cur
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return fail(MalformedResponse, fmt.Errorf("missing %q: %w", path, err))
	}
	// because jsonpath is never clear about wheter it returns a list of 1 answer, or a single answer:
	// by this call I keep the first one if any
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}

	price, err := toDecimal(jval)
	if err != nil {
		return fail(MalformedResponse, fmt.Errorf("invalid %q: %w", path, err))
	}
	if price.IsNegative() {
		return fail(MalformedResponse, fmt.Errorf("negative price %s", price))
	}
	return price, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case json.Number:
		return decimal.NewFromString(x.String())
	case float64:
		return decimal.NewFromFloat(x), nil
	case string:
		return decimal.NewFromString(x)
	default:
		return decimal.Zero, fmt.Errorf("not a number: %v", v)
	}
}
