package oracle

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"fmt"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"

	"github.com/etnz/cryptotax/date"
	"go.uber.org/zap"

	"github.com/etnz/cryptotax/logger"
)

// diskCache implements a simple disk cache for HTTP responses.
//
// It is a caller side wrapper: the oracle itself never caches, but a CLI
// replaying the same ledger many times a day can opt in to avoid hammering
// the public API.
type diskCache struct {
	base  http.RoundTripper
	dir   string
	today func() date.Date
	log   *zap.SugaredLogger
}

// NewCachingTransport returns a RoundTripper that stores successful responses
// in dir (os.TempDir() if empty). Entries expire daily.
func NewCachingTransport(base http.RoundTripper, dir string, l *zap.SugaredLogger) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "ctax-cache")
	}
	return &diskCache{base: base, dir: dir, today: date.Today, log: logger.OrNop(l)}
}

// RoundTrip implements the http.RoundTripper interface. It checks for a cached
// response on disk first. If a fresh cached response is not found, it proceeds
// with the actual HTTP request and caches the new response if it's successful.
func (c *diskCache) RoundTrip(req *http.Request) (resp *http.Response, err error) {
	if req.Method != http.MethodGet {
		return c.base.RoundTrip(req)
	}
	// the key contains the day, so the local cache expires every day.
	key := fmt.Sprintf("%s %s %s", c.today(), req.Method, req.URL.String())
	key = fmt.Sprintf("%x", sha1.Sum([]byte(key)))

	cachedResp, err := c.get(key, req)
	if err == nil { // Cache hit
		return cachedResp, nil
	}

	resp, err = c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	if err := c.put(key, resp); err != nil {
		c.log.Warnw("cache write error (ignored)", "err", err)
	}
	return resp, nil
}

// get retrieves a cached response from disk
func (c *diskCache) get(key string, req *http.Request) (resp *http.Response, err error) {
	content, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewBuffer(content)), req)
}

// put stores a response to disk cache. DumpResponse leaves resp.Body readable.
func (c *diskCache) put(key string, resp *http.Response) (err error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, key), content, 0o644)
}
