package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/etnz/cryptotax"
	"github.com/etnz/cryptotax/api"
	"github.com/etnz/cryptotax/logger"
	"github.com/google/subcommands"
)

// serveCmd holds the flags for the 'serve' subcommand.
type serveCmd struct {
	addr    string
	origins string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve the ledger and its reports over HTTP" }
func (*serveCmd) Usage() string {
	return `ctax serve [-addr <host:port>] [-origins <list>]

  Serves the JSON API under /api/v1, the health check on /health and the
  Prometheus metrics on /metrics. Recorded and imported events are saved to
  the ledger file as they arrive.

  Reports accept ?format=markdown or ?format=html.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Listen address. Defaults to $CTAX_ADDR or :8080")
	f.StringVar(&c.origins, "origins", "", "Comma separated list of CORS allowed origins, all if empty")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := Settings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.addr != "" {
		cfg.Addr = c.addr
	}
	l, err := loadLedger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	engine, err := newEngine(cfg, l)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	var origins []string
	if c.origins != "" {
		origins = strings.Split(c.origins, ",")
	}
	log := logger.Get()
	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: api.NewRouter(l, api.Options{
			Engine:         engine,
			Threshold:      cfg.Threshold,
			Save:           func(l *cryptotax.Ledger) error { return saveLedger(cfg, l) },
			AllowedOrigins: origins,
			Logger:         log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Infow("serving ledger", "addr", cfg.Addr, "ledger", cfg.LedgerFile, "events", l.Len())
		errs <- srv.ListenAndServe()
	}()
	fmt.Fprintf(os.Stderr, "Serving %s on %s\n", cfg.LedgerFile, cfg.Addr)

	select {
	case err := <-errs:
		fmt.Fprintf(os.Stderr, "Error: server failed: %v\n", err)
		return subcommands.ExitFailure
	case <-ctx.Done():
	}

	log.Infow("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "Error: server forced to shutdown: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
