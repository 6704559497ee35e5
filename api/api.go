// Package api serves the income ledger and its reports over HTTP.
//
// All the routes live under /api/v1 and speak JSON. Reports also render as
// markdown or HTML with ?format=markdown or ?format=html. Errors are
// returned as an [ErrorResponse].
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/etnz/cryptotax"
	"github.com/etnz/cryptotax/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Options configures the router.
type Options struct {
	// Engine computes gains, a zero engine is used if nil.
	Engine *cryptotax.Engine
	// Threshold is the reporting threshold of alerts, DefaultThreshold if zero.
	Threshold decimal.Decimal
	// Save persists the ledger after every change. Nothing is persisted if nil.
	Save func(*cryptotax.Ledger) error
	// AllowedOrigins for CORS, every origin if empty.
	AllowedOrigins []string
	// Timeout bounds every request, 30s if zero.
	Timeout time.Duration
	Logger  *zap.SugaredLogger
}

// NewRouter builds the HTTP API router over l.
func NewRouter(l *cryptotax.Ledger, opts Options) http.Handler {
	h := &handler{
		ledger:    l,
		engine:    opts.Engine,
		threshold: opts.Threshold,
		save:      opts.Save,
		log:       logger.OrNop(opts.Logger),
	}
	if h.engine == nil {
		h.engine = &cryptotax.Engine{Currency: l.Currency()}
	}
	if h.threshold.IsZero() {
		h.threshold = cryptotax.DefaultThreshold
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(timeout))
	r.Use(instrument(h.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/events", h.listEvents)
		r.Post("/events", h.addEvent)
		r.Get("/events/{id}", h.getEvent)
		r.Post("/import", h.importTable)

		r.Get("/summary", h.summary)
		r.Get("/alerts", h.alerts)
		r.Get("/gains", h.gains)
		r.Get("/estimate", h.estimate)
	})
	return r
}

type handler struct {
	ledger    *cryptotax.Ledger
	engine    *cryptotax.Engine
	threshold decimal.Decimal
	save      func(*cryptotax.Ledger) error
	log       *zap.SugaredLogger

	// writes serializes the changes and their persistence.
	writes sync.Mutex
}
