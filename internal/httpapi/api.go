// Package httpapi exposes journals over HTTP/JSON.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"tacc.org/internal/audit"
	"tacc.org/internal/auth"
	"tacc.org/internal/ledger"
	"tacc.org/internal/obs"
	"tacc.org/internal/stream"
)

const serviceName = "tacc-api"

// ReadinessChecker reports whether the service can take traffic.
type ReadinessChecker interface {
	Check(ctx context.Context) error
}

// API is the HTTP layer over a ledger.Service.
type API struct {
	version    string
	ledger     ledger.Service
	logger     *zap.Logger
	issuer     *auth.Issuer
	auditor    *audit.Logger
	stream     *stream.Stream
	ready      ReadinessChecker
	rateBurst  int
	ratePerSec int
	maxBody    int64
}

// Option configures an API.
type Option func(*API)

func WithLogger(l *zap.Logger) Option { return func(a *API) { a.logger = obs.OrNop(l) } }

// WithIssuer turns on bearer authentication for every /v1 route.
func WithIssuer(iss *auth.Issuer) Option { return func(a *API) { a.issuer = iss } }

func WithAudit(l *audit.Logger) Option { return func(a *API) { a.auditor = l } }

func WithStream(s *stream.Stream) Option { return func(a *API) { a.stream = s } }

func WithReadiness(rc ReadinessChecker) Option { return func(a *API) { a.ready = rc } }

// WithRateLimit sets the per-client token bucket.
func WithRateLimit(burst, perSec int) Option {
	return func(a *API) {
		a.rateBurst = burst
		a.ratePerSec = perSec
	}
}

// New builds the API around svc.
func New(version string, svc ledger.Service, opts ...Option) *API {
	a := &API{
		version:    version,
		ledger:     svc,
		logger:     zap.NewNop(),
		rateBurst:  50,
		ratePerSec: 20,
		maxBody:    1 << 20,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handler returns the fully wired router.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logging(a.logger))
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeaders)
	r.Use(CORS)
	r.Use(MaxBodyBytes(a.maxBody))
	r.Use(RateLimit(a.rateBurst, a.ratePerSec))
	r.Use(obs.Instrument)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", a.Healthz)
	r.Get("/readyz", a.Ready)
	r.Get("/v1/info", a.Info)
	r.Handle("/metrics", obs.Handler())

	r.Group(func(r chi.Router) {
		r.Use(a.authenticate)

		r.With(a.require(canAdmin)).Post("/v1/auth/token", a.issueToken)

		r.Route("/v1/journals", func(r chi.Router) {
			r.With(a.require(canWrite)).Post("/", a.createJournal)
			r.Route("/{id}", func(r chi.Router) {
				r.With(a.require(canRead)).Get("/", a.getJournal)
				r.With(a.require(canWrite)).Post("/postings", a.createPosting)
				r.With(a.require(canRead)).Get("/postings", a.listPostings)
				r.With(a.require(canRead)).Get("/balance", a.getBalance)
				r.With(a.require(canRead)).Get("/accounts/{account}", a.getAccount)
				r.With(a.require(canWrite)).Post("/auto-balance", a.autoBalance)
			})
		})

		r.With(a.require(canRead)).Get("/v1/stream", a.Stream)
	})

	return r
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if a.ready != nil {
		if err := a.ready.Check(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status": "not_ready",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    serviceName,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
		"auth":    a.issuer != nil,
	})
}

func (a *API) audit(ctx context.Context, event, resource, resourceID string, fields map[string]string) {
	if a.auditor == nil {
		return
	}
	if err := a.auditor.LogEvent(ctx, event, resource, resourceID, fields); err != nil {
		a.logger.Warn("audit log failed", zap.String("event", event), zap.Error(err))
	}
}
