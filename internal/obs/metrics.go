package obs

import (
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	initOnce sync.Once

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	postingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tacc_postings_total",
			Help: "Postings submitted to journals, by outcome.",
		},
		[]string{"result"},
	)

	autoBalanceTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tacc_auto_balance_total",
		Help: "Corrective entries posted by auto-balance.",
	})

	journalsOpen = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tacc_journals",
		Help: "Journals held in memory.",
	})

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tacc_build_info",
			Help: "Always 1; labels identify the running binary.",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// Init registers all metrics with the default registry. Safe to call more
// than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight, httpRequestsTotal, httpRequestDuration,
			postingsTotal, autoBalanceTotal, journalsOpen,
			buildInfo,
		)
	})
}

// Handler serves the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePosting counts a posting attempt.
func ObservePosting(err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	postingsTotal.WithLabelValues(result).Inc()
}

func ObserveAutoBalance() { autoBalanceTotal.Inc() }

func SetJournals(n int) { journalsOpen.Set(float64(n)) }

// SetBuildInfo replaces the tacc_build_info series with one for this binary.
func SetBuildInfo(version, commit string) {
	buildInfo.Reset()
	buildInfo.WithLabelValues(version, commit, runtime.Version()).Set(1)
}

// Instrument records RPS, latency and in-flight requests.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.Method
		path := CanonicalPath(r.URL.Path)

		httpInFlight.Inc()
		defer httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		status := strconv.Itoa(sw.code)
		httpRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	})
}

// CanonicalPath collapses identifiers so metric label cardinality stays
// bounded.
func CanonicalPath(p string) string {
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return "/"
	}
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) >= 3 && parts[0] == "v1" && parts[1] == "journals" {
		parts[2] = ":id"
		if len(parts) == 5 && parts[3] == "accounts" {
			parts[4] = ":account"
		}
	}
	return "/" + strings.Join(parts, "/")
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE working through the wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
