// Package metrics exposes Prometheus instrumentation for the service:
// HTTP traffic, catalog freshness, and pass-search performance.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overpass_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "overpass_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	ephemerisAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "overpass_ephemeris_age_seconds",
			Help: "Age of the current ephemeris dataset in seconds.",
		},
	)

	ephemerisPoints = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "overpass_ephemeris_points",
			Help: "Total position samples across all satellite ephemerides.",
		},
	)

	catalogSatellites = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "overpass_catalog_satellites",
			Help: "Number of satellites in the current catalog dataset.",
		},
	)

	passSearchSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "overpass_pass_search_seconds",
			Help:    "Wall time of a full pass search.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	passesFoundTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "overpass_passes_found_total",
			Help: "Total visible passes returned across all searches.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(ephemerisAgeSeconds)
	prometheus.MustRegister(ephemerisPoints)
	prometheus.MustRegister(catalogSatellites)
	prometheus.MustRegister(passSearchSeconds)
	prometheus.MustRegister(passesFoundTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetEphemerisAge updates the ephemeris dataset age gauge.
func SetEphemerisAge(seconds float64) {
	ephemerisAgeSeconds.Set(seconds)
}

// SetEphemerisPoints updates the total sample count gauge.
func SetEphemerisPoints(n int) {
	ephemerisPoints.Set(float64(n))
}

// SetCatalogSatellites updates the catalog size gauge.
func SetCatalogSatellites(n int) {
	catalogSatellites.Set(float64(n))
}

// ObservePassSearch records one completed pass search.
func ObservePassSearch(duration time.Duration, passesFound int) {
	passSearchSeconds.Observe(duration.Seconds())
	passesFoundTotal.Add(float64(passesFound))
}

// knownRoutes are the exact paths the server serves. Anything else gets
// the "other" label so scanner traffic cannot blow up label cardinality.
var knownRoutes = map[string]bool{
	"/":                  true,
	"/healthz":           true,
	"/readyz":            true,
	"/metrics":           true,
	"/api/v1/passes":     true,
	"/api/v1/range":      true,
	"/api/v1/satellites": true,
	"/api/v1/refresh":    true,
}

func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	// Per-satellite pass queries carry the NORAD ID as the last segment.
	if rest, ok := strings.CutPrefix(path, "/api/v1/passes/"); ok && !strings.Contains(rest, "/") {
		return "/api/v1/passes/{norad_id}"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		path := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(path, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(path, r.Method).Observe(duration)
	})
}
