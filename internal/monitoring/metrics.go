package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus counters for a snapshot run. A nil *Metrics
// is valid and turns every method into a no-op.
type Metrics struct {
	PagesFetched   *prometheus.CounterVec
	FetchFailures  *prometheus.CounterVec
	RecordsEmitted *prometheus.CounterVec
	SitesCompleted prometheus.Counter
}

// NewMetrics registers and returns the run counters.
func NewMetrics() *Metrics {
	return &Metrics{
		PagesFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "snapshot_pages_fetched_total",
			Help: "Pages successfully acquired, by site",
		}, []string{"site"}),
		FetchFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "snapshot_fetch_failures_total",
			Help: "Pages skipped after every fetch strategy failed, by site",
		}, []string{"site"}),
		RecordsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "snapshot_records_emitted_total",
			Help: "Product records written to the sinks, by site",
		}, []string{"site"}),
		SitesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "snapshot_sites_completed_total",
			Help: "Sites crawled to a terminal state",
		}),
	}
}

// Serve exposes /metrics on addr in a background goroutine.
func (m *Metrics) Serve(addr string) {
	if m == nil || addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(addr, mux)
}

func (m *Metrics) IncPagesFetched(site string) {
	if m == nil {
		return
	}
	m.PagesFetched.WithLabelValues(site).Inc()
}

func (m *Metrics) IncFetchFailures(site string) {
	if m == nil {
		return
	}
	m.FetchFailures.WithLabelValues(site).Inc()
}

func (m *Metrics) AddRecordsEmitted(site string, n int) {
	if m == nil {
		return
	}
	m.RecordsEmitted.WithLabelValues(site).Add(float64(n))
}

func (m *Metrics) IncSitesCompleted() {
	if m == nil {
		return
	}
	m.SitesCompleted.Inc()
}
