// Package metrics provides Prometheus instrumentation shared by the binaries
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/screwyprof/hnttax/pkg/httpkit"
)

const namespace = "hnttax"

// Upstream holds the Helium API client collectors
type Upstream struct {
	Requests *prometheus.CounterVec
	Retries  *prometheus.CounterVec
}

// NewUpstream creates upstream collectors and registers them with reg
func NewUpstream(reg prometheus.Registerer) *Upstream {
	m := &Upstream{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "helium",
			Name:      "requests_total",
			Help:      "Helium API requests by endpoint and response status.",
		}, []string{"endpoint", "status"}),
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "helium",
			Name:      "retries_total",
			Help:      "Helium API requests retried after a transient failure.",
		}, []string{"endpoint"}),
	}
	reg.MustRegister(m.Requests, m.Retries)
	return m
}

// Processor holds the request processor collectors
type Processor struct {
	Requests *prometheus.CounterVec
	Records  prometheus.Counter
	Batches  prometheus.Counter
}

// NewProcessor creates processor collectors and registers them with reg
func NewProcessor(reg prometheus.Registerer) *Processor {
	m := &Processor{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "processor",
			Name:      "requests_total",
			Help:      "Reward requests finished by outcome status.",
		}, []string{"status"}),
		Records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "processor",
			Name:      "records_total",
			Help:      "Priced reward records stored.",
		}),
		Batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "processor",
			Name:      "batches_total",
			Help:      "Batches of pending requests fetched.",
		}),
	}
	reg.MustRegister(m.Requests, m.Records, m.Batches)
	return m
}

// RequestFinished counts one request outcome and the records it produced
func (m *Processor) RequestFinished(status string, records int) {
	m.Requests.WithLabelValues(status).Inc()
	m.Records.Add(float64(records))
}

// HTTP holds the read API collectors
type HTTP struct {
	Duration *prometheus.HistogramVec
}

// NewHTTP creates HTTP collectors and registers them with reg
func NewHTTP(reg prometheus.Registerer) *HTTP {
	m := &HTTP{
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}
	reg.MustRegister(m.Duration)
	return m
}

// Middleware observes the latency of every request. Unmatched requests are
// labelled "unmatched" to keep the route cardinality bounded.
func (m *HTTP) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := httpkit.NewStatusRecorder(w)

		next.ServeHTTP(rw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.Duration.WithLabelValues(route, strconv.Itoa(rw.StatusCode)).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the collectors registered with g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
