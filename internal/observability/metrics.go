package observability

import (
	"io"
	"net/http"
	"strconv"
	"time"
)

// Metrics is the API's Prometheus surface. A nil *Metrics is a valid no-op.
type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge

	generations       *CounterVec
	generationLatency *HistogramVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("gitrec_api_requests_total", "API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"gitrec_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		),
		apiInflight: NewGauge("gitrec_api_inflight_requests", "In-flight API requests."),
		generations: NewCounterVec("gitrec_generations_total", "Content engine calls by engine/operation/status.", []string{"engine", "operation", "status"}),
		generationLatency: NewHistogramVec(
			"gitrec_generation_duration_seconds",
			"Content engine latency in seconds by engine/operation.",
			[]string{"engine", "operation"},
			[]float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		),
	}
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	code := strconv.Itoa(status)
	m.apiRequests.Inc(method, route, code)
	m.apiLatency.Observe(dur.Seconds(), method, route, code)
}

func (m *Metrics) APIInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) APIInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

// ObserveGeneration records one content engine call.
func (m *Metrics) ObserveGeneration(engine, operation string, err error, dur time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.generations.Inc(engine, operation, status)
	m.generationLatency.Observe(dur.Seconds(), engine, operation)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, s := range []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight, m.generations, m.generationLatency,
	} {
		if err := s.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}
