package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns the pipeline collectors. A nil *Registry is valid and records nothing.
type Registry struct {
	reg                  *prometheus.Registry
	CacheHits            prometheus.Counter
	CacheMisses          prometheus.Counter
	CacheEvictions       prometheus.Counter
	StrategyAttempts     *prometheus.CounterVec
	StrategyFailures     *prometheus.CounterVec
	ExtractionLatencySec prometheus.Histogram
	ExtractionTimeouts   prometheus.Counter
	TranscriptionErrors  prometheus.Counter
	QRFailures           prometheus.Counter
	InvoicesSynthesized  *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{Name: "invoice_cache_hits_total"})
	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{Name: "invoice_cache_misses_total"})
	cacheEvictions := prometheus.NewCounter(prometheus.CounterOpts{Name: "invoice_cache_evictions_total"})
	strategyAttempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "invoice_extraction_strategy_attempts_total"},
		[]string{"strategy"},
	)
	strategyFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "invoice_extraction_strategy_failures_total"},
		[]string{"strategy"},
	)
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "invoice_extraction_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})
	timeouts := prometheus.NewCounter(prometheus.CounterOpts{Name: "invoice_extraction_timeouts_total"})
	transcriptionErrors := prometheus.NewCounter(prometheus.CounterOpts{Name: "invoice_transcription_errors_total"})
	qrFailures := prometheus.NewCounter(prometheus.CounterOpts{Name: "invoice_qr_failures_total"})
	invoices := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "invoice_synthesized_total"},
		[]string{"currency"},
	)

	r.MustRegister(
		cacheHits,
		cacheMisses,
		cacheEvictions,
		strategyAttempts,
		strategyFailures,
		latency,
		timeouts,
		transcriptionErrors,
		qrFailures,
		invoices,
	)
	return &Registry{
		reg:                  r,
		CacheHits:            cacheHits,
		CacheMisses:          cacheMisses,
		CacheEvictions:       cacheEvictions,
		StrategyAttempts:     strategyAttempts,
		StrategyFailures:     strategyFailures,
		ExtractionLatencySec: latency,
		ExtractionTimeouts:   timeouts,
		TranscriptionErrors:  transcriptionErrors,
		QRFailures:           qrFailures,
		InvoicesSynthesized:  invoices,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

func (r *Registry) CacheHit() {
	if r != nil {
		r.CacheHits.Inc()
	}
}

func (r *Registry) CacheMiss() {
	if r != nil {
		r.CacheMisses.Inc()
	}
}

func (r *Registry) CacheEvicted(n int) {
	if r != nil && n > 0 {
		r.CacheEvictions.Add(float64(n))
	}
}

func (r *Registry) StrategyAttempt(name string) {
	if r != nil {
		r.StrategyAttempts.WithLabelValues(name).Inc()
	}
}

func (r *Registry) StrategyFailure(name string) {
	if r != nil {
		r.StrategyFailures.WithLabelValues(name).Inc()
	}
}

func (r *Registry) ObserveExtraction(seconds float64) {
	if r != nil {
		r.ExtractionLatencySec.Observe(seconds)
	}
}

func (r *Registry) ExtractionTimeout() {
	if r != nil {
		r.ExtractionTimeouts.Inc()
	}
}

func (r *Registry) TranscriptionError() {
	if r != nil {
		r.TranscriptionErrors.Inc()
	}
}

func (r *Registry) QRFailure() {
	if r != nil {
		r.QRFailures.Inc()
	}
}

func (r *Registry) InvoiceSynthesized(currency string) {
	if r != nil {
		r.InvoicesSynthesized.WithLabelValues(currency).Inc()
	}
}
