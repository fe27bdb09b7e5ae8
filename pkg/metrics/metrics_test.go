package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

type MetricsSuite struct {
	suite.Suite
}

func TestMetricsSuite(t *testing.T) {
	suite.Run(t, new(MetricsSuite))
}

func (s *MetricsSuite) TestNilRegistryIsNoop() {
	var r *Registry
	s.NotPanics(func() {
		r.CacheHit()
		r.CacheMiss()
		r.CacheEvicted(3)
		r.StrategyAttempt("openai")
		r.StrategyFailure("openai")
		r.ObserveExtraction(0.5)
		r.ExtractionTimeout()
		r.TranscriptionError()
		r.QRFailure()
		r.InvoiceSynthesized("THB")
	})
}

func (s *MetricsSuite) TestCountersIncrement() {
	r := NewRegistry()
	r.CacheHit()
	r.CacheHit()
	r.CacheEvicted(4)
	r.StrategyFailure("regional")

	s.Equal(2.0, testutil.ToFloat64(r.CacheHits))
	s.Equal(4.0, testutil.ToFloat64(r.CacheEvictions))
	s.Equal(1.0, testutil.ToFloat64(r.StrategyFailures.WithLabelValues("regional")))
}

func (s *MetricsSuite) TestHandlerExposesMetrics() {
	r := NewRegistry()
	r.QRFailure()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	s.Require().NoError(err)
	s.Contains(string(body), "invoice_qr_failures_total 1")
}
