package extraction

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/cache"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/config"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/metrics"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/prompt"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

type fakeStrategy struct {
	name  string
	calls atomic.Int32
	fn    func(ctx context.Context, call int) (model.TransactionData, error)
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Extract(ctx context.Context, _ string, _ model.Language) (model.TransactionData, error) {
	call := int(f.calls.Add(1))
	return f.fn(ctx, call)
}

func failing(name string) *fakeStrategy {
	return &fakeStrategy{name: name, fn: func(context.Context, int) (model.TransactionData, error) {
		return model.TransactionData{}, errors.New(name + " unavailable")
	}}
}

func succeeding(name string, tx model.TransactionData) *fakeStrategy {
	return &fakeStrategy{name: name, fn: func(context.Context, int) (model.TransactionData, error) {
		return tx, nil
	}}
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type OrchestratorSuite struct {
	suite.Suite
	metrics *metrics.Registry
	clock   *clock
	cache   *cache.TransactionCache
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorSuite))
}

func (s *OrchestratorSuite) SetupTest() {
	s.metrics = metrics.NewRegistry()
	s.clock = &clock{now: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	s.cache = cache.New(cache.WithClock(s.clock.Now), cache.WithMetrics(s.metrics))
}

func (s *OrchestratorSuite) newOrchestrator(strategies ...Strategy) *Orchestrator {
	return NewOrchestrator(strategies, WithCache(s.cache), WithMetrics(s.metrics), WithTimeout(time.Second))
}

func (s *OrchestratorSuite) TestFallsBackToMockWhenEveryStageFails() {
	regional := failing(StrategyNameRegional)
	general := failing("openai")
	o := s.newOrchestrator(regional, general)

	tx, err := o.Extract(context.Background(), "ขายผัดไทย 3 จาน", model.LanguageThai)

	s.Require().NoError(err)
	s.Equal([]model.LineItem{
		{Name: "ผัดไทย", Quantity: 3, UnitPrice: 60, Total: 180},
		{Name: "ส้มตำ", Quantity: 2, UnitPrice: 35, Total: 70},
	}, tx.Items)
	s.Equal(250.0, tx.Total)
	s.Equal(model.CurrencyTHB, tx.Currency)
	s.Equal(int32(1), regional.calls.Load())
	s.Equal(int32(1), general.calls.Load())
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.StrategyFailures.WithLabelValues("openai")))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.StrategyAttempts.WithLabelValues(StrategyNameMock)))
}

func (s *OrchestratorSuite) TestStopsAtFirstSuccess() {
	want := MockTransaction(model.LanguageEnglish)
	want.Customer.Name = "Maria"
	general := succeeding("openai", want)
	after := failing("gemini")
	o := s.newOrchestrator(failing(StrategyNameRegional), general, after)

	tx, err := o.Extract(context.Background(), "sold coffee", model.LanguageEnglish)

	s.Require().NoError(err)
	s.Equal("Maria", tx.Customer.Name)
	s.Equal(int32(0), after.calls.Load())
	s.Equal([]string{StrategyNameRegional, "openai", "gemini", StrategyNameMock}, o.StrategyNames())
}

func (s *OrchestratorSuite) TestSecondCallWithinTTLSkipsProviders() {
	general := succeeding("openai", MockTransaction(model.LanguageVietnamese))
	o := s.newOrchestrator(general)

	first, err := o.Extract(context.Background(), "Bán hai tô phở bò", model.LanguageVietnamese)
	s.Require().NoError(err)
	s.clock.Advance(4 * time.Minute)
	second, err := o.Extract(context.Background(), "Bán hai tô phở bò", model.LanguageVietnamese)
	s.Require().NoError(err)

	s.Equal(first, second)
	s.Equal(int32(1), general.calls.Load())
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.CacheHits))
}

func (s *OrchestratorSuite) TestCallAfterTTLRunsChainAgain() {
	general := succeeding("openai", MockTransaction(model.LanguageVietnamese))
	o := s.newOrchestrator(general)

	_, err := o.Extract(context.Background(), "Bán hai tô phở bò", model.LanguageVietnamese)
	s.Require().NoError(err)
	s.clock.Advance(cache.DefaultTTL + time.Second)
	_, err = o.Extract(context.Background(), "Bán hai tô phở bò", model.LanguageVietnamese)
	s.Require().NoError(err)

	s.Equal(int32(2), general.calls.Load())
}

func (s *OrchestratorSuite) TestTimeoutSurfacesRetryableError() {
	slow := &fakeStrategy{name: "openai", fn: func(ctx context.Context, _ int) (model.TransactionData, error) {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return model.TransactionData{}, ctx.Err()
	}}
	o := NewOrchestrator([]Strategy{slow}, WithCache(s.cache), WithMetrics(s.metrics), WithTimeout(20*time.Millisecond))

	_, err := o.Extract(context.Background(), "sold coffee", model.LanguageEnglish)

	s.Require().Error(err)
	s.ErrorIs(err, model.ErrExtractionTimeout)
	s.True(model.IsRetryable(err))
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.ExtractionTimeouts))
	s.Equal(0, s.cache.Len())
}

func (s *OrchestratorSuite) TestMockFinishedAtDeadlineIsStillATimeout() {
	// The stage returns the moment the deadline fires, so the chain result and the
	// expired context race in the same select.
	for i := 0; i < 200; i++ {
		stalled := &fakeStrategy{name: "openai", fn: func(ctx context.Context, _ int) (model.TransactionData, error) {
			<-ctx.Done()
			return model.TransactionData{}, ctx.Err()
		}}
		o := NewOrchestrator([]Strategy{stalled}, WithCache(s.cache), WithMetrics(s.metrics), WithTimeout(time.Millisecond))

		tx, err := o.Extract(context.Background(), "sold coffee", model.LanguageEnglish)

		s.Require().ErrorIs(err, model.ErrExtractionTimeout, "iteration %d", i)
		s.Empty(tx.Items)
	}
	s.Equal(0, s.cache.Len())
	s.Equal(float64(200), testutil.ToFloat64(s.metrics.ExtractionTimeouts))
}

func (s *OrchestratorSuite) TestRetryAbandonedWhenTimeoutElapses() {
	general := failing("openai")
	retry := NewRetryStrategy(general, WithBaseDelay(time.Hour))
	o := NewOrchestrator([]Strategy{retry}, WithCache(s.cache), WithTimeout(30*time.Millisecond))

	start := time.Now()
	_, err := o.Extract(context.Background(), "sold coffee", model.LanguageEnglish)

	s.ErrorIs(err, model.ErrExtractionTimeout)
	s.Less(time.Since(start), 5*time.Second)
	s.Equal(int32(1), general.calls.Load())
}

func (s *OrchestratorSuite) TestCallerCancellationIsNotATimeout() {
	ctx, cancel := context.WithCancel(context.Background())
	blocked := &fakeStrategy{name: "openai", fn: func(ctx context.Context, _ int) (model.TransactionData, error) {
		cancel()
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		return model.TransactionData{}, ctx.Err()
	}}
	o := NewOrchestrator([]Strategy{blocked}, WithCache(s.cache), WithMetrics(s.metrics), WithTimeout(time.Minute))

	_, err := o.Extract(ctx, "sold coffee", model.LanguageEnglish)

	s.ErrorIs(err, context.Canceled)
	s.False(model.IsRetryable(err))
	s.Equal(float64(0), testutil.ToFloat64(s.metrics.ExtractionTimeouts))
}

func (s *OrchestratorSuite) TestFromConfigSkipsProvidersWithoutCredentials() {
	builder, err := prompt.NewBuilder()
	s.Require().NoError(err)

	cfg := &config.Config{
		GeneralProviders:  []string{"openai", "gemini", "anthropic", "bedrock", "ollama", "unknown"},
		GeminiKey:         "gemini-key",
		OllamaBaseURL:     "http://localhost:11434",
		RetryAttempts:     3,
		RetryBaseDelay:    time.Second,
		ExtractionTimeout: time.Minute,
	}
	o := NewOrchestratorFromConfig(cfg, builder, s.cache, s.metrics)

	s.Equal([]string{StrategyNameRegional, "gemini", "ollama", StrategyNameMock}, o.StrategyNames())
}

func (s *OrchestratorSuite) TestFromConfigWithoutCredentialsYieldsMock() {
	builder, err := prompt.NewBuilder()
	s.Require().NoError(err)
	cfg := &config.Config{GeneralProviders: []string{"openai"}, ExtractionTimeout: time.Minute}

	tx, err := NewOrchestratorFromConfig(cfg, builder, s.cache, s.metrics).
		Extract(context.Background(), "Nagbenta ako ng dalawang adobo", model.LanguageTagalog)

	s.Require().NoError(err)
	s.Equal(MockTransaction(model.LanguageTagalog), tx)
}
