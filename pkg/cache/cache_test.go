package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/metrics"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type CacheSuite struct {
	suite.Suite
	clock *fakeClock
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheSuite))
}

func (s *CacheSuite) SetupTest() {
	s.clock = &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func sampleTransaction() model.TransactionData {
	return model.TransactionData{
		Items:    []model.LineItem{{Name: "ผัดไทย", Quantity: 3, UnitPrice: 60, Total: 180}},
		Total:    180,
		Currency: model.CurrencyTHB,
		Language: model.LanguageThai,
		Metadata: model.TransactionMetadata{Confidence: 0.9, ExtractedEntities: []string{"ผัดไทย"}},
	}
}

func (s *CacheSuite) TestKeyDependsOnLanguageAndTranscript() {
	s.Equal(Key(model.LanguageThai, "ขาย"), Key(model.LanguageThai, "ขาย"))
	s.NotEqual(Key(model.LanguageThai, "ขาย"), Key(model.LanguageEnglish, "ขาย"))
	s.NotEqual(Key(model.LanguageThai, "ขาย"), Key(model.LanguageThai, "ซื้อ"))
}

func (s *CacheSuite) TestGetReturnsStoredWithinTTL() {
	c := New(WithClock(s.clock.Now))
	c.Put("k", sampleTransaction())

	s.clock.Advance(4*time.Minute + 59*time.Second)
	got, ok := c.Get("k")
	s.Require().True(ok)
	s.Equal(sampleTransaction(), got)
}

func (s *CacheSuite) TestGetExpiresAndDeletes() {
	c := New(WithClock(s.clock.Now))
	c.Put("k", sampleTransaction())

	s.clock.Advance(DefaultTTL)
	_, ok := c.Get("k")
	s.False(ok)
	s.Equal(0, c.Len())
}

func (s *CacheSuite) TestReturnedDataIsIsolatedFromCache() {
	c := New(WithClock(s.clock.Now))
	c.Put("k", sampleTransaction())

	got, ok := c.Get("k")
	s.Require().True(ok)
	got.Items[0].Name = "changed"
	got.Metadata.ExtractedEntities[0] = "changed"

	again, _ := c.Get("k")
	s.Equal("ผัดไทย", again.Items[0].Name)
	s.Equal("ผัดไทย", again.Metadata.ExtractedEntities[0])
}

func (s *CacheSuite) TestPutSweepsExpiredOverThreshold() {
	c := New(WithClock(s.clock.Now), WithSweepThreshold(3), WithTTL(time.Minute))
	c.Put("a", sampleTransaction())
	c.Put("b", sampleTransaction())
	s.clock.Advance(2 * time.Minute)
	c.Put("c", sampleTransaction())
	s.Equal(3, c.Len())

	c.Put("d", sampleTransaction())
	s.Equal(2, c.Len())
	_, ok := c.Get("c")
	s.True(ok)
}

func (s *CacheSuite) TestPutDoesNotEvictFreshEntriesOverThreshold() {
	c := New(WithClock(s.clock.Now), WithSweepThreshold(2))
	for i := 0; i < 5; i++ {
		c.Put(fmt.Sprintf("k%d", i), sampleTransaction())
	}
	s.Equal(5, c.Len())
}

func (s *CacheSuite) TestMetricsRecorded() {
	reg := metrics.NewRegistry()
	c := New(WithClock(s.clock.Now), WithMetrics(reg))
	c.Put("k", sampleTransaction())

	c.Get("k")
	c.Get("missing")
	s.clock.Advance(DefaultTTL)
	c.Get("k")

	s.Equal(1.0, testutil.ToFloat64(reg.CacheHits))
	s.Equal(2.0, testutil.ToFloat64(reg.CacheMisses))
	s.Equal(1.0, testutil.ToFloat64(reg.CacheEvictions))
}

func (s *CacheSuite) TestConcurrentAccess() {
	c := New(WithClock(s.clock.Now), WithSweepThreshold(10))
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("w%d-%d", w, i%20)
				c.Put(key, sampleTransaction())
				if _, ok := c.Get(key); !ok {
					s.Failf("missing", "key %s", key)
					return
				}
			}
		}()
	}
	wg.Wait()
	s.Equal(160, c.Len())
}
