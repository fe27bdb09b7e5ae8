package invoice

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/metrics"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/payment"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

type stubQR struct {
	uri      string
	accounts []string
}

func (q *stubQR) QRCode(_ context.Context, _ model.Currency, account string, _ float64) string {
	q.accounts = append(q.accounts, account)
	return q.uri
}

type brokenEncoder struct{}

func (brokenEncoder) Encode(string, int) ([]byte, error) {
	return nil, context.DeadlineExceeded
}

type SynthesizerSuite struct {
	suite.Suite
	now       time.Time
	templates *BusinessTemplates
	qr        *stubQR
	metrics   *metrics.Registry
	synth     *Synthesizer
}

func TestSynthesizerSuite(t *testing.T) {
	suite.Run(t, new(SynthesizerSuite))
}

func (s *SynthesizerSuite) SetupTest() {
	templates, err := DefaultBusinessTemplates()
	s.Require().NoError(err)
	s.templates = templates
	s.now = time.Date(2025, 1, 31, 10, 30, 0, 0, time.UTC)
	s.qr = &stubQR{uri: "data:image/png;base64,AAAA"}
	s.metrics = metrics.NewRegistry()
	s.synth = NewSynthesizer(templates,
		WithClock(func() time.Time { return s.now }),
		WithRandom(func(int) int { return 7 }),
		WithQRGenerator(s.qr),
		WithMetrics(s.metrics),
	)
}

func (s *SynthesizerSuite) transaction(language model.Language) model.TransactionData {
	return model.TransactionData{
		Items:        []model.LineItem{{Name: "ผัดไทย", Quantity: 3, UnitPrice: 60, Total: 180}},
		Total:        180,
		Currency:     language.Currency(),
		PaymentTerms: model.PaymentTermsImmediate,
		BusinessType: "restaurant",
		Language:     language,
	}
}

func (s *SynthesizerSuite) TestInvoiceNumberUsesLowTimestampDigitsAndSuffix() {
	inv := s.synth.Synthesize(context.Background(), s.transaction(model.LanguageThai), "restaurant")

	expected := fmt.Sprintf("INV-%08d07", s.now.UnixMilli()%100_000_000)
	s.Equal(expected, inv.InvoiceNumber)
	s.Len(inv.InvoiceNumber, len("INV-")+10)
	s.Equal("2025-01-31", inv.Date)
}

func (s *SynthesizerSuite) TestDueDateResolvedOnlyForLaterTerms() {
	tx := s.transaction(model.LanguageIndonesian)
	tx.DueDate = "next week"

	inv := s.synth.Synthesize(context.Background(), tx, "restaurant")
	s.Empty(inv.DueDate)

	tx.PaymentTerms = model.PaymentTermsLater
	inv = s.synth.Synthesize(context.Background(), tx, "restaurant")
	s.Equal("2025-02-07", inv.DueDate)
	s.Equal("next week", inv.TransactionData.DueDate)
}

func (s *SynthesizerSuite) TestResolveDueDate() {
	s.Equal("2025-02-07", ResolveDueDate("next week", s.now))
	s.Equal("2025-02-07", ResolveDueDate("in a WEEK", s.now))
	s.Equal("2025-03-03", ResolveDueDate("next month", s.now))
	s.Equal("2025-03-15", ResolveDueDate("2025-03-15", s.now))
	s.Equal("2025-03-15", ResolveDueDate("15/03/2025", s.now))
	s.Equal("2025-03-15", ResolveDueDate("March 15, 2025", s.now))
	s.Equal("2025-03-02", ResolveDueDate("whenever they can", s.now))
}

func (s *SynthesizerSuite) TestResolveDueDateUnderstandsLocalPhrases() {
	for _, hint := range []string{"minggu depan", "อาทิตย์หน้า", "สัปดาห์หน้า", "tuần sau", "Tuần sau", "sa susunod na linggo"} {
		s.Equal("2025-02-07", ResolveDueDate(hint, s.now), hint)
	}
	for _, hint := range []string{"bulan depan", "เดือนหน้า", "tháng sau", "sa susunod na buwan"} {
		s.Equal("2025-03-03", ResolveDueDate(hint, s.now), hint)
	}
}

func (s *SynthesizerSuite) TestLocalDueDateHintOnInvoice() {
	tx := s.transaction(model.LanguageIndonesian)
	tx.PaymentTerms = model.PaymentTermsLater
	tx.DueDate = "minggu depan"

	inv := s.synth.Synthesize(context.Background(), tx, "restaurant")

	s.Equal("2025-02-07", inv.DueDate)
}

func (s *SynthesizerSuite) TestBusinessTemplateFallback() {
	business := s.templates.Resolve("restaurant", model.LanguageThai)
	s.Equal("ร้านอาหารบ้านสวน", business.Name)

	business = s.templates.Resolve("services", model.LanguageThai)
	s.Equal("Reliable Repairs & Services", business.Name)

	for _, language := range model.SupportedLanguages() {
		business = s.templates.Resolve("florist", language)
		s.Equal(GenericBusiness, business)
		s.NotEmpty(business.Name)
		s.NotEmpty(business.PaymentAccount)
	}

	var missing *BusinessTemplates
	s.Equal(GenericBusiness, missing.Resolve("restaurant", model.LanguageEnglish))
}

func (s *SynthesizerSuite) TestTemplateTag() {
	s.Equal("restaurant", TemplateTag("restaurant"))
	s.Equal("retail", TemplateTag(" Retail"))
	s.Equal("professional", TemplateTag("services"))
	s.Equal("modern", TemplateTag("general"))
}

func (s *SynthesizerSuite) TestSynthesizeUsesTransactionBusinessTypeWhenEmpty() {
	tx := s.transaction(model.LanguageTagalog)

	inv := s.synth.Synthesize(context.Background(), tx, "")

	s.Equal("Kainan ni Aling Nena", inv.Business.Name)
	s.Equal("restaurant", inv.Template)
	s.Equal([]string{"09171234567"}, s.qr.accounts)
	s.Equal("data:image/png;base64,AAAA", inv.QRCode)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.InvoicesSynthesized.WithLabelValues("PHP")))
}

func (s *SynthesizerSuite) TestQRFailureLeavesEmptyCode() {
	synth := NewSynthesizer(s.templates,
		WithQRGenerator(payment.NewGenerator(payment.WithEncoder(brokenEncoder{}))),
	)

	inv := synth.Synthesize(context.Background(), s.transaction(model.LanguageThai), "restaurant")

	s.Equal("", inv.QRCode)
	s.Equal(180.0, inv.Total)
}
