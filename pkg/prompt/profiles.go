package prompt

import (
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
)

// LanguageProfile carries the per-language vocabulary the extraction prompt is built from.
type LanguageProfile struct {
	Language    model.Language
	DisplayName string
	Currency    model.Currency
	// PaymentTermPhrases maps informal spoken phrases to the canonical payment terms they imply.
	PaymentTermPhrases map[model.PaymentTerms][]string
	NumberConventions  string
	BusinessKeywords   []string
}

var profiles = map[model.Language]LanguageProfile{
	model.LanguageEnglish: {
		Language:    model.LanguageEnglish,
		DisplayName: "English",
		Currency:    model.CurrencyUSD,
		PaymentTermPhrases: map[model.PaymentTerms][]string{
			model.PaymentTermsImmediate:   {"paid cash", "paid now", "paid in full"},
			model.PaymentTermsLater:       {"pay later", "pay next week", "on account"},
			model.PaymentTermsInstallment: {"in installments", "split payments"},
			model.PaymentTermsCredit:      {"on credit", "tab", "IOU"},
		},
		NumberConventions: "Prices are often spoken without the decimal point: \"three fifty\" means 3.50 and \"eight fifty\" means 8.50. " +
			"\"a couple\" means 2 and \"a dozen\" means 12.",
		BusinessKeywords: []string{"sold", "bought", "each", "customer", "paid", "owes", "receipt"},
	},
	model.LanguageIndonesian: {
		Language:    model.LanguageIndonesian,
		DisplayName: "Indonesian",
		Currency:    model.CurrencyIDR,
		PaymentTermPhrases: map[model.PaymentTerms][]string{
			model.PaymentTermsImmediate:   {"bayar tunai", "lunas", "cash"},
			model.PaymentTermsLater:       {"bayar nanti", "minggu depan", "bulan depan"},
			model.PaymentTermsInstallment: {"cicil", "cicilan", "angsuran"},
			model.PaymentTermsCredit:      {"utang", "ngebon", "kasbon"},
		},
		NumberConventions: "Amounts are whole rupiah with no decimals. \"ribu\" means thousand and \"juta\" means million, " +
			"so \"dua puluh lima ribu\" is 25000 and \"goceng\" is 5000. Dots are thousands separators.",
		BusinessKeywords: []string{"jual", "beli", "porsi", "bungkus", "harga", "pelanggan", "bayar", "warung"},
	},
	model.LanguageThai: {
		Language:    model.LanguageThai,
		DisplayName: "Thai",
		Currency:    model.CurrencyTHB,
		PaymentTermPhrases: map[model.PaymentTerms][]string{
			model.PaymentTermsImmediate:   {"จ่ายสด", "จ่ายแล้ว", "เงินสด"},
			model.PaymentTermsLater:       {"จ่ายทีหลัง", "อาทิตย์หน้า", "เดือนหน้า"},
			model.PaymentTermsInstallment: {"ผ่อน", "แบ่งจ่าย"},
			model.PaymentTermsCredit:      {"ติดไว้ก่อน", "เชื่อ", "ลงบัญชี"},
		},
		NumberConventions: "Amounts are in baht. \"บาท\" marks the currency, \"จานละ\" or \"ละ\" marks a unit price, " +
			"and Thai digits or spoken numbers such as \"ห้าสิบ\" (50) and \"ร้อย\" (100) may appear.",
		BusinessKeywords: []string{"ขาย", "ซื้อ", "จาน", "แก้ว", "ถุง", "ลูกค้า", "ร้าน"},
	},
	model.LanguageVietnamese: {
		Language:    model.LanguageVietnamese,
		DisplayName: "Vietnamese",
		Currency:    model.CurrencyVND,
		PaymentTermPhrases: map[model.PaymentTerms][]string{
			model.PaymentTermsImmediate:   {"trả tiền mặt", "trả ngay", "đã trả"},
			model.PaymentTermsLater:       {"trả sau", "tuần sau", "tháng sau"},
			model.PaymentTermsInstallment: {"trả góp", "chia kỳ"},
			model.PaymentTermsCredit:      {"ghi sổ", "nợ", "thiếu"},
		},
		NumberConventions: "Amounts are whole dong with no decimals. \"nghìn\" or \"ngàn\" means thousand and \"k\" is shorthand for thousand, " +
			"so \"năm mươi nghìn\" and \"50k\" are both 50000. \"triệu\" means million.",
		BusinessKeywords: []string{"bán", "mua", "tô", "ly", "phần", "khách", "quán"},
	},
	model.LanguageTagalog: {
		Language:    model.LanguageTagalog,
		DisplayName: "Tagalog",
		Currency:    model.CurrencyPHP,
		PaymentTermPhrases: map[model.PaymentTerms][]string{
			model.PaymentTermsImmediate:   {"bayad na", "cash", "bayad agad"},
			model.PaymentTermsLater:       {"bayaran mamaya", "sa susunod na linggo", "sa katapusan"},
			model.PaymentTermsInstallment: {"hulugan", "installment"},
			model.PaymentTermsCredit:      {"utang", "utang muna", "lista"},
		},
		NumberConventions: "Amounts are in pesos. Speakers mix Tagalog and English numbers: \"isang daan\" is 100, " +
			"\"dalawampu\" is 20, \"limampu\" is 50. \"tig-\" before an amount marks a unit price.",
		BusinessKeywords: []string{"nagbenta", "bumili", "tig-isa", "suki", "bayad", "tindahan", "sari-sari"},
	},
}

// ProfileFor returns the profile for language, falling back to English for anything outside the set.
func ProfileFor(language model.Language) LanguageProfile {
	if profile, ok := profiles[language]; ok {
		return profile
	}
	return profiles[model.LanguageEnglish]
}

// AudioKeywords turns the business vocabulary of a language into transcription hints.
func AudioKeywords(language model.Language) []model.AudioKeyword {
	profile := ProfileFor(language)
	keywords := make([]model.AudioKeyword, 0, len(profile.BusinessKeywords))
	for _, word := range profile.BusinessKeywords {
		keywords = append(keywords, model.AudioKeyword{Word: word})
	}
	return keywords
}
