package render

import (
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
)

type labels struct {
	Invoice     string
	InvoiceNo   string
	Date        string
	DueDate     string
	BillTo      string
	Item        string
	Quantity    string
	UnitPrice   string
	Amount      string
	Total       string
	PaymentTerm string
	ScanToPay   string
	Terms       map[model.PaymentTerms]string
}

var labelsByLanguage = map[model.Language]labels{
	model.LanguageEnglish: {
		Invoice: "Invoice", InvoiceNo: "Invoice No.", Date: "Date", DueDate: "Due date", BillTo: "Bill to",
		Item: "Item", Quantity: "Qty", UnitPrice: "Unit price", Amount: "Amount", Total: "Total",
		PaymentTerm: "Payment terms", ScanToPay: "Scan to pay",
		Terms: map[model.PaymentTerms]string{
			model.PaymentTermsImmediate:   "Paid in full. Thank you!",
			model.PaymentTermsLater:       "Payment due by the due date.",
			model.PaymentTermsInstallment: "Payable in installments.",
			model.PaymentTermsCredit:      "Charged to the customer's credit account.",
		},
	},
	model.LanguageIndonesian: {
		Invoice: "Faktur", InvoiceNo: "No. Faktur", Date: "Tanggal", DueDate: "Jatuh tempo", BillTo: "Kepada",
		Item: "Barang", Quantity: "Jml", UnitPrice: "Harga satuan", Amount: "Jumlah", Total: "Total",
		PaymentTerm: "Ketentuan pembayaran", ScanToPay: "Pindai untuk membayar",
		Terms: map[model.PaymentTerms]string{
			model.PaymentTermsImmediate:   "Lunas. Terima kasih!",
			model.PaymentTermsLater:       "Harap dibayar sebelum jatuh tempo.",
			model.PaymentTermsInstallment: "Dibayar dengan cicilan.",
			model.PaymentTermsCredit:      "Dicatat sebagai utang pelanggan.",
		},
	},
	model.LanguageThai: {
		Invoice: "ใบแจ้งหนี้", InvoiceNo: "เลขที่", Date: "วันที่", DueDate: "ครบกำหนด", BillTo: "ลูกค้า",
		Item: "รายการ", Quantity: "จำนวน", UnitPrice: "ราคาต่อหน่วย", Amount: "จำนวนเงิน", Total: "รวม",
		PaymentTerm: "เงื่อนไขการชำระเงิน", ScanToPay: "สแกนเพื่อชำระ",
		Terms: map[model.PaymentTerms]string{
			model.PaymentTermsImmediate:   "ชำระเงินครบแล้ว ขอบคุณค่ะ",
			model.PaymentTermsLater:       "กรุณาชำระภายในวันครบกำหนด",
			model.PaymentTermsInstallment: "ผ่อนชำระเป็นงวด",
			model.PaymentTermsCredit:      "บันทึกเป็นยอดค้างชำระของลูกค้า",
		},
	},
	model.LanguageVietnamese: {
		Invoice: "Hóa đơn", InvoiceNo: "Số hóa đơn", Date: "Ngày", DueDate: "Hạn thanh toán", BillTo: "Khách hàng",
		Item: "Mặt hàng", Quantity: "SL", UnitPrice: "Đơn giá", Amount: "Thành tiền", Total: "Tổng cộng",
		PaymentTerm: "Điều khoản thanh toán", ScanToPay: "Quét để thanh toán",
		Terms: map[model.PaymentTerms]string{
			model.PaymentTermsImmediate:   "Đã thanh toán đủ. Cảm ơn quý khách!",
			model.PaymentTermsLater:       "Vui lòng thanh toán trước hạn.",
			model.PaymentTermsInstallment: "Thanh toán trả góp.",
			model.PaymentTermsCredit:      "Ghi vào sổ nợ của khách hàng.",
		},
	},
	model.LanguageTagalog: {
		Invoice: "Resibo", InvoiceNo: "Blg. ng Resibo", Date: "Petsa", DueDate: "Takdang petsa", BillTo: "Para kay",
		Item: "Produkto", Quantity: "Dami", UnitPrice: "Presyo", Amount: "Halaga", Total: "Kabuuan",
		PaymentTerm: "Paraan ng pagbabayad", ScanToPay: "I-scan para magbayad",
		Terms: map[model.PaymentTerms]string{
			model.PaymentTermsImmediate:   "Bayad na. Salamat po!",
			model.PaymentTermsLater:       "Bayaran bago ang takdang petsa.",
			model.PaymentTermsInstallment: "Babayaran nang hulugan.",
			model.PaymentTermsCredit:      "Nakalista bilang utang ng suki.",
		},
	},
}

func labelsFor(language model.Language) labels {
	if l, ok := labelsByLanguage[language]; ok {
		return l
	}
	return labelsByLanguage[model.LanguageEnglish]
}

func (l labels) termsNote(terms model.PaymentTerms) string {
	if note, ok := l.Terms[terms]; ok {
		return note
	}
	return l.Terms[model.PaymentTermsImmediate]
}
