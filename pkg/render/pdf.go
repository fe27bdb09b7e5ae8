package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
	"github.com/jung-kurt/gofpdf"
)

const (
	pdfFont     = "Helvetica"
	pdfQRImage  = "payment-qr"
	pdfRowH     = 8.0
	pdfQRSizeMM = 40.0
)

var pdfColumnWidths = []float64{90, 20, 40, 40}

// PDF renders the invoice as an A4 document using the built-in core fonts.
// Core fonts only cover Windows-1252, so amounts carry the currency code instead of a symbol
// and Thai or Vietnamese item names degrade to the closest encodable text.
func PDF(inv model.InvoiceData) ([]byte, error) {
	l := pdfLabels(inv.Language)
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(inv.InvoiceNumber, true)
	pdf.AddPage()

	pdf.SetFont(pdfFont, "B", 18)
	pdf.CellFormat(120, 10, tr(inv.Business.Name), "", 0, "L", false, 0, "")
	pdf.SetFont(pdfFont, "B", 14)
	pdf.CellFormat(0, 10, l.Invoice, "", 1, "R", false, 0, "")

	pdf.SetFont(pdfFont, "", 10)
	meta := []string{
		l.InvoiceNo + ": " + inv.InvoiceNumber,
		l.Date + ": " + inv.Date,
	}
	if inv.DueDate != "" {
		meta = append(meta, l.DueDate+": "+inv.DueDate)
	}
	business := []string{inv.Business.Address, inv.Business.Phone, inv.Business.Email}
	for i := 0; i < max(len(meta), len(business)); i++ {
		pdf.CellFormat(120, 5, tr(at(business, i)), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, at(meta, i), "", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	if inv.Customer.Name != "" || inv.Customer.Contact != "" {
		pdf.SetFont(pdfFont, "B", 11)
		pdf.CellFormat(0, 6, l.BillTo, "", 1, "L", false, 0, "")
		pdf.SetFont(pdfFont, "", 10)
		for _, line := range []string{inv.Customer.Name, inv.Customer.Contact} {
			if line != "" {
				pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
			}
		}
		pdf.Ln(4)
	}

	pdf.SetFont(pdfFont, "B", 10)
	pdf.SetFillColor(52, 73, 94)
	pdf.SetTextColor(255, 255, 255)
	for i, header := range []string{l.Item, l.Quantity, l.UnitPrice, l.Amount} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(pdfColumnWidths[i], pdfRowH, header, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(pdfFont, "", 10)
	pdf.SetTextColor(0, 0, 0)
	for _, item := range inv.Items {
		pdf.CellFormat(pdfColumnWidths[0], pdfRowH, tr(item.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(pdfColumnWidths[1], pdfRowH, FormatQuantity(item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(pdfColumnWidths[2], pdfRowH, pdfAmount(item.UnitPrice, inv.Currency), "1", 0, "R", false, 0, "")
		pdf.CellFormat(pdfColumnWidths[3], pdfRowH, pdfAmount(item.Total, inv.Currency), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont(pdfFont, "B", 11)
	labelWidth := pdfColumnWidths[0] + pdfColumnWidths[1] + pdfColumnWidths[2]
	pdf.CellFormat(labelWidth, pdfRowH, l.Total, "1", 0, "L", false, 0, "")
	pdf.CellFormat(pdfColumnWidths[3], pdfRowH, pdfAmount(inv.Total, inv.Currency), "1", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont(pdfFont, "", 10)
	pdf.MultiCell(0, 5, l.PaymentTerm+": "+l.termsNote(inv.PaymentTerms), "", "L", false)

	if png, ok := decodeQR(inv.QRCode); ok {
		pdf.Ln(4)
		pdf.RegisterImageOptionsReader(pdfQRImage, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
		pdf.ImageOptions(pdfQRImage, pdf.GetX(), pdf.GetY(), pdfQRSizeMM, pdfQRSizeMM, true, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		pdf.CellFormat(0, 5, l.ScanToPay, "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	if buf.Len() == 0 {
		return nil, utils.WrapIfNotNil(errors.New("empty pdf output"))
	}
	return buf.Bytes(), nil
}

// pdfLabels keeps labels in English for scripts the core fonts cannot draw.
func pdfLabels(language model.Language) labels {
	switch language {
	case model.LanguageThai, model.LanguageVietnamese:
		return labelsFor(model.LanguageEnglish)
	}
	return labelsFor(language)
}

func pdfAmount(amount float64, currency model.Currency) string {
	return fmt.Sprintf("%s %s", currency, formatNumber(amount, currency))
}

func decodeQR(dataURI string) ([]byte, bool) {
	if !strings.HasPrefix(dataURI, qrDataURIPrefix) {
		return nil, false
	}
	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURI, qrDataURIPrefix))
	if err != nil || len(png) == 0 {
		return nil, false
	}
	return png, true
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
