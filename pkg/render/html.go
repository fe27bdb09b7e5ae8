package render

import (
	"bytes"
	"embed"
	"html/template"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
)

//go:embed templates/invoice.html.tmpl
var templateFS embed.FS

var invoiceTemplate = template.Must(template.ParseFS(templateFS, "templates/invoice.html.tmpl"))

const qrDataURIPrefix = "data:image/png;base64,"

var accentColors = map[string]template.CSS{
	"restaurant":   "#c0392b",
	"retail":       "#2471a3",
	"professional": "#1e8449",
}

const defaultAccent template.CSS = "#34495e"

type itemView struct {
	Name      string
	Quantity  string
	UnitPrice string
	Total     string
}

type invoiceView struct {
	Lang          string
	Template      string
	Accent        template.CSS
	Labels        labels
	InvoiceNumber string
	Date          string
	DueDate       string
	Business      model.Business
	Customer      model.Customer
	Items         []itemView
	Total         string
	TermsNote     string
	QRCode        template.URL
}

// HTML renders a standalone invoice document. Every field is escaped by html/template;
// the QR image is only embedded when it is a PNG data URI produced by this service.
func HTML(inv model.InvoiceData) (string, error) {
	var buf bytes.Buffer
	err := invoiceTemplate.Execute(&buf, newInvoiceView(inv))
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}
	return buf.String(), nil
}

func newInvoiceView(inv model.InvoiceData) invoiceView {
	l := labelsFor(inv.Language)
	view := invoiceView{
		Lang:          string(inv.Language),
		Template:      inv.Template,
		Accent:        defaultAccent,
		Labels:        l,
		InvoiceNumber: inv.InvoiceNumber,
		Date:          inv.Date,
		DueDate:       inv.DueDate,
		Business:      inv.Business,
		Customer:      inv.Customer,
		Items:         make([]itemView, 0, len(inv.Items)),
		Total:         FormatAmount(inv.Total, inv.Currency),
		TermsNote:     l.termsNote(inv.PaymentTerms),
	}
	if view.Lang == "" {
		view.Lang = string(model.LanguageEnglish)
	}
	if accent, ok := accentColors[inv.Template]; ok {
		view.Accent = accent
	}
	for _, item := range inv.Items {
		view.Items = append(view.Items, itemView{
			Name:      item.Name,
			Quantity:  FormatQuantity(item.Quantity),
			UnitPrice: FormatAmount(item.UnitPrice, inv.Currency),
			Total:     FormatAmount(item.Total, inv.Currency),
		})
	}
	if strings.HasPrefix(inv.QRCode, qrDataURIPrefix) {
		view.QRCode = template.URL(inv.QRCode)
	}
	return view
}
