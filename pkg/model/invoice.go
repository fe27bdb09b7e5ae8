package model

type Business struct {
	Name           string `json:"name" yaml:"name"`
	Address        string `json:"address" yaml:"address"`
	Phone          string `json:"phone" yaml:"phone"`
	Email          string `json:"email" yaml:"email"`
	PaymentAccount string `json:"paymentAccount,omitempty" yaml:"paymentAccount"`
}

// InvoiceData is derived from a TransactionData for a single synthesis call and never stored.
// DueDate shadows the transaction's due-date hint with the resolved calendar date.
type InvoiceData struct {
	TransactionData
	InvoiceNumber string   `json:"invoiceNumber"`
	Date          string   `json:"date"`
	DueDate       string   `json:"dueDate,omitempty"`
	Business      Business `json:"business"`
	QRCode        string   `json:"qrCode"`
	Template      string   `json:"template"`
}
