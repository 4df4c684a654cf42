package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TimeLog struct {
	ID          string          `json:"id"`
	ProjectID   string          `json:"project_id"`
	EmployeeID  string          `json:"employee_id"`
	EntryDate   time.Time       `json:"entry_date"`
	Hours       decimal.Decimal `json:"hours"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Description *string         `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CreatedBy   string          `json:"created_by"`
}

// TimeLogTotal is hours x rate.
func TimeLogTotal(hours, rate decimal.Decimal) decimal.Decimal {
	return hours.Mul(rate)
}

type MaterialsReceipt struct {
	ID            string          `json:"id"`
	ProjectID     string          `json:"project_id"`
	ReceiptDate   time.Time       `json:"receipt_date"`
	VendorName    string          `json:"vendor_name"`
	InvoiceNumber *string         `json:"invoice_number,omitempty"`
	Description   *string         `json:"description,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	Notes         *string         `json:"notes,omitempty"`
	AttachmentKey *string         `json:"attachment_key,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	CreatedBy     string          `json:"created_by"`
}

// ReceiptGrandTotal is amount + tax.
func ReceiptGrandTotal(amount, tax decimal.Decimal) decimal.Decimal {
	return amount.Add(tax)
}

type SubInvoice struct {
	ID              string          `json:"id"`
	ProjectID       string          `json:"project_id"`
	SubcontractorID string          `json:"subcontractor_id"`
	InvoiceNumber   *string         `json:"invoice_number,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Description     *string         `json:"description,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	CreatedBy       string          `json:"created_by"`
}

type Estimate struct {
	ID        string          `json:"id"`
	ProjectID string          `json:"project_id"`
	Version   int             `json:"version"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	CreatedBy string          `json:"created_by"`
	UpdatedAt time.Time       `json:"updated_at"`
}
