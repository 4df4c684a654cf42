package dto

import "github.com/shopspring/decimal"

// Dates in requests use the YYYY-MM-DD layout.

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type StatusChangeRequest struct {
	Status string `json:"status"`
}

type CustomerRequest struct {
	Name         string  `json:"name"`
	Address      *string `json:"address,omitempty"`
	City         *string `json:"city,omitempty"`
	State        *string `json:"state,omitempty"`
	Zip          *string `json:"zip,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Status       string  `json:"status,omitempty"` // create only
}

type ProjectRequest struct {
	Name        string  `json:"name"`
	CustomerID  string  `json:"customer_id"`
	Description *string `json:"description,omitempty"`
	Status      string  `json:"status,omitempty"` // create only
	SiteAddress *string `json:"site_address,omitempty"`
	SiteCity    *string `json:"site_city,omitempty"`
	SiteState   *string `json:"site_state,omitempty"`
	SiteZip     *string `json:"site_zip,omitempty"`
}

type TimeLogRequest struct {
	ProjectID   string           `json:"project_id"`
	EmployeeID  string           `json:"employee_id"`
	EntryDate   string           `json:"entry_date"`
	Hours       decimal.Decimal  `json:"hours"`
	HourlyRate  *decimal.Decimal `json:"hourly_rate,omitempty"` // defaults to the employee's rate
	Description *string          `json:"description,omitempty"`
}

type ReceiptRequest struct {
	ProjectID     string          `json:"project_id"`
	ReceiptDate   string          `json:"receipt_date"`
	VendorName    string          `json:"vendor_name"`
	InvoiceNumber *string         `json:"invoice_number,omitempty"`
	Description   *string         `json:"description,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	Notes         *string         `json:"notes,omitempty"`
}

type SubInvoiceRequest struct {
	ProjectID       string          `json:"project_id"`
	SubcontractorID string          `json:"subcontractor_id"`
	InvoiceNumber   *string         `json:"invoice_number,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Description     *string         `json:"description,omitempty"`
}

type EmployeeRequest struct {
	Name         string          `json:"name"`
	Email        *string         `json:"email,omitempty"`
	Position     *string         `json:"position,omitempty"`
	Department   string          `json:"department,omitempty"`
	PaymentType  string          `json:"payment_type,omitempty"`
	HourlyRate   decimal.Decimal `json:"hourly_rate"`
	AnnualSalary decimal.Decimal `json:"annual_salary"`
	HoursPerWeek int             `json:"hours_per_week,omitempty"`
	Notes        *string         `json:"notes,omitempty"`
}

type VendorRequest struct {
	Name        string  `json:"name"`
	VendorType  string  `json:"vendor_type,omitempty"` // create only
	ContactName *string `json:"contact_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Address     *string `json:"address,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

type EstimateRequest struct {
	Amount decimal.Decimal `json:"amount"`
}
