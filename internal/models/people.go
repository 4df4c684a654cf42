package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentTypeHourly = "hourly"
	PaymentTypeSalary = "salary"

	DefaultDepartment   = "Other"
	DefaultHoursPerWeek = 40

	VendorTypeSupplier      = "Supplier"
	VendorTypeSubcontractor = "Subcontractor"
)

// Employee is a member of staff whose hours are logged against projects.
// Exactly one of HourlyRate and AnnualSalary is set, per PaymentType.
type Employee struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Email          *string         `json:"email,omitempty"`
	Position       *string         `json:"position,omitempty"`
	Department     string          `json:"department"`
	PaymentType    string          `json:"payment_type"`
	HourlyRate     decimal.Decimal `json:"hourly_rate"`
	AnnualSalary   decimal.Decimal `json:"annual_salary"`
	HoursPerWeek   int             `json:"hours_per_week"`
	Active         bool            `json:"is_active"`
	Notes          *string         `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	CreatedBy      string          `json:"created_by"`
	UpdatedAt      time.Time       `json:"updated_at"`
	LastModifiedBy *string         `json:"last_modified_by,omitempty"`
}

var weeksPerYear = decimal.NewFromInt(52)

// HourlyCost is the rate charged to a project for one hour of this employee.
// Salaried staff cost their salary spread over 52 working weeks.
func (e *Employee) HourlyCost() decimal.Decimal {
	if e.PaymentType != PaymentTypeSalary {
		return e.HourlyRate
	}
	hours := e.HoursPerWeek
	if hours <= 0 {
		hours = DefaultHoursPerWeek
	}
	return e.AnnualSalary.Div(weeksPerYear.Mul(decimal.NewFromInt(int64(hours)))).Round(2)
}

// Vendor is a supplier of materials or a subcontractor billing for work.
// The type is fixed at creation because it selects the id series.
type Vendor struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	VendorType     string    `json:"vendor_type"`
	ContactName    *string   `json:"contact_name,omitempty"`
	Email          *string   `json:"email,omitempty"`
	Phone          *string   `json:"phone,omitempty"`
	Address        *string   `json:"address,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
	Active         bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	CreatedBy      string    `json:"created_by"`
	UpdatedAt      time.Time `json:"updated_at"`
	LastModifiedBy *string   `json:"last_modified_by,omitempty"`
}

func IsVendorType(t string) bool {
	return t == VendorTypeSupplier || t == VendorTypeSubcontractor
}
