package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Project struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	CustomerID     string    `json:"customer_id"`
	Description    *string   `json:"description,omitempty"`
	Status         string    `json:"status"`
	SiteAddress    *string   `json:"site_address,omitempty"`
	SiteCity       *string   `json:"site_city,omitempty"`
	SiteState      *string   `json:"site_state,omitempty"`
	SiteZip        *string   `json:"site_zip,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	CreatedBy      string    `json:"created_by"`
	UpdatedAt      time.Time `json:"updated_at"`
	LastModifiedBy *string   `json:"last_modified_by,omitempty"`
}

// ProjectSummary is the cost rollup shown on the project page.
type ProjectSummary struct {
	ProjectID         string           `json:"project_id"`
	Status            string           `json:"status"`
	TotalHours        decimal.Decimal  `json:"total_hours"`
	LaborCost         decimal.Decimal  `json:"labor_cost"`
	MaterialsCost     decimal.Decimal  `json:"materials_cost"`
	SubcontractorCost decimal.Decimal  `json:"subcontractor_cost"`
	TotalCost         decimal.Decimal  `json:"total_cost"`
	EstimateAmount    *decimal.Decimal `json:"estimate_amount,omitempty"`
	Variance          *decimal.Decimal `json:"variance,omitempty"` // estimate - total cost
}
