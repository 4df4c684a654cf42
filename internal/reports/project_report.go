// Package reports renders project cost workbooks.
package reports

import (
	"fmt"

	"github.com/akc-construction/crm/internal/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Sheet names
const (
	SheetSummary        = "Summary"
	SheetLabor          = "Labor"
	SheetMaterials      = "Materials"
	SheetSubcontractors = "Subcontractors"
	SheetEstimates      = "Estimates"
)

const dateLayout = "2006-01-02"

type ProjectReport struct {
	Project     models.Project
	Summary     models.ProjectSummary
	TimeLogs    []models.TimeLog
	Receipts    []models.MaterialsReceipt
	SubInvoices []models.SubInvoice
	Estimates   []models.Estimate
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// BuildProjectReport lays out one sheet for the rollup and one per cost module.
func BuildProjectReport(r ProjectReport) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	s := r.Summary
	summary := [][]any{
		{"Field", "Value"},
		{"Project ID", r.Project.ID},
		{"Project", r.Project.Name},
		{"Customer ID", r.Project.CustomerID},
		{"Status", r.Project.Status},
		{"Total Hours", s.TotalHours.InexactFloat64()},
		{"Labor Cost", money(s.LaborCost)},
		{"Materials Cost", money(s.MaterialsCost)},
		{"Subcontractor Cost", money(s.SubcontractorCost)},
		{"Total Cost", money(s.TotalCost)},
	}
	if s.EstimateAmount != nil {
		summary = append(summary, []any{"Approved Estimate", money(*s.EstimateAmount)})
	}
	if s.Variance != nil {
		summary = append(summary, []any{"Variance", money(*s.Variance)})
	}

	labor := [][]any{{"ID", "Date", "Employee", "Hours", "Rate", "Total", "Description"}}
	for _, l := range r.TimeLogs {
		labor = append(labor, []any{
			l.ID, l.EntryDate.Format(dateLayout), l.EmployeeID,
			l.Hours.InexactFloat64(), money(l.HourlyRate), money(l.TotalAmount), optional(l.Description),
		})
	}

	materials := [][]any{{"ID", "Date", "Vendor", "Invoice", "Amount", "Tax", "Grand Total", "Attachment"}}
	for _, m := range r.Receipts {
		materials = append(materials, []any{
			m.ID, m.ReceiptDate.Format(dateLayout), m.VendorName, optional(m.InvoiceNumber),
			money(m.TotalAmount), money(m.TaxAmount), money(m.GrandTotal), optional(m.AttachmentKey),
		})
	}

	subs := [][]any{{"ID", "Subcontractor", "Invoice", "Amount", "Description"}}
	for _, inv := range r.SubInvoices {
		subs = append(subs, []any{
			inv.ID, inv.SubcontractorID, optional(inv.InvoiceNumber), money(inv.Amount), optional(inv.Description),
		})
	}

	estimates := [][]any{{"ID", "Version", "Amount", "Status", "Created"}}
	for _, e := range r.Estimates {
		estimates = append(estimates, []any{e.ID, e.Version, money(e.Amount), e.Status, e.CreatedAt.Format(dateLayout)})
	}

	sheets := []struct {
		name string
		rows [][]any
	}{
		{SheetSummary, summary},
		{SheetLabor, labor},
		{SheetMaterials, materials},
		{SheetSubcontractors, subs},
		{SheetEstimates, estimates},
	}
	for _, sh := range sheets {
		if sh.name != SheetSummary {
			if _, err := f.NewSheet(sh.name); err != nil {
				return nil, err
			}
		}
		if err := writeRows(f, sh.name, sh.rows); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sh.name, err)
		}
		if err := f.SetRowStyle(sh.name, 1, 1, headerStyle); err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sh.name, "A", "A", 28); err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sh.name, "B", "H", 16); err != nil {
			return nil, err
		}
	}

	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return err
			}
		}
	}
	return nil
}
