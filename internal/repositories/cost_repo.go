package repositories

import (
	"context"
	"time"

	"github.com/akc-construction/crm/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ---- Time logs ----

type TimeLogRepo struct {
	pool *pgxpool.Pool
}

func NewTimeLogRepo(pool *pgxpool.Pool) *TimeLogRepo {
	return &TimeLogRepo{pool: pool}
}

const timeLogColumns = `id, project_id, employee_id, entry_date, hours, hourly_rate, total_amount, description, created_at, created_by`

func scanTimeLog(row interface{ Scan(...any) error }, l *models.TimeLog) error {
	return row.Scan(&l.ID, &l.ProjectID, &l.EmployeeID, &l.EntryDate, &l.Hours, &l.HourlyRate, &l.TotalAmount,
		&l.Description, &l.CreatedAt, &l.CreatedBy)
}

func (r *TimeLogRepo) Create(ctx context.Context, l *models.TimeLog) error {
	return mapErr(conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO time_logs (id, project_id, employee_id, entry_date, hours, hourly_rate, total_amount, description, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, l.ID, l.ProjectID, l.EmployeeID, l.EntryDate, l.Hours, l.HourlyRate, l.TotalAmount, l.Description, l.CreatedBy,
	).Scan(&l.CreatedAt))
}

func (r *TimeLogRepo) GetByID(ctx context.Context, id string) (*models.TimeLog, error) {
	var l models.TimeLog
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+timeLogColumns+` FROM time_logs WHERE id = $1`, id)
	if err := scanTimeLog(row, &l); err != nil {
		return nil, mapErr(err)
	}
	return &l, nil
}

func (r *TimeLogRepo) Delete(ctx context.Context, id string) error {
	return requireRow(conn(ctx, r.pool).Exec(ctx, `DELETE FROM time_logs WHERE id = $1`, id))
}

type TimeLogFilter struct {
	ProjectID  string
	EmployeeID string
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}

func (r *TimeLogRepo) List(ctx context.Context, f TimeLogFilter) ([]models.TimeLog, error) {
	var w whereBuilder
	if f.ProjectID != "" {
		w.add("project_id = ?", f.ProjectID)
	}
	if f.EmployeeID != "" {
		w.add("employee_id = ?", f.EmployeeID)
	}
	if f.DateFrom != nil {
		w.add("entry_date >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		w.add("entry_date <= ?", *f.DateTo)
	}

	query := `SELECT ` + timeLogColumns + ` FROM time_logs` + w.sql() +
		` ORDER BY entry_date DESC, created_at DESC` + w.page(clampLimit(f.Limit, 50, 500), f.Offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.TimeLog{}
	for rows.Next() {
		var l models.TimeLog
		if err := scanTimeLog(rows, &l); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// SumByProject returns total hours and total labor cost.
func (r *TimeLogRepo) SumByProject(ctx context.Context, projectID string) (decimal.Decimal, decimal.Decimal, error) {
	var hours, total decimal.Decimal
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COALESCE(SUM(hours), 0), COALESCE(SUM(total_amount), 0) FROM time_logs WHERE project_id = $1
	`, projectID).Scan(&hours, &total)
	return hours, total, err
}

// ---- Materials receipts ----

type ReceiptRepo struct {
	pool *pgxpool.Pool
}

func NewReceiptRepo(pool *pgxpool.Pool) *ReceiptRepo {
	return &ReceiptRepo{pool: pool}
}

const receiptColumns = `id, project_id, receipt_date, vendor_name, invoice_number, description,
	total_amount, tax_amount, grand_total, notes, attachment_key, created_at, created_by`

func scanReceipt(row interface{ Scan(...any) error }, m *models.MaterialsReceipt) error {
	return row.Scan(&m.ID, &m.ProjectID, &m.ReceiptDate, &m.VendorName, &m.InvoiceNumber, &m.Description,
		&m.TotalAmount, &m.TaxAmount, &m.GrandTotal, &m.Notes, &m.AttachmentKey, &m.CreatedAt, &m.CreatedBy)
}

func (r *ReceiptRepo) Create(ctx context.Context, m *models.MaterialsReceipt) error {
	return mapErr(conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO materials_receipts (id, project_id, receipt_date, vendor_name, invoice_number, description,
		                                total_amount, tax_amount, grand_total, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`, m.ID, m.ProjectID, m.ReceiptDate, m.VendorName, m.InvoiceNumber, m.Description,
		m.TotalAmount, m.TaxAmount, m.GrandTotal, m.Notes, m.CreatedBy,
	).Scan(&m.CreatedAt))
}

func (r *ReceiptRepo) GetByID(ctx context.Context, id string) (*models.MaterialsReceipt, error) {
	var m models.MaterialsReceipt
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+receiptColumns+` FROM materials_receipts WHERE id = $1`, id)
	if err := scanReceipt(row, &m); err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

func (r *ReceiptRepo) SetAttachment(ctx context.Context, id, key string) error {
	return requireRow(conn(ctx, r.pool).Exec(ctx, `UPDATE materials_receipts SET attachment_key = $1 WHERE id = $2`, key, id))
}

type ReceiptFilter struct {
	ProjectID string
	Vendor    string
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	Offset    int
}

func (r *ReceiptRepo) List(ctx context.Context, f ReceiptFilter) ([]models.MaterialsReceipt, error) {
	var w whereBuilder
	if f.ProjectID != "" {
		w.add("project_id = ?", f.ProjectID)
	}
	if f.Vendor != "" {
		w.add("vendor_name ILIKE ?", likePattern(f.Vendor))
	}
	if f.DateFrom != nil {
		w.add("receipt_date >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		w.add("receipt_date <= ?", *f.DateTo)
	}

	query := `SELECT ` + receiptColumns + ` FROM materials_receipts` + w.sql() +
		` ORDER BY receipt_date DESC, created_at DESC` + w.page(clampLimit(f.Limit, 50, 500), f.Offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	receipts := []models.MaterialsReceipt{}
	for rows.Next() {
		var m models.MaterialsReceipt
		if err := scanReceipt(rows, &m); err != nil {
			return nil, err
		}
		receipts = append(receipts, m)
	}
	return receipts, rows.Err()
}

func (r *ReceiptRepo) SumByProject(ctx context.Context, projectID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COALESCE(SUM(grand_total), 0) FROM materials_receipts WHERE project_id = $1
	`, projectID).Scan(&total)
	return total, err
}

// ---- Subcontractor invoices ----

type SubInvoiceRepo struct {
	pool *pgxpool.Pool
}

func NewSubInvoiceRepo(pool *pgxpool.Pool) *SubInvoiceRepo {
	return &SubInvoiceRepo{pool: pool}
}

func (r *SubInvoiceRepo) Create(ctx context.Context, s *models.SubInvoice) error {
	return mapErr(conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO sub_invoices (id, project_id, subcontractor_id, invoice_number, amount, description, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, s.ID, s.ProjectID, s.SubcontractorID, s.InvoiceNumber, s.Amount, s.Description, s.CreatedBy,
	).Scan(&s.CreatedAt))
}

func (r *SubInvoiceRepo) ListByProject(ctx context.Context, projectID string) ([]models.SubInvoice, error) {
	return r.list(ctx, "project_id", projectID)
}

func (r *SubInvoiceRepo) ListBySubcontractor(ctx context.Context, subcontractorID string) ([]models.SubInvoice, error) {
	return r.list(ctx, "subcontractor_id", subcontractorID)
}

// list filters on column, which is one of the two constants above.
func (r *SubInvoiceRepo) list(ctx context.Context, column, value string) ([]models.SubInvoice, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, project_id, subcontractor_id, invoice_number, amount, description, created_at, created_by
		FROM sub_invoices WHERE `+column+` = $1 ORDER BY created_at DESC
	`, value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := []models.SubInvoice{}
	for rows.Next() {
		var s models.SubInvoice
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.SubcontractorID, &s.InvoiceNumber, &s.Amount, &s.Description,
			&s.CreatedAt, &s.CreatedBy); err != nil {
			return nil, err
		}
		invoices = append(invoices, s)
	}
	return invoices, rows.Err()
}

func (r *SubInvoiceRepo) SumByProject(ctx context.Context, projectID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM sub_invoices WHERE project_id = $1
	`, projectID).Scan(&total)
	return total, err
}

// ---- Estimates ----

type EstimateRepo struct {
	pool *pgxpool.Pool
}

func NewEstimateRepo(pool *pgxpool.Pool) *EstimateRepo {
	return &EstimateRepo{pool: pool}
}

const estimateColumns = `id, project_id, version, amount, status, created_at, created_by, updated_at`

func scanEstimate(row interface{ Scan(...any) error }, e *models.Estimate) error {
	return row.Scan(&e.ID, &e.ProjectID, &e.Version, &e.Amount, &e.Status, &e.CreatedAt, &e.CreatedBy, &e.UpdatedAt)
}

func (r *EstimateRepo) Create(ctx context.Context, e *models.Estimate) error {
	return mapErr(conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO estimates (id, project_id, version, amount, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, e.ID, e.ProjectID, e.Version, e.Amount, e.Status, e.CreatedBy,
	).Scan(&e.CreatedAt, &e.UpdatedAt))
}

func (r *EstimateRepo) GetByID(ctx context.Context, id string) (*models.Estimate, error) {
	var e models.Estimate
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+estimateColumns+` FROM estimates WHERE id = $1`, id)
	if err := scanEstimate(row, &e); err != nil {
		return nil, mapErr(err)
	}
	return &e, nil
}

func (r *EstimateRepo) UpdateStatus(ctx context.Context, id, from, to string) error {
	return requireRow(conn(ctx, r.pool).Exec(ctx, `
		UPDATE estimates SET status = $1, updated_at = now() WHERE id = $2 AND status = $3
	`, to, id, from))
}

func (r *EstimateRepo) MaxVersion(ctx context.Context, projectID string) (int, error) {
	var v *int
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT MAX(version) FROM estimates WHERE project_id = $1`, projectID).Scan(&v)
	if err != nil || v == nil {
		return 0, err
	}
	return *v, nil
}

func (r *EstimateRepo) ListByProject(ctx context.Context, projectID string) ([]models.Estimate, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+estimateColumns+` FROM estimates WHERE project_id = $1 ORDER BY version DESC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	estimates := []models.Estimate{}
	for rows.Next() {
		var e models.Estimate
		if err := scanEstimate(rows, &e); err != nil {
			return nil, err
		}
		estimates = append(estimates, e)
	}
	return estimates, rows.Err()
}

// LatestApproved returns the highest approved version, or ErrNotFound.
func (r *EstimateRepo) LatestApproved(ctx context.Context, projectID string) (*models.Estimate, error) {
	var e models.Estimate
	row := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+estimateColumns+` FROM estimates
		WHERE project_id = $1 AND status = $2 ORDER BY version DESC LIMIT 1
	`, projectID, models.EstimateStatusApproved)
	if err := scanEstimate(row, &e); err != nil {
		return nil, mapErr(err)
	}
	return &e, nil
}
