package repositories

import (
	"context"

	"github.com/akc-construction/crm/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EmployeeRepo struct {
	pool *pgxpool.Pool
}

func NewEmployeeRepo(pool *pgxpool.Pool) *EmployeeRepo {
	return &EmployeeRepo{pool: pool}
}

const employeeColumns = `id, name, email, position, department, payment_type, hourly_rate, annual_salary,
	hours_per_week, is_active, notes, created_at, created_by, updated_at, last_modified_by`

func scanEmployee(row interface{ Scan(...any) error }, e *models.Employee) error {
	return row.Scan(&e.ID, &e.Name, &e.Email, &e.Position, &e.Department, &e.PaymentType, &e.HourlyRate, &e.AnnualSalary,
		&e.HoursPerWeek, &e.Active, &e.Notes, &e.CreatedAt, &e.CreatedBy, &e.UpdatedAt, &e.LastModifiedBy)
}

func (r *EmployeeRepo) Create(ctx context.Context, e *models.Employee) error {
	return mapErr(conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO employees (id, name, email, position, department, payment_type, hourly_rate, annual_salary,
		                       hours_per_week, is_active, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`, e.ID, e.Name, e.Email, e.Position, e.Department, e.PaymentType, e.HourlyRate, e.AnnualSalary,
		e.HoursPerWeek, e.Active, e.Notes, e.CreatedBy,
	).Scan(&e.CreatedAt, &e.UpdatedAt))
}

func (r *EmployeeRepo) GetByID(ctx context.Context, id string) (*models.Employee, error) {
	var e models.Employee
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
	if err := scanEmployee(row, &e); err != nil {
		return nil, mapErr(err)
	}
	return &e, nil
}

// Update writes the editable fields; is_active goes through SetActive.
func (r *EmployeeRepo) Update(ctx context.Context, e *models.Employee) error {
	return mapErr(conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE employees SET name = $1, email = $2, position = $3, department = $4, payment_type = $5,
		       hourly_rate = $6, annual_salary = $7, hours_per_week = $8, notes = $9,
		       last_modified_by = $10, updated_at = now()
		WHERE id = $11
		RETURNING is_active, created_at, created_by, updated_at
	`, e.Name, e.Email, e.Position, e.Department, e.PaymentType, e.HourlyRate, e.AnnualSalary, e.HoursPerWeek, e.Notes,
		e.LastModifiedBy, e.ID,
	).Scan(&e.Active, &e.CreatedAt, &e.CreatedBy, &e.UpdatedAt))
}

func (r *EmployeeRepo) SetActive(ctx context.Context, id string, active bool, actor string) error {
	return requireRow(conn(ctx, r.pool).Exec(ctx, `
		UPDATE employees SET is_active = $1, last_modified_by = $2, updated_at = now() WHERE id = $3
	`, active, actor, id))
}

func (r *EmployeeRepo) HighestIDWithPrefix(ctx context.Context, prefix string) (string, error) {
	return highestIDWithPrefix(ctx, conn(ctx, r.pool), "employees", prefix)
}

type EmployeeFilter struct {
	Search      string
	Department  string
	PaymentType string
	Active      *bool
	Limit       int
	Offset      int
}

func (r *EmployeeRepo) List(ctx context.Context, f EmployeeFilter) ([]models.Employee, error) {
	var w whereBuilder
	if f.Search != "" {
		w.add("(name ILIKE ? OR email ILIKE ? OR position ILIKE ? OR id ILIKE ?)", likePattern(f.Search))
	}
	if f.Department != "" {
		w.add("department = ?", f.Department)
	}
	if f.PaymentType != "" {
		w.add("payment_type = ?", f.PaymentType)
	}
	if f.Active != nil {
		w.add("is_active = ?", *f.Active)
	}

	query := `SELECT ` + employeeColumns + ` FROM employees` + w.sql() +
		` ORDER BY name ASC, id ASC` + w.page(clampLimit(f.Limit, 50, 200), f.Offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := []models.Employee{}
	for rows.Next() {
		var e models.Employee
		if err := scanEmployee(rows, &e); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}
