package repositories

import (
	"context"

	"github.com/akc-construction/crm/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CustomerRepo struct {
	pool *pgxpool.Pool
}

func NewCustomerRepo(pool *pgxpool.Pool) *CustomerRepo {
	return &CustomerRepo{pool: pool}
}

const customerColumns = `id, name, address, city, state, zip, contact_email, phone, status,
	created_at, created_by, updated_at, last_modified_by`

func scanCustomer(row interface{ Scan(...any) error }, c *models.Customer) error {
	return row.Scan(&c.ID, &c.Name, &c.Address, &c.City, &c.State, &c.Zip, &c.ContactEmail, &c.Phone, &c.Status,
		&c.CreatedAt, &c.CreatedBy, &c.UpdatedAt, &c.LastModifiedBy)
}

func (r *CustomerRepo) Create(ctx context.Context, c *models.Customer) error {
	err := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO customers (id, name, address, city, state, zip, contact_email, phone, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, c.ID, c.Name, c.Address, c.City, c.State, c.Zip, c.ContactEmail, c.Phone, c.Status, c.CreatedBy,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return mapErr(err)
}

func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	var c models.Customer
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	if err := scanCustomer(row, &c); err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

// Update writes the editable fields; status goes through UpdateStatus and is
// read back here.
func (r *CustomerRepo) Update(ctx context.Context, c *models.Customer) error {
	return mapErr(conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE customers SET name = $1, address = $2, city = $3, state = $4, zip = $5,
		       contact_email = $6, phone = $7, last_modified_by = $8, updated_at = now()
		WHERE id = $9
		RETURNING status, created_at, created_by, updated_at
	`, c.Name, c.Address, c.City, c.State, c.Zip, c.ContactEmail, c.Phone, c.LastModifiedBy, c.ID,
	).Scan(&c.Status, &c.CreatedAt, &c.CreatedBy, &c.UpdatedAt))
}

// UpdateStatus is a compare-and-set on status; see ProjectRepo.UpdateStatus.
func (r *CustomerRepo) UpdateStatus(ctx context.Context, id, from, to, actor string) error {
	return requireRow(conn(ctx, r.pool).Exec(ctx, `
		UPDATE customers SET status = $1, last_modified_by = $2, updated_at = now() WHERE id = $3 AND status = $4
	`, to, actor, id, from))
}

// HighestIDWithPrefix returns the greatest id starting with prefix, or "" if none.
func (r *CustomerRepo) HighestIDWithPrefix(ctx context.Context, prefix string) (string, error) {
	return highestIDWithPrefix(ctx, conn(ctx, r.pool), "customers", prefix)
}

type CustomerFilter struct {
	Search string
	Status string
	Sort   string // column name, "-" prefix for descending
	Limit  int
	Offset int
}

var customerSortColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"city":       "city",
	"status":     "status",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

func (r *CustomerRepo) List(ctx context.Context, f CustomerFilter) ([]models.Customer, error) {
	var w whereBuilder
	if f.Search != "" {
		w.add("(name ILIKE ? OR city ILIKE ? OR contact_email ILIKE ? OR id ILIKE ?)", likePattern(f.Search))
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}

	query := `SELECT ` + customerColumns + ` FROM customers` + w.sql() +
		orderBy(f.Sort, customerSortColumns, "name ASC") +
		w.page(clampLimit(f.Limit, 20, 100), f.Offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []models.Customer{}
	for rows.Next() {
		var c models.Customer
		if err := scanCustomer(rows, &c); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// highestIDWithPrefix returns the id with the greatest numeric suffix after
// prefix. Ids whose suffix is not all digits are ignored.
func highestIDWithPrefix(ctx context.Context, db DBTX, table, prefix string) (string, error) {
	var id string
	err := db.QueryRow(ctx, `
		SELECT id FROM `+table+` WHERE id LIKE $1 ESCAPE '\' AND id ~ $2
		ORDER BY length(id) DESC, id DESC LIMIT 1
	`, escapeLike(prefix)+"%", sequencePattern(prefix)).Scan(&id)
	if err != nil {
		if err = mapErr(err); err == ErrNotFound {
			return "", nil
		}
		return "", err
	}
	return id, nil
}
