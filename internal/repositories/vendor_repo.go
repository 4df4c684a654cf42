package repositories

import (
	"context"

	"github.com/akc-construction/crm/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VendorRepo stores suppliers and subcontractors in one table.
type VendorRepo struct {
	pool *pgxpool.Pool
}

func NewVendorRepo(pool *pgxpool.Pool) *VendorRepo {
	return &VendorRepo{pool: pool}
}

const vendorColumns = `id, name, vendor_type, contact_name, email, phone, address, notes, is_active,
	created_at, created_by, updated_at, last_modified_by`

func scanVendor(row interface{ Scan(...any) error }, v *models.Vendor) error {
	return row.Scan(&v.ID, &v.Name, &v.VendorType, &v.ContactName, &v.Email, &v.Phone, &v.Address, &v.Notes, &v.Active,
		&v.CreatedAt, &v.CreatedBy, &v.UpdatedAt, &v.LastModifiedBy)
}

func (r *VendorRepo) Create(ctx context.Context, v *models.Vendor) error {
	return mapErr(conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO vendors (id, name, vendor_type, contact_name, email, phone, address, notes, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, v.ID, v.Name, v.VendorType, v.ContactName, v.Email, v.Phone, v.Address, v.Notes, v.Active, v.CreatedBy,
	).Scan(&v.CreatedAt, &v.UpdatedAt))
}

func (r *VendorRepo) GetByID(ctx context.Context, id string) (*models.Vendor, error) {
	var v models.Vendor
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+vendorColumns+` FROM vendors WHERE id = $1`, id)
	if err := scanVendor(row, &v); err != nil {
		return nil, mapErr(err)
	}
	return &v, nil
}

// Update writes the contact fields. vendor_type and is_active are read back.
func (r *VendorRepo) Update(ctx context.Context, v *models.Vendor) error {
	return mapErr(conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE vendors SET name = $1, contact_name = $2, email = $3, phone = $4, address = $5, notes = $6,
		       last_modified_by = $7, updated_at = now()
		WHERE id = $8
		RETURNING vendor_type, is_active, created_at, created_by, updated_at
	`, v.Name, v.ContactName, v.Email, v.Phone, v.Address, v.Notes, v.LastModifiedBy, v.ID,
	).Scan(&v.VendorType, &v.Active, &v.CreatedAt, &v.CreatedBy, &v.UpdatedAt))
}

func (r *VendorRepo) SetActive(ctx context.Context, id string, active bool, actor string) error {
	return requireRow(conn(ctx, r.pool).Exec(ctx, `
		UPDATE vendors SET is_active = $1, last_modified_by = $2, updated_at = now() WHERE id = $3
	`, active, actor, id))
}

func (r *VendorRepo) HighestIDWithPrefix(ctx context.Context, prefix string) (string, error) {
	return highestIDWithPrefix(ctx, conn(ctx, r.pool), "vendors", prefix)
}

type VendorFilter struct {
	Search string
	Type   string
	Active *bool
	Limit  int
	Offset int
}

func (r *VendorRepo) List(ctx context.Context, f VendorFilter) ([]models.Vendor, error) {
	var w whereBuilder
	if f.Search != "" {
		w.add("(name ILIKE ? OR contact_name ILIKE ? OR email ILIKE ? OR id ILIKE ?)", likePattern(f.Search))
	}
	if f.Type != "" {
		w.add("vendor_type = ?", f.Type)
	}
	if f.Active != nil {
		w.add("is_active = ?", *f.Active)
	}

	query := `SELECT ` + vendorColumns + ` FROM vendors` + w.sql() +
		` ORDER BY name ASC, id ASC` + w.page(clampLimit(f.Limit, 50, 200), f.Offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vendors := []models.Vendor{}
	for rows.Next() {
		var v models.Vendor
		if err := scanVendor(rows, &v); err != nil {
			return nil, err
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}
