package repositories

import (
	"context"

	"github.com/akc-construction/crm/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProjectRepo struct {
	pool *pgxpool.Pool
}

func NewProjectRepo(pool *pgxpool.Pool) *ProjectRepo {
	return &ProjectRepo{pool: pool}
}

const projectColumns = `id, name, customer_id, description, status, site_address, site_city, site_state, site_zip,
	created_at, created_by, updated_at, last_modified_by`

func scanProject(row interface{ Scan(...any) error }, p *models.Project) error {
	return row.Scan(&p.ID, &p.Name, &p.CustomerID, &p.Description, &p.Status,
		&p.SiteAddress, &p.SiteCity, &p.SiteState, &p.SiteZip,
		&p.CreatedAt, &p.CreatedBy, &p.UpdatedAt, &p.LastModifiedBy)
}

func (r *ProjectRepo) Create(ctx context.Context, p *models.Project) error {
	err := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO projects (id, name, customer_id, description, status, site_address, site_city, site_state, site_zip, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, p.ID, p.Name, p.CustomerID, p.Description, p.Status, p.SiteAddress, p.SiteCity, p.SiteState, p.SiteZip, p.CreatedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return mapErr(err)
}

func (r *ProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	if err := scanProject(row, &p); err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

// Update writes the editable fields and reloads the columns it does not own,
// so p reflects the row as committed even if its status moved meanwhile.
func (r *ProjectRepo) Update(ctx context.Context, p *models.Project) error {
	return mapErr(conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE projects SET name = $1, customer_id = $2, description = $3, site_address = $4,
		       site_city = $5, site_state = $6, site_zip = $7, last_modified_by = $8, updated_at = now()
		WHERE id = $9
		RETURNING status, created_at, created_by, updated_at
	`, p.Name, p.CustomerID, p.Description, p.SiteAddress, p.SiteCity, p.SiteState, p.SiteZip, p.LastModifiedBy, p.ID,
	).Scan(&p.Status, &p.CreatedAt, &p.CreatedBy, &p.UpdatedAt))
}

// UpdateStatus moves the project from one status to another. It returns
// ErrNotFound when the row is missing or no longer in status from.
func (r *ProjectRepo) UpdateStatus(ctx context.Context, id, from, to, actor string) error {
	return requireRow(conn(ctx, r.pool).Exec(ctx, `
		UPDATE projects SET status = $1, last_modified_by = $2, updated_at = now() WHERE id = $3 AND status = $4
	`, to, actor, id, from))
}

func (r *ProjectRepo) HighestIDWithPrefix(ctx context.Context, prefix string) (string, error) {
	return highestIDWithPrefix(ctx, conn(ctx, r.pool), "projects", prefix)
}

type ProjectFilter struct {
	Search     string
	Status     string
	CustomerID string
	Sort       string
	Limit      int
	Offset     int
}

var projectSortColumns = map[string]string{
	"id":          "id",
	"name":        "name",
	"status":      "status",
	"customer_id": "customer_id",
	"created_at":  "created_at",
	"updated_at":  "updated_at",
}

func (r *ProjectRepo) List(ctx context.Context, f ProjectFilter) ([]models.Project, error) {
	var w whereBuilder
	if f.Search != "" {
		w.add("(name ILIKE ? OR description ILIKE ? OR site_city ILIKE ? OR id ILIKE ?)", likePattern(f.Search))
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	if f.CustomerID != "" {
		w.add("customer_id = ?", f.CustomerID)
	}

	query := `SELECT ` + projectColumns + ` FROM projects` + w.sql() +
		orderBy(f.Sort, projectSortColumns, "created_at DESC") +
		w.page(clampLimit(f.Limit, 20, 100), f.Offset)

	rows, err := conn(ctx, r.pool).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var p models.Project
		if err := scanProject(rows, &p); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
