package repositories

import (
	"context"

	"github.com/akc-construction/crm/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ActivityRepo struct {
	pool *pgxpool.Pool
}

func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

const activityColumns = `id, action, actor_email, module_type, reference_id, status, previous_status,
	details_json, created_at, published_at`

func scanActivity(row interface{ Scan(...any) error }, l *models.ActivityLog) error {
	var details []byte
	if err := row.Scan(&l.ID, &l.Action, &l.ActorEmail, &l.ModuleType, &l.ReferenceID, &l.Status, &l.PreviousStatus,
		&details, &l.CreatedAt, &l.PublishedAt); err != nil {
		return err
	}
	l.DetailsJSON = details
	return nil
}

func (r *ActivityRepo) Insert(ctx context.Context, entry *models.ActivityLog) error {
	var details any
	if len(entry.DetailsJSON) > 0 {
		details = string(entry.DetailsJSON)
	}
	return conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO activity_log (action, actor_email, module_type, reference_id, status, previous_status, details_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
		RETURNING id, created_at
	`, entry.Action, entry.ActorEmail, entry.ModuleType, entry.ReferenceID, entry.Status, entry.PreviousStatus, details,
	).Scan(&entry.ID, &entry.CreatedAt)
}

type ActivityFilter struct {
	ModuleType  string
	ReferenceID string
	ActorEmail  string
	Limit       int
	Offset      int
}

func (r *ActivityRepo) List(ctx context.Context, f ActivityFilter) ([]models.ActivityLog, error) {
	var w whereBuilder
	if f.ModuleType != "" {
		w.add("module_type = ?", f.ModuleType)
	}
	if f.ReferenceID != "" {
		w.add("reference_id = ?", f.ReferenceID)
	}
	if f.ActorEmail != "" {
		w.add("actor_email = ?", f.ActorEmail)
	}

	query := `SELECT ` + activityColumns + ` FROM activity_log` + w.sql() +
		` ORDER BY created_at DESC` + w.page(clampLimit(f.Limit, 50, 200), f.Offset)

	return r.query(ctx, query, w.args...)
}

// ListUnpublished returns outbox entries oldest first.
func (r *ActivityRepo) ListUnpublished(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	return r.query(ctx, `
		SELECT `+activityColumns+` FROM activity_log
		WHERE published_at IS NULL ORDER BY created_at ASC LIMIT $1
	`, limit)
}

func (r *ActivityRepo) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE activity_log SET published_at = now() WHERE id = ANY($1) AND published_at IS NULL
	`, ids)
	return err
}

func (r *ActivityRepo) query(ctx context.Context, sql string, args ...any) ([]models.ActivityLog, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.ActivityLog{}
	for rows.Next() {
		var l models.ActivityLog
		if err := scanActivity(rows, &l); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
