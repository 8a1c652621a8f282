package activity

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Repository defines activity log data access
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	ListByEntity(ctx context.Context, entityType string, entityID int64, limit int) ([]*Entry, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates activity repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, e *Entry) error {
	query := `
		INSERT INTO activity_logs (id, user_id, action, entity_type, entity_id, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.UserID,
		e.Action,
		e.EntityType,
		e.EntityID,
		e.Description,
		e.Metadata,
		e.CreatedAt,
	)
	return err
}

func (r *repository) ListByEntity(ctx context.Context, entityType string, entityID int64, limit int) ([]*Entry, error) {
	query := `
		SELECT id, user_id, action, entity_type, entity_id, description, metadata, created_at
		FROM activity_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`
	var entries []*Entry
	err := r.db.SelectContext(ctx, &entries, query, entityType, entityID, limit)
	return entries, err
}
