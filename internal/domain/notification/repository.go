package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines notification data access
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID int64, filter ListFilter) ([]*Notification, error)
	CountUnreadByUser(ctx context.Context, userID int64) (int, error)
	MarkAsRead(ctx context.Context, id uuid.UUID, userID int64) error
	MarkAllAsRead(ctx context.Context, userID int64) error
	DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ListFilter narrows a user's notification listing
type ListFilter struct {
	Type       Type
	UnreadOnly bool
	Limit      int
	Offset     int
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates notification repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, n *Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, type, title, message, entity_type, entity_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.UserID,
		n.Type,
		n.Title,
		n.Message,
		n.EntityType,
		n.EntityID,
		n.IsRead,
		n.CreatedAt,
	)
	return err
}

func (r *repository) ListByUser(ctx context.Context, userID int64, filter ListFilter) ([]*Notification, error) {
	query := `
		SELECT id, user_id, type, title, message, entity_type, entity_id, is_read, read_at, created_at
		FROM notifications
		WHERE user_id = $1
		  AND ($2 = '' OR type = $2)
		  AND (NOT $3 OR NOT is_read)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`
	var notifications []*Notification
	err := r.db.SelectContext(ctx, &notifications, query, userID, string(filter.Type), filter.UnreadOnly, filter.Limit, filter.Offset)
	return notifications, err
}

func (r *repository) CountUnreadByUser(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`
	var count int
	err := r.db.GetContext(ctx, &count, query, userID)
	return count, err
}

func (r *repository) MarkAsRead(ctx context.Context, id uuid.UUID, userID int64) error {
	query := `UPDATE notifications SET is_read = true, read_at = COALESCE(read_at, NOW()) WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *repository) MarkAllAsRead(ctx context.Context, userID int64) error {
	query := `UPDATE notifications SET is_read = true, read_at = NOW() WHERE user_id = $1 AND NOT is_read`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// DeleteReadOlderThan removes read notifications created before cutoff
func (r *repository) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE created_at < $1 AND is_read = true`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
