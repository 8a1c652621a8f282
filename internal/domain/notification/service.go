package notification

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Service handles notification logic
type Service struct {
	repo Repository
}

// NewService creates notification service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create persists a notification for an event
func (s *Service) Create(ctx context.Context, e Event) (*Notification, error) {
	n := &Notification{
		ID:        uuid.New(),
		UserID:    e.UserID,
		Type:      e.Type,
		Title:     e.Title,
		Message:   e.Message,
		CreatedAt: time.Now(),
	}
	if e.EntityType != "" {
		n.EntityType = sql.NullString{String: e.EntityType, Valid: true}
		n.EntityID = sql.NullInt64{Int64: e.EntityID, Valid: true}
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// List returns notifications for user, newest first
func (s *Service) List(ctx context.Context, userID int64, filter ListFilter) ([]*Notification, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.ListByUser(ctx, userID, filter)
}

// GetUnreadCount returns unread count
func (s *Service) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.CountUnreadByUser(ctx, userID)
}

// MarkAsRead marks single notification as read
func (s *Service) MarkAsRead(ctx context.Context, id uuid.UUID, userID int64) error {
	return s.repo.MarkAsRead(ctx, id, userID)
}

// MarkAllAsRead marks all notifications as read
func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}
