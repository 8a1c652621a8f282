package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/upsurge/campaign-lab/internal/pkg/logger"
)

// Recorder is the fire-and-forget audit log
type Recorder interface {
	Record(ctx context.Context, rec Record)
}

// Queue is the subset of the outbox a Recorder needs
type Queue interface {
	Enqueue(kind string, run func(ctx context.Context) error)
}

// Service writes and reads audit entries
type Service struct {
	repo Repository
}

// NewService creates activity service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Write persists rec synchronously
func (s *Service) Write(ctx context.Context, rec Record) error {
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("encode activity metadata: %w", err)
	}

	return s.repo.Create(ctx, &Entry{
		ID:          uuid.New(),
		UserID:      rec.UserID,
		Action:      rec.Action,
		EntityType:  rec.EntityType,
		EntityID:    rec.EntityID,
		Description: rec.Description,
		Metadata:    metadata,
		CreatedAt:   time.Now(),
	})
}

// ListByEntity returns the newest entries for an entity
func (s *Service) ListByEntity(ctx context.Context, entityType string, entityID int64, limit int) ([]*Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListByEntity(ctx, entityType, entityID, limit)
}

// BestEffortRecorder writes audit entries off the request path
type BestEffortRecorder struct {
	service *Service
	queue   Queue
}

// NewRecorder creates a recorder backed by service and drained by queue
func NewRecorder(service *Service, queue Queue) *BestEffortRecorder {
	return &BestEffortRecorder{service: service, queue: queue}
}

// Record enqueues rec and returns immediately
func (r *BestEffortRecorder) Record(ctx context.Context, rec Record) {
	logger.FromContext(ctx).Debug().
		Str("action", rec.Action).
		Str("entity_type", rec.EntityType).
		Int64("entity_id", rec.EntityID).
		Msg("Queueing activity entry")

	r.queue.Enqueue("activity", func(ctx context.Context) error {
		return r.service.Write(ctx, rec)
	})
}
