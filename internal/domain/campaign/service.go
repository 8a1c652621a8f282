package campaign

import (
	"context"
	"database/sql"
	"time"

	"github.com/upsurge/campaign-lab/internal/pkg/logger"
	"github.com/upsurge/campaign-lab/internal/pkg/metrics"
)

// Service handles campaign business logic
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates campaign service
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create creates a new campaign owned by userID
func (s *Service) Create(ctx context.Context, userID int64, req *CreateRequest) (*Campaign, error) {
	now := s.now()
	c := &Campaign{
		UserID:         userID,
		Name:           req.Name,
		Goal:           req.Goal,
		TargetAudience: sql.NullString{String: req.TargetAudience, Valid: req.TargetAudience != ""},
		Budget:         sql.NullString{String: req.Budget, Valid: req.Budget != ""},
		Platforms:      sql.NullString{String: req.Platforms, Valid: req.Platforms != ""},
		Status:         StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.Status != "" {
		c.Status = Status(req.Status)
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info().Int64("campaign_id", c.ID).Int64("user_id", userID).Msg("Campaign created")
	return c, nil
}

// GetByID returns campaign by ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Campaign, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByUser returns campaigns owned by userID
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*Campaign, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListActive returns campaigns the optimizer should visit
func (s *Service) ListActive(ctx context.Context) ([]*Campaign, error) {
	return s.repo.ListActive(ctx)
}

// CanGenerateVariants reports whether a new batch may be generated now. Denial is a value, not an error.
func (s *Service) CanGenerateVariants(ctx context.Context, campaignID int64) (RateLimitStatus, error) {
	c, err := s.repo.GetByID(ctx, campaignID)
	if err != nil {
		return RateLimitStatus{}, err
	}

	status := CanGenerate(c, s.now())
	if !status.Allowed {
		metrics.IncGenerationDenied(status.Code)
		logger.FromContext(ctx).Info().
			Int64("campaign_id", campaignID).
			Str("reason", status.Code).
			Msg("Variant generation rate limited")
	}
	return status, nil
}

// RecordGeneration charges one generation against the campaign before its batch is inserted
func (s *Service) RecordGeneration(ctx context.Context, campaignID int64) error {
	return s.repo.RecordGeneration(ctx, campaignID, s.now())
}
