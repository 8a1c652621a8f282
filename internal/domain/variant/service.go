package variant

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/upsurge/campaign-lab/internal/domain/activity"
	"github.com/upsurge/campaign-lab/internal/domain/campaign"
	"github.com/upsurge/campaign-lab/internal/domain/notification"
	"github.com/upsurge/campaign-lab/internal/pkg/imaging"
	"github.com/upsurge/campaign-lab/internal/pkg/logger"
	"github.com/upsurge/campaign-lab/internal/pkg/metrics"
	"github.com/upsurge/campaign-lab/internal/pkg/storage"
)

// CampaignStore is what the variant service needs from campaigns
type CampaignStore interface {
	GetByID(ctx context.Context, id int64) (*campaign.Campaign, error)
	CanGenerateVariants(ctx context.Context, id int64) (campaign.RateLimitStatus, error)
	RecordGeneration(ctx context.Context, id int64) error
}

// DraftGenerator produces a batch of drafts for a campaign
type DraftGenerator interface {
	Generate(ctx context.Context, gc GenerationContext) ([]Draft, error)
}

// ImageProcessor prepares uploaded creatives
type ImageProcessor interface {
	Process(r io.Reader) (*imaging.Creative, error)
}

// Service handles variant business logic
type Service struct {
	repo      Repository
	campaigns CampaignStore
	generator DraftGenerator
	notifier  notification.Notifier
	recorder  activity.Recorder
	images    ImageProcessor
	store     storage.Storage
	config    OptimizationConfig
	now       func() time.Time
}

// NewService creates variant service
func NewService(
	repo Repository,
	campaigns CampaignStore,
	generator DraftGenerator,
	notifier notification.Notifier,
	recorder activity.Recorder,
) *Service {
	return &Service{
		repo:      repo,
		campaigns: campaigns,
		generator: generator,
		notifier:  notifier,
		recorder:  recorder,
		config:    DefaultOptimizationConfig(),
		now:       time.Now,
	}
}

// WithCreatives enables creative image uploads
func (s *Service) WithCreatives(images ImageProcessor, store storage.Storage) *Service {
	s.images = images
	s.store = store
	return s
}

// Config returns the thresholds in use
func (s *Service) Config() OptimizationConfig {
	return s.config
}

// GenerateOutcome is either drafts or a rate-limit denial
type GenerateOutcome struct {
	RateLimit campaign.RateLimitStatus
	Drafts    []Draft
}

// GenerateVariants checks the rate limit and, when allowed, generates drafts.
// Nothing is persisted.
func (s *Service) GenerateVariants(ctx context.Context, campaignID int64, extra GenerationContext) (*GenerateOutcome, error) {
	status, err := s.campaigns.CanGenerateVariants(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if !status.Allowed {
		return &GenerateOutcome{RateLimit: status}, nil
	}

	c, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	gc := extra
	gc.CampaignName = c.Name
	gc.Goal = c.Goal
	if gc.TargetAudience == "" {
		gc.TargetAudience = c.TargetAudience.String
	}
	if gc.Budget == "" {
		gc.Budget = c.Budget.String
	}
	if gc.Platforms == "" {
		gc.Platforms = c.Platforms.String
	}

	drafts, err := s.generator.Generate(ctx, gc)
	if err != nil {
		return nil, err
	}
	return &GenerateOutcome{RateLimit: status, Drafts: drafts}, nil
}

// SaveDraft is a draft as submitted for persistence
type SaveDraft struct {
	Name               string
	PsychologicalAngle string
	AdCopy             string
	ImagePrompt        string
}

// SaveVariants persists the batch and then records the generation on the campaign
func (s *Service) SaveVariants(ctx context.Context, campaignID int64, drafts []SaveDraft) ([]int64, error) {
	if len(drafts) == 0 {
		return nil, ErrNoDrafts
	}

	now := s.now()
	variants := make([]*Variant, len(drafts))
	for i, d := range drafts {
		variants[i] = &Variant{
			CampaignID:         campaignID,
			Name:               d.Name,
			PsychologicalAngle: d.PsychologicalAngle,
			AdCopy:             d.AdCopy,
			ImagePrompt:        sql.NullString{String: d.ImagePrompt, Valid: d.ImagePrompt != ""},
			CTR:                formatRate(0),
			ConversionRate:     formatRate(0),
			Status:             StatusTesting,
			ApprovalStatus:     ApprovalPending,
			DeploymentStatus:   DeploymentNotDeployed,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
	}

	// The generation is charged before the insert so a failed bookkeeping
	// write can never leave saved variants uncounted.
	if err := s.campaigns.RecordGeneration(ctx, campaignID); err != nil {
		return nil, err
	}
	if err := s.repo.CreateBatch(ctx, variants); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Int64("campaign_id", campaignID).
			Msg("Variant insert failed after generation was recorded")
		return nil, err
	}

	ids := make([]int64, len(variants))
	for i, v := range variants {
		ids[i] = v.ID
		metrics.IncVariantsGenerated(v.PsychologicalAngle)
	}

	logger.FromContext(ctx).Info().Int64("campaign_id", campaignID).Int("variants", len(ids)).Msg("Variants saved")
	return ids, nil
}

// GetByID returns a variant
func (s *Service) GetByID(ctx context.Context, id int64) (*Variant, error) {
	return s.repo.GetByID(ctx, id)
}

// ListVariants returns a campaign's variants matching filter
func (s *Service) ListVariants(ctx context.Context, campaignID int64, filter Filter) ([]*Variant, error) {
	_, variants, err := s.loadCampaign(ctx, campaignID, filter)
	return variants, err
}

// loadCampaign reads the campaign and its variants concurrently
func (s *Service) loadCampaign(ctx context.Context, campaignID int64, filter Filter) (*campaign.Campaign, []*Variant, error) {
	var (
		c        *campaign.Campaign
		variants []*Variant
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		c, err = s.campaigns.GetByID(gctx, campaignID)
		return err
	})
	g.Go(func() error {
		var err error
		variants, err = s.repo.ListByCampaign(gctx, campaignID, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return c, variants, nil
}

// RecordCounters applies delivery counter increments
func (s *Service) RecordCounters(ctx context.Context, variantID int64, delta Counters) (*Variant, error) {
	if delta.Impressions < 0 || delta.Clicks < 0 || delta.Conversions < 0 || delta.Cost < 0 {
		return nil, ErrInvalidCounters
	}
	return s.repo.AddCounters(ctx, variantID, delta, s.now())
}

// Summary is the scored view of a whole campaign
type Summary struct {
	Variants []ScoredVariant
	Totals   Counters
	Overall  Metrics
}

// GetCampaignSummary scores every variant and the campaign totals with the same scorer
func (s *Service) GetCampaignSummary(ctx context.Context, campaignID int64) (*Summary, error) {
	_, variants, err := s.loadCampaign(ctx, campaignID, Filter{})
	if err != nil {
		return nil, err
	}

	summary := &Summary{Variants: make([]ScoredVariant, len(variants))}
	for i, v := range variants {
		summary.Variants[i] = ScoredVariant{Variant: v, Metrics: Score(v.Counters())}
		summary.Totals = summary.Totals.Add(v.Counters())
	}
	summary.Overall = Score(summary.Totals)
	return summary, nil
}

// UploadCreative processes an image, stores both renditions and sets the feed image as imageUrl
func (s *Service) UploadCreative(ctx context.Context, variantID int64, r io.Reader) (*Variant, error) {
	if s.images == nil || s.store == nil {
		return nil, ErrCreativesOff
	}

	v, err := s.repo.GetByID(ctx, variantID)
	if err != nil {
		return nil, err
	}

	creative, err := s.images.Process(r)
	if err != nil {
		return nil, err
	}

	feedKey, squareKey := imaging.CreativePaths(v.CampaignID, v.ID, uuid.NewString(), creative.Extension)
	if err := s.store.Put(ctx, feedKey, bytes.NewReader(creative.Feed), creative.ContentType); err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, squareKey, bytes.NewReader(creative.Square), creative.ContentType); err != nil {
		_ = s.store.Delete(ctx, feedKey)
		return nil, err
	}

	url := s.store.GetURL(feedKey)
	now := s.now()
	if err := s.repo.UpdateImage(ctx, v.ID, url, now); err != nil {
		return nil, err
	}

	v.ImageURL = sql.NullString{String: url, Valid: true}
	v.UpdatedAt = now
	logger.FromContext(ctx).Info().Int64("variant_id", v.ID).Str("key", feedKey).Msg("Creative uploaded")
	return v, nil
}
