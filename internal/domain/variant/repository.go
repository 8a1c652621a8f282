package variant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/upsurge/campaign-lab/internal/domain/campaign"
)

// Filter narrows a campaign's variant listing; zero values match everything
type Filter struct {
	Statuses   []Status
	Approval   ApprovalStatus
	Deployment DeploymentStatus
}

// Matches applies the filter in memory
func (f Filter) Matches(v *Variant) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if v.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Approval != "" && v.ApprovalStatus != f.Approval {
		return false
	}
	if f.Deployment != "" && v.DeploymentStatus != f.Deployment {
		return false
	}
	return true
}

// Repository defines variant data access
type Repository interface {
	CreateBatch(ctx context.Context, variants []*Variant) error
	GetByID(ctx context.Context, id int64) (*Variant, error)
	ListByCampaign(ctx context.Context, campaignID int64, filter Filter) ([]*Variant, error)
	UpdateStatus(ctx context.Context, id int64, status Status, at time.Time) error
	UpdateLifecycle(ctx context.Context, v *Variant) error
	AddCounters(ctx context.Context, id int64, delta Counters, at time.Time) (*Variant, error)
	UpdateImage(ctx context.Context, id int64, imageURL string, at time.Time) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates variant repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const variantColumns = `id, campaign_id, name, psychological_angle, ad_copy, image_url, image_prompt,
	impressions, clicks, conversions, cost, ctr, conversion_rate,
	status, approval_status, deployment_status, deployed_at, paused_at, created_at, updated_at`

// CreateBatch inserts all variants in one transaction and fills their IDs
func (r *repository) CreateBatch(ctx context.Context, variants []*Variant) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin variant batch: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO campaign_variants (
			campaign_id, name, psychological_angle, ad_copy, image_url, image_prompt,
			impressions, clicks, conversions, cost, ctr, conversion_rate,
			status, approval_status, deployment_status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`
	for _, v := range variants {
		err := tx.QueryRowxContext(ctx, query,
			v.CampaignID,
			v.Name,
			v.PsychologicalAngle,
			v.AdCopy,
			v.ImageURL,
			v.ImagePrompt,
			v.Impressions,
			v.Clicks,
			v.Conversions,
			v.Cost,
			v.CTR,
			v.ConversionRate,
			v.Status,
			v.ApprovalStatus,
			v.DeploymentStatus,
			v.CreatedAt,
			v.UpdatedAt,
		).Scan(&v.ID)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23503" {
				return campaign.ErrCampaignNotFound
			}
			return fmt.Errorf("insert variant %q: %w", v.Name, err)
		}
	}

	return tx.Commit()
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Variant, error) {
	var v Variant
	err := r.db.GetContext(ctx, &v, `SELECT `+variantColumns+` FROM campaign_variants WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVariantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get variant %d: %w", id, err)
	}
	return &v, nil
}

func (r *repository) ListByCampaign(ctx context.Context, campaignID int64, filter Filter) ([]*Variant, error) {
	conditions := []string{"campaign_id = $1"}
	args := []interface{}{campaignID}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		args = append(args, pq.Array(statuses))
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.Approval != "" {
		args = append(args, filter.Approval)
		conditions = append(conditions, fmt.Sprintf("approval_status = $%d", len(args)))
	}
	if filter.Deployment != "" {
		args = append(args, filter.Deployment)
		conditions = append(conditions, fmt.Sprintf("deployment_status = $%d", len(args)))
	}

	query := `SELECT ` + variantColumns + ` FROM campaign_variants WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY id`

	var variants []*Variant
	if err := r.db.SelectContext(ctx, &variants, query, args...); err != nil {
		return nil, fmt.Errorf("list variants for campaign %d: %w", campaignID, err)
	}
	return variants, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE campaign_variants SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, at)
	if err != nil {
		return fmt.Errorf("update variant %d status: %w", id, err)
	}
	return requireRow(result)
}

// UpdateLifecycle writes the approval and deployment axes of v
func (r *repository) UpdateLifecycle(ctx context.Context, v *Variant) error {
	query := `
		UPDATE campaign_variants SET
			approval_status = $2,
			deployment_status = $3,
			deployed_at = $4,
			paused_at = $5,
			updated_at = $6
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		v.ID,
		v.ApprovalStatus,
		v.DeploymentStatus,
		v.DeployedAt,
		v.PausedAt,
		v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update variant %d lifecycle: %w", v.ID, err)
	}
	return requireRow(result)
}

// AddCounters locks the row, applies delta and rewrites the cached rates
func (r *repository) AddCounters(ctx context.Context, id int64, delta Counters, at time.Time) (*Variant, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin counter update: %w", err)
	}
	defer tx.Rollback()

	var v Variant
	err = tx.GetContext(ctx, &v, `SELECT `+variantColumns+` FROM campaign_variants WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVariantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock variant %d: %w", id, err)
	}

	ApplyCounters(&v, delta, at)

	_, err = tx.ExecContext(ctx, `
		UPDATE campaign_variants SET
			impressions = $2, clicks = $3, conversions = $4, cost = $5,
			ctr = $6, conversion_rate = $7, updated_at = $8
		WHERE id = $1
	`, v.ID, v.Impressions, v.Clicks, v.Conversions, v.Cost, v.CTR, v.ConversionRate, v.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update variant %d counters: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *repository) UpdateImage(ctx context.Context, id int64, imageURL string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE campaign_variants SET image_url = $2, updated_at = $3 WHERE id = $1`,
		id, imageURL, at)
	if err != nil {
		return fmt.Errorf("update variant %d image: %w", id, err)
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrVariantNotFound
	}
	return nil
}
