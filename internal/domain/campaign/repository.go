package campaign

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Repository defines campaign data access
type Repository interface {
	Create(ctx context.Context, c *Campaign) error
	GetByID(ctx context.Context, id int64) (*Campaign, error)
	ListByUser(ctx context.Context, userID int64) ([]*Campaign, error)
	ListActive(ctx context.Context) ([]*Campaign, error)
	RecordGeneration(ctx context.Context, id int64, at time.Time) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates campaign repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const campaignColumns = `id, user_id, name, goal, target_audience, budget, platforms, status,
	last_variant_generated_at, variant_generation_count, created_at, updated_at`

func (r *repository) Create(ctx context.Context, c *Campaign) error {
	query := `
		INSERT INTO campaigns (user_id, name, goal, target_audience, budget, platforms, status,
			variant_generation_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9)
		RETURNING id
	`
	return r.db.QueryRowxContext(ctx, query,
		c.UserID,
		c.Name,
		c.Goal,
		c.TargetAudience,
		c.Budget,
		c.Platforms,
		c.Status,
		c.CreatedAt,
		c.UpdatedAt,
	).Scan(&c.ID)
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	var c Campaign
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("get campaign %d: %w", id, err)
	}
	return &c, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int64) ([]*Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE user_id = $1 ORDER BY created_at DESC`
	var campaigns []*Campaign
	if err := r.db.SelectContext(ctx, &campaigns, query, userID); err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return campaigns, nil
}

func (r *repository) ListActive(ctx context.Context) ([]*Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE status = $1 ORDER BY id`
	var campaigns []*Campaign
	if err := r.db.SelectContext(ctx, &campaigns, query, StatusActive); err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}
	return campaigns, nil
}

// RecordGeneration performs the reset-or-increment in a single statement
func (r *repository) RecordGeneration(ctx context.Context, id int64, at time.Time) error {
	query := `
		UPDATE campaigns SET
			variant_generation_count = CASE
				WHEN last_variant_generated_at IS NULL OR last_variant_generated_at <= $2 - INTERVAL '7 days' THEN 1
				ELSE variant_generation_count + 1
			END,
			last_variant_generated_at = $2,
			updated_at = $2
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("record generation for campaign %d: %w", id, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrCampaignNotFound
	}
	return nil
}
