package campaign

import (
	"database/sql"
	"time"
)

// Status represents campaign status
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Campaign is a business objective that owns a batch of ad variants
type Campaign struct {
	ID             int64          `db:"id"`
	UserID         int64          `db:"user_id"`
	Name           string         `db:"name"`
	Goal           string         `db:"goal"`
	TargetAudience sql.NullString `db:"target_audience"`
	Budget         sql.NullString `db:"budget"`
	Platforms      sql.NullString `db:"platforms"`
	Status         Status         `db:"status"`

	// Generation bookkeeping, mutated only when a generated batch is saved
	LastVariantGeneratedAt sql.NullTime `db:"last_variant_generated_at"`
	VariantGenerationCount int          `db:"variant_generation_count"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsActive returns true if the optimizer should consider the campaign
func (c *Campaign) IsActive() bool {
	return c.Status == StatusActive
}
