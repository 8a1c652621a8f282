package notification

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Type represents notification type
type Type string

const (
	TypeOptimizationAction     Type = "optimization_action"     // variant approved or auto-optimized
	TypeVariantDeployed        Type = "variant_deployed"        // variant went live
	TypeVariantPaused          Type = "variant_paused"          // variant paused by a user or the optimizer
	TypeUnderperformingVariant Type = "underperforming_variant" // deployed variant scoring below threshold
	TypeWinnerIdentified       Type = "winner_identified"       // campaign has a statistically clear winner
)

// Valid reports whether t is a known notification type
func (t Type) Valid() bool {
	switch t {
	case TypeOptimizationAction, TypeVariantDeployed, TypeVariantPaused, TypeUnderperformingVariant, TypeWinnerIdentified:
		return true
	}
	return false
}

// ErrNotificationNotFound is returned when a notification does not exist for the user
var ErrNotificationNotFound = errors.New("notification not found")

// EntityCampaignVariant is the entity type used for variant references
const EntityCampaignVariant = "campaign_variant"

// Notification represents a user notification
type Notification struct {
	ID         uuid.UUID      `db:"id"`
	UserID     int64          `db:"user_id"`
	Type       Type           `db:"type"`
	Title      string         `db:"title"`
	Message    string         `db:"message"`
	EntityType sql.NullString `db:"entity_type"`
	EntityID   sql.NullInt64  `db:"entity_id"`
	IsRead     bool           `db:"is_read"`
	ReadAt     sql.NullTime   `db:"read_at"`
	CreatedAt  time.Time      `db:"created_at"`
}

// Event is what a producer asks the sink to deliver
type Event struct {
	UserID     int64
	Type       Type
	Title      string
	Message    string
	EntityType string
	EntityID   int64
}
