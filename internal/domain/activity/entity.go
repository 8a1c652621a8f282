package activity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action names used by the variant workflow
const (
	ActionApprove  = "approve"
	ActionReject   = "reject"
	ActionDeploy   = "deploy"
	ActionPause    = "pause"
	ActionResume   = "resume"
	ActionOptimize = "optimize"
)

// Entry is one audit log row
type Entry struct {
	ID          uuid.UUID       `db:"id"`
	UserID      int64           `db:"user_id"`
	Action      string          `db:"action"`
	EntityType  string          `db:"entity_type"`
	EntityID    int64           `db:"entity_id"`
	Description string          `db:"description"`
	Metadata    json.RawMessage `db:"metadata"`
	CreatedAt   time.Time       `db:"created_at"`
}

// Record is what a producer asks the audit log to store
type Record struct {
	UserID      int64
	Action      string
	EntityType  string
	EntityID    int64
	Description string
	Metadata    map[string]interface{}
}
