package variant

import (
	"database/sql"
	"fmt"
	"time"
)

// Status is the testing lifecycle of a variant
type Status string

const (
	StatusTesting  Status = "testing"
	StatusWinning  Status = "winning"
	StatusLosing   Status = "losing"
	StatusArchived Status = "archived"
)

// ApprovalStatus is the human sign-off axis
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// DeploymentStatus is the live delivery axis
type DeploymentStatus string

const (
	DeploymentNotDeployed DeploymentStatus = "not_deployed"
	DeploymentDeployed    DeploymentStatus = "deployed"
	DeploymentPaused      DeploymentStatus = "paused"
)

// Variant is one candidate ad creative under test within a campaign.
// Status, ApprovalStatus and DeploymentStatus are independent axes; the
// cross-axis rules are enforced by the transition functions in approval.go.
type Variant struct {
	ID                 int64          `db:"id"`
	CampaignID         int64          `db:"campaign_id"`
	Name               string         `db:"name"`
	PsychologicalAngle string         `db:"psychological_angle"`
	AdCopy             string         `db:"ad_copy"`
	ImageURL           sql.NullString `db:"image_url"`
	ImagePrompt        sql.NullString `db:"image_prompt"`

	// Counters are the source of truth; CTR and ConversionRate are cached decimal strings
	Impressions    int64  `db:"impressions"`
	Clicks         int64  `db:"clicks"`
	Conversions    int64  `db:"conversions"`
	Cost           int64  `db:"cost"`
	CTR            string `db:"ctr"`
	ConversionRate string `db:"conversion_rate"`

	Status           Status           `db:"status"`
	ApprovalStatus   ApprovalStatus   `db:"approval_status"`
	DeploymentStatus DeploymentStatus `db:"deployment_status"`
	DeployedAt       sql.NullTime     `db:"deployed_at"`
	PausedAt         sql.NullTime     `db:"paused_at"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Counters returns the raw performance counters
func (v *Variant) Counters() Counters {
	return Counters{
		Impressions: v.Impressions,
		Clicks:      v.Clicks,
		Conversions: v.Conversions,
		Cost:        v.Cost,
	}
}

// IsApproved returns true if the variant passed human review
func (v *Variant) IsApproved() bool {
	return v.ApprovalStatus == ApprovalApproved
}

// IsDeployed returns true if the variant is currently live
func (v *Variant) IsDeployed() bool {
	return v.DeploymentStatus == DeploymentDeployed
}

// RunningFor returns how long the variant has been deployed. ok is false when deployedAt is unknown.
func (v *Variant) RunningFor(now time.Time) (d time.Duration, ok bool) {
	if !v.DeployedAt.Valid {
		return 0, false
	}
	return now.Sub(v.DeployedAt.Time), true
}

// Counters are the delivery counters reported by the ad platform
type Counters struct {
	Impressions int64 `json:"impressions"`
	Clicks      int64 `json:"clicks"`
	Conversions int64 `json:"conversions"`
	Cost        int64 `json:"cost"`
}

// Add returns the element-wise sum
func (c Counters) Add(o Counters) Counters {
	return Counters{
		Impressions: c.Impressions + o.Impressions,
		Clicks:      c.Clicks + o.Clicks,
		Conversions: c.Conversions + o.Conversions,
		Cost:        c.Cost + o.Cost,
	}
}

// HasSample reports whether both sample-size minimums are met
func (c Counters) HasSample(minImpressions, minClicks int64) bool {
	return c.Impressions >= minImpressions && c.Clicks >= minClicks
}

// ApplyCounters adds delta to v and refreshes the cached rate strings
func ApplyCounters(v *Variant, delta Counters, now time.Time) {
	sum := v.Counters().Add(delta)
	v.Impressions = sum.Impressions
	v.Clicks = sum.Clicks
	v.Conversions = sum.Conversions
	v.Cost = sum.Cost

	m := Score(sum)
	v.CTR = formatRate(m.CTR)
	v.ConversionRate = formatRate(m.ConversionRate)
	v.UpdatedAt = now
}

func formatRate(r float64) string {
	return fmt.Sprintf("%.2f", r)
}
