package campaign

import (
	"fmt"
	"time"
)

const (
	GenerationCooldown      = 24 * time.Hour
	GenerationWindow        = 7 * 24 * time.Hour
	MaxGenerationsPerWindow = 3
)

const (
	ReasonCooldown  = "cooldown"
	ReasonWeeklyCap = "weekly_cap"
)

// RateLimitStatus is the answer to "may this campaign generate a new batch now"
type RateLimitStatus struct {
	Allowed       bool       `json:"allowed"`
	Reason        string     `json:"reason,omitempty"`
	Code          string     `json:"code,omitempty"`
	NextAllowedAt *time.Time `json:"next_allowed_at,omitempty"`
}

// CanGenerate evaluates the cooldown and weekly cap. It never mutates c.
func CanGenerate(c *Campaign, now time.Time) RateLimitStatus {
	if !c.LastVariantGeneratedAt.Valid {
		return RateLimitStatus{Allowed: true}
	}

	last := c.LastVariantGeneratedAt.Time
	since := now.Sub(last)

	if since < GenerationCooldown {
		next := last.Add(GenerationCooldown)
		return RateLimitStatus{
			Allowed:       false,
			Code:          ReasonCooldown,
			Reason:        fmt.Sprintf("Variants can be generated once every 24 hours. Try again after %s.", next.UTC().Format(time.RFC3339)),
			NextAllowedAt: &next,
		}
	}

	if since < GenerationWindow && c.VariantGenerationCount >= MaxGenerationsPerWindow {
		return RateLimitStatus{
			Allowed: false,
			Code:    ReasonWeeklyCap,
			Reason:  fmt.Sprintf("Weekly limit of %d variant generations reached.", MaxGenerationsPerWindow),
		}
	}

	return RateLimitStatus{Allowed: true}
}

// RecordGeneration applies the bookkeeping for a saved batch: the counter restarts at 1
// once the previous generation is a full window old, otherwise it increments.
func RecordGeneration(c *Campaign, now time.Time) {
	if !c.LastVariantGeneratedAt.Valid || now.Sub(c.LastVariantGeneratedAt.Time) >= GenerationWindow {
		c.VariantGenerationCount = 1
	} else {
		c.VariantGenerationCount++
	}
	c.LastVariantGeneratedAt.Time = now
	c.LastVariantGeneratedAt.Valid = true
	c.UpdatedAt = now
}
