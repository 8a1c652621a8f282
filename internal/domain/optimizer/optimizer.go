// Package optimizer applies threshold rules to approved variants: it pauses
// long-running poor performers, deploys strong approved ones and alerts on
// deployed variants that keep underperforming.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/upsurge/campaign-lab/internal/domain/campaign"
	"github.com/upsurge/campaign-lab/internal/domain/notification"
	"github.com/upsurge/campaign-lab/internal/domain/variant"
	"github.com/upsurge/campaign-lab/internal/pkg/coordination"
	"github.com/upsurge/campaign-lab/internal/pkg/email"
	"github.com/upsurge/campaign-lab/internal/pkg/logger"
	"github.com/upsurge/campaign-lab/internal/pkg/metrics"
)

// Action kinds recorded for every variant the optimizer looks at
const (
	ActionPause  = "pause"
	ActionDeploy = "deploy"
	ActionNone   = "none"
)

const (
	reasonAcceptable   = "Performance within acceptable range."
	lockTTL            = 5 * time.Minute
	lockKeyFormat      = "optimizer:campaign:%d"
	suppressionKeyFmt  = "underperformer:variant:%d"
	defaultAlertWindow = 24 * time.Hour
)

// Variants is the slice of the variant service the optimizer drives
type Variants interface {
	ListVariants(ctx context.Context, campaignID int64, filter variant.Filter) ([]*variant.Variant, error)
	Deploy(ctx context.Context, variantID, userID int64) (*variant.Variant, error)
	Pause(ctx context.Context, variantID, userID int64, reason string) (*variant.Variant, error)
	Config() variant.OptimizationConfig
}

// Campaigns is the slice of the campaign service the optimizer reads
type Campaigns interface {
	GetByID(ctx context.Context, id int64) (*campaign.Campaign, error)
	ListActive(ctx context.Context) ([]*campaign.Campaign, error)
}

var (
	_ Variants  = (*variant.Service)(nil)
	_ Campaigns = (*campaign.Service)(nil)
)

// Action is the decision taken for one variant
type Action struct {
	VariantID   int64   `json:"variant_id"`
	VariantName string  `json:"variant_name"`
	Action      string  `json:"action"`
	Reason      string  `json:"reason"`
	Score       float64 `json:"score"`
}

// Result of one optimizer pass over a campaign
type Result struct {
	CampaignID     int64    `json:"campaign_id"`
	OptimizedCount int      `json:"optimized_count"`
	Actions        []Action `json:"actions"`
	Skipped        bool     `json:"skipped,omitempty"`
}

// Optimizer runs threshold rules per campaign
type Optimizer struct {
	variants    Variants
	campaigns   Campaigns
	notifier    notification.Notifier
	locker      coordination.Locker
	suppressor  coordination.Suppressor
	alerts      *EmailAlerts
	alertWindow time.Duration
	now         func() time.Time
}

// Option configures an Optimizer
type Option func(*Optimizer)

// WithEmailAlerts mails underperformer and optimization summaries
func WithEmailAlerts(a *EmailAlerts) Option {
	return func(o *Optimizer) { o.alerts = a }
}

// WithAlertWindow sets how long an underperformer alert is suppressed per variant
func WithAlertWindow(d time.Duration) Option {
	return func(o *Optimizer) {
		if d > 0 {
			o.alertWindow = d
		}
	}
}

// New creates an optimizer
func New(
	variants Variants,
	campaigns Campaigns,
	notifier notification.Notifier,
	locker coordination.Locker,
	suppressor coordination.Suppressor,
	opts ...Option,
) *Optimizer {
	o := &Optimizer{
		variants:    variants,
		campaigns:   campaigns,
		notifier:    notifier,
		locker:      locker,
		suppressor:  suppressor,
		alertWindow: defaultAlertWindow,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Optimize evaluates every approved variant of a campaign once. Pause and
// deploy are exclusive branches, so no variant gets both in one pass. A pass
// that cannot take the campaign lock returns Skipped without touching anything.
func (o *Optimizer) Optimize(ctx context.Context, campaignID, userID int64) (*Result, error) {
	start := o.now()
	log := logger.FromContext(ctx).With().Int64("campaign_id", campaignID).Logger()

	release, ok, err := o.locker.TryLock(ctx, fmt.Sprintf(lockKeyFormat, campaignID), lockTTL)
	if err != nil {
		metrics.ObserveOptimizerPass("error", time.Since(start).Seconds())
		return nil, fmt.Errorf("lock campaign %d: %w", campaignID, err)
	}
	if !ok {
		log.Info().Msg("Optimizer pass already running, skipping")
		metrics.ObserveOptimizerPass("skipped", time.Since(start).Seconds())
		return &Result{CampaignID: campaignID, Actions: []Action{}, Skipped: true}, nil
	}
	defer release()

	result, err := o.optimize(ctx, campaignID, userID)
	if err != nil {
		metrics.ObserveOptimizerPass("error", time.Since(start).Seconds())
		return nil, err
	}

	outcome := "unchanged"
	if result.OptimizedCount > 0 {
		outcome = "optimized"
		o.announce(ctx, result)
	}
	metrics.ObserveOptimizerPass(outcome, time.Since(start).Seconds())
	log.Info().Int("optimized", result.OptimizedCount).Int("evaluated", len(result.Actions)).Msg("Optimizer pass finished")
	return result, nil
}

func (o *Optimizer) optimize(ctx context.Context, campaignID, userID int64) (*Result, error) {
	approved, err := o.variants.ListVariants(ctx, campaignID, variant.Filter{Approval: variant.ApprovalApproved})
	if err != nil {
		return nil, err
	}

	cfg := o.variants.Config()
	now := o.now()
	result := &Result{CampaignID: campaignID, Actions: make([]Action, 0, len(approved))}

	for _, v := range approved {
		action := decide(v, cfg, now)

		var applyErr error
		switch action.Action {
		case ActionPause:
			_, applyErr = o.variants.Pause(ctx, v.ID, userID, action.Reason)
		case ActionDeploy:
			_, applyErr = o.variants.Deploy(ctx, v.ID, userID)
		}

		if applyErr != nil {
			if !errors.Is(applyErr, variant.ErrPrecondition) {
				return nil, applyErr
			}
			// state moved under us since the listing
			logger.FromContext(ctx).Warn().Err(applyErr).Int64("variant_id", v.ID).Str("action", action.Action).
				Msg("Optimizer action refused")
			action.Action = ActionNone
			action.Reason = applyErr.Error()
		}

		if action.Action != ActionNone {
			result.OptimizedCount++
		}
		metrics.IncOptimizerAction(action.Action)
		result.Actions = append(result.Actions, action)
	}

	return result, nil
}

// decide applies the threshold rules to one approved variant without side effects
func decide(v *variant.Variant, cfg variant.OptimizationConfig, now time.Time) Action {
	m := variant.Score(v.Counters())
	a := Action{VariantID: v.ID, VariantName: v.Name, Action: ActionNone, Score: m.Score}

	if !v.Counters().HasSample(cfg.MinImpressions, cfg.MinClicks) {
		a.Reason = fmt.Sprintf("Insufficient data. Need at least %d impressions and %d clicks.", cfg.MinImpressions, cfg.MinClicks)
		return a
	}

	switch {
	case v.DeploymentStatus == variant.DeploymentDeployed && m.Score < cfg.PoorPerformanceThreshold && ranLongEnough(v, cfg, now):
		a.Action = ActionPause
		a.Reason = fmt.Sprintf("Auto-paused: performance score %.1f is below %.0f.", m.Score, cfg.PoorPerformanceThreshold)
	case v.DeploymentStatus == variant.DeploymentNotDeployed && m.Score >= cfg.AutoDeployThreshold:
		a.Action = ActionDeploy
		a.Reason = fmt.Sprintf("Auto-deployed: performance score %.1f meets %.0f.", m.Score, cfg.AutoDeployThreshold)
	default:
		a.Reason = reasonAcceptable
	}
	return a
}

// ranLongEnough is false when deployedAt is unknown
func ranLongEnough(v *variant.Variant, cfg variant.OptimizationConfig, now time.Time) bool {
	d, ok := v.RunningFor(now)
	return ok && d >= cfg.MinRuntime
}

// announce tells the campaign owner what changed
func (o *Optimizer) announce(ctx context.Context, result *Result) {
	c, err := o.campaigns.GetByID(ctx, result.CampaignID)
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Int64("campaign_id", result.CampaignID).Msg("Skipping optimization notice")
		return
	}

	o.notifier.Notify(ctx, notification.Event{
		UserID:  c.UserID,
		Type:    notification.TypeOptimizationAction,
		Title:   "Campaign Auto-Optimized",
		Message: fmt.Sprintf("%d variant(s) in campaign %q were changed by the optimizer.", result.OptimizedCount, c.Name),
	})

	changed := make([]Action, 0, result.OptimizedCount)
	for _, a := range result.Actions {
		if a.Action != ActionNone {
			changed = append(changed, a)
		}
	}
	o.alerts.Send(ctx, fmt.Sprintf("Campaign %q optimized", c.Name), email.TemplateOptimization, map[string]interface{}{
		"CampaignID":     c.ID,
		"OptimizedCount": result.OptimizedCount,
		"Actions":        changed,
	})
}
