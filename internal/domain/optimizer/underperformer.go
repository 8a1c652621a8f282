package optimizer

import (
	"context"
	"fmt"

	"github.com/upsurge/campaign-lab/internal/domain/notification"
	"github.com/upsurge/campaign-lab/internal/domain/variant"
	"github.com/upsurge/campaign-lab/internal/pkg/email"
	"github.com/upsurge/campaign-lab/internal/pkg/logger"
	"github.com/upsurge/campaign-lab/internal/pkg/metrics"
)

// Underperformer is a deployed variant that has run long enough and still scores poorly
type Underperformer struct {
	Variant *variant.Variant
	Metrics variant.Metrics
}

// AlertResult summarises an alerting scan
type AlertResult struct {
	CampaignID int64   `json:"campaign_id"`
	Flagged    int     `json:"flagged"`
	Alerted    int     `json:"alerted"`
	Suppressed int     `json:"suppressed"`
	FlaggedIDs []int64 `json:"flagged_variant_ids"`
}

// DetectUnderperformers is read-only: it writes nothing and notifies nobody
func (o *Optimizer) DetectUnderperformers(ctx context.Context, campaignID int64) ([]Underperformer, error) {
	deployed, err := o.variants.ListVariants(ctx, campaignID, variant.Filter{Deployment: variant.DeploymentDeployed})
	if err != nil {
		return nil, err
	}

	cfg := o.variants.Config()
	now := o.now()
	var out []Underperformer
	for _, v := range deployed {
		if !v.Counters().HasSample(cfg.MinImpressions, cfg.MinClicks) || !ranLongEnough(v, cfg, now) {
			continue
		}
		if m := variant.Score(v.Counters()); m.Score < cfg.PoorPerformanceThreshold {
			out = append(out, Underperformer{Variant: v, Metrics: m})
		}
	}
	return out, nil
}

// CheckUnderperformers detects and notifies the campaign owner once per
// variant per suppression window
func (o *Optimizer) CheckUnderperformers(ctx context.Context, campaignID int64) (*AlertResult, error) {
	flagged, err := o.DetectUnderperformers(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	result := &AlertResult{CampaignID: campaignID, Flagged: len(flagged), FlaggedIDs: make([]int64, 0, len(flagged))}
	if len(flagged) == 0 {
		return result, nil
	}

	c, err := o.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	threshold := o.variants.Config().PoorPerformanceThreshold
	log := logger.FromContext(ctx).With().Int64("campaign_id", campaignID).Logger()

	for _, u := range flagged {
		result.FlaggedIDs = append(result.FlaggedIDs, u.Variant.ID)

		allowed, err := o.suppressor.Allow(ctx, fmt.Sprintf(suppressionKeyFmt, u.Variant.ID), o.alertWindow)
		if err != nil {
			// fail open
			log.Warn().Err(err).Int64("variant_id", u.Variant.ID).Msg("Alert suppression check failed")
			allowed = true
		}
		if !allowed {
			result.Suppressed++
			metrics.IncUnderperformerAlert("suppressed")
			continue
		}

		o.notifier.Notify(ctx, notification.Event{
			UserID: c.UserID,
			Type:   notification.TypeUnderperformingVariant,
			Title:  "Underperforming Ad Variant",
			Message: fmt.Sprintf("Ad variant %q is scoring %.1f, below the threshold of %.0f. Consider pausing it.",
				u.Variant.Name, u.Metrics.Score, threshold),
			EntityType: notification.EntityCampaignVariant,
			EntityID:   u.Variant.ID,
		})
		o.alerts.Send(ctx, fmt.Sprintf("Underperforming variant in %q", c.Name), email.TemplateUnderperformer, map[string]interface{}{
			"VariantName": u.Variant.Name,
			"Angle":       u.Variant.PsychologicalAngle,
			"CampaignID":  c.ID,
			"Score":       u.Metrics.Score,
			"Threshold":   threshold,
		})

		result.Alerted++
		metrics.IncUnderperformerAlert("sent")
		log.Info().Int64("variant_id", u.Variant.ID).Float64("score", u.Metrics.Score).Msg("Underperformer alerted")
	}

	return result, nil
}
