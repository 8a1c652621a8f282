package variant

import (
	"context"
	"fmt"
	"sort"

	"github.com/upsurge/campaign-lab/internal/domain/notification"
	"github.com/upsurge/campaign-lab/internal/pkg/logger"
	"github.com/upsurge/campaign-lab/internal/pkg/metrics"
)

// Scope selects which testing statuses the winner engine considers
type Scope int

const (
	// ScopeActive covers testing, winning and losing variants; archived ones are excluded
	ScopeActive Scope = iota
	// ScopeTesting covers only variants still in testing
	ScopeTesting
)

// ParseScope maps a query value to a Scope, defaulting to ScopeActive
func ParseScope(s string) Scope {
	if s == "testing" {
		return ScopeTesting
	}
	return ScopeActive
}

// Statuses returns the testing statuses included in the scope
func (s Scope) Statuses() []Status {
	if s == ScopeTesting {
		return []Status{StatusTesting}
	}
	return []Status{StatusTesting, StatusWinning, StatusLosing}
}

// ScoredVariant pairs a variant with its scorer output
type ScoredVariant struct {
	Variant *Variant
	Metrics Metrics
}

// WinnerResult is the outcome of winner identification
type WinnerResult struct {
	WinnerID       *int64
	Variants       []ScoredVariant
	HasMinimumData bool
}

// AutoOptimizeResult is the outcome of identify-and-mark
type AutoOptimizeResult struct {
	Optimized bool
	WinnerID  *int64
	Message   string
}

// rankVariants applies the all-or-nothing sample gate and the margin rule
func rankVariants(variants []*Variant, cfg OptimizationConfig) WinnerResult {
	if len(variants) == 0 {
		return WinnerResult{Variants: []ScoredVariant{}}
	}

	scored := make([]ScoredVariant, len(variants))
	hasMinimumData := true
	for i, v := range variants {
		scored[i] = ScoredVariant{Variant: v, Metrics: Score(v.Counters())}
		if !v.Counters().HasSample(cfg.WinnerMinImpressions, cfg.WinnerMinClicks) {
			hasMinimumData = false
		}
	}

	if !hasMinimumData {
		return WinnerResult{Variants: scored}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Metrics.Score > scored[j].Metrics.Score
	})

	result := WinnerResult{Variants: scored, HasMinimumData: true}
	if selectWinner(scored, cfg.SignificanceMargin) {
		id := scored[0].Variant.ID
		result.WinnerID = &id
	}
	return result
}

// selectWinner reports whether the leader of a score-sorted slice clears the margin
func selectWinner(sorted []ScoredVariant, margin float64) bool {
	if len(sorted) == 0 {
		return false
	}
	if len(sorted) == 1 {
		return true
	}

	leader := sorted[0].Metrics.Score
	runnerUp := sorted[1].Metrics.Score
	if runnerUp == 0 {
		return leader > 0
	}
	return (leader-runnerUp)/runnerUp >= margin
}

// rankSampled ranks only the variants that individually clear the sample
// gate. Under-sampled variants are appended unranked after them.
func rankSampled(variants []*Variant, cfg OptimizationConfig) (WinnerResult, int) {
	var sampled, thin []*Variant
	for _, v := range variants {
		if v.Counters().HasSample(cfg.WinnerMinImpressions, cfg.WinnerMinClicks) {
			sampled = append(sampled, v)
		} else {
			thin = append(thin, v)
		}
	}

	result := rankVariants(sampled, cfg)
	for _, v := range thin {
		result.Variants = append(result.Variants, ScoredVariant{Variant: v, Metrics: Score(v.Counters())})
	}
	return result, len(sampled)
}

// IdentifyWinner decides whether a campaign has a statistically clear winner.
// Insufficient data and close races are results, not errors.
func (s *Service) IdentifyWinner(ctx context.Context, campaignID int64, scope Scope) (*WinnerResult, error) {
	_, variants, err := s.loadCampaign(ctx, campaignID, Filter{Statuses: scope.Statuses()})
	if err != nil {
		return nil, err
	}

	result := rankVariants(variants, s.config)
	logRanking(ctx, campaignID, &result)
	return &result, nil
}

func logRanking(ctx context.Context, campaignID int64, result *WinnerResult) {
	log := logger.FromContext(ctx)

	switch {
	case len(result.Variants) == 0:
		log.Info().Int64("campaign_id", campaignID).Msg("No variants to rank")
	case !result.HasMinimumData:
		log.Info().Int64("campaign_id", campaignID).Int("variants", len(result.Variants)).
			Msg("Insufficient data for winner identification")
	case result.WinnerID == nil:
		log.Info().Int64("campaign_id", campaignID).
			Float64("leader_score", result.Variants[0].Metrics.Score).
			Float64("runner_up_score", result.Variants[1].Metrics.Score).
			Msg("No clear winner yet, performance too close")
	default:
		log.Info().Int64("campaign_id", campaignID).Int64("variant_id", *result.WinnerID).
			Float64("score", result.Variants[0].Metrics.Score).
			Msg("Winner identified")
	}
}

// UpdateVariantStatuses ranks the variants that have enough data on their
// own, marks the winner winning and the other ranked variants with a
// positive score losing. Under-sampled variants keep their status.
// Re-running with unchanged counters writes nothing.
func (s *Service) UpdateVariantStatuses(ctx context.Context, campaignID int64) (*WinnerResult, error) {
	c, variants, err := s.loadCampaign(ctx, campaignID, Filter{Statuses: ScopeActive.Statuses()})
	if err != nil {
		return nil, err
	}

	r, ranked := rankSampled(variants, s.config)
	result := &r
	logRanking(ctx, campaignID, result)
	if result.WinnerID == nil {
		return result, nil
	}

	now := s.now()
	newWinner := false
	for _, sv := range result.Variants[:ranked] {
		target := sv.Variant.Status
		switch {
		case sv.Variant.ID == *result.WinnerID:
			target = StatusWinning
		case sv.Metrics.Score > 0:
			target = StatusLosing
		}
		if target == sv.Variant.Status {
			continue
		}

		if err := s.repo.UpdateStatus(ctx, sv.Variant.ID, target, now); err != nil {
			return nil, err
		}
		if target == StatusWinning {
			newWinner = true
		}
		sv.Variant.Status = target
		sv.Variant.UpdatedAt = now
	}

	if newWinner {
		metrics.IncWinnerDeclared()
		winner := result.Variants[0].Variant
		s.notifier.Notify(ctx, notification.Event{
			UserID:     c.UserID,
			Type:       notification.TypeWinnerIdentified,
			Title:      "Winning Ad Variant Identified",
			Message:    fmt.Sprintf("Ad variant %q is outperforming the rest of campaign %q.", winner.Name, c.Name),
			EntityType: notification.EntityCampaignVariant,
			EntityID:   winner.ID,
		})
	}

	logger.FromContext(ctx).Info().Int64("campaign_id", campaignID).Int64("variant_id", *result.WinnerID).
		Bool("changed", newWinner).Msg("Variant statuses updated")
	return result, nil
}

// AutoOptimize identifies and marks the winner, explaining the outcome
func (s *Service) AutoOptimize(ctx context.Context, campaignID int64) (*AutoOptimizeResult, error) {
	result, err := s.UpdateVariantStatuses(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	switch {
	case !result.HasMinimumData:
		return &AutoOptimizeResult{
			Message: fmt.Sprintf("Insufficient data for optimization. Need at least %d impressions and %d clicks per variant.",
				s.config.WinnerMinImpressions, s.config.WinnerMinClicks),
		}, nil
	case result.WinnerID == nil:
		return &AutoOptimizeResult{
			Message: "No clear winner yet. Performance differences are not statistically significant.",
		}, nil
	default:
		return &AutoOptimizeResult{
			Optimized: true,
			WinnerID:  result.WinnerID,
			Message:   fmt.Sprintf("Variant %d identified as winner and marked for deployment.", *result.WinnerID),
		}, nil
	}
}
