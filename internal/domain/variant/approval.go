package variant

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/upsurge/campaign-lab/internal/domain/activity"
	"github.com/upsurge/campaign-lab/internal/domain/notification"
	"github.com/upsurge/campaign-lab/internal/pkg/logger"
	"github.com/upsurge/campaign-lab/internal/pkg/metrics"
)

// transition describes one approval/deployment state change
type transition struct {
	action   string
	check    func(v *Variant) error
	apply    func(v *Variant)
	describe func(v *Variant) string
	metadata func(v *Variant) map[string]interface{}
	notify   func(v *Variant) *notification.Event
}

// Approve moves a pending variant to approved
func (s *Service) Approve(ctx context.Context, variantID, userID int64) (*Variant, error) {
	return s.transition(ctx, variantID, userID, transition{
		action: activity.ActionApprove,
		check: func(v *Variant) error {
			if v.ApprovalStatus != ApprovalPending {
				return &PreconditionError{Action: "approved", Required: "pending review"}
			}
			return nil
		},
		apply: func(v *Variant) { v.ApprovalStatus = ApprovalApproved },
		describe: func(v *Variant) string {
			return "Approved variant: " + v.Name
		},
		notify: func(v *Variant) *notification.Event {
			return &notification.Event{
				Type:    notification.TypeOptimizationAction,
				Title:   "Ad Variant Approved",
				Message: fmt.Sprintf("Ad variant %q has been approved and is ready for deployment.", v.Name),
			}
		},
	})
}

// Reject moves a pending variant to rejected
func (s *Service) Reject(ctx context.Context, variantID, userID int64, reason string) (*Variant, error) {
	return s.transition(ctx, variantID, userID, transition{
		action: activity.ActionReject,
		check: func(v *Variant) error {
			if v.ApprovalStatus != ApprovalPending {
				return &PreconditionError{Action: "rejected", Required: "pending review"}
			}
			return nil
		},
		apply:    func(v *Variant) { v.ApprovalStatus = ApprovalRejected },
		describe: func(v *Variant) string { return withReason("Rejected variant: "+v.Name, reason) },
		metadata: reasonMetadata(reason),
	})
}

// Deploy puts an approved, never-deployed variant live
func (s *Service) Deploy(ctx context.Context, variantID, userID int64) (*Variant, error) {
	return s.transition(ctx, variantID, userID, transition{
		action: activity.ActionDeploy,
		check: func(v *Variant) error {
			if !v.IsApproved() {
				return &PreconditionError{Action: "deployed", Required: "approved"}
			}
			if v.DeploymentStatus != DeploymentNotDeployed {
				return &PreconditionError{Action: "deployed", Required: "not yet deployed (resume a paused variant instead)"}
			}
			return nil
		},
		apply: func(v *Variant) {
			v.DeploymentStatus = DeploymentDeployed
			v.DeployedAt = sql.NullTime{Time: s.now(), Valid: true}
		},
		describe: func(v *Variant) string { return "Deployed variant: " + v.Name },
		notify: func(v *Variant) *notification.Event {
			return &notification.Event{
				Type:    notification.TypeVariantDeployed,
				Title:   "Ad Variant Deployed",
				Message: fmt.Sprintf("Ad variant %q has been deployed and is now live.", v.Name),
			}
		},
	})
}

// Pause takes a deployed variant offline
func (s *Service) Pause(ctx context.Context, variantID, userID int64, reason string) (*Variant, error) {
	return s.transition(ctx, variantID, userID, transition{
		action: activity.ActionPause,
		check: func(v *Variant) error {
			if !v.IsApproved() {
				return &PreconditionError{Action: "paused", Required: "approved"}
			}
			if !v.IsDeployed() {
				return &PreconditionError{Action: "paused", Required: "deployed"}
			}
			return nil
		},
		apply: func(v *Variant) {
			v.DeploymentStatus = DeploymentPaused
			v.PausedAt = sql.NullTime{Time: s.now(), Valid: true}
		},
		describe: func(v *Variant) string { return withReason("Paused variant: "+v.Name, reason) },
		metadata: reasonMetadata(reason),
		notify: func(v *Variant) *notification.Event {
			msg := fmt.Sprintf("Ad variant %q has been paused.", v.Name)
			if reason != "" {
				msg = fmt.Sprintf("Ad variant %q has been paused. Reason: %s", v.Name, reason)
			}
			return &notification.Event{
				Type:    notification.TypeVariantPaused,
				Title:   "Ad Variant Paused",
				Message: msg,
			}
		},
	})
}

// Resume puts a paused, still approved variant back live
func (s *Service) Resume(ctx context.Context, variantID, userID int64) (*Variant, error) {
	return s.transition(ctx, variantID, userID, transition{
		action: activity.ActionResume,
		check: func(v *Variant) error {
			if !v.IsApproved() {
				return &PreconditionError{Action: "resumed", Required: "approved"}
			}
			if v.DeploymentStatus != DeploymentPaused {
				return &PreconditionError{Action: "resumed", Required: "paused"}
			}
			return nil
		},
		apply: func(v *Variant) {
			v.DeploymentStatus = DeploymentDeployed
			v.PausedAt = sql.NullTime{}
		},
		describe: func(v *Variant) string { return "Resumed variant: " + v.Name },
	})
}

// transition fetches, checks, writes, then fires the best-effort side effects.
// The variant is untouched in storage when the check fails.
func (s *Service) transition(ctx context.Context, variantID, userID int64, t transition) (*Variant, error) {
	v, err := s.repo.GetByID(ctx, variantID)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx).With().
		Str("action", t.action).
		Int64("variant_id", v.ID).
		Int64("campaign_id", v.CampaignID).
		Logger()

	if err := t.check(v); err != nil {
		log.Info().Err(err).Msg("Variant transition refused")
		return nil, err
	}

	t.apply(v)
	v.UpdatedAt = s.now()
	if err := s.repo.UpdateLifecycle(ctx, v); err != nil {
		return nil, err
	}

	meta := map[string]interface{}{
		"variantId":          v.ID,
		"campaignId":         v.CampaignID,
		"psychologicalAngle": v.PsychologicalAngle,
	}
	if t.metadata != nil {
		for k, val := range t.metadata(v) {
			meta[k] = val
		}
	}
	s.recorder.Record(ctx, activity.Record{
		UserID:      userID,
		Action:      t.action,
		EntityType:  notification.EntityCampaignVariant,
		EntityID:    v.ID,
		Description: t.describe(v),
		Metadata:    meta,
	})

	if t.notify != nil {
		e := t.notify(v)
		e.UserID = userID
		e.EntityType = notification.EntityCampaignVariant
		e.EntityID = v.ID
		s.notifier.Notify(ctx, *e)
	}

	metrics.IncTransition(t.action)
	log.Info().Int64("user_id", userID).
		Str("approval_status", string(v.ApprovalStatus)).
		Str("deployment_status", string(v.DeploymentStatus)).
		Msg("Variant transitioned")
	return v, nil
}

func reasonMetadata(reason string) func(v *Variant) map[string]interface{} {
	return func(v *Variant) map[string]interface{} {
		if reason == "" {
			return nil
		}
		return map[string]interface{}{"reason": reason}
	}
}

func withReason(desc, reason string) string {
	if reason == "" {
		return desc
	}
	return desc + " - Reason: " + reason
}
