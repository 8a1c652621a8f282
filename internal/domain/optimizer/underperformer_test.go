package optimizer

import (
	"context"
	"testing"
	"time"

	"github.com/upsurge/campaign-lab/internal/domain/notification"
	"github.com/upsurge/campaign-lab/internal/domain/variant"
	"github.com/upsurge/campaign-lab/internal/pkg/email"
)

func underperformerFixture() *fakeVariants {
	return newFakeVariants(
		approved(1, poor, variant.DeploymentDeployed, 48*time.Hour),
		approved(2, poor, variant.DeploymentDeployed, 3*time.Hour),
		approved(3, middling, variant.DeploymentDeployed, 48*time.Hour),
		approved(4, poor, variant.DeploymentPaused, 48*time.Hour),
		approved(5, thin, variant.DeploymentDeployed, 48*time.Hour),
	)
}

func TestDetectUnderperformersIsReadOnly(t *testing.T) {
	vs := underperformerFixture()
	o, n := newTestOptimizer(vs)

	flagged, err := o.DetectUnderperformers(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(flagged) != 1 || flagged[0].Variant.ID != 1 {
		t.Fatalf("expected only variant 1 flagged, got %+v", flagged)
	}
	if n.count() != 0 || len(vs.calls) != 0 {
		t.Fatal("detection must not notify or mutate")
	}
}

func TestCheckUnderperformersSuppressesRepeats(t *testing.T) {
	mailer := &recordingMailer{}
	o, n := newTestOptimizer(underperformerFixture(),
		WithEmailAlerts(NewEmailAlerts(mailer, syncQueue{}, "ops@example.com")),
		WithAlertWindow(time.Hour),
	)
	ctx := context.Background()

	first, err := o.CheckUnderperformers(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Flagged != 1 || first.Alerted != 1 || first.Suppressed != 0 {
		t.Fatalf("unexpected first result: %+v", first)
	}
	e := n.events[0]
	if e.UserID != 7 || e.Type != notification.TypeUnderperformingVariant || e.EntityID != 1 {
		t.Fatalf("unexpected notification: %+v", e)
	}
	if len(mailer.templates) != 1 || mailer.templates[0] != email.TemplateUnderperformer {
		t.Fatalf("expected underperformer e-mail, got %v", mailer.templates)
	}

	second, err := o.CheckUnderperformers(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Flagged != 1 || second.Alerted != 0 || second.Suppressed != 1 {
		t.Fatalf("expected repeat to be suppressed, got %+v", second)
	}
	if n.count() != 1 {
		t.Fatalf("expected no repeat notification, got %d", n.count())
	}
}

func TestCheckUnderperformersNoneFlagged(t *testing.T) {
	o, n := newTestOptimizer(newFakeVariants(approved(1, strong, variant.DeploymentDeployed, 48*time.Hour)))

	result, err := o.CheckUnderperformers(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Flagged != 0 || n.count() != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestNewEmailAlertsWithoutRecipient(t *testing.T) {
	if a := NewEmailAlerts(&recordingMailer{}, syncQueue{}, ""); a != nil {
		t.Fatal("expected nil alerts without a recipient")
	}
	var a *EmailAlerts
	a.Send(context.Background(), "subject", email.TemplateUnderperformer, nil)
}
