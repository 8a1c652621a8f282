package optimizer

import (
	"testing"
	"time"

	"github.com/upsurge/campaign-lab/internal/domain/variant"
)

func TestWorkerRunsImmediatelyAndStops(t *testing.T) {
	vs := newFakeVariants(
		approved(1, strong, variant.DeploymentNotDeployed, 0),
		approved(2, poor, variant.DeploymentDeployed, 48*time.Hour),
	)
	o, n := newTestOptimizer(vs)

	w := NewWorker(o, 1, time.Hour)
	w.Start()

	deadline := time.Now().Add(2 * time.Second)
	for {
		vs.mu.Lock()
		done := len(vs.calls) == 2
		vs.mu.Unlock()
		if done {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("worker did not run a pass")
		}
		time.Sleep(5 * time.Millisecond)
	}

	w.Stop()
	w.Stop()

	if n.count() == 0 {
		t.Fatal("expected the sweep to notify the campaign owner")
	}
}

func TestWorkerRunOnceAlertsUnderperformers(t *testing.T) {
	vs := newFakeVariants(approved(1, poor, variant.DeploymentDeployed, 48*time.Hour))
	o, n := newTestOptimizer(vs)

	w := NewWorker(o, 1, time.Hour)
	w.RunOnce()

	// the pass pauses the variant, so the alert scan sees nothing deployed
	if got := vs.calls[1]; len(got) != 1 || got[0] != ActionPause {
		t.Fatalf("expected pause, got %v", got)
	}
	if n.count() != 1 {
		t.Fatalf("expected only the optimization notice, got %d", n.count())
	}
}
