package notification

import (
	"context"

	"github.com/upsurge/campaign-lab/internal/pkg/logger"
	"github.com/upsurge/campaign-lab/internal/pkg/outbox"
)

// Notifier is the fire-and-forget notification sink
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// Queue is the subset of the outbox a Notifier needs
type Queue interface {
	Enqueue(kind string, run func(ctx context.Context) error)
}

var _ Queue = (*outbox.Outbox)(nil)

// BestEffortNotifier persists notifications off the request path
type BestEffortNotifier struct {
	service *Service
	queue   Queue
}

// NewNotifier creates a notifier backed by service and drained by queue
func NewNotifier(service *Service, queue Queue) *BestEffortNotifier {
	return &BestEffortNotifier{service: service, queue: queue}
}

// Notify enqueues the event and returns immediately
func (n *BestEffortNotifier) Notify(ctx context.Context, e Event) {
	logger.FromContext(ctx).Debug().
		Int64("user_id", e.UserID).
		Str("type", string(e.Type)).
		Int64("entity_id", e.EntityID).
		Msg("Queueing notification")

	n.queue.Enqueue("notification", func(ctx context.Context) error {
		_, err := n.service.Create(ctx, e)
		return err
	})
}
