package optimizer

import (
	"context"

	"github.com/upsurge/campaign-lab/internal/pkg/logger"
)

// Mailer renders and sends a templated e-mail
type Mailer interface {
	SendTemplate(ctx context.Context, to, subject, templateName string, data interface{}) error
}

// Queue is the subset of the outbox alerts need
type Queue interface {
	Enqueue(kind string, run func(ctx context.Context) error)
}

// EmailAlerts mails operator alerts off the request path. A nil *EmailAlerts is a no-op.
type EmailAlerts struct {
	mailer Mailer
	queue  Queue
	to     string
}

// NewEmailAlerts returns nil when no recipient is configured
func NewEmailAlerts(mailer Mailer, queue Queue, to string) *EmailAlerts {
	if mailer == nil || to == "" {
		return nil
	}
	return &EmailAlerts{mailer: mailer, queue: queue, to: to}
}

// Send enqueues a templated message
func (a *EmailAlerts) Send(ctx context.Context, subject, templateName string, data interface{}) {
	if a == nil {
		return
	}

	logger.FromContext(ctx).Debug().Str("template", templateName).Str("to", a.to).Msg("Queueing alert e-mail")
	a.queue.Enqueue("email", func(ctx context.Context) error {
		return a.mailer.SendTemplate(ctx, a.to, subject, templateName, data)
	})
}
