package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type stubRepo struct {
	created    []*Notification
	err        error
	lastFilter ListFilter
	missing    bool
}

func (r *stubRepo) Create(ctx context.Context, n *Notification) error {
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, n)
	return nil
}

func (r *stubRepo) ListByUser(ctx context.Context, userID int64, filter ListFilter) ([]*Notification, error) {
	r.lastFilter = filter
	var out []*Notification
	for _, n := range r.created {
		if n.UserID != userID || (filter.Type != "" && n.Type != filter.Type) || (filter.UnreadOnly && n.IsRead) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *stubRepo) CountUnreadByUser(ctx context.Context, userID int64) (int, error) {
	return len(r.created), nil
}

func (r *stubRepo) MarkAsRead(ctx context.Context, id uuid.UUID, userID int64) error {
	if r.missing {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *stubRepo) MarkAllAsRead(ctx context.Context, userID int64) error { return nil }

func (r *stubRepo) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// syncQueue runs jobs inline so tests observe their effects immediately
type syncQueue struct {
	errs []error
}

func (q *syncQueue) Enqueue(kind string, run func(ctx context.Context) error) {
	q.errs = append(q.errs, run(context.Background()))
}

func TestNotifierPersistsEvent(t *testing.T) {
	repo := &stubRepo{}
	q := &syncQueue{}
	n := NewNotifier(NewService(repo), q)

	n.Notify(context.Background(), Event{
		UserID:     3,
		Type:       TypeVariantDeployed,
		Title:      "Ad Variant Deployed",
		Message:    `Ad variant "Scarcity Angle" has been deployed and is now live.`,
		EntityType: EntityCampaignVariant,
		EntityID:   11,
	})

	if len(repo.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(repo.created))
	}
	got := repo.created[0]
	if got.UserID != 3 || got.Type != TypeVariantDeployed || got.EntityID.Int64 != 11 || !got.EntityType.Valid {
		t.Fatalf("unexpected notification %+v", got)
	}
}

func TestNotifierSwallowsFailures(t *testing.T) {
	q := &syncQueue{}
	n := NewNotifier(NewService(&stubRepo{err: errors.New("db down")}), q)

	n.Notify(context.Background(), Event{UserID: 1, Type: TypeVariantPaused, Title: "x"})

	if len(q.errs) != 1 || q.errs[0] == nil {
		t.Fatalf("expected the queued job to report the failure, got %v", q.errs)
	}
}

func TestCreateWithoutEntity(t *testing.T) {
	repo := &stubRepo{}
	n, err := NewService(repo).Create(context.Background(), Event{UserID: 1, Type: TypeOptimizationAction, Title: "t"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.EntityType.Valid || n.EntityID.Valid {
		t.Fatalf("expected null entity reference, got %+v", n)
	}
}
