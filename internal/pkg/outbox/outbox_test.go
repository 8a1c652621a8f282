package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestOutboxRunsJobsInOrder(t *testing.T) {
	o := New(8)

	var mu sync.Mutex
	var got []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		o.Enqueue("test", func(ctx context.Context) error {
			mu.Lock()
			got = append(got, name)
			mu.Unlock()
			return nil
		})
	}
	o.Close()

	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("expected jobs a,b,c in order, got %v", got)
	}
}

func TestOutboxSwallowsFailuresAndPanics(t *testing.T) {
	var results []error
	var mu sync.Mutex
	o := New(8, WithResultHook(func(kind string, err error) {
		mu.Lock()
		results = append(results, err)
		mu.Unlock()
	}))

	o.Enqueue("fails", func(ctx context.Context) error { return errors.New("smtp down") })
	o.Enqueue("panics", func(ctx context.Context) error { panic("nil map") })
	o.Enqueue("ok", func(ctx context.Context) error { return nil })
	o.Close()

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0] == nil || results[1] == nil || results[2] != nil {
		t.Fatalf("unexpected results %v", results)
	}
}

func TestOutboxDropsAfterClose(t *testing.T) {
	o := New(1)
	o.Close()

	ran := false
	o.Enqueue("late", func(ctx context.Context) error {
		ran = true
		return nil
	})
	o.Close()

	if ran {
		t.Fatal("expected job enqueued after close to be dropped")
	}
}
