package coordination

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLockerExclusive(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	release, ok, err := l.TryLock(ctx, "campaign:1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first lock, got ok=%v err=%v", ok, err)
	}

	if _, ok, _ := l.TryLock(ctx, "campaign:1", time.Minute); ok {
		t.Fatal("expected second lock on same key to fail")
	}
	if _, ok, _ := l.TryLock(ctx, "campaign:2", time.Minute); !ok {
		t.Fatal("expected lock on different key to succeed")
	}

	release()
	if _, ok, _ := l.TryLock(ctx, "campaign:1", time.Minute); !ok {
		t.Fatal("expected lock after release")
	}
}

func TestMemoryLockerExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLocker()
	l.clock = func() time.Time { return now }

	if _, ok, _ := l.TryLock(context.Background(), "k", time.Minute); !ok {
		t.Fatal("expected lock")
	}
	now = now.Add(2 * time.Minute)
	if _, ok, _ := l.TryLock(context.Background(), "k", time.Minute); !ok {
		t.Fatal("expected expired lock to be retaken")
	}
}

func TestMemorySuppressorWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemorySuppressor()
	s.clock = func() time.Time { return now }
	ctx := context.Background()

	if ok, _ := s.Allow(ctx, "variant:9", 24*time.Hour); !ok {
		t.Fatal("expected first event to fire")
	}
	now = now.Add(23 * time.Hour)
	if ok, _ := s.Allow(ctx, "variant:9", 24*time.Hour); ok {
		t.Fatal("expected event inside window to be suppressed")
	}
	if ok, _ := s.Allow(ctx, "variant:10", 24*time.Hour); !ok {
		t.Fatal("expected other key to fire")
	}
	now = now.Add(2 * time.Hour)
	if ok, _ := s.Allow(ctx, "variant:9", 24*time.Hour); !ok {
		t.Fatal("expected event after window to fire")
	}
}
