package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("expected miss on empty cache")
	}
	if err := m.Set(ctx, "k", []string{"Heat", "Alien"}, time.Hour); err != nil {
		t.Fatal(err)
	}
	got, ok, err := m.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[0] != "Heat" {
		t.Errorf("got %v", got)
	}

	got[0] = "mutated"
	again, _, _ := m.Get(ctx, "k")
	if again[0] != "Heat" {
		t.Error("Get should return a copy")
	}
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	m.Set(ctx, "k", []string{"a"}, time.Minute)
	now = now.Add(59 * time.Second)
	if _, ok, _ := m.Get(ctx, "k"); !ok {
		t.Fatal("entry expired too early")
	}
	now = now.Add(time.Second)
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Fatal("entry should have expired")
	}
	if m.Len() != 0 {
		t.Errorf("expired entry not dropped, len=%d", m.Len())
	}
}

func TestMemoryExpiryKeepsConcurrentSet(t *testing.T) {
	m := NewMemory()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	m.now = func() time.Time { return now }
	ctx := context.Background()
	m.Set(ctx, "k", []string{"stale"}, time.Minute)

	// The first clock read inside Get lands between the read and write locks;
	// a fresh Set happens there.
	now = base.Add(2 * time.Minute)
	refreshed := false
	m.now = func() time.Time {
		if !refreshed {
			refreshed = true
			m.Set(ctx, "k", []string{"fresh"}, time.Hour)
		}
		return now
	}

	got, ok, err := m.Get(ctx, "k")
	if err != nil || !ok || len(got) != 1 || got[0] != "fresh" {
		t.Fatalf("got %v ok=%v err=%v", got, ok, err)
	}
	if again, ok, _ := m.Get(ctx, "k"); !ok || again[0] != "fresh" {
		t.Errorf("fresh entry was dropped: %v ok=%v", again, ok)
	}
}

func TestNewFactory(t *testing.T) {
	if s, err := New(TypeMemory); err != nil || s == nil {
		t.Fatalf("memory: %v", err)
	}
	if _, err := New(TypeRedis); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("redis without client: got %v", err)
	}
	if _, err := New(TypeRedis, WithRedisURL("::not a url")); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("redis with bad url: got %v", err)
	}
	if _, err := New("memcached"); !errors.Is(err, ErrInvalidType) {
		t.Errorf("unknown type: got %v", err)
	}
}

func TestRedisRoundTrip(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	s, err := New(TypeRedis, WithRedisURL(url), WithKeyPrefix("moviebot-test:"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	r := s.(*Redis)
	if err := r.Ping(ctx); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}

	key := "roundtrip-" + time.Now().Format("150405.000")
	if err := s.Set(ctx, key, []string{"Heat", "Alien"}, time.Minute); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Get(ctx, key)
	if err != nil || !ok || len(got) != 2 {
		t.Fatalf("got %v ok=%v err=%v", got, ok, err)
	}
	if _, ok, _ := s.Get(ctx, key+"-missing"); ok {
		t.Error("expected miss")
	}
}
