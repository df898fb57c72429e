package store

import (
	"context"
	"testing"
	"time"
)

func TestInMemorySetIfAbsent(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	ok, err := s.SetIfAbsent(ctx, "k", "v1", 0)
	if err != nil || !ok {
		t.Fatalf("first set: ok %v err %v", ok, err)
	}
	if ok, err := s.SetIfAbsent(ctx, "k", "v2", 0); err != nil || ok {
		t.Fatalf("second set should fail, ok %v err %v", ok, err)
	}
	v, found, err := s.Get(ctx, "k")
	if err != nil || !found || v != "v1" {
		t.Fatalf("get: %q found %v err %v", v, found, err)
	}
}

func TestInMemoryDeleteIfEquals(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	_, _ = s.SetIfAbsent(ctx, "k", "v1", 0)

	if ok, err := s.DeleteIfEquals(ctx, "k", "other"); err != nil || ok {
		t.Fatalf("mismatched delete should be a no-op, ok %v err %v", ok, err)
	}
	if _, found, _ := s.Get(ctx, "k"); !found {
		t.Fatal("entry must survive a mismatched delete")
	}
	if ok, err := s.DeleteIfEquals(ctx, "k", "v1"); err != nil || !ok {
		t.Fatalf("matching delete: ok %v err %v", ok, err)
	}
	if _, found, _ := s.Get(ctx, "k"); found {
		t.Fatal("entry should be gone")
	}
}

func TestInMemoryTTLExpires(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	if ok, _ := s.SetIfAbsent(ctx, "k", "v1", 20*time.Millisecond); !ok {
		t.Fatal("set failed")
	}
	time.Sleep(40 * time.Millisecond)
	if _, found, _ := s.Get(ctx, "k"); found {
		t.Fatal("entry should have expired")
	}
	if ok, _ := s.SetIfAbsent(ctx, "k", "v2", 0); !ok {
		t.Fatal("key should be acquirable after expiry")
	}
}

func TestInMemoryExpiryDoesNotEvictNewValue(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	_, _ = s.SetIfAbsent(ctx, "k", "v1", 20*time.Millisecond)
	if ok, _ := s.DeleteIfEquals(ctx, "k", "v1"); !ok {
		t.Fatal("delete failed")
	}
	_, _ = s.SetIfAbsent(ctx, "k", "v2", 0)

	time.Sleep(40 * time.Millisecond)
	v, found, _ := s.Get(ctx, "k")
	if !found || v != "v2" {
		t.Fatalf("stale timer evicted the new value: %q found %v", v, found)
	}
}
