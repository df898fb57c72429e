package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redigo "github.com/gomodule/redigo/redis"
)

func newRedigoStore(t *testing.T) (*Redigo, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run: %v", err)
	}
	t.Cleanup(mr.Close)
	pool := &redigo.Pool{
		Dial: func() (redigo.Conn, error) {
			return redigo.Dial("tcp", mr.Addr())
		},
	}
	t.Cleanup(func() { _ = pool.Close() })
	return NewRedigo(pool), mr
}

func TestRedigoSetIfAbsent(t *testing.T) {
	s, _ := newRedigoStore(t)
	ctx := context.Background()

	ok, err := s.SetIfAbsent(ctx, "k", "v1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first set: ok %v err %v", ok, err)
	}
	if ok, err := s.SetIfAbsent(ctx, "k", "v2", time.Minute); err != nil || ok {
		t.Fatalf("second set should fail, ok %v err %v", ok, err)
	}
	v, found, err := s.Get(ctx, "k")
	if err != nil || !found || v != "v1" {
		t.Fatalf("get: %q found %v err %v", v, found, err)
	}
}

func TestRedigoDeleteIfEquals(t *testing.T) {
	s, _ := newRedigoStore(t)
	ctx := context.Background()
	_, _ = s.SetIfAbsent(ctx, "k", "v1", time.Minute)

	if ok, err := s.DeleteIfEquals(ctx, "k", "other"); err != nil || ok {
		t.Fatalf("mismatched delete should be a no-op, ok %v err %v", ok, err)
	}
	if ok, err := s.DeleteIfEquals(ctx, "k", "v1"); err != nil || !ok {
		t.Fatalf("matching delete: ok %v err %v", ok, err)
	}
	if _, found, _ := s.Get(ctx, "k"); found {
		t.Fatal("entry should be gone")
	}
}

func TestRedigoTTLExpires(t *testing.T) {
	s, mr := newRedigoStore(t)
	ctx := context.Background()
	if ok, _ := s.SetIfAbsent(ctx, "k", "v1", time.Second); !ok {
		t.Fatal("set failed")
	}
	mr.FastForward(2 * time.Second)
	if ok, _ := s.SetIfAbsent(ctx, "k", "v2", time.Second); !ok {
		t.Fatal("key should be acquirable after expiry")
	}
}
