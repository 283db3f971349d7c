package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/phantomguild/system-server/internal/domain/player"
)

func TestPlayerCacheRoundTrip(t *testing.T) {
	c := NewPlayerCache(NewMemoryClient())
	ctx := context.Background()

	p := player.NewPlayer("jin@hunter.io", "jinwoo")
	p.Level = 7
	if err := c.SetPlayer(ctx, p); err != nil {
		t.Fatalf("SetPlayer failed: %v", err)
	}

	got, err := c.GetPlayer(ctx, "jin@hunter.io")
	if err != nil {
		t.Fatalf("GetPlayer failed: %v", err)
	}
	if got.Level != 7 || got.Username != "jinwoo" {
		t.Errorf("Cached snapshot differs: %+v", got)
	}
}

func TestPlayerCacheMiss(t *testing.T) {
	c := NewPlayerCache(NewMemoryClient())

	_, err := c.GetPlayer(context.Background(), "nobody@hunter.io")
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestPlayerCacheInvalidate(t *testing.T) {
	c := NewPlayerCache(NewMemoryClient())
	ctx := context.Background()

	p := player.NewPlayer("jin@hunter.io", "jinwoo")
	if err := c.SetPlayer(ctx, p); err != nil {
		t.Fatalf("SetPlayer failed: %v", err)
	}
	if err := c.Invalidate(ctx, "jin@hunter.io"); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	if _, err := c.GetPlayer(ctx, "jin@hunter.io"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected a miss after invalidation, got %v", err)
	}
}
