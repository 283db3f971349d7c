// Package cache provides Redis-backed caching for quick status reads.
// The cache mirrors the player snapshot for the HTTP status surface;
// the database remains the source of truth.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/phantomguild/system-server/internal/domain/player"
)

// ErrCacheMiss is returned when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// RedisClient is an interface for Redis operations.
// This allows for easy mocking in tests.
type RedisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// PlayerCache provides fast access to player snapshots.
type PlayerCache struct {
	client     RedisClient
	expiration time.Duration
}

// NewPlayerCache creates a new player cache instance.
func NewPlayerCache(client RedisClient) *PlayerCache {
	return &PlayerCache{
		client:     client,
		expiration: 15 * time.Minute,
	}
}

// SetPlayer caches a player snapshot.
func (c *PlayerCache) SetPlayer(ctx context.Context, p *player.Player) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal player: %w", err)
	}
	return c.client.Set(ctx, c.playerKey(p.Email), string(data), c.expiration)
}

// GetPlayer retrieves a cached player snapshot. Returns ErrCacheMiss
// when the key is absent; callers fall through to the database.
func (c *PlayerCache) GetPlayer(ctx context.Context, email string) (*player.Player, error) {
	data, err := c.client.Get(ctx, c.playerKey(email))
	if err != nil {
		return nil, err
	}

	var p player.Player
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player: %w", err)
	}
	return &p, nil
}

// Invalidate removes the cached snapshot for a hunter.
func (c *PlayerCache) Invalidate(ctx context.Context, email string) error {
	return c.client.Del(ctx, c.playerKey(email))
}

// playerKey generates the cache key for a hunter.
func (c *PlayerCache) playerKey(email string) string {
	return fmt.Sprintf("hunter:%s:snapshot", email)
}

// MemoryClient is an in-process RedisClient used when no Redis is
// configured and in tests. Expiration is honored on read.
type MemoryClient struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// NewMemoryClient creates an empty in-memory client.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{entries: make(map[string]memoryEntry)}
}

func (m *MemoryClient) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return "", ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(m.entries, key)
		return "", ErrCacheMiss
	}
	return entry.value, nil
}

func (m *MemoryClient) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expiresAt time.Time
	if expiration > 0 {
		expiresAt = time.Now().Add(expiration)
	}
	m.entries[key] = memoryEntry{value: fmt.Sprint(value), expiresAt: expiresAt}
	return nil
}

func (m *MemoryClient) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

var _ RedisClient = (*MemoryClient)(nil)
