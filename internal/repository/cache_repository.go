package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/samvidha-portal-api/pkg/errors"
)

// CacheRepository provides JSON caching backed by Redis with an in-process
// fallback. The fallback keeps the app functional when Redis is absent or
// unreachable; entries are last-write-wins with TTL expiry in both tiers.
type CacheRepository struct {
	client   *redis.Client
	logger   *zap.Logger
	fallback *memoryStore
}

// NewCacheRepository constructs a cache repository. client may be nil, in
// which case only the in-process store is used.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{
		client:   client,
		logger:   logger,
		fallback: newMemoryStore(time.Now),
	}
}

// Get retrieves and unmarshals the cached value into the provided destination.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client != nil {
		raw, err := r.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			if err := json.Unmarshal(raw, dest); err != nil {
				return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
			}
			return nil
		case err == redis.Nil:
			return appErrors.ErrCacheMiss
		default:
			r.logger.Warn("redis get failed, using in-process fallback",
				zap.String("key", key), zap.Error(err))
		}
	}

	raw, ok := r.fallback.get(key)
	if !ok {
		return appErrors.ErrCacheMiss
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set marshals the provided value and stores it with the given TTL.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	if r.client != nil {
		if err := r.client.Set(ctx, key, payload, ttl).Err(); err == nil {
			return nil
		} else {
			r.logger.Warn("redis set failed, using in-process fallback",
				zap.String("key", key), zap.Error(err))
		}
	}

	r.fallback.set(key, payload, ttl)
	return nil
}

// Delete removes a key from both tiers.
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	r.fallback.delete(key)
	if r.client != nil {
		if err := r.client.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("redis delete %s: %w", key, err)
		}
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

type memoryEntry struct {
	expiresAt time.Time
	payload   []byte
}

// memoryStore is a minimal TTL map. now is injectable for tests.
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func newMemoryStore(now func() time.Time) *memoryStore {
	return &memoryStore{entries: map[string]memoryEntry{}, now: now}
}

func (m *memoryStore) get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if m.now().After(entry.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return entry.payload, true
}

func (m *memoryStore) set(key string, payload []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{expiresAt: m.now().Add(ttl), payload: payload}
}

func (m *memoryStore) delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}
