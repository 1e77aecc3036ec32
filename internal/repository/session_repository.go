package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	appErrors "github.com/noah-isme/chapter-participation-api/pkg/errors"
)

type sessionEntry struct {
	payload   []byte
	expiresAt time.Time
}

// MemorySessionRepository keeps JSON-encoded values in process memory with a
// per-entry TTL. It mirrors CacheRepository for single-instance deployments.
type MemorySessionRepository struct {
	mu      sync.Mutex
	entries map[string]sessionEntry
	now     func() time.Time
}

// NewMemorySessionRepository constructs an empty in-memory store.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{entries: make(map[string]sessionEntry), now: time.Now}
}

// Get decodes the value stored under key into dest. Expired or missing
// entries yield ErrCacheMiss.
func (r *MemorySessionRepository) Get(_ context.Context, key string, dest interface{}) error {
	r.mu.Lock()
	entry, ok := r.entries[key]
	if ok && r.expired(entry) {
		delete(r.entries, key)
		ok = false
	}
	r.mu.Unlock()

	if !ok {
		return appErrors.ErrCacheMiss
	}
	if err := json.Unmarshal(entry.payload, dest); err != nil {
		return fmt.Errorf("unmarshal session %s: %w", key, err)
	}
	return nil
}

// Set stores value under key. A non-positive ttl never expires.
func (r *MemorySessionRepository) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", key, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry := sessionEntry{payload: payload}
	if ttl > 0 {
		entry.expiresAt = r.now().Add(ttl)
	}
	r.entries[key] = entry
	r.sweepLocked()
	return nil
}

// Delete removes key if present.
func (r *MemorySessionRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	delete(r.entries, key)
	r.mu.Unlock()
	return nil
}

// Len returns the number of live entries.
func (r *MemorySessionRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	return len(r.entries)
}

func (r *MemorySessionRepository) expired(entry sessionEntry) bool {
	return !entry.expiresAt.IsZero() && !r.now().Before(entry.expiresAt)
}

func (r *MemorySessionRepository) sweepLocked() {
	for key, entry := range r.entries {
		if r.expired(entry) {
			delete(r.entries, key)
		}
	}
}
