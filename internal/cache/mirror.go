// Package cache holds the field mirror and the read-path policy that
// decides when field listings are served from the mirror and when they
// are refetched from the database.  Field records are read-mostly
// reference data, so the policy favors availability over strict
// freshness: an expired mirror is still served when the database is
// unreachable.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pitchside/pitchside/internal/model"
)

// Mirror is the snapshot store holding a full copy of the fields table
// plus a single refreshed-at manifest timestamp for the whole
// snapshot.  One manifest instead of per-record stamps keeps the
// freshness check O(1) and all-or-nothing: a mirror is uniformly fresh
// or uniformly stale.
//
// ReplaceAll must be atomic with respect to readers: GetAll never
// observes a partially written snapshot.  Storage errors are returned
// as-is; the cache policy treats a failing mirror as empty.
type Mirror interface {
	// GetAll returns the mirrored snapshot in arbitrary order together
	// with the manifest timestamp.  An empty mirror returns a nil slice
	// and a zero time.
	GetAll(ctx context.Context) ([]model.Field, time.Time, error)

	// CountValid returns the number of mirrored records whose manifest
	// is at or after threshold.  With a single manifest this is either
	// the full count or zero.
	CountValid(ctx context.Context, threshold time.Time) (int, error)

	// ReplaceAll atomically clears the mirror and repopulates it with
	// the given snapshot, setting the manifest to refreshedAt.
	ReplaceAll(ctx context.Context, fields []model.Field, refreshedAt time.Time) error

	// GetByID returns a single mirrored field, or ok=false when the id
	// is not in the snapshot.
	GetByID(ctx context.Context, id uint64) (model.Field, bool, error)
}

// MemoryMirror is the in-process Mirror used in tests and when Redis
// is unavailable at startup.  A plain RWMutex suffices: ReplaceAll
// swaps the whole map under the write lock, so readers always see a
// complete snapshot.
type MemoryMirror struct {
	mu          sync.RWMutex
	fields      map[uint64]model.Field
	refreshedAt time.Time
}

// NewMemoryMirror returns an empty in-memory mirror.
func NewMemoryMirror() *MemoryMirror {
	return &MemoryMirror{fields: make(map[uint64]model.Field)}
}

// GetAll returns the snapshot and its manifest timestamp.
func (m *MemoryMirror) GetAll(ctx context.Context) ([]model.Field, time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.fields) == 0 {
		return nil, time.Time{}, nil
	}
	out := make([]model.Field, 0, len(m.fields))
	for _, f := range m.fields {
		out = append(out, f)
	}
	return out, m.refreshedAt, nil
}

// CountValid returns len(snapshot) when the manifest is fresh at
// threshold and 0 otherwise.
func (m *MemoryMirror) CountValid(ctx context.Context, threshold time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.refreshedAt.Before(threshold) {
		return 0, nil
	}
	return len(m.fields), nil
}

// ReplaceAll swaps in the new snapshot.
func (m *MemoryMirror) ReplaceAll(ctx context.Context, fields []model.Field, refreshedAt time.Time) error {
	next := make(map[uint64]model.Field, len(fields))
	for _, f := range fields {
		next[f.ID] = f
	}
	m.mu.Lock()
	m.fields = next
	m.refreshedAt = refreshedAt
	m.mu.Unlock()
	return nil
}

// GetByID looks up one field in the snapshot.
func (m *MemoryMirror) GetByID(ctx context.Context, id uint64) (model.Field, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.fields[id]
	return f, ok, nil
}
