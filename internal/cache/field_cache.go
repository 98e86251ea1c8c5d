package cache

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/pitchside/pitchside/internal/model"
)

// ErrNoFields is returned by List when both the database and the
// mirror come up empty-handed: the fetch failed and there is no
// snapshot, stale or otherwise, to fall back on.
var ErrNoFields = errors.New("field list unavailable")

// ErrFieldNotFound is returned by GetByID when the id is absent from
// both the mirror and the authoritative field set.
var ErrFieldNotFound = errors.New("field not found")

// FieldSource is the authoritative store of field records, normally
// the MySQL field repository.  The cache only needs the bulk fetch.
type FieldSource interface {
	ListAll(ctx context.Context) ([]model.Field, error)
}

// FieldCache applies the read-path policy on top of a Mirror and a
// FieldSource.  The policy:
//
//  1. When the mirror was refreshed within the validity window, serve
//     it without touching the source.
//  2. Otherwise fetch the full set from the source, replace the mirror
//     wholesale with the fetched snapshot, and serve it.
//  3. When the fetch fails, serve whatever the mirror holds regardless
//     of age; fail only when the mirror is also empty.
//
// ForceRefresh skips steps 1 and 3: it always fetches and surfaces
// fetch errors without falling back to the mirror.
//
// Concurrent calls are not serialized.  Two racing refreshes each
// write a complete snapshot and the last writer wins, which is
// acceptable for reference data that rarely changes.
type FieldCache struct {
	mirror Mirror
	source FieldSource
	window time.Duration
	now    func() time.Time
}

// NewFieldCache builds a cache with the given validity window.  A
// non-positive window defaults to 24 hours.
func NewFieldCache(mirror Mirror, source FieldSource, window time.Duration) *FieldCache {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &FieldCache{mirror: mirror, source: source, window: window, now: time.Now}
}

// List returns the field set according to the read-path policy.
func (c *FieldCache) List(ctx context.Context) ([]model.Field, error) {
	cutoff := c.now().UTC().Add(-c.window)

	// Step 1: a fresh mirror is authoritative for this request.
	n, err := c.mirror.CountValid(ctx, cutoff)
	if err != nil {
		// Mirror failures degrade to "cache empty"; the source decides.
		log.Printf("field-cache: mirror read failed: %v", err)
		n = 0
	}
	if n > 0 {
		fields, _, err := c.mirror.GetAll(ctx)
		if err == nil && len(fields) > 0 {
			return fields, nil
		}
		if err != nil {
			log.Printf("field-cache: mirror snapshot read failed: %v", err)
		}
	}

	// Step 2: fetch from the source and replace the mirror wholesale.
	fields, err := c.source.ListAll(ctx)
	if err == nil {
		if repErr := c.mirror.ReplaceAll(ctx, fields, c.now().UTC()); repErr != nil {
			log.Printf("field-cache: mirror replace failed: %v", repErr)
		}
		return fields, nil
	}

	// Step 3: the fetch failed; serve the mirror no matter how old.
	stale, _, mErr := c.mirror.GetAll(ctx)
	if mErr == nil && len(stale) > 0 {
		log.Printf("field-cache: serving %d stale fields after fetch failure: %v", len(stale), err)
		return stale, nil
	}
	return nil, ErrNoFields
}

// ForceRefresh unconditionally fetches the field set and replaces the
// mirror.  Unlike List it never serves stale data: a fetch failure is
// returned to the caller.
func (c *FieldCache) ForceRefresh(ctx context.Context) ([]model.Field, error) {
	fields, err := c.source.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.mirror.ReplaceAll(ctx, fields, c.now().UTC()); err != nil {
		log.Printf("field-cache: mirror replace failed: %v", err)
	}
	return fields, nil
}

// GetByID serves a single field from the mirror when possible.  A
// mirror miss falls through to List, which applies the normal policy
// and warms the mirror as a side effect.
func (c *FieldCache) GetByID(ctx context.Context, id uint64) (model.Field, error) {
	if f, ok, err := c.mirror.GetByID(ctx, id); err == nil && ok {
		return f, nil
	}
	fields, err := c.List(ctx)
	if err != nil {
		return model.Field{}, err
	}
	for _, f := range fields {
		if f.ID == id {
			return f, nil
		}
	}
	return model.Field{}, ErrFieldNotFound
}
