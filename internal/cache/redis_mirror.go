package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pitchside/pitchside/internal/model"
)

// Redis keys used by the mirror.  The snapshot lives in one hash keyed
// by field id; the manifest is a separate string key holding the
// refresh time in unix milliseconds.
const (
	mirrorHashKey     = "fields:mirror"
	mirrorManifestKey = "fields:refreshed_at"
)

// RedisMirror stores the field snapshot in Redis so that all server
// instances share one mirror.  ReplaceAll runs DEL+HSET+SET in a
// single MULTI/EXEC pipeline, so a reader either sees the previous
// complete snapshot or the new one, never a partial table.
type RedisMirror struct {
	rdb *redis.Client
}

// NewRedisMirror returns a mirror backed by the given client.
func NewRedisMirror(rdb *redis.Client) *RedisMirror {
	return &RedisMirror{rdb: rdb}
}

// GetAll decodes every field in the snapshot hash and reads the
// manifest.  A missing manifest yields a zero time, which any
// threshold comparison treats as stale.
func (m *RedisMirror) GetAll(ctx context.Context) ([]model.Field, time.Time, error) {
	vals, err := m.rdb.HGetAll(ctx, mirrorHashKey).Result()
	if err != nil {
		return nil, time.Time{}, err
	}
	if len(vals) == 0 {
		return nil, time.Time{}, nil
	}
	out := make([]model.Field, 0, len(vals))
	for _, raw := range vals {
		var f model.Field
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			return nil, time.Time{}, err
		}
		out = append(out, f)
	}
	refreshedAt, err := m.manifest(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}
	return out, refreshedAt, nil
}

// CountValid compares the manifest against threshold and returns the
// snapshot size when fresh, zero when stale or empty.
func (m *RedisMirror) CountValid(ctx context.Context, threshold time.Time) (int, error) {
	refreshedAt, err := m.manifest(ctx)
	if err != nil {
		return 0, err
	}
	if refreshedAt.Before(threshold) {
		return 0, nil
	}
	n, err := m.rdb.HLen(ctx, mirrorHashKey).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// ReplaceAll rewrites the snapshot hash and manifest atomically.
func (m *RedisMirror) ReplaceAll(ctx context.Context, fields []model.Field, refreshedAt time.Time) error {
	pairs := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		raw, err := json.Marshal(f)
		if err != nil {
			return err
		}
		pairs = append(pairs, strconv.FormatUint(f.ID, 10), raw)
	}
	_, err := m.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, mirrorHashKey)
		if len(pairs) > 0 {
			pipe.HSet(ctx, mirrorHashKey, pairs...)
		}
		pipe.Set(ctx, mirrorManifestKey, refreshedAt.UnixMilli(), 0)
		return nil
	})
	return err
}

// GetByID does a point lookup into the snapshot hash.
func (m *RedisMirror) GetByID(ctx context.Context, id uint64) (model.Field, bool, error) {
	raw, err := m.rdb.HGet(ctx, mirrorHashKey, strconv.FormatUint(id, 10)).Result()
	if err == redis.Nil {
		return model.Field{}, false, nil
	}
	if err != nil {
		return model.Field{}, false, err
	}
	var f model.Field
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return model.Field{}, false, err
	}
	return f, true, nil
}

func (m *RedisMirror) manifest(ctx context.Context) (time.Time, error) {
	raw, err := m.rdb.Get(ctx, mirrorManifestKey).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}
