package cache

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/pitchside/pitchside/internal/model"
)

// fakeSource is a scripted FieldSource counting its fetches.
type fakeSource struct {
	fields []model.Field
	err    error
	calls  int
}

func (s *fakeSource) ListAll(ctx context.Context) ([]model.Field, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]model.Field, len(s.fields))
	copy(out, s.fields)
	return out, nil
}

func makeFields(ids ...uint64) []model.Field {
	out := make([]model.Field, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Field{ID: id, Name: "field", Capacity: 10, IsActive: true})
	}
	return out
}

func sortedIDs(fields []model.Field) []uint64 {
	ids := make([]uint64, 0, len(fields))
	for _, f := range fields {
		ids = append(ids, f.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func equalIDs(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// newTestCache builds a cache over a memory mirror with a pinned clock.
func newTestCache(src *fakeSource, window time.Duration, at time.Time) (*FieldCache, *MemoryMirror) {
	mirror := NewMemoryMirror()
	c := NewFieldCache(mirror, src, window)
	c.now = func() time.Time { return at }
	return c, mirror
}

func TestListColdCacheFetchesAndStamps(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{fields: makeFields(1, 2, 3)}
	c, mirror := newTestCache(src, 24*time.Hour, now)

	got, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d fields, want 3", len(got))
	}
	if src.calls != 1 {
		t.Errorf("source fetched %d times, want 1", src.calls)
	}

	snap, stamp, err := mirror.GetAll(context.Background())
	if err != nil {
		t.Fatalf("mirror GetAll: %v", err)
	}
	if len(snap) != 3 {
		t.Errorf("mirror holds %d fields, want 3", len(snap))
	}
	if !stamp.Equal(now) {
		t.Errorf("manifest = %v, want %v", stamp, now)
	}
}

func TestListFreshMirrorSuppressesFetch(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{fields: makeFields(1, 2)}
	c, mirror := newTestCache(src, 24*time.Hour, now)

	// Warm the mirror one hour ago, well within the window.
	if err := mirror.ReplaceAll(context.Background(), makeFields(7, 8), now.Add(-time.Hour)); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	got, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if src.calls != 0 {
		t.Errorf("source fetched %d times, want 0", src.calls)
	}
	if !equalIDs(sortedIDs(got), []uint64{7, 8}) {
		t.Errorf("served ids %v, want mirror snapshot [7 8]", sortedIDs(got))
	}
}

func TestListStaleMirrorRefetches(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{fields: makeFields(1, 2)}
	c, mirror := newTestCache(src, 24*time.Hour, now)

	// Stamp 25 hours ago: one hour past the window.
	if err := mirror.ReplaceAll(context.Background(), makeFields(7, 8, 9), now.Add(-25*time.Hour)); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	got, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if src.calls != 1 {
		t.Errorf("source fetched %d times, want 1", src.calls)
	}
	if !equalIDs(sortedIDs(got), []uint64{1, 2}) {
		t.Errorf("served ids %v, want fresh fetch [1 2]", sortedIDs(got))
	}

	// The old snapshot is gone, not merged.
	snap, stamp, _ := mirror.GetAll(context.Background())
	if !equalIDs(sortedIDs(snap), []uint64{1, 2}) {
		t.Errorf("mirror ids %v, want [1 2]", sortedIDs(snap))
	}
	if !stamp.Equal(now) {
		t.Errorf("manifest = %v, want %v", stamp, now)
	}
}

func TestListServesStaleOnFetchFailure(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{err: errors.New("db down")}
	c, mirror := newTestCache(src, 24*time.Hour, now)

	if err := mirror.ReplaceAll(context.Background(), makeFields(1, 2, 3, 4, 5), now.Add(-48*time.Hour)); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	got, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List should fall back to the stale mirror, got %v", err)
	}
	if !equalIDs(sortedIDs(got), []uint64{1, 2, 3, 4, 5}) {
		t.Errorf("served ids %v, want the 5 stale fields", sortedIDs(got))
	}
}

func TestListFailsOnlyWhenEmptyEverywhere(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{err: errors.New("db down")}
	c, _ := newTestCache(src, 24*time.Hour, now)

	if _, err := c.List(context.Background()); !errors.Is(err, ErrNoFields) {
		t.Fatalf("err = %v, want ErrNoFields", err)
	}
}

func TestForceRefreshReplacesExactly(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{fields: makeFields(1, 3)}
	c, mirror := newTestCache(src, 24*time.Hour, now)

	// Fresh mirror with a different snapshot; List would serve it, but
	// ForceRefresh must bypass it.
	if err := mirror.ReplaceAll(context.Background(), makeFields(7, 8, 9), now); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	got, err := c.ForceRefresh(context.Background())
	if err != nil {
		t.Fatalf("ForceRefresh: %v", err)
	}
	if src.calls != 1 {
		t.Errorf("source fetched %d times, want 1", src.calls)
	}
	if !equalIDs(sortedIDs(got), []uint64{1, 3}) {
		t.Errorf("served ids %v, want [1 3]", sortedIDs(got))
	}
	snap, _, _ := mirror.GetAll(context.Background())
	if !equalIDs(sortedIDs(snap), []uint64{1, 3}) {
		t.Errorf("mirror ids %v, want [1 3]", sortedIDs(snap))
	}
}

func TestForceRefreshNeverServesStale(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{err: errors.New("db down")}
	c, mirror := newTestCache(src, 24*time.Hour, now)

	if err := mirror.ReplaceAll(context.Background(), makeFields(5), now); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if _, err := c.ForceRefresh(context.Background()); err == nil {
		t.Fatal("expected the fetch error, got nil")
	}
	// The existing snapshot stays untouched.
	snap, _, _ := mirror.GetAll(context.Background())
	if !equalIDs(sortedIDs(snap), []uint64{5}) {
		t.Errorf("mirror ids %v, want [5]", sortedIDs(snap))
	}
}

func TestGetByID(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{fields: makeFields(1, 2)}
	c, mirror := newTestCache(src, 24*time.Hour, now)

	t.Run("mirror hit", func(t *testing.T) {
		if err := mirror.ReplaceAll(context.Background(), makeFields(1, 2), now); err != nil {
			t.Fatalf("ReplaceAll: %v", err)
		}
		f, err := c.GetByID(context.Background(), 2)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if f.ID != 2 {
			t.Errorf("got field %d, want 2", f.ID)
		}
		if src.calls != 0 {
			t.Errorf("source fetched %d times, want 0", src.calls)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, err := c.GetByID(context.Background(), 99); !errors.Is(err, ErrFieldNotFound) {
			t.Errorf("err = %v, want ErrFieldNotFound", err)
		}
	})
}

func TestMemoryMirrorCountValid(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	m := NewMemoryMirror()

	n, err := m.CountValid(context.Background(), now.Add(-time.Hour))
	if err != nil || n != 0 {
		t.Errorf("empty mirror CountValid = %d, %v; want 0, nil", n, err)
	}

	if err := m.ReplaceAll(context.Background(), makeFields(1, 2, 3), now); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if n, _ := m.CountValid(context.Background(), now.Add(-time.Hour)); n != 3 {
		t.Errorf("fresh CountValid = %d, want 3", n)
	}
	if n, _ := m.CountValid(context.Background(), now.Add(time.Hour)); n != 0 {
		t.Errorf("stale CountValid = %d, want 0", n)
	}
}
