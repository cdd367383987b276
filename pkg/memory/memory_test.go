package memory

import (
	"testing"
	"time"

	"github.com/mazemind/mazemind/pkg/world"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestImportanceClamping(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{name: "below range", in: 0, want: 1},
		{name: "negative", in: -5, want: 1},
		{name: "in range", in: 7, want: 7},
		{name: "above range", in: 15, want: 10},
	}

	s := NewStream(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.AddObservation("saw something", tt.in, nil, nil)
			if rec.Importance != tt.want {
				t.Errorf("Importance = %d, want %d", rec.Importance, tt.want)
			}
		})
	}
}

func TestAddAssignsIdentityAndTimestamps(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewStream(0, WithClock(fixedClock(now)))

	rec := s.AddObservation("found a junction", 5, []string{"spatial", "spatial", ""}, &world.Point{X: 2, Y: 3})
	if rec.ID == "" {
		t.Fatal("expected a generated id")
	}
	if !rec.CreatedAt.Equal(now) || !rec.LastAccessed.Equal(now) {
		t.Errorf("timestamps = %v/%v, want %v", rec.CreatedAt, rec.LastAccessed, now)
	}
	if len(rec.Tags) != 1 || rec.Tags[0] != "spatial" {
		t.Errorf("Tags = %v, want deduped [spatial]", rec.Tags)
	}
	if got := s.GetByID(rec.ID); got != rec {
		t.Error("GetByID did not return the stored record")
	}
}

func TestReflectionAlwaysTagged(t *testing.T) {
	s := NewStream(0)
	rec := s.AddReflection("I keep circling back", 6, []string{"level:1"}, nil)
	if !rec.HasTag(TagReflection) {
		t.Errorf("Tags = %v, want %q present", rec.Tags, TagReflection)
	}
}

func TestEvictionFavorsImportance(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var evicted []string
	s := NewStream(2, WithClock(fixedClock(now)),
		WithOnEvict(func(r *Record) { evicted = append(evicted, r.ID) }))

	low1 := s.AddObservation("a wall", 2, nil, nil)
	high := s.AddObservation("found the exit marker", 9, nil, nil)
	low2 := s.AddObservation("another wall", 2, nil, nil)

	// Ties on retention score evict the oldest first.
	if len(evicted) != 1 || evicted[0] != low1.ID {
		t.Fatalf("evicted = %v, want [%s]", evicted, low1.ID)
	}

	low3 := s.AddObservation("yet another wall", 2, nil, nil)
	if len(evicted) != 2 || evicted[1] != low2.ID {
		t.Fatalf("evicted = %v, want second eviction %s", evicted, low2.ID)
	}

	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	if s.GetByID(high.ID) == nil || s.GetByID(low3.ID) == nil {
		t.Error("expected the important record and the newest record to survive")
	}
}

func TestEvictionPrefersFreshOverStale(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	s := NewStream(2, WithClock(func() time.Time { return clock }))

	stale := s.AddObservation("old news", 5, nil, nil)
	clock = clock.Add(48 * time.Hour)
	fresh := s.AddObservation("recent find", 5, nil, nil)
	newest := s.AddObservation("just now", 5, nil, nil)

	if s.GetByID(stale.ID) != nil {
		t.Error("stale record should have been evicted")
	}
	if s.GetByID(fresh.ID) == nil || s.GetByID(newest.ID) == nil {
		t.Error("fresh records should survive eviction")
	}
}

func TestUnboundedStreamNeverEvicts(t *testing.T) {
	s := NewStream(0)
	for i := 0; i < 100; i++ {
		s.AddObservation("step", 1, nil, nil)
	}
	if s.Len() != 100 {
		t.Errorf("Len = %d, want 100", s.Len())
	}
}

func TestQueries(t *testing.T) {
	s := NewStream(0)
	obs := s.AddObservation("saw water pooling", 4, []string{"resource"}, &world.Point{X: 1, Y: 1})
	s.AddPlan("planned to explore", 5, []string{"plan"}, nil)
	refl := s.AddReflection("water matters", 6, nil, nil)

	if got := s.GetByType(KindObservation); len(got) != 1 || got[0].ID != obs.ID {
		t.Errorf("GetByType(observation) = %d records, want the single observation", len(got))
	}
	if got := s.GetByTag(TagReflection); len(got) != 1 || got[0].ID != refl.ID {
		t.Errorf("GetByTag(reflection) = %d records, want the single reflection", len(got))
	}
	if got := s.GetNearLocation(world.Point{X: 2, Y: 2}, 2); len(got) != 1 {
		t.Errorf("GetNearLocation = %d records, want 1", len(got))
	}
	if got := s.GetNearLocation(world.Point{X: 9, Y: 9}, 2); len(got) != 0 {
		t.Errorf("GetNearLocation far away = %d records, want 0", len(got))
	}
}

func TestGetInTimeRange(t *testing.T) {
	clock := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	s := NewStream(0, WithClock(func() time.Time { return clock }))

	s.AddObservation("early", 3, nil, nil)
	clock = clock.Add(2 * time.Hour)
	mid := s.AddObservation("middle", 3, nil, nil)
	clock = clock.Add(2 * time.Hour)
	s.AddObservation("late", 3, nil, nil)

	from := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)
	got := s.GetInTimeRange(from, to)
	if len(got) != 1 || got[0].ID != mid.ID {
		t.Errorf("GetInTimeRange = %d records, want only the middle one", len(got))
	}
}

func TestMarkAccessedUnknownIDIsNoOp(t *testing.T) {
	s := NewStream(0)
	s.MarkAccessed("nonexistent") // must not panic
	s.AddTags("nonexistent", "tag")
	s.SetEmbedding("nonexistent", []float32{1})
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestMarkAccessedRefreshesTimestamp(t *testing.T) {
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewStream(0, WithClock(func() time.Time { return clock }))

	rec := s.AddObservation("something", 5, nil, nil)
	clock = clock.Add(time.Hour)
	s.MarkAccessed(rec.ID)

	if !rec.LastAccessed.Equal(clock) {
		t.Errorf("LastAccessed = %v, want %v", rec.LastAccessed, clock)
	}
	if !rec.CreatedAt.Before(rec.LastAccessed) {
		t.Error("CreatedAt should remain at insertion time")
	}
}

func TestDerivedFrom(t *testing.T) {
	s := NewStream(0)
	rec := s.AddReflection("insight", 5, []string{TagDerivedFrom + "a,b,c"}, nil)
	got := rec.DerivedFrom()
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("DerivedFrom = %v, want [a b c]", got)
	}

	plain := s.AddObservation("no refs", 5, nil, nil)
	if plain.DerivedFrom() != nil {
		t.Error("DerivedFrom on untagged record should be nil")
	}
}

func TestGetNeedingEmbeddings(t *testing.T) {
	s := NewStream(0)
	a := s.AddObservation("first", 5, nil, nil)
	b := s.AddObservation("second", 5, nil, nil)
	s.SetEmbedding(a.ID, []float32{0.1, 0.2})

	got := s.GetNeedingEmbeddings()
	if len(got) != 1 || got[0].ID != b.ID {
		t.Errorf("GetNeedingEmbeddings = %d records, want only the unembedded one", len(got))
	}
}

func TestOnAddHook(t *testing.T) {
	var seen []Kind
	s := NewStream(0, WithOnAdd(func(r *Record) { seen = append(seen, r.Kind) }))
	s.AddObservation("one", 5, nil, nil)
	s.AddPlan("two", 5, nil, nil)

	if len(seen) != 2 || seen[0] != KindObservation || seen[1] != KindPlan {
		t.Errorf("onAdd saw %v, want [observation plan]", seen)
	}
}

func TestGetStatistics(t *testing.T) {
	s := NewStream(0)
	a := s.AddObservation("one", 4, nil, nil)
	s.AddObservation("two", 6, nil, nil)
	s.AddReflection("three", 8, nil, nil)
	s.SetEmbedding(a.ID, []float32{1})

	stats := s.GetStatistics()
	if stats.Count != 3 {
		t.Errorf("Count = %d, want 3", stats.Count)
	}
	if stats.ByKind[KindObservation] != 2 || stats.ByKind[KindReflection] != 1 {
		t.Errorf("ByKind = %v", stats.ByKind)
	}
	if stats.Embedded != 1 {
		t.Errorf("Embedded = %d, want 1", stats.Embedded)
	}
	if stats.MeanImportance != 6 {
		t.Errorf("MeanImportance = %v, want 6", stats.MeanImportance)
	}
}
