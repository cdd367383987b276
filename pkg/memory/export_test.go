package memory

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mazemind/mazemind/pkg/world"
)

func TestExportImportRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	src := NewStream(0, WithClock(fixedClock(now)))
	obs := src.AddObservation("found a spring", 7, []string{"resource", "water"}, &world.Point{X: 4, Y: 2})
	src.AddReflection("water spots matter", 8, nil, nil)
	src.SetEmbedding(obs.ID, []float32{0.5, -0.25, 1})

	var buf bytes.Buffer
	if err := src.ExportJSON(&buf); err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}

	dst := NewStream(0)
	if err := dst.ImportJSON(&buf); err != nil {
		t.Fatalf("ImportJSON() error = %v", err)
	}

	if dst.Len() != src.Len() {
		t.Fatalf("Len = %d, want %d", dst.Len(), src.Len())
	}
	got := dst.GetByID(obs.ID)
	if got == nil {
		t.Fatal("imported stream is missing the observation by id")
	}
	if got.Description != obs.Description || got.Importance != obs.Importance {
		t.Errorf("record = %q/%d, want %q/%d", got.Description, got.Importance, obs.Description, obs.Importance)
	}
	if got.Location == nil || *got.Location != (world.Point{X: 4, Y: 2}) {
		t.Errorf("Location = %v, want (4,2)", got.Location)
	}
	if len(got.Embedding) != 3 || got.Embedding[2] != 1 {
		t.Errorf("Embedding = %v, want the exported vector", got.Embedding)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v preserved", got.CreatedAt, now)
	}
}

func TestImportRejectsUnknownVersion(t *testing.T) {
	s := NewStream(0)
	err := s.ImportJSON(strings.NewReader(`{"version": 99, "records": []}`))
	if err == nil {
		t.Fatal("expected an error for an unsupported version")
	}
}

func TestImportReclampsImportance(t *testing.T) {
	s := NewStream(0)
	payload := `{"version": 1, "records": [
		{"id": "x", "description": "tampered", "kind": "observation", "importance": 99,
		 "created_at": "2025-03-01T12:00:00Z", "last_accessed": "2025-03-01T12:00:00Z"}
	]}`
	if err := s.ImportJSON(strings.NewReader(payload)); err != nil {
		t.Fatalf("ImportJSON() error = %v", err)
	}
	if got := s.GetByID("x"); got == nil || got.Importance != 10 {
		t.Errorf("Importance = %v, want re-clamped to 10", got)
	}
}

func TestImportEvictsOverCapacity(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	src := NewStream(0, WithClock(fixedClock(now)))
	for i := 0; i < 5; i++ {
		src.AddObservation("filler", 5, nil, nil)
	}
	var buf bytes.Buffer
	if err := src.ExportJSON(&buf); err != nil {
		t.Fatalf("ExportJSON() error = %v", err)
	}

	dst := NewStream(3, WithClock(fixedClock(now)))
	if err := dst.ImportJSON(&buf); err != nil {
		t.Fatalf("ImportJSON() error = %v", err)
	}
	if dst.Len() != 3 {
		t.Errorf("Len = %d, want capacity 3", dst.Len())
	}
}

func TestRestorePreservesIdentity(t *testing.T) {
	s := NewStream(0)
	records := []*Record{
		{ID: "aaa", Description: "first", Kind: KindObservation, Importance: 5,
			CreatedAt: time.Now(), LastAccessed: time.Now()},
		nil,
		{ID: "", Description: "dropped", Kind: KindObservation, Importance: 5},
	}
	s.Restore(records)

	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (nil and id-less records dropped)", s.Len())
	}
	if s.GetByID("aaa") == nil {
		t.Error("restored record should keep its original id")
	}
}
