package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mazemind/mazemind/pkg/memory"
	"github.com/mazemind/mazemind/pkg/world"
)

func newArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return a
}

func TestSaveLoadRoundTrip(t *testing.T) {
	archive := newArchive(t)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	stream := memory.NewStream(0, memory.WithClock(func() time.Time { return now }))
	obs := stream.AddObservation("found a spring", 7, []string{"resource", "water"}, &world.Point{X: 4, Y: 2})
	stream.AddReflection("water spots matter", 8, nil, nil)
	plain := stream.AddPlan("head east", 5, nil, nil)
	stream.SetEmbedding(obs.ID, []float32{0.5, -0.25, 1})

	ctx := context.Background()
	if err := archive.Save(ctx, stream); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	records, err := archive.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("loaded %d records, want 3", len(records))
	}

	byID := make(map[string]*memory.Record)
	for _, r := range records {
		byID[r.ID] = r
	}

	got, ok := byID[obs.ID]
	if !ok {
		t.Fatal("observation missing from loaded records")
	}
	if got.Description != obs.Description || got.Kind != memory.KindObservation || got.Importance != 7 {
		t.Errorf("record = %q/%v/%d", got.Description, got.Kind, got.Importance)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "resource" {
		t.Errorf("Tags = %v, want [resource water]", got.Tags)
	}
	if got.Location == nil || *got.Location != (world.Point{X: 4, Y: 2}) {
		t.Errorf("Location = %v, want (4,2)", got.Location)
	}
	if len(got.Embedding) != 3 || got.Embedding[1] != -0.25 {
		t.Errorf("Embedding = %v, want the saved vector", got.Embedding)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, now)
	}

	if loc := byID[plain.ID].Location; loc != nil {
		t.Errorf("plan Location = %v, want nil preserved", loc)
	}
	if emb := byID[plain.ID].Embedding; emb != nil {
		t.Errorf("plan Embedding = %v, want nil preserved", emb)
	}
}

func TestSaveReplacesPreviousSnapshot(t *testing.T) {
	archive := newArchive(t)
	ctx := context.Background()

	first := memory.NewStream(0)
	first.AddObservation("stale", 5, nil, nil)
	first.AddObservation("also stale", 5, nil, nil)
	if err := archive.Save(ctx, first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	second := memory.NewStream(0)
	second.AddObservation("fresh", 5, nil, nil)
	if err := archive.Save(ctx, second); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	records, err := archive.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 1 || records[0].Description != "fresh" {
		t.Errorf("loaded %d records, want only the fresh snapshot", len(records))
	}
}

func TestLoadEmptyArchive(t *testing.T) {
	archive := newArchive(t)
	records, err := archive.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("loaded %d records from an empty archive, want 0", len(records))
	}
}

func TestRestoreFromArchive(t *testing.T) {
	archive := newArchive(t)
	ctx := context.Background()

	src := memory.NewStream(0)
	rec := src.AddObservation("persisted", 6, nil, nil)
	if err := archive.Save(ctx, src); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	records, err := archive.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	dst := memory.NewStream(0)
	dst.Restore(records)

	if dst.GetByID(rec.ID) == nil {
		t.Error("restored stream should retain the original id")
	}
}
