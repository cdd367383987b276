// Package memory implements the character's memory stream: an append-only,
// capacity-bounded store of timestamped, importance-scored records.
//
// Records are created by perception, planning, and reflection writers and are
// never mutated afterwards except for their last-accessed time, their lazily
// computed embedding, and tag additions. When the stream exceeds its capacity
// the lowest-retention records are evicted silently; retention favours
// important and fresh memories over old, unimportant ones.
package memory

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/mazemind/mazemind/pkg/world"
)

// Kind categorizes a memory record.
type Kind string

const (
	KindObservation Kind = "observation"
	KindReflection  Kind = "reflection"
	KindPlan        Kind = "plan"
)

// TagReflection marks records written by the reflection engine.
const TagReflection = "reflection"

// TagDerivedFrom prefixes the back-reference tag that encodes the ids of the
// memories a reflection was derived from, comma-separated.
const TagDerivedFrom = "derived-from:"

// Record is a single unit of experience.
type Record struct {
	ID           string       `json:"id"`
	Description  string       `json:"description"`
	Kind         Kind         `json:"kind"`
	Importance   int          `json:"importance"`
	Tags         []string     `json:"tags,omitempty"`
	Location     *world.Point `json:"location,omitempty"`
	Embedding    []float32    `json:"embedding,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	LastAccessed time.Time    `json:"last_accessed"`
}

// HasTag reports whether the record carries the exact tag.
func (r *Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// DerivedFrom returns the memory ids encoded in the record's back-reference
// tag, or nil when the record has none.
func (r *Record) DerivedFrom() []string {
	for _, t := range r.Tags {
		if rest, ok := strings.CutPrefix(t, TagDerivedFrom); ok && rest != "" {
			return strings.Split(rest, ",")
		}
	}
	return nil
}

// Statistics summarizes the stream contents.
type Statistics struct {
	Count          int          `json:"count"`
	ByKind         map[Kind]int `json:"by_kind"`
	Embedded       int          `json:"embedded"`
	MeanImportance float64      `json:"mean_importance"`
}

// Stream is the append-only memory store. It is owned exclusively by one
// character's cognitive loop; the internal lock only guards against the
// background reflection task reading while the loop writes.
type Stream struct {
	mu       sync.RWMutex
	capacity int
	records  []*Record
	byID     map[string]*Record

	now     func() time.Time
	logger  zerolog.Logger
	onAdd   func(*Record)
	onEvict func(*Record)
}

// Option configures a Stream.
type Option func(*Stream)

// WithClock overrides the wall clock, letting tests control recency.
func WithClock(now func() time.Time) Option {
	return func(s *Stream) { s.now = now }
}

// WithLogger sets the stream's logger. Default is a disabled logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Stream) { s.logger = l }
}

// WithOnAdd registers a hook invoked after every successful insert.
// The reflection engine uses this to accumulate its importance sum.
func WithOnAdd(fn func(*Record)) Option {
	return func(s *Stream) { s.onAdd = fn }
}

// WithOnEvict registers a hook invoked for every evicted record.
func WithOnEvict(fn func(*Record)) Option {
	return func(s *Stream) { s.onEvict = fn }
}

// NewStream creates a stream bounded to capacity records. A capacity of
// zero or less means unbounded.
func NewStream(capacity int, opts ...Option) *Stream {
	s := &Stream{
		capacity: capacity,
		byID:     make(map[string]*Record),
		now:      time.Now,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// clampImportance forces importance into the [1,10] range.
func clampImportance(imp int) int {
	if imp < 1 {
		return 1
	}
	if imp > 10 {
		return 10
	}
	return imp
}

// add creates and stores a record, evicting if over capacity.
func (s *Stream) add(kind Kind, description string, importance int, tags []string, loc *world.Point) *Record {
	s.mu.Lock()

	now := s.now()
	rec := &Record{
		ID:           ulid.Make().String(),
		Description:  description,
		Kind:         kind,
		Importance:   clampImportance(importance),
		Tags:         dedupeTags(tags),
		Location:     loc,
		CreatedAt:    now,
		LastAccessed: now,
	}
	s.records = append(s.records, rec)
	s.byID[rec.ID] = rec

	evicted := s.evictOverCapacity(now)
	s.mu.Unlock()

	for _, ev := range evicted {
		s.logger.Debug().Str("id", ev.ID).Str("kind", string(ev.Kind)).
			Int("importance", ev.Importance).Msg("memory evicted")
		if s.onEvict != nil {
			s.onEvict(ev)
		}
	}
	if s.onAdd != nil {
		s.onAdd(rec)
	}
	return rec
}

// retentionScore combines recency (exponential decay on a 24h scale) and
// normalized importance. Low scores are evicted first.
func retentionScore(r *Record, now time.Time) float64 {
	hours := now.Sub(r.CreatedAt).Hours()
	if hours < 0 {
		hours = 0
	}
	recency := math.Exp(-hours / 24)
	return 0.4*recency + 0.6*float64(r.Importance)/10
}

// evictOverCapacity removes the lowest-retention records until the stream is
// back at capacity. Ties evict the oldest record first. Caller holds the lock.
func (s *Stream) evictOverCapacity(now time.Time) []*Record {
	if s.capacity <= 0 || len(s.records) <= s.capacity {
		return nil
	}

	type scored struct {
		rec   *Record
		score float64
		order int
	}
	ranked := make([]scored, len(s.records))
	for i, r := range s.records {
		ranked[i] = scored{rec: r, score: retentionScore(r, now), order: i}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score < ranked[j].score
		}
		return ranked[i].order < ranked[j].order
	})

	toEvict := len(s.records) - s.capacity
	evicted := make([]*Record, 0, toEvict)
	drop := make(map[string]struct{}, toEvict)
	for _, sc := range ranked[:toEvict] {
		drop[sc.rec.ID] = struct{}{}
		evicted = append(evicted, sc.rec)
		delete(s.byID, sc.rec.ID)
	}

	kept := s.records[:0]
	for _, r := range s.records {
		if _, gone := drop[r.ID]; !gone {
			kept = append(kept, r)
		}
	}
	s.records = kept
	return evicted
}

// dedupeTags returns tags with empty strings and duplicates removed,
// preserving first-seen order.
func dedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, dup := seen[t]; dup || t == "" {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// AddObservation stores a perception record.
func (s *Stream) AddObservation(description string, importance int, tags []string, loc *world.Point) *Record {
	return s.add(KindObservation, description, importance, tags, loc)
}

// AddReflection stores a synthesized insight. The reflection marker tag is
// always present regardless of the tags supplied.
func (s *Stream) AddReflection(description string, importance int, tags []string, loc *world.Point) *Record {
	return s.add(KindReflection, description, importance, append([]string{TagReflection}, tags...), loc)
}

// AddPlan stores a planning record.
func (s *Stream) AddPlan(description string, importance int, tags []string, loc *world.Point) *Record {
	return s.add(KindPlan, description, importance, tags, loc)
}

// GetAll returns all records in insertion order.
func (s *Stream) GetAll() []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Record(nil), s.records...)
}

// GetByType returns all records of the given kind in insertion order.
func (s *Stream) GetByType(kind Kind) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Record
	for _, r := range s.records {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// GetByTag returns all records carrying the exact tag.
func (s *Stream) GetByTag(tag string) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Record
	for _, r := range s.records {
		if r.HasTag(tag) {
			out = append(out, r)
		}
	}
	return out
}

// GetByID returns the record with the given id, or nil.
func (s *Stream) GetByID(id string) *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id]
}

// GetInTimeRange returns records created within [from, to].
func (s *Stream) GetInTimeRange(from, to time.Time) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Record
	for _, r := range s.records {
		if !r.CreatedAt.Before(from) && !r.CreatedAt.After(to) {
			out = append(out, r)
		}
	}
	return out
}

// GetNearLocation returns records whose location lies within radius of p.
// Records without a location never match.
func (s *Stream) GetNearLocation(p world.Point, radius float64) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r2 := radius * radius
	var out []*Record
	for _, r := range s.records {
		if r.Location == nil {
			continue
		}
		dx := float64(r.Location.X - p.X)
		dy := float64(r.Location.Y - p.Y)
		if dx*dx+dy*dy <= r2 {
			out = append(out, r)
		}
	}
	return out
}

// MarkAccessed refreshes the record's last-accessed time. Unknown ids are a
// logged no-op.
func (s *Stream) MarkAccessed(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		s.logger.Debug().Str("id", id).Msg("markAccessed: unknown id")
		return
	}
	r.LastAccessed = s.now()
}

// AddTags appends tags to an existing record, skipping duplicates.
// Unknown ids are a logged no-op.
func (s *Stream) AddTags(id string, tags ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		s.logger.Debug().Str("id", id).Msg("addTags: unknown id")
		return
	}
	r.Tags = dedupeTags(append(r.Tags, tags...))
}

// SetEmbedding caches an embedding vector on the record. Unknown ids are a
// logged no-op.
func (s *Stream) SetEmbedding(id string, vec []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		s.logger.Debug().Str("id", id).Msg("setEmbedding: unknown id")
		return
	}
	r.Embedding = vec
}

// GetNeedingEmbeddings returns all records without a cached embedding.
func (s *Stream) GetNeedingEmbeddings() []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Record
	for _, r := range s.records {
		if len(r.Embedding) == 0 {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of stored records.
func (s *Stream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Capacity returns the configured maximum record count.
func (s *Stream) Capacity() int { return s.capacity }

// GetStatistics summarizes the stream contents.
func (s *Stream) GetStatistics() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Statistics{
		Count:  len(s.records),
		ByKind: make(map[Kind]int, 3),
	}
	sum := 0
	for _, r := range s.records {
		stats.ByKind[r.Kind]++
		if len(r.Embedding) > 0 {
			stats.Embedded++
		}
		sum += r.Importance
	}
	if stats.Count > 0 {
		stats.MeanImportance = float64(sum) / float64(stats.Count)
	}
	return stats
}
