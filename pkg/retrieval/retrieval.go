// Package retrieval scores memory records against a text query and returns
// the top-k matches. Each result carries its combined score together with the
// three component scores (recency, importance, relevance) so callers can
// audit and tune the ranking.
//
// Relevance comes from cosine similarity between query and memory embeddings;
// memory embeddings are computed lazily on first use and cached on the
// record. When no embedder is configured, or embedding fails, scoring
// degrades to recency + importance with weights renormalized.
//
// A stress modifier below 1.0 degrades retrieval: the combined score is
// multiplied by it, and under acute stress (modifier < 0.8) uniform random
// noise proportional to the deficit is added. That path is deliberately
// non-deterministic; tests seed the noise source.
package retrieval

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/mazemind/mazemind/pkg/llm"
	"github.com/mazemind/mazemind/pkg/memory"
	"github.com/mazemind/mazemind/pkg/world"
)

// Config holds the tunable scoring parameters.
type Config struct {
	// DecayFactor is the per-hour recency decay base, in (0,1).
	DecayFactor float64

	// RecencyWeight, ImportanceWeight, and RelevanceWeight combine the
	// component scores. Defaults sum to 1.
	RecencyWeight    float64
	ImportanceWeight float64
	RelevanceWeight  float64

	// NoiseThreshold is the stress modifier below which noise is injected.
	NoiseThreshold float64

	// NoiseScale multiplies the (1 - stress) noise magnitude.
	NoiseScale float64
}

// DefaultConfig returns the default scoring parameters.
func DefaultConfig() Config {
	return Config{
		DecayFactor:      0.995,
		RecencyWeight:    0.4,
		ImportanceWeight: 0.3,
		RelevanceWeight:  0.3,
		NoiseThreshold:   0.8,
		NoiseScale:       0.2,
	}
}

// Result is one scored memory returned by a retrieve call.
type Result struct {
	Record     *memory.Record `json:"record"`
	Score      float64        `json:"score"`
	Recency    float64        `json:"recency"`
	Importance float64        `json:"importance"`
	Relevance  float64        `json:"relevance"`
}

// Engine scores and ranks memory records.
type Engine struct {
	stream   *memory.Stream
	embedder llm.Embedder
	cfg      Config
	rng      *rand.Rand
	now      func() time.Time
	logger   zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock used for recency scoring.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRand overrides the stress-noise source, letting tests seed it.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithLogger sets the engine's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates a retrieval engine over the stream. embedder may be nil, in
// which case relevance scoring is skipped entirely.
func New(stream *memory.Stream, embedder llm.Embedder, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		stream:   stream,
		embedder: embedder,
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
		logger:   zerolog.Nop(),
	}
	if e.cfg.DecayFactor <= 0 || e.cfg.DecayFactor >= 1 {
		e.cfg.DecayFactor = DefaultConfig().DecayFactor
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Retrieve returns the top-k records for the query, scored against the whole
// stream. stress is the stress modifier in [0.5, 1.0]; 1.0 means no
// degradation. Each returned record's last-accessed time is refreshed.
func (e *Engine) Retrieve(ctx context.Context, query string, k int, stress float64) []Result {
	return e.score(ctx, e.stream.GetAll(), query, k, stress)
}

// RetrieveByType is Retrieve restricted to records of one kind.
func (e *Engine) RetrieveByType(ctx context.Context, query string, kind memory.Kind, k int, stress float64) []Result {
	return e.score(ctx, e.stream.GetByType(kind), query, k, stress)
}

// RetrieveByLocation is Retrieve restricted to records near a point.
func (e *Engine) RetrieveByLocation(ctx context.Context, query string, p world.Point, radius float64, k int, stress float64) []Result {
	return e.score(ctx, e.stream.GetNearLocation(p, radius), query, k, stress)
}

// score runs the combined recency/importance/relevance ranking over the
// candidate set.
func (e *Engine) score(ctx context.Context, candidates []*memory.Record, query string, k int, stress float64) []Result {
	if k <= 0 || len(candidates) == 0 {
		return []Result{}
	}
	if stress <= 0 || stress > 1 {
		stress = 1.0
	}

	queryVec := e.embedQuery(ctx, query)
	now := e.now()

	alpha, beta, gamma := e.cfg.RecencyWeight, e.cfg.ImportanceWeight, e.cfg.RelevanceWeight

	results := make([]Result, 0, len(candidates))
	for _, rec := range candidates {
		res := Result{Record: rec}
		res.Recency = e.recency(rec, now)
		res.Importance = float64(rec.Importance) / 10

		haveRelevance := false
		if len(queryVec) > 0 {
			if vec := e.recordEmbedding(ctx, rec); len(vec) > 0 {
				// Map cosine similarity from [-1,1] to [0,1].
				res.Relevance = (CosineSimilarity(queryVec, vec) + 1) / 2
				haveRelevance = true
			}
		}

		if haveRelevance {
			res.Score = alpha*res.Recency + beta*res.Importance + gamma*res.Relevance
		} else {
			// Degrade to recency + importance, renormalized so the score
			// stays on the same scale.
			res.Score = (alpha*res.Recency + beta*res.Importance) / (alpha + beta)
		}

		res.Score *= stress
		if stress < e.cfg.NoiseThreshold {
			res.Score += (e.rng.Float64()*2 - 1) * e.cfg.NoiseScale * (1 - stress)
		}

		results = append(results, res)
	}

	// Stable sort keeps insertion order on score ties.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}

	for _, res := range results {
		e.stream.MarkAccessed(res.Record.ID)
	}
	return results
}

// recency returns decayFactor^hoursSinceLastAccess clamped to [0,1].
func (e *Engine) recency(rec *memory.Record, now time.Time) float64 {
	hours := now.Sub(rec.LastAccessed).Hours()
	if hours < 0 {
		hours = 0
	}
	r := math.Pow(e.cfg.DecayFactor, hours)
	if r > 1 {
		r = 1
	}
	if r < 0 {
		r = 0
	}
	return r
}

// embedQuery returns the query embedding, or nil when no query text is
// supplied, no embedder is configured, or the embedder fails. Embedder
// failures degrade scoring rather than failing the retrieve call.
func (e *Engine) embedQuery(ctx context.Context, query string) []float32 {
	if query == "" || e.embedder == nil || !e.embedder.Available() {
		return nil
	}
	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		e.logger.Warn().Err(err).Msg("query embedding failed, degrading to recency+importance")
		return nil
	}
	return vec
}

// recordEmbedding returns the record's embedding, computing and caching it
// lazily on first use.
func (e *Engine) recordEmbedding(ctx context.Context, rec *memory.Record) []float32 {
	if len(rec.Embedding) > 0 {
		return rec.Embedding
	}
	if e.embedder == nil || !e.embedder.Available() {
		return nil
	}
	vec, err := e.embedder.Embed(ctx, rec.Description)
	if err != nil {
		e.logger.Debug().Err(err).Str("id", rec.ID).Msg("memory embedding failed")
		return nil
	}
	e.stream.SetEmbedding(rec.ID, vec)
	return vec
}
