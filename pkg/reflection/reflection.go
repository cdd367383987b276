// Package reflection periodically distills the memory stream into
// higher-level insights.
//
// Two triggers are evaluated on every cognitive tick. The primary trigger
// accumulates the importance of each new observation or reflection memory
// and fires when the running sum reaches a threshold, resetting the sum. The
// fallback trigger fires when enough memories and enough time have
// accumulated without an importance-sum firing.
//
// When fired, generation runs as a background task with its own error
// boundary: the trigger check never awaits it, so a slow or failing language
// model cannot stall the decision loop. Completed nodes are published on a
// buffered channel the loop may optionally drain.
//
// Without a language model the engine produces deterministic insights from
// fixed pattern detectors over memory text; that path never depends on
// randomness.
package reflection

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mazemind/mazemind/pkg/llm"
	"github.com/mazemind/mazemind/pkg/memory"
	"github.com/mazemind/mazemind/pkg/retrieval"
)

// Config holds the reflection trigger and synthesis tunables.
type Config struct {
	// ImportanceThreshold is the running-sum value that fires reflection.
	ImportanceThreshold float64

	// MinMemories and MinInterval gate the time-based fallback trigger:
	// both must be satisfied for it to fire.
	MinMemories int
	MinInterval time.Duration

	// FocusCount is how many of the most important unreflected memories
	// seed question generation.
	FocusCount int

	// QuestionCount caps the open-ended questions per reflection round.
	QuestionCount int

	// RetrieveK is how many memories are retrieved per question.
	RetrieveK int

	// MetaMin is the number of recent level-1 nodes that triggers one
	// level-2 meta-reflection.
	MetaMin int
}

// DefaultConfig returns the default reflection tunables.
func DefaultConfig() Config {
	return Config{
		ImportanceThreshold: 150,
		MinMemories:         20,
		MinInterval:         time.Hour,
		FocusCount:          5,
		QuestionCount:       3,
		RetrieveK:           5,
		MetaMin:             3,
	}
}

// heuristicQuestions is the fixed question set used when no language model
// is configured.
var heuristicQuestions = []string{
	"What patterns have emerged in my recent experiences?",
	"What have I learned about this maze so far?",
	"What strategies have worked or failed for me?",
}

// Engine owns the reflection triggers, the reflection tree, and background
// generation.
type Engine struct {
	stream    *memory.Stream
	retriever *retrieval.Engine
	model     llm.LanguageModel
	cfg       Config
	logger    zerolog.Logger

	mu            sync.Mutex
	importanceSum float64
	lastFired     time.Time
	running       bool
	reflected     map[string]struct{}
	sinceMeta     int

	tree    *Tree
	results chan []*Node

	// wg lets tests wait for background generation to finish.
	wg sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates a reflection engine. model may be nil; the engine then always
// uses its deterministic heuristic path.
func New(stream *memory.Stream, retriever *retrieval.Engine, model llm.LanguageModel, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		stream:    stream,
		retriever: retriever,
		model:     model,
		cfg:       cfg,
		logger:    zerolog.Nop(),
		reflected: make(map[string]struct{}),
		tree:      NewTree(),
		results:   make(chan []*Node, 8),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tree returns the reflection tree.
func (e *Engine) Tree() *Tree { return e.tree }

// Results returns the channel on which completed reflection rounds are
// published. The channel is buffered; rounds are dropped, not blocked on,
// when nobody drains it.
func (e *Engine) Results() <-chan []*Node { return e.results }

// ObserveRecord accumulates importance from new observation and reflection
// memories. Wire it to the stream's on-add hook.
func (e *Engine) ObserveRecord(rec *memory.Record) {
	if rec.Kind != memory.KindObservation && rec.Kind != memory.KindReflection {
		return
	}
	e.mu.Lock()
	e.importanceSum += float64(rec.Importance)
	e.mu.Unlock()
}

// ImportanceSum returns the current running sum.
func (e *Engine) ImportanceSum() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.importanceSum
}

// Check evaluates the reflection triggers at the given simulated time and,
// if one fires, schedules generation in the background. It returns whether
// a reflection round was started. Check never blocks on generation.
func (e *Engine) Check(ctx context.Context, simTime time.Time) bool {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return false
	}
	if e.lastFired.IsZero() {
		// First tick establishes the baseline for the time trigger.
		e.lastFired = simTime
	}

	fired := false
	switch {
	case e.importanceSum >= e.cfg.ImportanceThreshold:
		e.importanceSum = 0
		fired = true
	case e.stream.Len() >= e.cfg.MinMemories && simTime.Sub(e.lastFired) >= e.cfg.MinInterval:
		fired = true
	}
	if !fired {
		e.mu.Unlock()
		return false
	}
	e.lastFired = simTime
	e.running = true
	e.mu.Unlock()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error().Interface("panic", r).Msg("reflection generation panicked")
			}
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
		}()
		nodes := e.generate(ctx, simTime)
		if len(nodes) == 0 {
			return
		}
		select {
		case e.results <- nodes:
		default:
			e.logger.Debug().Int("nodes", len(nodes)).Msg("reflection results dropped, channel full")
		}
	}()
	return true
}

// Wait blocks until any in-flight background generation completes.
// Exposed for tests and orderly shutdown.
func (e *Engine) Wait() { e.wg.Wait() }

// generate runs one full reflection round. Any failure inside the enhanced
// path falls back to the basic reflection path rather than aborting.
func (e *Engine) generate(ctx context.Context, simTime time.Time) []*Node {
	focus := e.focusMemories()
	if len(focus) == 0 {
		return nil
	}

	nodes, err := e.enhancedReflection(ctx, simTime, focus)
	if err != nil {
		e.logger.Warn().Err(err).Msg("enhanced reflection failed, using basic path")
		nodes = []*Node{e.basicReflection(simTime, focus)}
	}

	for _, n := range nodes {
		e.store(n)
	}

	if meta := e.maybeMetaReflect(ctx, simTime); meta != nil {
		e.store(meta)
		nodes = append(nodes, meta)
	}
	return nodes
}

// focusMemories selects up to FocusCount of the most important memories not
// yet used as reflection sources.
func (e *Engine) focusMemories() []*memory.Record {
	e.mu.Lock()
	defer e.mu.Unlock()

	var candidates []*memory.Record
	for _, rec := range e.stream.GetAll() {
		if rec.Kind == memory.KindPlan {
			continue
		}
		if _, done := e.reflected[rec.ID]; done {
			continue
		}
		candidates = append(candidates, rec)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Importance > candidates[j].Importance
	})
	if len(candidates) > e.cfg.FocusCount {
		candidates = candidates[:e.cfg.FocusCount]
	}
	return candidates
}

// enhancedReflection is the question-driven path: generate questions about
// the focus memories, retrieve per question, and synthesize one level-1 node
// per question.
func (e *Engine) enhancedReflection(ctx context.Context, simTime time.Time, focus []*memory.Record) ([]*Node, error) {
	questions := e.generateQuestions(ctx, focus)
	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions generated")
	}

	var nodes []*Node
	for _, q := range questions {
		retrieved := e.retriever.Retrieve(ctx, q, e.cfg.RetrieveK, 1.0)

		sources := focus
		for _, res := range retrieved {
			sources = append(sources, res.Record)
		}
		sources = uniqueRecords(sources)

		answer, fromModel := llm.GenerateOrFallback(ctx, e.model, e.synthesisPrompt(q, sources), llm.Options{Temperature: 0.7, MaxTokens: 150}, func() string {
			return heuristicInsight(q, sources)
		})
		answer = strings.TrimSpace(answer)
		if answer == "" {
			continue
		}

		confidence := 0.6
		if fromModel {
			confidence = 0.8
		}
		nodes = append(nodes, &Node{
			ID:         uuid.NewString(),
			Text:       answer,
			Level:      1,
			Sources:    recordIDs(sources),
			Importance: derivedImportance(sources),
			Category:   classify(answer, 1),
			Confidence: confidence,
			Question:   q,
			CreatedAt:  simTime,
		})
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("no answers synthesized")
	}
	return nodes, nil
}

// basicReflection is the legacy path: one summary node over the focus set.
func (e *Engine) basicReflection(simTime time.Time, focus []*memory.Record) *Node {
	var sb strings.Builder
	sb.WriteString("Thinking back over what stands out: ")
	for i, rec := range focus {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(rec.Description)
	}
	return &Node{
		ID:         uuid.NewString(),
		Text:       sb.String(),
		Level:      1,
		Sources:    recordIDs(focus),
		Importance: derivedImportance(focus),
		Category:   CategoryPattern,
		Confidence: 0.5,
		CreatedAt:  simTime,
	}
}

// store puts the node in the tree, writes it to the memory stream as a
// reflection record with a back-reference tag, and marks its sources as
// reflected on.
func (e *Engine) store(n *Node) {
	e.tree.Add(n)

	tags := []string{fmt.Sprintf("level:%d", n.Level), string(n.Category)}
	if len(n.Sources) > 0 {
		tags = append(tags, memory.TagDerivedFrom+strings.Join(n.Sources, ","))
	}
	e.stream.AddReflection(n.Text, n.Importance, tags, nil)

	e.mu.Lock()
	for _, id := range n.Sources {
		e.reflected[id] = struct{}{}
	}
	if n.Level == 1 {
		e.sinceMeta++
	}
	e.mu.Unlock()

	e.logger.Debug().Int("level", n.Level).Str("category", string(n.Category)).
		Float64("confidence", n.Confidence).Msg("reflection stored")
}

// maybeMetaReflect synthesizes one level-2 node when enough level-1 nodes
// have accumulated since the last meta-reflection.
func (e *Engine) maybeMetaReflect(ctx context.Context, simTime time.Time) *Node {
	e.mu.Lock()
	if e.sinceMeta < e.cfg.MetaMin {
		e.mu.Unlock()
		return nil
	}
	e.sinceMeta = 0
	e.mu.Unlock()

	level1 := e.tree.Level(1)
	n := e.cfg.MetaMin
	if len(level1) < n {
		n = len(level1)
	}
	recent := level1[len(level1)-n:]

	var lines []string
	ids := make([]string, 0, len(recent))
	maxImp := 1
	for _, node := range recent {
		lines = append(lines, "- "+node.Text)
		ids = append(ids, node.ID)
		if node.Importance > maxImp {
			maxImp = node.Importance
		}
	}

	prompt := "These are my recent reflections:\n" + strings.Join(lines, "\n") +
		"\nSummarize the overarching theme in one or two sentences, first person."
	text, fromModel := llm.GenerateOrFallback(ctx, e.model, prompt, llm.Options{Temperature: 0.7, MaxTokens: 100}, func() string {
		return "Stepping back, my recent insights point the same way: " + summarizeTexts(recent)
	})

	confidence := 0.6
	if fromModel {
		confidence = 0.8
	}
	return &Node{
		ID:         uuid.NewString(),
		Text:       strings.TrimSpace(text),
		Level:      2,
		Sources:    ids,
		Importance: clampImp(maxImp + 1),
		Category:   CategoryMeta,
		Confidence: confidence,
		CreatedAt:  simTime,
	}
}

// generateQuestions produces up to QuestionCount open-ended questions about
// the focus memories.
func (e *Engine) generateQuestions(ctx context.Context, focus []*memory.Record) []string {
	var sb strings.Builder
	sb.WriteString("Given these recent memories:\n")
	for _, rec := range focus {
		fmt.Fprintf(&sb, "- %s\n", rec.Description)
	}
	fmt.Fprintf(&sb, "Write %d open-ended questions, one per line, that would help me understand my situation.", e.cfg.QuestionCount)

	raw, fromModel := llm.GenerateOrFallback(ctx, e.model, sb.String(), llm.Options{Temperature: 0.8, MaxTokens: 120}, func() string {
		return strings.Join(heuristicQuestions, "\n")
	})
	if !fromModel {
		return heuristicQuestions[:min(e.cfg.QuestionCount, len(heuristicQuestions))]
	}

	var questions []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "0123456789.-) "))
		if line == "" || !strings.HasSuffix(line, "?") {
			continue
		}
		questions = append(questions, line)
		if len(questions) == e.cfg.QuestionCount {
			break
		}
	}
	if len(questions) == 0 {
		return heuristicQuestions[:min(e.cfg.QuestionCount, len(heuristicQuestions))]
	}
	return questions
}

// synthesisPrompt builds the answer-generation prompt for one question.
func (e *Engine) synthesisPrompt(question string, sources []*memory.Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\nRelevant memories:\n", question)
	for _, rec := range sources {
		fmt.Fprintf(&sb, "- %s\n", rec.Description)
	}
	sb.WriteString("Answer the question as a first-person insight in one or two sentences.")
	return sb.String()
}

func recordIDs(recs []*memory.Record) []string {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	return ids
}

func uniqueRecords(recs []*memory.Record) []*memory.Record {
	seen := make(map[string]struct{}, len(recs))
	out := recs[:0]
	for _, r := range recs {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

// derivedImportance is one above the most important source, clamped.
func derivedImportance(sources []*memory.Record) int {
	maxImp := 1
	for _, r := range sources {
		if r.Importance > maxImp {
			maxImp = r.Importance
		}
	}
	return clampImp(maxImp + 1)
}

func clampImp(v int) int {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}

func summarizeTexts(nodes []*Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.Text
	}
	return strings.Join(parts, " ")
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
