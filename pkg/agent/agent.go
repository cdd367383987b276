// Package agent wires the cognitive pipeline together and runs it as a
// single cooperative loop: one planning check, one reflection check, and one
// decision per scheduler tick, never concurrently with itself.
//
// Each agent exclusively owns its mutable state (memory stream, plan
// hierarchy, reflection tree); the host runs one Tick per character per
// scheduler round. Language-model and embedding calls are the only
// suspension points, and the reflection check never awaits its own
// generation.
package agent

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mazemind/mazemind/pkg/decision"
	"github.com/mazemind/mazemind/pkg/llm"
	"github.com/mazemind/mazemind/pkg/memory"
	"github.com/mazemind/mazemind/pkg/planning"
	"github.com/mazemind/mazemind/pkg/reflection"
	"github.com/mazemind/mazemind/pkg/retrieval"
	"github.com/mazemind/mazemind/pkg/world"
)

// Config aggregates the tunables of every pipeline stage.
type Config struct {
	MemoryCapacity int
	Retrieval      retrieval.Config
	Reflection     reflection.Config
	Planning       planning.Config
	Decision       decision.Config
}

// DefaultConfig returns defaults for the whole pipeline.
func DefaultConfig() Config {
	return Config{
		MemoryCapacity: 1000,
		Retrieval:      retrieval.DefaultConfig(),
		Reflection:     reflection.DefaultConfig(),
		Planning:       planning.DefaultConfig(),
		Decision:       decision.DefaultConfig(),
	}
}

// Agent is one character's cognitive core.
type Agent struct {
	stream    *memory.Stream
	retriever *retrieval.Engine
	reflector *reflection.Engine
	planner   *planning.Planner
	decider   *decision.Maker

	survival world.Survival
	maze     world.Maze

	pos      world.Point
	explored map[world.Point]struct{}
	logger   zerolog.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the logger propagated to every pipeline stage.
func WithLogger(l zerolog.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// New builds the full pipeline. model and embedder may be nil; every stage
// then runs on its deterministic fallback path.
func New(cfg Config, model llm.LanguageModel, embedder llm.Embedder,
	survival world.Survival, maze world.Maze, items world.Items, opts ...Option) *Agent {

	a := &Agent{
		survival: survival,
		maze:     maze,
		explored: make(map[world.Point]struct{}),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	// The on-add hook feeds the reflection importance sum; the engine is
	// bound after the stream exists.
	a.stream = memory.NewStream(cfg.MemoryCapacity,
		memory.WithLogger(a.logger),
		memory.WithOnAdd(func(rec *memory.Record) {
			if a.reflector != nil {
				a.reflector.ObserveRecord(rec)
			}
		}),
	)
	a.retriever = retrieval.New(a.stream, embedder, cfg.Retrieval, retrieval.WithLogger(a.logger))
	a.reflector = reflection.New(a.stream, a.retriever, model, cfg.Reflection, reflection.WithLogger(a.logger))
	a.planner = planning.New(model, a.stream, items, cfg.Planning, planning.WithLogger(a.logger))
	a.decider = decision.New(a.planner, a.retriever, a.stream, model, survival, maze, items,
		cfg.Decision, decision.WithLogger(a.logger))

	if maze != nil {
		a.pos = maze.Entrance()
		a.explored[a.pos] = struct{}{}
	}
	return a
}

// Stream returns the agent's memory stream.
func (a *Agent) Stream() *memory.Stream { return a.stream }

// Retriever returns the agent's retrieval engine.
func (a *Agent) Retriever() *retrieval.Engine { return a.retriever }

// Reflector returns the agent's reflection engine.
func (a *Agent) Reflector() *reflection.Engine { return a.reflector }

// Planner returns the agent's planner.
func (a *Agent) Planner() *planning.Planner { return a.planner }

// Position returns the agent's current tile.
func (a *Agent) Position() world.Point { return a.pos }

// ExplorationRatio returns the fraction of maze tiles visited so far.
func (a *Agent) ExplorationRatio() float64 {
	if a.maze == nil {
		return 0
	}
	w, h := a.maze.Bounds()
	if w*h == 0 {
		return 0
	}
	return float64(len(a.explored)) / float64(w*h)
}

// Perceive records an observation at the agent's current position.
func (a *Agent) Perceive(description string, importance int, tags ...string) *memory.Record {
	loc := a.pos
	return a.stream.AddObservation(description, importance, tags, &loc)
}

// Tick runs one full cognitive round at the given simulated time: the
// planning check (with re-plan if a trigger fires), the non-blocking
// reflection check, and one decision. It never returns an error; total
// capability failure degrades to heuristics.
func (a *Agent) Tick(ctx context.Context, simTime time.Time) decision.Decision {
	pc := a.planContext(simTime)

	a.planner.EnsureDecomposed(ctx, pc)
	if reason, fire := a.planner.MonitorForReplanning(pc); fire {
		a.planner.Replan(ctx, reason, pc)
	}

	a.reflector.Check(ctx, simTime)
	a.drainReflections()

	return a.decider.MakeDecision(ctx, simTime, a.pos)
}

// Apply moves the agent according to a move decision, when the step is
// open. Hosts with their own movement system skip this and update the
// agent's position through it instead.
func (a *Agent) Apply(d decision.Decision) {
	if d.Action != decision.ActMove || a.maze == nil {
		return
	}
	if !world.Open(a.maze, a.pos, d.Direction) {
		a.logger.Debug().Str("direction", string(d.Direction)).Msg("move blocked by wall")
		return
	}
	a.pos = d.Direction.Step(a.pos)
	a.explored[a.pos] = struct{}{}
}

// planContext snapshots everything planning reads this tick.
func (a *Agent) planContext(simTime time.Time) planning.Context {
	pc := planning.Context{
		SimTime:          simTime,
		Position:         a.pos,
		ExplorationRatio: a.ExplorationRatio(),
	}
	if a.survival != nil {
		pc.Survival = a.survival.Snapshot()
	}
	if a.maze != nil {
		pc.Exit = a.maze.Exit()
	}
	recent := a.stream.GetAll()
	n := 5
	if len(recent) < n {
		n = len(recent)
	}
	for _, rec := range recent[len(recent)-n:] {
		pc.RecentMemories = append(pc.RecentMemories, rec.Description)
	}
	return pc
}

// drainReflections polls completed background reflection rounds and logs
// them; the loop never blocks on reflection.
func (a *Agent) drainReflections() {
	for {
		select {
		case nodes := <-a.reflector.Results():
			for _, n := range nodes {
				a.logger.Info().Int("level", n.Level).Str("category", string(n.Category)).
					Str("insight", n.Text).Msg("reflection completed")
			}
		default:
			return
		}
	}
}
