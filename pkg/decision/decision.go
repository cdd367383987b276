// Package decision arbitrates the character's single next action. A
// priority cascade is evaluated on every call: critical survival overrides
// when the active plan ignores an urgent need, then the active plan action,
// then a reactive model-or-heuristic decision. Every public entry point
// returns a well-formed Decision even under total capability failure.
package decision

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mazemind/mazemind/pkg/llm"
	"github.com/mazemind/mazemind/pkg/memory"
	"github.com/mazemind/mazemind/pkg/planning"
	"github.com/mazemind/mazemind/pkg/retrieval"
	"github.com/mazemind/mazemind/pkg/world"
)

// Action is what the character does next.
type Action string

const (
	ActMove    Action = "move"
	ActWait    Action = "wait"
	ActReflect Action = "reflect"
)

// Decision is a pure value object; it is never persisted.
type Decision struct {
	Action     Action          `json:"action"`
	Direction  world.Direction `json:"direction,omitempty"`
	Reasoning  string          `json:"reasoning"`
	Confidence float64         `json:"confidence"`
}

// wait is the universal fallback decision.
func wait(reasoning string, confidence float64) Decision {
	return Decision{Action: ActWait, Reasoning: reasoning, Confidence: confidence}
}

// Config holds the decision tunables.
type Config struct {
	// MinInterval short-circuits decisions requested faster than this.
	MinInterval time.Duration

	// RetrieveK is how many relevant memories feed the reactive prompt.
	RetrieveK int

	// RecentCount is how many recent memories feed the reactive prompt.
	RecentCount int
}

// DefaultConfig returns the default decision tunables.
func DefaultConfig() Config {
	return Config{
		MinInterval: 3 * time.Second,
		RetrieveK:   3,
		RecentCount: 5,
	}
}

// Maker is the top-level orchestrator for one character.
type Maker struct {
	planner   *planning.Planner
	retriever *retrieval.Engine
	stream    *memory.Stream
	model     llm.LanguageModel
	survival  world.Survival
	maze      world.Maze
	items     world.Items
	cfg       Config
	logger    zerolog.Logger

	now      func() time.Time
	lastCall time.Time

	// replans queues the survival override's re-plan request; the next
	// decision cycle consumes it, so the planner is only ever touched from
	// the loop's own goroutine.
	replans chan planning.ReplanReason
}

// Option configures a Maker.
type Option func(*Maker)

// WithLogger sets the maker's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Maker) { m.logger = l }
}

// WithClock overrides the wall clock used for the minimum interval.
func WithClock(now func() time.Time) Option {
	return func(m *Maker) { m.now = now }
}

// New creates a decision maker. model may be nil; the reactive stage then
// always uses heuristic pathing.
func New(planner *planning.Planner, retriever *retrieval.Engine, stream *memory.Stream,
	model llm.LanguageModel, survival world.Survival, maze world.Maze, items world.Items,
	cfg Config, opts ...Option) *Maker {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = DefaultConfig().MinInterval
	}
	m := &Maker{
		planner:   planner,
		retriever: retriever,
		stream:    stream,
		model:     model,
		survival:  survival,
		maze:      maze,
		items:     items,
		cfg:       cfg,
		logger:    zerolog.Nop(),
		now:       time.Now,
		replans:   make(chan planning.ReplanReason, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StressModifier maps a stress level (0-100) onto the retrieval degradation
// factor: 1.0 unstressed down to 0.5 at maximum stress.
func StressModifier(s world.SurvivalSnapshot) float64 {
	mod := 1 - s.Stress/200
	if mod < 0.5 {
		mod = 0.5
	}
	if mod > 1 {
		mod = 1
	}
	return mod
}

// MakeDecision runs the priority cascade and returns the next action.
// Calls inside the minimum interval short-circuit to wait.
func (m *Maker) MakeDecision(ctx context.Context, simTime time.Time, pos world.Point) Decision {
	now := m.now()
	if !m.lastCall.IsZero() && now.Sub(m.lastCall) < m.cfg.MinInterval {
		return wait("still committed to my last decision", 1.0)
	}
	m.lastCall = now

	pc := m.planContext(simTime, pos)
	select {
	case reason := <-m.replans:
		m.planner.Replan(ctx, reason, pc)
	default:
	}
	action := m.planner.CurrentAction(simTime)

	// Critical survival needs trump a plan action that does not address
	// them; an aligned plan action proceeds normally.
	if d, ok := m.survivalOverride(pos, action); ok {
		return d
	}
	if action != nil {
		return m.executePlanAction(action, pos)
	}
	return m.reactive(ctx, pos)
}

// planContext assembles the planning context for queued re-plans.
func (m *Maker) planContext(simTime time.Time, pos world.Point) planning.Context {
	pc := planning.Context{SimTime: simTime, Position: pos}
	if m.survival != nil {
		pc.Survival = m.survival.Snapshot()
	}
	if m.maze != nil {
		pc.Exit = m.maze.Exit()
	}
	return pc
}

// survivalOverride handles an urgent need with a known matching item: move
// toward the item and queue a re-plan that the next decision cycle performs.
func (m *Maker) survivalOverride(pos world.Point, action *planning.ActionPlan) (Decision, bool) {
	if m.survival == nil || m.items == nil {
		return Decision{}, false
	}
	need, urgent := m.survival.MostUrgent()
	if !urgent {
		return Decision{}, false
	}
	kind := itemKindFor(need)
	if kind == "" {
		return Decision{}, false
	}
	if action != nil && action.TargetItem == kind {
		return Decision{}, false // the plan is already on it
	}

	item, known := m.items.Nearest(kind, pos)
	if !known {
		return Decision{}, false
	}

	select {
	case m.replans <- planning.ReasonCriticalResource:
	default: // a re-plan is already queued
	}

	if pos == item.Pos {
		return wait(fmt.Sprintf("%s is critical and the %s is right here", needName(need), kind), 0.9), true
	}
	dir, ok := m.bestDirectionToward(pos, item.Pos)
	if !ok {
		return Decision{}, false
	}
	return Decision{
		Action:     ActMove,
		Direction:  dir,
		Reasoning:  fmt.Sprintf("%s is critical, heading for the nearest %s", needName(need), kind),
		Confidence: 0.9,
	}, true
}

// executePlanAction maps a plan action onto a Decision, completing the plan
// action when it has succeeded.
func (m *Maker) executePlanAction(action *planning.ActionPlan, pos world.Point) Decision {
	switch action.Type {
	case planning.ActionMove, planning.ActionSeekItem, planning.ActionConsumeItem:
		target, ok := m.actionTarget(action, pos)
		if !ok {
			m.planner.FailAction(action.ID)
			return wait("my plan's target is nowhere to be found", 0.3)
		}
		if pos == target {
			m.planner.CompleteAction(action.ID)
			return wait("arrived: "+action.Description, 0.8)
		}
		if dir, open := m.bestDirectionToward(pos, target); open {
			return Decision{Action: ActMove, Direction: dir, Reasoning: action.Description, Confidence: 0.8}
		}
		if dir, open := m.anyOpenDirection(pos); open {
			return Decision{Action: ActMove, Direction: dir, Reasoning: "working around a wall: " + action.Description, Confidence: 0.5}
		}
		return wait("boxed in while trying to "+action.Description, 0.2)

	case planning.ActionExplore:
		m.planner.CompleteAction(action.ID)
		if dir, open := m.explorationDirection(pos); open {
			return Decision{Action: ActMove, Direction: dir, Reasoning: action.Description, Confidence: 0.6}
		}
		return wait("nowhere left to explore from here", 0.3)

	case planning.ActionRest:
		m.planner.CompleteAction(action.ID)
		return wait(action.Description, 0.8)

	case planning.ActionReflect:
		m.planner.CompleteAction(action.ID)
		return Decision{Action: ActReflect, Reasoning: action.Description, Confidence: 0.8}

	default: // ActionWait and anything unrecognized
		m.planner.CompleteAction(action.ID)
		return wait(action.Description, 0.8)
	}
}

// actionTarget resolves where a movement-like action is heading.
func (m *Maker) actionTarget(action *planning.ActionPlan, pos world.Point) (world.Point, bool) {
	if action.Target != nil {
		return *action.Target, true
	}
	if action.TargetItem != "" && m.items != nil {
		if it, ok := m.items.Nearest(action.TargetItem, pos); ok {
			return it.Pos, true
		}
	}
	return world.Point{}, false
}

// itemKindFor maps a survival need onto the item kind that satisfies it.
// Rest has no item; it is handled by rest actions, not overrides.
func itemKindFor(n world.Need) string {
	switch n {
	case world.NeedFood:
		return "food"
	case world.NeedWater:
		return "water"
	}
	return ""
}

func needName(n world.Need) string {
	switch n {
	case world.NeedFood:
		return "hunger"
	case world.NeedWater:
		return "thirst"
	case world.NeedRest:
		return "exhaustion"
	}
	return string(n)
}
