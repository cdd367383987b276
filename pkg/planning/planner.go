package planning

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mazemind/mazemind/pkg/llm"
	"github.com/mazemind/mazemind/pkg/memory"
	"github.com/mazemind/mazemind/pkg/world"
)

// Config holds the planning tunables. The divergence and overrun factors are
// empirically chosen defaults, not fixed semantics.
type Config struct {
	// ActionQuantum is the fixed action plan duration.
	ActionQuantum time.Duration

	// HorizonHours is how many hourly plans a daily plan decomposes into.
	HorizonHours int

	// CriticalThreshold is the survival level below which a resource is
	// critical (0-100 scale).
	CriticalThreshold float64

	// DivergenceFactor flags divergence when distance-to-target grows past
	// lastDistance × factor between ticks.
	DivergenceFactor float64

	// OverrunFactor flags divergence when an in-progress action has run
	// longer than factor × its allotted duration.
	OverrunFactor float64

	// ItemClusterSize and ItemClusterRadius define the unclaimed-item
	// cluster that interrupts exploration.
	ItemClusterSize   int
	ItemClusterRadius float64
}

// DefaultConfig returns the default planning tunables.
func DefaultConfig() Config {
	return Config{
		ActionQuantum:     5 * time.Minute,
		HorizonHours:      4,
		CriticalThreshold: 25,
		DivergenceFactor:  1.5,
		OverrunFactor:     3,
		ItemClusterSize:   3,
		ItemClusterRadius: 4,
	}
}

// Planner owns the current daily plan and all plan lifecycle operations.
// It is used by exactly one character's loop.
type Planner struct {
	model  llm.LanguageModel
	stream *memory.Stream
	items  world.Items
	cfg    Config
	logger zerolog.Logger

	current *DailyPlan

	// divergence tracking for the active action
	trackedAction string
	lastDistance  float64
}

// Option configures a Planner.
type Option func(*Planner)

// WithLogger sets the planner's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Planner) { p.logger = l }
}

// New creates a planner. model and items may be nil; generation then always
// uses the heuristic path and the item-gone divergence check is skipped.
func New(model llm.LanguageModel, stream *memory.Stream, items world.Items, cfg Config, opts ...Option) *Planner {
	if cfg.ActionQuantum <= 0 {
		cfg.ActionQuantum = DefaultConfig().ActionQuantum
	}
	if cfg.HorizonHours <= 0 {
		cfg.HorizonHours = DefaultConfig().HorizonHours
	}
	p := &Planner{
		model:  model,
		stream: stream,
		items:  items,
		cfg:    cfg,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Current returns the active daily plan, or nil.
func (p *Planner) Current() *DailyPlan { return p.current }

// GenerateDailyPlan creates and activates a new daily plan. It never fails:
// model errors fall back to the deterministic heuristic.
func (p *Planner) GenerateDailyPlan(ctx context.Context, pc Context) *DailyPlan {
	goal, reasoning, priority := p.heuristicGoal(pc)

	raw, fromModel := llm.GenerateOrFallback(ctx, p.model, dailyPrompt(pc), llm.Options{Temperature: 0.7, MaxTokens: 200}, func() string { return "" })
	if fromModel {
		if g, r, pr, ok := parseDailyResponse(raw); ok {
			goal, reasoning, priority = g, r, pr
		} else {
			p.logger.Warn().Msg("unparsable daily plan response, using heuristic goal")
		}
	}

	plan := &DailyPlan{
		ID:        uuid.NewString(),
		CreatedAt: pc.SimTime,
		Goal:      goal,
		Reasoning: reasoning,
		Priority:  priority,
		Status:    StatusPending,
	}
	p.current = plan
	p.trackedAction = ""
	p.lastDistance = 0

	if p.stream != nil {
		p.stream.AddPlan("Planned for the day: "+goal, priorityImportance(priority),
			[]string{"plan", "daily"}, nil)
	}
	p.logger.Info().Str("goal", goal).Str("priority", string(priority)).Msg("daily plan generated")
	return plan
}

// DecomposeIntoHourlyPlans fills the daily plan with hourly plans starting
// at the context's sim time.
func (p *Planner) DecomposeIntoHourlyPlans(ctx context.Context, daily *DailyPlan, pc Context) {
	if daily == nil {
		p.logger.Warn().Msg("decompose hourly: nil daily plan")
		return
	}

	objectives := p.heuristicHourlyObjectives(daily.Goal)
	raw, fromModel := llm.GenerateOrFallback(ctx, p.model, hourlyPrompt(daily, pc, p.cfg.HorizonHours), llm.Options{Temperature: 0.7, MaxTokens: 200}, func() string { return "" })
	if fromModel {
		if parsed := parseListResponse(raw, p.cfg.HorizonHours); len(parsed) > 0 {
			objectives = parsed
		}
	}

	start := pc.SimTime
	for i, obj := range objectives {
		daily.Hours = append(daily.Hours, p.GenerateHourlyPlan(daily, start.Add(time.Duration(i)*time.Hour), obj))
	}
}

// GenerateHourlyPlan creates one hourly plan owned by daily.
func (p *Planner) GenerateHourlyPlan(daily *DailyPlan, start time.Time, objective string) *HourlyPlan {
	return &HourlyPlan{
		ID:        uuid.NewString(),
		ParentID:  daily.ID,
		Start:     start,
		Duration:  time.Hour,
		Objective: objective,
		Status:    StatusPending,
	}
}

// DecomposeIntoActions fills the hourly plan with action plans covering its
// full hour.
func (p *Planner) DecomposeIntoActions(ctx context.Context, hourly *HourlyPlan, pc Context) {
	p.decomposeIntoActions(ctx, hourly, pc, 0)
}

// decomposeIntoActions fills at most limit actions (0 = fill the hour).
func (p *Planner) decomposeIntoActions(ctx context.Context, hourly *HourlyPlan, pc Context, limit int) {
	if hourly == nil {
		p.logger.Warn().Msg("decompose actions: nil hourly plan")
		return
	}

	// Slots already filled keep their windows; decomposition only appends,
	// so lazily-decomposed hours extend without overlap.
	existing := len(hourly.Actions)
	remaining := int(hourly.Duration/p.cfg.ActionQuantum) - existing
	if remaining <= 0 {
		return
	}
	if limit > 0 && limit < remaining {
		remaining = limit
	}

	specs := p.heuristicActionSpecs(hourly.Objective, pc)
	raw, fromModel := llm.GenerateOrFallback(ctx, p.model, actionPrompt(hourly, pc, remaining), llm.Options{Temperature: 0.7, MaxTokens: 250}, func() string { return "" })
	if fromModel {
		if parsed := parseActionResponse(raw); len(parsed) > 0 {
			specs = parsed
		}
	}
	if len(specs) == 0 {
		return
	}

	for i := 0; i < remaining; i++ {
		idx := existing + i
		spec := specs[idx%len(specs)]
		hourly.Actions = append(hourly.Actions, p.GenerateActionPlan(
			hourly,
			hourly.Start.Add(time.Duration(idx)*p.cfg.ActionQuantum),
			spec.description, spec.typ, spec.target, spec.item,
		))
	}
}

// GenerateActionPlan creates one action plan owned by hourly.
func (p *Planner) GenerateActionPlan(hourly *HourlyPlan, start time.Time, description string, typ ActionType, target *world.Point, item string) *ActionPlan {
	return &ActionPlan{
		ID:          uuid.NewString(),
		ParentID:    hourly.ID,
		Start:       start,
		Duration:    p.cfg.ActionQuantum,
		Description: description,
		Type:        typ,
		Target:      target,
		TargetItem:  item,
		Status:      StatusPending,
	}
}

// CurrentAction returns the action plan whose window covers simTime, moving
// it (and its ancestors) to in_progress. Returns nil when no action applies.
func (p *Planner) CurrentAction(simTime time.Time) *ActionPlan {
	if p.current == nil || p.current.Status.terminal() {
		return nil
	}
	for _, h := range p.current.Hours {
		if h.Status.terminal() {
			continue
		}
		for _, a := range h.Actions {
			if a.Status.terminal() || !a.covers(simTime) {
				continue
			}
			if a.Status == StatusPending {
				a.Status = StatusInProgress
			}
			if h.Status == StatusPending {
				h.Status = StatusInProgress
			}
			if p.current.Status == StatusPending {
				p.current.Status = StatusInProgress
			}
			return a
		}
	}
	return nil
}

// CompleteAction marks the action completed and cascades completion upward:
// an hourly plan completes when its last action does, the daily plan when
// its last hour does, all within this call. Unknown ids are a logged no-op.
func (p *Planner) CompleteAction(id string) {
	p.completeOrFail(id, StatusCompleted)
}

// FailAction marks the action failed. Failed actions count as settled for
// the cascade; an hour whose actions all fail is itself marked failed.
func (p *Planner) FailAction(id string) {
	p.completeOrFail(id, StatusFailed)
}

func (p *Planner) completeOrFail(id string, final Status) {
	if p.current == nil {
		p.logger.Debug().Str("id", id).Msg("complete action: no active plan")
		return
	}
	for _, h := range p.current.Hours {
		for _, a := range h.Actions {
			if a.ID != id {
				continue
			}
			if a.Status.terminal() {
				return
			}
			a.Status = final
			if final == StatusCompleted {
				a.CompletedAt = time.Now()
			}
			if p.trackedAction == id {
				p.trackedAction = ""
				p.lastDistance = 0
			}
			p.cascade(h)
			return
		}
	}
	p.logger.Debug().Str("id", id).Msg("complete action: unknown id")
}

// cascade settles the hour when every action is terminal: completed when at
// least one action succeeded, failed otherwise. The day settles the same way
// once every hour is terminal, so a plan whose actions all fail still reaches
// a terminal state and the no-plan trigger can fire.
func (p *Planner) cascade(h *HourlyPlan) {
	if len(h.Actions) > 0 && !h.Status.terminal() {
		settled, completed := true, 0
		for _, a := range h.Actions {
			if !a.Status.terminal() {
				settled = false
				break
			}
			if a.Status == StatusCompleted {
				completed++
			}
		}
		if settled {
			if completed > 0 {
				h.Status = StatusCompleted
			} else {
				h.Status = StatusFailed
			}
		}
	}

	if len(p.current.Hours) == 0 || p.current.Status.terminal() {
		return
	}
	anyCompleted := false
	for _, hour := range p.current.Hours {
		if !hour.Status.terminal() {
			return
		}
		if hour.Status == StatusCompleted {
			anyCompleted = true
		}
	}
	if anyCompleted {
		p.current.Status = StatusCompleted
		p.logger.Info().Str("goal", p.current.Goal).Msg("daily plan completed")
		return
	}
	p.current.Status = StatusFailed
	p.logger.Info().Str("goal", p.current.Goal).Msg("daily plan failed, every hour failed")
}

// MonitorForReplanning evaluates the re-planning triggers in priority order
// and returns the first that applies.
func (p *Planner) MonitorForReplanning(pc Context) (ReplanReason, bool) {
	if p.criticalResource(pc) {
		return ReasonCriticalResource, true
	}
	if p.itemClusterNearby(pc) {
		return ReasonItemCluster, true
	}
	if p.current != nil && p.current.Status == StatusCompleted {
		return ReasonPlanCompleted, true
	}
	if p.current == nil || p.current.Status.terminal() {
		return ReasonNoPlan, true
	}
	if p.diverged(pc) {
		return ReasonDivergence, true
	}
	return "", false
}

func (p *Planner) criticalResource(pc Context) bool {
	s := pc.Survival
	if s.Hunger < p.cfg.CriticalThreshold || s.Thirst < p.cfg.CriticalThreshold || s.Energy < p.cfg.CriticalThreshold {
		// Only re-plan if the current plan is not already addressing it.
		return p.current == nil || p.current.Priority != PriorityCritical
	}
	return false
}

func (p *Planner) itemClusterNearby(pc Context) bool {
	if p.items == nil || pc.ExplorationRatio >= 1 {
		return false
	}
	if p.current != nil && !strings.Contains(strings.ToLower(p.current.Goal), "explor") {
		return false
	}
	return len(p.items.Nearby(pc.Position, p.cfg.ItemClusterRadius)) >= p.cfg.ItemClusterSize
}

// diverged checks the three divergence clauses against the active action:
// distance-to-target growth, a required item that vanished, and duration
// overrun.
func (p *Planner) diverged(pc Context) bool {
	action := p.activeAction()
	if action == nil {
		p.trackedAction = ""
		p.lastDistance = 0
		return false
	}

	if action.Target != nil {
		d := pc.Position.DistanceTo(*action.Target)
		if p.trackedAction == action.ID && p.lastDistance > 0 && d > p.lastDistance*p.cfg.DivergenceFactor {
			p.logger.Debug().Float64("distance", d).Float64("last", p.lastDistance).Msg("divergence: moving away from target")
			return true
		}
		p.trackedAction = action.ID
		p.lastDistance = d
	}

	if action.Type == ActionConsumeItem && action.TargetItem != "" && p.items != nil {
		if _, ok := p.items.Nearest(action.TargetItem, pc.Position); !ok {
			p.logger.Debug().Str("item", action.TargetItem).Msg("divergence: target item gone")
			return true
		}
	}

	if pc.SimTime.Sub(action.Start) > time.Duration(p.cfg.OverrunFactor*float64(action.Duration)) {
		p.logger.Debug().Str("action", action.Description).Msg("divergence: action overrun")
		return true
	}
	return false
}

// activeAction returns the in-progress action, if any.
func (p *Planner) activeAction() *ActionPlan {
	if p.current == nil {
		return nil
	}
	for _, h := range p.current.Hours {
		for _, a := range h.Actions {
			if a.Status == StatusInProgress {
				return a
			}
		}
	}
	return nil
}

// Replan abandons the current daily plan, recording the reason, and builds a
// fresh one. Only the first hour and its first action are decomposed
// immediately; later hours fill in lazily. If generation somehow produces no
// plan the previous one is restored rather than leaving the character with
// none.
func (p *Planner) Replan(ctx context.Context, reason ReplanReason, pc Context) *DailyPlan {
	previous := p.current
	if previous != nil && !previous.Status.terminal() {
		previous.abandon(string(reason))
		p.logger.Info().Str("reason", string(reason)).Str("goal", previous.Goal).Msg("daily plan abandoned")
	}

	plan := p.GenerateDailyPlan(ctx, pc)
	p.DecomposeIntoHourlyPlans(ctx, plan, pc)
	if len(plan.Hours) == 0 {
		p.logger.Warn().Msg("replan produced no hours, keeping previous plan")
		p.current = previous
		return previous
	}
	p.decomposeIntoActions(ctx, plan.Hours[0], pc, 1)
	return plan
}

// EnsureDecomposed lazily fills in actions for the hourly plan covering
// simTime, so plans created by Replan keep yielding actions past their
// first quantum.
func (p *Planner) EnsureDecomposed(ctx context.Context, pc Context) {
	if p.current == nil || p.current.Status.terminal() {
		return
	}
	for _, h := range p.current.Hours {
		if h.Status.terminal() {
			continue
		}
		end := h.Start.Add(h.Duration)
		if pc.SimTime.Before(h.Start) || !pc.SimTime.Before(end) {
			continue
		}
		if len(h.Actions) == 0 {
			p.DecomposeIntoActions(ctx, h, pc)
		} else if last := h.Actions[len(h.Actions)-1]; pc.SimTime.After(last.Start.Add(last.Duration)) {
			// The hour was only partially decomposed (lazy replan); extend it.
			p.decomposeIntoActions(ctx, h, pc, 0)
		}
		return
	}
}

// priorityImportance maps a plan priority onto record importance.
func priorityImportance(pr Priority) int {
	switch pr {
	case PriorityCritical:
		return 9
	case PriorityHigh:
		return 7
	case PriorityMedium:
		return 5
	default:
		return 3
	}
}
