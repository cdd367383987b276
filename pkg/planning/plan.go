// Package planning produces and tracks the character's three-level plan
// hierarchy: a daily plan decomposed into hourly plans, each decomposed into
// action plans of one planning quantum. Generation prefers the language
// model and falls back to deterministic templating; tracking detects
// divergence between plan and reality and triggers re-planning.
package planning

import (
	"time"

	"github.com/mazemind/mazemind/pkg/world"
)

// Status is the shared plan-node state machine:
// pending → in_progress → {completed, abandoned, failed}.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
	StatusFailed     Status = "failed"
)

// terminal reports whether the status admits no further transitions.
func (s Status) terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned || s == StatusFailed
}

// Priority ranks a daily plan's goal.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// ActionType categorizes what an action plan does when executed.
type ActionType string

const (
	ActionMove        ActionType = "move"
	ActionExplore     ActionType = "explore"
	ActionConsumeItem ActionType = "consume-item"
	ActionSeekItem    ActionType = "seek-item"
	ActionRest        ActionType = "rest"
	ActionReflect     ActionType = "reflect"
	ActionWait        ActionType = "wait"
)

// ActionPlan is the leaf of the hierarchy: one planning quantum of activity.
type ActionPlan struct {
	ID          string        `json:"id"`
	ParentID    string        `json:"parent_id"`
	Start       time.Time     `json:"start"`
	Duration    time.Duration `json:"duration"`
	Description string        `json:"description"`
	Type        ActionType    `json:"type"`
	Target      *world.Point  `json:"target,omitempty"`
	TargetItem  string        `json:"target_item,omitempty"`
	Status      Status        `json:"status"`
	CompletedAt time.Time     `json:"completed_at,omitzero"`
}

// covers reports whether t falls inside the action's time window.
func (a *ActionPlan) covers(t time.Time) bool {
	return !t.Before(a.Start) && t.Before(a.Start.Add(a.Duration))
}

// HourlyPlan owns an ordered list of action plans for one simulated hour.
type HourlyPlan struct {
	ID        string        `json:"id"`
	ParentID  string        `json:"parent_id"`
	Start     time.Time     `json:"start"`
	Duration  time.Duration `json:"duration"`
	Objective string        `json:"objective"`
	Actions   []*ActionPlan `json:"actions"`
	Status    Status        `json:"status"`
}

// DailyPlan is the root of the hierarchy.
type DailyPlan struct {
	ID            string        `json:"id"`
	CreatedAt     time.Time     `json:"created_at"`
	Goal          string        `json:"goal"`
	Reasoning     string        `json:"reasoning"`
	Priority      Priority      `json:"priority"`
	Hours         []*HourlyPlan `json:"hours"`
	Status        Status        `json:"status"`
	AbandonReason string        `json:"abandon_reason,omitempty"`
}

// abandon marks the plan and all its non-terminal descendants abandoned.
func (d *DailyPlan) abandon(reason string) {
	if d.Status.terminal() {
		return
	}
	d.Status = StatusAbandoned
	d.AbandonReason = reason
	for _, h := range d.Hours {
		if !h.Status.terminal() {
			h.Status = StatusAbandoned
		}
		for _, a := range h.Actions {
			if !a.Status.terminal() {
				a.Status = StatusAbandoned
			}
		}
	}
}

// Context carries everything plan generation and monitoring read from the
// host at a given tick. Components receive it explicitly; nothing in this
// package reads ambient state.
type Context struct {
	SimTime          time.Time
	Position         world.Point
	Survival         world.SurvivalSnapshot
	ExplorationRatio float64
	RecentMemories   []string
	Exit             world.Point
}

// ReplanReason names why a re-plan fired.
type ReplanReason string

const (
	ReasonCriticalResource ReplanReason = "critical resource"
	ReasonItemCluster      ReplanReason = "item cluster nearby"
	ReasonPlanCompleted    ReplanReason = "plan completed"
	ReasonNoPlan           ReplanReason = "no active plan"
	ReasonDivergence       ReplanReason = "significant divergence"
)
