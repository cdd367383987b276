package agent

import (
	"context"
	"testing"
	"time"

	"github.com/mazemind/mazemind/pkg/decision"
	"github.com/mazemind/mazemind/pkg/memory"
	"github.com/mazemind/mazemind/pkg/world"
)

var t0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func newAgent(t *testing.T) (*Agent, *world.GridMaze, *world.SurvivalMeter, *world.ItemMap) {
	t.Helper()
	maze := world.NewGridMaze(6, 6, world.Point{X: 0, Y: 0}, world.Point{X: 5, Y: 5})
	survival := world.NewSurvivalMeter()
	items := world.NewItemMap()
	a := New(DefaultConfig(), nil, nil, survival, maze, items)
	return a, maze, survival, items
}

func TestNewStartsAtEntrance(t *testing.T) {
	a, maze, _, _ := newAgent(t)
	if a.Position() != maze.Entrance() {
		t.Errorf("Position = %v, want the entrance %v", a.Position(), maze.Entrance())
	}
	if a.ExplorationRatio() <= 0 {
		t.Error("the entrance tile should count as explored")
	}
}

func TestPerceiveRecordsAtCurrentPosition(t *testing.T) {
	a, _, _, _ := newAgent(t)
	rec := a.Perceive("rough-hewn walls here", 4, "spatial")

	if rec.Kind != memory.KindObservation {
		t.Errorf("Kind = %v, want observation", rec.Kind)
	}
	if rec.Location == nil || *rec.Location != a.Position() {
		t.Errorf("Location = %v, want %v", rec.Location, a.Position())
	}
	if a.Stream().Len() != 1 {
		t.Errorf("stream Len = %d, want 1", a.Stream().Len())
	}
}

func TestPerceiveFeedsReflectionTrigger(t *testing.T) {
	a, _, _, _ := newAgent(t)
	a.Perceive("something startling", 9)
	if got := a.Reflector().ImportanceSum(); got != 9 {
		t.Errorf("ImportanceSum = %v, want 9 (on-add hook wired)", got)
	}
}

func TestTickDegradesToHeuristicsWithoutCapabilities(t *testing.T) {
	a, _, _, _ := newAgent(t)
	a.Perceive("starting out", 5)

	d := a.Tick(context.Background(), t0)
	if d.Action != decision.ActMove && d.Action != decision.ActWait && d.Action != decision.ActReflect {
		t.Fatalf("Tick returned malformed decision: %+v", d)
	}
	if d.Reasoning == "" {
		t.Error("decisions must always carry reasoning")
	}
	if a.Planner().Current() == nil {
		t.Error("the first tick should have created a plan via the no-plan trigger")
	}
}

func TestApplyMovesOnlyThroughOpenPassages(t *testing.T) {
	a, _, _, _ := newAgent(t)
	start := a.Position()

	// Blocked: west from the entrance leaves the maze.
	a.Apply(decision.Decision{Action: decision.ActMove, Direction: world.West})
	if a.Position() != start {
		t.Error("a blocked move must not change position")
	}

	a.Apply(decision.Decision{Action: decision.ActMove, Direction: world.East})
	if a.Position() != (world.Point{X: 1, Y: 0}) {
		t.Errorf("Position = %v, want (1,0)", a.Position())
	}

	// Non-move decisions are ignored.
	before := a.Position()
	a.Apply(decision.Decision{Action: decision.ActWait})
	if a.Position() != before {
		t.Error("a wait must not change position")
	}
}

func TestExplorationRatioGrows(t *testing.T) {
	a, _, _, _ := newAgent(t)
	initial := a.ExplorationRatio()

	a.Apply(decision.Decision{Action: decision.ActMove, Direction: world.East})
	a.Apply(decision.Decision{Action: decision.ActMove, Direction: world.South})
	if a.ExplorationRatio() <= initial {
		t.Errorf("ExplorationRatio = %v, want growth past %v", a.ExplorationRatio(), initial)
	}
}

func TestSuccessiveTicksHonorDecisionInterval(t *testing.T) {
	a, _, _, _ := newAgent(t)

	first := a.Tick(context.Background(), t0)
	second := a.Tick(context.Background(), t0.Add(time.Minute))
	// The second tick lands inside the wall-clock minimum interval.
	if second.Action != decision.ActWait {
		t.Errorf("second decision = %+v, want the committed wait", second)
	}
	_ = first
}
