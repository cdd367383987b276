package world

import (
	"math"
	"testing"
)

func TestDirectionStep(t *testing.T) {
	tests := []struct {
		dir  Direction
		want Point
	}{
		{North, Point{X: 3, Y: 2}},
		{South, Point{X: 3, Y: 4}},
		{East, Point{X: 4, Y: 3}},
		{West, Point{X: 2, Y: 3}},
	}
	from := Point{X: 3, Y: 3}
	for _, tt := range tests {
		if got := tt.dir.Step(from); got != tt.want {
			t.Errorf("%s.Step(%v) = %v, want %v", tt.dir, from, got, tt.want)
		}
	}
}

func TestDistanceTo(t *testing.T) {
	a := Point{X: 0, Y: 0}
	b := Point{X: 3, Y: 4}
	if got := a.DistanceTo(b); math.Abs(got-5) > 1e-9 {
		t.Errorf("DistanceTo = %v, want 5", got)
	}
}

func TestOpenRespectsWallsAndBounds(t *testing.T) {
	maze := NewGridMaze(3, 3, Point{}, Point{X: 2, Y: 2})
	maze.SetWalls(Point{X: 1, Y: 1}, Walls{East: true})

	if Open(maze, Point{X: 1, Y: 1}, East) {
		t.Error("east should be walled off")
	}
	if !Open(maze, Point{X: 1, Y: 1}, West) {
		t.Error("west should be open")
	}
	if Open(maze, Point{X: 0, Y: 0}, West) {
		t.Error("stepping out of bounds should not be open")
	}
	if Open(maze, Point{X: 0, Y: 0}, North) {
		t.Error("stepping above the maze should not be open")
	}
}

func TestDescribeSurroundings(t *testing.T) {
	maze := NewGridMaze(5, 5, Point{X: 0, Y: 0}, Point{X: 4, Y: 4})
	// Dead end: only north open.
	maze.SetWalls(Point{X: 2, Y: 2}, Walls{South: true, East: true, West: true})
	// Corridor: north/south open.
	maze.SetWalls(Point{X: 1, Y: 2}, Walls{East: true, West: true})
	// Sealed.
	maze.SetWalls(Point{X: 3, Y: 2}, Walls{North: true, South: true, East: true, West: true})

	tests := []struct {
		p    Point
		want string
	}{
		{Point{X: 0, Y: 0}, "at the entrance"},
		{Point{X: 4, Y: 4}, "at the exit"},
		{Point{X: 2, Y: 2}, "in a dead end"},
		{Point{X: 1, Y: 2}, "in a corridor"},
		{Point{X: 3, Y: 2}, "sealed in"},
		{Point{X: 2, Y: 3}, "at a junction"},
	}
	for _, tt := range tests {
		if got := DescribeSurroundings(maze, tt.p); got != tt.want {
			t.Errorf("DescribeSurroundings(%v) = %q, want %q", tt.p, got, tt.want)
		}
	}
}

func TestSurvivalMeterMostUrgent(t *testing.T) {
	m := NewSurvivalMeter()
	if _, urgent := m.MostUrgent(); urgent {
		t.Error("full meters should report nothing urgent")
	}

	m.Set(SurvivalSnapshot{Hunger: 25, Thirst: 10, Energy: 80})
	need, urgent := m.MostUrgent()
	if !urgent || need != NeedWater {
		t.Errorf("MostUrgent = %v/%v, want water (the lowest resource)", need, urgent)
	}

	m.Set(SurvivalSnapshot{Hunger: 29, Thirst: 90, Energy: 90})
	need, urgent = m.MostUrgent()
	if !urgent || need != NeedFood {
		t.Errorf("MostUrgent = %v/%v, want food", need, urgent)
	}
}

func TestSnapshotLevel(t *testing.T) {
	s := SurvivalSnapshot{Hunger: 10, Thirst: 20, Energy: 30}
	if s.Level(NeedFood) != 10 || s.Level(NeedWater) != 20 || s.Level(NeedRest) != 30 {
		t.Errorf("Level mapping wrong: %+v", s)
	}
}

func TestItemMap(t *testing.T) {
	m := NewItemMap()
	m.Add(Item{Kind: "food", Pos: Point{X: 5, Y: 5}})
	m.Add(Item{Kind: "food", Pos: Point{X: 1, Y: 1}})
	m.Add(Item{Kind: "water", Pos: Point{X: 2, Y: 2}})

	it, ok := m.Nearest("food", Point{X: 0, Y: 0})
	if !ok || it.Pos != (Point{X: 1, Y: 1}) {
		t.Errorf("Nearest(food) = %v/%v, want the item at (1,1)", it, ok)
	}
	if _, ok := m.Nearest("rope", Point{}); ok {
		t.Error("unknown kind should report no item")
	}

	if got := m.Nearby(Point{X: 0, Y: 0}, 3); len(got) != 2 {
		t.Errorf("Nearby = %d items, want 2", len(got))
	}

	if !m.Remove("water", Point{X: 2, Y: 2}) {
		t.Error("Remove should find the water item")
	}
	if _, ok := m.Nearest("water", Point{}); ok {
		t.Error("removed item should be gone")
	}
}
