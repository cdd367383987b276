package world

// grid.go provides in-memory implementations of the collaborator contracts,
// used by the CLI simulation and by tests. A host application supplies its
// own implementations backed by its real maze/survival/item systems.

import "sync"

// ---------------------------------------------------------------------------
// GridMaze
// ---------------------------------------------------------------------------

// GridMaze is a rectangular maze held in memory. The zero wall value means
// fully open; walls are added per tile side.
type GridMaze struct {
	width    int
	height   int
	walls    map[Point]Walls
	entrance Point
	exit     Point
}

// NewGridMaze creates an open width×height maze with the given entrance and
// exit tiles.
func NewGridMaze(width, height int, entrance, exit Point) *GridMaze {
	return &GridMaze{
		width:    width,
		height:   height,
		walls:    make(map[Point]Walls),
		entrance: entrance,
		exit:     exit,
	}
}

// SetWalls replaces the wall flags of the tile at p.
func (g *GridMaze) SetWalls(p Point, w Walls) { g.walls[p] = w }

// Bounds returns the maze dimensions.
func (g *GridMaze) Bounds() (int, int) { return g.width, g.height }

// Walls returns the wall flags at p. Out-of-bounds tiles are fully walled.
func (g *GridMaze) Walls(p Point) Walls {
	if p.X < 0 || p.Y < 0 || p.X >= g.width || p.Y >= g.height {
		return Walls{North: true, South: true, East: true, West: true}
	}
	return g.walls[p]
}

// Entrance returns the entrance tile.
func (g *GridMaze) Entrance() Point { return g.entrance }

// Exit returns the exit tile.
func (g *GridMaze) Exit() Point { return g.exit }

// ---------------------------------------------------------------------------
// SurvivalMeter
// ---------------------------------------------------------------------------

// SurvivalMeter is a mutable in-memory survival accessor. UrgencyThreshold
// defaults to 30; a need is urgent when its resource drops below it.
type SurvivalMeter struct {
	mu               sync.RWMutex
	snap             SurvivalSnapshot
	UrgencyThreshold float64
}

// NewSurvivalMeter creates a meter with all resources full and no stress.
func NewSurvivalMeter() *SurvivalMeter {
	return &SurvivalMeter{
		snap:             SurvivalSnapshot{Hunger: 100, Thirst: 100, Energy: 100, Stress: 0},
		UrgencyThreshold: 30,
	}
}

// Set replaces the current snapshot.
func (s *SurvivalMeter) Set(snap SurvivalSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}

// Snapshot returns the current resource levels.
func (s *SurvivalMeter) Snapshot() SurvivalSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// MostUrgent returns the lowest resource below the urgency threshold.
func (s *SurvivalMeter) MostUrgent() (Need, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best := Need("")
	bestLevel := s.UrgencyThreshold
	for _, n := range []Need{NeedFood, NeedWater, NeedRest} {
		if lvl := s.snap.Level(n); lvl < bestLevel {
			best, bestLevel = n, lvl
		}
	}
	return best, best != ""
}

// ---------------------------------------------------------------------------
// ItemMap
// ---------------------------------------------------------------------------

// ItemMap is a mutable in-memory item accessor.
type ItemMap struct {
	mu    sync.RWMutex
	items []Item
}

// NewItemMap creates an empty item map.
func NewItemMap() *ItemMap { return &ItemMap{} }

// Add registers an item.
func (m *ItemMap) Add(it Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, it)
}

// Remove deletes the first item of the given kind at the given position.
func (m *ItemMap) Remove(kind string, at Point) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, it := range m.items {
		if it.Kind == kind && it.Pos == at {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return true
		}
	}
	return false
}

// Nearest returns the closest item of kind to from.
func (m *ItemMap) Nearest(kind string, from Point) (Item, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var best Item
	bestDist := -1.0
	for _, it := range m.items {
		if it.Kind != kind {
			continue
		}
		if d := from.DistanceTo(it.Pos); bestDist < 0 || d < bestDist {
			best, bestDist = it, d
		}
	}
	return best, bestDist >= 0
}

// Nearby returns all items within radius of from.
func (m *ItemMap) Nearby(from Point, radius float64) []Item {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Item
	for _, it := range m.items {
		if from.DistanceTo(it.Pos) <= radius {
			out = append(out, it)
		}
	}
	return out
}
