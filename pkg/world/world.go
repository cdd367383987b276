// Package world defines the read-only collaborator contracts the cognitive
// core consumes from its host: survival state, maze geometry, and item
// locations. It also ships small in-memory implementations (GridMaze,
// SurvivalMeter, ItemMap) so simulations and tests can run without a host
// application.
//
// Nothing in this package mutates host state; all interfaces are queries.
package world

import "math"

// Point is a 2-D tile coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// DistanceTo returns the Euclidean distance between two points.
func (p Point) DistanceTo(o Point) float64 {
	dx := float64(p.X - o.X)
	dy := float64(p.Y - o.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Direction is one of the four cardinal movement directions.
type Direction string

const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
)

// Directions lists the four cardinal directions in a fixed evaluation order.
var Directions = []Direction{North, East, South, West}

// Delta returns the tile offset for one step in the direction.
// North decreases Y, matching screen coordinates.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	case West:
		return -1, 0
	}
	return 0, 0
}

// Step returns the point one tile away from p in the direction.
func (d Direction) Step(p Point) Point {
	dx, dy := d.Delta()
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// Walls holds the per-tile wall flags for the four cardinal sides.
type Walls struct {
	North bool
	South bool
	East  bool
	West  bool
}

// Blocked reports whether movement in the direction is walled off.
func (w Walls) Blocked(d Direction) bool {
	switch d {
	case North:
		return w.North
	case South:
		return w.South
	case East:
		return w.East
	case West:
		return w.West
	}
	return true
}

// Maze is the read-only spatial accessor contract.
type Maze interface {
	// Bounds returns the maze dimensions in tiles.
	Bounds() (width, height int)

	// Walls returns the wall flags of the tile at p.
	// Out-of-bounds tiles report all sides walled.
	Walls(p Point) Walls

	// Entrance returns the maze entrance tile.
	Entrance() Point

	// Exit returns the maze exit tile.
	Exit() Point
}

// InBounds reports whether p lies inside the maze.
func InBounds(m Maze, p Point) bool {
	w, h := m.Bounds()
	return p.X >= 0 && p.Y >= 0 && p.X < w && p.Y < h
}

// Open reports whether one step from p in direction d is passable:
// not walled and landing in bounds.
func Open(m Maze, p Point, d Direction) bool {
	if m.Walls(p).Blocked(d) {
		return false
	}
	return InBounds(m, d.Step(p))
}

// DescribeSurroundings renders the tile at p as a short categorical phrase
// derived from its wall flags: dead end, corridor, junction, or the special
// entrance/exit tiles. Decision prompts consume this description verbatim.
func DescribeSurroundings(m Maze, p Point) string {
	switch {
	case p == m.Exit():
		return "at the exit"
	case p == m.Entrance():
		return "at the entrance"
	}
	open := 0
	for _, d := range Directions {
		if Open(m, p, d) {
			open++
		}
	}
	switch open {
	case 0:
		return "sealed in"
	case 1:
		return "in a dead end"
	case 2:
		return "in a corridor"
	default:
		return "at a junction"
	}
}

// Need identifies a depletable survival resource.
type Need string

const (
	NeedFood  Need = "food"
	NeedWater Need = "water"
	NeedRest  Need = "rest"
)

// SurvivalSnapshot is a point-in-time reading of the survival resources.
// All values are on a 0-100 scale; higher is better except Stress, where
// higher means more stressed.
type SurvivalSnapshot struct {
	Hunger float64 `json:"hunger"`
	Thirst float64 `json:"thirst"`
	Energy float64 `json:"energy"`
	Stress float64 `json:"stress"`
}

// Level returns the resource level backing the given need.
func (s SurvivalSnapshot) Level(n Need) float64 {
	switch n {
	case NeedFood:
		return s.Hunger
	case NeedWater:
		return s.Thirst
	case NeedRest:
		return s.Energy
	}
	return 100
}

// Survival is the read-only survival-resource accessor contract.
type Survival interface {
	// Snapshot returns the current resource levels.
	Snapshot() SurvivalSnapshot

	// MostUrgent returns the need whose resource is lowest, if any resource
	// sits below its urgency threshold.
	MostUrgent() (Need, bool)
}

// Item is a consumable located in the maze.
type Item struct {
	Kind string `json:"kind"`
	Pos  Point  `json:"pos"`
}

// Items is the read-only item-location accessor contract.
type Items interface {
	// Nearest returns the closest item of the given kind to from,
	// and false when none is known.
	Nearest(kind string, from Point) (Item, bool)

	// Nearby returns all items within radius tiles of from, any kind.
	Nearby(from Point, radius float64) []Item
}
