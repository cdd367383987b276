package planning

// heuristic.go is the deterministic generation path used when no language
// model is configured or its output cannot be parsed. Goals are picked by a
// fixed priority order; hourly and action templates key off the chosen
// goal's keywords.

import (
	"fmt"
	"strings"

	"github.com/mazemind/mazemind/pkg/world"
)

// actionSpec is an action template before it becomes an ActionPlan.
type actionSpec struct {
	description string
	typ         ActionType
	target      *world.Point
	item        string
}

// heuristicGoal picks a goal by priority order: a critical resource first,
// then exploration below 50%, then seeking the exit.
func (p *Planner) heuristicGoal(pc Context) (goal, reasoning string, priority Priority) {
	s := pc.Survival
	switch {
	case s.Thirst < p.cfg.CriticalThreshold:
		return "find water before dehydration sets in",
			fmt.Sprintf("thirst is at %.0f, below the critical threshold", s.Thirst),
			PriorityCritical
	case s.Hunger < p.cfg.CriticalThreshold:
		return "find food before starving",
			fmt.Sprintf("hunger is at %.0f, below the critical threshold", s.Hunger),
			PriorityCritical
	case s.Energy < p.cfg.CriticalThreshold:
		return "find somewhere to rest and recover energy",
			fmt.Sprintf("energy is at %.0f, below the critical threshold", s.Energy),
			PriorityCritical
	case pc.ExplorationRatio < 0.5:
		return "explore the maze and map out its passages",
			fmt.Sprintf("only %.0f%% of the maze is explored", pc.ExplorationRatio*100),
			PriorityHigh
	default:
		return "seek the exit",
			"enough of the maze is mapped to push for the exit",
			PriorityHigh
	}
}

// heuristicHourlyObjectives derives hourly objectives from goal keywords.
func (p *Planner) heuristicHourlyObjectives(goal string) []string {
	g := strings.ToLower(goal)
	var objectives []string
	switch {
	case strings.Contains(g, "water"):
		objectives = []string{
			"search nearby passages for water",
			"drink and recover",
			"resume exploring from where I left off",
		}
	case strings.Contains(g, "food"):
		objectives = []string{
			"search nearby passages for food",
			"eat and recover",
			"resume exploring from where I left off",
		}
	case strings.Contains(g, "rest"):
		objectives = []string{
			"find a quiet dead end to rest in",
			"rest until energy recovers",
			"resume exploring from where I left off",
		}
	case strings.Contains(g, "explor"):
		objectives = []string{
			"explore unvisited passages",
			"map the junctions I pass",
			"take stock of what I have found",
		}
	default: // exit-seeking
		objectives = []string{
			"head toward where the exit should be",
			"work through the remaining corridors",
			"push to the exit",
		}
	}

	for len(objectives) < p.cfg.HorizonHours {
		objectives = append(objectives, objectives[len(objectives)%3])
	}
	return objectives[:p.cfg.HorizonHours]
}

// heuristicActionSpecs derives a repeating action template from the hourly
// objective's keywords.
func (p *Planner) heuristicActionSpecs(objective string, pc Context) []actionSpec {
	o := strings.ToLower(objective)
	switch {
	case strings.Contains(o, "water"), strings.Contains(o, "drink"):
		return p.resourceSpecs("water", pc)
	case strings.Contains(o, "food"), strings.Contains(o, "eat"):
		return p.resourceSpecs("food", pc)
	case strings.Contains(o, "rest"):
		return []actionSpec{
			{description: "rest and recover energy", typ: ActionRest},
		}
	case strings.Contains(o, "exit"), strings.Contains(o, "push"), strings.Contains(o, "head toward"):
		exit := pc.Exit
		return []actionSpec{
			{description: "move toward the exit", typ: ActionMove, target: &exit},
		}
	case strings.Contains(o, "stock"), strings.Contains(o, "reflect"):
		return []actionSpec{
			{description: "pause and reflect on what I have seen", typ: ActionReflect},
			{description: "explore a nearby passage", typ: ActionExplore},
		}
	default:
		return []actionSpec{
			{description: "explore an unvisited passage", typ: ActionExplore},
		}
	}
}

// resourceSpecs seeks then consumes an item kind, targeting the nearest
// known instance when the item accessor has one.
func (p *Planner) resourceSpecs(kind string, pc Context) []actionSpec {
	seek := actionSpec{
		description: "search for " + kind,
		typ:         ActionSeekItem,
		item:        kind,
	}
	consume := actionSpec{
		description: "consume the " + kind,
		typ:         ActionConsumeItem,
		item:        kind,
	}
	if p.items != nil {
		if it, ok := p.items.Nearest(kind, pc.Position); ok {
			pos := it.Pos
			seek.target = &pos
			consume.target = &pos
		}
	}
	return []actionSpec{seek, consume}
}
