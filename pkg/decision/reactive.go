package decision

// reactive.go is the cascade's last stage: ask the language model what to do
// given surroundings and memories, and fall back to deterministic pathing
// toward the exit when the model is unavailable or its response cannot be
// parsed.

import (
	"context"
	"fmt"
	"strings"

	"github.com/mazemind/mazemind/pkg/llm"
	"github.com/mazemind/mazemind/pkg/world"
)

// reactive produces a decision with no plan and no override active.
func (m *Maker) reactive(ctx context.Context, pos world.Point) Decision {
	if m.model != nil && m.model.Available() {
		raw, err := m.model.Generate(ctx, m.reactivePrompt(ctx, pos), llm.Options{Temperature: 0.7, MaxTokens: 100})
		if err != nil {
			m.logger.Warn().Err(err).Msg("reactive generation failed, using heuristic pathing")
		} else if d, ok := parseReactiveResponse(raw); ok {
			return d
		} else {
			m.logger.Warn().Msg("unparsable reactive response, using heuristic pathing")
		}
	}
	return m.heuristicPathing(pos)
}

// reactivePrompt describes the surroundings, recent memories, and relevant
// retrieved memories, and constrains the response format.
func (m *Maker) reactivePrompt(ctx context.Context, pos world.Point) string {
	var sb strings.Builder
	sb.WriteString("You are a character in a maze trying to reach the exit.\n")
	fmt.Fprintf(&sb, "You are at (%d,%d), %s.\n", pos.X, pos.Y, world.DescribeSurroundings(m.maze, pos))

	open := make([]string, 0, 4)
	for _, d := range world.Directions {
		if world.Open(m.maze, pos, d) {
			open = append(open, string(d))
		}
	}
	fmt.Fprintf(&sb, "Open directions: %s.\n", strings.Join(open, ", "))

	if recent := m.stream.GetAll(); len(recent) > 0 {
		n := m.cfg.RecentCount
		if n > len(recent) {
			n = len(recent)
		}
		sb.WriteString("Recent memories:\n")
		for _, rec := range recent[len(recent)-n:] {
			sb.WriteString("- " + rec.Description + "\n")
		}
	}

	stress := 1.0
	if m.survival != nil {
		stress = StressModifier(m.survival.Snapshot())
	}
	if relevant := m.retriever.Retrieve(ctx, "finding the way out of the maze", m.cfg.RetrieveK, stress); len(relevant) > 0 {
		sb.WriteString("Relevant memories:\n")
		for _, res := range relevant {
			sb.WriteString("- " + res.Record.Description + "\n")
		}
	}

	sb.WriteString("Respond in exactly this format:\n")
	sb.WriteString("ACTION: MOVE <north|south|east|west> or ACTION: WAIT\n")
	sb.WriteString("REASONING: <one sentence>\n")
	return sb.String()
}

// parseReactiveResponse parses the ACTION/REASONING structured response.
func parseReactiveResponse(raw string) (Decision, bool) {
	var action, reasoning string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "ACTION:"):
			action = strings.TrimSpace(upper[len("ACTION:"):])
		case strings.HasPrefix(upper, "REASONING:"):
			reasoning = strings.TrimSpace(line[len("REASONING:"):])
		}
	}
	if reasoning == "" {
		reasoning = "the model did not explain itself"
	}

	switch {
	case action == "WAIT":
		return Decision{Action: ActWait, Reasoning: reasoning, Confidence: 0.7}, true
	case strings.HasPrefix(action, "MOVE "):
		switch world.Direction(strings.ToLower(strings.TrimSpace(action[len("MOVE "):]))) {
		case world.North:
			return Decision{Action: ActMove, Direction: world.North, Reasoning: reasoning, Confidence: 0.7}, true
		case world.South:
			return Decision{Action: ActMove, Direction: world.South, Reasoning: reasoning, Confidence: 0.7}, true
		case world.East:
			return Decision{Action: ActMove, Direction: world.East, Reasoning: reasoning, Confidence: 0.7}, true
		case world.West:
			return Decision{Action: ActMove, Direction: world.West, Reasoning: reasoning, Confidence: 0.7}, true
		}
	}
	return Decision{}, false
}

// heuristicPathing scores the four cardinal directions by progress toward
// the exit and picks the best open one; with no progress available it
// explores any open direction, else waits.
func (m *Maker) heuristicPathing(pos world.Point) Decision {
	if m.maze == nil {
		return wait("nothing to go on", 0.2)
	}
	goal := m.maze.Exit()
	if pos == goal {
		return wait("standing at the exit", 1.0)
	}

	if dir, ok := m.bestDirectionToward(pos, goal); ok {
		return Decision{
			Action:     ActMove,
			Direction:  dir,
			Reasoning:  fmt.Sprintf("moving %s brings me closer to the exit", dir),
			Confidence: 0.7,
		}
	}
	if dir, ok := m.anyOpenDirection(pos); ok {
		return Decision{
			Action:     ActMove,
			Direction:  dir,
			Reasoning:  fmt.Sprintf("no direct progress possible, exploring %s", dir),
			Confidence: 0.4,
		}
	}
	return wait("every direction is blocked", 0.2)
}

// bestDirectionToward returns the open direction that most reduces distance
// to the target, if any open direction reduces it at all.
func (m *Maker) bestDirectionToward(pos, target world.Point) (world.Direction, bool) {
	if m.maze == nil {
		return "", false
	}
	cur := pos.DistanceTo(target)
	best := world.Direction("")
	bestDist := cur
	for _, d := range world.Directions {
		if !world.Open(m.maze, pos, d) {
			continue
		}
		if next := d.Step(pos).DistanceTo(target); next < bestDist {
			best, bestDist = d, next
		}
	}
	return best, best != ""
}

// anyOpenDirection returns the first open direction in the fixed order.
func (m *Maker) anyOpenDirection(pos world.Point) (world.Direction, bool) {
	if m.maze == nil {
		return "", false
	}
	for _, d := range world.Directions {
		if world.Open(m.maze, pos, d) {
			return d, true
		}
	}
	return "", false
}

// explorationDirection currently matches anyOpenDirection; the host's
// visited-tile data would let it prefer unvisited neighbours.
func (m *Maker) explorationDirection(pos world.Point) (world.Direction, bool) {
	return m.anyOpenDirection(pos)
}
