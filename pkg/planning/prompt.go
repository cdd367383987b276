package planning

// prompt.go builds the structured planning prompts and parses the model's
// line-oriented responses. Any parse failure makes the caller fall back to
// the heuristic path; nothing here returns an error upward.

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mazemind/mazemind/pkg/world"
)

// dailyPrompt asks for a GOAL / REASONING / PRIORITY triple.
func dailyPrompt(pc Context) string {
	var sb strings.Builder
	sb.WriteString("You are a character surviving in a maze. Plan your day.\n")
	fmt.Fprintf(&sb, "Position: (%d,%d). Hunger %.0f, thirst %.0f, energy %.0f, stress %.0f (0-100).\n",
		pc.Position.X, pc.Position.Y, pc.Survival.Hunger, pc.Survival.Thirst, pc.Survival.Energy, pc.Survival.Stress)
	fmt.Fprintf(&sb, "Exploration progress: %.0f%%.\n", pc.ExplorationRatio*100)
	if len(pc.RecentMemories) > 0 {
		sb.WriteString("Recent memories:\n")
		for _, m := range pc.RecentMemories {
			sb.WriteString("- " + m + "\n")
		}
	}
	sb.WriteString("Respond in exactly this format:\n")
	sb.WriteString("GOAL: <one-sentence goal>\n")
	sb.WriteString("REASONING: <one sentence>\n")
	sb.WriteString("PRIORITY: <critical|high|medium|low>\n")
	return sb.String()
}

// parseDailyResponse extracts the GOAL/REASONING/PRIORITY lines.
func parseDailyResponse(raw string) (goal, reasoning string, priority Priority, ok bool) {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(strings.ToUpper(line), "GOAL:"):
			goal = strings.TrimSpace(line[len("GOAL:"):])
		case strings.HasPrefix(strings.ToUpper(line), "REASONING:"):
			reasoning = strings.TrimSpace(line[len("REASONING:"):])
		case strings.HasPrefix(strings.ToUpper(line), "PRIORITY:"):
			switch strings.ToLower(strings.TrimSpace(line[len("PRIORITY:"):])) {
			case "critical":
				priority = PriorityCritical
			case "high":
				priority = PriorityHigh
			case "medium":
				priority = PriorityMedium
			case "low":
				priority = PriorityLow
			}
		}
	}
	if goal == "" || priority == "" {
		return "", "", "", false
	}
	if reasoning == "" {
		reasoning = "model did not state its reasoning"
	}
	return goal, reasoning, priority, true
}

// hourlyPrompt asks for one objective per line.
func hourlyPrompt(daily *DailyPlan, pc Context, hours int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "My goal for the day: %s (%s).\n", daily.Goal, daily.Reasoning)
	fmt.Fprintf(&sb, "Break it into %d hourly objectives, one short line each, no numbering.\n", hours)
	fmt.Fprintf(&sb, "I am at (%d,%d) with %.0f%% of the maze explored.\n",
		pc.Position.X, pc.Position.Y, pc.ExplorationRatio*100)
	return sb.String()
}

// parseListResponse returns up to max non-empty trimmed lines, with any
// leading numbering or bullets stripped.
func parseListResponse(raw string, max int) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimLeft(strings.TrimSpace(line), "0123456789.-*) ")
		if line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == max {
			break
		}
	}
	return out
}

// actionPrompt asks for one action per line in a fixed vocabulary.
func actionPrompt(hourly *HourlyPlan, pc Context, slots int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "This hour's objective: %s.\n", hourly.Objective)
	fmt.Fprintf(&sb, "I am at (%d,%d).\n", pc.Position.X, pc.Position.Y)
	fmt.Fprintf(&sb, "List up to %d actions, one per line, each in one of these forms:\n", slots)
	sb.WriteString("MOVE <x>,<y>\nEXPLORE\nSEEK <item>\nCONSUME <item>\nREST\nREFLECT\nWAIT\n")
	return sb.String()
}

// parseActionResponse parses the fixed action vocabulary. Unrecognized lines
// are skipped; an empty result means the caller should use the heuristic.
func parseActionResponse(raw string) []actionSpec {
	var specs []actionSpec
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		verb := strings.ToUpper(strings.TrimRight(fields[0], ":"))
		arg := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))

		switch verb {
		case "MOVE":
			if target, ok := parsePoint(arg); ok {
				specs = append(specs, actionSpec{description: "move toward (" + arg + ")", typ: ActionMove, target: &target})
			}
		case "EXPLORE":
			specs = append(specs, actionSpec{description: "explore an unvisited passage", typ: ActionExplore})
		case "SEEK":
			if arg != "" {
				specs = append(specs, actionSpec{description: "search for " + arg, typ: ActionSeekItem, item: strings.ToLower(arg)})
			}
		case "CONSUME":
			if arg != "" {
				specs = append(specs, actionSpec{description: "consume the " + arg, typ: ActionConsumeItem, item: strings.ToLower(arg)})
			}
		case "REST":
			specs = append(specs, actionSpec{description: "rest and recover energy", typ: ActionRest})
		case "REFLECT":
			specs = append(specs, actionSpec{description: "pause and reflect", typ: ActionReflect})
		case "WAIT":
			specs = append(specs, actionSpec{description: "wait", typ: ActionWait})
		}
	}
	return specs
}

// parsePoint parses "x,y".
func parsePoint(s string) (world.Point, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ",", 2)
	if len(parts) != 2 {
		return world.Point{}, false
	}
	x, errX := strconv.Atoi(strings.TrimSpace(parts[0]))
	y, errY := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errX != nil || errY != nil {
		return world.Point{}, false
	}
	return world.Point{X: x, Y: y}, true
}
