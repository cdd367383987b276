package reflection

// heuristic.go holds the deterministic fallback synthesis used when no
// language model is configured. Insights come from fixed pattern detectors
// over memory text; no randomness is involved, so the output for a given
// memory set is stable and testable.

import (
	"fmt"
	"strings"

	"github.com/mazemind/mazemind/pkg/memory"
)

// detector counts occurrences of a phrase across the source texts and emits
// an insight once the count reaches its threshold.
type detector struct {
	phrase    string
	threshold int
	insight   func(count int) string
}

// detectors are evaluated in order; the first one over threshold wins for
// pattern questions.
var detectors = []detector{
	{
		phrase:    "dead end",
		threshold: 3,
		insight: func(n int) string {
			return fmt.Sprintf("I keep running into dead ends (%d so far); I should backtrack sooner and mark the passages I have already ruled out.", n)
		},
	},
	{
		phrase:    "junction",
		threshold: 3,
		insight: func(n int) string {
			return fmt.Sprintf("I have passed %d junctions; keeping track of which branches I took would stop me from circling.", n)
		},
	},
	{
		phrase:    "food",
		threshold: 2,
		insight: func(n int) string {
			return "Food has come up repeatedly in my memories; I should note where I found it in case hunger becomes pressing."
		},
	},
	{
		phrase:    "water",
		threshold: 2,
		insight: func(n int) string {
			return "Water keeps appearing in my memories; remembering those spots could matter when thirst builds."
		},
	},
}

// heuristicInsight answers a question deterministically from the source
// memories: matching pattern detector first, then a question-keyed template.
func heuristicInsight(question string, sources []*memory.Record) string {
	joined := strings.ToLower(joinDescriptions(sources))

	for _, d := range detectors {
		if n := strings.Count(joined, d.phrase); n >= d.threshold {
			return d.insight(n)
		}
	}

	q := strings.ToLower(question)
	top := topDescription(sources)
	switch {
	case strings.Contains(q, "pattern"):
		return "No single pattern dominates yet; the moment that stands out most is: " + top
	case strings.Contains(q, "learned"):
		return "What I have learned so far mostly comes down to this: " + top
	case strings.Contains(q, "strateg"):
		return "My working strategy is to keep moving toward unexplored ground; the experience shaping it: " + top
	default:
		return "Reflecting on recent events, the one that matters most is: " + top
	}
}

// classify maps node text to a category by keyword. Level 2 and above are
// always meta.
func classify(text string, level int) Category {
	if level >= 2 {
		return CategoryMeta
	}
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "strateg") || strings.Contains(t, "should") || strings.Contains(t, "plan"):
		return CategoryStrategy
	case strings.Contains(t, "stress") || strings.Contains(t, "afraid") || strings.Contains(t, "anxious") || strings.Contains(t, "tired"):
		return CategoryEmotional
	case strings.Contains(t, "learn") || strings.Contains(t, "realiz") || strings.Contains(t, "discover"):
		return CategoryLearning
	case strings.Contains(t, "someone") || strings.Contains(t, "talk") || strings.Contains(t, "other"):
		return CategorySocial
	default:
		return CategoryPattern
	}
}

func joinDescriptions(recs []*memory.Record) string {
	parts := make([]string, len(recs))
	for i, r := range recs {
		parts[i] = r.Description
	}
	return strings.Join(parts, ". ")
}

// topDescription returns the description of the most important source, or a
// placeholder for an empty set.
func topDescription(recs []*memory.Record) string {
	best := ""
	bestImp := 0
	for _, r := range recs {
		if r.Importance > bestImp {
			best, bestImp = r.Description, r.Importance
		}
	}
	if best == "" {
		return "nothing noteworthy has happened yet"
	}
	return best
}
