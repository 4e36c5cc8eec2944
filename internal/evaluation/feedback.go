package evaluation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spigell/hh-interviewer/internal/interview"
)

// ActionItemThreshold is the score below which a dimension gets an action item.
const ActionItemThreshold = 4.0

var actionTemplates = map[interview.Dimension]string{
	interview.Clarity:          "Lead with your main point and replace hedging words with concrete facts.",
	interview.Structure:        "Organize the answer as situation, task, action and result, and signpost each step.",
	interview.DepthSpecificity: "Back up claims with specific numbers, tools and measurable outcomes.",
	interview.RoleFit:          "Connect the example to the responsibilities of the role you are interviewing for.",
	interview.Technical:        "Explain the technical choices you made and the trade-offs behind them.",
	interview.Communication:    "Keep sentences short and use transitions such as first, then and finally.",
	interview.Ownership:        "Describe your personal contribution with I-statements and the decisions you owned.",
}

// actionItems returns one item per dimension under the threshold, weakest
// first with ties kept in rubric order.
func actionItems(scores interview.RubricScore) []string {
	weak := make([]interview.Dimension, 0, len(interview.Dimensions))
	for _, d := range interview.Dimensions {
		if scores.Get(d) < ActionItemThreshold {
			weak = append(weak, d)
		}
	}
	sort.SliceStable(weak, func(i, j int) bool {
		return scores.Get(weak[i]) < scores.Get(weak[j])
	})

	items := make([]string, 0, len(weak))
	for _, d := range weak {
		items = append(items, actionTemplates[d])
	}
	return items
}

func rationale(s *signals, scores interview.RubricScore) string {
	var parts []string

	var covered []string
	for _, c := range starOrder {
		if s.star[c] > 0 {
			covered = append(covered, c)
		}
	}
	if len(covered) > 0 {
		parts = append(parts, fmt.Sprintf("STAR coverage: %s", strings.Join(covered, ", ")))
	} else {
		parts = append(parts, "no STAR components detected")
	}

	if s.sequence > 0 {
		parts = append(parts, fmt.Sprintf("%d sequencing marker(s)", s.sequence))
	}
	if q := s.numbers + s.units; q > 0 {
		parts = append(parts, fmt.Sprintf("%d quantified detail(s)", q))
	}
	if len(s.named) > 0 {
		parts = append(parts, fmt.Sprintf("named: %s", strings.Join(s.named, ", ")))
	}
	if s.jargon > 0 {
		parts = append(parts, fmt.Sprintf("%d technical term(s)", s.jargon))
	}
	if s.fillers > 0 {
		parts = append(parts, fmt.Sprintf("%d hedge(s)", s.fillers))
	}
	if s.avgLen > 30 {
		parts = append(parts, fmt.Sprintf("long sentences (avg %.0f words)", s.avgLen))
	}
	if s.overlap >= 0 {
		parts = append(parts, fmt.Sprintf("expected signals covered: %.0f%%", s.overlap*100))
	}

	strongest, weakest := extremes(scores)
	return fmt.Sprintf("%s. Strongest: %s (%.2f); weakest: %s (%.2f).",
		capitalize(strings.Join(parts, "; ")),
		strongest, scores.Get(strongest),
		weakest, scores.Get(weakest),
	)
}

func extremes(scores interview.RubricScore) (interview.Dimension, interview.Dimension) {
	strongest, weakest := interview.Dimensions[0], interview.Dimensions[0]
	for _, d := range interview.Dimensions[1:] {
		if scores.Get(d) > scores.Get(strongest) {
			strongest = d
		}
		if scores.Get(d) < scores.Get(weakest) {
			weakest = d
		}
	}
	return strongest, weakest
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// exemplar picks the sentence carrying the most concrete detail.
func exemplar(sentences []string) string {
	best, bestHits := "", 0
	for _, sentence := range sentences {
		lower := strings.ToLower(sentence)
		hits := count(numberPattern, lower) + count(unitPattern, lower) + count(jargonPattern, lower) + len(KnownTools(lower))
		if hits > bestHits {
			best, bestHits = strings.TrimSpace(sentence), hits
		}
	}
	return best
}
