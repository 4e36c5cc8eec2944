package followup

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/spigell/hh-interviewer/internal/interview"
)

const (
	// WeakThreshold marks a dimension as needing a follow-up.
	WeakThreshold = 3.0
	// EasyThreshold forces an easy follow-up regardless of the original difficulty.
	EasyThreshold = 1.5

	// ContinuedAssessment is the improvement area of the strong-answer probe.
	ContinuedAssessment = "continued_assessment"

	minTextLength = 20
)

// areaCompetency lists weak areas that imply a competency of their own.
var areaCompetency = map[interview.Dimension]string{
	interview.Technical:     "technical",
	interview.Communication: "communication",
	interview.Ownership:     "leadership",
}

// Generator turns an evaluation into probing follow-up questions. It holds
// no session state.
type Generator struct {
	threshold float64
}

func New() *Generator {
	return &Generator{threshold: WeakThreshold}
}

// IdentifyImprovementAreas returns every dimension scored below the weak
// threshold, weakest first. Ties keep rubric order.
func (g *Generator) IdentifyImprovementAreas(eval *interview.ScoreDetail) []interview.Dimension {
	if eval == nil {
		return nil
	}

	var weak []interview.Dimension
	for _, d := range interview.Dimensions {
		if eval.Scores.Get(d) < g.threshold {
			weak = append(weak, d)
		}
	}
	sort.SliceStable(weak, func(i, j int) bool {
		return eval.Scores.Get(weak[i]) < eval.Scores.Get(weak[j])
	})
	return weak
}

// Generate returns between one and limit follow-ups for the evaluated answer.
func (g *Generator) Generate(eval *interview.ScoreDetail, meta interview.QuestionMeta, limit int) ([]interview.FollowUpQuestion, error) {
	if eval == nil {
		return nil, &interview.ValidationError{Field: "evaluation", Reason: "is required"}
	}
	if limit < 1 {
		return nil, &interview.ValidationError{Field: "max_follow_ups", Reason: "must be at least 1"}
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	meta = meta.Normalized()

	weak := g.IdentifyImprovementAreas(eval)
	if len(weak) == 0 {
		q, err := continuedProbe(eval, meta)
		if err != nil {
			return nil, err
		}
		return []interview.FollowUpQuestion{q}, nil
	}

	if len(weak) > limit {
		weak = weak[:limit]
	}

	out := make([]interview.FollowUpQuestion, 0, len(weak))
	for _, area := range weak {
		q, err := weakAreaProbe(area, eval.Scores.Get(area), meta)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func weakAreaProbe(area interview.Dimension, score float64, meta interview.QuestionMeta) (interview.FollowUpQuestion, error) {
	competency := meta.Competency
	if implied, ok := areaCompetency[area]; ok {
		competency = implied
	}

	difficulty := meta.Difficulty.Easier()
	if score <= EasyThreshold {
		difficulty = interview.Easy
	}

	q := interview.FollowUpQuestion{
		Text:       render(areaTemplates[area], competency),
		Competency: competency,
		Difficulty: difficulty,
		Meta: interview.FollowUpMeta{
			SignalsExpected: signalsFor(competency, meta.SignalsExpected),
			Pitfalls:        dedupe(meta.Pitfalls),
			ImprovementArea: string(area),
			SourceScore:     score,
		},
	}
	return q, checkText(q.Text)
}

func continuedProbe(eval *interview.ScoreDetail, meta interview.QuestionMeta) (interview.FollowUpQuestion, error) {
	competency := meta.Competency
	template, ok := continuedTemplates[competency]
	if !ok {
		template = continuedTemplates[""]
	}

	q := interview.FollowUpQuestion{
		Text:       render(template, competency),
		Competency: competency,
		Difficulty: meta.Difficulty.Harder(),
		Meta: interview.FollowUpMeta{
			SignalsExpected: signalsFor(competency, meta.SignalsExpected),
			Pitfalls:        dedupe(meta.Pitfalls),
			ImprovementArea: ContinuedAssessment,
			SourceScore:     eval.Scores.Average(),
		},
	}
	return q, checkText(q.Text)
}

// signalsFor copies the expected signals and makes sure a technical probe
// always lists "technical" itself.
func signalsFor(competency string, signals []string) []string {
	out := dedupe(signals)
	if competency != "technical" {
		return out
	}
	for _, s := range out {
		if strings.EqualFold(s, "technical") {
			return out
		}
	}
	return append(out, "technical")
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

func checkText(text string) error {
	if !strings.Contains(text, "?") || utf8.RuneCountInString(text) < minTextLength {
		return fmt.Errorf("follow-up template produced an invalid question: %q", text)
	}
	return nil
}
