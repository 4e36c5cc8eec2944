package followup

import (
	"slices"
	"strings"
	"testing"

	"github.com/spigell/hh-interviewer/internal/evaluation"
	"github.com/spigell/hh-interviewer/internal/interview"
)

func scores(v float64) interview.RubricScore {
	var r interview.RubricScore
	for _, d := range interview.Dimensions {
		r.Set(d, v)
	}
	return r
}

func TestIdentifyImprovementAreas(t *testing.T) {
	t.Parallel()

	s := scores(4)
	s.Ownership = 1.0
	s.Clarity = 2.0
	s.Structure = 2.0
	s.Technical = 2.99
	s.RoleFit = 3.0

	got := New().IdentifyImprovementAreas(&interview.ScoreDetail{Scores: s})
	want := []interview.Dimension{interview.Ownership, interview.Clarity, interview.Structure, interview.Technical}
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if New().IdentifyImprovementAreas(nil) != nil {
		t.Fatalf("expected nil for missing evaluation")
	}
}

func TestGenerateStrongAnswerContinuesAssessment(t *testing.T) {
	t.Parallel()

	for _, difficulty := range []interview.Difficulty{interview.Easy, interview.Medium, interview.Hard} {
		meta := interview.QuestionMeta{Competency: "technical", Difficulty: difficulty, SignalsExpected: []string{"caching"}}
		out, err := New().Generate(&interview.ScoreDetail{Scores: scores(4.2)}, meta, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(out) != 1 {
			t.Fatalf("expected a single probe, got %d", len(out))
		}
		q := out[0]
		if q.Meta.ImprovementArea != ContinuedAssessment {
			t.Fatalf("unexpected improvement area: %s", q.Meta.ImprovementArea)
		}
		if q.Difficulty != interview.Medium && q.Difficulty != interview.Hard {
			t.Fatalf("expected medium or hard difficulty, got %s", q.Difficulty)
		}
		if q.Difficulty != difficulty.Harder() {
			t.Fatalf("expected one step harder than %s, got %s", difficulty, q.Difficulty)
		}
	}
}

func TestGenerateWeakAreas(t *testing.T) {
	t.Parallel()

	s := scores(4)
	s.Clarity = 2.5
	s.DepthSpecificity = 1.2
	s.Structure = 2.0

	meta := interview.QuestionMeta{
		Competency:      "behavioral",
		Difficulty:      interview.Hard,
		SignalsExpected: []string{"impact", "impact", " ownership "},
		Pitfalls:        []string{"vague"},
	}

	out, err := New().Generate(&interview.ScoreDetail{Scores: s}, meta, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	areas := make([]string, 0, len(out))
	for _, q := range out {
		areas = append(areas, q.Meta.ImprovementArea)
	}
	want := []string{"depth_specificity", "structure", "clarity"}
	if !slices.Equal(areas, want) {
		t.Fatalf("expected areas %v, got %v", want, areas)
	}

	if out[0].Difficulty != interview.Easy {
		t.Fatalf("expected easy difficulty for a very low score, got %s", out[0].Difficulty)
	}
	if out[1].Difficulty != interview.Medium {
		t.Fatalf("expected one step easier than hard, got %s", out[1].Difficulty)
	}

	for _, q := range out {
		if q.Competency != "behavioral" {
			t.Fatalf("expected behavioral competency, got %s", q.Competency)
		}
		if !slices.Equal(q.Meta.SignalsExpected, []string{"impact", "ownership"}) {
			t.Fatalf("unexpected signals: %v", q.Meta.SignalsExpected)
		}
		if !slices.Equal(q.Meta.Pitfalls, []string{"vague"}) {
			t.Fatalf("unexpected pitfalls: %v", q.Meta.Pitfalls)
		}
	}
}

func TestGenerateRespectsLimit(t *testing.T) {
	t.Parallel()

	eval := &interview.ScoreDetail{Scores: scores(1)}
	for k := 1; k <= 8; k++ {
		out, err := New().Generate(eval, interview.QuestionMeta{}, k)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out) < 1 || len(out) > k {
			t.Fatalf("expected between 1 and %d follow-ups, got %d", k, len(out))
		}
	}

	if _, err := New().Generate(eval, interview.QuestionMeta{}, 0); !interview.IsValidation(err) {
		t.Fatalf("expected validation error for zero limit, got %v", err)
	}
	if _, err := New().Generate(nil, interview.QuestionMeta{}, 1); !interview.IsValidation(err) {
		t.Fatalf("expected validation error for missing evaluation, got %v", err)
	}
}

func TestGenerateWeakAreaFloor(t *testing.T) {
	t.Parallel()

	s := scores(3.5)
	s.Communication = 2.9
	s.RoleFit = 0.5

	out, err := New().Generate(&interview.ScoreDetail{Scores: s}, interview.QuestionMeta{Competency: "leadership"}, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, area := range New().IdentifyImprovementAreas(&interview.ScoreDetail{Scores: s}) {
		found := false
		for _, q := range out {
			if q.Meta.ImprovementArea == string(area) {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected weak area %s to be covered", area)
		}
	}

	if out[1].Competency != "communication" {
		t.Fatalf("expected communication area to imply its competency, got %s", out[1].Competency)
	}
}

func TestGenerateTechnicalArea(t *testing.T) {
	t.Parallel()

	s := scores(4)
	s.Technical = 1.0

	out, err := New().Generate(&interview.ScoreDetail{Scores: s}, interview.QuestionMeta{Competency: "behavioral", Difficulty: interview.Hard}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q := out[0]
	if q.Competency != "technical" {
		t.Fatalf("expected technical competency, got %s", q.Competency)
	}
	if !slices.Contains(q.Meta.SignalsExpected, "technical") {
		t.Fatalf("expected technical signal, got %v", q.Meta.SignalsExpected)
	}
	if q.Difficulty != interview.Easy && q.Difficulty != interview.Medium {
		t.Fatalf("expected easier follow-up for a very low score, got %s", q.Difficulty)
	}
}

func TestGenerateTextsMatchArea(t *testing.T) {
	t.Parallel()

	keywords := map[interview.Dimension][]string{
		interview.Clarity:          {"clarify", "specific", "explain", "describe", "how", "what"},
		interview.Structure:        {"structure", "organize", "step", "process"},
		interview.DepthSpecificity: {"detail", "specific", "depth", "example", "how"},
	}

	for _, d := range interview.Dimensions {
		s := scores(4)
		s.Set(d, 2)

		out, err := New().Generate(&interview.ScoreDetail{Scores: s}, interview.QuestionMeta{}, 1)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", d, err)
		}

		text := out[0].Text
		if !strings.Contains(text, "?") || len(text) < minTextLength {
			t.Fatalf("%s: invalid question text %q", d, text)
		}

		words, ok := keywords[d]
		if !ok {
			continue
		}
		lower := strings.ToLower(text)
		matched := false
		for _, w := range words {
			if strings.Contains(lower, w) {
				matched = true
				break
			}
		}
		if !matched {
			t.Fatalf("%s: expected one of %v in %q", d, words, text)
		}
	}
}

func TestGenerateFromRulesEvaluation(t *testing.T) {
	t.Parallel()

	meta := interview.QuestionMeta{Competency: "technical", Difficulty: interview.Hard}
	eval, err := evaluation.NewRules().Evaluate("I added some caching and monitoring.", meta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := New().Generate(eval, meta, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected the cap to apply to a weak answer, got %d", len(out))
	}
	for _, q := range out {
		if q.Difficulty == interview.Hard {
			t.Fatalf("expected weak-area follow-ups to be easier than hard, got %+v", q)
		}
	}
}

func TestCheckText(t *testing.T) {
	t.Parallel()

	if err := checkText("Why?"); err == nil {
		t.Fatalf("expected short text to be rejected")
	}
	if err := checkText("This is long enough but has no question mark."); err == nil {
		t.Fatalf("expected text without question mark to be rejected")
	}
	for _, tmpl := range continuedTemplates {
		if err := checkText(render(tmpl, "")); err != nil {
			t.Fatalf("continued template invalid: %v", err)
		}
	}
}
