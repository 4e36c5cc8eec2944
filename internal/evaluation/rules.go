package evaluation

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/spigell/hh-interviewer/internal/interview"
)

// Evaluator scores a single answer against the rubric.
type Evaluator interface {
	EvaluateAnswer(ctx context.Context, answer string, meta interview.QuestionMeta) (*interview.ScoreDetail, error)
	Name() string
}

// RulesName identifies the deterministic evaluator in ScoreDetail.Meta.
const RulesName = "rules"

// Rules is the deterministic lexical evaluator. It keeps no state and is
// safe for concurrent use.
type Rules struct{}

func NewRules() *Rules {
	return &Rules{}
}

func (r *Rules) Name() string { return RulesName }

// EvaluateAnswer never performs I/O; ctx is accepted to satisfy Evaluator.
func (r *Rules) EvaluateAnswer(_ context.Context, answer string, meta interview.QuestionMeta) (*interview.ScoreDetail, error) {
	return r.Evaluate(answer, meta)
}

// Evaluate scores answer. The same input always produces the same output.
func (r *Rules) Evaluate(answer string, meta interview.QuestionMeta) (*interview.ScoreDetail, error) {
	if err := validate(answer, meta); err != nil {
		return nil, err
	}

	meta = meta.Normalized()
	text := strings.TrimSpace(answer)
	sig := extractSignals(text, meta.Competency, meta.SignalsExpected)

	if sig.words == 0 {
		return emptyAnswerDetail(), nil
	}

	scores := score(sig)
	detail := &interview.ScoreDetail{
		Scores:      scores,
		Rationale:   rationale(sig, scores),
		ActionItems: actionItems(scores),
		Meta: map[string]any{
			interview.MetaEvaluator: RulesName,
			interview.MetaWordCount: sig.words,
			interview.MetaStar:      copyStar(sig.star),
			interview.MetaSignals:   signalSummary(sig),
		},
	}
	if snippet := exemplar(sig.sentences); snippet != "" {
		detail.ExemplarSnippet = &snippet
	}

	return detail, nil
}

func validate(answer string, meta interview.QuestionMeta) error {
	if !utf8.ValidString(answer) {
		return &interview.ValidationError{Field: "answer", Reason: "must be valid UTF-8 text"}
	}
	return meta.Validate()
}

func emptyAnswerDetail() *interview.ScoreDetail {
	return &interview.ScoreDetail{
		Scores:      interview.RubricScore{},
		Rationale:   "No answer was given, so no rubric signals could be observed.",
		ActionItems: actionItems(interview.RubricScore{}),
		Meta: map[string]any{
			interview.MetaEvaluator:   RulesName,
			interview.MetaWordCount:   0,
			interview.MetaEmptyAnswer: true,
		},
	}
}

func score(s *signals) interview.RubricScore {
	n := float64(s.words)
	lf := math.Min(1, n/12)
	fillerDensity := float64(s.fillers) / n
	jargonDensity := float64(s.jargon) / n
	named := float64(len(s.named))
	concrete := float64(s.numbers) + named

	clarity := 0.2 + 0.35*s.starAvg + 0.35*math.Min(1, concrete/4)
	if s.units > 0 {
		clarity += 0.1
	}
	clarity -= math.Min(0.4, fillerDensity*4)
	if s.avgLen > 30 {
		clarity -= math.Min(0.35, (s.avgLen-30)/100)
	}
	if jargonDensity >= 0.15 && s.explains == 0 {
		clarity = math.Min(clarity, 0.8)
	}
	clarity *= lf

	structure := 0.1 + 0.4*math.Min(1, float64(s.sequence)/3) + 0.35*s.starAvg
	if s.starOrdered {
		structure += 0.25 * float64(s.starPresent) / 4
	}
	if len(s.sentences) >= 2 || s.sequence >= 2 {
		structure += 0.1
	}
	if s.avgLen > 35 {
		structure = math.Min(structure, 0.6)
	}
	structure *= lf

	depth := 0.45*math.Min(1, float64(s.numbers+s.units)/3) +
		0.35*math.Min(1, named/3) +
		0.35*math.Min(1, float64(s.jargon)/4) +
		0.35*math.Min(1, float64(s.content)/60)

	jargonSignal := math.Min(1, float64(s.jargon)/5)
	overlap := s.overlap
	if overlap < 0 {
		overlap = jargonSignal
	}

	technical := 0.35*overlap + 0.4*jargonSignal + 0.25*math.Min(1, named/3)
	if s.competency == "technical" {
		technical += 0.15 * lf
	}

	alignment := competencyAlignment(s, jargonSignal)

	ownSignal := math.Min(1, float64(s.ownVerbs)/2)
	iRatio := 0.0
	if total := s.firstWords + s.weWords; total > 0 {
		iRatio = float64(s.firstWords) / float64(total)
	}

	roleFit := lf * (0.15 + 0.3*overlap + 0.35*alignment + 0.2*ownSignal)

	balance := 1.0
	switch {
	case s.avgLen < 8:
		balance = s.avgLen / 8
	case s.avgLen > 25:
		balance = math.Max(0, 1-(s.avgLen-25)/40)
	}
	communication := lf * (0.3*balance +
		0.3*(1-math.Min(1, fillerDensity*5)) +
		0.2*s.starAvg +
		0.2*math.Min(1, float64(s.sequence)/2))

	ownershipExtra := 0.2 * math.Min(1, float64(s.ownVerbs)/3)
	if s.competency == "leadership" {
		ownershipExtra = 0.2 * alignment
	}
	ownership := lf * (0.5*ownSignal + 0.3*iRatio + ownershipExtra)

	return interview.RubricScore{
		Clarity:          toRubric(clarity),
		Structure:        toRubric(structure),
		DepthSpecificity: toRubric(depth),
		RoleFit:          toRubric(roleFit),
		Technical:        toRubric(technical),
		Communication:    toRubric(communication),
		Ownership:        toRubric(ownership),
	}
}

// competencyAlignment measures how well the answer speaks to the competency
// the question targets.
func competencyAlignment(s *signals, jargonSignal float64) float64 {
	switch s.competency {
	case "technical":
		return jargonSignal
	case "behavioral":
		return s.starAvg
	}
	if _, ok := competencyPatterns[s.competency]; ok {
		return math.Min(1, float64(s.competencyHits)/3)
	}
	return 0.5
}

// toRubric maps a [0,1] signal onto the rubric scale with two decimals.
func toRubric(raw float64) float64 {
	v := interview.ClampScore(raw * interview.MaxScore)
	return math.Floor(v*100+0.5) / 100
}

func copyStar(star map[string]float64) map[string]any {
	out := make(map[string]any, len(star))
	for k, v := range star {
		out[k] = math.Floor(v*100+0.5) / 100
	}
	return out
}

func signalSummary(s *signals) map[string]any {
	return map[string]any{
		"sequence_markers": s.sequence,
		"hedges":           s.fillers,
		"numbers":          s.numbers,
		"units":            s.units,
		"named_entities":   append([]string(nil), s.named...),
		"jargon":           s.jargon,
		"sentences":        len(s.sentences),
		"ownership_verbs":  s.ownVerbs,
	}
}
