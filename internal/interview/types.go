package interview

import (
	"math"
	"strings"
	"time"
)

// Dimension names a single rubric axis.
type Dimension string

const (
	Clarity          Dimension = "clarity"
	Structure        Dimension = "structure"
	DepthSpecificity Dimension = "depth_specificity"
	RoleFit          Dimension = "role_fit"
	Technical        Dimension = "technical"
	Communication    Dimension = "communication"
	Ownership        Dimension = "ownership"
)

// Dimensions lists every rubric dimension in canonical order. Ties are broken
// by this order wherever dimensions are ranked.
var Dimensions = []Dimension{
	Clarity,
	Structure,
	DepthSpecificity,
	RoleFit,
	Technical,
	Communication,
	Ownership,
}

const (
	MinScore = 0.0
	MaxScore = 5.0
)

// RubricScore holds one score per dimension in the [0, 5] range.
type RubricScore struct {
	Clarity          float64 `json:"clarity" mapstructure:"clarity"`
	Structure        float64 `json:"structure" mapstructure:"structure"`
	DepthSpecificity float64 `json:"depth_specificity" mapstructure:"depth_specificity"`
	RoleFit          float64 `json:"role_fit" mapstructure:"role_fit"`
	Technical        float64 `json:"technical" mapstructure:"technical"`
	Communication    float64 `json:"communication" mapstructure:"communication"`
	Ownership        float64 `json:"ownership" mapstructure:"ownership"`
}

// Get returns the score for the given dimension. Unknown dimensions yield 0.
func (r RubricScore) Get(d Dimension) float64 {
	switch d {
	case Clarity:
		return r.Clarity
	case Structure:
		return r.Structure
	case DepthSpecificity:
		return r.DepthSpecificity
	case RoleFit:
		return r.RoleFit
	case Technical:
		return r.Technical
	case Communication:
		return r.Communication
	case Ownership:
		return r.Ownership
	default:
		return 0
	}
}

// Set stores v for the given dimension; unknown dimensions are ignored.
func (r *RubricScore) Set(d Dimension, v float64) {
	switch d {
	case Clarity:
		r.Clarity = v
	case Structure:
		r.Structure = v
	case DepthSpecificity:
		r.DepthSpecificity = v
	case RoleFit:
		r.RoleFit = v
	case Technical:
		r.Technical = v
	case Communication:
		r.Communication = v
	case Ownership:
		r.Ownership = v
	}
}

// Clamp returns a copy with every dimension forced into [0, 5]. NaN becomes 0.
func (r RubricScore) Clamp() RubricScore {
	out := r
	for _, d := range Dimensions {
		out.Set(d, ClampScore(r.Get(d)))
	}
	return out
}

// Average is the unweighted mean across all dimensions.
func (r RubricScore) Average() float64 {
	total := 0.0
	for _, d := range Dimensions {
		total += r.Get(d)
	}
	return total / float64(len(Dimensions))
}

// ClampScore bounds v to the rubric range.
func ClampScore(v float64) float64 {
	if math.IsNaN(v) {
		return MinScore
	}
	return math.Max(MinScore, math.Min(MaxScore, v))
}

// Meta keys written into ScoreDetail.Meta.
const (
	MetaEvaluator      = "evaluator"
	MetaWordCount      = "word_count"
	MetaStar           = "star"
	MetaSignals        = "signals"
	MetaEmptyAnswer    = "empty_answer"
	MetaDegraded       = "degraded"
	MetaDegradedReason = "degraded_reason"
	MetaVoiceMetrics   = "voice_metrics"
	MetaVideoMetrics   = "video_metrics"
)

// ScoreDetail is the full result of evaluating a single answer.
type ScoreDetail struct {
	Scores          RubricScore    `json:"scores"`
	Rationale       string         `json:"rationale"`
	ActionItems     []string       `json:"action_items"`
	ExemplarSnippet *string        `json:"exemplar_snippet,omitempty"`
	Meta            map[string]any `json:"meta,omitempty"`
}

// Degraded reports whether the detail was produced by the fallback path.
func (d *ScoreDetail) Degraded() bool {
	if d == nil {
		return false
	}
	v, ok := d.Meta[MetaDegraded].(bool)
	return ok && v
}

// Clone returns a deep copy of d, including maps and slices nested in Meta.
func (d *ScoreDetail) Clone() *ScoreDetail {
	if d == nil {
		return nil
	}

	out := &ScoreDetail{
		Scores:      d.Scores,
		Rationale:   d.Rationale,
		ActionItems: append([]string(nil), d.ActionItems...),
	}
	if d.ExemplarSnippet != nil {
		snippet := *d.ExemplarSnippet
		out.ExemplarSnippet = &snippet
	}
	if d.Meta != nil {
		out.Meta = make(map[string]any, len(d.Meta))
		for k, v := range d.Meta {
			out.Meta[k] = cloneValue(v)
		}
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, inner := range val {
			m[k] = cloneValue(inner)
		}
		return m
	case map[string]float64:
		m := make(map[string]float64, len(val))
		for k, inner := range val {
			m[k] = inner
		}
		return m
	case []string:
		return append([]string(nil), val...)
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}

// Difficulty of a question.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ParseDifficulty normalises s. An empty string defaults to medium.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return Medium, nil
	case Easy:
		return Easy, nil
	case Medium:
		return Medium, nil
	case Hard:
		return Hard, nil
	default:
		return "", &ValidationError{Field: "difficulty", Reason: "must be one of easy, medium, hard"}
	}
}

// Valid reports whether d is one of the known levels.
func (d Difficulty) Valid() bool {
	return d == Easy || d == Medium || d == Hard
}

// Easier returns one level down, saturating at easy.
func (d Difficulty) Easier() Difficulty {
	switch d {
	case Hard:
		return Medium
	default:
		return Easy
	}
}

// Harder returns one level up, saturating at hard.
func (d Difficulty) Harder() Difficulty {
	switch d {
	case Easy:
		return Medium
	default:
		return Hard
	}
}

// QuestionMeta describes what a question is meant to probe.
type QuestionMeta struct {
	Competency      string     `json:"competency" mapstructure:"competency"`
	Difficulty      Difficulty `json:"difficulty" mapstructure:"difficulty"`
	SignalsExpected []string   `json:"signals_expected,omitempty" mapstructure:"signals_expected"`
	Pitfalls        []string   `json:"pitfalls,omitempty" mapstructure:"pitfalls"`
}

// Validate checks the difficulty; an empty difficulty is accepted as medium.
func (m QuestionMeta) Validate() error {
	if m.Difficulty == "" {
		return nil
	}
	if !m.Difficulty.Valid() {
		return &ValidationError{Field: "question_meta.difficulty", Reason: "must be one of easy, medium, hard"}
	}
	return nil
}

// Copy returns m with its own slices.
func (m QuestionMeta) Copy() QuestionMeta {
	out := m
	out.SignalsExpected = append([]string(nil), m.SignalsExpected...)
	out.Pitfalls = append([]string(nil), m.Pitfalls...)
	return out
}

// Normalized returns a copy with a lower-cased competency and a default difficulty.
func (m QuestionMeta) Normalized() QuestionMeta {
	out := m.Copy()
	out.Competency = strings.ToLower(strings.TrimSpace(m.Competency))
	if out.Difficulty == "" {
		out.Difficulty = Medium
	}
	return out
}

// FollowUpMeta carries the context a follow-up was generated from.
type FollowUpMeta struct {
	SignalsExpected []string `json:"signals_expected"`
	Pitfalls        []string `json:"pitfalls"`
	ImprovementArea string   `json:"improvement_area"`
	SourceScore     float64  `json:"source_score"`
}

// FollowUpQuestion is a probe generated from an evaluation.
type FollowUpQuestion struct {
	Text       string       `json:"text"`
	Competency string       `json:"competency"`
	Difficulty Difficulty   `json:"difficulty"`
	Meta       FollowUpMeta `json:"meta"`
}

// QuestionMeta converts the follow-up into metadata for the question it becomes.
func (f FollowUpQuestion) QuestionMeta() QuestionMeta {
	return QuestionMeta{
		Competency:      f.Competency,
		Difficulty:      f.Difficulty,
		SignalsExpected: append([]string(nil), f.Meta.SignalsExpected...),
		Pitfalls:        append([]string(nil), f.Meta.Pitfalls...),
	}
}

// HistoryEntry records one question and, once given, its answer and evaluation.
type HistoryEntry struct {
	Question     string        `json:"question"`
	QuestionMeta *QuestionMeta `json:"question_meta,omitempty"`
	FollowUp     bool          `json:"follow_up,omitempty"`
	Answer       *string       `json:"answer,omitempty"`
	Evaluation   *ScoreDetail  `json:"evaluation,omitempty"`
	Stage        string        `json:"stage"`
	Timestamp    time.Time     `json:"timestamp"`
	AnsweredAt   *time.Time    `json:"answered_at,omitempty"`
}

// Answered reports whether the answer/evaluation pair is already attached.
func (h HistoryEntry) Answered() bool {
	return h.Answer != nil
}

// CompletionReason explains why a session ended.
type CompletionReason string

const (
	ReasonCandidateRequestedEnd CompletionReason = "candidate_requested_end"
	ReasonInterviewerConcluded  CompletionReason = "interviewer_concluded"
	ReasonMaxQuestionsReached   CompletionReason = "max_questions_reached"
	ReasonManual                CompletionReason = "manual"
)

// StageCompleted is the terminal stage of every session.
const StageCompleted = "completed"

// SessionState is the persisted state of a single interview session.
type SessionState struct {
	SessionID        string           `json:"session_id"`
	UserID           string           `json:"user_id"`
	Role             string           `json:"role"`
	Company          string           `json:"company,omitempty"`
	RoundType        string           `json:"round_type"`
	Stage            string           `json:"stage"`
	QuestionCount    int              `json:"question_count"`
	Completed        bool             `json:"completed"`
	CompletionReason CompletionReason `json:"completion_reason,omitempty"`
	ContextKey       string           `json:"context_key,omitempty"`
	History          []HistoryEntry   `json:"history"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`

	// Restored is set by stores when the record outlived its TTL but was
	// still retained. It is never persisted.
	Restored bool `json:"-"`
}

// OpenEntry returns the last history entry when it still awaits an answer.
func (s *SessionState) OpenEntry() *HistoryEntry {
	if s == nil || len(s.History) == 0 {
		return nil
	}
	last := &s.History[len(s.History)-1]
	if last.Answered() {
		return nil
	}
	return last
}

// LastQuestion returns the most recent question asked, or "".
func (s *SessionState) LastQuestion() string {
	if s == nil || len(s.History) == 0 {
		return ""
	}
	return s.History[len(s.History)-1].Question
}

// Evaluations returns every evaluation recorded in history, oldest first.
func (s *SessionState) Evaluations() []*ScoreDetail {
	if s == nil {
		return nil
	}
	out := make([]*ScoreDetail, 0, len(s.History))
	for _, h := range s.History {
		if h.Evaluation != nil {
			out = append(out, h.Evaluation)
		}
	}
	return out
}

// Clone deep-copies the state so the copy shares nothing with the original.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}

	out := *s
	out.History = make([]HistoryEntry, len(s.History))
	for i, h := range s.History {
		entry := h
		if h.QuestionMeta != nil {
			meta := h.QuestionMeta.Copy()
			entry.QuestionMeta = &meta
		}
		if h.Answer != nil {
			answer := *h.Answer
			entry.Answer = &answer
		}
		if h.AnsweredAt != nil {
			at := *h.AnsweredAt
			entry.AnsweredAt = &at
		}
		entry.Evaluation = h.Evaluation.Clone()
		out.History[i] = entry
	}
	return &out
}
