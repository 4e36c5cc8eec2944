package interview

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"
)

func TestRubricScoreClamp(t *testing.T) {
	t.Parallel()

	raw := RubricScore{
		Clarity:          -1,
		Structure:        7.5,
		DepthSpecificity: math.NaN(),
		RoleFit:          2.5,
		Technical:        5,
		Communication:    0,
		Ownership:        4.99,
	}

	got := raw.Clamp()
	for _, d := range Dimensions {
		v := got.Get(d)
		if v < MinScore || v > MaxScore {
			t.Fatalf("%s out of range: %v", d, v)
		}
	}

	if got.Clarity != 0 || got.Structure != 5 || got.DepthSpecificity != 0 || got.RoleFit != 2.5 {
		t.Fatalf("unexpected clamp result: %+v", got)
	}
}

func TestRubricScoreGetSet(t *testing.T) {
	t.Parallel()

	var r RubricScore
	for i, d := range Dimensions {
		r.Set(d, float64(i))
	}
	for i, d := range Dimensions {
		if got := r.Get(d); got != float64(i) {
			t.Fatalf("%s: expected %v, got %v", d, float64(i), got)
		}
	}

	if r.Get("unknown") != 0 {
		t.Fatalf("expected unknown dimension to read as 0")
	}

	if avg := r.Average(); avg != 3 {
		t.Fatalf("expected average 3, got %v", avg)
	}
}

func TestDifficultySteps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     Difficulty
		easier Difficulty
		harder Difficulty
	}{
		{Easy, Easy, Medium},
		{Medium, Easy, Hard},
		{Hard, Medium, Hard},
	}

	for _, tt := range tests {
		if got := tt.in.Easier(); got != tt.easier {
			t.Fatalf("%s easier: expected %s, got %s", tt.in, tt.easier, got)
		}
		if got := tt.in.Harder(); got != tt.harder {
			t.Fatalf("%s harder: expected %s, got %s", tt.in, tt.harder, got)
		}
	}
}

func TestParseDifficulty(t *testing.T) {
	t.Parallel()

	if d, err := ParseDifficulty(" HARD "); err != nil || d != Hard {
		t.Fatalf("expected hard, got %q (%v)", d, err)
	}

	if d, err := ParseDifficulty(""); err != nil || d != Medium {
		t.Fatalf("expected medium default, got %q (%v)", d, err)
	}

	_, err := ParseDifficulty("impossible")
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestQuestionMetaValidate(t *testing.T) {
	t.Parallel()

	if err := (QuestionMeta{Competency: "technical"}).Validate(); err != nil {
		t.Fatalf("expected empty difficulty to be accepted, got %v", err)
	}

	err := (QuestionMeta{Difficulty: "extreme"}).Validate()
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Field != "question_meta.difficulty" {
		t.Fatalf("unexpected field: %s", vErr.Field)
	}
}

func TestSessionStateCloneIsDeep(t *testing.T) {
	t.Parallel()

	answer := "I built it."
	snippet := "I built it."
	state := &SessionState{
		SessionID: "s1",
		Stage:     "technical",
		History: []HistoryEntry{{
			Question:     "What did you build?",
			QuestionMeta: &QuestionMeta{Competency: "technical", SignalsExpected: []string{"design"}},
			Answer:       &answer,
			Evaluation: &ScoreDetail{
				Scores:          RubricScore{Clarity: 3},
				ActionItems:     []string{"add numbers"},
				ExemplarSnippet: &snippet,
				Meta:            map[string]any{MetaStar: map[string]any{"action": 1.0}},
			},
			Timestamp: time.Unix(0, 0).UTC(),
		}},
	}

	clone := state.Clone()
	*clone.History[0].Answer = "changed"
	clone.History[0].QuestionMeta.SignalsExpected[0] = "changed"
	clone.History[0].Evaluation.ActionItems[0] = "changed"
	clone.History[0].Evaluation.Meta[MetaStar].(map[string]any)["action"] = 0.0
	clone.History = append(clone.History, HistoryEntry{Question: "extra"})

	if *state.History[0].Answer != "I built it." {
		t.Fatalf("answer shared with clone")
	}
	if state.History[0].QuestionMeta.SignalsExpected[0] != "design" {
		t.Fatalf("question meta shared with clone")
	}
	if state.History[0].Evaluation.ActionItems[0] != "add numbers" {
		t.Fatalf("action items shared with clone")
	}
	if state.History[0].Evaluation.Meta[MetaStar].(map[string]any)["action"] != 1.0 {
		t.Fatalf("meta shared with clone")
	}
	if len(state.History) != 1 {
		t.Fatalf("history slice shared with clone")
	}
}

func TestSessionStateOpenEntry(t *testing.T) {
	t.Parallel()

	state := &SessionState{}
	if state.OpenEntry() != nil {
		t.Fatalf("expected no open entry on empty history")
	}

	state.History = append(state.History, HistoryEntry{Question: "q1"})
	if open := state.OpenEntry(); open == nil || open.Question != "q1" {
		t.Fatalf("expected q1 to be open, got %+v", open)
	}

	answer := "a1"
	state.History[0].Answer = &answer
	if state.OpenEntry() != nil {
		t.Fatalf("expected answered entry to be closed")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("submit: %w", &NotFoundError{SessionID: "x"})
	if !IsNotFound(wrapped) {
		t.Fatalf("expected wrapped not found error to be detected")
	}

	state := fmt.Errorf("advance: %w", &StateError{SessionID: "x", Op: "advance", Reason: "session completed"})
	if !IsState(state) || IsValidation(state) {
		t.Fatalf("unexpected classification for %v", state)
	}

	cause := errors.New("boom")
	upstream := &UpstreamError{Provider: "gemini", Err: cause}
	if !errors.Is(upstream, cause) {
		t.Fatalf("expected upstream error to unwrap")
	}
}
