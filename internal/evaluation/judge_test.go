package evaluation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/interview"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubJudge struct {
	judgement *ai.Judgement
	err       error
	block     bool
	calls     int
}

func (s *stubJudge) Judge(ctx context.Context, _ string, _ interview.QuestionMeta) (*ai.Judgement, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.judgement, s.err
}

func (s *stubJudge) Model() string { return "stub-model" }

func TestJudgeUsesExternalScores(t *testing.T) {
	t.Parallel()

	stub := &stubJudge{judgement: &ai.Judgement{
		Scores:    interview.RubricScore{Clarity: 4.5, Structure: 7, DepthSpecificity: 4, RoleFit: 4, Technical: 4, Communication: 4, Ownership: -1},
		Rationale: "Clear STAR story.",
		Exemplar:  "I cut latency by 80%.",
	}}
	judge := NewJudge(stub, nil, time.Second, zap.NewNop())

	detail, err := judge.EvaluateAnswer(context.Background(), answerStrong, technicalMeta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if detail.Degraded() {
		t.Fatalf("expected a non-degraded result")
	}
	if detail.Scores.Structure != 5 || detail.Scores.Ownership != 0 {
		t.Fatalf("expected external scores to be clamped, got %+v", detail.Scores)
	}
	if detail.Rationale != "Clear STAR story." {
		t.Fatalf("unexpected rationale: %q", detail.Rationale)
	}
	if len(detail.ActionItems) != 1 || detail.ActionItems[0] != actionTemplates[interview.Ownership] {
		t.Fatalf("expected rules-based action items for the weak dimension, got %v", detail.ActionItems)
	}
	if detail.ExemplarSnippet == nil || *detail.ExemplarSnippet != "I cut latency by 80%." {
		t.Fatalf("unexpected exemplar: %v", detail.ExemplarSnippet)
	}
	if detail.Meta[interview.MetaEvaluator] != "judge:stub-model" {
		t.Fatalf("unexpected evaluator name: %v", detail.Meta[interview.MetaEvaluator])
	}
}

func TestJudgeFallsBackOnProviderError(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.WarnLevel)
	stub := &stubJudge{err: errors.New("503 unavailable")}
	judge := NewJudge(stub, NewRules(), time.Second, zap.New(core))

	detail, err := judge.EvaluateAnswer(context.Background(), answerImpact, technicalMeta)
	if err != nil {
		t.Fatalf("expected degraded result instead of error, got %v", err)
	}

	if !detail.Degraded() {
		t.Fatalf("expected degraded flag, meta: %+v", detail.Meta)
	}
	if detail.Meta[interview.MetaEvaluator] != RulesName {
		t.Fatalf("expected rules evaluator in meta, got %v", detail.Meta[interview.MetaEvaluator])
	}

	expected := mustEvaluate(t, answerImpact, technicalMeta)
	if detail.Scores != expected.Scores {
		t.Fatalf("expected rules scores %+v, got %+v", expected.Scores, detail.Scores)
	}

	if observed.Len() != 1 {
		t.Fatalf("expected a warning to be logged, got %d entries", observed.Len())
	}
	if got := observed.All()[0].ContextMap()["ai_model"]; got != "stub-model" {
		t.Fatalf("expected model field on warning, got %v", got)
	}
}

func TestJudgeFallsBackOnTimeout(t *testing.T) {
	t.Parallel()

	stub := &stubJudge{block: true}
	judge := NewJudge(stub, nil, 10*time.Millisecond, zap.NewNop())

	detail, err := judge.EvaluateAnswer(context.Background(), answerClear, technicalMeta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !detail.Degraded() {
		t.Fatalf("expected degraded result on timeout")
	}
	if detail.Meta[interview.MetaDegradedReason] != "timeout" {
		t.Fatalf("expected timeout reason, got %v", detail.Meta[interview.MetaDegradedReason])
	}
}

func TestJudgeSkipsUpstreamForEmptyAnswer(t *testing.T) {
	t.Parallel()

	stub := &stubJudge{err: errors.New("should not be called")}
	judge := NewJudge(stub, nil, time.Second, zap.NewNop())

	detail, err := judge.EvaluateAnswer(context.Background(), "  ", technicalMeta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.calls != 0 {
		t.Fatalf("expected no upstream call, got %d", stub.calls)
	}
	if detail.Scores.Clarity != 0 {
		t.Fatalf("expected zero clarity, got %v", detail.Scores.Clarity)
	}
}

func TestJudgeValidatesBeforeCalling(t *testing.T) {
	t.Parallel()

	stub := &stubJudge{}
	judge := NewJudge(stub, nil, time.Second, zap.NewNop())

	_, err := judge.EvaluateAnswer(context.Background(), "ok", interview.QuestionMeta{Difficulty: "nope"})
	if !interview.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if stub.calls != 0 {
		t.Fatalf("expected no upstream call, got %d", stub.calls)
	}
}

func TestJudgeWithoutBackendDegrades(t *testing.T) {
	t.Parallel()

	judge := NewJudge(nil, nil, time.Second, nil)
	detail, err := judge.EvaluateAnswer(context.Background(), answerClear, technicalMeta)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !detail.Degraded() {
		t.Fatalf("expected degraded result without a backend")
	}
}
