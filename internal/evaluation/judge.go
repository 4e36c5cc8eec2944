package evaluation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/logger"
	"go.uber.org/zap"
)

const defaultJudgeTimeout = 20 * time.Second

// Judge evaluates answers with an external model and falls back to the
// deterministic rules whenever the model cannot deliver in time.
type Judge struct {
	judge    ai.Judge
	fallback *Rules
	timeout  time.Duration
	logger   *zap.Logger
}

func NewJudge(judge ai.Judge, fallback *Rules, timeout time.Duration, log *zap.Logger) *Judge {
	if fallback == nil {
		fallback = NewRules()
	}
	if timeout <= 0 {
		timeout = defaultJudgeTimeout
	}
	model := ""
	if judge != nil {
		model = judge.Model()
	}

	return &Judge{
		judge:    judge,
		fallback: fallback,
		timeout:  timeout,
		logger:   logger.WithCommonFields(log, "", model).Named("judge"),
	}
}

func (j *Judge) Name() string {
	if j.judge == nil {
		return "judge"
	}
	return "judge:" + j.judge.Model()
}

func (j *Judge) EvaluateAnswer(ctx context.Context, answer string, meta interview.QuestionMeta) (*interview.ScoreDetail, error) {
	if err := validate(answer, meta); err != nil {
		return nil, err
	}

	if strings.TrimSpace(answer) == "" {
		// nothing to send upstream; the rules already know how to score silence
		return j.fallback.Evaluate(answer, meta)
	}

	judgement, err := j.call(ctx, answer, meta)
	if err != nil {
		return j.degrade(answer, meta, err)
	}

	scores := judgement.Scores.Clamp()
	detail := &interview.ScoreDetail{
		Scores:      scores,
		Rationale:   strings.TrimSpace(judgement.Rationale),
		ActionItems: judgement.ActionItems,
		Meta: map[string]any{
			interview.MetaEvaluator: j.Name(),
			interview.MetaWordCount: len(strings.Fields(answer)),
		},
	}
	if detail.Rationale == "" {
		detail.Rationale = "Scored by an external judge without a written rationale."
	}
	if len(detail.ActionItems) == 0 {
		detail.ActionItems = actionItems(scores)
	}
	if ex := strings.TrimSpace(judgement.Exemplar); ex != "" {
		detail.ExemplarSnippet = &ex
	}

	return detail, nil
}

func (j *Judge) call(ctx context.Context, answer string, meta interview.QuestionMeta) (*ai.Judgement, error) {
	if j.judge == nil {
		return nil, errors.New("judge is not configured")
	}

	callCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	judgement, err := j.judge.Judge(callCtx, answer, meta)
	if err != nil {
		return nil, &interview.UpstreamError{Provider: j.Name(), Err: err}
	}
	if judgement == nil {
		return nil, &interview.UpstreamError{Provider: j.Name(), Err: errors.New("empty judgement")}
	}
	return judgement, nil
}

func (j *Judge) degrade(answer string, meta interview.QuestionMeta, cause error) (*interview.ScoreDetail, error) {
	j.logger.Warn("external judge failed, falling back to rules", zap.Error(cause))

	detail, err := j.fallback.Evaluate(answer, meta)
	if err != nil {
		return nil, fmt.Errorf("fallback evaluation: %w", err)
	}
	detail.Meta[interview.MetaDegraded] = true
	detail.Meta[interview.MetaDegradedReason] = degradedReason(cause)
	return detail, nil
}

func degradedReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return err.Error()
	}
}
