package engine

import (
	"context"
	"fmt"
	"maps"
	"math"
	"strings"

	"github.com/spigell/hh-interviewer/internal/flow"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/logger"
	"go.uber.org/zap"
)

// SubmitRequest carries one candidate answer. QuestionMeta overrides the
// metadata stored with the open question. Voice and video metrics are opaque
// maps produced by external analysers.
type SubmitRequest struct {
	SessionID    string
	Answer       string
	QuestionMeta *interview.QuestionMeta
	VoiceMetrics map[string]any
	VideoMetrics map[string]any
}

// TurnResult is the outcome of a submitted answer.
type TurnResult struct {
	SessionID        string                       `json:"session_id"`
	Evaluation       *interview.ScoreDetail       `json:"evaluation"`
	FollowUps        []interview.FollowUpQuestion `json:"follow_ups,omitempty"`
	NextQuestion     string                       `json:"next_question,omitempty"`
	NextQuestionMeta *interview.QuestionMeta      `json:"next_question_meta,omitempty"`
	FollowUp         bool                         `json:"follow_up,omitempty"`
	Stage            string                       `json:"stage"`
	QuestionCount    int                          `json:"question_count"`
	Completed        bool                         `json:"completed"`
	CompletionReason interview.CompletionReason   `json:"completion_reason,omitempty"`
}

// SubmitAnswer evaluates the answer, advances the session and, unless the
// session just ended, asks the next question. Calls for the same session are
// serialised.
func (e *Engine) SubmitAnswer(ctx context.Context, req SubmitRequest) (*TurnResult, error) {
	id := strings.TrimSpace(req.SessionID)
	if id == "" {
		return nil, &interview.ValidationError{Field: "session_id", Reason: "is required"}
	}
	if strings.TrimSpace(req.Answer) == "" && len(req.VoiceMetrics) == 0 && len(req.VideoMetrics) == 0 {
		return nil, &interview.ValidationError{Field: "answer", Reason: "is required unless voice or video metrics are supplied"}
	}

	unlock := e.locks.Lock(id)
	defer unlock()

	s, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Completed {
		return nil, &interview.StateError{SessionID: id, Op: "submit_answer", Reason: "session already completed"}
	}

	log := logger.WithSession(e.logger, id, s.Stage)

	meta := answerMeta(s, req.QuestionMeta)
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	eval, err := e.evaluator.EvaluateAnswer(ctx, req.Answer, meta)
	if err != nil {
		return nil, fmt.Errorf("evaluate answer: %w", err)
	}
	attachMetrics(eval, req)

	now := e.now()
	out, err := e.machine.Advance(s, flow.Turn{Text: req.Answer, FromCandidate: true, Evaluation: eval, At: now})
	if err != nil {
		return nil, err
	}

	log.Info("answer evaluated",
		zap.String("evaluator", e.evaluator.Name()),
		zap.Float64("average", round2(eval.Scores.Average())),
		zap.Bool("degraded", eval.Degraded()),
		zap.Int("question_count", s.QuestionCount),
	)

	result := &TurnResult{SessionID: id, Evaluation: eval}

	if !out.Completed {
		followUps, err := e.followUps.Generate(eval, meta, e.cfg.MaxFollowUps)
		if err != nil {
			log.Warn("generating follow-ups", zap.Error(err))
		}
		result.FollowUps = followUps

		q, isFollowUp := e.nextQuestion(ctx, s, turnContext{
			analysis:  e.loadAnalysis(ctx, s.ContextKey),
			answer:    req.Answer,
			eval:      eval,
			followUps: followUps,
			voice:     req.VoiceMetrics,
		}, log)

		next := q.Meta
		out, err = e.machine.Advance(s, flow.Turn{
			Text:            q.Text,
			FromInterviewer: true,
			QuestionMeta:    &next,
			FollowUp:        isFollowUp,
			At:              now,
		})
		if err != nil {
			return nil, err
		}

		result.NextQuestion = q.Text
		result.NextQuestionMeta = &next
		result.FollowUp = isFollowUp
	}

	if err := e.store.Put(ctx, id, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	result.Stage = out.Stage
	result.QuestionCount = s.QuestionCount
	result.Completed = out.Completed
	result.CompletionReason = out.CompletionReason
	return result, nil
}

// answerMeta picks the metadata the answer is scored against: the request,
// then the open question, then the stage default.
func answerMeta(s *interview.SessionState, override *interview.QuestionMeta) interview.QuestionMeta {
	switch open := s.OpenEntry(); {
	case override != nil:
		return withStageDefaults(*override, s.Stage)
	case open != nil && open.QuestionMeta != nil:
		return withStageDefaults(*open.QuestionMeta, open.Stage)
	default:
		return withStageDefaults(interview.QuestionMeta{}, s.Stage)
	}
}

func withStageDefaults(meta interview.QuestionMeta, stage string) interview.QuestionMeta {
	out := meta.Normalized()
	if out.Competency == "" {
		out.Competency = flow.Competency(stage)
	}
	return out
}

func attachMetrics(eval *interview.ScoreDetail, req SubmitRequest) {
	if eval.Meta == nil {
		eval.Meta = make(map[string]any)
	}
	if len(req.VoiceMetrics) > 0 {
		eval.Meta[interview.MetaVoiceMetrics] = maps.Clone(req.VoiceMetrics)
	}
	if len(req.VideoMetrics) > 0 {
		eval.Meta[interview.MetaVideoMetrics] = maps.Clone(req.VideoMetrics)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
