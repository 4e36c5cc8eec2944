package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/flow"
	"github.com/spigell/hh-interviewer/internal/followup"
	"github.com/spigell/hh-interviewer/internal/interview"
	"go.uber.org/zap"
)

// closingRemark is asked once the round plan is used up. It carries an
// interviewer end phrase, so asking it completes the session.
const closingRemark = "Thank you for your time. That concludes our interview, we'll be in touch with next steps."

type turnContext struct {
	analysis  *ai.ContextAnalysis
	answer    string
	eval      *interview.ScoreDetail
	followUps []interview.FollowUpQuestion
	voice     map[string]any
}

type bankQuestion struct {
	text string
	meta interview.QuestionMeta
}

var questionBank = map[string][]bankQuestion{
	flow.StageIntro: {
		{"Could you briefly introduce yourself and walk me through your background?", interview.QuestionMeta{Competency: "communication", Difficulty: interview.Easy}},
		{"What are you working on at the moment, and what is your part in it?", interview.QuestionMeta{Competency: "communication", Difficulty: interview.Easy}},
	},
	flow.StageHR: {
		{"What motivates you to apply for this role?", interview.QuestionMeta{Competency: "behavioral", Difficulty: interview.Easy, SignalsExpected: []string{"motivation", "role"}}},
		{"Where do you see your career in the next two or three years?", interview.QuestionMeta{Competency: "behavioral", Difficulty: interview.Medium, SignalsExpected: []string{"goals", "growth"}}},
		{"What kind of team culture helps you do your best work?", interview.QuestionMeta{Competency: "behavioral", Difficulty: interview.Medium, SignalsExpected: []string{"team", "culture"}}},
		{"Why are you looking to leave your current position?", interview.QuestionMeta{Competency: "behavioral", Difficulty: interview.Medium, Pitfalls: []string{"blaming others"}}},
	},
	flow.StageTechnical: {
		{"Tell me about a system you designed or scaled. What were the key trade-offs?", interview.QuestionMeta{Competency: "technical", Difficulty: interview.Medium, SignalsExpected: []string{"trade-offs", "scalability", "latency"}}},
		{"How do you find the root cause of a production incident? Walk me through a real example.", interview.QuestionMeta{Competency: "technical", Difficulty: interview.Medium, SignalsExpected: []string{"monitoring", "logs", "metrics"}}},
		{"How would you design caching for a read-heavy API, and how would you keep it consistent?", interview.QuestionMeta{Competency: "technical", Difficulty: interview.Hard, SignalsExpected: []string{"cache", "ttl", "invalidation", "consistency"}}},
		{"How do you decide what to test, and at which level?", interview.QuestionMeta{Competency: "technical", Difficulty: interview.Medium, SignalsExpected: []string{"unit", "integration", "coverage"}}},
		{"Describe a performance problem you fixed. How did you measure the improvement?", interview.QuestionMeta{Competency: "technical", Difficulty: interview.Hard, SignalsExpected: []string{"profiling", "latency", "benchmark"}}},
	},
	flow.StageBehavioral: {
		{"Tell me about a time you disagreed with a teammate. How did you resolve it?", interview.QuestionMeta{Competency: "behavioral", Difficulty: interview.Medium, SignalsExpected: []string{"conflict", "resolution"}, Pitfalls: []string{"blaming others"}}},
		{"Describe a project that did not go as planned. What did you do?", interview.QuestionMeta{Competency: "behavioral", Difficulty: interview.Medium, SignalsExpected: []string{"ownership", "lessons"}}},
		{"Tell me about a time you had to learn something new under a tight deadline.", interview.QuestionMeta{Competency: "behavioral", Difficulty: interview.Easy, SignalsExpected: []string{"learning", "deadline"}}},
	},
	flow.StageManagerial: {
		{"How do you prioritise work when everything seems urgent?", interview.QuestionMeta{Competency: "leadership", Difficulty: interview.Medium, SignalsExpected: []string{"prioritization", "stakeholders"}}},
		{"Tell me about a time you helped an underperforming team member improve.", interview.QuestionMeta{Competency: "leadership", Difficulty: interview.Hard, SignalsExpected: []string{"feedback", "coaching"}}},
		{"How do you make a decision when stakeholders want different things?", interview.QuestionMeta{Competency: "leadership", Difficulty: interview.Medium, SignalsExpected: []string{"alignment", "trade-offs"}}},
	},
	flow.StageClosing: {
		{"Is there anything about your experience we have not covered that you would like to add?", interview.QuestionMeta{Competency: "communication", Difficulty: interview.Easy}},
		{"What questions do you have for us about the role or the team?", interview.QuestionMeta{Competency: "communication", Difficulty: interview.Easy}},
	},
}

// nextQuestion chooses the next interviewer turn: the closing remark once the
// plan is used up, then a weak-area follow-up within the depth budget, then
// the question generator, then the built-in bank. The bool reports a follow-up.
func (e *Engine) nextQuestion(ctx context.Context, s *interview.SessionState, tc turnContext, log *zap.Logger) (*ai.GeneratedQuestion, bool) {
	if s.QuestionCount >= flow.PlanFor(s.RoundType).Len() {
		return &ai.GeneratedQuestion{
			Text: closingRemark,
			Meta: withStageDefaults(interview.QuestionMeta{}, flow.StageClosing),
		}, false
	}

	asked := askedQuestions(s)

	if f, ok := e.pickFollowUp(s, tc.followUps, asked); ok {
		return &ai.GeneratedQuestion{Text: f.Text, Meta: f.QuestionMeta()}, true
	}

	if e.questions != nil {
		q, err := e.generate(ctx, s, tc, asked)
		if err == nil {
			return q, false
		}
		log.Warn("question generator failed, using question bank",
			zap.String("model", e.questions.Model()),
			zap.Error(err),
		)
	}

	return fromBank(s, asked), false
}

func (e *Engine) pickFollowUp(s *interview.SessionState, followUps []interview.FollowUpQuestion, asked map[string]struct{}) (interview.FollowUpQuestion, bool) {
	if e.cfg.FollowUpDepth < 0 || trailingFollowUps(s) >= e.cfg.FollowUpDepth {
		return interview.FollowUpQuestion{}, false
	}

	for _, f := range followUps {
		if f.Meta.ImprovementArea == followup.ContinuedAssessment {
			continue
		}
		if _, dup := asked[normalizeQuestion(f.Text)]; dup {
			continue
		}
		return f, true
	}
	return interview.FollowUpQuestion{}, false
}

func (e *Engine) generate(ctx context.Context, s *interview.SessionState, tc turnContext, asked map[string]struct{}) (*ai.GeneratedQuestion, error) {
	history := make([]string, 0, len(s.History))
	for _, h := range s.History {
		history = append(history, h.Question)
	}

	req := ai.QuestionRequest{
		Role:             s.Role,
		Company:          s.Company,
		RoundType:        s.RoundType,
		Stage:            s.Stage,
		StageInstruction: flow.Instruction(s.Stage),
		QuestionNumber:   s.QuestionCount + 1,
		MaxQuestions:     min(e.cfg.MaxQuestions, flow.PlanFor(s.RoundType).Len()),
		LastQuestion:     s.LastQuestion(),
		LastAnswer:       tc.answer,
		Evaluation:       tc.eval,
		FollowUps:        tc.followUps,
		Analysis:         tc.analysis,
		VoiceMetrics:     tc.voice,
		AskedQuestions:   history,
	}

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.LLMTimeout)
	defer cancel()

	q, err := e.questions.NextQuestion(callCtx, req)
	if err != nil {
		return nil, fmt.Errorf("next question: %w", err)
	}
	if q == nil || strings.TrimSpace(q.Text) == "" {
		return nil, errors.New("next question: empty question")
	}
	if _, dup := asked[normalizeQuestion(q.Text)]; dup {
		return nil, fmt.Errorf("next question: repeated %q", q.Text)
	}

	meta := withStageDefaults(q.Meta, s.Stage)
	if meta.Validate() != nil {
		meta.Difficulty = interview.Medium
	}
	return &ai.GeneratedQuestion{Text: strings.TrimSpace(q.Text), Meta: meta}, nil
}

func fromBank(s *interview.SessionState, asked map[string]struct{}) *ai.GeneratedQuestion {
	candidates := questionBank[s.Stage]
	if len(candidates) == 0 {
		candidates = questionBank[flow.StageTechnical]
	}

	pick := candidates[s.QuestionCount%len(candidates)]
	for _, c := range candidates {
		if _, dup := asked[normalizeQuestion(c.text)]; !dup {
			pick = c
			break
		}
	}

	return &ai.GeneratedQuestion{Text: pick.text, Meta: pick.meta.Copy()}
}

// trailingFollowUps counts the follow-ups asked since the last regular question.
func trailingFollowUps(s *interview.SessionState) int {
	n := 0
	for i := len(s.History) - 1; i >= 0; i-- {
		if !s.History[i].FollowUp {
			break
		}
		n++
	}
	return n
}

func askedQuestions(s *interview.SessionState) map[string]struct{} {
	asked := make(map[string]struct{}, len(s.History))
	for _, h := range s.History {
		asked[normalizeQuestion(h.Question)] = struct{}{}
	}
	return asked
}

func normalizeQuestion(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
