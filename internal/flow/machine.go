package flow

import (
	"fmt"
	"time"

	"github.com/spigell/hh-interviewer/internal/interview"
	"go.uber.org/zap"
)

// Turn is one utterance in the conversation.
type Turn struct {
	Text            string
	FromCandidate   bool
	FromInterviewer bool

	// Evaluation is attached to the answered entry on candidate turns.
	Evaluation *interview.ScoreDetail
	// QuestionMeta and FollowUp describe the question on interviewer turns.
	QuestionMeta *interview.QuestionMeta
	FollowUp     bool

	At time.Time
}

func (t Turn) speaker() Speaker {
	switch {
	case t.FromCandidate:
		return SpeakerCandidate
	case t.FromInterviewer:
		return SpeakerInterviewer
	default:
		return SpeakerNone
	}
}

// Outcome is the state machine's view of a session after a turn.
type Outcome struct {
	Stage            string                     `json:"stage"`
	Completed        bool                       `json:"completed"`
	CompletionReason interview.CompletionReason `json:"completion_reason,omitempty"`
}

// Machine moves sessions through their stage plan and decides when they end.
// It keeps no per-session state.
type Machine struct {
	triggers []Trigger
	logger   *zap.Logger
	now      func() time.Time
}

// NewMachine builds a machine with the given triggers, or the default rules
// when none are supplied.
func NewMachine(logger *zap.Logger, triggers ...Trigger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(triggers) == 0 {
		triggers = DefaultTriggers(DefaultMaxQuestions)
	}
	return &Machine{triggers: triggers, logger: logger, now: time.Now}
}

// Triggers returns the completion rules in evaluation order.
func (m *Machine) Triggers() []Trigger {
	return append([]Trigger(nil), m.triggers...)
}

// Start puts a fresh session on the first stage of its plan.
func (m *Machine) Start(s *interview.SessionState) Outcome {
	s.Stage = PlanFor(s.RoundType).StageAt(0)
	s.QuestionCount = 0
	s.Completed = false
	s.CompletionReason = ""
	return outcomeOf(s)
}

// Advance records turn on s and runs the completion triggers. A completed
// session is rejected untouched.
func (m *Machine) Advance(s *interview.SessionState, turn Turn) (Outcome, error) {
	if s == nil {
		return Outcome{}, &interview.ValidationError{Field: "session", Reason: "is required"}
	}
	if s.Completed {
		return outcomeOf(s), &interview.StateError{SessionID: s.SessionID, Op: "advance", Reason: "session already completed"}
	}
	if turn.FromCandidate && turn.FromInterviewer {
		return outcomeOf(s), &interview.ValidationError{Field: "turn", Reason: "cannot come from both candidate and interviewer"}
	}

	at := turn.At
	if at.IsZero() {
		at = m.now()
	}

	switch turn.speaker() {
	case SpeakerCandidate:
		m.recordAnswer(s, turn, at)
	case SpeakerInterviewer:
		m.recordQuestion(s, turn, at)
	}
	s.UpdatedAt = at

	for _, t := range m.triggers {
		if !t.Fires(s, turn) {
			continue
		}
		finish(s, t.Reason())
		m.logger.Info("session completed",
			zap.String("session_id", s.SessionID),
			zap.String("trigger", t.Name()),
			zap.String("reason", string(t.Reason())),
			zap.Int("question_count", s.QuestionCount),
		)
		break
	}

	return outcomeOf(s), nil
}

// Complete ends the session with reason (manual when empty). Manual
// completion always succeeds; any other reason conflicts with an earlier one.
func (m *Machine) Complete(s *interview.SessionState, reason interview.CompletionReason) (Outcome, error) {
	if s == nil {
		return Outcome{}, &interview.ValidationError{Field: "session", Reason: "is required"}
	}
	if reason == "" {
		reason = interview.ReasonManual
	}

	if s.Completed {
		if reason == interview.ReasonManual || reason == s.CompletionReason {
			return outcomeOf(s), nil
		}
		return outcomeOf(s), &interview.StateError{
			SessionID: s.SessionID,
			Op:        "complete",
			Reason:    fmt.Sprintf("already completed with reason %q", s.CompletionReason),
		}
	}

	finish(s, reason)
	s.UpdatedAt = m.now()
	return outcomeOf(s), nil
}

func (m *Machine) recordAnswer(s *interview.SessionState, turn Turn, at time.Time) {
	entry := s.OpenEntry()
	if entry == nil {
		s.History = append(s.History, interview.HistoryEntry{Stage: s.Stage, Timestamp: at})
		entry = &s.History[len(s.History)-1]
	}

	answer := turn.Text
	entry.Answer = &answer
	entry.Evaluation = turn.Evaluation.Clone()
	entry.AnsweredAt = &at

	s.QuestionCount++
	s.Stage = PlanFor(s.RoundType).StageAt(s.QuestionCount)
}

func (m *Machine) recordQuestion(s *interview.SessionState, turn Turn, at time.Time) {
	entry := interview.HistoryEntry{
		Question:  turn.Text,
		FollowUp:  turn.FollowUp,
		Stage:     s.Stage,
		Timestamp: at,
	}
	if turn.QuestionMeta != nil {
		meta := turn.QuestionMeta.Copy()
		entry.QuestionMeta = &meta
	}
	s.History = append(s.History, entry)
}

func finish(s *interview.SessionState, reason interview.CompletionReason) {
	s.Completed = true
	s.CompletionReason = reason
	s.Stage = interview.StageCompleted
}

func outcomeOf(s *interview.SessionState) Outcome {
	return Outcome{Stage: s.Stage, Completed: s.Completed, CompletionReason: s.CompletionReason}
}
