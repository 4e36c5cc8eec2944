package flow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spigell/hh-interviewer/internal/interview"
)

// DefaultMaxQuestions ends a session once this many answers were given.
const DefaultMaxQuestions = 10

// Speaker identifies who produced a turn.
type Speaker int

const (
	SpeakerNone Speaker = iota
	SpeakerCandidate
	SpeakerInterviewer
)

func (s Speaker) String() string {
	switch s {
	case SpeakerCandidate:
		return "candidate"
	case SpeakerInterviewer:
		return "interviewer"
	default:
		return "any"
	}
}

// Trigger is a single completion rule. Triggers are evaluated in order and
// the first one that fires decides the completion reason.
type Trigger interface {
	Name() string
	Reason() interview.CompletionReason
	Fires(s *interview.SessionState, turn Turn) bool
}

// Status describes a trigger for listings.
type Status struct {
	Name    string
	Reason  interview.CompletionReason
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// Describe returns status entries for the provided triggers.
func Describe(triggers []Trigger) []Status {
	statuses := make([]Status, 0, len(triggers))
	for _, t := range triggers {
		if reporter, ok := t.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}
		statuses = append(statuses, Status{Name: t.Name(), Reason: t.Reason()})
	}
	return statuses
}

var candidateEndPhrases = []string{
	"end the interview",
	"finish the interview",
	"stop the interview",
	"don't want to continue",
	"i want to end",
	"i want to stop",
	"that's all",
	"no more questions",
}

var interviewerEndPhrases = []string{
	"thank you for your time",
	"thanks for joining",
	"that concludes our interview",
	"we'll be in touch",
	"we'll get back to you",
	"that wraps up",
	"that's all the questions i have",
}

// DefaultTriggers returns the standard completion rules in priority order.
func DefaultTriggers(maxQuestions int) []Trigger {
	return []Trigger{
		NewPhraseTrigger("candidate_phrases", SpeakerCandidate, interview.ReasonCandidateRequestedEnd, candidateEndPhrases),
		NewPhraseTrigger("interviewer_phrases", SpeakerInterviewer, interview.ReasonInterviewerConcluded, interviewerEndPhrases),
		NewMaxQuestions(maxQuestions),
	}
}

type phraseTrigger struct {
	name    string
	speaker Speaker
	reason  interview.CompletionReason
	phrases []string
}

// NewPhraseTrigger fires when a turn from speaker contains any phrase,
// compared case-insensitively.
func NewPhraseTrigger(name string, speaker Speaker, reason interview.CompletionReason, phrases []string) Trigger {
	normalized := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = normalize(p); p != "" {
			normalized = append(normalized, p)
		}
	}
	return &phraseTrigger{name: name, speaker: speaker, reason: reason, phrases: normalized}
}

func (t *phraseTrigger) Name() string { return t.name }

func (t *phraseTrigger) Reason() interview.CompletionReason { return t.reason }

func (t *phraseTrigger) Fires(_ *interview.SessionState, turn Turn) bool {
	if turn.speaker() != t.speaker {
		return false
	}
	text := normalize(turn.Text)
	for _, p := range t.phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func (t *phraseTrigger) Status() Status {
	return Status{
		Name:   t.name,
		Reason: t.reason,
		Details: map[string]string{
			"speaker": t.speaker.String(),
			"phrases": strings.Join(t.phrases, " | "),
		},
	}
}

type maxQuestionsTrigger struct {
	limit int
}

// NewMaxQuestions fires once the session has limit answers.
func NewMaxQuestions(limit int) Trigger {
	if limit <= 0 {
		limit = DefaultMaxQuestions
	}
	return &maxQuestionsTrigger{limit: limit}
}

func (t *maxQuestionsTrigger) Name() string { return "max_questions" }

func (t *maxQuestionsTrigger) Reason() interview.CompletionReason {
	return interview.ReasonMaxQuestionsReached
}

func (t *maxQuestionsTrigger) Fires(s *interview.SessionState, _ Turn) bool {
	return s.QuestionCount >= t.limit
}

func (t *maxQuestionsTrigger) Status() Status {
	return Status{
		Name:    t.Name(),
		Reason:  t.Reason(),
		Details: map[string]string{"limit": strconv.Itoa(t.limit)},
	}
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "`", "'")

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(apostrophes.Replace(s))), " ")
}

func (s Status) String() string {
	if len(s.Details) == 0 {
		return fmt.Sprintf("%s -> %s", s.Name, s.Reason)
	}
	return fmt.Sprintf("%s -> %s %v", s.Name, s.Reason, s.Details)
}
