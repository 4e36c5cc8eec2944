package flow

import (
	"strings"
)

// Stage names used by the built-in plans.
const (
	StageIntro      = "intro"
	StageHR         = "hr"
	StageTechnical  = "technical"
	StageBehavioral = "behavioral"
	StageManagerial = "managerial"
	StageClosing    = "closing"
)

// Round types select a stage plan.
const (
	RoundFull       = "full"
	RoundHR         = "hr"
	RoundTechnical  = "technical"
	RoundBehavioral = "behavioral"
	RoundManagerial = "managerial"
	RoundDefault    = "default"
)

// StageQuota is the number of questions asked in one stage.
type StageQuota struct {
	Stage     string
	Questions int
}

// Plan is an ordered list of stages for a round type.
type Plan struct {
	RoundType string
	Stages    []StageQuota
}

var plans = map[string]Plan{
	RoundFull: {RoundType: RoundFull, Stages: []StageQuota{
		{StageIntro, 1}, {StageHR, 2}, {StageTechnical, 3}, {StageBehavioral, 2}, {StageManagerial, 1}, {StageClosing, 1},
	}},
	RoundHR: {RoundType: RoundHR, Stages: []StageQuota{
		{StageIntro, 1}, {StageHR, 4}, {StageClosing, 1},
	}},
	RoundTechnical: {RoundType: RoundTechnical, Stages: []StageQuota{
		{StageIntro, 1}, {StageTechnical, 5}, {StageClosing, 1},
	}},
	RoundBehavioral: {RoundType: RoundBehavioral, Stages: []StageQuota{
		{StageIntro, 1}, {StageBehavioral, 3}, {StageClosing, 1},
	}},
	RoundManagerial: {RoundType: RoundManagerial, Stages: []StageQuota{
		{StageIntro, 1}, {StageManagerial, 3}, {StageClosing, 1},
	}},
	RoundDefault: {RoundType: RoundDefault, Stages: []StageQuota{
		{StageIntro, 1}, {StageTechnical, 3}, {StageClosing, 1},
	}},
}

// PlanFor returns the plan for roundType, or the default plan when unknown.
func PlanFor(roundType string) Plan {
	if p, ok := plans[strings.ToLower(strings.TrimSpace(roundType))]; ok {
		return p
	}
	return plans[RoundDefault]
}

// RoundTypes lists the known round types.
func RoundTypes() []string {
	return []string{RoundFull, RoundHR, RoundTechnical, RoundBehavioral, RoundManagerial, RoundDefault}
}

// Sequence flattens the plan into one stage name per question.
func (p Plan) Sequence() []string {
	var out []string
	for _, q := range p.Stages {
		for i := 0; i < q.Questions; i++ {
			out = append(out, q.Stage)
		}
	}
	return out
}

// Len is the number of questions the plan schedules.
func (p Plan) Len() int {
	total := 0
	for _, q := range p.Stages {
		total += q.Questions
	}
	return total
}

// StageAt returns the stage for the question asked after answered answers.
// Past the end of the plan it stays on the last stage.
func (p Plan) StageAt(answered int) string {
	seq := p.Sequence()
	if len(seq) == 0 {
		return StageClosing
	}
	if answered < 0 {
		answered = 0
	}
	return seq[min(answered, len(seq)-1)]
}

var instructions = map[string]string{
	StageIntro:      "Open the interview warmly and ask the candidate to introduce themselves and their background.",
	StageHR:         "Ask about motivation, career goals, cultural fit and interest in the company.",
	StageTechnical:  "Ask a technical question grounded in the candidate's skills and the role requirements. Probe design decisions and trade-offs.",
	StageBehavioral: "Ask a behavioral question that invites a STAR story about teamwork, conflict or a challenge.",
	StageManagerial: "Ask about leading people, prioritisation, stakeholder management and decision making.",
	StageClosing:    "Wrap up: ask whether the candidate has questions, then thank them for their time.",
}

// Instruction describes what the interviewer should do in stage.
func Instruction(stage string) string {
	if text, ok := instructions[stage]; ok {
		return text
	}
	return instructions[StageTechnical]
}

// Competency maps a stage onto the competency its questions usually target.
func Competency(stage string) string {
	switch stage {
	case StageTechnical:
		return "technical"
	case StageBehavioral, StageHR:
		return "behavioral"
	case StageManagerial:
		return "leadership"
	case StageIntro, StageClosing:
		return "communication"
	default:
		return ""
	}
}
