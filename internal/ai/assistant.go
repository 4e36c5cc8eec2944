package ai

import (
	"context"

	"github.com/spigell/hh-interviewer/internal/interview"
)

// Judgement is an external model's rubric assessment of an answer.
type Judgement struct {
	Scores      interview.RubricScore
	Rationale   string
	ActionItems []string
	Exemplar    string
	Raw         string
}

// Judge scores an answer with an external model.
type Judge interface {
	Judge(ctx context.Context, answer string, meta interview.QuestionMeta) (*Judgement, error)
	Model() string
}

// QuestionRequest is the context handed to a question generator.
type QuestionRequest struct {
	Role             string
	Company          string
	RoundType        string
	Stage            string
	StageInstruction string
	QuestionNumber   int
	MaxQuestions     int
	LastQuestion     string
	LastAnswer       string
	Evaluation       *interview.ScoreDetail
	FollowUps        []interview.FollowUpQuestion
	Analysis         *ContextAnalysis
	VoiceMetrics     map[string]any
	AskedQuestions   []string
}

// GeneratedQuestion is the next interviewer utterance with its metadata.
type GeneratedQuestion struct {
	Text string
	Meta interview.QuestionMeta
}

// QuestionGenerator produces the next interviewer question.
type QuestionGenerator interface {
	NextQuestion(ctx context.Context, req QuestionRequest) (*GeneratedQuestion, error)
	Model() string
}

// ContextAnalysis is the structured digest of a resume and job description.
type ContextAnalysis struct {
	CandidateName   string   `json:"candidate_name,omitempty"`
	CurrentRole     string   `json:"current_role,omitempty"`
	YearsExperience float64  `json:"years_experience,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	RequiredSkills  []string `json:"required_skills,omitempty"`
	MatchingSkills  []string `json:"matching_skills,omitempty"`
	MissingSkills   []string `json:"missing_skills,omitempty"`
	FocusAreas      []string `json:"focus_areas,omitempty"`
	Summary         string   `json:"summary,omitempty"`
	Source          string   `json:"source,omitempty"`
}

// Analyzer digests a resume and job description.
type Analyzer interface {
	Analyze(ctx context.Context, resume, jobDescription string) (*ContextAnalysis, error)
	Model() string
}
