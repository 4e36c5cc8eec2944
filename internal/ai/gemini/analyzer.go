package gemini

import (
	"context"
	"errors"
	"math"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/utils"
	"go.uber.org/zap"
)

//go:embed prompts/analysis.md
var analysisTemplate string

const (
	analysisSystem = "You are a technical recruiter preparing an interviewer. You reply with JSON only."

	maxDocumentRunes = 12000
)

// Analyzer digests a resume and job description with a Gemini model.
type Analyzer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewAnalyzer(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Analyzer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Analyzer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (a *Analyzer) Model() string {
	return a.generator.Model()
}

func (a *Analyzer) Analyze(ctx context.Context, resume, jobDescription string) (*ai.ContextAnalysis, error) {
	resume = strings.TrimSpace(resume)
	jobDescription = strings.TrimSpace(jobDescription)
	if resume == "" && jobDescription == "" {
		return nil, errors.New("resume or job description is required")
	}

	prompt := fill(analysisTemplate, map[string]string{
		"RESUME":          orNone(truncateRunes(resume, maxDocumentRunes)),
		"JOB_DESCRIPTION": orNone(truncateRunes(jobDescription, maxDocumentRunes)),
	})

	a.logger.Debug("gemini analysis request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateJSON(ctx, analysisSystem, prompt)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("gemini analysis response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	return parseAnalysis(raw)
}

func parseAnalysis(raw string) (*ai.ContextAnalysis, error) {
	data, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	years := coerceFloat(data["years_experience"])
	if math.IsNaN(years) || years < 0 {
		years = 0
	}

	return &ai.ContextAnalysis{
		CandidateName:   coerceString(data["candidate_name"]),
		CurrentRole:     coerceString(data["current_role"]),
		YearsExperience: years,
		Skills:          coerceStrings(data["skills"]),
		RequiredSkills:  coerceStrings(data["required_skills"]),
		MatchingSkills:  coerceStrings(data["matching_skills"]),
		MissingSkills:   coerceStrings(data["missing_skills"]),
		FocusAreas:      coerceStrings(data["focus_areas"]),
		Summary:         coerceString(data["summary"]),
		Source:          Provider,
	}, nil
}
