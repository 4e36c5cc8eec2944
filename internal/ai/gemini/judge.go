package gemini

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/utils"
	"go.uber.org/zap"
)

type contentGenerator interface {
	GenerateJSON(ctx context.Context, system, message string) (string, error)
	Model() string
}

//go:embed prompts/judge.md
var judgeTemplate string

const (
	judgeSystem = "You are a strict but fair interview coach. You score answers against a fixed rubric and reply with JSON only."

	defaultMaxLogLength = 200
)

// Judge scores answers with a Gemini model.
type Judge struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewJudge(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Judge {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Judge{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (j *Judge) Model() string {
	return j.generator.Model()
}

func (j *Judge) Judge(ctx context.Context, answer string, meta interview.QuestionMeta) (*ai.Judgement, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, fmt.Errorf("answer is required")
	}

	prompt := buildJudgePrompt(answer, meta.Normalized())

	j.logger.Debug("gemini judge request",
		zap.String("competency", meta.Competency),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, j.maxLogLen)),
	)

	raw, err := j.generator.GenerateJSON(ctx, judgeSystem, prompt)
	if err != nil {
		return nil, err
	}

	j.logger.Debug("gemini judge response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, j.maxLogLen)),
	)

	judgement, err := parseJudgement(raw)
	if err != nil {
		return nil, err
	}
	judgement.Raw = raw
	return judgement, nil
}

func buildJudgePrompt(answer string, meta interview.QuestionMeta) string {
	competency := meta.Competency
	if competency == "" {
		competency = "general"
	}

	return fill(judgeTemplate, map[string]string{
		"COMPETENCY": competency,
		"DIFFICULTY": string(meta.Difficulty),
		"SIGNALS":    listOrNone(meta.SignalsExpected),
		"PITFALLS":   listOrNone(meta.Pitfalls),
		"ANSWER":     strings.TrimSpace(answer),
	})
}

func parseJudgement(raw string) (*ai.Judgement, error) {
	data, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	source := data
	if nested, ok := data["scores"].(map[string]any); ok {
		source = nested
	}

	var scores interview.RubricScore
	for _, d := range interview.Dimensions {
		v := coerceFloat(source[string(d)])
		if math.IsNaN(v) {
			return nil, fmt.Errorf("parse gemini response: missing %s score", d)
		}
		scores.Set(d, v)
	}

	return &ai.Judgement{
		Scores:      scores,
		Rationale:   coerceString(data["rationale"]),
		ActionItems: coerceStrings(data["action_items"]),
		Exemplar:    coerceString(data["exemplar"]),
	}, nil
}
