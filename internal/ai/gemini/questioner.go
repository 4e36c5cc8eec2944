package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/utils"
	"go.uber.org/zap"
)

//go:embed prompts/question.md
var questionTemplate string

const (
	questionSystem = "You are an experienced interviewer running a structured, adaptive interview. You ask one question at a time and reply with JSON only."

	maxUserInstructionRunes = 500
	maxAnswerRunes          = 1500

	defaultTone     = "Friendly"
	defaultLanguage = "English"
)

// PromptOverrides are user supplied knobs merged into the question prompt.
type PromptOverrides struct {
	Tone             string
	Language         string
	UserInstructions string
}

// Questioner asks a Gemini model for the next interview question.
type Questioner struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
	overrides PromptOverrides
}

func NewQuestioner(generator contentGenerator, maxLogLength int, logger *zap.Logger) *Questioner {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Questioner{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (q *Questioner) SetPromptOverrides(overrides PromptOverrides) {
	q.overrides = overrides
}

func (q *Questioner) Model() string {
	return q.generator.Model()
}

func (q *Questioner) NextQuestion(ctx context.Context, req ai.QuestionRequest) (*ai.GeneratedQuestion, error) {
	prompt, err := q.buildPrompt(req)
	if err != nil {
		return nil, err
	}

	q.logger.Debug("gemini question request",
		zap.String("stage", req.Stage),
		zap.Int("question_number", req.QuestionNumber),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, q.maxLogLen)),
	)

	raw, err := q.generator.GenerateJSON(ctx, questionSystem, prompt)
	if err != nil {
		return nil, err
	}

	q.logger.Debug("gemini question response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, q.maxLogLen)),
	)

	return parseQuestion(raw)
}

func (q *Questioner) buildPrompt(req ai.QuestionRequest) (string, error) {
	company := ""
	if c := sanitizeLine(req.Company); c != "" {
		company = " at " + c
	}

	evaluation, err := compactJSON(req.Evaluation)
	if err != nil {
		return "", fmt.Errorf("marshal evaluation: %w", err)
	}
	analysis, err := compactJSON(req.Analysis)
	if err != nil {
		return "", fmt.Errorf("marshal analysis: %w", err)
	}
	voice, err := compactJSON(req.VoiceMetrics)
	if err != nil {
		return "", fmt.Errorf("marshal voice metrics: %w", err)
	}

	followUps := make([]string, 0, len(req.FollowUps))
	for _, f := range req.FollowUps {
		followUps = append(followUps, fmt.Sprintf("%s (competency: %s, difficulty: %s)", f.Text, f.Competency, f.Difficulty))
	}

	return fill(questionTemplate, map[string]string{
		"ROLE":              orNone(sanitizeLine(req.Role)),
		"COMPANY":           company,
		"ROUND_TYPE":        orNone(req.RoundType),
		"STAGE":             orNone(req.Stage),
		"STAGE_INSTRUCTION": orNone(req.StageInstruction),
		"QUESTION_NUMBER":   strconv.Itoa(req.QuestionNumber),
		"MAX_QUESTIONS":     strconv.Itoa(req.MaxQuestions),
		"TONE":              valueOrDefault(sanitizeLine(q.overrides.Tone), defaultTone),
		"LANGUAGE":          valueOrDefault(sanitizeLine(q.overrides.Language), defaultLanguage),
		"USER_INSTRUCTIONS": sanitizeInstructions(q.overrides.UserInstructions),
		"LAST_QUESTION":     orNone(req.LastQuestion),
		"LAST_ANSWER":       orNone(truncateRunes(strings.TrimSpace(req.LastAnswer), maxAnswerRunes)),
		"EVALUATION":        evaluation,
		"FOLLOW_UPS":        bulletList(followUps),
		"ANALYSIS":          analysis,
		"VOICE_METRICS":     voice,
		"ASKED":             bulletList(req.AskedQuestions),
	}), nil
}

func parseQuestion(raw string) (*ai.GeneratedQuestion, error) {
	data, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	text := coerceString(data["question"])
	if text == "" {
		return nil, fmt.Errorf("parse gemini response: question is empty")
	}

	difficulty, err := interview.ParseDifficulty(coerceString(data["difficulty"]))
	if err != nil {
		difficulty = interview.Medium
	}

	return &ai.GeneratedQuestion{
		Text: text,
		Meta: interview.QuestionMeta{
			Competency:      strings.ToLower(coerceString(data["competency"])),
			Difficulty:      difficulty,
			SignalsExpected: coerceStrings(data["signals_expected"]),
			Pitfalls:        coerceStrings(data["pitfalls"]),
		},
	}, nil
}

// sanitizeLine flattens s to one line and neutralises section markers.
func sanitizeLine(s string) string {
	s = strings.NewReplacer("[", "(", "]", ")").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func sanitizeInstructions(s string) string {
	s = truncateRunes(strings.TrimSpace(s), maxUserInstructionRunes)

	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = sanitizeLine(line); line != "" {
			lines = append(lines, "  - "+line)
		}
	}
	if len(lines) == 0 {
		return "  - none"
	}
	return strings.Join(lines, "\n")
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func bulletList(items []string) string {
	var lines []string
	for _, item := range items {
		if item = sanitizeLine(item); item != "" {
			lines = append(lines, "- "+item)
		}
	}
	if len(lines) == 0 {
		return "- none"
	}
	return strings.Join(lines, "\n")
}

func compactJSON(v any) (string, error) {
	if v == nil {
		return "none", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if s := string(data); s != "null" && s != "{}" {
		return s, nil
	}
	return "none", nil
}

func orNone(s string) string {
	return valueOrDefault(strings.TrimSpace(s), "none")
}

func valueOrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
