package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/evaluation"
	"github.com/spigell/hh-interviewer/internal/flow"
	"github.com/spigell/hh-interviewer/internal/followup"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/logger"
	"github.com/spigell/hh-interviewer/internal/store"
	"go.uber.org/zap"
)

const (
	DefaultMaxFollowUps  = 2
	DefaultFollowUpDepth = 1
	DefaultLLMTimeout    = 30 * time.Second
)

// Config tunes the interview flow.
type Config struct {
	RoundType    string `mapstructure:"round-type"`
	MaxQuestions int    `mapstructure:"max-questions"`
	// MaxFollowUps caps the follow-ups generated per answer.
	MaxFollowUps int `mapstructure:"max-follow-ups"`
	// FollowUpDepth is how many follow-ups may be asked in a row. Negative
	// disables asking them directly; they are still offered to the question
	// generator as suggestions.
	FollowUpDepth int           `mapstructure:"follow-up-depth"`
	LLMTimeout    time.Duration `mapstructure:"llm-timeout"`
}

func (c *Config) withDefaults() Config {
	var out Config
	if c != nil {
		out = *c
	}
	if out.MaxQuestions <= 0 {
		out.MaxQuestions = flow.DefaultMaxQuestions
	}
	if out.MaxFollowUps <= 0 {
		out.MaxFollowUps = DefaultMaxFollowUps
	}
	if out.FollowUpDepth == 0 {
		out.FollowUpDepth = DefaultFollowUpDepth
	}
	if out.LLMTimeout <= 0 {
		out.LLMTimeout = DefaultLLMTimeout
	}
	return out
}

// Deps are the engine's collaborators. Only Store is required; Questions and
// Analyzer are optional and replaced by built-in fallbacks when missing or
// failing.
type Deps struct {
	Store     store.SessionStore
	Artifacts store.ArtifactCache
	Evaluator evaluation.Evaluator
	FollowUps *followup.Generator
	Questions ai.QuestionGenerator
	Analyzer  ai.Analyzer
	Machine   *flow.Machine
	Logger    *zap.Logger
	Now       func() time.Time
}

// Engine runs interview sessions end to end.
type Engine struct {
	cfg       Config
	store     store.SessionStore
	artifacts store.ArtifactCache
	evaluator evaluation.Evaluator
	followUps *followup.Generator
	questions ai.QuestionGenerator
	analyzer  ai.Analyzer
	machine   *flow.Machine
	locks     *store.Locker
	logger    *zap.Logger
	now       func() time.Time
}

func New(cfg *Config, deps *Deps) (*Engine, error) {
	if deps == nil || deps.Store == nil {
		return nil, errors.New("session store is required")
	}

	c := cfg.withDefaults()
	if c.RoundType != "" && !knownRound(c.RoundType) {
		return nil, fmt.Errorf("unknown round type %q", c.RoundType)
	}

	e := &Engine{
		cfg:       c,
		store:     deps.Store,
		artifacts: deps.Artifacts,
		evaluator: deps.Evaluator,
		followUps: deps.FollowUps,
		questions: deps.Questions,
		analyzer:  deps.Analyzer,
		machine:   deps.Machine,
		locks:     store.NewLocker(),
		logger:    deps.Logger,
		now:       deps.Now,
	}

	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.artifacts == nil {
		e.artifacts = store.NewMemoryArtifacts(0, e.now)
	}
	if e.evaluator == nil {
		e.evaluator = evaluation.NewRules()
	}
	if e.followUps == nil {
		e.followUps = followup.New()
	}
	if e.machine == nil {
		e.machine = flow.NewMachine(e.logger.Named("flow"), flow.DefaultTriggers(c.MaxQuestions)...)
	}

	return e, nil
}

// StartRequest describes a new session.
type StartRequest struct {
	UserID         string
	Role           string
	Company        string
	RoundType      string
	Resume         string
	JobDescription string
}

// StartResult is a freshly created session and its first question.
type StartResult struct {
	Session      *interview.SessionState `json:"session"`
	Question     string                  `json:"question"`
	QuestionMeta interview.QuestionMeta  `json:"question_meta"`
	Analysis     *ai.ContextAnalysis     `json:"analysis,omitempty"`
}

// Start creates a session, analyses the candidate context and asks the first
// question.
func (e *Engine) Start(ctx context.Context, req StartRequest) (*StartResult, error) {
	role := strings.TrimSpace(req.Role)
	if role == "" {
		return nil, &interview.ValidationError{Field: "role", Reason: "is required"}
	}

	roundType, err := e.roundType(req.RoundType)
	if err != nil {
		return nil, err
	}

	now := e.now()
	s := &interview.SessionState{
		SessionID: uuid.NewString(),
		UserID:    strings.TrimSpace(req.UserID),
		Role:      role,
		Company:   strings.TrimSpace(req.Company),
		RoundType: roundType,
		CreatedAt: now,
		UpdatedAt: now,
	}

	analysis, key := e.analyze(ctx, req.Resume, req.JobDescription)
	s.ContextKey = key

	e.machine.Start(s)
	log := logger.WithSession(e.logger, s.SessionID, s.Stage)

	q, _ := e.nextQuestion(ctx, s, turnContext{analysis: analysis}, log)
	meta := q.Meta
	if _, err := e.machine.Advance(s, flow.Turn{Text: q.Text, FromInterviewer: true, QuestionMeta: &meta, At: now}); err != nil {
		return nil, err
	}

	if err := e.store.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	log.Info("session started",
		zap.String(logger.FieldRound, roundType),
		zap.String("role", role),
		zap.Bool("has_context", analysis != nil),
	)

	return &StartResult{
		Session:      s.Clone(),
		Question:     q.Text,
		QuestionMeta: meta.Copy(),
		Analysis:     analysis,
	}, nil
}

// Resume returns the stored session. Sessions past their TTL but inside the
// resume window come back with Restored set.
func (e *Engine) Resume(ctx context.Context, sessionID string) (*interview.SessionState, error) {
	s, err := e.store.Get(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		return nil, err
	}

	if s.Restored {
		logger.WithSession(e.logger, s.SessionID, s.Stage).Info("restoring expired session",
			zap.Time("updated_at", s.UpdatedAt),
		)
	}
	return s, nil
}

// Complete ends the session manually. Completing twice is a no-op.
func (e *Engine) Complete(ctx context.Context, sessionID string) (*interview.SessionState, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return nil, &interview.ValidationError{Field: "session_id", Reason: "is required"}
	}

	unlock := e.locks.Lock(id)
	defer unlock()

	s, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	already := s.Completed
	if _, err := e.machine.Complete(s, interview.ReasonManual); err != nil {
		return nil, err
	}
	if err := e.store.Put(ctx, id, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	if !already {
		logger.WithSession(e.logger, id, s.Stage).Info("session completed manually",
			zap.Int("question_count", s.QuestionCount),
		)
	}
	return s.Clone(), nil
}

func (e *Engine) roundType(requested string) (string, error) {
	rt := strings.ToLower(strings.TrimSpace(requested))
	if rt == "" {
		rt = strings.ToLower(strings.TrimSpace(e.cfg.RoundType))
	}
	if rt == "" {
		return flow.RoundDefault, nil
	}
	if !knownRound(rt) {
		return "", &interview.ValidationError{
			Field:  "round_type",
			Reason: "must be one of " + strings.Join(flow.RoundTypes(), ", "),
		}
	}
	return rt, nil
}

func knownRound(rt string) bool {
	return slices.Contains(flow.RoundTypes(), strings.ToLower(strings.TrimSpace(rt)))
}
