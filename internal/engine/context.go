package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/evaluation"
	"github.com/spigell/hh-interviewer/internal/store"
	"go.uber.org/zap"
)

const (
	analysisKind    = "analysis"
	heuristicSource = "heuristic"
	maxFocusAreas   = 3
)

// analyze returns the resume/JD digest and its cache key. Results are cached
// by content; a cached heuristic digest is retried with the analyzer.
func (e *Engine) analyze(ctx context.Context, resume, jobDescription string) (*ai.ContextAnalysis, string) {
	resume = strings.TrimSpace(resume)
	jobDescription = strings.TrimSpace(jobDescription)
	if resume == "" && jobDescription == "" {
		return nil, ""
	}

	key := store.ContentKey(analysisKind, resume, jobDescription)
	cached := e.loadAnalysis(ctx, key)
	if cached != nil && (cached.Source != heuristicSource || e.analyzer == nil) {
		e.logger.Debug("context analysis cache hit", zap.String("key", key))
		return cached, key
	}

	analysis := e.runAnalyzer(ctx, resume, jobDescription)
	if analysis == nil {
		if cached != nil {
			return cached, key
		}
		analysis = heuristicAnalysis(resume, jobDescription)
	}

	if err := e.saveAnalysis(ctx, key, analysis); err != nil {
		e.logger.Warn("caching context analysis", zap.Error(err))
	}
	return analysis, key
}

func (e *Engine) runAnalyzer(ctx context.Context, resume, jobDescription string) *ai.ContextAnalysis {
	if e.analyzer == nil {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.LLMTimeout)
	defer cancel()

	analysis, err := e.analyzer.Analyze(callCtx, resume, jobDescription)
	if err == nil && analysis == nil {
		err = errors.New("empty analysis")
	}
	if err != nil {
		e.logger.Warn("context analysis failed, using keyword heuristic",
			zap.String("model", e.analyzer.Model()),
			zap.Error(err),
		)
		return nil
	}
	return analysis
}

func (e *Engine) loadAnalysis(ctx context.Context, key string) *ai.ContextAnalysis {
	if key == "" {
		return nil
	}

	data, err := e.artifacts.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrCacheMiss) {
			e.logger.Warn("reading cached context analysis", zap.String("key", key), zap.Error(err))
		}
		return nil
	}

	var analysis ai.ContextAnalysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		e.logger.Warn("decoding cached context analysis", zap.String("key", key), zap.Error(err))
		return nil
	}
	return &analysis
}

func (e *Engine) saveAnalysis(ctx context.Context, key string, analysis *ai.ContextAnalysis) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	return e.artifacts.Set(ctx, key, data)
}

// heuristicAnalysis matches known tool names between the two documents.
func heuristicAnalysis(resume, jobDescription string) *ai.ContextAnalysis {
	skills := evaluation.KnownTools(resume)
	required := evaluation.KnownTools(jobDescription)

	var matching, missing []string
	for _, r := range required {
		if slices.Contains(skills, r) {
			matching = append(matching, r)
		} else {
			missing = append(missing, r)
		}
	}

	focus := missing
	if len(focus) == 0 {
		focus = required
	}
	if len(focus) > maxFocusAreas {
		focus = focus[:maxFocusAreas]
	}

	summary := "No required skills were recognised in the job description."
	if len(required) > 0 {
		summary = fmt.Sprintf("%d of %d required skills appear in the resume.", len(matching), len(required))
	}

	return &ai.ContextAnalysis{
		Skills:         skills,
		RequiredSkills: required,
		MatchingSkills: matching,
		MissingSkills:  missing,
		FocusAreas:     slices.Clone(focus),
		Summary:        summary,
		Source:         heuristicSource,
	}
}
