package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spigell/hh-interviewer/internal/interview"
	"go.uber.org/zap"
)

const (
	strengthThreshold = 4.0
	maxReportActions  = 5
)

// VoiceMetrics are the speech analytics the report understands. Other keys
// in the opaque metric maps are ignored.
type VoiceMetrics struct {
	Fluency    float64 `json:"fluency_score" mapstructure:"fluency_score"`
	Clarity    float64 `json:"clarity_score" mapstructure:"clarity_score"`
	Confidence float64 `json:"confidence_score" mapstructure:"confidence_score"`
	Pace       float64 `json:"pace_score" mapstructure:"pace_score"`
	RateWPM    float64 `json:"rate_wpm" mapstructure:"rate_wpm"`
	Total      float64 `json:"total_score" mapstructure:"total_score"`
}

// VoiceSummary averages VoiceMetrics over every answer that carried them.
type VoiceSummary struct {
	Samples  int          `json:"samples"`
	Averages VoiceMetrics `json:"averages"`
}

// Report summarises a session.
type Report struct {
	SessionID        string                     `json:"session_id"`
	Role             string                     `json:"role"`
	Company          string                     `json:"company,omitempty"`
	RoundType        string                     `json:"round_type"`
	Stage            string                     `json:"stage"`
	Completed        bool                       `json:"completed"`
	CompletionReason interview.CompletionReason `json:"completion_reason,omitempty"`
	QuestionCount    int                        `json:"question_count"`
	Answered         int                        `json:"answered"`
	FollowUpsAsked   int                        `json:"follow_ups_asked"`
	Degraded         int                        `json:"degraded"`
	Averages         interview.RubricScore      `json:"averages"`
	Overall          float64                    `json:"overall"`
	Strengths        []interview.Dimension      `json:"strengths,omitempty"`
	Improvements     []interview.Dimension      `json:"improvements,omitempty"`
	ActionItems      []string                   `json:"action_items,omitempty"`
	Voice            *VoiceSummary              `json:"voice,omitempty"`
}

// Report builds the per-dimension summary of a session. It works on live,
// restored and completed sessions alike.
func (e *Engine) Report(ctx context.Context, sessionID string) (*Report, error) {
	s, err := e.store.Get(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		return nil, err
	}

	r := &Report{
		SessionID:        s.SessionID,
		Role:             s.Role,
		Company:          s.Company,
		RoundType:        s.RoundType,
		Stage:            s.Stage,
		Completed:        s.Completed,
		CompletionReason: s.CompletionReason,
		QuestionCount:    s.QuestionCount,
	}

	for _, h := range s.History {
		if h.FollowUp {
			r.FollowUpsAsked++
		}
	}

	evals := s.Evaluations()
	r.Answered = len(evals)
	if len(evals) == 0 {
		return r, nil
	}

	var sum interview.RubricScore
	var voice []VoiceMetrics
	seen := make(map[string]struct{})

	for _, ev := range evals {
		for _, d := range interview.Dimensions {
			sum.Set(d, sum.Get(d)+ev.Scores.Get(d))
		}
		if ev.Degraded() {
			r.Degraded++
		}
		for _, item := range ev.ActionItems {
			if _, dup := seen[item]; dup || len(r.ActionItems) >= maxReportActions {
				continue
			}
			seen[item] = struct{}{}
			r.ActionItems = append(r.ActionItems, item)
		}

		raw, ok := ev.Meta[interview.MetaVoiceMetrics]
		if !ok {
			continue
		}
		vm, err := decodeVoiceMetrics(raw)
		if err != nil {
			e.logger.Warn("skipping unreadable voice metrics", zap.String("session_id", s.SessionID), zap.Error(err))
			continue
		}
		voice = append(voice, vm)
	}

	n := float64(len(evals))
	for _, d := range interview.Dimensions {
		r.Averages.Set(d, round2(sum.Get(d)/n))
	}
	r.Overall = round2(r.Averages.Average())

	for _, d := range interview.Dimensions {
		if r.Averages.Get(d) >= strengthThreshold {
			r.Strengths = append(r.Strengths, d)
		}
	}
	r.Improvements = e.followUps.IdentifyImprovementAreas(&interview.ScoreDetail{Scores: r.Averages})

	if len(voice) > 0 {
		r.Voice = summariseVoice(voice)
	}
	return r, nil
}

func decodeVoiceMetrics(raw any) (VoiceMetrics, error) {
	var vm VoiceMetrics
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &vm,
	})
	if err != nil {
		return vm, fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return vm, fmt.Errorf("decode voice metrics: %w", err)
	}
	return vm, nil
}

func summariseVoice(samples []VoiceMetrics) *VoiceSummary {
	var total VoiceMetrics
	for _, s := range samples {
		total.Fluency += s.Fluency
		total.Clarity += s.Clarity
		total.Confidence += s.Confidence
		total.Pace += s.Pace
		total.RateWPM += s.RateWPM
		total.Total += s.Total
	}

	n := float64(len(samples))
	return &VoiceSummary{
		Samples: len(samples),
		Averages: VoiceMetrics{
			Fluency:    round2(total.Fluency / n),
			Clarity:    round2(total.Clarity / n),
			Confidence: round2(total.Confidence / n),
			Pace:       round2(total.Pace / n),
			RateWPM:    round2(total.RateWPM / n),
			Total:      round2(total.Total / n),
		},
	}
}
