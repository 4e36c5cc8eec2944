package engine

import (
	"context"
	"testing"

	"github.com/spigell/hh-interviewer/internal/interview"
)

func TestReportAverages(t *testing.T) {
	f := newFixture(t, nil, Deps{})
	ctx := context.Background()
	id := f.start(t, StartRequest{Company: "Acme"}).Session.SessionID

	empty, err := f.engine.Report(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if empty.Answered != 0 || empty.Overall != 0 || empty.Voice != nil {
		t.Fatalf("expected empty report, got %+v", empty)
	}

	first := f.submit(t, id, strongAnswer)
	second := f.submit(t, id, "Yes.")

	r, err := f.engine.Report(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.Answered != 2 || r.QuestionCount != 2 || r.Company != "Acme" {
		t.Fatalf("unexpected report header: %+v", r)
	}
	for _, d := range interview.Dimensions {
		want := round2((first.Evaluation.Scores.Get(d) + second.Evaluation.Scores.Get(d)) / 2)
		if got := r.Averages.Get(d); got != want {
			t.Fatalf("%s: expected average %v, got %v", d, want, got)
		}
	}
	if r.Overall != round2(r.Averages.Average()) {
		t.Fatalf("unexpected overall %v", r.Overall)
	}
	if len(r.ActionItems) == 0 || len(r.ActionItems) > maxReportActions {
		t.Fatalf("expected between 1 and %d action items, got %v", maxReportActions, r.ActionItems)
	}

	for _, d := range r.Strengths {
		if r.Averages.Get(d) < strengthThreshold {
			t.Fatalf("%s listed as strength with %v", d, r.Averages.Get(d))
		}
	}
	for i, d := range r.Improvements {
		if r.Averages.Get(d) >= 3 {
			t.Fatalf("%s listed as improvement with %v", d, r.Averages.Get(d))
		}
		if i > 0 && r.Averages.Get(r.Improvements[i-1]) > r.Averages.Get(d) {
			t.Fatalf("improvements must be ordered weakest first: %v", r.Improvements)
		}
	}

	s, _ := f.engine.Resume(ctx, id)
	asked := 0
	for _, h := range s.History {
		if h.FollowUp {
			asked++
		}
	}
	if r.FollowUpsAsked != asked {
		t.Fatalf("expected %d follow-ups, got %d", asked, r.FollowUpsAsked)
	}
}

func TestDecodeVoiceMetrics(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		raw     any
		want    VoiceMetrics
		wantErr bool
	}{
		{
			name: "numbers",
			raw:  map[string]any{"fluency_score": 4.0, "total_score": 3.2},
			want: VoiceMetrics{Fluency: 4, Total: 3.2},
		},
		{
			name: "weakly typed strings",
			raw:  map[string]any{"pace_score": "2.5", "rate_wpm": "140"},
			want: VoiceMetrics{Pace: 2.5, RateWPM: 140},
		},
		{
			name:    "not a map",
			raw:     []string{"nope"},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := decodeVoiceMetrics(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestSummariseVoice(t *testing.T) {
	got := summariseVoice([]VoiceMetrics{{Fluency: 3, RateWPM: 100}, {Fluency: 4, RateWPM: 151}})
	if got.Samples != 2 || got.Averages.Fluency != 3.5 || got.Averages.RateWPM != 125.5 {
		t.Fatalf("unexpected summary: %+v", got)
	}
}
