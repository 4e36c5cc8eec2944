package gemini

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestAnalyzerAnalyze(t *testing.T) {
	stub := &stubGenerator{response: `{"candidate_name": "Alex", "years_experience": "6", "skills": ["Go", "Kubernetes"], "missing_skills": "Kafka, Terraform", "summary": "Strong backend profile."}`}
	a := NewAnalyzer(stub, 0, zap.NewNop())

	got, err := a.Analyze(context.Background(), "Alex. 6 years of Go.", "We need Go, Kafka and Terraform.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.CandidateName != "Alex" || got.YearsExperience != 6 {
		t.Fatalf("unexpected analysis: %+v", got)
	}
	if len(got.Skills) != 2 || len(got.MissingSkills) != 2 || got.MissingSkills[1] != "Terraform" {
		t.Fatalf("unexpected skills: %+v", got)
	}
	if got.Source != Provider {
		t.Fatalf("expected source %q, got %q", Provider, got.Source)
	}
	if !strings.Contains(stub.lastPrompt, "We need Go, Kafka and Terraform.") {
		t.Fatalf("expected job description in prompt")
	}
}

func TestAnalyzerRequiresInput(t *testing.T) {
	a := NewAnalyzer(&stubGenerator{}, 0, nil)
	if _, err := a.Analyze(context.Background(), " ", ""); err == nil {
		t.Fatal("expected error without resume and job description")
	}
}

func TestAnalyzerClampsNegativeYears(t *testing.T) {
	got, err := parseAnalysis(`{"years_experience": -3}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.YearsExperience != 0 {
		t.Fatalf("expected 0 years, got %v", got.YearsExperience)
	}
}
