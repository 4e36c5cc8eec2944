package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key")
	if err := os.WriteFile(keyFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write empty file: %v", err)
	}

	t.Setenv("HH_INTERVIEWER_TEST_KEY", " from-env ")

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr string
	}{
		{
			name: "file wins",
			src:  Source{File: keyFile, Env: "HH_INTERVIEWER_TEST_KEY", Value: "inline"},
			want: "from-file",
		},
		{
			name: "env before inline",
			src:  Source{Env: "HH_INTERVIEWER_TEST_KEY", Value: "inline"},
			want: "from-env",
		},
		{
			name: "inline when env unset",
			src:  Source{Env: "HH_INTERVIEWER_UNSET_KEY", Value: " inline "},
			want: "inline",
		},
		{
			name:    "empty file",
			src:     Source{Name: "gemini api key", File: emptyFile, Value: "inline"},
			wantErr: "is empty",
		},
		{
			name:    "missing file",
			src:     Source{File: filepath.Join(dir, "missing")},
			wantErr: "reading secret from file",
		},
		{
			name:    "nothing configured",
			src:     Source{Name: "gemini api key"},
			wantErr: "gemini api key is not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
