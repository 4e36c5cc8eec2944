package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/spigell/hh-interviewer/internal/interview"
)

const (
	DefaultSessionTTL   = 24 * time.Hour
	DefaultResumeWindow = 24 * time.Hour
	DefaultArtifactTTL  = 7 * 24 * time.Hour
)

// ErrCacheMiss is returned by artifact caches for absent or expired keys.
var ErrCacheMiss = errors.New("artifact cache miss")

// SessionStore persists session state. Implementations hand out and accept
// copies; callers never share memory with the store.
type SessionStore interface {
	Create(ctx context.Context, s *interview.SessionState) error
	// Get returns the session, or a NotFoundError. A session that outlived
	// its TTL but is still within the resume window comes back with Restored set.
	Get(ctx context.Context, id string) (*interview.SessionState, error)
	Put(ctx context.Context, id string, s *interview.SessionState) error
	Expire(ctx context.Context, id string) error
}

// ArtifactCache keeps expensive derived results keyed by content hash.
type ArtifactCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Options tune session expiry.
type Options struct {
	// TTL counts from the last write.
	TTL time.Duration
	// ResumeWindow is how long an expired session stays restorable. Zero
	// selects the default; a negative window disables restoring.
	ResumeWindow time.Duration
	Now          func() time.Time
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = DefaultSessionTTL
	}
	switch {
	case o.ResumeWindow == 0:
		o.ResumeWindow = DefaultResumeWindow
	case o.ResumeWindow < 0:
		o.ResumeWindow = 0
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// retention is how long a record is kept after its last write.
func (o Options) retention() time.Duration {
	return o.TTL + o.ResumeWindow
}

// ContentKey derives a stable cache key from kind and the content parts.
func ContentKey(kind string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(strings.TrimSpace(p)))
		h.Write([]byte{0})
	}
	return kind + ":" + hex.EncodeToString(h.Sum(nil))
}

func validateWrite(id string, s *interview.SessionState) error {
	if strings.TrimSpace(id) == "" {
		return &interview.ValidationError{Field: "session_id", Reason: "is required"}
	}
	if s == nil {
		return &interview.ValidationError{Field: "session", Reason: "is required"}
	}
	if s.SessionID != id {
		return &interview.ValidationError{Field: "session_id", Reason: "does not match the session"}
	}
	return nil
}
