package store

import (
	"context"
	"sync"
	"time"

	"github.com/spigell/hh-interviewer/internal/interview"
	"go.uber.org/zap"
)

type record struct {
	state     *interview.SessionState
	writtenAt time.Time
}

// Memory is an in-process SessionStore.
type Memory struct {
	mu      sync.RWMutex
	records map[string]record
	opts    Options
}

func NewMemory(opts Options) *Memory {
	return &Memory{
		records: make(map[string]record),
		opts:    opts.withDefaults(),
	}
}

func (m *Memory) Create(_ context.Context, s *interview.SessionState) error {
	if s == nil {
		return &interview.ValidationError{Field: "session", Reason: "is required"}
	}
	if err := validateWrite(s.SessionID, s); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.opts.Now()
	if rec, ok := m.records[s.SessionID]; ok && !m.evicted(rec, now) {
		return &interview.StateError{SessionID: s.SessionID, Op: "create", Reason: "session already exists"}
	}

	m.records[s.SessionID] = record{state: s.Clone(), writtenAt: now}
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*interview.SessionState, error) {
	m.mu.RLock()
	rec, ok := m.records[id]
	m.mu.RUnlock()

	now := m.opts.Now()
	if !ok || m.evicted(rec, now) {
		return nil, &interview.NotFoundError{SessionID: id}
	}

	out := rec.state.Clone()
	out.Restored = now.Sub(rec.writtenAt) > m.opts.TTL
	return out, nil
}

func (m *Memory) Put(_ context.Context, id string, s *interview.SessionState) error {
	if err := validateWrite(id, s); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.opts.Now()
	rec, ok := m.records[id]
	if !ok || m.evicted(rec, now) {
		return &interview.NotFoundError{SessionID: id}
	}

	state := s.Clone()
	state.Restored = false
	m.records[id] = record{state: state, writtenAt: now}
	return nil
}

func (m *Memory) Expire(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, id)
	return nil
}

// Sweep evicts every record past the resume window and returns how many
// were dropped.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.opts.Now()
	dropped := 0
	for id, rec := range m.records {
		if m.evicted(rec, now) {
			delete(m.records, id)
			dropped++
		}
	}
	return dropped
}

// Janitor sweeps every interval until ctx is done.
func (m *Memory) Janitor(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				logger.Debug("evicted expired sessions", zap.Int("count", n))
			}
		}
	}
}

// Len reports how many records are held, including restorable ones.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *Memory) evicted(rec record, now time.Time) bool {
	return now.Sub(rec.writtenAt) > m.opts.retention()
}
