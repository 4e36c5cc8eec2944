package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spigell/hh-interviewer/internal/interview"
)

const redisProvider = "redis"

type envelope struct {
	WrittenAt time.Time               `json:"written_at"`
	State     *interview.SessionState `json:"state"`
}

// Redis is a SessionStore backed by Redis. Keys live for TTL plus the resume
// window; the write time stored next to the state decides whether a read
// counts as restored.
type Redis struct {
	client *redis.Client
	opts   Options
}

func NewRedis(client *redis.Client, opts Options) *Redis {
	return &Redis{client: client, opts: opts.withDefaults()}
}

func sessionKey(id string) string {
	return fmt.Sprintf("interview:session:%s", id)
}

func (r *Redis) Create(ctx context.Context, s *interview.SessionState) error {
	if s == nil {
		return &interview.ValidationError{Field: "session", Reason: "is required"}
	}
	if err := validateWrite(s.SessionID, s); err != nil {
		return err
	}

	data, err := r.encode(s)
	if err != nil {
		return err
	}

	ok, err := r.client.SetNX(ctx, sessionKey(s.SessionID), data, r.opts.retention()).Result()
	if err != nil {
		return &interview.UpstreamError{Provider: redisProvider, Err: err}
	}
	if !ok {
		return &interview.StateError{SessionID: s.SessionID, Op: "create", Reason: "session already exists"}
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, id string) (*interview.SessionState, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, &interview.NotFoundError{SessionID: id}
	}
	if err != nil {
		return nil, &interview.UpstreamError{Provider: redisProvider, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode session %q: %w", id, err)
	}
	if env.State == nil {
		return nil, &interview.NotFoundError{SessionID: id}
	}

	age := r.opts.Now().Sub(env.WrittenAt)
	if age > r.opts.retention() {
		return nil, &interview.NotFoundError{SessionID: id}
	}
	env.State.Restored = age > r.opts.TTL
	return env.State, nil
}

func (r *Redis) Put(ctx context.Context, id string, s *interview.SessionState) error {
	if err := validateWrite(id, s); err != nil {
		return err
	}

	data, err := r.encode(s)
	if err != nil {
		return err
	}

	ok, err := r.client.SetXX(ctx, sessionKey(id), data, r.opts.retention()).Result()
	if err != nil {
		return &interview.UpstreamError{Provider: redisProvider, Err: err}
	}
	if !ok {
		return &interview.NotFoundError{SessionID: id}
	}
	return nil
}

func (r *Redis) Expire(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return &interview.UpstreamError{Provider: redisProvider, Err: err}
	}
	return nil
}

func (r *Redis) encode(s *interview.SessionState) ([]byte, error) {
	data, err := json.Marshal(envelope{WrittenAt: r.opts.Now().UTC(), State: s})
	if err != nil {
		return nil, fmt.Errorf("encode session %q: %w", s.SessionID, err)
	}
	return data, nil
}
