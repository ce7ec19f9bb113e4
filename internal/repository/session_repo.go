package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Session binds a storefront checkout session to its cart.
type Session struct {
	CartID string `json:"cartId"`
}

// SessionRepository resolves X-Session-Id values.
type SessionRepository interface {
	Find(ctx context.Context, sessionID string) (*Session, error)
	Save(ctx context.Context, sessionID string, s Session, ttl time.Duration) error
}

type redisSessionRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisSessionRepository stores sessions under "session:<id>".
func NewRedisSessionRepository(client *redis.Client) SessionRepository {
	return &redisSessionRepository{client: client, prefix: "session"}
}

func (r *redisSessionRepository) Find(ctx context.Context, sessionID string) (*Session, error) {
	raw, err := r.client.Get(ctx, r.prefix+":"+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil || s.CartID == "" {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (r *redisSessionRepository) Save(ctx context.Context, sessionID string, s Session, ttl time.Duration) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.prefix+":"+sessionID, raw, ttl).Err()
}

type memorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]memorySession
}

type memorySession struct {
	Session
	expires time.Time
}

// NewMemorySessionRepository keeps sessions in process memory.
func NewMemorySessionRepository() SessionRepository {
	return &memorySessionRepository{sessions: make(map[string]memorySession)}
}

func (r *memorySessionRepository) Find(_ context.Context, sessionID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sessionID]
	if !ok || (!s.expires.IsZero() && time.Now().After(s.expires)) {
		return nil, ErrSessionNotFound
	}
	out := s.Session
	return &out, nil
}

func (r *memorySessionRepository) Save(_ context.Context, sessionID string, s Session, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	r.sessions[sessionID] = memorySession{Session: s, expires: exp}
	return nil
}
