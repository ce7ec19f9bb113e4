package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CallbackDeduper tracks processed gateway callbacks per payment and tid.
type CallbackDeduper interface {
	Seen(ctx context.Context, paymentID, tid string) (bool, error)
}

type redisCallbackDeduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func (d *redisCallbackDeduper) Seen(ctx context.Context, paymentID, tid string) (bool, error) {
	key := d.prefix + ":" + paymentID + ":" + tid
	ok, err := d.client.SetNX(ctx, key, "1", d.ttl).Result()
	if err != nil {
		return false, err
	}
	// false => already exists => duplicate
	return !ok, nil
}

type memoryCallbackDeduper struct {
	mu     sync.Mutex
	seen   map[string]time.Time
	ttl    time.Duration
	nextGC time.Time
	now    func() time.Time
}

func newMemoryCallbackDeduper(ttl time.Duration) *memoryCallbackDeduper {
	now := time.Now()
	return &memoryCallbackDeduper{
		seen:   make(map[string]time.Time),
		ttl:    ttl,
		nextGC: now.Add(ttl),
		now:    time.Now,
	}
}

func (d *memoryCallbackDeduper) Seen(_ context.Context, paymentID, tid string) (bool, error) {
	now := d.now()
	key := paymentID + ":" + tid

	d.mu.Lock()
	defer d.mu.Unlock()

	if exp, ok := d.seen[key]; ok && exp.After(now) {
		return true, nil
	}

	d.seen[key] = now.Add(d.ttl)
	if now.After(d.nextGC) {
		for k, exp := range d.seen {
			if exp.Before(now) {
				delete(d.seen, k)
			}
		}
		d.nextGC = now.Add(d.ttl)
	}

	return false, nil
}

// NewCallbackDeduper uses Redis when a client is given and in-memory otherwise.
func NewCallbackDeduper(client *redis.Client, ttl time.Duration) CallbackDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if client == nil {
		return newMemoryCallbackDeduper(ttl)
	}
	return &redisCallbackDeduper{
		client: client,
		prefix: "callback",
		ttl:    ttl,
	}
}
