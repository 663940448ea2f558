// Package redisstore is the distributed Store backend spec.md §9 invites
// ("design the interface so a network-backed implementation is a drop-in").
// Grounded on layer-3-barong's adapters/store/redis_store.go: a thin
// key-prefixed wrapper over *redis.Client, TTL expressed as a Redis EX
// rather than a background sweep.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	gatekeeper "github.com/x402pay/gatekeeper"
)

// Store implements gatekeeper.Store against Redis. Unlike InMemoryStore, it
// has no sweep goroutine — Redis's own EX expiry retires keys.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewStore builds a Store against client, namespacing keys under prefix
// (default "x402:idempotency:" when empty) with the given TTL (spec.md
// default is one hour).
func NewStore(client *redis.Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "x402:idempotency:"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

// Get implements gatekeeper.Store. It blocks on the Redis round trip —
// spec.md §9 anticipates this ("implementers may need an async signature").
func (s *Store) Get(key string) (gatekeeper.StoredResponse, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return gatekeeper.StoredResponse{}, false
	}
	if err != nil {
		return gatekeeper.StoredResponse{}, false
	}

	var resp gatekeeper.StoredResponse
	if json.Unmarshal(raw, &resp) != nil {
		return gatekeeper.StoredResponse{}, false
	}
	return resp, true
}

// Set implements gatekeeper.Store.
func (s *Store) Set(key string, resp gatekeeper.StoredResponse) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, s.prefix+key, raw, s.ttl).Err(); err != nil {
		fmt.Printf("redisstore: failed to set %s: %v\n", key, err)
	}
}
