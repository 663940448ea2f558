package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NonceRegistry is the distributed counterpart to gatekeeper.NonceRegistry.
// It does not implement gatekeeper's NonceRegistry type (that one is
// concrete, not an interface — single-process nonce reservation is a core
// invariant per spec.md §1's Non-goals: "consensus across multiple server
// instances ... is an interface extension, not a core requirement"). A
// multi-instance deployment swaps gate.Nonces.TryReserve calls for this
// type's TryReserve directly in its own dispatch path.
type NonceRegistry struct {
	client *redis.Client
	prefix string
}

// NewNonceRegistry builds a distributed nonce registry backed by Redis
// SETNX, namespacing keys under prefix (default "x402:nonce:").
func NewNonceRegistry(client *redis.Client, prefix string) *NonceRegistry {
	if prefix == "" {
		prefix = "x402:nonce:"
	}
	return &NonceRegistry{client: client, prefix: prefix}
}

// TryReserve atomically checks-and-inserts nonce using SETNX, mirroring
// gatekeeper.NonceRegistry.TryReserve's contract across instances: it
// returns false only if some instance already reserved nonce and its TTL
// has not yet elapsed.
func (r *NonceRegistry) TryReserve(ctx context.Context, nonce string, expiryMs int64) (bool, error) {
	ttl := time.Until(time.UnixMilli(expiryMs))
	if ttl <= 0 {
		ttl = time.Second
	}
	return r.client.SetNX(ctx, r.prefix+nonce, "1", ttl).Result()
}
