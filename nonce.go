package gatekeeper

import (
	"sync"
	"time"
)

// NonceRegistry tracks nonces that have already been consumed by a
// successful proof verification. It is process-local and non-persistent, as
// spec.md requires: there is no cross-restart or cross-instance guarantee.
type NonceRegistry struct {
	mu       sync.Mutex
	expiryMs map[string]int64

	stop chan struct{}
	once sync.Once
}

// NewNonceRegistry builds a registry and starts its background sweep, which
// runs every 60 seconds per spec.md §4.2. Call Close to stop the sweep.
func NewNonceRegistry() *NonceRegistry {
	r := &NonceRegistry{
		expiryMs: make(map[string]int64),
		stop:     make(chan struct{}),
	}
	go r.sweepLoop()
	return r
}

// TryReserve atomically checks-and-inserts nonce. It returns false if the
// nonce was already reserved (and still unexpired or not yet swept),
// true if this call is the one that reserved it.
func (r *NonceRegistry) TryReserve(nonce string, expiryMs int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if exp, ok := r.expiryMs[nonce]; ok {
		if exp > nowMs() {
			return false
		}
		// expired entry left behind by a late sweep; treat as fresh.
	}
	r.expiryMs[nonce] = expiryMs
	return true
}

func (r *NonceRegistry) sweepLoop() {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.stop:
			return
		}
	}
}

func (r *NonceRegistry) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := nowMs()
	for nonce, exp := range r.expiryMs {
		if exp <= now {
			delete(r.expiryMs, nonce)
		}
	}
}

// Close stops the background sweep goroutine and releases memory.
func (r *NonceRegistry) Close() {
	r.once.Do(func() {
		close(r.stop)
		r.mu.Lock()
		r.expiryMs = make(map[string]int64)
		r.mu.Unlock()
	})
}

func nowMs() int64 {
	return time.Now().UnixMilli()
}
