package gatekeeper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNonceRegistry_TryReserve_FirstTimeSucceeds(t *testing.T) {
	r := NewNonceRegistry()
	defer r.Close()

	ok := r.TryReserve("n1", nowMs()+60_000)
	assert.True(t, ok)
}

func TestNonceRegistry_TryReserve_SecondTimeFails(t *testing.T) {
	r := NewNonceRegistry()
	defer r.Close()

	assert.True(t, r.TryReserve("n1", nowMs()+60_000))
	assert.False(t, r.TryReserve("n1", nowMs()+60_000))
}

func TestNonceRegistry_ExpiredEntryCanBeReReserved(t *testing.T) {
	r := NewNonceRegistry()
	defer r.Close()

	assert.True(t, r.TryReserve("n1", nowMs()-1))
	assert.True(t, r.TryReserve("n1", nowMs()+60_000))
}

func TestNonceRegistry_SweepRemovesExpiredEntries(t *testing.T) {
	r := &NonceRegistry{expiryMs: map[string]int64{"stale": nowMs() - 1}}
	r.sweep()
	r.mu.Lock()
	_, exists := r.expiryMs["stale"]
	r.mu.Unlock()
	assert.False(t, exists)
}

func TestNonceRegistry_ConcurrentReserveIsAtomic(t *testing.T) {
	r := NewNonceRegistry()
	defer r.Close()

	const n = 50
	results := make(chan bool, n)
	for i := 0; i < n; i++ {
		go func() { results <- r.TryReserve("shared", nowMs()+60_000) }()
	}

	successes := 0
	for i := 0; i < n; i++ {
		if <-results {
			successes++
		}
	}
	assert.Equal(t, 1, successes)
}
