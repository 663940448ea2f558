package nethttp_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gatekeeper "github.com/x402pay/gatekeeper"
	"github.com/x402pay/gatekeeper/middleware/nethttp"
	"github.com/x402pay/gatekeeper/mock"
)

func newServer(t *testing.T, handlerCalls *int) *httptest.Server {
	t.Helper()
	gate := gatekeeper.NewGate(mock.NewVerifier("secret"))
	pricing := gatekeeper.PricingConfig{Price: "0.001", Asset: "USDC", Recipient: "recipient-1"}

	mux := http.NewServeMux()
	mux.HandleFunc("/weather", func(w http.ResponseWriter, r *http.Request) {
		*handlerCalls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"city":"London"}`))
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		*handlerCalls++
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mw := nethttp.New(gate, map[string]gatekeeper.PricingConfig{"/weather": pricing})
	server := httptest.NewServer(mw.Wrap(mux))
	t.Cleanup(func() { server.Close(); gate.Close() })
	return server
}

func TestMiddleware_UnpricedRouteNeverChallenged(t *testing.T) {
	var calls int
	server := newServer(t, &calls)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestMiddleware_PricedRouteFirstCallIssuesChallenge(t *testing.T) {
	var calls int
	server := newServer(t, &calls)

	resp, err := http.Get(server.URL + "/weather?city=London")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, 0, calls)
}

func TestMiddleware_IdempotentReplayRunsHandlerOnce(t *testing.T) {
	var calls int
	server := newServer(t, &calls)
	payer := mock.NewPayer("secret", "payer-1")

	first, header := fetchWithPayment(t, server.URL, "k1", payer)
	defer first.Body.Close()
	assert.Equal(t, http.StatusOK, first.StatusCode)
	assert.Equal(t, 1, calls)
	assert.Empty(t, first.Header.Get("X-Idempotent-Replay"))

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL+"/weather?city=London", nil)
	require.NoError(t, err)
	req.Header.Set("Idempotency-Key", "k1")
	req.Header.Set("X-Payment-Proof", header)
	second, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer second.Body.Close()

	assert.Equal(t, http.StatusOK, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get("X-Idempotent-Replay"))
	assert.Equal(t, 1, calls, "handler must run exactly once across both calls")
}

func TestMiddleware_ReplayedProofNonceIsRejected(t *testing.T) {
	var calls int
	server := newServer(t, &calls)
	payer := mock.NewPayer("secret", "payer-1")

	first, header := fetchWithPayment(t, server.URL, "", payer)
	defer first.Body.Close()
	require.Equal(t, http.StatusOK, first.StatusCode)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL+"/weather?city=London", nil)
	require.NoError(t, err)
	req.Header.Set("X-Payment-Proof", header)
	second, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer second.Body.Close()

	assert.Equal(t, http.StatusPaymentRequired, second.StatusCode)
}

// fetchWithPayment issues the initial unpaid request, pays the returned
// challenge, and retries once with the proof header, returning the final
// response and the proof header used (so callers can replay it).
func fetchWithPayment(t *testing.T, baseURL, idempotencyKey string, payer *mock.Payer) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, baseURL+"/weather?city=London", nil)
	require.NoError(t, err)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var wrapper struct {
		X402 gatekeeper.Challenge `json:"x402"`
	}
	require.NoError(t, json.Unmarshal(body, &wrapper))

	proof, err := payer.Pay(context.Background(), wrapper.X402, gatekeeper.PayContext{})
	require.NoError(t, err)
	header, err := gatekeeper.EncodeProof(proof)
	require.NoError(t, err)

	req2, err := http.NewRequestWithContext(context.Background(), http.MethodGet, baseURL+"/weather?city=London", nil)
	require.NoError(t, err)
	if idempotencyKey != "" {
		req2.Header.Set("Idempotency-Key", idempotencyKey)
	}
	req2.Header.Set("X-Payment-Proof", header)
	final, err := http.DefaultClient.Do(req2)
	require.NoError(t, err)
	return final, header
}
