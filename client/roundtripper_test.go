package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gatekeeper "github.com/x402pay/gatekeeper"
	"github.com/x402pay/gatekeeper/mock"
)

func TestRoundTripper_PaysOnceThenSucceeds(t *testing.T) {
	verifier := mock.NewVerifier("s")
	var seenProofs int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hash := gatekeeper.CanonicalRequestHash(r.Method, r.URL.Path, r.URL.RawQuery, nil)
		proofHeader := r.Header.Get("X-Payment-Proof")
		if proofHeader == "" {
			ch := gatekeeper.Challenge{
				Version: 1, Nonce: "nonce-1", RequestHash: hash,
				ExpiresAt: "2099-01-01T00:00:00Z", Price: "0.001", Recipient: "r1",
			}
			body, _ := json.Marshal(map[string]gatekeeper.Challenge{"x402": ch})
			w.WriteHeader(http.StatusPaymentRequired)
			w.Write(body)
			return
		}
		seenProofs++
		if !verifier.Verify(proofHeader, hash, gatekeeper.PricingConfig{}) {
			w.WriteHeader(http.StatusPaymentRequired)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("paid"))
	}))
	defer srv.Close()

	payer := mock.NewPayer("s", "payer-1")
	httpClient := Wrap(nil, payer, 1)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/weather", nil)
	require.NoError(t, err)

	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, seenProofs)
}

func TestRoundTripper_NonX402_402IsPassedThroughUnchanged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"not":"a challenge"}`))
	}))
	defer srv.Close()

	payer := mock.NewPayer("s", "payer-1")
	httpClient := Wrap(nil, payer, 1)

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
}
