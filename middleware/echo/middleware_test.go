package echo_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	echofw "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gatekeeper "github.com/x402pay/gatekeeper"
	gatemw "github.com/x402pay/gatekeeper/middleware/echo"
	"github.com/x402pay/gatekeeper/mock"
)

func newEcho(t *testing.T, calls *int) (*echofw.Echo, *gatekeeper.Gate) {
	t.Helper()
	gate := gatekeeper.NewGate(mock.NewVerifier("secret"))
	pricing := gatekeeper.PricingConfig{Price: "0.001", Asset: "USDC", Recipient: "recipient-1"}

	e := echofw.New()
	e.GET("/weather", func(c echofw.Context) error {
		*calls++
		return c.JSON(http.StatusOK, map[string]string{"city": "London"})
	}, gatemw.PaymentMiddleware(gate, pricing))
	t.Cleanup(gate.Close)
	return e, gate
}

func TestEchoMiddleware_FirstCallIssuesChallenge(t *testing.T) {
	var calls int
	e, _ := newEcho(t, &calls)

	req := httptest.NewRequest(http.MethodGet, "/weather?city=London", nil)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, 0, calls)
}

func TestEchoMiddleware_ValidProofRunsHandler(t *testing.T) {
	var calls int
	e, _ := newEcho(t, &calls)

	req := httptest.NewRequest(http.MethodGet, "/weather?city=London", nil)
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	require.Equal(t, http.StatusPaymentRequired, w.Code)

	var wrapper struct {
		X402 gatekeeper.Challenge `json:"x402"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wrapper))

	payer := mock.NewPayer("secret", "payer-1")
	proof, err := payer.Pay(context.Background(), wrapper.X402, gatekeeper.PayContext{})
	require.NoError(t, err)
	header, err := gatekeeper.EncodeProof(proof)
	require.NoError(t, err)

	req2 := httptest.NewRequest(http.MethodGet, "/weather?city=London", nil)
	req2.Header.Set("X-Payment-Proof", header)
	w2 := httptest.NewRecorder()
	e.ServeHTTP(w2, req2)

	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, 1, calls)
	assert.Contains(t, w2.Body.String(), "London")
}
