package mock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gatekeeper "github.com/x402pay/gatekeeper"
)

func challenge() gatekeeper.Challenge {
	return gatekeeper.Challenge{
		Version:     1,
		Nonce:       "nonce-1",
		RequestHash: "deadbeef",
		ExpiresAt:   time.Now().Add(time.Minute).UTC().Format(time.RFC3339),
	}
}

func TestMockRoundTrip_ValidatesUnderSameSecretAndHash(t *testing.T) {
	payer := NewPayer("shared-secret", "payer-1")
	verifier := NewVerifier("shared-secret")

	ch := challenge()
	proof, err := payer.Pay(context.Background(), ch, gatekeeper.PayContext{})
	require.NoError(t, err)

	header, err := gatekeeper.EncodeProof(proof)
	require.NoError(t, err)

	assert.True(t, verifier.Verify(header, ch.RequestHash, gatekeeper.PricingConfig{}))
}

func TestMockRoundTrip_FailsUnderDifferentSecret(t *testing.T) {
	payer := NewPayer("shared-secret", "payer-1")
	verifier := NewVerifier("other-secret")

	ch := challenge()
	proof, err := payer.Pay(context.Background(), ch, gatekeeper.PayContext{})
	require.NoError(t, err)
	header, _ := gatekeeper.EncodeProof(proof)

	assert.False(t, verifier.Verify(header, ch.RequestHash, gatekeeper.PricingConfig{}))
}

func TestMockRoundTrip_FailsUnderDifferentRequestHash(t *testing.T) {
	payer := NewPayer("shared-secret", "payer-1")
	verifier := NewVerifier("shared-secret")

	ch := challenge()
	proof, err := payer.Pay(context.Background(), ch, gatekeeper.PayContext{})
	require.NoError(t, err)
	header, _ := gatekeeper.EncodeProof(proof)

	assert.False(t, verifier.Verify(header, "some-other-hash", gatekeeper.PricingConfig{}))
}

func TestMockRoundTrip_FailsWhenExpired(t *testing.T) {
	payer := NewPayer("shared-secret", "payer-1")
	verifier := NewVerifier("shared-secret")

	ch := challenge()
	ch.ExpiresAt = time.Now().Add(-time.Minute).UTC().Format(time.RFC3339)
	proof, err := payer.Pay(context.Background(), ch, gatekeeper.PayContext{})
	require.NoError(t, err)
	header, _ := gatekeeper.EncodeProof(proof)

	assert.False(t, verifier.Verify(header, ch.RequestHash, gatekeeper.PricingConfig{}))
}

func TestVerifier_RejectsMalformedHeader(t *testing.T) {
	verifier := NewVerifier("shared-secret")
	assert.False(t, verifier.Verify("not-base64!!", "deadbeef", gatekeeper.PricingConfig{}))
}

func TestVerifier_DefaultSecret(t *testing.T) {
	v := NewVerifier("")
	assert.Equal(t, "mock-secret", v.Secret)
}
