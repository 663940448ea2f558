// Package mock implements the HMAC-SHA256 verifier/payer pair (C5/C7) used
// for offline testing and local development, grounded on the teacher's
// symmetric-signature style in errors.go's taxonomy and the constant-time
// comparison discipline spec.md §4.5 mandates.
package mock

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	gatekeeper "github.com/x402pay/gatekeeper"
)

// Verifier validates PaymentProof headers signed with a shared secret. It
// ignores pricing entirely — there is no amount semantics in the mock
// scheme, only a bound signature over nonce|requestHash.
type Verifier struct {
	Secret string
}

// NewVerifier builds a Verifier. An empty secret falls back to
// "mock-secret", matching the teacher's documented default for offline use.
func NewVerifier(secret string) *Verifier {
	if secret == "" {
		secret = "mock-secret"
	}
	return &Verifier{Secret: secret}
}

// Verify implements gatekeeper.Verifier.
func (v *Verifier) Verify(proofHeader, requestHash string, _ gatekeeper.PricingConfig) bool {
	proof, err := gatekeeper.DecodeProof(proofHeader)
	if err != nil {
		return false
	}
	if proof.RequestHash != requestHash {
		return false
	}
	expiresAt, err := time.Parse(time.RFC3339, proof.ExpiresAt)
	if err != nil || !time.Now().Before(expiresAt) {
		return false
	}
	expected := sign(v.Secret, proof.Nonce, requestHash)
	return gatekeeper.ConstantTimeEqual(expected, proof.Signature)
}

func sign(secret, nonce, requestHash string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(nonce + "|" + requestHash))
	return hex.EncodeToString(mac.Sum(nil))
}
