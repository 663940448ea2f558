package mock

import (
	"context"
	"time"

	gatekeeper "github.com/x402pay/gatekeeper"
)

// Payer produces PaymentProof values signed with the same shared secret a
// Verifier checks against. It is the offline counterpart of the on-chain
// payer in package solana.
type Payer struct {
	Secret       string
	PayerAddress string
}

// NewPayer builds a Payer. An empty secret falls back to "mock-secret".
func NewPayer(secret, payerAddress string) *Payer {
	if secret == "" {
		secret = "mock-secret"
	}
	return &Payer{Secret: secret, PayerAddress: payerAddress}
}

// Pay implements gatekeeper.Payer.
func (p *Payer) Pay(_ context.Context, challenge gatekeeper.Challenge, _ gatekeeper.PayContext) (gatekeeper.PaymentProof, error) {
	signature := sign(p.Secret, challenge.Nonce, challenge.RequestHash)
	return gatekeeper.PaymentProof{
		Version:     challenge.Version,
		Nonce:       challenge.Nonce,
		RequestHash: challenge.RequestHash,
		Payer:       p.PayerAddress,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		ExpiresAt:   challenge.ExpiresAt,
		Signature:   signature,
	}, nil
}
