package gatekeeper

import "context"

// PayContext carries the request metadata a Payer needs beyond the
// challenge itself.
type PayContext struct {
	URL    string
	Method string
}

// Payer is the client-side capability that turns a Challenge into a
// PaymentProof. See mock.Payer and solana.Payer.
type Payer interface {
	Pay(ctx context.Context, challenge Challenge, payCtx PayContext) (PaymentProof, error)
}
