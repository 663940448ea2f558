package gatekeeper

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// GateRequest is the transport-agnostic view of an inbound request that the
// state machine needs. Transport adapters (middleware/nethttp,
// middleware/gin, middleware/echo) are responsible for buffering the body
// and re-presenting it to the handler — the gate itself never touches a
// network connection.
type GateRequest struct {
	Method         string
	Path           string
	RawQuery       string
	Body           []byte
	ProofHeader    string // X-Payment-Proof, empty if absent
	IdempotencyKey string // Idempotency-Key, empty if absent
}

// GateResponse is what the gate hands back to the transport adapter to
// write out. Outcome distinguishes the terminal states of spec.md §4.4 so
// adapters can decide things like "should I still run hooks".
type GateResponse struct {
	StatusCode int
	Body       []byte
	Headers    map[string]string
	Outcome    Outcome
}

// Outcome names the terminal state the state machine landed in.
type Outcome int

const (
	OutcomeHandled Outcome = iota
	OutcomeReplay
	OutcomeConflict
	OutcomeChallengeIssued
	OutcomeRejected
	OutcomeReplayDetected
)

// HandlerFunc represents the priced endpoint's own handler, invoked by the
// gate only after a challenge has been satisfied (and no idempotency
// replay/conflict short-circuited the request).
type HandlerFunc func(req GateRequest) GateResponse

// Hooks are optional observation points a gate owner can attach without the
// gate depending on any particular logging or metrics library.
type Hooks struct {
	OnChallengeIssued     func(pricing PricingConfig, challenge Challenge)
	OnProofVerified       func(pricing PricingConfig, proof PaymentProof)
	OnNonceReplay         func(pricing PricingConfig, nonce string)
	OnIdempotencyConflict func(key, requestHash string)
}

// Gate is the transport-agnostic payment-gate state machine (C4). One Gate
// instance owns one NonceRegistry and one Store; both are explicit,
// constructor-owned resources per spec.md §9 (never module-level globals),
// and Close releases them.
type Gate struct {
	Verifier Verifier
	Nonces   *NonceRegistry
	Store    Store
	Hooks    Hooks
}

// NewGate builds a Gate with fresh, in-process defaults for the nonce
// registry and idempotency store. Callers needing a shared/distributed
// backend construct their own Store (see package redisstore) and assign it
// after construction.
func NewGate(verifier Verifier) *Gate {
	return &Gate{
		Verifier: verifier,
		Nonces:   NewNonceRegistry(),
		Store:    NewInMemoryStore(time.Hour),
	}
}

// Close tears down background sweeps. Safe to call more than once.
func (g *Gate) Close() {
	g.Nonces.Close()
	if s, ok := g.Store.(*InMemoryStore); ok {
		s.Close()
	}
}

// Serve runs the full state machine for one priced request and, only on the
// PROCEED path, invokes handler. It never blocks on the handler's own I/O
// beyond calling it directly — the caller's goroutine is the one that
// suspends, per spec.md §5.
func (g *Gate) Serve(pricing PricingConfig, req GateRequest, handler HandlerFunc) GateResponse {
	requestHash := CanonicalRequestHash(req.Method, req.Path, req.RawQuery, req.Body)

	if req.IdempotencyKey != "" {
		if stored, ok := g.Store.Get(req.IdempotencyKey); ok {
			if stored.RequestHash == requestHash {
				return replayResponse(stored)
			}
			if g.Hooks.OnIdempotencyConflict != nil {
				g.Hooks.OnIdempotencyConflict(req.IdempotencyKey, requestHash)
			}
			return conflictResponse(req.IdempotencyKey)
		}
	}

	if req.ProofHeader == "" {
		challenge := g.issueChallenge(pricing, requestHash)
		if g.Hooks.OnChallengeIssued != nil {
			g.Hooks.OnChallengeIssued(pricing, challenge)
		}
		return challengeResponse(challenge)
	}

	proof, err := DecodeProof(req.ProofHeader)
	if err != nil || !g.Verifier.Verify(req.ProofHeader, requestHash, pricing) {
		return rejectedResponse()
	}

	expiry, err := time.Parse(time.RFC3339, proof.ExpiresAt)
	if err != nil {
		return rejectedResponse()
	}
	reserved := g.Nonces.TryReserve(proof.Nonce, expiry.Add(60*time.Second).UnixMilli())
	if !reserved {
		if g.Hooks.OnNonceReplay != nil {
			g.Hooks.OnNonceReplay(pricing, proof.Nonce)
		}
		return replayDetectedResponse()
	}

	if g.Hooks.OnProofVerified != nil {
		g.Hooks.OnProofVerified(pricing, proof)
	}

	resp := handler(req)
	if req.IdempotencyKey != "" {
		g.Store.Set(req.IdempotencyKey, StoredResponse{
			RequestHash: requestHash,
			StatusCode:  resp.StatusCode,
			Body:        resp.Body,
			Headers:     resp.Headers,
		})
	}
	resp.Outcome = OutcomeHandled
	return resp
}

func (g *Gate) issueChallenge(pricing PricingConfig, requestHash string) Challenge {
	return Challenge{
		Version:     1,
		Scheme:      pricing.scheme(),
		Price:       pricing.Price,
		Asset:       pricing.Asset,
		Network:     pricing.network(),
		Recipient:   pricing.Recipient,
		Nonce:       uuid.NewString(),
		ExpiresAt:   time.Now().UTC().Add(pricing.ttl()).Format(time.RFC3339),
		RequestHash: requestHash,
		Description: pricing.Description,
	}
}

func challengeResponse(challenge Challenge) GateResponse {
	body, _ := json.Marshal(map[string]Challenge{"x402": challenge})
	return GateResponse{
		StatusCode: 402,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Outcome:    OutcomeChallengeIssued,
	}
}

func rejectedResponse() GateResponse {
	return errorResponse(402, ErrCodeInvalidProof, "payment proof invalid or expired", OutcomeRejected, nil)
}

func replayDetectedResponse() GateResponse {
	return errorResponse(402, ErrCodeNonceReplay, "payment proof nonce already used (replay)", OutcomeReplayDetected, nil)
}

func conflictResponse(idempotencyKey string) GateResponse {
	return errorResponse(409, ErrCodeIdempotencyConflict, "idempotency key already used for a different request", OutcomeConflict,
		map[string]interface{}{"idempotencyKey": idempotencyKey})
}

func errorResponse(status int, code, message string, outcome Outcome, details map[string]interface{}) GateResponse {
	body, _ := json.Marshal(NewPaymentError(code, message, details))
	return GateResponse{
		StatusCode: status,
		Body:       body,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Outcome:    outcome,
	}
}

func replayResponse(stored StoredResponse) GateResponse {
	headers := make(map[string]string, len(stored.Headers)+1)
	for k, v := range stored.Headers {
		headers[k] = v
	}
	headers["X-Idempotent-Replay"] = "true"
	return GateResponse{
		StatusCode: stored.StatusCode,
		Body:       stored.Body,
		Headers:    headers,
		Outcome:    OutcomeReplay,
	}
}
