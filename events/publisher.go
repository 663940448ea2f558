// Package events is an optional audit-event subscriber driven off the
// gate's existing Hooks (challenge issued, proof verified, nonce replay,
// idempotency conflict). Grounded on layer-3-barong's adapters/events/
// watermill_publisher.go: one topic per event kind, JSON-encoded
// message.Message payloads over a message.Publisher.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	gatekeeper "github.com/x402pay/gatekeeper"
)

const (
	TopicChallengeIssued     = "x402.challenge_issued"
	TopicProofVerified       = "x402.proof_verified"
	TopicNonceReplay         = "x402.nonce_replay"
	TopicIdempotencyConflict = "x402.idempotency_conflict"
)

// Publisher fans gate hook callbacks out to a watermill message.Publisher.
type Publisher struct {
	pub message.Publisher
}

// NewPublisher wraps pub for use as a gatekeeper.Hooks subscriber.
func NewPublisher(pub message.Publisher) *Publisher {
	return &Publisher{pub: pub}
}

// Attach wires every hook point spec.md's gate exposes onto p's topics.
// Existing hooks on hooks (if any) are preserved and called first.
func (p *Publisher) Attach(hooks *gatekeeper.Hooks) {
	prevChallenge := hooks.OnChallengeIssued
	hooks.OnChallengeIssued = func(pricing gatekeeper.PricingConfig, challenge gatekeeper.Challenge) {
		if prevChallenge != nil {
			prevChallenge(pricing, challenge)
		}
		p.publish(TopicChallengeIssued, map[string]interface{}{
			"nonce":       challenge.Nonce,
			"requestHash": challenge.RequestHash,
			"price":       pricing.Price,
			"asset":       pricing.Asset,
		})
	}

	prevVerified := hooks.OnProofVerified
	hooks.OnProofVerified = func(pricing gatekeeper.PricingConfig, proof gatekeeper.PaymentProof) {
		if prevVerified != nil {
			prevVerified(pricing, proof)
		}
		p.publish(TopicProofVerified, map[string]interface{}{
			"nonce":       proof.Nonce,
			"requestHash": proof.RequestHash,
			"payer":       proof.Payer,
		})
	}

	prevReplay := hooks.OnNonceReplay
	hooks.OnNonceReplay = func(pricing gatekeeper.PricingConfig, nonce string) {
		if prevReplay != nil {
			prevReplay(pricing, nonce)
		}
		p.publish(TopicNonceReplay, map[string]interface{}{"nonce": nonce})
	}

	prevConflict := hooks.OnIdempotencyConflict
	hooks.OnIdempotencyConflict = func(key, requestHash string) {
		if prevConflict != nil {
			prevConflict(key, requestHash)
		}
		p.publish(TopicIdempotencyConflict, map[string]interface{}{
			"idempotencyKey": key,
			"requestHash":    requestHash,
		})
	}
}

func (p *Publisher) publish(topic string, payload map[string]interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		fmt.Printf("events: failed to marshal %s event: %v\n", topic, err)
		return
	}
	msg := message.NewMessage(uuid.NewString(), raw)
	if err := p.pub.Publish(topic, msg); err != nil {
		fmt.Printf("events: failed to publish %s event: %v\n", topic, err)
	}
}
