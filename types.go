package gatekeeper

import "time"

// Challenge is the server-issued 402 body, wrapped as {"x402": {...}}.
type Challenge struct {
	Version     int    `json:"version"`
	Scheme      string `json:"scheme"`
	Price       string `json:"price"`
	Asset       string `json:"asset"`
	Network     string `json:"network"`
	Recipient   string `json:"recipient"`
	Nonce       string `json:"nonce"`
	ExpiresAt   string `json:"expiresAt"`
	RequestHash string `json:"requestHash"`
	Description string `json:"description,omitempty"`
}

// PaymentProof travels from client to server base64url-encoded in the
// X-Payment-Proof header.
type PaymentProof struct {
	Version     int    `json:"version"`
	Nonce       string `json:"nonce"`
	RequestHash string `json:"requestHash"`
	Payer       string `json:"payer"`
	Timestamp   string `json:"timestamp"`
	ExpiresAt   string `json:"expiresAt"`
	Signature   string `json:"signature"`
}

// PricingConfig describes the price of a single priced route. A route with
// no PricingConfig is never gated.
type PricingConfig struct {
	Price       string
	Asset       string
	Network     string
	Recipient   string
	Scheme      string
	Description string
	TTLSeconds  int
}

func (p PricingConfig) ttl() time.Duration {
	if p.TTLSeconds <= 0 {
		return 300 * time.Second
	}
	return time.Duration(p.TTLSeconds) * time.Second
}

func (p PricingConfig) scheme() string {
	if p.Scheme == "" {
		return "exact"
	}
	return p.Scheme
}

func (p PricingConfig) network() string {
	if p.Network == "" {
		return "mock"
	}
	return p.Network
}

// StoredResponse is the idempotency cache value: an entire captured handler
// response, bound to the requestHash that produced it.
type StoredResponse struct {
	RequestHash string            `json:"requestHash"`
	StatusCode  int               `json:"statusCode"`
	Body        []byte            `json:"body"`
	Headers     map[string]string `json:"headers,omitempty"`
}
