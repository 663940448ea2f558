// Package client implements the drop-in fetch/RoundTripper wrapper (C9):
// on an x402 402 challenge, pay once, retry once with the proof header.
// Grounded on the teacher's http/client.go PaymentRoundTripper, simplified
// to an "at most 1 + maxRetries requests" budget (no per-request
// sync.Map bookkeeping is needed because each RoundTrip call owns its own
// retry counter instead of sharing one across a client's lifetime).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	gatekeeper "github.com/x402pay/gatekeeper"
)

// PaymentRoundTripper wraps an http.RoundTripper with the 402 → pay → retry
// loop. Zero value Transport falls back to http.DefaultTransport.
type PaymentRoundTripper struct {
	Transport  http.RoundTripper
	Payer      gatekeeper.Payer
	MaxRetries int
}

// Wrap returns an *http.Client that transparently pays x402 challenges
// using payer, up to maxRetries payment attempts per call (spec.md default
// is 1).
func Wrap(base *http.Client, payer gatekeeper.Payer, maxRetries int) *http.Client {
	if base == nil {
		base = &http.Client{}
	}
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	clone := *base
	clone.Transport = &PaymentRoundTripper{Transport: transport, Payer: payer, MaxRetries: maxRetries}
	return &clone
}

type challengeEnvelope struct {
	X402 gatekeeper.Challenge `json:"x402"`
}

// RoundTrip implements http.RoundTripper. At most 1+MaxRetries requests are
// issued per call, and the caller's own headers (including any
// Idempotency-Key) are preserved unchanged across the retry.
func (t *PaymentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	transport := t.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	maxRetries := t.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to buffer request body: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	}

	resp, err := transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	attempts := 0
	for resp.StatusCode == http.StatusPaymentRequired && attempts < maxRetries {
		attempts++

		payload, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("failed to read 402 body: %w", readErr)
		}

		var envelope challengeEnvelope
		if jsonErr := json.Unmarshal(payload, &envelope); jsonErr != nil || envelope.X402.Nonce == "" {
			// Not an x402 challenge body; hand the 402 back unchanged.
			return rebuildResponse(resp, payload), nil
		}

		proof, payErr := t.Payer.Pay(req.Context(), envelope.X402, gatekeeper.PayContext{
			URL:    req.URL.String(),
			Method: req.Method,
		})
		if payErr != nil {
			return nil, fmt.Errorf("payment failed: %w", payErr)
		}

		header, encErr := gatekeeper.EncodeProof(proof)
		if encErr != nil {
			return nil, fmt.Errorf("failed to encode payment proof: %w", encErr)
		}

		nextReq := req.Clone(req.Context())
		if bodyBytes != nil {
			nextReq.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
		nextReq.Header.Set("X-Payment-Proof", header)

		resp, err = transport.RoundTrip(nextReq)
		if err != nil {
			return nil, err
		}
	}

	return resp, nil
}

func rebuildResponse(original *http.Response, body []byte) *http.Response {
	original.Body = io.NopCloser(bytes.NewReader(body))
	return original
}

// Do is a convenience wrapper equivalent to Wrap(http.DefaultClient, payer,
// maxRetries).Do(req.WithContext(ctx)).
func Do(ctx context.Context, req *http.Request, payer gatekeeper.Payer, maxRetries int) (*http.Response, error) {
	c := Wrap(nil, payer, maxRetries)
	return c.Do(req.WithContext(ctx))
}
