// Package nethttp adapts the transport-agnostic payment gate (C4) onto
// net/http, grounded on the teacher's go/pkg/stdlib/middleware.go body-read
// + header-shuffle style: buffer the request body, let the gate decide, and
// either write its response directly or hand the request to next.
package nethttp

import (
	"bytes"
	"io"
	"net/http"

	gatekeeper "github.com/x402pay/gatekeeper"
)

// Middleware wraps priced routes with the payment gate. Routes with no
// PricingConfig registered for their path pass through untouched.
type Middleware struct {
	Gate    *gatekeeper.Gate
	Pricing map[string]gatekeeper.PricingConfig // keyed by r.URL.Path
}

// New builds a Middleware over gate, priced per the given path->PricingConfig map.
func New(gate *gatekeeper.Gate, pricing map[string]gatekeeper.PricingConfig) *Middleware {
	return &Middleware{Gate: gate, Pricing: pricing}
}

// Wrap returns an http.Handler that runs the gate ahead of next for any
// path carrying a PricingConfig, and passes unpriced paths straight through.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pricing, priced := m.Pricing[r.URL.Path]
		if !priced {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		r.Body.Close()

		greq := gatekeeper.GateRequest{
			Method:         r.Method,
			Path:           r.URL.Path,
			RawQuery:       r.URL.RawQuery,
			Body:           body,
			ProofHeader:    r.Header.Get("X-Payment-Proof"),
			IdempotencyKey: r.Header.Get("Idempotency-Key"),
		}

		resp := m.Gate.Serve(pricing, greq, func(gatekeeper.GateRequest) gatekeeper.GateResponse {
			r.Body = io.NopCloser(bytes.NewReader(body))
			rec := newRecorder()
			next.ServeHTTP(rec, r)
			return gatekeeper.GateResponse{
				StatusCode: rec.status(),
				Body:       rec.body.Bytes(),
				Headers:    flattenHeader(rec.Header()),
			}
		})

		for k, v := range resp.Headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(resp.StatusCode)
		w.Write(resp.Body)
	})
}
