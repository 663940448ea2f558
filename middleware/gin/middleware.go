// Package gin adapts the payment gate (C4) onto gin.Engine, grounded on the
// teacher's go/pkg/gin/middleware.go: a gin.HandlerFunc that inspects the
// request and aborts the chain whenever the gate's outcome isn't PROCEED.
package gin

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	gatekeeper "github.com/x402pay/gatekeeper"
)

// PaymentMiddleware returns a gin.HandlerFunc that gates the route behind
// pricing using gate. Register it per-route group — gin has no per-path
// pricing lookup the way the net/http adapter does.
func PaymentMiddleware(gate *gatekeeper.Gate, pricing gatekeeper.PricingConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
			return
		}
		c.Request.Body.Close()

		greq := gatekeeper.GateRequest{
			Method:         c.Request.Method,
			Path:           c.Request.URL.Path,
			RawQuery:       c.Request.URL.RawQuery,
			Body:           body,
			ProofHeader:    c.GetHeader("X-Payment-Proof"),
			IdempotencyKey: c.GetHeader("Idempotency-Key"),
		}

		resp := gate.Serve(pricing, greq, func(gatekeeper.GateRequest) gatekeeper.GateResponse {
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
			original := c.Writer
			rec := &capture{ResponseWriter: original}
			c.Writer = rec
			c.Next()
			c.Writer = original
			return gatekeeper.GateResponse{
				StatusCode: rec.status(),
				Body:       rec.body.Bytes(),
				Headers:    flattenHeader(rec.header),
			}
		})

		for k, v := range resp.Headers {
			c.Header(k, v)
		}
		c.Data(resp.StatusCode, "application/json", resp.Body)
		c.Abort()
	}
}

func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}
