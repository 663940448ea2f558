// Package echo adapts the payment gate (C4) onto echo.Echo. echo.Response
// exposes its underlying http.ResponseWriter as a plain exported field, so
// the capture technique is the same shape as middleware/nethttp's recorder.
package echo

import (
	"bytes"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	gatekeeper "github.com/x402pay/gatekeeper"
)

// PaymentMiddleware returns an echo.MiddlewareFunc that gates the route
// behind pricing using gate.
func PaymentMiddleware(gate *gatekeeper.Gate, pricing gatekeeper.PricingConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			body, err := io.ReadAll(req.Body)
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "failed to read request body"})
			}
			req.Body.Close()

			greq := gatekeeper.GateRequest{
				Method:         req.Method,
				Path:           req.URL.Path,
				RawQuery:       req.URL.RawQuery,
				Body:           body,
				ProofHeader:    req.Header.Get("X-Payment-Proof"),
				IdempotencyKey: req.Header.Get("Idempotency-Key"),
			}

			var handlerErr error
			resp := gate.Serve(pricing, greq, func(gatekeeper.GateRequest) gatekeeper.GateResponse {
				req.Body = io.NopCloser(bytes.NewReader(body))

				original := c.Response().Writer
				rec := newRecorder()
				c.Response().Writer = rec
				handlerErr = next(c)
				c.Response().Writer = original

				return gatekeeper.GateResponse{
					StatusCode: rec.status(),
					Body:       rec.body.Bytes(),
					Headers:    flattenHeader(rec.Header()),
				}
			})

			if handlerErr != nil {
				return handlerErr
			}

			for k, v := range resp.Headers {
				c.Response().Header().Set(k, v)
			}
			return c.Blob(resp.StatusCode, "application/json", resp.Body)
		}
	}
}

type recorder struct {
	header     http.Header
	body       bytes.Buffer
	statusCode int
}

func newRecorder() *recorder {
	return &recorder{header: make(http.Header)}
}

func (r *recorder) Header() http.Header { return r.header }

func (r *recorder) Write(b []byte) (int, error) {
	if r.statusCode == 0 {
		r.statusCode = http.StatusOK
	}
	return r.body.Write(b)
}

func (r *recorder) WriteHeader(code int) {
	if r.statusCode == 0 {
		r.statusCode = code
	}
}

func (r *recorder) status() int {
	if r.statusCode == 0 {
		return http.StatusOK
	}
	return r.statusCode
}

func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}
