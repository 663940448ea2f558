package gatekeeper

import "fmt"

// PaymentError is the taxonomy of failures the gate can surface to a caller.
// Verifier internals are never embedded in Message. The gate marshals the
// whole value, Details included, into its 402/409 response bodies (a 409
// carries the offending idempotency key there).
type PaymentError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

const (
	ErrCodeInvalidProof        = "invalid_payment"
	ErrCodeNonceReplay         = "nonce_replay"
	ErrCodeIdempotencyConflict = "idempotency_conflict"
	ErrCodeConfigError         = "config_error"
)

func NewPaymentError(code, message string, details map[string]interface{}) *PaymentError {
	return &PaymentError{Code: code, Message: message, Details: details}
}
