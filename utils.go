package gatekeeper

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// PriceToBaseUnits converts a decimal price string (e.g. "1.5") to an
// integer count of base units at the given decimal precision (e.g. 6 for
// USDC), using exact base-10 fixed-point arithmetic throughout. decimal.Decimal
// never touches a float64, so "0.001" at 6 decimals is exactly 1000, never
// 999 or 1001 from binary rounding.
func PriceToBaseUnits(price string, decimals int32) (uint64, error) {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return 0, fmt.Errorf("malformed price %q: %w", price, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("negative price %q is not allowed", price)
	}
	scaled := d.Shift(decimals).Truncate(0)
	return uint64(scaled.IntPart()), nil
}

// EncodeProof base64url-encodes a PaymentProof for the X-Payment-Proof
// header.
func EncodeProof(p PaymentProof) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeProof reverses EncodeProof. Any malformed base64url or JSON is
// reported as an error — the gate treats that identically to verifier
// rejection (spec.md §4.4, §7).
func DecodeProof(header string) (PaymentProof, error) {
	var p PaymentProof
	raw, err := base64.RawURLEncoding.DecodeString(header)
	if err != nil {
		// Some clients emit padded base64url; fall back before failing.
		if raw2, err2 := base64.URLEncoding.DecodeString(header); err2 == nil {
			raw, err = raw2, nil
		}
	}
	if err != nil {
		return p, fmt.Errorf("invalid payment proof encoding: %w", err)
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("invalid payment proof json: %w", err)
	}
	return p, nil
}

// ConstantTimeEqual compares two strings without leaking timing
// information about where they first differ. Mismatched lengths fail fast,
// which spec.md §4.5 permits explicitly.
func ConstantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
