package gatekeeper

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// CanonicalRequestHash computes the deterministic SHA-256 digest that binds a
// challenge (and later a proof) to one specific request: method, path, a
// canonicalized query string, and the raw body bytes. It never inspects the
// body's structure, so JSON key reordering in the body does not change the
// hash — only its bytes do.
func CanonicalRequestHash(method, path, rawQuery string, rawBody []byte) string {
	h := sha256.New()
	h.Write([]byte(strings.ToUpper(method)))
	h.Write([]byte("\n"))
	h.Write([]byte(path))
	h.Write([]byte("\n"))
	h.Write([]byte(canonicalQuery(rawQuery)))
	h.Write([]byte("\n"))
	h.Write(rawBody)
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalQuery parses rawQuery (no leading '?') into (key, value) pairs,
// sorts them lexicographically by key, and re-encodes with %20 for spaces
// rather than url.Values' '+' form.
func canonicalQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	type pair struct{ key, value string }
	var pairs []pair

	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		dk, err1 := url.QueryUnescape(key)
		dv, err2 := url.QueryUnescape(value)
		if err1 != nil {
			dk = key
		}
		if err2 != nil {
			dv = value
		}
		pairs = append(pairs, pair{dk, dv})
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = encodeComponent(p.key) + "=" + encodeComponent(p.value)
	}
	return strings.Join(parts, "&")
}

// encodeComponent percent-encodes a URI component the way JavaScript's
// encodeURIComponent does: spaces become %20, never '+'.
func encodeComponent(s string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
	// encodeURIComponent leaves ! ' ( ) * unescaped; url.QueryEscape does not.
	return strings.NewReplacer("%21", "!", "%27", "'", "%28", "(", "%29", ")", "%2A", "*").Replace(escaped)
}
