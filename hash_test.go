package gatekeeper

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var hexPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestCanonicalRequestHash_Deterministic(t *testing.T) {
	h1 := CanonicalRequestHash("GET", "/weather", "city=London", nil)
	h2 := CanonicalRequestHash("GET", "/weather", "city=London", nil)
	assert.Equal(t, h1, h2)
}

func TestCanonicalRequestHash_OutputShape(t *testing.T) {
	h := CanonicalRequestHash("POST", "/pay", "", []byte(`{"a":1}`))
	assert.Regexp(t, hexPattern, h)
}

func TestCanonicalRequestHash_QueryReorderingIsIgnored(t *testing.T) {
	h1 := CanonicalRequestHash("GET", "/x", "a=1&b=2", nil)
	h2 := CanonicalRequestHash("GET", "/x", "b=2&a=1", nil)
	assert.Equal(t, h1, h2)
}

func TestCanonicalRequestHash_Sensitivity(t *testing.T) {
	base := CanonicalRequestHash("GET", "/weather", "city=London", []byte("body"))

	assert.NotEqual(t, base, CanonicalRequestHash("POST", "/weather", "city=London", []byte("body")))
	assert.NotEqual(t, base, CanonicalRequestHash("GET", "/other", "city=London", []byte("body")))
	assert.NotEqual(t, base, CanonicalRequestHash("GET", "/weather", "city=Paris", []byte("body")))
	assert.NotEqual(t, base, CanonicalRequestHash("GET", "/weather", "city=London", []byte("body!")))
}

func TestCanonicalRequestHash_EmptyQueryYieldsEmptyCanonicalForm(t *testing.T) {
	assert.Equal(t, "", canonicalQuery(""))
	sum := sha256.Sum256([]byte("GET\n/x\n\n"))
	assert.Equal(t, hex.EncodeToString(sum[:]), CanonicalRequestHash("GET", "/x", "", nil))
}

func TestConcreteScenario_WeatherLondon(t *testing.T) {
	got := CanonicalRequestHash("GET", "/weather", "city=London", nil)
	sum := sha256.Sum256([]byte("GET\n/weather\ncity=London\n"))
	want := hex.EncodeToString(sum[:])
	assert.Equal(t, want, got)
}
