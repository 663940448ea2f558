package solana

import (
	"encoding/json"
	"fmt"
	"strings"

	solanago "github.com/gagliardetto/solana-go"
)

// ParsePrivateKey accepts either a base58-encoded private key or a JSON byte
// array (the format Solana CLI keypair files use), auto-detecting by a
// leading '[' per spec.md §4.8 step 1.
func ParsePrivateKey(raw string) (solanago.PrivateKey, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "[") {
		var bytes []byte
		if err := json.Unmarshal([]byte(trimmed), &bytes); err != nil {
			return nil, fmt.Errorf("invalid JSON byte-array private key: %w", err)
		}
		return solanago.PrivateKey(bytes), nil
	}
	key, err := solanago.PrivateKeyFromBase58(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid base58 private key: %w", err)
	}
	return key, nil
}
