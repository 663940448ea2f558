package solana

import "github.com/gagliardetto/solana-go"

// AssociatedTokenAddress derives the deterministic per-(owner, mint) token
// account address, base58-encoded, grounded on the teacher's
// solana.FindAssociatedTokenAddress call in mechanisms/svm/v1/client.go.
func AssociatedTokenAddress(owner, mint string) (string, error) {
	ownerKey, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return "", err
	}
	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return "", err
	}
	ata, _, err := solana.FindAssociatedTokenAddress(ownerKey, mintKey)
	if err != nil {
		return "", err
	}
	return ata.String(), nil
}
