package solana

import (
	"context"
	"time"

	gatekeeper "github.com/x402pay/gatekeeper"
)

// Verifier validates a proof whose Signature field is a landed Solana
// transaction identifier. It fetches the transaction, confirms a
// transferChecked instruction pays the expected amount to the recipient's
// USDC associated token account, confirms a memo instruction binds the
// transaction to this specific challenge, and checks the transaction's
// confirmation time falls inside the challenge window and isn't stale.
type Verifier struct {
	Fetcher         TransactionFetcher
	Mint            string
	Commitment      string
	AmountTolerance uint64
}

// NewVerifier builds a Verifier against the given fetcher and USDC mint. An
// empty mint falls back to USDCDevnetMint; an empty commitment falls back
// to DefaultCommitment.
func NewVerifier(fetcher TransactionFetcher, mint, commitment string) *Verifier {
	if mint == "" {
		mint = USDCDevnetMint
	}
	if commitment == "" {
		commitment = DefaultCommitment
	}
	return &Verifier{Fetcher: fetcher, Mint: mint, Commitment: commitment}
}

// Verify implements gatekeeper.Verifier.
func (v *Verifier) Verify(proofHeader, requestHash string, pricing gatekeeper.PricingConfig) bool {
	proof, err := gatekeeper.DecodeProof(proofHeader)
	if err != nil {
		return false
	}
	if proof.Version != 1 || proof.RequestHash != requestHash {
		return false
	}
	expiresAt, err := time.Parse(time.RFC3339, proof.ExpiresAt)
	if err != nil || !time.Now().Before(expiresAt) {
		return false
	}

	tx, err := v.Fetcher.GetParsedTransaction(context.Background(), proof.Signature, v.Commitment)
	if err != nil || tx == nil {
		return false
	}

	expectedAmount, err := gatekeeper.PriceToBaseUnits(pricing.Price, USDCDecimals)
	if err != nil {
		return false
	}
	expectedATA, err := AssociatedTokenAddress(pricing.Recipient, v.Mint)
	if err != nil {
		return false
	}

	if !hasMatchingTransfer(tx.Transfers, v.Mint, expectedATA, expectedAmount, v.AmountTolerance) {
		return false
	}
	if !hasMatchingMemo(tx.Memos, proof.Nonce+"|"+proof.RequestHash) {
		return false
	}

	if tx.BlockTime == nil {
		return false
	}
	if *tx.BlockTime > expiresAt.Unix() {
		return false
	}
	if *tx.BlockTime < time.Now().Unix()-MaxAgeSeconds {
		return false
	}

	return true
}

func hasMatchingTransfer(transfers []ParsedTransfer, mint, destination string, expected, tolerance uint64) bool {
	for _, t := range transfers {
		if t.Mint != mint || t.Destination != destination {
			continue
		}
		if t.Amount+tolerance >= expected {
			return true
		}
	}
	return false
}

func hasMatchingMemo(memos []ParsedMemo, want string) bool {
	for _, m := range memos {
		if m.Text == want {
			return true
		}
	}
	return false
}
