// Package solana implements the on-chain verifier/payer pair (C6/C8):
// an SPL-token "exact" transfer bound to a challenge by an on-chain memo
// instruction. Grounded on the teacher's mechanisms/svm/v1/client.go
// (transferChecked + compute-budget instruction building) and
// signers/svm/client.go (private-key signing).
package solana

import "github.com/gagliardetto/solana-go"

const (
	// USDCDevnetMint is the devnet USDC SPL mint the examples in this repo
	// default to.
	USDCDevnetMint = "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU"

	// USDCDecimals is USDC's fixed on-chain decimal precision.
	USDCDecimals = 6

	// MemoProgramAddress is the Solana memo-v2 program id. Referenced but
	// not defined in the retrieved pack (mechanisms/svm/exact/facilitator/
	// duplicate_tx_test.go uses svm.MemoProgramAddress); this is that
	// program's well-known public address.
	MemoProgramAddress = "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"

	// DefaultRPCURL is the devnet cluster endpoint used when no override is
	// configured.
	DefaultRPCURL = "https://api.devnet.solana.com"

	// DefaultCommitment is the confirmation level both the verifier's
	// transaction fetch and the payer's submit-and-wait use by default.
	DefaultCommitment = "confirmed"

	// MaxAgeSeconds bounds how old a transaction's blockTime may be before
	// the verifier treats it as a stale-tx replay, per spec §4.6 step 7.
	MaxAgeSeconds = 600
)

var tokenProgramAddress = solana.TokenProgramID.String()
var token2022ProgramAddress = solana.Token2022ProgramID.String()
