package solana

import (
	"context"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"

	gatekeeper "github.com/x402pay/gatekeeper"
)

// estimatedComputeUnits covers compute-limit + compute-price + transferChecked
// + memo, matching the fixed budget the teacher hardcodes for its
// three-instruction transfer in mechanisms/svm/v1/client.go (we add one more
// instruction for the memo, so the margin is generous).
const estimatedComputeUnits uint32 = 8000

// defaultComputeUnitPrice is a conservative micro-lamport price; operators
// running against a congested cluster override it via Payer.ComputeUnitPrice.
const defaultComputeUnitPrice = uint64(1)

// Payer builds, signs, and submits an SPL transferChecked + memo transaction
// that pays a Challenge and binds the transaction to it on-chain.
type Payer struct {
	signer           solanago.PrivateKey
	client           *rpc.Client
	Mint             string
	Commitment       rpc.CommitmentType
	ComputeUnitPrice uint64
}

// NewPayer builds a Payer from a private key (base58 or JSON byte array)
// and an RPC URL. An empty mint falls back to USDCDevnetMint, an empty
// rpcURL to DefaultRPCURL.
func NewPayer(privateKey, rpcURL, mint string) (*Payer, error) {
	key, err := ParsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}
	if mint == "" {
		mint = USDCDevnetMint
	}
	if rpcURL == "" {
		rpcURL = DefaultRPCURL
	}
	return &Payer{
		signer:           key,
		client:           rpc.New(rpcURL),
		Mint:             mint,
		Commitment:       rpc.CommitmentConfirmed,
		ComputeUnitPrice: defaultComputeUnitPrice,
	}, nil
}

// Pay implements gatekeeper.Payer.
func (p *Payer) Pay(ctx context.Context, challenge gatekeeper.Challenge, _ gatekeeper.PayContext) (gatekeeper.PaymentProof, error) {
	var zero gatekeeper.PaymentProof

	amount, err := gatekeeper.PriceToBaseUnits(challenge.Price, USDCDecimals)
	if err != nil {
		return zero, fmt.Errorf("invalid challenge price: %w", err)
	}

	mintPubkey, err := solanago.PublicKeyFromBase58(p.Mint)
	if err != nil {
		return zero, fmt.Errorf("invalid mint address: %w", err)
	}
	recipientPubkey, err := solanago.PublicKeyFromBase58(challenge.Recipient)
	if err != nil {
		return zero, fmt.Errorf("invalid recipient address: %w", err)
	}

	senderATA, _, err := solanago.FindAssociatedTokenAddress(p.signer.PublicKey(), mintPubkey)
	if err != nil {
		return zero, fmt.Errorf("failed to derive sender ATA: %w", err)
	}
	if _, err := p.client.GetAccountInfo(ctx, senderATA); err != nil {
		return zero, fmt.Errorf("Payer has no USDC token account: %w", err)
	}

	recipientATA, _, err := solanago.FindAssociatedTokenAddress(recipientPubkey, mintPubkey)
	if err != nil {
		return zero, fmt.Errorf("failed to derive recipient ATA: %w", err)
	}
	if _, err := p.client.GetAccountInfo(ctx, recipientATA); err != nil {
		return zero, fmt.Errorf("Recipient has no USDC token account: %w", err)
	}

	mintAccount, err := p.client.GetAccountInfo(ctx, mintPubkey)
	if err != nil {
		return zero, fmt.Errorf("failed to fetch mint account: %w", err)
	}
	var mintData token.Mint
	if err := bin.NewBinDecoder(mintAccount.Value.Data.GetBinary()).Decode(&mintData); err != nil {
		return zero, fmt.Errorf("failed to decode mint data: %w", err)
	}

	memo := challenge.Nonce + "|" + challenge.RequestHash
	memoIx := solanago.NewInstruction(
		solanago.MustPublicKeyFromBase58(MemoProgramAddress),
		solanago.AccountMetaSlice{solanago.NewAccountMeta(p.signer.PublicKey(), true, true)},
		[]byte(memo),
	)

	transferIx, err := token.NewTransferCheckedInstructionBuilder().
		SetAmount(amount).
		SetDecimals(mintData.Decimals).
		SetSourceAccount(senderATA).
		SetMintAccount(mintPubkey).
		SetDestinationAccount(recipientATA).
		SetOwnerAccount(p.signer.PublicKey()).
		ValidateAndBuild()
	if err != nil {
		return zero, fmt.Errorf("failed to build transfer instruction: %w", err)
	}

	cuLimit, err := computebudget.NewSetComputeUnitLimitInstructionBuilder().
		SetUnits(estimatedComputeUnits).
		ValidateAndBuild()
	if err != nil {
		return zero, fmt.Errorf("failed to build compute limit instruction: %w", err)
	}
	cuPrice, err := computebudget.NewSetComputeUnitPriceInstructionBuilder().
		SetMicroLamports(p.ComputeUnitPrice).
		ValidateAndBuild()
	if err != nil {
		return zero, fmt.Errorf("failed to build compute price instruction: %w", err)
	}

	latestBlockhash, err := p.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return zero, fmt.Errorf("failed to get latest blockhash: %w", err)
	}

	tx, err := solanago.NewTransactionBuilder().
		AddInstruction(cuLimit).
		AddInstruction(cuPrice).
		AddInstruction(transferIx).
		AddInstruction(memoIx).
		SetRecentBlockHash(latestBlockhash.Value.Blockhash).
		SetFeePayer(p.signer.PublicKey()).
		Build()
	if err != nil {
		return zero, fmt.Errorf("failed to build transaction: %w", err)
	}

	if _, err := tx.Sign(func(key solanago.PublicKey) *solanago.PrivateKey {
		if key.Equals(p.signer.PublicKey()) {
			return &p.signer
		}
		return nil
	}); err != nil {
		return zero, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := p.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: p.Commitment,
	})
	if err != nil {
		return zero, fmt.Errorf("failed to submit transaction: %w", err)
	}

	if err := p.waitForCommitment(ctx, sig); err != nil {
		return zero, err
	}

	return gatekeeper.PaymentProof{
		Version:     challenge.Version,
		Nonce:       challenge.Nonce,
		RequestHash: challenge.RequestHash,
		Payer:       p.signer.PublicKey().String(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		ExpiresAt:   challenge.ExpiresAt,
		Signature:   sig.String(),
	}, nil
}

// waitForCommitment polls GetSignatureStatuses until the submitted
// transaction reaches p.Commitment or a timeout/error status is observed.
func (p *Payer) waitForCommitment(ctx context.Context, sig solanago.Signature) error {
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		statuses, err := p.client.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			return fmt.Errorf("failed to poll signature status: %w", err)
		}
		if len(statuses.Value) == 1 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				return fmt.Errorf("transaction failed on-chain: %v", status.Err)
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusType(p.Commitment) ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return fmt.Errorf("timed out waiting for transaction %s to reach commitment %s", sig, p.Commitment)
}
