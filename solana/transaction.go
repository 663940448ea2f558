package solana

import (
	"context"
	"fmt"

	bin "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
)

// ParsedTransfer is the subset of a decoded transferChecked instruction the
// verifier needs.
type ParsedTransfer struct {
	Mint        string
	Destination string
	Amount      uint64
}

// ParsedMemo is a decoded memo-program instruction's payload.
type ParsedMemo struct {
	Text string
}

// ParsedTransaction is the verifier-relevant projection of a landed
// transaction: its confirmation time and any transferChecked/memo
// instructions found within it.
type ParsedTransaction struct {
	BlockTime *int64
	Transfers []ParsedTransfer
	Memos     []ParsedMemo
}

// TransactionFetcher is the verifier's only dependency on the ledger,
// narrow enough to fake in tests the way spec.md §8 requires ("on-chain
// verifier with mocked RPC").
type TransactionFetcher interface {
	GetParsedTransaction(ctx context.Context, signature, commitment string) (*ParsedTransaction, error)
}

// RPCFetcher is the production TransactionFetcher, backed by
// gagliardetto/solana-go's rpc.Client — the same client construction the
// teacher uses in mechanisms/svm/v1/client.go.
type RPCFetcher struct {
	client *rpc.Client
}

// NewRPCFetcher builds a fetcher against rpcURL. An empty URL falls back to
// DefaultRPCURL.
func NewRPCFetcher(rpcURL string) *RPCFetcher {
	if rpcURL == "" {
		rpcURL = DefaultRPCURL
	}
	return &RPCFetcher{client: rpc.New(rpcURL)}
}

func (f *RPCFetcher) GetParsedTransaction(ctx context.Context, signature, commitment string) (*ParsedTransaction, error) {
	sig, err := solanago.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction signature: %w", err)
	}

	maxVersion := uint64(0)
	out, err := f.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Commitment:                     rpc.CommitmentType(commitment),
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transaction %s: %w", signature, err)
	}
	if out == nil || out.Transaction == nil {
		return nil, fmt.Errorf("transaction %s not found", signature)
	}

	tx, err := solanago.TransactionFromDecoder(bin.NewBinDecoder(out.Transaction.GetBinary()))
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}

	parsed := &ParsedTransaction{}
	if out.BlockTime != nil {
		bt := int64(*out.BlockTime)
		parsed.BlockTime = &bt
	}

	accounts := tx.Message.AccountKeys
	for _, ix := range tx.Message.Instructions {
		if int(ix.ProgramIDIndex) >= len(accounts) {
			continue
		}
		programID := accounts[ix.ProgramIDIndex]

		switch programID.String() {
		case tokenProgramAddress, token2022ProgramAddress:
			ixAccounts, err := ix.ResolveInstructionAccounts(&tx.Message)
			if err != nil {
				continue
			}
			decoded, err := token.DecodeInstruction(resolveAccountMetas(ixAccounts), ix.Data)
			if err != nil {
				continue
			}
			if transfer, ok := decoded.Impl.(*token.TransferChecked); ok && transfer.Amount != nil {
				mintAccount := transfer.GetMintAccount()
				destAccount := transfer.GetDestinationAccount()
				if mintAccount != nil && destAccount != nil {
					parsed.Transfers = append(parsed.Transfers, ParsedTransfer{
						Mint:        mintAccount.PublicKey.String(),
						Destination: destAccount.PublicKey.String(),
						Amount:      *transfer.Amount,
					})
				}
			}
		case MemoProgramAddress:
			parsed.Memos = append(parsed.Memos, ParsedMemo{Text: string(ix.Data)})
		}
	}

	return parsed, nil
}

func resolveAccountMetas(accounts []*solanago.AccountMeta) solanago.AccountMetaSlice {
	metas := make(solanago.AccountMetaSlice, len(accounts))
	copy(metas, accounts)
	return metas
}
