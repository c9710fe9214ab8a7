package chain

import (
	"context"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
)

// RPCReader reads chain state through a Solana JSON-RPC endpoint. All reads
// use finalized commitment so gating decisions never act on state that can be
// rolled back.
type RPCReader struct {
	client *rpc.Client
}

func NewRPCReader(client *rpc.Client) (*RPCReader, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: nil rpc client", ErrInvalidConfig)
	}
	return &RPCReader{client: client}, nil
}

func (r *RPCReader) NativeBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	out, err := r.client.GetBalance(ctx, owner, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("chain: get balance %s: %w", owner, err)
	}
	return out.Value, nil
}

func (r *RPCReader) TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (TokenBalance, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return TokenBalance{}, fmt.Errorf("chain: derive token account for %s/%s: %w", owner, mint, err)
	}

	out, err := r.client.GetAccountInfoWithOpts(ctx, ata, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentFinalized,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return TokenBalance{}, nil
		}
		return TokenBalance{}, fmt.Errorf("chain: get token account %s: %w", ata, err)
	}
	if out == nil || out.Value == nil {
		return TokenBalance{}, nil
	}

	var acct token.Account
	if err := bin.NewBinDecoder(out.Value.Data.GetBinary()).Decode(&acct); err != nil {
		return TokenBalance{}, fmt.Errorf("chain: decode token account %s: %w", ata, err)
	}
	return TokenBalance{Amount: acct.Amount, AccountExists: true}, nil
}

func (r *RPCReader) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	out, err := r.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("chain: get latest blockhash: %w", err)
	}
	return out.Value.Blockhash, nil
}
