// Package chain provides read access to on-chain account state: native and
// token balances, and the fresh blockhash needed to compose transactions.
package chain

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

var ErrInvalidConfig = errors.New("chain: invalid config")

// TokenBalance is the result of resolving a wallet's sub-account for one
// token mint. A wallet that has never held the token has no sub-account;
// that is reported as {Amount: 0, AccountExists: false}, not as an error.
type TokenBalance struct {
	Amount        uint64
	AccountExists bool
}

// Reader reads current chain state. Implementations must not cache: every
// call re-reads, so protocol steps always gate on fresh state.
type Reader interface {
	// NativeBalance returns the lamport balance of owner.
	NativeBalance(ctx context.Context, owner solana.PublicKey) (uint64, error)

	// TokenBalance resolves owner's associated token account for mint.
	// A missing account is a zero-balance result, not an error.
	TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (TokenBalance, error)

	// LatestBlockhash fetches a fresh blockhash at the strongest commitment.
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
}

// ResolveBalance returns the spendable balance of owner: the native balance
// when mint is nil, otherwise the balance of owner's sub-account for mint,
// where an absent sub-account counts as zero.
func ResolveBalance(ctx context.Context, r Reader, owner solana.PublicKey, mint *solana.PublicKey) (uint64, error) {
	if mint == nil {
		return r.NativeBalance(ctx, owner)
	}
	tb, err := r.TokenBalance(ctx, owner, *mint)
	if err != nil {
		return 0, err
	}
	if !tb.AccountExists {
		return 0, nil
	}
	return tb.Amount, nil
}
