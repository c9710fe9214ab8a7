// Package txcompose assembles unsigned transactions from instruction lists.
//
// Composition never signs and never broadcasts: the result is returned to the
// wallet, which signs and submits within the blockhash validity window.
package txcompose

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/superbasedd/merch-blink/internal/chain"
	"github.com/superbasedd/merch-blink/internal/reference"
)

var (
	ErrInvalidConfig = errors.New("txcompose: invalid config")

	// ErrMissingTokenAccount marks a fee transfer that cannot be built
	// because payer or payee has no sub-account for the fee currency.
	ErrMissingTokenAccount = errors.New("txcompose: missing associated token account")
)

// BurnBuilder produces the instructions that burn a collectible out of its
// collection. Implemented by the program-specific adapter.
type BurnBuilder interface {
	BurnInstructions(asset, collection, owner solana.PublicKey) ([]solana.Instruction, error)
}

// Composer compiles instruction lists into unsigned transactions against a
// fresh blockhash.
type Composer struct {
	reader chain.Reader
}

func NewComposer(reader chain.Reader) (*Composer, error) {
	if reader == nil {
		return nil, fmt.Errorf("%w: nil reader", ErrInvalidConfig)
	}
	return &Composer{reader: reader}, nil
}

// Compose compiles ixs into a single unsigned v0 transaction with feePayer as
// the designated fee payer. The blockhash is fetched fresh per call;
// staleness handling is the caller's concern.
func (c *Composer) Compose(ctx context.Context, ixs []solana.Instruction, feePayer solana.PublicKey) (*solana.Transaction, error) {
	if len(ixs) == 0 {
		return nil, fmt.Errorf("%w: empty instruction list", ErrInvalidConfig)
	}
	if feePayer.IsZero() {
		return nil, fmt.Errorf("%w: missing fee payer", ErrInvalidConfig)
	}

	blockhash, err := c.reader.LatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := solana.NewTransaction(ixs, blockhash, solana.TransactionPayer(feePayer))
	if err != nil {
		return nil, fmt.Errorf("txcompose: compile message: %w", err)
	}
	tx.Message.SetVersion(solana.MessageVersionV0)
	return tx, nil
}

// TokenTransferInstruction builds the fixed-currency fee transfer from payer
// to payee. Both sides must already hold a sub-account for mint; a missing
// one fails with ErrMissingTokenAccount.
func (c *Composer) TokenTransferInstruction(ctx context.Context, amount uint64, mint, payer, payee solana.PublicKey) (solana.Instruction, error) {
	payerBalance, err := c.reader.TokenBalance(ctx, payer, mint)
	if err != nil {
		return nil, err
	}
	if !payerBalance.AccountExists {
		return nil, fmt.Errorf("%w: payer %s has no account for %s", ErrMissingTokenAccount, payer, mint)
	}
	payeeBalance, err := c.reader.TokenBalance(ctx, payee, mint)
	if err != nil {
		return nil, err
	}
	if !payeeBalance.AccountExists {
		return nil, fmt.Errorf("%w: payee %s has no account for %s", ErrMissingTokenAccount, payee, mint)
	}

	source, _, err := solana.FindAssociatedTokenAddress(payer, mint)
	if err != nil {
		return nil, fmt.Errorf("txcompose: derive source account: %w", err)
	}
	destination, _, err := solana.FindAssociatedTokenAddress(payee, mint)
	if err != nil {
		return nil, fmt.Errorf("txcompose: derive destination account: %w", err)
	}

	ix, err := token.NewTransferInstruction(amount, source, destination, payer, nil).ValidateAndBuild()
	if err != nil {
		return nil, fmt.Errorf("txcompose: build transfer: %w", err)
	}
	return ix, nil
}

// BurnAndPay composes the redeem transaction: the burn of the selected asset
// against its collection, then the shipping-fee transfer, then the reference
// marker. The order is fixed so composed transactions stay auditable.
func (c *Composer) BurnAndPay(ctx context.Context, burner BurnBuilder, asset, collection, owner solana.PublicKey, feeAmount uint64, feeMint, feePayee solana.PublicKey, ref solana.PublicKey) (*solana.Transaction, error) {
	if burner == nil {
		return nil, fmt.Errorf("%w: nil burn builder", ErrInvalidConfig)
	}

	burnIxs, err := burner.BurnInstructions(asset, collection, owner)
	if err != nil {
		return nil, fmt.Errorf("txcompose: burn instructions: %w", err)
	}
	feeIx, err := c.TokenTransferInstruction(ctx, feeAmount, feeMint, owner, feePayee)
	if err != nil {
		return nil, err
	}

	ixs := make([]solana.Instruction, 0, len(burnIxs)+2)
	ixs = append(ixs, burnIxs...)
	ixs = append(ixs, feeIx)
	ixs = append(ixs, reference.MarkerInstruction(ref))
	return c.Compose(ctx, ixs, owner)
}
