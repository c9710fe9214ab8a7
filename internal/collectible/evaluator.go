package collectible

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/superbasedd/merch-blink/internal/chain"
)

// Evaluator decides which of an owner's collectibles are redeemable and
// whether the owner can cover the fixed shipping fee. All inputs are static
// configuration; all chain state is re-read on every call.
type Evaluator struct {
	index  Index
	reader chain.Reader

	collection solana.PublicKey
	allowed    map[string]struct{}

	feeMint       solana.PublicKey
	feeBaseAmount uint64
}

// NewEvaluator builds an evaluator for one merch collection. feeAmount is in
// whole currency units and is scaled by feeDecimals for comparisons.
func NewEvaluator(index Index, reader chain.Reader, collection solana.PublicKey, allowedNames []string, feeMint solana.PublicKey, feeAmount uint64, feeDecimals uint8) (*Evaluator, error) {
	if index == nil || reader == nil {
		return nil, fmt.Errorf("%w: nil index or reader", ErrInvalidConfig)
	}
	if collection.IsZero() {
		return nil, fmt.Errorf("%w: missing collection", ErrInvalidConfig)
	}
	if len(allowedNames) == 0 {
		return nil, fmt.Errorf("%w: empty name allow-list", ErrInvalidConfig)
	}
	if feeMint.IsZero() {
		return nil, fmt.Errorf("%w: missing fee mint", ErrInvalidConfig)
	}

	allowed := make(map[string]struct{}, len(allowedNames))
	for _, name := range allowedNames {
		allowed[name] = struct{}{}
	}

	base := feeAmount
	for i := uint8(0); i < feeDecimals; i++ {
		base *= 10
	}
	return &Evaluator{
		index:         index,
		reader:        reader,
		collection:    collection,
		allowed:       allowed,
		feeMint:       feeMint,
		feeBaseAmount: base,
	}, nil
}

// Redeemable returns the owner's assets that belong to the configured
// collection and carry an allow-listed prize name. Order follows the index's
// scan order.
func (e *Evaluator) Redeemable(ctx context.Context, owner solana.PublicKey) ([]Asset, error) {
	assets, err := e.index.AssetsByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	var out []Asset
	for _, a := range assets {
		if !a.UpdateAuthority.Equals(e.collection) {
			continue
		}
		if _, ok := e.allowed[a.Name]; !ok {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// CanAffordFee reports whether owner's fee-currency balance covers the
// shipping fee. Strict >=, no rounding tolerance. A wallet with no
// sub-account for the fee currency simply has insufficient funds.
func (e *Evaluator) CanAffordFee(ctx context.Context, owner solana.PublicKey) (bool, error) {
	balance, err := chain.ResolveBalance(ctx, e.reader, owner, &e.feeMint)
	if err != nil {
		return false, err
	}
	return balance >= e.feeBaseAmount, nil
}

// UniqueNames deduplicates asset display names preserving first-seen order.
// Distinct assets sharing a name are interchangeable for selection.
func UniqueNames(assets []Asset) []string {
	seen := make(map[string]struct{}, len(assets))
	var out []string
	for _, a := range assets {
		if _, ok := seen[a.Name]; ok {
			continue
		}
		seen[a.Name] = struct{}{}
		out = append(out, a.Name)
	}
	return out
}

// FirstByName returns the first asset whose display name matches name, and
// whether one was found.
func FirstByName(assets []Asset, name string) (Asset, bool) {
	for _, a := range assets {
		if a.Name == name {
			return a, true
		}
	}
	return Asset{}, false
}
