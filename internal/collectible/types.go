// Package collectible resolves which of a wallet's on-chain collectibles
// qualify for merch redemption.
package collectible

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

var ErrInvalidConfig = errors.New("collectible: invalid config")

// Asset is a read-only view of an on-chain collectible as reported by the
// asset index. This package never mutates assets.
type Asset struct {
	Address solana.PublicKey
	Name    string
	// UpdateAuthority is the asset's declared update authority. For a
	// collection member this is the collection address.
	UpdateAuthority solana.PublicKey
	Owner           solana.PublicKey
}

// Index lists the collectibles owned by a wallet. Implementations re-query on
// every call; eligibility is always derived from current state.
type Index interface {
	AssetsByOwner(ctx context.Context, owner solana.PublicKey) ([]Asset, error)
}
