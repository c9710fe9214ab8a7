// Package mplcore builds Metaplex Core instructions for collectible assets.
//
// Only the small surface this service needs is implemented: burning a
// collection member on behalf of its owner. The owner signs client-side; the
// builder only assembles the unsigned instruction.
package mplcore

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ProgramID is the Metaplex Core program.
var ProgramID = solana.MustPublicKeyFromBase58("CoREENxT6tW1HoK8ypY1SxRMZTcVPm7R94rH4PZNhX7d")

// burnV1Discriminator selects the BurnV1 instruction; the trailing byte is
// the None tag of the optional compression proof.
var burnV1Data = []byte{12, 0}

// Builder assembles burn instructions for Core assets.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// BurnInstructions returns the instruction list that burns asset out of
// collection, paid for and authorized by owner. Optional accounts the burn
// does not use carry the program id placeholder, per the Core convention.
func (b *Builder) BurnInstructions(asset, collection, owner solana.PublicKey) ([]solana.Instruction, error) {
	if asset.IsZero() || collection.IsZero() || owner.IsZero() {
		return nil, fmt.Errorf("mplcore: burn requires asset, collection, and owner")
	}

	ix := solana.NewInstruction(
		ProgramID,
		solana.AccountMetaSlice{
			solana.NewAccountMeta(asset, true, false),
			solana.NewAccountMeta(collection, true, false),
			solana.NewAccountMeta(owner, true, true), // payer
			solana.NewAccountMeta(ProgramID, false, false), // authority: defaults to payer
			solana.NewAccountMeta(solana.SystemProgramID, false, false),
			solana.NewAccountMeta(ProgramID, false, false), // log wrapper: unused
		},
		burnV1Data,
	)
	return []solana.Instruction{ix}, nil
}
