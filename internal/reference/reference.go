// Package reference mints and embeds correlation references.
//
// A reference is an address-shaped token attached to a proposed transaction
// as a read-only, non-signing instruction account. It has no on-chain effect;
// it exists so the confirmed transaction can later be located by anyone who
// knows the reference.
package reference

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Generate mints a fresh, globally unique reference.
func Generate() (solana.PublicKey, error) {
	priv, err := solana.NewRandomPrivateKey()
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("reference: generate: %w", err)
	}
	return priv.PublicKey(), nil
}

// Parse accepts an externally supplied reference token, for steps where the
// embedded reference must equal an identifier the client already holds.
func Parse(s string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("reference: parse %q: %w", s, err)
	}
	return pk, nil
}

// MarkerInstruction builds the no-op Memo-program instruction that carries
// ref as a read-only, non-signing account. It can be appended to any
// instruction list and never touches storage or chain state.
func MarkerInstruction(ref solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		solana.MemoProgramID,
		solana.AccountMetaSlice{solana.NewAccountMeta(ref, false, false)},
		nil,
	)
}
