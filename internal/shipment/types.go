// Package shipment is the durable ledger of merch shipment requests.
//
// One record per redemption session, keyed by the client-minted session
// reference. Records outlive settlement: they are written before the burn
// transaction is ever broadcast, and the settlement signature lands later
// through a separate narrow update.
package shipment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidRecord = errors.New("shipment: invalid record")
	ErrNotFound      = errors.New("shipment: not found")
)

// Record captures the shipping details and settlement state of one
// redemption session.
type Record struct {
	SessionReference string

	Name          string
	Country       string
	Address       string
	Contact       string
	WalletAddress string
	TShirt        string
	TShirtSize    string

	// BurnTxReference is the correlation reference embedded in the proposed
	// burn transaction, set when the record is created.
	BurnTxReference string
	// BurnTxSignature is the broadcast signature reported by the client at
	// the completed step. It is the only field mutated after creation.
	BurnTxSignature string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r Record) Validate() error {
	if strings.TrimSpace(r.SessionReference) == "" {
		return fmt.Errorf("%w: missing session reference", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.Country) == "" {
		return fmt.Errorf("%w: missing country", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.Address) == "" {
		return fmt.Errorf("%w: missing address", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.WalletAddress) == "" {
		return fmt.Errorf("%w: missing wallet address", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.TShirt) == "" {
		return fmt.Errorf("%w: missing t-shirt", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.TShirtSize) == "" {
		return fmt.Errorf("%w: missing t-shirt size", ErrInvalidRecord)
	}
	return nil
}

// Store persists shipment records.
type Store interface {
	// Upsert inserts or fully replaces the shipping fields of the record for
	// its session reference. The settlement signature is left untouched on
	// conflict; repeating an upsert with the same values is always safe.
	Upsert(ctx context.Context, r Record) error

	// SetBurnSignature updates only the settlement signature of an existing
	// record. It reports false, not an error, when no record exists for the
	// reference: the completed step never guarantees a prior redeem ran.
	SetBurnSignature(ctx context.Context, sessionReference, signature string) (bool, error)

	// Get returns the record for a session reference, or ErrNotFound.
	Get(ctx context.Context, sessionReference string) (Record, error)
}
