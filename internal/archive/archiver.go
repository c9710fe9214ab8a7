package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/superbasedd/merch-blink/internal/shipment"
)

// Archiver writes shipment records into the store under a stable per-session
// key. Re-archiving the same session overwrites the object with the newer
// copy of the record.
type Archiver struct {
	store Store
}

func NewArchiver(store Store) (*Archiver, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	return &Archiver{store: store}, nil
}

// Key returns the object key for one shipment.
func Key(sessionReference string) string {
	return "shipments/" + sessionReference + ".json"
}

func (a *Archiver) Archive(ctx context.Context, rec shipment.Record) error {
	if strings.TrimSpace(rec.SessionReference) == "" {
		return fmt.Errorf("%w: record has no session reference", ErrInvalidKey)
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("archive: encode shipment %q: %w", rec.SessionReference, err)
	}
	opts := PutOptions{
		ContentType: "application/json",
		Metadata: map[string]string{
			"wallet-address": rec.WalletAddress,
			"t-shirt":        rec.TShirt,
		},
	}
	return a.store.Put(ctx, Key(rec.SessionReference), body, opts)
}

// Archived reports whether a shipment has already been written.
func (a *Archiver) Archived(ctx context.Context, sessionReference string) (bool, error) {
	return a.store.Exists(ctx, Key(sessionReference))
}

// Load reads an archived shipment back.
func (a *Archiver) Load(ctx context.Context, sessionReference string) (shipment.Record, error) {
	obj, err := a.store.Get(ctx, Key(sessionReference))
	if err != nil {
		return shipment.Record{}, err
	}
	var rec shipment.Record
	if err := json.Unmarshal(obj.Data, &rec); err != nil {
		return shipment.Record{}, fmt.Errorf("archive: decode shipment %q: %w", sessionReference, err)
	}
	return rec, nil
}
