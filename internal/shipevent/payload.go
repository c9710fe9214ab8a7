// Package shipevent defines the shipment lifecycle events published to the
// fulfillment queue.
package shipevent

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

const (
	// KindRecorded is emitted when a shipment record is first written at the
	// redeem step, before the burn transaction is broadcast.
	KindRecorded = "shipment.recorded.v1"
	// KindCompleted is emitted when the client reports the broadcast burn
	// signature at the completed step.
	KindCompleted = "shipment.completed.v1"
)

// Payload is the queue message body for one shipment lifecycle event.
type Payload struct {
	Version          string    `json:"version"`
	SessionReference string    `json:"sessionReference"`
	WalletAddress    string    `json:"walletAddress,omitempty"`
	TShirt           string    `json:"tShirt,omitempty"`
	BurnTxReference  string    `json:"burnTxReference,omitempty"`
	BurnTxSignature  string    `json:"burnTxSignature,omitempty"`
	At               time.Time `json:"at"`
}

func (p Payload) Validate() error {
	switch p.Version {
	case KindRecorded, KindCompleted:
	default:
		return fmt.Errorf("shipevent: unknown version %q", p.Version)
	}
	if strings.TrimSpace(p.SessionReference) == "" {
		return fmt.Errorf("shipevent: missing session reference")
	}
	return nil
}

// Encode serializes the payload for publishing.
func (p Payload) Encode() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	out, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("shipevent: encode: %w", err)
	}
	return out, nil
}

// EventID computes the deterministic message key for one event:
//
//	eventId = keccak256(kind || 0x00 || sessionReference)
//
// Re-publishing the same event for the same session yields the same key, so
// log-compacted consumers deduplicate naturally.
func EventID(kind, sessionReference string) string {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(kind))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(sessionReference))
	return hex.EncodeToString(h.Sum(nil))
}
