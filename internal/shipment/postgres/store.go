// Package postgres persists shipment records in Postgres via pgx.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/superbasedd/merch-blink/internal/shipment"
)

var ErrInvalidConfig = errors.New("shipment/postgres: invalid config")

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("%w: nil pool", ErrInvalidConfig)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("%w: nil store", ErrInvalidConfig)
	}
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("shipment/postgres: ensure schema: %w", err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, r shipment.Record) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("%w: nil store", ErrInvalidConfig)
	}
	if err := r.Validate(); err != nil {
		return err
	}

	// burn_tx_signature is deliberately absent from the conflict set: the
	// settlement update owns that column.
	_, err := s.pool.Exec(ctx, `
		INSERT INTO merch_shipments (
			session_reference,
			name,
			country,
			address,
			contact,
			wallet_address,
			t_shirt,
			t_shirt_size,
			burn_tx_reference,
			created_at,
			updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now(),now())
		ON CONFLICT (session_reference) DO UPDATE SET
			name = EXCLUDED.name,
			country = EXCLUDED.country,
			address = EXCLUDED.address,
			contact = EXCLUDED.contact,
			wallet_address = EXCLUDED.wallet_address,
			t_shirt = EXCLUDED.t_shirt,
			t_shirt_size = EXCLUDED.t_shirt_size,
			burn_tx_reference = EXCLUDED.burn_tx_reference,
			updated_at = now()
	`, r.SessionReference, r.Name, r.Country, r.Address, nullableText(r.Contact),
		r.WalletAddress, r.TShirt, r.TShirtSize, nullableText(r.BurnTxReference))
	if err != nil {
		return fmt.Errorf("shipment/postgres: upsert: %w", err)
	}
	return nil
}

func (s *Store) SetBurnSignature(ctx context.Context, sessionReference, signature string) (bool, error) {
	if s == nil || s.pool == nil {
		return false, fmt.Errorf("%w: nil store", ErrInvalidConfig)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE merch_shipments
		SET burn_tx_signature = $2,
			updated_at = now()
		WHERE session_reference = $1
	`, sessionReference, signature)
	if err != nil {
		return false, fmt.Errorf("shipment/postgres: set burn signature: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) Get(ctx context.Context, sessionReference string) (shipment.Record, error) {
	if s == nil || s.pool == nil {
		return shipment.Record{}, fmt.Errorf("%w: nil store", ErrInvalidConfig)
	}

	var (
		rec       shipment.Record
		contact   sql.NullString
		reference sql.NullString
		signature sql.NullString
	)
	err := s.pool.QueryRow(ctx, `
		SELECT session_reference, name, country, address, contact,
			wallet_address, t_shirt, t_shirt_size,
			burn_tx_reference, burn_tx_signature,
			created_at, updated_at
		FROM merch_shipments
		WHERE session_reference = $1
	`, sessionReference).Scan(
		&rec.SessionReference, &rec.Name, &rec.Country, &rec.Address, &contact,
		&rec.WalletAddress, &rec.TShirt, &rec.TShirtSize,
		&reference, &signature,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shipment.Record{}, shipment.ErrNotFound
		}
		return shipment.Record{}, fmt.Errorf("shipment/postgres: get: %w", err)
	}
	rec.Contact = contact.String
	rec.BurnTxReference = reference.String
	rec.BurnTxSignature = signature.String
	return rec, nil
}

func nullableText(v string) any {
	if v == "" {
		return nil
	}
	return v
}
