package postgres

const schemaSQL = `
CREATE TABLE IF NOT EXISTS merch_shipments (
	session_reference TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	country TEXT NOT NULL,
	address TEXT NOT NULL,
	contact TEXT,
	wallet_address TEXT NOT NULL,
	t_shirt TEXT NOT NULL,
	t_shirt_size TEXT NOT NULL,

	burn_tx_reference TEXT,
	burn_tx_signature TEXT,

	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),

	CONSTRAINT session_reference_nonempty CHECK (length(session_reference) > 0)
);

CREATE INDEX IF NOT EXISTS merch_shipments_wallet_idx ON merch_shipments (wallet_address);
`
