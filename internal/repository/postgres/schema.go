package postgres

import (
	"context"
	"fmt"
)

// schema creates the tables the snapshot repository reads. Supplier
// references are not foreign keys: an item may point at a supplier the
// snapshot does not carry.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS suppliers (
		id             UUID PRIMARY KEY,
		name           TEXT NOT NULL,
		lead_time_days INTEGER,
		terms          TEXT NOT NULL DEFAULT '',
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS inventory_items (
		id            UUID PRIMARY KEY,
		part_number   TEXT NOT NULL UNIQUE,
		name          TEXT NOT NULL DEFAULT '',
		quantity      INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
		min_quantity  INTEGER NOT NULL DEFAULT 0 CHECK (min_quantity >= 0),
		cost_price    NUMERIC(14, 4) NOT NULL DEFAULT 0,
		selling_price NUMERIC(14, 4) NOT NULL DEFAULT 0,
		supplier_id   UUID,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id            UUID PRIMARY KEY,
		supplier_id   UUID,
		status        TEXT NOT NULL,
		total         NUMERIC(14, 2) NOT NULL DEFAULT 0,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL,
		completed_at  TIMESTAMPTZ,
		expected_date TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders (created_at)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id          BIGSERIAL PRIMARY KEY,
		order_id    UUID NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
		part_number TEXT NOT NULL,
		quantity    INTEGER NOT NULL CHECK (quantity > 0),
		status      TEXT NOT NULL DEFAULT 'PENDING'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items (order_id)`,
	`CREATE TABLE IF NOT EXISTS settings (
		id                      SMALLINT PRIMARY KEY DEFAULT 1,
		ordering_cost           NUMERIC(14, 2) NOT NULL DEFAULT 0,
		holding_cost_percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
		updated_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema creates missing tables and indexes.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
