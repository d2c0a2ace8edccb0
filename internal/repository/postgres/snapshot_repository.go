package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/partsight/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type itemRow struct {
	ID           uuid.UUID       `db:"id"`
	PartNumber   string          `db:"part_number"`
	Name         string          `db:"name"`
	Quantity     int             `db:"quantity"`
	MinQuantity  int             `db:"min_quantity"`
	CostPrice    decimal.Decimal `db:"cost_price"`
	SellingPrice decimal.Decimal `db:"selling_price"`
	SupplierID   uuid.NullUUID   `db:"supplier_id"`
}

type orderRow struct {
	ID           uuid.UUID       `db:"id"`
	SupplierID   uuid.NullUUID   `db:"supplier_id"`
	Status       string          `db:"status"`
	Total        decimal.Decimal `db:"total"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
	CompletedAt  *time.Time      `db:"completed_at"`
	ExpectedDate *time.Time      `db:"expected_date"`
}

type lineRow struct {
	OrderID    uuid.UUID `db:"order_id"`
	PartNumber string    `db:"part_number"`
	Quantity   int       `db:"quantity"`
	Status     string    `db:"status"`
}

type SnapshotRepository struct {
	db          *DB
	historyDays int
	fallback    domain.Settings
}

// NewSnapshotRepository reads orders created in the historyDays before now.
// fallback is used when the settings table is empty.
func NewSnapshotRepository(db *DB, historyDays int, fallback domain.Settings) *SnapshotRepository {
	return &SnapshotRepository{db: db, historyDays: historyDays, fallback: fallback}
}

func (r *SnapshotRepository) Source() string {
	return "postgres"
}

// LoadSnapshot reads every table inside one read-only repeatable-read
// transaction so the collections agree with each other.
func (r *SnapshotRepository) LoadSnapshot(ctx context.Context, now time.Time) (*domain.Snapshot, error) {
	since := now.Add(-time.Duration(r.historyDays) * 24 * time.Hour)
	snapshot := &domain.Snapshot{}

	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := r.db.WithTx(ctx, opts, func(tx *sqlx.Tx) error {
		// 1. Inventory items
		var items []itemRow
		if err := tx.SelectContext(ctx, &items, `
			SELECT id, part_number, name, quantity, min_quantity, cost_price, selling_price, supplier_id
			FROM inventory_items
			ORDER BY part_number
		`); err != nil {
			return fmt.Errorf("error getting inventory items: %w", err)
		}
		snapshot.Items = toItems(items)

		// 2. Suppliers
		if err := tx.SelectContext(ctx, &snapshot.Suppliers, `
			SELECT id, name, lead_time_days, terms
			FROM suppliers
			ORDER BY name
		`); err != nil {
			return fmt.Errorf("error getting suppliers: %w", err)
		}

		// 3. Orders inside the history horizon
		var orders []orderRow
		if err := tx.SelectContext(ctx, &orders, `
			SELECT id, supplier_id, status, total, created_at, updated_at, completed_at, expected_date
			FROM orders
			WHERE created_at > $1
			ORDER BY created_at
		`, since); err != nil {
			return fmt.Errorf("error getting orders: %w", err)
		}

		// 4. Their line items
		var lines []lineRow
		if len(orders) > 0 {
			ids := make([]string, len(orders))
			for i, o := range orders {
				ids[i] = o.ID.String()
			}
			if err := tx.SelectContext(ctx, &lines, `
				SELECT order_id, part_number, quantity, status
				FROM order_items
				WHERE order_id = ANY($1::uuid[])
				ORDER BY id
			`, pq.Array(ids)); err != nil {
				return fmt.Errorf("error getting order items: %w", err)
			}
		}

		assembled, err := assembleOrders(orders, lines)
		if err != nil {
			return err
		}
		snapshot.Orders = assembled

		// 5. Settings, latest row wins
		settings, err := r.loadSettings(ctx, tx)
		if err != nil {
			return err
		}
		snapshot.Settings = settings

		return nil
	})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

func (r *SnapshotRepository) loadSettings(ctx context.Context, tx *sqlx.Tx) (domain.Settings, error) {
	var settings domain.Settings
	err := tx.GetContext(ctx, &settings, `
		SELECT ordering_cost, holding_cost_percentage
		FROM settings
		ORDER BY updated_at DESC
		LIMIT 1
	`)
	if errors.Is(err, sql.ErrNoRows) {
		return r.fallback, nil
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("error getting settings: %w", err)
	}
	return settings, nil
}

// SaveSnapshot upserts every collection of snapshot in one transaction.
// Line items of the saved orders are replaced.
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, snapshot *domain.Snapshot) error {
	return r.db.WithTx(ctx, nil, func(tx *sqlx.Tx) error {
		for _, s := range snapshot.Suppliers {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO suppliers (id, name, lead_time_days, terms, updated_at)
				VALUES ($1, $2, $3, $4, NOW())
				ON CONFLICT (id) DO UPDATE SET
					name = EXCLUDED.name,
					lead_time_days = EXCLUDED.lead_time_days,
					terms = EXCLUDED.terms,
					updated_at = NOW()
			`, s.ID, s.Name, s.LeadTimeDays, s.Terms); err != nil {
				return fmt.Errorf("failed to upsert supplier %s: %w", s.ID, err)
			}
		}

		for _, item := range snapshot.Items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO inventory_items (id, part_number, name, quantity, min_quantity, cost_price, selling_price, supplier_id, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
				ON CONFLICT (id) DO UPDATE SET
					part_number = EXCLUDED.part_number,
					name = EXCLUDED.name,
					quantity = EXCLUDED.quantity,
					min_quantity = EXCLUDED.min_quantity,
					cost_price = EXCLUDED.cost_price,
					selling_price = EXCLUDED.selling_price,
					supplier_id = EXCLUDED.supplier_id,
					updated_at = NOW()
			`, item.ID, item.PartNumber, item.Name, item.Quantity, item.MinQuantity,
				item.CostPrice, item.SellingPrice, nullableID(item.SupplierID)); err != nil {
				return fmt.Errorf("failed to upsert item %s: %w", item.PartNumber, err)
			}
		}

		for _, order := range snapshot.Orders {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO orders (id, supplier_id, status, total, created_at, updated_at, completed_at, expected_date)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (id) DO UPDATE SET
					supplier_id = EXCLUDED.supplier_id,
					status = EXCLUDED.status,
					total = EXCLUDED.total,
					created_at = EXCLUDED.created_at,
					updated_at = EXCLUDED.updated_at,
					completed_at = EXCLUDED.completed_at,
					expected_date = EXCLUDED.expected_date
			`, order.ID, nullableID(order.SupplierID), string(order.Status), order.Total,
				order.CreatedAt, order.UpdatedAt, order.CompletedAt, order.ExpectedDate); err != nil {
				return fmt.Errorf("failed to upsert order %s: %w", order.ID, err)
			}

			if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, order.ID); err != nil {
				return fmt.Errorf("failed to clear items of order %s: %w", order.ID, err)
			}
			for _, line := range order.Items {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO order_items (order_id, part_number, quantity, status)
					VALUES ($1, $2, $3, $4)
				`, order.ID, line.PartNumber, line.Quantity, string(line.Status)); err != nil {
					return fmt.Errorf("failed to insert item %s of order %s: %w", line.PartNumber, order.ID, err)
				}
			}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO settings (id, ordering_cost, holding_cost_percentage, updated_at)
			VALUES (1, $1, $2, NOW())
			ON CONFLICT (id) DO UPDATE SET
				ordering_cost = EXCLUDED.ordering_cost,
				holding_cost_percentage = EXCLUDED.holding_cost_percentage,
				updated_at = NOW()
		`, snapshot.Settings.OrderingCost, snapshot.Settings.HoldingCostPercentage); err != nil {
			return fmt.Errorf("failed to upsert settings: %w", err)
		}

		return nil
	})
}

func toItems(rows []itemRow) []domain.InventoryItem {
	items := make([]domain.InventoryItem, len(rows))
	for i, row := range rows {
		items[i] = domain.InventoryItem{
			ID:           row.ID,
			PartNumber:   row.PartNumber,
			Name:         row.Name,
			Quantity:     row.Quantity,
			MinQuantity:  row.MinQuantity,
			CostPrice:    row.CostPrice,
			SellingPrice: row.SellingPrice,
		}
		if row.SupplierID.Valid {
			items[i].SupplierID = row.SupplierID.UUID
		}
	}
	return items
}

// assembleOrders attaches line rows to their orders and normalizes status
// labels. Lines of orders outside the set are dropped.
func assembleOrders(rows []orderRow, lines []lineRow) ([]domain.Order, error) {
	orders := make([]domain.Order, len(rows))
	index := make(map[uuid.UUID]int, len(rows))

	for i, row := range rows {
		status, err := domain.ParseOrderStatus(row.Status)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", row.ID, err)
		}
		orders[i] = domain.Order{
			ID:           row.ID,
			Status:       status,
			Total:        row.Total,
			CreatedAt:    row.CreatedAt,
			UpdatedAt:    row.UpdatedAt,
			CompletedAt:  row.CompletedAt,
			ExpectedDate: row.ExpectedDate,
		}
		if row.SupplierID.Valid {
			orders[i].SupplierID = row.SupplierID.UUID
		}
		index[row.ID] = i
	}

	for _, line := range lines {
		i, ok := index[line.OrderID]
		if !ok {
			continue
		}
		status, err := domain.ParseLineItemStatus(line.Status)
		if err != nil {
			return nil, fmt.Errorf("order %s line %s: %w", line.OrderID, line.PartNumber, err)
		}
		orders[i].Items = append(orders[i].Items, domain.OrderLineItem{
			PartNumber: line.PartNumber,
			Quantity:   line.Quantity,
			Status:     status,
		})
	}

	return orders, nil
}

func nullableID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}
