// internal/domain/models.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultLeadTimeDays is used when an item has no linked supplier or the
// supplier does not declare a lead time.
const DefaultLeadTimeDays = 7

// InventoryItem is a stocked part as owned by the inventory screens
type InventoryItem struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	PartNumber   string          `json:"part_number" db:"part_number"`
	Name         string          `json:"name" db:"name"`
	Quantity     int             `json:"quantity" db:"quantity"`
	MinQuantity  int             `json:"min_quantity" db:"min_quantity"`
	CostPrice    decimal.Decimal `json:"cost_price" db:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price" db:"selling_price"`
	SupplierID   uuid.UUID       `json:"supplier_id,omitempty" db:"supplier_id"` // uuid.Nil when unlinked
}

// HasSupplier reports whether the item is linked to a supplier.
func (i InventoryItem) HasSupplier() bool {
	return i.SupplierID != uuid.Nil
}

// Supplier represents a vendor parts are ordered from
type Supplier struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	LeadTimeDays *int      `json:"lead_time_days,omitempty" db:"lead_time_days"`
	Terms        string    `json:"terms" db:"terms"`
}

// EffectiveLeadTimeDays returns the declared lead time or DefaultLeadTimeDays.
func (s Supplier) EffectiveLeadTimeDays() int {
	if s.LeadTimeDays == nil || *s.LeadTimeDays < 0 {
		return DefaultLeadTimeDays
	}
	return *s.LeadTimeDays
}

// OrderLineItem is a single part line on a purchase order
type OrderLineItem struct {
	PartNumber string         `json:"part_number" db:"part_number"`
	Quantity   int            `json:"quantity" db:"quantity"`
	Status     LineItemStatus `json:"status" db:"status"`
}

// Order is a purchase order placed with a supplier
type Order struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	SupplierID   uuid.UUID       `json:"supplier_id" db:"supplier_id"`
	Items        []OrderLineItem `json:"items" db:"-"`
	Status       OrderStatus     `json:"status" db:"status"`
	Total        decimal.Decimal `json:"total" db:"total"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	ExpectedDate *time.Time      `json:"expected_date,omitempty" db:"expected_date"`
}

// QuantityOf sums the quantity of every line for partNumber. The second
// return value is false when the order does not carry the part at all.
func (o Order) QuantityOf(partNumber string) (int, bool) {
	total, found := 0, false
	for _, line := range o.Items {
		if line.PartNumber != partNumber {
			continue
		}
		found = true
		if line.Quantity > 0 {
			total += line.Quantity
		}
	}
	return total, found
}

// HasRejectedItem reports whether any line on the order was rejected.
func (o Order) HasRejectedItem() bool {
	for _, line := range o.Items {
		if line.Status == LineItemRejected {
			return true
		}
	}
	return false
}

// Settings holds the cost parameters used by the EOQ calculation
type Settings struct {
	OrderingCost          decimal.Decimal `json:"ordering_cost" db:"ordering_cost"`
	HoldingCostPercentage float64         `json:"holding_cost_percentage" db:"holding_cost_percentage"`
}

// Snapshot is one consistent read of everything the engine needs.
type Snapshot struct {
	Items     []InventoryItem `json:"items"`
	Suppliers []Supplier      `json:"suppliers"`
	Orders    []Order         `json:"orders"`
	Settings  Settings        `json:"settings"`
}

// SupplierByID returns the supplier with the given id.
func (s *Snapshot) SupplierByID(id uuid.UUID) (Supplier, bool) {
	for _, sup := range s.Suppliers {
		if sup.ID == id {
			return sup, true
		}
	}
	return Supplier{}, false
}

// ItemByPartNumber returns the item with the given part number.
func (s *Snapshot) ItemByPartNumber(partNumber string) (InventoryItem, bool) {
	for _, item := range s.Items {
		if item.PartNumber == partNumber {
			return item, true
		}
	}
	return InventoryItem{}, false
}
