package stock_health

import (
	"time"

	"github.com/andresuchdata/partsight/internal/domain"
)

const (
	usageWindowDays = 30
	usageWindow     = usageWindowDays * 24 * time.Hour
)

// Health computes the current-health metrics of an item from the orders
// placed in the 30 days before now. It is independent of the six-window
// forecast and may disagree with it.
func Health(item domain.InventoryItem, orders []domain.Order, now time.Time) domain.InventoryHealth {
	health := domain.InventoryHealth{Item: item}

	// 1. Quantity ordered within the last 30 days
	totalQuantity := 0
	for _, order := range orders {
		if !withinWindow(order.CreatedAt, now) {
			continue
		}
		if qty, ok := order.QuantityOf(item.PartNumber); ok {
			totalQuantity += qty
		}
	}

	// 2. Daily usage
	health.DailyUsage = float64(totalQuantity) / usageWindowDays

	// 3. Turnover rate = on hand / daily usage
	if health.DailyUsage > 0 {
		health.TurnoverRate = float64(max(item.Quantity, 0)) / health.DailyUsage
	}

	// 4. Days until the stock falls to the reorder threshold
	if item.Quantity > item.MinQuantity && health.DailyUsage > 0 {
		health.DaysUntilReorder = float64(item.Quantity-item.MinQuantity) / health.DailyUsage
	}

	// 5. Reorder flag, equality counts
	health.ShouldReorder = item.Quantity <= item.MinQuantity

	return health
}

// withinWindow reports whether createdAt falls in (now-30d, now].
func withinWindow(createdAt, now time.Time) bool {
	age := now.Sub(createdAt)
	return age >= 0 && age < usageWindow
}
