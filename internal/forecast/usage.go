package forecast

import (
	"time"

	"github.com/andresuchdata/partsight/internal/domain"
)

const (
	// BucketCount is the number of usage windows in the trailing horizon.
	BucketCount = 6
	// BucketWidth is the width of a single usage window.
	BucketWidth = 30 * 24 * time.Hour
	// Horizon is the trailing period covered by BucketUsage.
	Horizon = BucketCount * BucketWidth
)

// BucketUsage sums the quantity of partNumber ordered in each of the six
// 30-day windows before now. Window 0 covers (now-30d, now], window 5 covers
// (now-180d, now-150d]. Buckets are returned oldest first.
func BucketUsage(partNumber string, orders []domain.Order, now time.Time) []domain.UsageBucket {
	var usage [BucketCount]int

	for _, order := range orders {
		qty, ok := order.QuantityOf(partNumber)
		if !ok {
			continue
		}
		idx, ok := windowIndex(order.CreatedAt, now)
		if !ok {
			continue
		}
		usage[idx] += qty
	}

	buckets := make([]domain.UsageBucket, BucketCount)
	for i := 0; i < BucketCount; i++ {
		period := BucketCount - 1 - i
		buckets[i] = domain.UsageBucket{
			PeriodIndex: period,
			Usage:       usage[period],
		}
	}
	return buckets
}

// windowIndex maps createdAt to its window, 0 being the most recent. Orders
// in the future or at/beyond the horizon have no window.
func windowIndex(createdAt, now time.Time) (int, bool) {
	age := now.Sub(createdAt)
	if age < 0 || age >= Horizon {
		return 0, false
	}
	return int(age / BucketWidth), true
}
