package forecast

import (
	"math"
	"time"

	"github.com/andresuchdata/partsight/internal/domain"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

const (
	safetyStockFactor = 0.2
	periodDays        = 30
	periodsPerYear    = 12
)

var hundred = decimal.NewFromInt(100)

// Forecast projects next-period usage for item from its six-window history
// and derives safety stock, reorder point and economic order quantity.
func Forecast(item domain.InventoryItem, orders []domain.Order, suppliers []domain.Supplier, settings domain.Settings, now time.Time) domain.ForecastResult {
	buckets := BucketUsage(item.PartNumber, orders, now)

	// 1. Moving average and linear trend between oldest and newest window
	movingAverage := movingAverage(buckets)
	trend := float64(buckets[BucketCount-1].Usage-buckets[0].Usage) / float64(BucketCount-1)

	// 2. Next period usage, never negative
	nextPeriodUsage := int(math.Max(0, math.Round(movingAverage+trend)))

	// 3. Safety stock (20% buffer on the average)
	safetyStock := int(math.Ceil(movingAverage * safetyStockFactor))

	// 4. Reorder point = demand during lead time + safety stock
	leadTimeDays := LeadTimeDays(item, suppliers)
	reorderPoint := ReorderPoint(nextPeriodUsage, leadTimeDays, safetyStock)

	// 5. Economic order quantity
	eoq := EconomicOrderQuantity(nextPeriodUsage*periodsPerYear, item.CostPrice, settings)

	return domain.ForecastResult{
		Item:                 item,
		MovingAverage:        movingAverage,
		Trend:                trend,
		NextPeriodUsage:      nextPeriodUsage,
		TrendDirection:       direction(trend),
		SafetyStock:          safetyStock,
		LeadTimeDays:         leadTimeDays,
		ReorderPoint:         reorderPoint,
		OptimalOrderQuantity: eoq,
		HistoricalUsage:      buckets,
	}
}

// LeadTimeDays returns the lead time of the item's supplier, or the default
// when the item is unlinked or its supplier is not in the snapshot.
func LeadTimeDays(item domain.InventoryItem, suppliers []domain.Supplier) int {
	if !item.HasSupplier() {
		return domain.DefaultLeadTimeDays
	}
	for _, s := range suppliers {
		if s.ID == item.SupplierID {
			return s.EffectiveLeadTimeDays()
		}
	}
	return domain.DefaultLeadTimeDays
}

// ReorderPoint is ceil(nextPeriodUsage/30 * leadTimeDays) + safetyStock.
func ReorderPoint(nextPeriodUsage, leadTimeDays, safetyStock int) int {
	if nextPeriodUsage < 0 {
		nextPeriodUsage = 0
	}
	if leadTimeDays < 0 {
		leadTimeDays = 0
	}
	// multiply first so whole-period demand stays exact
	leadTimeDemand := float64(nextPeriodUsage*leadTimeDays) / periodDays
	return int(math.Ceil(leadTimeDemand)) + safetyStock
}

// EconomicOrderQuantity is ceil(sqrt(2*D*S/H)) where H is the per-unit
// holding cost. It is 0 when the ordering or holding cost is not positive.
func EconomicOrderQuantity(annualDemand int, costPrice decimal.Decimal, settings domain.Settings) int {
	holdingCost := costPrice.Mul(decimal.NewFromFloat(settings.HoldingCostPercentage)).Div(hundred)
	if !settings.OrderingCost.IsPositive() || !holdingCost.IsPositive() || annualDemand <= 0 {
		return 0
	}

	ratio := decimal.NewFromInt(int64(2 * annualDemand)).
		Mul(settings.OrderingCost).
		Div(holdingCost)

	f, _ := ratio.Float64()
	return int(math.Ceil(math.Sqrt(f)))
}

func movingAverage(buckets []domain.UsageBucket) float64 {
	if len(buckets) == 0 {
		return 0
	}
	usage := make([]float64, len(buckets))
	for i, b := range buckets {
		usage[i] = float64(b.Usage)
	}
	return stat.Mean(usage, nil)
}

func direction(trend float64) domain.TrendDirection {
	switch {
	case trend > 0:
		return domain.TrendIncreasing
	case trend < 0:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}
