package forecast

import (
	"testing"
	"time"

	"github.com/andresuchdata/partsight/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

// ordersForUsage builds one order per window, usage given oldest first.
func ordersForUsage(partNumber string, usageOldestFirst []int) []domain.Order {
	orders := make([]domain.Order, 0, len(usageOldestFirst))
	for i, qty := range usageOldestFirst {
		if qty == 0 {
			continue
		}
		period := len(usageOldestFirst) - 1 - i
		orders = append(orders, domain.Order{
			ID:        uuid.New(),
			Status:    domain.OrderComplete,
			CreatedAt: refNow.Add(-time.Duration(period)*BucketWidth - 24*time.Hour),
			Items:     []domain.OrderLineItem{{PartNumber: partNumber, Quantity: qty, Status: domain.LineItemInstalled}},
		})
	}
	return orders
}

func usageOf(buckets []domain.UsageBucket) []int {
	out := make([]int, len(buckets))
	for i, b := range buckets {
		out[i] = b.Usage
	}
	return out
}

func TestBucketUsage_AlwaysSixOldestFirst(t *testing.T) {
	orders := ordersForUsage("BRK-01", []int{1, 2, 3, 4, 5, 6})

	// reverse input order; output must not depend on it
	reversed := make([]domain.Order, len(orders))
	for i := range orders {
		reversed[len(orders)-1-i] = orders[i]
	}

	for _, in := range [][]domain.Order{orders, reversed, nil} {
		buckets := BucketUsage("BRK-01", in, refNow)
		require.Len(t, buckets, BucketCount)
		for i, b := range buckets {
			assert.Equal(t, BucketCount-1-i, b.PeriodIndex)
		}
	}

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, usageOf(BucketUsage("BRK-01", reversed, refNow)))
}

func TestBucketUsage_IgnoresOtherPartsAndOutOfHorizon(t *testing.T) {
	orders := []domain.Order{
		{CreatedAt: refNow.Add(-time.Hour), Items: []domain.OrderLineItem{
			{PartNumber: "BRK-01", Quantity: 3},
			{PartNumber: "BRK-01", Quantity: 2},
			{PartNumber: "FLT-09", Quantity: 50},
		}},
		{CreatedAt: refNow.Add(-Horizon), Items: []domain.OrderLineItem{{PartNumber: "BRK-01", Quantity: 100}}},
		{CreatedAt: refNow.Add(-Horizon - time.Hour), Items: []domain.OrderLineItem{{PartNumber: "BRK-01", Quantity: 100}}},
		{CreatedAt: refNow.Add(time.Hour), Items: []domain.OrderLineItem{{PartNumber: "BRK-01", Quantity: 100}}},
		{CreatedAt: refNow.Add(-Horizon + time.Hour), Items: []domain.OrderLineItem{{PartNumber: "BRK-01", Quantity: 7}}},
	}

	assert.Equal(t, []int{7, 0, 0, 0, 0, 5}, usageOf(BucketUsage("BRK-01", orders, refNow)))
}

func TestBucketUsage_WindowBoundaries(t *testing.T) {
	orders := []domain.Order{
		{CreatedAt: refNow, Items: []domain.OrderLineItem{{PartNumber: "P", Quantity: 1}}},
		{CreatedAt: refNow.Add(-BucketWidth), Items: []domain.OrderLineItem{{PartNumber: "P", Quantity: 10}}},
	}

	assert.Equal(t, []int{0, 0, 0, 0, 10, 1}, usageOf(BucketUsage("P", orders, refNow)))
}

func TestForecast_Trends(t *testing.T) {
	tests := []struct {
		name      string
		usage     []int
		wantTrend float64
		wantNext  int
		wantDir   domain.TrendDirection
		wantAvg   float64
		wantSafe  int
	}{
		{"flat usage", []int{10, 10, 10, 10, 10, 10}, 0, 10, domain.TrendStable, 10, 2},
		{"rising usage", []int{0, 2, 4, 6, 8, 10}, 2, 7, domain.TrendIncreasing, 5, 1},
		{"falling usage", []int{10, 8, 6, 4, 2, 0}, -2, 3, domain.TrendDecreasing, 5, 1},
		{"collapse clamps to zero", []int{60, 0, 0, 0, 0, 0}, -12, 0, domain.TrendDecreasing, 10, 2},
		{"no history", []int{0, 0, 0, 0, 0, 0}, 0, 0, domain.TrendStable, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := domain.InventoryItem{PartNumber: "BRK-01", CostPrice: decimal.NewFromInt(10)}
			got := Forecast(item, ordersForUsage("BRK-01", tt.usage), nil, domain.Settings{}, refNow)

			assert.Equal(t, tt.usage, usageOf(got.HistoricalUsage))
			assert.InDelta(t, tt.wantAvg, got.MovingAverage, 1e-9)
			assert.InDelta(t, tt.wantTrend, got.Trend, 1e-9)
			assert.Equal(t, tt.wantNext, got.NextPeriodUsage)
			assert.Equal(t, tt.wantDir, got.TrendDirection)
			assert.Equal(t, tt.wantSafe, got.SafetyStock)
		})
	}
}

func TestForecast_LeadTimeFromSupplier(t *testing.T) {
	fourteen := 14
	linked := domain.Supplier{ID: uuid.New(), Name: "Acme", LeadTimeDays: &fourteen}
	noLeadTime := domain.Supplier{ID: uuid.New(), Name: "Bolt Co"}
	suppliers := []domain.Supplier{linked, noLeadTime}

	orders := ordersForUsage("BRK-01", []int{30, 30, 30, 30, 30, 30})

	tests := []struct {
		name         string
		supplierID   uuid.UUID
		wantLeadTime int
		wantReorder  int
	}{
		// next 30/period => 1/day; safety ceil(30*0.2)=6
		{"linked supplier", linked.ID, 14, 14 + 6},
		{"supplier without lead time", noLeadTime.ID, 7, 7 + 6},
		{"unlinked item", uuid.Nil, 7, 7 + 6},
		{"supplier missing from snapshot", uuid.New(), 7, 7 + 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := domain.InventoryItem{PartNumber: "BRK-01", SupplierID: tt.supplierID}
			got := Forecast(item, orders, suppliers, domain.Settings{}, refNow)
			assert.Equal(t, tt.wantLeadTime, got.LeadTimeDays)
			assert.Equal(t, tt.wantReorder, got.ReorderPoint)
		})
	}
}

func TestReorderPoint_NonDecreasingInLeadTime(t *testing.T) {
	for _, next := range []int{0, 1, 7, 10, 29, 45, 300} {
		prev := ReorderPoint(next, 0, 3)
		for lead := 1; lead <= 60; lead++ {
			rp := ReorderPoint(next, lead, 3)
			require.GreaterOrEqual(t, rp, prev, "next=%d lead=%d", next, lead)
			prev = rp
		}
	}
}

func TestReorderPoint_Values(t *testing.T) {
	assert.Equal(t, 2+1, ReorderPoint(7, 7, 1)) // 49/30 = 1.63 -> 2
	assert.Equal(t, 1, ReorderPoint(10, 3, 0))  // exactly 1
	assert.Equal(t, 14, ReorderPoint(60, 7, 0)) // exactly 14
	assert.Equal(t, 5, ReorderPoint(0, 7, 5))   // safety stock only
	assert.Equal(t, 0, ReorderPoint(-4, -1, 0)) // clamped inputs
}

func TestEconomicOrderQuantity(t *testing.T) {
	cost := decimal.NewFromInt(100)

	tests := []struct {
		name     string
		demand   int
		cost     decimal.Decimal
		settings domain.Settings
		want     int
	}{
		// H = 100*20% = 20; sqrt(2*120*15/20) = sqrt(180) = 13.4
		{"standard", 120, cost, domain.Settings{OrderingCost: decimal.NewFromInt(15), HoldingCostPercentage: 20}, 14},
		// sqrt(2*200*25/10) = sqrt(1000) = 31.6
		{"fractional holding", 200, decimal.NewFromInt(40), domain.Settings{OrderingCost: decimal.NewFromInt(25), HoldingCostPercentage: 25}, 32},
		{"exact square", 100, decimal.NewFromInt(8), domain.Settings{OrderingCost: decimal.NewFromInt(2), HoldingCostPercentage: 50}, 10},
		{"no ordering cost", 120, cost, domain.Settings{HoldingCostPercentage: 20}, 0},
		{"no holding percentage", 120, cost, domain.Settings{OrderingCost: decimal.NewFromInt(15)}, 0},
		{"free item", 120, decimal.Zero, domain.Settings{OrderingCost: decimal.NewFromInt(15), HoldingCostPercentage: 20}, 0},
		{"no demand", 0, cost, domain.Settings{OrderingCost: decimal.NewFromInt(15), HoldingCostPercentage: 20}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EconomicOrderQuantity(tt.demand, tt.cost, tt.settings))
		})
	}
}

func TestForecast_EOQZeroWithoutCosts(t *testing.T) {
	orders := ordersForUsage("BRK-01", []int{5, 50, 500, 5, 50, 500})
	item := domain.InventoryItem{PartNumber: "BRK-01", CostPrice: decimal.NewFromInt(12)}

	for _, settings := range []domain.Settings{
		{OrderingCost: decimal.Zero, HoldingCostPercentage: 25},
		{OrderingCost: decimal.NewFromInt(40), HoldingCostPercentage: 0},
	} {
		got := Forecast(item, orders, nil, settings, refNow)
		assert.Zero(t, got.OptimalOrderQuantity)
	}
}

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func TestForecast_Idempotent(t *testing.T) {
	three := 3
	sup := domain.Supplier{ID: uuid.New(), LeadTimeDays: &three}
	item := domain.InventoryItem{ID: uuid.New(), PartNumber: "OIL-5W30", CostPrice: decimal.RequireFromString("7.35"), SupplierID: sup.ID}
	orders := ordersForUsage("OIL-5W30", []int{4, 9, 1, 0, 12, 8})
	settings := domain.Settings{OrderingCost: decimal.NewFromInt(20), HoldingCostPercentage: 18}

	first := Forecast(item, orders, []domain.Supplier{sup}, settings, refNow)
	second := Forecast(item, orders, []domain.Supplier{sup}, settings, refNow)

	if diff := cmp.Diff(first, second, decimalEqual); diff != "" {
		t.Fatalf("forecast not idempotent (-first +second):\n%s", diff)
	}
}

func TestForecast_DoesNotMutateInputs(t *testing.T) {
	orders := ordersForUsage("BRK-01", []int{1, 2, 3, 4, 5, 6})
	before := make([]domain.Order, len(orders))
	copy(before, orders)

	Forecast(domain.InventoryItem{PartNumber: "BRK-01"}, orders, nil, domain.Settings{}, refNow)

	if diff := cmp.Diff(before, orders, decimalEqual); diff != "" {
		t.Fatalf("orders mutated:\n%s", diff)
	}
}
