package supplier

import (
	"math"
	"time"

	"github.com/andresuchdata/partsight/internal/domain"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// Composite score weights. They sum to 1.
const (
	deliveryWeight = 0.35
	qualityWeight  = 0.35
	leadTimeWeight = 0.2
	responseWeight = 0.1
)

// Score builds the performance scorecard of s from its orders and the
// inventory items linked to it. now is accepted for symmetry with the other
// calculators; the scorecard covers the whole order history it is given.
func Score(s domain.Supplier, orders []domain.Order, inventory []domain.InventoryItem, now time.Time) domain.SupplierScorecard {
	card := domain.SupplierScorecard{
		Supplier:          s,
		AverageOrderValue: decimal.Zero,
	}

	for _, item := range inventory {
		if item.SupplierID == s.ID {
			card.ActiveItems++
		}
	}

	var (
		total         = decimal.Zero
		leadTimes     []float64
		responseTimes []float64
	)
	for _, order := range orders {
		if order.SupplierID != s.ID {
			continue
		}
		card.TotalOrders++
		total = total.Add(order.Total)
		responseTimes = append(responseTimes, nonNegative(order.UpdatedAt.Sub(order.CreatedAt).Hours()))

		if order.HasRejectedItem() {
			card.QualityIssues++
		}

		if order.Status != domain.OrderComplete || order.CompletedAt == nil {
			continue
		}
		leadTimes = append(leadTimes, nonNegative(order.CompletedAt.Sub(order.CreatedAt).Hours()/24))
		if order.ExpectedDate != nil && !order.CompletedAt.After(*order.ExpectedDate) {
			card.OnTimeDeliveries++
		}
	}

	if card.TotalOrders == 0 {
		card.Grade = Grade(0)
		return card
	}

	n := float64(card.TotalOrders)
	card.DeliveryRatePct = clampPct(float64(card.OnTimeDeliveries) / n * 100)
	card.QualityRatePct = clampPct(float64(card.TotalOrders-card.QualityIssues) / n * 100)
	card.AverageOrderValue = total.Div(decimal.NewFromInt(int64(card.TotalOrders)))
	card.AverageLeadTimeDays = mean(leadTimes)
	card.AverageResponseTimeHours = mean(responseTimes)

	leadTimeScore := math.Max(0, 100-card.AverageLeadTimeDays*2)
	responseScore := math.Max(0, 100-(card.AverageResponseTimeHours/24*10))

	score := card.DeliveryRatePct*deliveryWeight +
		card.QualityRatePct*qualityWeight +
		leadTimeScore*leadTimeWeight +
		responseScore*responseWeight
	card.Score = int(clampPct(math.Round(score)))
	card.Grade = Grade(card.Score)

	return card
}

// Grade buckets a score into A/B/C/D.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 75:
		return "B"
	case score >= 60:
		return "C"
	default:
		return "D"
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

func clampPct(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
