package domain

import "github.com/shopspring/decimal"

// UsageBucket is the summed quantity of a part within one 30-day window
type UsageBucket struct {
	PeriodIndex int `json:"period_index"` // 0 = most recent window
	Usage       int `json:"usage"`
}

// TrendDirection describes the sign of the usage trend
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendStable     TrendDirection = "stable"
)

// ForecastResult is the demand forecast and reorder recommendation for an item
type ForecastResult struct {
	Item                 InventoryItem  `json:"item"`
	MovingAverage        float64        `json:"moving_average"`
	Trend                float64        `json:"trend"`
	NextPeriodUsage      int            `json:"next_period_usage"`
	TrendDirection       TrendDirection `json:"trend_direction"`
	SafetyStock          int            `json:"safety_stock"`
	LeadTimeDays         int            `json:"lead_time_days"`
	ReorderPoint         int            `json:"reorder_point"`
	OptimalOrderQuantity int            `json:"optimal_order_quantity"`
	HistoricalUsage      []UsageBucket  `json:"historical_usage"`
}

// InventoryHealth is the current-health view of an item used for alerting
type InventoryHealth struct {
	Item         InventoryItem `json:"item"`
	DailyUsage   float64       `json:"daily_usage"`
	TurnoverRate float64       `json:"turnover_rate"`
	// DaysUntilReorder is 0 both for "reorder now" and "no usage"; callers
	// must check ShouldReorder for the authoritative flag.
	DaysUntilReorder float64 `json:"days_until_reorder"`
	ShouldReorder    bool    `json:"should_reorder"`
}

// SupplierScorecard is the performance summary of one supplier
type SupplierScorecard struct {
	Supplier                 Supplier        `json:"supplier"`
	DeliveryRatePct          float64         `json:"delivery_rate_pct"`
	QualityRatePct           float64         `json:"quality_rate_pct"`
	AverageOrderValue        decimal.Decimal `json:"average_order_value"`
	AverageLeadTimeDays      float64         `json:"average_lead_time_days"`
	AverageResponseTimeHours float64         `json:"average_response_time_hours"`
	TotalOrders              int             `json:"total_orders"`
	ActiveItems              int             `json:"active_items"`
	QualityIssues            int             `json:"quality_issues"`
	OnTimeDeliveries         int             `json:"on_time_deliveries"`
	Score                    int             `json:"score"`
	Grade                    string          `json:"grade"`
}
