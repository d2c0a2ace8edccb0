package service

import (
	"context"
	"errors"
	"sync"
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

type fakeRepo struct {
	mu       sync.Mutex
	snapshot *domain.Snapshot
	err      error
	loads    int
}

func (f *fakeRepo) LoadSnapshot(ctx context.Context, now time.Time) (*domain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return f.snapshot, f.err
}

func (f *fakeRepo) Source() string { return "fake" }

type memoryCache struct {
	entries map[string]*domain.Snapshot
	getErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]*domain.Snapshot{}}
}

func (m *memoryCache) key(source string, asOf time.Time) string {
	return source + "|" + asOf.UTC().Format("2006-01-02")
}

func (m *memoryCache) GetSnapshot(ctx context.Context, source string, asOf time.Time) (*domain.Snapshot, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	s, ok := m.entries[m.key(source, asOf)]
	return s, ok, nil
}

func (m *memoryCache) SetSnapshot(ctx context.Context, source string, asOf time.Time, snapshot *domain.Snapshot) error {
	m.entries[m.key(source, asOf)] = snapshot
	return nil
}

func (m *memoryCache) InvalidateAll(ctx context.Context) (int, error) {
	n := len(m.entries)
	m.entries = map[string]*domain.Snapshot{}
	return n, nil
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

// fixture: two suppliers, three items, a few orders in the last 30 days.
func fixture() (*domain.Snapshot, uuid.UUID, uuid.UUID) {
	fast := domain.Supplier{ID: uuid.New(), Name: "Fast Parts", LeadTimeDays: intPtr(3)}
	slow := domain.Supplier{ID: uuid.New(), Name: "Slow Parts"}
	created := refNow.Add(-10 * 24 * time.Hour)

	snapshot := &domain.Snapshot{
		Items: []domain.InventoryItem{
			{ID: uuid.New(), PartNumber: "OIL-5W30", Quantity: 2, MinQuantity: 10, CostPrice: decimal.NewFromInt(8), SupplierID: fast.ID},
			{ID: uuid.New(), PartNumber: "BRK-01", Quantity: 5, MinQuantity: 5, CostPrice: decimal.NewFromInt(20), SupplierID: fast.ID},
			{ID: uuid.New(), PartNumber: "FLT-09", Quantity: 40, MinQuantity: 5, CostPrice: decimal.NewFromInt(4), SupplierID: slow.ID},
			{ID: uuid.New(), PartNumber: "WPR-22", Quantity: 1, MinQuantity: 5, CostPrice: decimal.NewFromInt(6)},
		},
		Suppliers: []domain.Supplier{slow, fast},
		Orders: []domain.Order{
			{
				ID: uuid.New(), SupplierID: fast.ID, Status: domain.OrderComplete, Total: decimal.NewFromInt(300),
				CreatedAt: created, UpdatedAt: created.Add(2 * time.Hour),
				CompletedAt: timePtr(created.Add(2 * 24 * time.Hour)), ExpectedDate: timePtr(created.Add(3 * 24 * time.Hour)),
				Items: []domain.OrderLineItem{
					{PartNumber: "BRK-01", Quantity: 60, Status: domain.LineItemInstalled},
					{PartNumber: "OIL-5W30", Quantity: 30, Status: domain.LineItemInstalled},
				},
			},
			{
				ID: uuid.New(), SupplierID: slow.ID, Status: domain.OrderPending, Total: decimal.NewFromInt(50),
				CreatedAt: created, UpdatedAt: created.Add(72 * time.Hour),
				Items: []domain.OrderLineItem{{PartNumber: "FLT-09", Quantity: 15, Status: domain.LineItemRejected}},
			},
			{
				ID: uuid.New(), Status: domain.OrderPending, CreatedAt: created, UpdatedAt: created,
				Items: []domain.OrderLineItem{{PartNumber: "WPR-22", Quantity: 3, Status: domain.LineItemPending}},
			},
		},
		Settings: domain.Settings{OrderingCost: decimal.NewFromInt(25), HoldingCostPercentage: 20},
	}
	return snapshot, fast.ID, slow.ID
}

func TestForecastService_Forecasts(t *testing.T) {
	snapshot, _, _ := fixture()
	svc := NewForecastService(&fakeRepo{snapshot: snapshot}, nil, 2)

	results, err := svc.Forecasts(context.Background(), refNow)
	require.NoError(t, err)
	require.Len(t, results, 4)

	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Item.PartNumber
		assert.Len(t, r.HistoricalUsage, 6)
	}
	assert.Equal(t, []string{"BRK-01", "FLT-09", "OIL-5W30", "WPR-22"}, parts)

	brk := results[0]
	assert.Equal(t, 60, brk.HistoricalUsage[5].Usage)
	assert.Equal(t, 3, brk.LeadTimeDays)

	wpr := results[3]
	assert.Equal(t, domain.DefaultLeadTimeDays, wpr.LeadTimeDays)
}

func TestForecastService_ForecastsConcurrencyIndependent(t *testing.T) {
	snapshot, _, _ := fixture()

	serial, err := NewForecastService(&fakeRepo{snapshot: snapshot}, nil, 1).Forecasts(context.Background(), refNow)
	require.NoError(t, err)
	parallel, err := NewForecastService(&fakeRepo{snapshot: snapshot}, nil, 16).Forecasts(context.Background(), refNow)
	require.NoError(t, err)

	if diff := cmp.Diff(serial, parallel, cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })); diff != "" {
		t.Fatalf("results depend on worker count (-serial +parallel):\n%s", diff)
	}
}

func TestForecastService_Forecast(t *testing.T) {
	snapshot, _, _ := fixture()
	svc := NewForecastService(&fakeRepo{snapshot: snapshot}, nil, 4)

	result, err := svc.Forecast(context.Background(), "OIL-5W30", refNow)
	require.NoError(t, err)
	assert.Equal(t, "OIL-5W30", result.Item.PartNumber)

	_, err = svc.Forecast(context.Background(), "NOPE", refNow)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestForecastService_ReorderAlerts(t *testing.T) {
	snapshot, _, _ := fixture()
	svc := NewForecastService(&fakeRepo{snapshot: snapshot}, nil, 4)

	alerts, err := svc.ReorderAlerts(context.Background(), refNow)
	require.NoError(t, err)

	parts := make([]string, len(alerts))
	for i, a := range alerts {
		parts[i] = a.Item.PartNumber
		assert.True(t, a.ShouldReorder)
	}
	// ratios: OIL 0.2, WPR 0.2 (lower usage), BRK 1.0
	assert.Equal(t, []string{"OIL-5W30", "WPR-22", "BRK-01"}, parts)

	assert.InDelta(t, 2, alerts[2].DailyUsage, 1e-9)
	assert.InDelta(t, 2.5, alerts[2].TurnoverRate, 1e-9)
	assert.Zero(t, alerts[2].DaysUntilReorder)
}

func TestForecastService_SupplierScorecards(t *testing.T) {
	snapshot, fastID, slowID := fixture()
	svc := NewForecastService(&fakeRepo{snapshot: snapshot}, nil, 4)

	cards, err := svc.SupplierScorecards(context.Background(), refNow)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, fastID, cards[0].Supplier.ID)
	assert.Equal(t, slowID, cards[1].Supplier.ID)
	assert.Greater(t, cards[0].Score, cards[1].Score)
	assert.Equal(t, 2, cards[0].ActiveItems)

	card, err := svc.SupplierScorecard(context.Background(), slowID, refNow)
	require.NoError(t, err)
	assert.Equal(t, 1, card.QualityIssues)

	_, err = svc.SupplierScorecard(context.Background(), uuid.New(), refNow)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestForecastService_ReadThroughCache(t *testing.T) {
	snapshot, _, _ := fixture()
	repo := &fakeRepo{snapshot: snapshot}
	memory := newMemoryCache()
	svc := NewForecastService(repo, memory, 4)
	ctx := context.Background()

	_, err := svc.Forecasts(ctx, refNow)
	require.NoError(t, err)
	_, err = svc.Health(ctx, refNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, repo.loads)

	_, err = svc.Health(ctx, refNow.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, repo.loads)

	n, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = svc.Forecasts(ctx, refNow)
	require.NoError(t, err)
	assert.Equal(t, 3, repo.loads)
}

func TestForecastService_CacheErrorFallsBackToRepository(t *testing.T) {
	snapshot, _, _ := fixture()
	repo := &fakeRepo{snapshot: snapshot}
	memory := newMemoryCache()
	memory.getErr = errors.New("redis down")

	_, err := NewForecastService(repo, memory, 4).Health(context.Background(), refNow)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.loads)
}

func TestForecastService_Errors(t *testing.T) {
	loadErr := errors.New("connection refused")
	_, err := NewForecastService(&fakeRepo{err: loadErr}, nil, 4).Forecasts(context.Background(), refNow)
	assert.ErrorIs(t, err, loadErr)

	invalid := &domain.Snapshot{Items: []domain.InventoryItem{{PartNumber: "X", Quantity: -1}}}
	memory := newMemoryCache()
	_, err = NewForecastService(&fakeRepo{snapshot: invalid}, memory, 4).Health(context.Background(), refNow)
	assert.ErrorIs(t, err, domain.ErrInvalidSnapshot)
	assert.Empty(t, memory.entries)
}

func TestForecastService_CancelledContext(t *testing.T) {
	snapshot, _, _ := fixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewForecastService(&fakeRepo{snapshot: snapshot}, nil, 1).Forecasts(ctx, refNow)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestForecastService_EmptySnapshot(t *testing.T) {
	svc := NewForecastService(&fakeRepo{snapshot: &domain.Snapshot{}}, nil, 0)

	forecasts, err := svc.Forecasts(context.Background(), refNow)
	require.NoError(t, err)
	assert.Empty(t, forecasts)

	alerts, err := svc.ReorderAlerts(context.Background(), refNow)
	require.NoError(t, err)
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
}
