package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/andresuchdata/partsight/internal/cache"
	"github.com/andresuchdata/partsight/internal/domain"
	"github.com/andresuchdata/partsight/internal/forecast"
	"github.com/andresuchdata/partsight/internal/metrics"
	"github.com/andresuchdata/partsight/internal/repository"
	stockhealth "github.com/andresuchdata/partsight/internal/stock_health"
	"github.com/andresuchdata/partsight/internal/supplier"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 8

// ForecastService runs the forecasting, health and supplier calculators
// over one snapshot per call.
type ForecastService struct {
	repo    repository.SnapshotRepository
	cache   cache.SnapshotCache
	workers int
}

func NewForecastService(repo repository.SnapshotRepository, cacheImpl cache.SnapshotCache, workers int) *ForecastService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopSnapshotCache()
	}
	if workers < 1 {
		workers = defaultWorkers
	}
	return &ForecastService{repo: repo, cache: cacheImpl, workers: workers}
}

// Snapshot returns the validated snapshot as of now, read through the cache.
func (s *ForecastService) Snapshot(ctx context.Context, now time.Time) (*domain.Snapshot, error) {
	source := s.repo.Source()

	if snapshot, ok, err := s.cache.GetSnapshot(ctx, source, now); err == nil && ok {
		metrics.SnapshotLoads.WithLabelValues(source, "hit").Inc()
		return snapshot, nil
	} else if err != nil {
		log.Warn().Err(err).Str("source", source).Msg("forecast: cache get snapshot failed")
	}

	start := time.Now()
	snapshot, err := s.repo.LoadSnapshot(ctx, now)
	metrics.SnapshotLoadDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SnapshotLoads.WithLabelValues(source, "error").Inc()
		return nil, fmt.Errorf("load snapshot from %s: %w", source, err)
	}
	metrics.SnapshotLoads.WithLabelValues(source, "miss").Inc()

	if err := domain.ValidateSnapshot(snapshot); err != nil {
		return nil, err
	}

	if err := s.cache.SetSnapshot(ctx, source, now, snapshot); err != nil {
		log.Warn().Err(err).Str("source", source).Msg("forecast: cache set snapshot failed")
	}

	return snapshot, nil
}

// Forecasts returns one forecast per inventory item, ordered by part number.
func (s *ForecastService) Forecasts(ctx context.Context, now time.Time) ([]domain.ForecastResult, error) {
	snapshot, err := s.Snapshot(ctx, now)
	if err != nil {
		return nil, err
	}
	defer metrics.ObserveCompute("forecasts", time.Now())

	results := make([]domain.ForecastResult, len(snapshot.Items))
	err = s.fanOut(ctx, len(snapshot.Items), func(i int) {
		results[i] = forecast.Forecast(snapshot.Items[i], snapshot.Orders, snapshot.Suppliers, snapshot.Settings, now)
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Item.PartNumber < results[j].Item.PartNumber
	})
	return results, nil
}

// Forecast returns the forecast of a single part.
func (s *ForecastService) Forecast(ctx context.Context, partNumber string, now time.Time) (*domain.ForecastResult, error) {
	snapshot, err := s.Snapshot(ctx, now)
	if err != nil {
		return nil, err
	}

	item, ok := snapshot.ItemByPartNumber(partNumber)
	if !ok {
		return nil, fmt.Errorf("item %s: %w", partNumber, domain.ErrNotFound)
	}

	result := forecast.Forecast(item, snapshot.Orders, snapshot.Suppliers, snapshot.Settings, now)
	return &result, nil
}

// Health returns the current health of every item, ordered by part number.
func (s *ForecastService) Health(ctx context.Context, now time.Time) ([]domain.InventoryHealth, error) {
	snapshot, err := s.Snapshot(ctx, now)
	if err != nil {
		return nil, err
	}
	defer metrics.ObserveCompute("health", time.Now())

	results := make([]domain.InventoryHealth, len(snapshot.Items))
	err = s.fanOut(ctx, len(snapshot.Items), func(i int) {
		results[i] = stockhealth.Health(snapshot.Items[i], snapshot.Orders, now)
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Item.PartNumber < results[j].Item.PartNumber
	})

	alerts := 0
	for _, h := range results {
		if h.ShouldReorder {
			alerts++
		}
	}
	metrics.ReorderAlerts.Set(float64(alerts))

	return results, nil
}

// ReorderAlerts returns the items at or below their minimum, most urgent
// first: lowest stock relative to the minimum, then highest daily usage.
func (s *ForecastService) ReorderAlerts(ctx context.Context, now time.Time) ([]domain.InventoryHealth, error) {
	health, err := s.Health(ctx, now)
	if err != nil {
		return nil, err
	}

	alerts := make([]domain.InventoryHealth, 0)
	for _, h := range health {
		if h.ShouldReorder {
			alerts = append(alerts, h)
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		ri, rj := stockRatio(alerts[i].Item), stockRatio(alerts[j].Item)
		if ri != rj {
			return ri < rj
		}
		if alerts[i].DailyUsage != alerts[j].DailyUsage {
			return alerts[i].DailyUsage > alerts[j].DailyUsage
		}
		return alerts[i].Item.PartNumber < alerts[j].Item.PartNumber
	})
	return alerts, nil
}

// SupplierScorecards scores every supplier, best first and by name on ties.
func (s *ForecastService) SupplierScorecards(ctx context.Context, now time.Time) ([]domain.SupplierScorecard, error) {
	snapshot, err := s.Snapshot(ctx, now)
	if err != nil {
		return nil, err
	}
	defer metrics.ObserveCompute("supplier_scorecards", time.Now())

	cards := make([]domain.SupplierScorecard, len(snapshot.Suppliers))
	err = s.fanOut(ctx, len(snapshot.Suppliers), func(i int) {
		cards[i] = supplier.Score(snapshot.Suppliers[i], snapshot.Orders, snapshot.Items, now)
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].Score != cards[j].Score {
			return cards[i].Score > cards[j].Score
		}
		return cards[i].Supplier.Name < cards[j].Supplier.Name
	})
	return cards, nil
}

// SupplierScorecard scores a single supplier.
func (s *ForecastService) SupplierScorecard(ctx context.Context, id uuid.UUID, now time.Time) (*domain.SupplierScorecard, error) {
	snapshot, err := s.Snapshot(ctx, now)
	if err != nil {
		return nil, err
	}

	sup, ok := snapshot.SupplierByID(id)
	if !ok {
		return nil, fmt.Errorf("supplier %s: %w", id, domain.ErrNotFound)
	}

	card := supplier.Score(sup, snapshot.Orders, snapshot.Items, now)
	return &card, nil
}

// Refresh drops every cached snapshot and returns how many were removed.
func (s *ForecastService) Refresh(ctx context.Context) (int, error) {
	n, err := s.cache.InvalidateAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("invalidate snapshot cache: %w", err)
	}
	log.Info().Int("removed", n).Msg("forecast: snapshot cache cleared")
	return n, nil
}

// fanOut runs fn for every index with at most s.workers running at once.
// The calculators are pure, so fn only writes its own slot.
func (s *ForecastService) fanOut(ctx context.Context, n int, fn func(i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	return g.Wait()
}

func stockRatio(item domain.InventoryItem) float64 {
	if item.MinQuantity <= 0 {
		return 0
	}
	return float64(item.Quantity) / float64(item.MinQuantity)
}
