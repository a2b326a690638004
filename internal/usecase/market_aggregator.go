package usecase

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"PriceRadar/internal/domain/models"
	"PriceRadar/internal/domain/repository"
	"PriceRadar/internal/matching"
	"PriceRadar/pkg/cache"
	"PriceRadar/pkg/logger"
)

const maxCompetitors = 3

// AggregatorOption configures MarketAggregator.
type AggregatorOption func(*MarketAggregator)

// WithPriceBounds sets the sanity window outside of which a row is treated
// as bad data rather than a listing.
func WithPriceBounds(min, max float64) AggregatorOption {
	return func(a *MarketAggregator) {
		a.minPrice = min
		a.maxPrice = max
	}
}

// WithStoreTimeout bounds each per-store read so one slow or locked catalog
// cannot stall the whole pass.
func WithStoreTimeout(d time.Duration) AggregatorOption {
	return func(a *MarketAggregator) {
		a.storeTimeout = d
	}
}

// WithSnapshotCache installs a short-TTL cache over whole aggregation passes.
func WithSnapshotCache(c cache.Service, ttl time.Duration) AggregatorOption {
	return func(a *MarketAggregator) {
		a.cache = c
		a.cacheTTL = ttl
	}
}

// MarketAggregator scans every store catalog, groups listings by identity
// key and enriches each with its cross-store market view. A pass is
// stateless; concurrent passes are independent.
type MarketAggregator struct {
	sources      []repository.CatalogSource
	keys         *matching.KeyGenerator
	metrics      repository.Metrics
	log          *logger.Logger
	minPrice     float64
	maxPrice     float64
	storeTimeout time.Duration
	cache        cache.Service
	cacheTTL     time.Duration
}

// Snapshot is the result of one aggregation pass.
type Snapshot struct {
	Listings   []models.EnrichedListing `json:"listings"`
	Categories []string                 `json:"categories"`
	Stores     []models.StoreStatus     `json:"stores"`
}

// NewMarketAggregator creates an aggregator over the given catalog sources.
func NewMarketAggregator(
	sources []repository.CatalogSource,
	keys *matching.KeyGenerator,
	metrics repository.Metrics,
	log *logger.Logger,
	opts ...AggregatorOption,
) *MarketAggregator {
	a := &MarketAggregator{
		sources:      sources,
		keys:         keys,
		metrics:      metrics,
		log:          log,
		minPrice:     500,
		maxPrice:     40_000_000,
		storeTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate runs one pass over all stores. Unreachable stores are skipped
// and reported in the snapshot's store statuses; partial results are always
// returned. Unfiltered passes are served from the snapshot cache when one is
// configured.
func (a *MarketAggregator) Aggregate(ctx context.Context, f repository.ListingFilter) (*Snapshot, error) {
	cacheable := a.cache != nil && f.Search == "" && f.Category == ""

	if cacheable {
		var snap Snapshot
		if err := a.cache.Get(ctx, snapshotCacheKey, &snap); err == nil {
			return &snap, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			a.log.Warn("snapshot cache read failed", logger.Error(err))
		}
	}

	snap, err := a.scan(ctx, f)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := a.cache.Set(ctx, snapshotCacheKey, snap, a.cacheTTL); err != nil {
			a.log.Warn("snapshot cache write failed", logger.Error(err))
		}
	}

	return snap, nil
}

var snapshotCacheKey = cache.GenerateKey("market", "snapshot")

type storeResult struct {
	status   models.StoreStatus
	listings []*models.RawListing
}

func (a *MarketAggregator) scan(ctx context.Context, f repository.ListingFilter) (*Snapshot, error) {
	results := make([]storeResult, len(a.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.sources {
		i, src := i, src
		g.Go(func() error {
			results[i] = a.scanStore(gctx, src, f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []*models.RawListing
	statuses := make([]models.StoreStatus, 0, len(results))
	categories := make(map[string]struct{})

	for _, res := range results {
		statuses = append(statuses, res.status)
		for _, l := range res.listings {
			all = append(all, l)
			categories[l.Category] = struct{}{}
		}
	}

	return &Snapshot{
		Listings:   a.enrich(all),
		Categories: sortedKeys(categories),
		Stores:     statuses,
	}, nil
}

// scanStore reads one store with a bounded deadline. Any failure is absorbed
// into an unreachable status; a single store never fails the pass.
func (a *MarketAggregator) scanStore(ctx context.Context, src repository.CatalogSource, f repository.ListingFilter) storeResult {
	store := src.Store()

	sctx, cancel := context.WithTimeout(ctx, a.storeTimeout)
	defer cancel()

	start := time.Now()
	rows, err := src.Fetch(sctx, f)
	if err != nil {
		a.log.Warn("store skipped for this pass",
			logger.String("store", store),
			logger.Error(err))
		a.metrics.RecordStoreSkip(store, skipReason(err))
		return storeResult{status: models.StoreStatus{Store: store}}
	}

	listings := make([]*models.RawListing, 0, len(rows))
	maxDiscount := 0.0
	for _, l := range rows {
		if l.Price <= a.minPrice || l.Price >= a.maxPrice {
			continue
		}
		listings = append(listings, l)
		if l.DiscountPct > maxDiscount {
			maxDiscount = l.DiscountPct
		}
	}

	a.metrics.RecordScan(store, len(listings), time.Since(start).Seconds())

	return storeResult{
		status: models.StoreStatus{
			Store:       store,
			Reachable:   true,
			Listings:    len(listings),
			MaxDiscount: maxDiscount,
		},
		listings: listings,
	}
}

// enrich builds the peer-group index and computes each listing's market
// view. The market reference is the minimum competitor price across other
// stores; a listing with no peers has a nil reference and zero gap.
func (a *MarketAggregator) enrich(all []*models.RawListing) []models.EnrichedListing {
	groups := make(map[string][]*models.RawListing, len(all))
	keys := make([]string, len(all))
	for i, l := range all {
		k := a.keys.Key(l.Name)
		keys[i] = k
		groups[k] = append(groups[k], l)
	}

	enriched := make([]models.EnrichedListing, 0, len(all))
	for i, l := range all {
		peers := groups[keys[i]]

		var competitors []models.CompetitorOffer
		var marketMin *float64
		for _, p := range peers {
			if p.Store == l.Store {
				continue
			}
			if len(competitors) < maxCompetitors {
				competitors = append(competitors, models.CompetitorOffer{
					Store: p.Store,
					Price: p.Price,
					URL:   p.URL,
				})
			}
			if p.Price > 0 && (marketMin == nil || p.Price < *marketMin) {
				price := p.Price
				marketMin = &price
			}
		}

		gap := 0.0
		if marketMin != nil {
			gap = roundTo2((*marketMin - l.Price) / *marketMin * 100)
		}

		confidence := models.ConfidenceSampled
		if len(peers) > 1 {
			confidence = models.ConfidenceHigh
		}

		enriched = append(enriched, models.EnrichedListing{
			RawListing:  *l,
			Competitors: competitors,
			MarketMin:   marketMin,
			GapMarket:   gap,
			Confidence:  confidence,
		})
	}

	return enriched
}

func skipReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "unavailable"
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
