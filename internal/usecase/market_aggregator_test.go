package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"PriceRadar/internal/domain/models"
	"PriceRadar/internal/domain/repository"
	"PriceRadar/internal/matching"
	"PriceRadar/pkg/cache"
	"PriceRadar/pkg/logger"
)

type noopMetrics struct{}

func (noopMetrics) RecordScan(string, int, float64) {}
func (noopMetrics) RecordStoreSkip(string, string)  {}
func (noopMetrics) RecordDelivery(string)           {}
func (noopMetrics) RecordDrop(string)               {}
func (noopMetrics) SetObservers(int)                {}
func (noopMetrics) RecordError(string)              {}

// fakeSource serves a fixed listing set, optionally failing or hanging.
type fakeSource struct {
	store    string
	listings []*models.RawListing
	err      error
	block    bool
}

func (s *fakeSource) Store() string { return s.store }

func (s *fakeSource) Fetch(ctx context.Context, _ repository.ListingFilter) ([]*models.RawListing, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.listings, nil
}

func listing(store, name string, price, discount float64) *models.RawListing {
	return &models.RawListing{
		Name:        name,
		Brand:       "Samsung",
		Price:       price,
		DiscountPct: discount,
		Category:    "Celulares",
		Store:       store,
		InStock:     true,
	}
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func newAggregator(t *testing.T, sources []repository.CatalogSource, opts ...AggregatorOption) *MarketAggregator {
	t.Helper()
	return NewMarketAggregator(sources, matching.NewKeyGenerator(), noopMetrics{}, testLogger(t), opts...)
}

func findListing(t *testing.T, snap *Snapshot, store string) *models.EnrichedListing {
	t.Helper()
	for i := range snap.Listings {
		if snap.Listings[i].Store == store {
			return &snap.Listings[i]
		}
	}
	t.Fatalf("no listing for store %s", store)
	return nil
}

func TestAggregateCrossStorePeerGroup(t *testing.T) {
	sources := []repository.CatalogSource{
		&fakeSource{store: "Fravega", listings: []*models.RawListing{
			listing("Fravega", "Samsung Galaxy S23 256GB", 500000, 10),
		}},
		&fakeSource{store: "OnCity", listings: []*models.RawListing{
			listing("OnCity", "S23 256GB Samsung Galaxy", 480000, 5),
		}},
		&fakeSource{store: "Megatone", listings: []*models.RawListing{
			listing("Megatone", "Galaxy Samsung S23 256GB", 600000, 0),
		}},
	}

	snap, err := newAggregator(t, sources).Aggregate(context.Background(), repository.ListingFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Listings) != 3 {
		t.Fatalf("expected 3 enriched listings, got %d", len(snap.Listings))
	}

	fravega := findListing(t, snap, "Fravega")
	if fravega.MarketMin == nil || *fravega.MarketMin != 480000 {
		t.Fatalf("expected market_min 480000, got %v", fravega.MarketMin)
	}
	if math.Abs(fravega.GapMarket-(-4.17)) > 0.01 {
		t.Fatalf("expected gap_market -4.17, got %v", fravega.GapMarket)
	}
	if fravega.Confidence != models.ConfidenceHigh {
		t.Fatalf("expected high confidence, got %v", fravega.Confidence)
	}
	if len(fravega.Competitors) != 2 {
		t.Fatalf("expected 2 competitors, got %d", len(fravega.Competitors))
	}
}

func TestAggregateNoPeers(t *testing.T) {
	sources := []repository.CatalogSource{
		&fakeSource{store: "Newsan", listings: []*models.RawListing{
			listing("Newsan", "Lavarropas Drean Next 8kg", 450000, 40),
		}},
	}

	snap, err := newAggregator(t, sources).Aggregate(context.Background(), repository.ListingFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	l := snap.Listings[0]
	if l.MarketMin != nil {
		t.Fatalf("expected nil market_min, got %v", *l.MarketMin)
	}
	if l.GapMarket != 0 {
		t.Fatalf("expected gap 0 without peers, got %v", l.GapMarket)
	}
	if l.Confidence != models.ConfidenceSampled {
		t.Fatalf("expected sampled confidence, got %v", l.Confidence)
	}
}

func TestAggregatePartialResults(t *testing.T) {
	sources := []repository.CatalogSource{
		&fakeSource{store: "Fravega", listings: []*models.RawListing{
			listing("Fravega", "Samsung QLED 65", 900000, 15),
		}},
		&fakeSource{store: "Cetrogar", err: errors.New("catalog unavailable")},
	}

	snap, err := newAggregator(t, sources).Aggregate(context.Background(), repository.ListingFilter{})
	if err != nil {
		t.Fatalf("expected partial results, got error: %v", err)
	}
	if len(snap.Listings) != 1 {
		t.Fatalf("expected 1 listing from the reachable store, got %d", len(snap.Listings))
	}

	var cetrogar *models.StoreStatus
	for i := range snap.Stores {
		if snap.Stores[i].Store == "Cetrogar" {
			cetrogar = &snap.Stores[i]
		}
	}
	if cetrogar == nil || cetrogar.Reachable {
		t.Fatalf("expected Cetrogar reported unreachable, got %+v", cetrogar)
	}
}

func TestAggregateSlowStoreSkipped(t *testing.T) {
	sources := []repository.CatalogSource{
		&fakeSource{store: "Fravega", listings: []*models.RawListing{
			listing("Fravega", "Notebook Lenovo G14 256GB", 700000, 20),
		}},
		&fakeSource{store: "OnCity", block: true},
	}

	agg := newAggregator(t, sources, WithStoreTimeout(30*time.Millisecond))

	start := time.Now()
	snap, err := agg.Aggregate(context.Background(), repository.ListingFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("slow store was not bounded by the per-store deadline")
	}
	if len(snap.Listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(snap.Listings))
	}
}

func TestAggregatePriceSanityBounds(t *testing.T) {
	sources := []repository.CatalogSource{
		&fakeSource{store: "Megatone", listings: []*models.RawListing{
			listing("Megatone", "Cable HDMI Generico 2m", 300, 50),
			listing("Megatone", "Samsung Galaxy S23 256GB", 500000, 10),
			listing("Megatone", "Error De Carga Precio", 99000000, 0),
		}},
	}

	snap, err := newAggregator(t, sources).Aggregate(context.Background(), repository.ListingFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Listings) != 1 {
		t.Fatalf("expected out-of-bounds prices excluded, got %d listings", len(snap.Listings))
	}
	if snap.Listings[0].Price != 500000 {
		t.Fatalf("wrong survivor: %+v", snap.Listings[0])
	}
}

func TestAggregateSnapshotCache(t *testing.T) {
	src := &fakeSource{store: "Fravega", listings: []*models.RawListing{
		listing("Fravega", "Samsung Galaxy S23 256GB", 500000, 10),
	}}
	mem := cache.NewMemoryCache()
	defer mem.Close()

	agg := newAggregator(t, []repository.CatalogSource{src},
		WithSnapshotCache(mem, time.Minute))

	ctx := context.Background()
	if _, err := agg.Aggregate(ctx, repository.ListingFilter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The second unfiltered pass must come from the snapshot, not the store.
	src.err = errors.New("store went away")
	snap, err := agg.Aggregate(ctx, repository.ListingFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Listings) != 1 {
		t.Fatalf("expected cached snapshot, got %d listings", len(snap.Listings))
	}

	// A filtered pass bypasses the cache and sees the live failure.
	snap, err = agg.Aggregate(ctx, repository.ListingFilter{Search: "samsung"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Listings) != 0 {
		t.Fatalf("filtered pass should not be served from cache")
	}
}

func TestAggregateCategories(t *testing.T) {
	sources := []repository.CatalogSource{
		&fakeSource{store: "Fravega", listings: []*models.RawListing{
			{Name: "Samsung Galaxy S23 256GB", Price: 500000, Category: "Celulares", Store: "Fravega"},
			{Name: "Heladera Whirlpool 375L No Frost", Price: 890000, Category: "Heladeras", Store: "Fravega"},
		}},
	}

	snap, err := newAggregator(t, sources).Aggregate(context.Background(), repository.ListingFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Categories) != 2 || snap.Categories[0] != "Celulares" || snap.Categories[1] != "Heladeras" {
		t.Fatalf("expected sorted categories, got %v", snap.Categories)
	}
}
