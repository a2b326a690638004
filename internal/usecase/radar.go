package usecase

import (
	"context"
	"sort"
	"strings"

	"PriceRadar/internal/domain/models"
	"PriceRadar/internal/domain/repository"
)

// RadarOption configures Radar.
type RadarOption func(*Radar)

// WithThresholds sets the gap and discount qualification thresholds.
func WithThresholds(gap, discount float64) RadarOption {
	return func(r *Radar) {
		r.gapThreshold = gap
		r.discountThreshold = discount
	}
}

// WithGapWeight sets the score weight applied to gap over raw discount.
func WithGapWeight(w float64) RadarOption {
	return func(r *Radar) {
		r.gapWeight = w
	}
}

// Radar selects and ranks opportunities over the aggregator's enriched
// output. A listing qualifies when either its cross-store gap or its
// self-reported discount clears its threshold: requiring both would hide
// single-store markdowns with no matched peers.
type Radar struct {
	aggregator        *MarketAggregator
	gapThreshold      float64
	discountThreshold float64
	gapWeight         float64
}

// NewRadar creates a radar over the given aggregator.
func NewRadar(aggregator *MarketAggregator, opts ...RadarOption) *Radar {
	r := &Radar{
		aggregator:        aggregator,
		gapThreshold:      12,
		discountThreshold: 35,
		gapWeight:         1.5,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Opportunities runs an aggregation pass, applies the selection predicate
// and filters, ranks the survivors and returns the requested page. Total
// counts matches after filtering but before slicing.
func (r *Radar) Opportunities(ctx context.Context, req *models.RadarRequest) (*models.RadarResponse, error) {
	snap, err := r.aggregator.Aggregate(ctx, repository.ListingFilter{})
	if err != nil {
		return nil, err
	}

	var selected []models.Opportunity
	for i := range snap.Listings {
		l := &snap.Listings[i]
		if !r.qualifies(l) || !matchesRadarFilters(l, req) {
			continue
		}
		selected = append(selected, models.Opportunity{
			EnrichedListing: *l,
			Score:           r.score(l),
		})
	}

	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].Score != selected[j].Score {
			return selected[i].Score > selected[j].Score
		}
		return selected[i].DiscountPct > selected[j].DiscountPct
	})

	total := len(selected)
	page := paginate(selected, req.Offset, req.Limit)

	return &models.RadarResponse{
		Success: true,
		Total:   total,
		Limit:   req.Limit,
		Offset:  req.Offset,
		Count:   len(page),
		Items:   page,
	}, nil
}

// Market runs an aggregation pass with the optional search and category
// filters and returns the requested page of the unified catalog.
func (r *Radar) Market(ctx context.Context, req *models.MarketRequest) (*models.MarketResponse, error) {
	snap, err := r.aggregator.Aggregate(ctx, repository.ListingFilter{
		Search:   req.Search,
		Category: req.Category,
	})
	if err != nil {
		return nil, err
	}

	// Deepest self-reported markdowns first, matching the read-path default.
	listings := make([]models.EnrichedListing, len(snap.Listings))
	copy(listings, snap.Listings)
	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].DiscountPct > listings[j].DiscountPct
	})

	total := len(listings)
	page := paginate(listings, req.Offset, req.Limit)

	return &models.MarketResponse{
		Success:    true,
		Total:      total,
		Limit:      req.Limit,
		Offset:     req.Offset,
		Count:      len(page),
		Categories: snap.Categories,
		Items:      page,
	}, nil
}

// Stores reports per-store reachability from a fresh pass.
func (r *Radar) Stores(ctx context.Context) ([]models.StoreStatus, error) {
	snap, err := r.aggregator.Aggregate(ctx, repository.ListingFilter{})
	if err != nil {
		return nil, err
	}
	return snap.Stores, nil
}

func (r *Radar) qualifies(l *models.EnrichedListing) bool {
	return l.GapMarket > r.gapThreshold || l.DiscountPct > r.discountThreshold
}

func (r *Radar) score(l *models.EnrichedListing) float64 {
	return r.gapWeight*l.GapMarket + l.DiscountPct
}

func matchesRadarFilters(l *models.EnrichedListing, req *models.RadarRequest) bool {
	if req.Store != "" && !strings.EqualFold(l.Store, req.Store) {
		return false
	}
	if req.MinDiscount > 0 && l.DiscountPct < req.MinDiscount {
		return false
	}
	if req.Category != "" && !strings.Contains(strings.ToLower(l.Category), strings.ToLower(req.Category)) {
		return false
	}
	if req.MaxPrice > 0 && l.Price > req.MaxPrice {
		return false
	}
	return true
}

// paginate slices [offset, offset+limit) clamped to the sequence bounds, so
// the page size is always min(limit, total-offset).
func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
