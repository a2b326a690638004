package repository

import (
	"context"

	"PriceRadar/internal/domain/models"
)

// ListingFilter narrows a catalog read server-side.
type ListingFilter struct {
	Search   string
	Category string
}

// CatalogSource is one store's read-only catalog. Catalog exports can change
// shape between passes, so implementations resolve their schema per read.
type CatalogSource interface {
	// Store returns the display name used on listings.
	Store() string
	// Fetch reads all rows matching the filter, normalized into RawListings.
	// A store whose catalog cannot be located or whose schema cannot be
	// resolved returns an error; the caller treats that as "skip this
	// store", never as a fatal failure.
	Fetch(ctx context.Context, f ListingFilter) ([]*models.RawListing, error)
}

// Metrics abstracts operational instrumentation.
type Metrics interface {
	RecordScan(store string, listings int, seconds float64)
	RecordStoreSkip(store, reason string)
	RecordDelivery(event string)
	RecordDrop(event string)
	SetObservers(n int)
	RecordError(kind string)
}
