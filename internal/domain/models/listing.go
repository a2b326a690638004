package models

// Confidence qualifies how much cross-store evidence backs a listing's
// market comparison.
type Confidence string

const (
	// ConfidenceHigh means the listing has at least one competitor offer
	// for the same product in another store.
	ConfidenceHigh Confidence = "high"
	// ConfidenceSampled means the listing is the only known offer; the
	// market reference is unavailable and gap_market is 0.
	ConfidenceSampled Confidence = "sampled"
)

// RawListing is one catalog row after column-name resolution. It is built
// per aggregation pass and never mutated afterwards.
type RawListing struct {
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Price       float64 `json:"price"`
	ListPrice   float64 `json:"list_price"`
	DiscountPct float64 `json:"discount_pct"`
	Category    string  `json:"category"`
	Image       string  `json:"img"`
	URL         string  `json:"url"`
	InStock     bool    `json:"stock"`
	Store       string  `json:"store"`
}

// CompetitorOffer is another store's offer for the same product.
type CompetitorOffer struct {
	Store string  `json:"store"`
	Price float64 `json:"price"`
	URL   string  `json:"url"`
}

// EnrichedListing is a RawListing augmented with its peer-group market view.
// MarketMin is nil when no other store lists the product; GapMarket is then 0.
type EnrichedListing struct {
	RawListing
	Competitors []CompetitorOffer `json:"competitors"`
	MarketMin   *float64          `json:"market_min"`
	GapMarket   float64           `json:"gap_market"`
	Confidence  Confidence        `json:"confidence"`
}

// Opportunity is an EnrichedListing that passed the radar predicate,
// carrying its rank score.
type Opportunity struct {
	EnrichedListing
	Score float64 `json:"score"`
}

// StoreStatus is a per-store diagnostic snapshot.
type StoreStatus struct {
	Store       string  `json:"store"`
	Reachable   bool    `json:"reachable"`
	Listings    int     `json:"listings"`
	MaxDiscount float64 `json:"max_discount_pct"`
}
