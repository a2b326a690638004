package models

// Requests for the read-path HTTP endpoints. Defined in domain for
// consistency and reuse.

type RadarRequest struct {
	Limit       int     `query:"limit" json:"limit" default:"50" validate:"gte=0,lte=1000"`
	Offset      int     `query:"offset" json:"offset" validate:"gte=0"`
	Store       string  `query:"store" json:"store"`
	MinDiscount float64 `query:"min_discount" json:"min_discount" validate:"gte=0,lte=100"`
	Category    string  `query:"category" json:"category"`
	MaxPrice    float64 `query:"max_price" json:"max_price" validate:"gte=0"`
}

type MarketRequest struct {
	Limit    int    `query:"limit" json:"limit" default:"100" validate:"gte=0,lte=5000"`
	Offset   int    `query:"offset" json:"offset" validate:"gte=0"`
	Search   string `query:"search" json:"search"`
	Category string `query:"category" json:"category"`
}

// RadarResponse is the paginated opportunity payload.
type RadarResponse struct {
	Success bool          `json:"success"`
	Total   int           `json:"total"`
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
	Count   int           `json:"count"`
	Items   []Opportunity `json:"items"`
}

// MarketResponse is the paginated unified catalog payload.
type MarketResponse struct {
	Success    bool              `json:"success"`
	Total      int               `json:"total"`
	Limit      int               `json:"limit"`
	Offset     int               `json:"offset"`
	Count      int               `json:"count"`
	Categories []string          `json:"categories"`
	Items      []EnrichedListing `json:"items"`
}
