package catalog

import (
	"strconv"
	"strings"

	"PriceRadar/internal/domain/models"
)

// listingFromRecord builds a RawListing from one positional row using the
// store's resolved descriptor. Returns false when the row has no usable name.
func listingFromRecord(desc *SchemaDescriptor, fields []string, store string) (*models.RawListing, bool) {
	at := func(i int) string {
		if i == unresolved || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	name := at(desc.Name)
	if name == "" {
		return nil, false
	}

	l := &models.RawListing{
		Name:        name,
		Brand:       at(desc.Brand),
		Price:       parseFloat(at(desc.Price)),
		ListPrice:   parseFloat(at(desc.List)),
		DiscountPct: parseFloat(at(desc.Discount)),
		Category:    at(desc.Category),
		Image:       at(desc.Image),
		URL:         at(desc.URL),
		InStock:     parseStock(at(desc.Stock)),
		Store:       store,
	}
	if l.Brand == "" {
		l.Brand = "GENERIC"
	}
	if l.Category == "" {
		l.Category = "General"
	}
	return l, true
}

// matchesFilter applies the optional server-side search and category filters.
func matchesFilter(l *models.RawListing, search, category string) bool {
	if search != "" && !strings.Contains(strings.ToLower(l.Name), strings.ToLower(search)) {
		return false
	}
	if category != "" && !strings.Contains(strings.ToLower(l.Category), strings.ToLower(category)) {
		return false
	}
	return true
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	// Some exports use comma decimals.
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseStock treats unknown stock as available, matching upstream exports
// where the column is frequently absent.
func parseStock(s string) bool {
	switch strings.ToLower(s) {
	case "", "1", "true", "yes", "in_stock":
		return true
	case "0", "false", "no", "out_of_stock":
		return false
	default:
		return true
	}
}
