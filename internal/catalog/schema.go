package catalog

import (
	"fmt"
	"strings"
)

// Column-name variants observed across store exports. Each logical field is
// resolved independently by testing candidates in priority order.
var (
	nameCandidates     = []string{"name", "title", "product_name"}
	brandCandidates    = []string{"brand", "brand_name"}
	priceCandidates    = []string{"last_price", "current_price", "price"}
	listCandidates     = []string{"list_price", "original_price"}
	discountCandidates = []string{"discount_pct", "discount"}
	categoryCandidates = []string{"category", "cat"}
	imageCandidates    = []string{"image_url", "image", "img"}
	urlCandidates      = []string{"url", "slug", "link"}
	stockCandidates    = []string{"stock", "in_stock", "available"}
)

// unresolved marks an optional field with no matching column.
const unresolved = -1

// SchemaDescriptor maps logical listing fields to column positions in one
// store's catalog. Computed once per store per pass, never probed at row
// read time.
type SchemaDescriptor struct {
	Name     int
	Brand    int
	Price    int
	List     int
	Discount int
	Category int
	Image    int
	URL      int
	Stock    int
}

// ResolveSchema builds a descriptor from a catalog's column set. Name and
// price are required; every other field degrades to unresolved.
func ResolveSchema(columns []string) (*SchemaDescriptor, error) {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}

	pick := func(candidates []string) int {
		for _, c := range candidates {
			if i, ok := index[c]; ok {
				return i
			}
		}
		return unresolved
	}

	desc := &SchemaDescriptor{
		Name:     pick(nameCandidates),
		Brand:    pick(brandCandidates),
		Price:    pick(priceCandidates),
		List:     pick(listCandidates),
		Discount: pick(discountCandidates),
		Category: pick(categoryCandidates),
		Image:    pick(imageCandidates),
		URL:      pick(urlCandidates),
		Stock:    pick(stockCandidates),
	}

	if desc.Name == unresolved {
		return nil, fmt.Errorf("%w: no name column among %v", ErrSchemaUnresolvable, columns)
	}
	if desc.Price == unresolved {
		return nil, fmt.Errorf("%w: no price column among %v", ErrSchemaUnresolvable, columns)
	}

	return desc, nil
}
