package catalog

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"PriceRadar/internal/domain/models"
	"PriceRadar/internal/domain/repository"
	"PriceRadar/pkg/clickhouse"
	"PriceRadar/pkg/logger"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// ClickHouseSource reads a store's catalog from a warehouse table. The
// column set is taken from the result metadata, so the same variant
// resolution applies as for file exports.
type ClickHouseSource struct {
	store  string
	table  string
	client *clickhouse.Client
	log    *logger.Logger
}

var _ repository.CatalogSource = (*ClickHouseSource)(nil)

// NewClickHouseSource creates a warehouse-backed catalog source.
func NewClickHouseSource(store, table string, client *clickhouse.Client, log *logger.Logger) (*ClickHouseSource, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &ClickHouseSource{
		store:  store,
		table:  table,
		client: client,
		log:    log,
	}, nil
}

// Store returns the display name of the backing store.
func (s *ClickHouseSource) Store() string {
	return s.store
}

// Fetch reads the table and returns rows matching the optional filter.
// Connection or query failures map to ErrStoreUnavailable so the store is
// skipped for the pass instead of failing the aggregation.
func (s *ClickHouseSource) Fetch(ctx context.Context, f repository.ListingFilter) ([]*models.RawListing, error) {
	rows, err := s.client.DB().QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s", s.table))
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %v", ErrStoreUnavailable, s.table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: columns of %s: %v", ErrStoreUnavailable, s.table, err)
	}

	desc, err := ResolveSchema(columns)
	if err != nil {
		return nil, err
	}

	values := make([]any, len(columns))
	targets := make([]any, len(columns))
	for i := range values {
		targets[i] = &values[i]
	}

	var listings []*models.RawListing
	for rows.Next() {
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %v", ErrStoreUnavailable, s.table, err)
		}

		fields := make([]string, len(values))
		for i, v := range values {
			fields[i] = stringify(v)
		}

		l, ok := listingFromRecord(desc, fields, s.store)
		if !ok {
			continue
		}
		if !matchesFilter(l, f.Search, f.Category) {
			continue
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows of %s: %v", ErrStoreUnavailable, s.table, err)
	}

	s.log.Debug("warehouse catalog read",
		logger.String("store", s.store),
		logger.String("table", s.table),
		logger.Int("listings", len(listings)))

	return listings, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case bool:
		if t {
			return "1"
		}
		return "0"
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}
