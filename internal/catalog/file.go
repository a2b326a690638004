package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"PriceRadar/internal/domain/models"
	"PriceRadar/internal/domain/repository"
	"PriceRadar/pkg/logger"
)

// FileSource reads a store's catalog from a CSV export on disk. Candidate
// locations are probed in priority order; the first readable file above the
// minimum byte size wins. A file under the threshold is treated as a
// placeholder left by a failed export.
type FileSource struct {
	store     string
	locations []string
	minBytes  int64
	log       *logger.Logger
}

var _ repository.CatalogSource = (*FileSource)(nil)

// NewFileSource creates a file-backed catalog source.
func NewFileSource(store string, locations []string, minBytes int64, log *logger.Logger) *FileSource {
	return &FileSource{
		store:     store,
		locations: locations,
		minBytes:  minBytes,
		log:       log,
	}
}

// Store returns the display name of the backing store.
func (s *FileSource) Store() string {
	return s.store
}

// Fetch reads the catalog, resolves its schema and returns the rows matching
// the optional filter. Returns ErrStoreUnavailable or ErrSchemaUnresolvable
// when the store cannot serve this pass.
func (s *FileSource) Fetch(ctx context.Context, f repository.ListingFilter) ([]*models.RawListing, error) {
	path, err := s.locate()
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStoreUnavailable, path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header of %s: %v", ErrStoreUnavailable, path, err)
	}

	desc, err := ResolveSchema(header)
	if err != nil {
		return nil, err
	}

	var listings []*models.RawListing
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := reader.Read()
		if err != nil {
			break
		}

		l, ok := listingFromRecord(desc, record, s.store)
		if !ok {
			continue
		}
		if !matchesFilter(l, f.Search, f.Category) {
			continue
		}
		listings = append(listings, l)
	}

	s.log.Debug("catalog read",
		logger.String("store", s.store),
		logger.String("path", path),
		logger.Int("listings", len(listings)))

	return listings, nil
}

func (s *FileSource) locate() (string, error) {
	for _, loc := range s.locations {
		info, err := os.Stat(loc)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Size() < s.minBytes {
			s.log.Warn("catalog below size threshold, skipping",
				logger.String("store", s.store),
				logger.String("path", loc),
				logger.Int("bytes", int(info.Size())))
			continue
		}
		return loc, nil
	}
	return "", fmt.Errorf("%w: no usable location for %s", ErrStoreUnavailable, s.store)
}
