package catalog

import "errors"

var (
	// ErrStoreUnavailable means no catalog location for the store exists or
	// is readable. The store is skipped for the pass, never fatal.
	ErrStoreUnavailable = errors.New("store catalog unavailable")

	// ErrSchemaUnresolvable means a catalog exists but a required column
	// could not be matched to any accepted variant.
	ErrSchemaUnresolvable = errors.New("catalog schema unresolvable")
)
