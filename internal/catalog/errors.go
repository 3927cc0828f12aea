package catalog

import "errors"

// Sentinel errors for the catalog package.
var (
	// ErrNoMatch is returned when a search or lookup yields no entries.
	ErrNoMatch = errors.New("no catalog match found")

	// ErrFormatUnavailable is returned when the requested format selector
	// does not exist for the item. Callers use it to trigger format
	// recovery instead of plain fallback.
	ErrFormatUnavailable = errors.New("requested format is not available")
)
