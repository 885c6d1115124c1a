package catalog

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrInvalidCriteria indicates criteria that cannot be applied.
	ErrInvalidCriteria = errors.New("invalid criteria")
)
