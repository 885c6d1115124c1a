package catalog

import (
	"fmt"
	"math"
)

// Rating bounds for catalog entities.
const (
	MinRating = 0.0
	MaxRating = 5.0
)

// SortKey selects the ordering applied after filtering.
type SortKey string

// Sort keys. SortNone keeps catalog order.
const (
	SortNone      SortKey = ""
	SortRating    SortKey = "rating"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortPopular   SortKey = "popular"
)

// ParseSortKey validates a sort key name.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case SortNone, SortRating, SortPriceAsc, SortPriceDesc, SortPopular:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown sort %q", ErrInvalidCriteria, s)
	}
}

// PriceRange is an inclusive [Min, Max] bound.
type PriceRange struct {
	Min float64
	Max float64
}

// Contains reports whether price lies within the range.
func (r PriceRange) Contains(price float64) bool {
	return price >= r.Min && price <= r.Max
}

// Criteria is the set of active filters and the sort. The zero value
// matches everything in catalog order.
type Criteria struct {
	SearchTerm   string
	SelectedTags []string
	// MinRating of 0 disables the rating filter.
	MinRating float64
	// Price of nil disables the price filter.
	Price *PriceRange
	Sort  SortKey
	// Level filters courses by exact level; empty disables it.
	Level string
}

// Validate rejects criteria that no entity could be checked against.
func (c Criteria) Validate() error {
	if math.IsNaN(c.MinRating) || c.MinRating < MinRating || c.MinRating > MaxRating {
		return fmt.Errorf("%w: min rating %v outside [%v,%v]", ErrInvalidCriteria, c.MinRating, MinRating, MaxRating)
	}
	if c.Price != nil {
		lo, hi := c.Price.Min, c.Price.Max
		if math.IsNaN(lo) || math.IsNaN(hi) || lo < 0 || lo > hi {
			return fmt.Errorf("%w: price range [%v,%v]", ErrInvalidCriteria, lo, hi)
		}
	}
	if _, err := ParseSortKey(string(c.Sort)); err != nil {
		return err
	}
	return nil
}
