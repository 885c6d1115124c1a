// Package catalog filters and sorts the static coach and course catalogs.
//
// One generic Engine serves both catalogs. Results are fresh slices; the
// source catalog is never reordered or modified.
package catalog

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/okian/wudao/pkg/metrics"
)

// Fields is what the engine reads from an entity.
type Fields struct {
	Name        string
	Description string
	Tags        []string
	Price       float64
	Rating      float64
	// Popularity is a descending sort proxy, e.g. enrolled students.
	Popularity int
	Level      string
}

// Option applies a configuration option to an Engine.
type Option func(*settings)

type settings struct {
	foldCase bool
}

// WithFoldCase makes search and tag matching case-insensitive.
func WithFoldCase(enabled bool) Option {
	return func(s *settings) { s.foldCase = enabled }
}

type indexed struct {
	fields Fields
	name   string
	desc   string
	tags   []string
}

// Engine applies Criteria to an immutable catalog of T.
type Engine[T any] struct {
	name    string
	items   []T
	index   []indexed
	folding bool
}

// NewEngine indexes items. fields must be a pure accessor.
func NewEngine[T any](name string, items []T, fields func(T) Fields, opts ...Option) *Engine[T] {
	var cfg settings
	for _, opt := range opts {
		opt(&cfg)
	}
	e := &Engine[T]{
		name:    name,
		items:   slices.Clone(items),
		index:   make([]indexed, len(items)),
		folding: cfg.foldCase,
	}
	for i, it := range e.items {
		f := fields(it)
		tags := make([]string, len(f.Tags))
		for j, t := range f.Tags {
			tags[j] = e.normalize(t)
		}
		e.index[i] = indexed{
			fields: f,
			name:   e.normalize(f.Name),
			desc:   e.normalize(f.Description),
			tags:   tags,
		}
	}
	return e
}

// Name returns the catalog name.
func (e *Engine[T]) Name() string { return e.name }

// All returns the catalog in source order.
func (e *Engine[T]) All() []T { return slices.Clone(e.items) }

// Len returns the catalog size.
func (e *Engine[T]) Len() int { return len(e.items) }

// Tags returns every distinct tag in first-seen order.
func (e *Engine[T]) Tags() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, ix := range e.index {
		for _, t := range ix.fields.Tags {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				out = append(out, t)
			}
		}
	}
	return out
}

// Apply filters by every active criterion, then stable-sorts by the chosen key.
// Entities tied on the key keep their catalog order.
func (e *Engine[T]) Apply(c Criteria) ([]T, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	term := e.normalize(c.SearchTerm)
	selected := make(map[string]struct{}, len(c.SelectedTags))
	for _, t := range c.SelectedTags {
		selected[e.normalize(t)] = struct{}{}
	}

	hits := make([]int, 0, len(e.items))
	for i := range e.index {
		if e.matches(&e.index[i], term, selected, c) {
			hits = append(hits, i)
		}
	}

	if cmpFn := e.comparator(c.Sort); cmpFn != nil {
		slices.SortStableFunc(hits, cmpFn)
	}

	out := make([]T, len(hits))
	for i, idx := range hits {
		out[i] = e.items[idx]
	}
	metrics.RecordCatalogQuery(e.name, string(c.Sort), len(out))
	return out, nil
}

func (e *Engine[T]) matches(ix *indexed, term string, selected map[string]struct{}, c Criteria) bool {
	if term != "" && !strings.Contains(ix.name, term) && !strings.Contains(ix.desc, term) &&
		!slices.ContainsFunc(ix.tags, func(t string) bool { return strings.Contains(t, term) }) {
		return false
	}
	if len(selected) > 0 && !slices.ContainsFunc(ix.tags, func(t string) bool {
		_, ok := selected[t]
		return ok
	}) {
		return false
	}
	if c.MinRating > 0 && ix.fields.Rating < c.MinRating {
		return false
	}
	if c.Price != nil && !c.Price.Contains(ix.fields.Price) {
		return false
	}
	if c.Level != "" && ix.fields.Level != c.Level {
		return false
	}
	return true
}

func (e *Engine[T]) comparator(key SortKey) func(a, b int) int {
	f := func(i int) *Fields { return &e.index[i].fields }
	switch key {
	case SortRating:
		return func(a, b int) int { return cmp.Compare(f(b).Rating, f(a).Rating) }
	case SortPriceAsc:
		return func(a, b int) int { return cmp.Compare(f(a).Price, f(b).Price) }
	case SortPriceDesc:
		return func(a, b int) int { return cmp.Compare(f(b).Price, f(a).Price) }
	case SortPopular:
		return func(a, b int) int { return cmp.Compare(f(b).Popularity, f(a).Popularity) }
	default:
		return nil
	}
}

func (e *Engine[T]) normalize(s string) string {
	s = norm.NFC.String(s)
	if e.folding {
		// Casers carry state and are not shared across goroutines.
		s = cases.Fold().String(s)
	}
	return s
}
