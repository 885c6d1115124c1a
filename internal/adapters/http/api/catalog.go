package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/wudao/internal/domain/catalog"
)

// handleCoaches handles GET /catalog/coaches.
func (s *Server) handleCoaches(w http.ResponseWriter, r *http.Request) {
	q, err := s.catalogQuery(r.URL.Query())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	items, err := s.deps.Coaches(q.criteria())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, catalogResponse[catalog.Coach]{Items: items, Total: len(items), Tags: s.deps.CoachTags()})
}

// handleCourses handles GET /catalog/courses.
func (s *Server) handleCourses(w http.ResponseWriter, r *http.Request) {
	q, err := s.catalogQuery(r.URL.Query())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	items, err := s.deps.Courses(q.criteria())
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, catalogResponse[catalog.Course]{Items: items, Total: len(items), Tags: s.deps.CourseTags()})
}

// catalogQuery reads q, tags, min_rating, price_min, price_max, sort and
// level. Tags may repeat or be comma separated.
func (s *Server) catalogQuery(v url.Values) (catalogQuery, error) {
	q := catalogQuery{
		SearchTerm: v.Get("q"),
		Sort:       v.Get("sort"),
		Level:      v.Get("level"),
	}
	for _, raw := range v["tags"] {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				q.Tags = append(q.Tags, t)
			}
		}
	}

	var err error
	if raw := v.Get("min_rating"); raw != "" {
		if q.MinRating, err = parseFloat("min_rating", raw); err != nil {
			return q, err
		}
	}
	if raw := v.Get("price_min"); raw != "" {
		f, err := parseFloat("price_min", raw)
		if err != nil {
			return q, err
		}
		q.PriceMin = &f
	}
	if raw := v.Get("price_max"); raw != "" {
		f, err := parseFloat("price_max", raw)
		if err != nil {
			return q, err
		}
		q.PriceMax = &f
	}

	if err := s.validate.Struct(q); err != nil {
		return q, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return q, nil
}

func parseFloat(name, raw string) (float64, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", ErrBadRequest, name, raw)
	}
	return f, nil
}
