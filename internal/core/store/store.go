// Package store holds the in-memory listings snapshot together with the
// view parameters (type filter and search text) a front-end works with.
//
// A Store is not safe for concurrent use. Setters never notify anybody:
// redrawing after a change is up to the caller.
package store

import (
	"strings"

	"github.com/niksmo/prime-house/internal/core/domain"
	"github.com/niksmo/prime-house/pkg/textnorm"
)

type Store struct {
	snapshot []domain.Property
	filter   domain.Filter
	search   string
}

func New() *Store {
	return &Store{
		snapshot: []domain.Property{},
		filter:   domain.FilterAll,
	}
}

// SetProperties replaces the snapshot as a whole. Entries are not validated.
func (s *Store) SetProperties(list []domain.Property) {
	s.snapshot = list
}

// Properties returns the snapshot itself, not a copy. Treat it as read-only.
func (s *Store) Properties() []domain.Property {
	return s.snapshot
}

// SetFilter accepts any value; unknown ones reset the filter to all.
func (s *Store) SetFilter(v any) {
	s.filter = domain.ParseFilter(v)
}

func (s *Store) Filter() domain.Filter {
	return s.filter
}

// SetSearch stores the text as given. Normalization happens at query time.
func (s *Store) SetSearch(text string) {
	s.search = text
}

func (s *Store) Search() string {
	return s.search
}

func (s *Store) FilteredProperties() []domain.Property {
	return Query(s.snapshot, s.filter, s.search)
}

// Query returns the properties of snapshot matching both the type filter and
// the search text, in their original order. The search matches title or
// location ignoring case and accents; an empty search matches everything.
func Query(
	snapshot []domain.Property, filter domain.Filter, search string,
) []domain.Property {
	needle := textnorm.Normalize(search)

	result := make([]domain.Property, 0, len(snapshot))
	for _, p := range snapshot {
		if !filter.Match(p.Type) {
			continue
		}
		if !matchesSearch(p, needle) {
			continue
		}
		result = append(result, p)
	}
	return result
}

func matchesSearch(p domain.Property, needle string) bool {
	return strings.Contains(textnorm.Normalize(p.Title), needle) ||
		strings.Contains(textnorm.Normalize(p.Location), needle)
}
