// Package filter translates the storefront query string to and from a
// structured filter state. The query string is the only place a filter
// lives; every mutation produces a new query string.
package filter

import (
	"net/url"
	"sort"
	"strings"
)

// Facet is one filterable dimension.
type Facet string

const (
	FacetCategory Facet = "category"
	FacetGender   Facet = "gender"
	FacetColor    Facet = "color"
)

// Facets lists every facet in a fixed order.
var Facets = []Facet{FacetCategory, FacetGender, FacetColor}

// SortOrder is the price sort direction; the empty value means unsorted.
type SortOrder string

const (
	SortNone SortOrder = ""
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Query-string keys.
const (
	keyOrder = "order"
	keyQuery = "q"
)

// ParseSortOrder maps anything other than asc/desc to SortNone.
func ParseSortOrder(raw string) SortOrder {
	switch SortOrder(strings.ToLower(strings.TrimSpace(raw))) {
	case SortAsc:
		return SortAsc
	case SortDesc:
		return SortDesc
	default:
		return SortNone
	}
}

// State is a decoded storefront filter. Facet slices behave as sets: they
// never hold duplicates and their order carries no meaning.
type State struct {
	Categories []string  `json:"category,omitempty"`
	Genders    []string  `json:"gender,omitempty"`
	Colors     []string  `json:"color,omitempty"`
	Sort       SortOrder `json:"order,omitempty"`
	Query      string    `json:"q,omitempty"`
}

// Values returns the set held by facet, or nil for an unknown facet.
func (s State) Values(f Facet) []string {
	switch f {
	case FacetCategory:
		return s.Categories
	case FacetGender:
		return s.Genders
	case FacetColor:
		return s.Colors
	}
	return nil
}

// Has reports whether value is selected in facet.
func (s State) Has(f Facet, value string) bool {
	for _, v := range s.Values(f) {
		if v == value {
			return true
		}
	}
	return false
}

// IsEmpty reports whether nothing is selected.
func (s State) IsEmpty() bool {
	return len(s.Categories) == 0 && len(s.Genders) == 0 && len(s.Colors) == 0 &&
		s.Sort == SortNone && s.Query == ""
}

func (s State) with(f Facet, values []string) State {
	switch f {
	case FacetCategory:
		s.Categories = values
	case FacetGender:
		s.Genders = values
	case FacetColor:
		s.Colors = values
	}
	return s
}

// Decode parses a raw query string. Every occurrence of a repeated facet key
// is one set entry; absent keys decode to empty sets and an unset sort.
// Unknown keys and malformed pairs are ignored.
func Decode(rawQuery string) State {
	rawQuery = strings.TrimPrefix(rawQuery, "?")
	// ParseQuery keeps every well-formed pair even when it reports an error.
	values, _ := url.ParseQuery(rawQuery)
	return FromValues(values)
}

// FromValues builds a State from already parsed query values.
func FromValues(values url.Values) State {
	var s State
	for _, f := range Facets {
		s = s.with(f, dedupe(values[string(f)]))
	}
	s.Sort = ParseSortOrder(values.Get(keyOrder))
	s.Query = values.Get(keyQuery)
	return s
}

// Encode renders the state as a query string. Decode(Encode(s)) is
// set-equal to s.
func Encode(s State) string {
	return s.ToValues().Encode()
}

// ToValues renders the state as query values.
func (s State) ToValues() url.Values {
	values := url.Values{}
	for _, f := range Facets {
		for _, v := range dedupe(s.Values(f)) {
			values.Add(string(f), v)
		}
	}
	if s.Sort != SortNone {
		values.Set(keyOrder, string(s.Sort))
	}
	if s.Query != "" {
		values.Set(keyQuery, s.Query)
	}
	return values
}

// Toggle removes value from facet if present and adds it otherwise. All
// other facets, the sort and the search text pass through unchanged. An
// unknown facet leaves the state as is.
func Toggle(s State, f Facet, value string) State {
	current := s.Values(f)
	if current == nil && !isFacet(f) {
		return s
	}
	next := make([]string, 0, len(current)+1)
	found := false
	for _, v := range current {
		if v == value {
			found = true
			continue
		}
		next = append(next, v)
	}
	if !found {
		next = append(next, value)
	}
	if len(next) == 0 {
		next = nil
	}
	return s.with(f, next)
}

// WithSort replaces the sort order.
func WithSort(s State, order SortOrder) State {
	s.Sort = order
	return s
}

// Search replaces the whole state with a free-text query. A blank query
// clears everything.
func Search(q string) State {
	q = strings.TrimSpace(q)
	if q == "" {
		return ClearAll()
	}
	return State{Query: q}
}

// ClearAll returns the empty state, whose encoding is the empty string.
func ClearAll() State {
	return State{}
}

// Equal compares two states, treating facets as sets.
func Equal(a, b State) bool {
	if a.Sort != b.Sort || a.Query != b.Query {
		return false
	}
	for _, f := range Facets {
		if !sameSet(a.Values(f), b.Values(f)) {
			return false
		}
	}
	return true
}

func isFacet(f Facet) bool {
	for _, known := range Facets {
		if known == f {
			return true
		}
	}
	return false
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func sameSet(a, b []string) bool {
	a, b = dedupe(a), dedupe(b)
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
