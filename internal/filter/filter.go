// Package filter evaluates free-text search and categorical facets over
// dashboard collections.
package filter

import (
	"net/url"
	"strings"
)

// Record is anything the evaluator can search and facet.
type Record interface {
	// SearchFields returns the fields the text query is matched against.
	SearchFields() []string
	// FacetValue returns the record's value for a facet, or "" if it has none.
	FacetValue(facet string) string
}

// Query is a case-insensitive substring search plus facet restrictions.
// An empty facet value set means no restriction for that facet.
type Query struct {
	Text   string
	Facets map[string][]string
}

// Result is the visible subset of a collection.
type Result[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	// Active reports whether the query restricted anything at all.
	Active bool `json:"filtered"`
}

// With returns a copy of q with values added to facet.
func (q Query) With(facet string, values ...string) Query {
	out := Query{Text: q.Text, Facets: make(map[string][]string, len(q.Facets)+1)}
	for k, v := range q.Facets {
		out.Facets[k] = append([]string(nil), v...)
	}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out.Facets[facet] = append(out.Facets[facet], v)
		}
	}
	return out
}

// IsZero reports whether the query applies no restriction.
func (q Query) IsZero() bool {
	if strings.TrimSpace(q.Text) != "" {
		return false
	}
	for _, vals := range q.Facets {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// Match reports whether r passes the query.
func (q Query) Match(r Record) bool {
	if !matchText(strings.ToLower(strings.TrimSpace(q.Text)), r.SearchFields()) {
		return false
	}
	for facet, allowed := range q.Facets {
		if len(allowed) == 0 {
			continue
		}
		if !contains(allowed, r.FacetValue(facet)) {
			return false
		}
	}
	return true
}

// Apply returns the records of items matching q, in their original order.
// The returned slice is never nil.
func Apply[T Record](items []T, q Query) Result[T] {
	res := Result[T]{Items: make([]T, 0, len(items)), Total: len(items), Active: !q.IsZero()}
	if !res.Active {
		res.Items = append(res.Items, items...)
		return res
	}
	for _, it := range items {
		if q.Match(it) {
			res.Items = append(res.Items, it)
		}
	}
	return res
}

// FromValues builds a query from URL parameters: "q" is the text search and
// each facet may be repeated or comma-separated (e.g. status=active,pending).
func FromValues(v url.Values, facets ...string) Query {
	q := Query{Text: v.Get("q")}
	for _, f := range facets {
		for _, raw := range v[f] {
			q = q.With(f, strings.Split(raw, ",")...)
		}
	}
	return q
}

func matchText(needle string, fields []string) bool {
	if needle == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

func contains(allowed []string, v string) bool {
	for _, a := range allowed {
		if strings.EqualFold(a, v) {
			return true
		}
	}
	return false
}
