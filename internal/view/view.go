// Package view shapes a generated catalog for display: column order,
// filtering and search.
package view

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"variantgen/pkg/records"
)

// DefaultPreferredColumns is the bicycle catalogue's display order.
var DefaultPreferredColumns = []string{
	"ID",
	"Manufacturer",
	"Type",
	"Frame type",
	"Frame material",
	"Brake type",
	"Brake warranty",
	"Operating temperature",
	"Wheel diameter",
	"Recommended height",
	"Frame height",
	"Groupset manufacturer",
	"Groupset name",
	"Gears",
	"Has suspension",
	"Suspension travel",
	"Frame color",
	"Logo",
}

// Columns returns the display order for recs: preferred columns that occur
// in at least one record, in preferred order, then every other attribute in
// the order it is first encountered. A nil preferred selects
// DefaultPreferredColumns.
func Columns(recs []records.Record, preferred []string) []string {
	if preferred == nil {
		preferred = DefaultPreferredColumns
	}

	present := map[string]bool{}
	var seen []string
	for _, r := range recs {
		for _, k := range r.Keys() {
			if !present[k] {
				present[k] = true
				seen = append(seen, k)
			}
		}
	}

	out := make([]string, 0, len(seen))
	placed := make(map[string]bool, len(seen))
	for _, c := range preferred {
		if present[c] && !placed[c] {
			out = append(out, c)
			placed[c] = true
		}
	}
	for _, c := range seen {
		if !placed[c] {
			out = append(out, c)
		}
	}
	return out
}

// Distinct returns the sorted set of values col takes across recs. Records
// without the attribute are skipped.
func Distinct(recs []records.Record, col string) []string {
	set := map[string]struct{}{}
	for _, r := range recs {
		if v, ok := r.Get(col); ok {
			set[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Filter keeps the records whose col equals val exactly.
func Filter(recs []records.Record, col, val string) []records.Record {
	out := make([]records.Record, 0, len(recs))
	for _, r := range recs {
		if v, ok := r.Get(col); ok && v == val {
			out = append(out, r)
		}
	}
	return out
}

// Search keeps the records where any attribute value contains query,
// ignoring case and diacritics ("cerveny" matches "Červený"). An empty
// query keeps everything.
func Search(recs []records.Record, query string) []records.Record {
	q := Fold(strings.TrimSpace(query))
	if q == "" {
		return recs
	}
	out := make([]records.Record, 0, len(recs))
	for _, r := range recs {
		for _, k := range r.Keys() {
			if strings.Contains(Fold(r.Value(k)), q) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Fold strips combining marks and case-folds s.
func Fold(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
		cases.Fold(),
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}
