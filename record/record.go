// Package record defines the row shape exchanged between sources, the native
// and vector backends and the indicator library.
package record

import (
	"math"
	"sort"

	"github.com/kbukum/flowc/util"
)

// Row is one record: column name to value. Missing or nil values are null.
type Row = map[string]any

// Clone returns a shallow copy of r.
func Clone(r Row) Row {
	out := make(Row, len(r)+2)
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Float reads a numeric column. It reports false for null or non-numeric values.
func Float(r Row, key string) (float64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	f, ok := util.ToFloat(v)
	if !ok || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Nullable converts NaN to nil so rows never carry NaN.
func Nullable(f float64) any {
	if math.IsNaN(f) {
		return nil
	}
	return f
}

// Column extracts key from every row as a float series, NaN marking nulls.
func Column(rows []Row, key string) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		if f, ok := Float(r, key); ok {
			out[i] = f
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// AsRow converts an element to a Row when it is one.
func AsRow(v any) (Row, bool) {
	switch r := v.(type) {
	case map[string]any:
		return r, true
	default:
		return nil, false
	}
}

// Keys returns the union of column names over rows in first-seen order.
// Names first seen in the same row are sorted.
func Keys(rows []Row) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, r := range rows {
		names := make([]string, 0, len(r))
		for k := range r {
			if !seen[k] {
				names = append(names, k)
			}
		}
		sort.Strings(names)
		for _, k := range names {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

// Stub returns the deterministic fallback dataset: fifteen rows with
// close 1..15, high close+0.1, low close-0.1 and volume 100.
func Stub() []Row {
	rows := make([]Row, 15)
	for i := range rows {
		c := float64(i + 1)
		rows[i] = Row{
			"close":  c,
			"high":   c + 0.1,
			"low":    c - 0.1,
			"volume": 100.0,
		}
	}
	return rows
}
