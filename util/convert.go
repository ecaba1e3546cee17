package util

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToFloat converts numeric values and numeric strings to float64.
// nil, NaN-free non-numeric strings and other types report false.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// ToInt converts v to int, truncating floats. Non-numeric values report false.
func ToInt(v any) (int, bool) {
	if i, ok := v.(int); ok {
		return i, true
	}
	f, ok := ToFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// ToString renders v as a string; nil becomes "".
func ToString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

// ParseScalar converts a text cell to float64 when it parses as a number and
// keeps the original string otherwise.
func ParseScalar(s string) any {
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return f
	}
	return s
}
