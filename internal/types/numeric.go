// Package types holds small conversion helpers for the loosely-typed values
// the upstream catalog API returns. Numeric attributes arrive as numbers,
// numeric strings, or strings with trailing units ("2 vCPU", "100GB"), and
// status flags arrive as booleans or numbers depending on the endpoint.
package types

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
	floatPrefix = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
)

// SafeInt coerces an arbitrary upstream value to an integer. Strings are
// parsed from their leading digits ("2 vCPU" -> 2); anything unparsable,
// including nil, yields 0. It never fails.
func SafeInt(v any) int {
	switch val := v.(type) {
	case nil:
		return 0
	case int:
		return val
	case int32:
		return int(val)
	case int64:
		return int(val)
	case float32:
		return int(math.Floor(float64(val)))
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0
		}
		return int(math.Floor(val))
	case json.Number:
		return SafeInt(string(val))
	case string:
		m := intPrefix.FindString(strings.TrimSpace(val))
		if m == "" {
			return 0
		}
		n, err := strconv.Atoi(m)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// SafeFloat coerces an arbitrary upstream value to a float. Strings are
// parsed from their leading numeric prefix ("2.5 GB" -> 2.5); anything
// unparsable, including nil, yields 0. It never fails.
func SafeFloat(v any) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case int:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case float32:
		return float64(val)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0
		}
		return val
	case json.Number:
		return SafeFloat(string(val))
	case string:
		m := floatPrefix.FindString(strings.TrimSpace(val))
		if m == "" {
			return 0
		}
		f, err := strconv.ParseFloat(m, 64)
		if err != nil || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Truthy reports whether an upstream status value counts as enabled.
// Booleans are taken as-is, numbers are true when non-zero, and strings are
// true when non-empty.
func Truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0 && !math.IsNaN(val)
	case json.Number:
		return SafeFloat(string(val)) != 0
	case string:
		return val != ""
	default:
		return true
	}
}

// IsFalse reports whether a value is an explicit boolean false. Some upstream
// collections treat a missing status as active, so filtering uses IsFalse
// rather than !Truthy for them.
func IsFalse(v any) bool {
	b, ok := v.(bool)
	return ok && !b
}
