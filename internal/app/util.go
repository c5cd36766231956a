package app

import "math"

// truthy reports whether a decoded JSON value is non-empty in the loose sense
// the bot's writers rely on: absent keys, null, zero numbers, empty strings,
// empty objects/arrays and false all count as "not supplied".
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case string:
		return x != ""
	case map[string]any:
		return len(x) > 0
	case []any:
		return len(x) > 0
	}
	return true
}

// toNum coerces a decoded JSON value to a number, treating null and
// non-numeric values as zero.
func toNum(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case int64:
		return float64(x)
	}
	return 0
}

// numOr0 extracts a numeric field from a decoded JSON map.
func numOr0(m map[string]any, key string) float64 {
	return toNum(m[key])
}

// strOr extracts a string field with a fallback.
func strOr(m map[string]any, key, fallback string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
