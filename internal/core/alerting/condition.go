package alerting

import (
	"strings"
)

// ExtractMetricValue walks a dotted path through a snapshot and returns
// the numeric value at the leaf. The second return value is false when
// any path segment is missing or the leaf is not numeric; callers treat
// that as "metric unavailable" and skip the rule for the tick.
func ExtractMetricValue(snapshot Snapshot, path string) (float64, bool) {
	if snapshot == nil || path == "" {
		return 0, false
	}

	segments := strings.Split(path, ".")
	var current interface{} = map[string]interface{}(snapshot)

	for _, segment := range segments {
		node, ok := current.(map[string]interface{})
		if !ok {
			if typed, isSnapshot := current.(Snapshot); isSnapshot {
				node = typed
			} else {
				return 0, false
			}
		}
		next, exists := node[segment]
		if !exists {
			return 0, false
		}
		current = next
	}

	return toFloat(current)
}

// toFloat coerces the numeric types a snapshot leaf may carry. JSON
// decoding produces float64 but providers can hand over native ints.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Evaluate applies the condition's operator to an observed value
func (c Condition) Evaluate(value float64) bool {
	switch c.Operator {
	case OpGreaterThan:
		return value > c.Threshold
	case OpLessThan:
		return value < c.Threshold
	case OpGreaterOrEqual:
		return value >= c.Threshold
	case OpLessOrEqual:
		return value <= c.Threshold
	case OpEqual:
		return value == c.Threshold
	case OpNotEqual:
		return value != c.Threshold
	default:
		return false
	}
}
