package market

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FindOutcomeIndex returns the index of the first label whose lowercased
// text contains keyword (case-insensitive). Nil and empty labels are skipped.
func FindOutcomeIndex(labels []any, keyword string) (int, bool) {
	kw := strings.ToLower(keyword)
	for i, label := range labels {
		s, ok := stringify(label)
		if !ok || s == "" {
			continue
		}
		if strings.Contains(strings.ToLower(s), kw) {
			return i, true
		}
	}
	return 0, false
}

// stringify renders a loosely-typed JSON scalar as text. It reports false for
// nil.
func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return fmt.Sprint(t), true
	}
}

// toFloat converts a price entry to float64. Strings and json.Number are
// parsed; anything else fails.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}

// toBool coerces a flag that may arrive as a JSON bool or as "true"/"1".
func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true") || t == "1"
	case json.Number:
		return t.String() == "1"
	default:
		return false
	}
}
