// Package market turns raw Gamma listing records into canonical
// MarketRecords and decides which of them are tradeable, near-term binary
// markets worth showing.
package market

import (
	"encoding/json"
	"strings"
)

// Sequence is the normalized form of an array-valued upstream field such as
// outcomes, outcomePrices or clobTokenIds. It is either a list or absent.
type Sequence struct {
	items   []any
	present bool
}

// Absent is the zero Sequence.
var Absent = Sequence{}

// List wraps items as a present Sequence.
func List(items []any) Sequence {
	return Sequence{items: items, present: true}
}

// Present reports whether the field normalized to a list.
func (s Sequence) Present() bool { return s.present }

// Items returns the list (nil when absent).
func (s Sequence) Items() []any { return s.items }

// Len returns the list length (0 when absent).
func (s Sequence) Len() int { return len(s.items) }

// NormalizeSequence coerces v into a Sequence. Native lists pass through
// untouched; strings are decoded as JSON and kept only if they hold an array.
// Anything else, and any decode failure, yields Absent.
func NormalizeSequence(v any) Sequence {
	switch t := v.(type) {
	case nil:
		return Absent
	case []any:
		return List(t)
	case []string:
		items := make([]any, len(t))
		for i, s := range t {
			items[i] = s
		}
		return List(items)
	case string:
		dec := json.NewDecoder(strings.NewReader(t))
		dec.UseNumber()
		var decoded any
		if err := dec.Decode(&decoded); err != nil {
			return Absent
		}
		if dec.More() {
			return Absent
		}
		if list, ok := decoded.([]any); ok {
			return List(list)
		}
		return Absent
	default:
		return Absent
	}
}
