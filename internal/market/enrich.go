package market

import "github.com/alanyoungcy/marketfocus/internal/domain"

// TokenIDs collects the distinct YES/NO token IDs of records in first-seen
// order. Records that were already priced are skipped.
func TokenIDs(records []*domain.MarketRecord) []string {
	seen := make(map[string]struct{}, len(records)*2)
	out := make([]string, 0, len(records)*2)
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, rec := range records {
		if rec.Priced() {
			continue
		}
		add(rec.YesTokenID())
		add(rec.NoTokenID())
	}
	return out
}

// ApplyQuotes prices every not-yet-priced record from q and returns how many
// records it touched.
func ApplyQuotes(records []*domain.MarketRecord, q domain.Quotes) int {
	n := 0
	for _, rec := range records {
		if rec.Priced() {
			continue
		}
		if err := rec.ApplyQuotes(q); err == nil {
			n++
		}
	}
	return n
}
