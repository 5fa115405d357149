package market

import "github.com/alanyoungcy/marketfocus/internal/domain"

// IsCandidate reports whether rec is a tradeable binary market closing within
// maxHours: order book enabled, active and not closed, 0 < hours_to_close <=
// maxHours, and both token IDs known.
func IsCandidate(rec *domain.MarketRecord, maxHours float64) bool {
	if rec == nil || !rec.EnableOrderBook() {
		return false
	}
	if !rec.Active() || rec.Closed() {
		return false
	}
	h, ok := rec.HoursToClose()
	if !ok || h <= 0 || !(h <= maxHours) {
		return false
	}
	return rec.YesTokenID() != "" && rec.NoTokenID() != ""
}

// FilterCandidates returns the records that pass IsCandidate, in input order.
func FilterCandidates(records []*domain.MarketRecord, maxHours float64) []*domain.MarketRecord {
	out := make([]*domain.MarketRecord, 0)
	for _, rec := range records {
		if IsCandidate(rec, maxHours) {
			out = append(out, rec)
		}
	}
	return out
}

// FilterValidPrices keeps records with both a YES and a NO price.
func FilterValidPrices(records []*domain.MarketRecord) []*domain.MarketRecord {
	out := make([]*domain.MarketRecord, 0, len(records))
	for _, rec := range records {
		_, yesOK := rec.YesPrice()
		_, noOK := rec.NoPrice()
		if yesOK && noOK {
			out = append(out, rec)
		}
	}
	return out
}

// FilterInvalid returns the records the parser tagged with an invalid reason.
func FilterInvalid(records []*domain.MarketRecord) []*domain.MarketRecord {
	out := make([]*domain.MarketRecord, 0)
	for _, rec := range records {
		if !rec.Valid() {
			out = append(out, rec)
		}
	}
	return out
}
