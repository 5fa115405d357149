package market

import "github.com/alanyoungcy/marketfocus/internal/domain"

// SelectFocus scans candidates once, in order, and returns the first crypto
// and the first sports market. One record may fill both slots. The scan ends
// as soon as both are filled.
func SelectFocus(candidates []*domain.MarketRecord) domain.Focus {
	var f domain.Focus
	for _, rec := range candidates {
		if f.Crypto == nil && IsCrypto(rec) {
			f.Crypto = rec
		}
		if f.Sports == nil && IsSports(rec) {
			f.Sports = rec
		}
		if f.Crypto != nil && f.Sports != nil {
			break
		}
	}
	return f
}
