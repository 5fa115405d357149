package market

import (
	"strings"

	"github.com/alanyoungcy/marketfocus/internal/domain"
)

// CryptoKeywords are matched as substrings of the lowercased question.
var CryptoKeywords = []string{
	"bitcoin", "btc", "ethereum", "eth", "solana", "sol", "xrp",
	"crypto", "binance", "coinbase", "hyperliquid", "okx", "megaeth",
}

// SportsKeywords are matched as substrings of the lowercased question.
var SportsKeywords = []string{
	"nfl", "nba", "afc", "nfc", "super bowl", "championship",
	"football", "basketball", "soccer", "world cup",
	// NFL
	"chiefs", "eagles", "49ers", "ravens", "bills", "cowboys", "packers",
	"lions", "steelers", "bengals", "dolphins", "jets", "patriots", "texans",
	// NBA
	"lakers", "celtics", "warriors", "knicks", "nuggets", "bucks", "heat",
	"mavericks", "thunder", "cavaliers", "timberwolves",
	// Football clubs
	"real madrid", "barcelona", "arsenal", "liverpool", "man city", "chelsea",
}

// Category labels used for display when upstream category is missing.
const (
	CategoryCrypto = "Crypto"
	CategorySports = "Sports"
)

// IsCrypto reports whether rec looks like a crypto market: its category
// mentions crypto, or its question contains a crypto keyword.
func IsCrypto(rec *domain.MarketRecord) bool {
	return classify(rec, "crypto", CryptoKeywords)
}

// IsSports reports whether rec looks like a sports market: its category
// mentions sports, or its question contains a sports keyword.
func IsSports(rec *domain.MarketRecord) bool {
	return classify(rec, "sports", SportsKeywords)
}

// InferredCategory returns the upstream category, or Crypto/Sports from the
// classifiers when upstream left it blank.
func InferredCategory(rec *domain.MarketRecord) string {
	if c := rec.Category(); c != "" {
		return c
	}
	switch {
	case IsCrypto(rec):
		return CategoryCrypto
	case IsSports(rec):
		return CategorySports
	default:
		return ""
	}
}

// FilterCategory keeps records matching pred, optionally capped at limit
// (limit <= 0 means no cap).
func FilterCategory(records []*domain.MarketRecord, pred func(*domain.MarketRecord) bool, limit int) []*domain.MarketRecord {
	out := make([]*domain.MarketRecord, 0)
	for _, rec := range records {
		if limit > 0 && len(out) >= limit {
			break
		}
		if pred(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func classify(rec *domain.MarketRecord, categoryWord string, keywords []string) bool {
	if rec == nil {
		return false
	}
	if c := rec.Category(); c != "" && strings.Contains(strings.ToLower(c), categoryWord) {
		return true
	}
	q := rec.Question()
	if q == "" {
		return false
	}
	q = strings.ToLower(q)
	for _, kw := range keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}
