package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSide selects which side of the book a price query reads.
type PriceSide string

const (
	// PriceSideBuy yields the best ask: the cost to acquire a token.
	PriceSideBuy PriceSide = "buy"
	// PriceSideSell yields the best bid.
	PriceSideSell PriceSide = "sell"
)

// Valid reports whether s is a known side.
func (s PriceSide) Valid() bool {
	return s == PriceSideBuy || s == PriceSideSell
}

// Quotes maps token ID to price. A nil value means the token was requested
// but has no resting orders on that side.
type Quotes map[string]*float64

// PriceLevel is one aggregated level of an order book.
type PriceLevel struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// OrderBook is a point-in-time order book for one token.
type OrderBook struct {
	TokenID   string       `json:"token_id"`
	Market    string       `json:"market,omitempty"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Timestamp time.Time    `json:"timestamp"`
}

// BestBid returns the highest bid price.
func (b OrderBook) BestBid() (decimal.Decimal, bool) {
	var best decimal.Decimal
	found := false
	for _, lvl := range b.Bids {
		if !found || lvl.Price.GreaterThan(best) {
			best = lvl.Price
			found = true
		}
	}
	return best, found
}

// BestAsk returns the lowest ask price.
func (b OrderBook) BestAsk() (decimal.Decimal, bool) {
	var best decimal.Decimal
	found := false
	for _, lvl := range b.Asks {
		if !found || lvl.Price.LessThan(best) {
			best = lvl.Price
			found = true
		}
	}
	return best, found
}

// Spread returns BestAsk - BestBid when both sides exist.
func (b OrderBook) Spread() (decimal.Decimal, bool) {
	bid, ok := b.BestBid()
	if !ok {
		return decimal.Zero, false
	}
	ask, ok := b.BestAsk()
	if !ok {
		return decimal.Zero, false
	}
	return ask.Sub(bid), true
}
