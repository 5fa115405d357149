package domain

import (
	"encoding/json"
	"fmt"
)

// RawMarket is one market record exactly as the Gamma listing API returned
// it. Values are loosely typed: arrays may arrive as native JSON arrays or as
// JSON-encoded strings, and numbers are kept as json.Number.
type RawMarket map[string]any

// MarketFields are the identity and state fields of a MarketRecord. Empty
// strings mean the value was absent upstream.
type MarketFields struct {
	ID              string
	Slug            string
	Question        string
	Category        string
	EndDate         string
	HoursToClose    *float64
	EnableOrderBook bool
	Active          bool
	Closed          bool
	YesTokenID      string
	NoTokenID       string
	InvalidReason   string
}

// MarketRecord is the canonical, normalized view of one market.
//
// Everything except the YES/NO prices is fixed at construction. Prices are
// seeded from the listing's outcomePrices and may be replaced once per fetch
// cycle by ApplyQuotes.
type MarketRecord struct {
	f        MarketFields
	yesPrice *float64
	noPrice  *float64
	priced   bool
}

// NewMarketRecord builds a record from its fields and the initial prices
// (either may be nil).
func NewMarketRecord(f MarketFields, yesPrice, noPrice *float64) *MarketRecord {
	f.HoursToClose = copyFloat(f.HoursToClose)
	return &MarketRecord{
		f:        f,
		yesPrice: copyFloat(yesPrice),
		noPrice:  copyFloat(noPrice),
	}
}

// Fields returns a copy of the record's immutable fields.
func (m *MarketRecord) Fields() MarketFields {
	f := m.f
	f.HoursToClose = copyFloat(m.f.HoursToClose)
	return f
}

func (m *MarketRecord) ID() string            { return m.f.ID }
func (m *MarketRecord) Slug() string          { return m.f.Slug }
func (m *MarketRecord) Question() string      { return m.f.Question }
func (m *MarketRecord) Category() string      { return m.f.Category }
func (m *MarketRecord) EndDate() string       { return m.f.EndDate }
func (m *MarketRecord) EnableOrderBook() bool { return m.f.EnableOrderBook }
func (m *MarketRecord) Active() bool          { return m.f.Active }
func (m *MarketRecord) Closed() bool          { return m.f.Closed }
func (m *MarketRecord) YesTokenID() string    { return m.f.YesTokenID }
func (m *MarketRecord) NoTokenID() string     { return m.f.NoTokenID }
func (m *MarketRecord) InvalidReason() string { return m.f.InvalidReason }

// Valid reports whether the parser accepted the record as a binary market.
func (m *MarketRecord) Valid() bool { return m.f.InvalidReason == "" }

// HoursToClose returns the hours remaining until endDate, if known.
func (m *MarketRecord) HoursToClose() (float64, bool) {
	return deref(m.f.HoursToClose)
}

// YesPrice returns the YES best-ask price, if known.
func (m *MarketRecord) YesPrice() (float64, bool) { return deref(m.yesPrice) }

// NoPrice returns the NO best-ask price, if known.
func (m *MarketRecord) NoPrice() (float64, bool) { return deref(m.noPrice) }

// Priced reports whether ApplyQuotes has already run on this record.
func (m *MarketRecord) Priced() bool { return m.priced }

// ApplyQuotes sets the YES/NO prices from a quote map keyed by token ID. A
// token present in q overwrites the seeded price, including with nil; a token
// absent from q leaves the seeded price in place. It can succeed only once.
func (m *MarketRecord) ApplyQuotes(q Quotes) error {
	if m.priced {
		return fmt.Errorf("market %s: %w", m.f.ID, ErrAlreadyPriced)
	}
	m.priced = true

	if m.f.YesTokenID != "" {
		if p, ok := q[m.f.YesTokenID]; ok {
			m.yesPrice = copyFloat(p)
		}
	}
	if m.f.NoTokenID != "" {
		if p, ok := q[m.f.NoTokenID]; ok {
			m.noPrice = copyFloat(p)
		}
	}
	return nil
}

// marketRecordJSON is the wire form of a MarketRecord.
type marketRecordJSON struct {
	ID              string   `json:"id"`
	Slug            string   `json:"slug,omitempty"`
	Question        string   `json:"question,omitempty"`
	Category        string   `json:"category,omitempty"`
	EndDate         string   `json:"endDate,omitempty"`
	HoursToClose    *float64 `json:"hours_to_close,omitempty"`
	EnableOrderBook bool     `json:"enableOrderBook"`
	Active          bool     `json:"active"`
	Closed          bool     `json:"closed"`
	YesTokenID      string   `json:"yes_token_id,omitempty"`
	NoTokenID       string   `json:"no_token_id,omitempty"`
	YesPrice        *float64 `json:"yes_price"`
	NoPrice         *float64 `json:"no_price"`
	InvalidReason   string   `json:"invalid_reason,omitempty"`
	Priced          bool     `json:"priced,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (m *MarketRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(marketRecordJSON{
		ID:              m.f.ID,
		Slug:            m.f.Slug,
		Question:        m.f.Question,
		Category:        m.f.Category,
		EndDate:         m.f.EndDate,
		HoursToClose:    m.f.HoursToClose,
		EnableOrderBook: m.f.EnableOrderBook,
		Active:          m.f.Active,
		Closed:          m.f.Closed,
		YesTokenID:      m.f.YesTokenID,
		NoTokenID:       m.f.NoTokenID,
		YesPrice:        m.yesPrice,
		NoPrice:         m.noPrice,
		InvalidReason:   m.f.InvalidReason,
		Priced:          m.priced,
	})
}

// UnmarshalJSON implements json.Unmarshaler. It is used when a cached
// snapshot is read back.
func (m *MarketRecord) UnmarshalJSON(data []byte) error {
	var w marketRecordJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = MarketRecord{
		f: MarketFields{
			ID:              w.ID,
			Slug:            w.Slug,
			Question:        w.Question,
			Category:        w.Category,
			EndDate:         w.EndDate,
			HoursToClose:    w.HoursToClose,
			EnableOrderBook: w.EnableOrderBook,
			Active:          w.Active,
			Closed:          w.Closed,
			YesTokenID:      w.YesTokenID,
			NoTokenID:       w.NoTokenID,
			InvalidReason:   w.InvalidReason,
		},
		yesPrice: w.YesPrice,
		noPrice:  w.NoPrice,
		priced:   w.Priced,
	}
	return nil
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Float returns a pointer to v. Handy for building MarketFields literals.
func Float(v float64) *float64 { return &v }
