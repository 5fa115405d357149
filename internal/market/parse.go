package market

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/marketfocus/internal/domain"
)

// Invalid-reason values recorded on markets that fail binary validation.
const (
	ReasonMissingArrays      = "Missing outcomes or clobTokenIds"
	ReasonNotList            = "outcomes or clobTokenIds not a list"
	ReasonTokenCountMismatch = "clobTokenIds length mismatch with outcomes"
	ReasonUnresolvedOutcomes = "Cannot identify YES/NO outcomes"
	ReasonAmbiguousOutcomes  = "Ambiguous YES/NO outcomes"
)

// ReasonNotBinary formats the reason for a market whose outcome count is not
// two.
func ReasonNotBinary(n int) string {
	return fmt.Sprintf("Not a binary market (outcomes count: %d)", n)
}

// Raw field names read from Gamma market records.
const (
	fieldID              = "id"
	fieldConditionID     = "conditionId"
	fieldSlug            = "slug"
	fieldQuestion        = "question"
	fieldCategory        = "category"
	fieldEndDate         = "endDate"
	fieldEnableOrderBook = "enableOrderBook"
	fieldActive          = "active"
	fieldClosed          = "closed"
	fieldOutcomes        = "outcomes"
	fieldOutcomePrices   = "outcomePrices"
	fieldClobTokenIDs    = "clobTokenIds"
)

// Parser converts raw listing records into MarketRecords. The zero value is
// usable: it reads the wall clock and logs to slog.Default().
type Parser struct {
	// Now supplies the reference instant for hours_to_close.
	Now    func() time.Time
	Logger *slog.Logger
}

// NewParser returns a Parser that logs to logger.
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{
		Now:    time.Now,
		Logger: logger.With(slog.String("component", "parser")),
	}
}

func (p *Parser) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func (p *Parser) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// Parse normalizes one raw record. It returns nil only when the record has no
// usable identifier, or when parsing it panicked; every other anomaly is kept
// on the record as its invalid reason.
func (p *Parser) Parse(raw domain.RawMarket) (rec *domain.MarketRecord) {
	defer func() {
		if r := recover(); r != nil {
			p.logger().Error("parse market panicked",
				slog.Any("id", raw[fieldID]),
				slog.String("error", fmt.Sprint(r)),
			)
			rec = nil
		}
	}()
	return ParseAt(raw, p.now())
}

// ParseAll parses raws in order, dropping records Parse rejects.
func (p *Parser) ParseAll(raws []domain.RawMarket) []*domain.MarketRecord {
	out := make([]*domain.MarketRecord, 0, len(raws))
	dropped := 0
	for _, raw := range raws {
		if rec := p.Parse(raw); rec != nil {
			out = append(out, rec)
		} else {
			dropped++
		}
	}
	if dropped > 0 {
		p.logger().Debug("dropped unidentifiable markets", slog.Int("count", dropped))
	}
	return out
}

// ParseAt is Parse against an explicit reference instant and without panic
// recovery.
func ParseAt(raw domain.RawMarket, now time.Time) *domain.MarketRecord {
	id := firstID(raw)
	if id == "" {
		return nil
	}

	f := domain.MarketFields{
		ID:              id,
		Slug:            stringField(raw, fieldSlug),
		Question:        stringField(raw, fieldQuestion),
		Category:        stringField(raw, fieldCategory),
		EndDate:         stringField(raw, fieldEndDate),
		EnableOrderBook: toBool(raw[fieldEnableOrderBook]),
		Active:          toBool(raw[fieldActive]),
		Closed:          toBool(raw[fieldClosed]),
	}
	if h, ok := HoursToClose(f.EndDate, now); ok {
		f.HoursToClose = &h
	}

	outcomes := NormalizeSequence(raw[fieldOutcomes])
	prices := NormalizeSequence(raw[fieldOutcomePrices])
	tokens := NormalizeSequence(raw[fieldClobTokenIDs])

	yesPrice, noPrice := resolveBinary(&f, outcomes, prices, tokens)
	return domain.NewMarketRecord(f, yesPrice, noPrice)
}

// resolveBinary validates the outcome/token arrays and fills the token IDs on
// f, or sets f.InvalidReason at the first failed check. It returns the
// outcomePrices-derived prices when available.
func resolveBinary(f *domain.MarketFields, outcomes, prices, tokens Sequence) (yes, no *float64) {
	switch {
	case outcomes.Len() == 0 || tokens.Len() == 0:
		f.InvalidReason = ReasonMissingArrays
		return nil, nil
	case outcomes.Items() == nil || tokens.Items() == nil:
		f.InvalidReason = ReasonNotList
		return nil, nil
	case outcomes.Len() != 2:
		f.InvalidReason = ReasonNotBinary(outcomes.Len())
		return nil, nil
	case tokens.Len() != outcomes.Len():
		f.InvalidReason = ReasonTokenCountMismatch
		return nil, nil
	}

	yesIdx, okYes := FindOutcomeIndex(outcomes.Items(), "yes")
	noIdx, okNo := FindOutcomeIndex(outcomes.Items(), "no")
	if !okYes || !okNo {
		f.InvalidReason = ReasonUnresolvedOutcomes
		return nil, nil
	}
	if yesIdx == noIdx {
		f.InvalidReason = ReasonAmbiguousOutcomes
		return nil, nil
	}

	f.YesTokenID, _ = stringify(tokens.Items()[yesIdx])
	f.NoTokenID, _ = stringify(tokens.Items()[noIdx])

	if prices.Present() && prices.Len() >= outcomes.Len() {
		if v, ok := toFloat(prices.Items()[yesIdx]); ok {
			yes = &v
		}
		if v, ok := toFloat(prices.Items()[noIdx]); ok {
			no = &v
		}
	}
	return yes, no
}

func firstID(raw domain.RawMarket) string {
	for _, key := range []string{fieldID, fieldConditionID} {
		if s, ok := stringify(raw[key]); ok && s != "" {
			return s
		}
	}
	return ""
}

func stringField(raw domain.RawMarket, key string) string {
	s, _ := raw[key].(string)
	return s
}
