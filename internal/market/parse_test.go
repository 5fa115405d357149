package market

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/marketfocus/internal/domain"
)

var refNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func binaryRaw(id string) domain.RawMarket {
	return domain.RawMarket{
		"id":              id,
		"slug":            "slug-" + id,
		"question":        "Will it happen?",
		"category":        "Testing",
		"endDate":         "2026-10-20T12:00:00Z",
		"enableOrderBook": true,
		"active":          true,
		"closed":          false,
		"outcomes":        []any{"Yes", "No"},
		"outcomePrices":   []any{"0.55", "0.45"},
		"clobTokenIds":    []any{"A", "B"},
	}
}

func TestParseBinaryMarket(t *testing.T) {
	rec := ParseAt(binaryRaw("m-1"), refNow)
	require.NotNil(t, rec)

	assert.Equal(t, "m-1", rec.ID())
	assert.Equal(t, "slug-m-1", rec.Slug())
	assert.Equal(t, "A", rec.YesTokenID())
	assert.Equal(t, "B", rec.NoTokenID())
	assert.Empty(t, rec.InvalidReason())
	assert.True(t, rec.Valid())
	assert.False(t, rec.Priced())

	yes, ok := rec.YesPrice()
	require.True(t, ok)
	assert.Equal(t, 0.55, yes)
	no, ok := rec.NoPrice()
	require.True(t, ok)
	assert.Equal(t, 0.45, no)

	h, ok := rec.HoursToClose()
	require.True(t, ok)
	assert.Equal(t, 24.0, h)
}

func TestParseStringEncodedArrays(t *testing.T) {
	raw := binaryRaw("m-2")
	raw["outcomes"] = `["No", "Yes"]`
	raw["outcomePrices"] = `["0.40", "0.60"]`
	raw["clobTokenIds"] = `["tok-1", "tok-2"]`

	rec := ParseAt(raw, refNow)
	require.NotNil(t, rec)
	assert.Equal(t, "tok-2", rec.YesTokenID())
	assert.Equal(t, "tok-1", rec.NoTokenID())
	yes, _ := rec.YesPrice()
	no, _ := rec.NoPrice()
	assert.Equal(t, 0.60, yes)
	assert.Equal(t, 0.40, no)
}

func TestParseIdentifier(t *testing.T) {
	t.Run("condition id fallback", func(t *testing.T) {
		raw := binaryRaw("")
		delete(raw, "id")
		raw["conditionId"] = "0xabc"
		rec := ParseAt(raw, refNow)
		require.NotNil(t, rec)
		assert.Equal(t, "0xabc", rec.ID())
	})

	t.Run("numeric id", func(t *testing.T) {
		raw := binaryRaw("")
		raw["id"] = json.Number("12345")
		rec := ParseAt(raw, refNow)
		require.NotNil(t, rec)
		assert.Equal(t, "12345", rec.ID())
	})

	t.Run("empty id falls back", func(t *testing.T) {
		raw := binaryRaw("")
		raw["conditionId"] = "0xdef"
		rec := ParseAt(raw, refNow)
		require.NotNil(t, rec)
		assert.Equal(t, "0xdef", rec.ID())
	})

	t.Run("no identifier", func(t *testing.T) {
		raw := binaryRaw("")
		raw["conditionId"] = ""
		assert.Nil(t, ParseAt(raw, refNow))
		assert.Nil(t, ParseAt(domain.RawMarket{}, refNow))
		assert.Nil(t, ParseAt(nil, refNow))
	})
}

func TestParseInvalidReasons(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(domain.RawMarket)
		want   string
	}{
		{
			name:   "missing outcomes",
			mutate: func(r domain.RawMarket) { delete(r, "outcomes") },
			want:   ReasonMissingArrays,
		},
		{
			name:   "missing tokens",
			mutate: func(r domain.RawMarket) { r["clobTokenIds"] = nil },
			want:   ReasonMissingArrays,
		},
		{
			name:   "empty outcomes",
			mutate: func(r domain.RawMarket) { r["outcomes"] = []any{} },
			want:   ReasonMissingArrays,
		},
		{
			name:   "undecodable tokens",
			mutate: func(r domain.RawMarket) { r["clobTokenIds"] = "not json" },
			want:   ReasonMissingArrays,
		},
		{
			name: "three outcomes",
			mutate: func(r domain.RawMarket) {
				r["outcomes"] = []any{"Team A", "Team B", "Team C"}
				r["clobTokenIds"] = []any{"1", "2", "3"}
			},
			want: "Not a binary market (outcomes count: 3)",
		},
		{
			name:   "token count mismatch",
			mutate: func(r domain.RawMarket) { r["clobTokenIds"] = []any{"A"} },
			want:   ReasonTokenCountMismatch,
		},
		{
			name:   "no yes or no label",
			mutate: func(r domain.RawMarket) { r["outcomes"] = []any{"Up", "Down"} },
			want:   ReasonUnresolvedOutcomes,
		},
		{
			name:   "null labels",
			mutate: func(r domain.RawMarket) { r["outcomes"] = []any{nil, "No"} },
			want:   ReasonUnresolvedOutcomes,
		},
		{
			name:   "same label matches both",
			mutate: func(r domain.RawMarket) { r["outcomes"] = []any{"Yes or No", "Maybe"} },
			want:   ReasonAmbiguousOutcomes,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw := binaryRaw("m-bad")
			tc.mutate(raw)

			rec := ParseAt(raw, refNow)
			require.NotNil(t, rec, "invalid markets are kept")
			assert.Equal(t, tc.want, rec.InvalidReason())
			assert.False(t, rec.Valid())
			assert.Empty(t, rec.YesTokenID())
			assert.Empty(t, rec.NoTokenID())

			_, ok := rec.HoursToClose()
			assert.True(t, ok, "hours_to_close is computed regardless of validity")
		})
	}
}

func TestParsePricesBestEffort(t *testing.T) {
	t.Run("one bad price", func(t *testing.T) {
		raw := binaryRaw("m-3")
		raw["outcomePrices"] = []any{"abc", "0.45"}
		rec := ParseAt(raw, refNow)
		require.NotNil(t, rec)
		assert.True(t, rec.Valid())
		_, ok := rec.YesPrice()
		assert.False(t, ok)
		no, ok := rec.NoPrice()
		require.True(t, ok)
		assert.Equal(t, 0.45, no)
	})

	t.Run("too few prices", func(t *testing.T) {
		raw := binaryRaw("m-4")
		raw["outcomePrices"] = []any{"0.5"}
		rec := ParseAt(raw, refNow)
		require.NotNil(t, rec)
		assert.True(t, rec.Valid())
		_, yesOK := rec.YesPrice()
		_, noOK := rec.NoPrice()
		assert.False(t, yesOK)
		assert.False(t, noOK)
	})

	t.Run("numeric prices", func(t *testing.T) {
		raw := binaryRaw("m-5")
		raw["outcomePrices"] = `[0.3, 0.7]`
		rec := ParseAt(raw, refNow)
		require.NotNil(t, rec)
		yes, _ := rec.YesPrice()
		assert.Equal(t, 0.3, yes)
	})
}

func TestParseLooseFieldTypes(t *testing.T) {
	raw := binaryRaw("m-6")
	raw["active"] = "true"
	raw["closed"] = "false"
	raw["enableOrderBook"] = "1"
	raw["category"] = 7.0
	raw["question"] = nil

	rec := ParseAt(raw, refNow)
	require.NotNil(t, rec)
	assert.True(t, rec.Active())
	assert.False(t, rec.Closed())
	assert.True(t, rec.EnableOrderBook())
	assert.Empty(t, rec.Category())
	assert.Empty(t, rec.Question())
}

func TestParseAllKeepsOrderAndDropsUnidentified(t *testing.T) {
	p := NewParser(slog.Default())
	p.Now = func() time.Time { return refNow }

	raws := []domain.RawMarket{binaryRaw("a"), {"question": "no id"}, binaryRaw("b")}
	recs := p.ParseAll(raws)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].ID())
	assert.Equal(t, "b", recs[1].ID())
}

func TestParseRecoversFromPanic(t *testing.T) {
	var logs bytes.Buffer
	p := NewParser(slog.New(slog.NewJSONHandler(&logs, nil)))
	p.Now = func() time.Time { panic("boom") }

	var rec *domain.MarketRecord
	require.NotPanics(t, func() { rec = p.Parse(binaryRaw("p-1")) })
	assert.Nil(t, rec)
	assert.Contains(t, logs.String(), "parse market panicked")
	assert.Contains(t, logs.String(), "boom")

	var recs []*domain.MarketRecord
	require.NotPanics(t, func() {
		recs = p.ParseAll([]domain.RawMarket{binaryRaw("a"), binaryRaw("b")})
	})
	assert.Empty(t, recs)
}

func TestParseAllDropsOnlyThePanickingRecord(t *testing.T) {
	calls := 0
	p := NewParser(slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.Now = func() time.Time {
		calls++
		if calls == 2 {
			panic("boom")
		}
		return refNow
	}

	recs := p.ParseAll([]domain.RawMarket{binaryRaw("a"), binaryRaw("b"), binaryRaw("c")})
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].ID())
	assert.Equal(t, "c", recs[1].ID())
}

func TestParserZeroValue(t *testing.T) {
	var p Parser
	rec := p.Parse(binaryRaw("z"))
	require.NotNil(t, rec)
	assert.Equal(t, "z", rec.ID())
}

func TestHoursToClose(t *testing.T) {
	tests := []struct {
		name    string
		endDate string
		want    float64
		ok      bool
	}{
		{name: "utc designator", endDate: "2026-10-20T12:00:00Z", want: 24, ok: true},
		{name: "explicit offset", endDate: "2026-10-19T14:00:00+02:00", want: 0, ok: true},
		{name: "fractional seconds", endDate: "2026-10-19T12:30:00.123456Z", want: 0.5, ok: true},
		{name: "naive timestamp", endDate: "2026-10-19T22:00:00", want: 10, ok: true},
		{name: "date only", endDate: "2026-10-21", want: 36, ok: true},
		{name: "rounded", endDate: "2026-10-19T13:20:00Z", want: 1.33, ok: true},
		{name: "past", endDate: "2026-10-19T06:00:00Z", want: -6, ok: true},
		{name: "empty", endDate: ""},
		{name: "garbage", endDate: "next tuesday"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := HoursToClose(tc.endDate, refNow)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.InDelta(t, tc.want, got, 1e-9)
			}
		})
	}
}

func TestFindOutcomeIndex(t *testing.T) {
	labels := []any{"", nil, "YES", "No"}

	idx, ok := FindOutcomeIndex(labels, "yes")
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	idx, ok = FindOutcomeIndex(labels, "no")
	require.True(t, ok)
	assert.Equal(t, 3, idx)

	_, ok = FindOutcomeIndex(labels, "maybe")
	assert.False(t, ok)
}
