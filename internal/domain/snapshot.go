package domain

import "time"

// Focus holds the highlighted picks. Either pick may be nil. WindowHours is
// the max_hours window the picks were selected from (0 when none matched).
type Focus struct {
	Crypto      *MarketRecord `json:"crypto"`
	Sports      *MarketRecord `json:"sports"`
	WindowHours float64       `json:"window_hours,omitempty"`
}

// Empty reports whether neither slot was filled.
func (f Focus) Empty() bool { return f.Crypto == nil && f.Sports == nil }

// SnapshotStats summarises one fetch cycle for debugging.
type SnapshotStats struct {
	TotalFetched int `json:"total_fetched"`
	Parsed       int `json:"parsed"`
	Invalid      int `json:"invalid"`
	Candidates   int `json:"candidates"`
	Priced       int `json:"priced"`
}

// Snapshot is the full result of one fetch → parse → filter → enrich →
// select cycle. It is read-only once built.
type Snapshot struct {
	ID          string          `json:"id"`
	GeneratedAt time.Time       `json:"generated_at"`
	MaxHours    float64         `json:"max_hours"`
	Stats       SnapshotStats   `json:"stats"`
	Candidates  []*MarketRecord `json:"candidates"`
	Invalid     []*MarketRecord `json:"invalid"`
	Focus       Focus           `json:"focus"`
}
