// Package models holds the canonical data model shared by every subsystem:
// markets, wallets, trades, baselines, scores, patterns, confirmed insiders,
// investigation candidates, discovery batches, and alerts. Nothing in here
// talks to Postgres or HTTP -- these are plain structs, free of transport
// concerns.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is the closed set of market categories.
type Category string

const (
	CategoryPolitics      Category = "politics"
	CategoryCorporate     Category = "corporate"
	CategoryLegal         Category = "legal"
	CategoryCrypto        Category = "crypto"
	CategorySports        Category = "sports"
	CategoryEntertainment Category = "entertainment"
	CategoryScience       Category = "science"
	CategoryOther         Category = "other"

	// CategoryAll is the pseudo-category baselines compute across all trades.
	CategoryAll Category = "all"
)

// AllCategories lists every concrete category plus the CategoryAll
// pseudo-category, for callers that need to sweep every baseline bucket
// (e.g. a full baseline recompute or feedback iteration).
var AllCategories = []Category{
	CategoryAll, CategoryPolitics, CategoryCorporate, CategoryLegal, CategoryCrypto,
	CategorySports, CategoryEntertainment, CategoryScience, CategoryOther,
}

// StubConditionPrefix marks a market created from a token id we couldn't yet
// resolve to real metadata.
const StubConditionPrefix = "token_"

// Market is a binary (or small-k) prediction market.
type Market struct {
	ID               int64
	ConditionID      string
	Question         string
	Outcomes         []string
	OutcomePrices    []decimal.Decimal
	EndDate          *time.Time
	ResolutionDate   *time.Time
	ResolvedOutcome  *string
	Volume           decimal.Decimal
	Volume24h        decimal.Decimal
	Liquidity        decimal.Decimal
	Category         Category
	IsEventBased     bool
	IsActive         bool
	Meta             map[string]any
	LastSyncedAt     time.Time
}

// IsStub reports whether this market was created as a placeholder pending
// enrichment.
func (m *Market) IsStub() bool {
	if m == nil {
		return false
	}
	return len(m.ConditionID) >= len(StubConditionPrefix) && m.ConditionID[:len(StubConditionPrefix)] == StubConditionPrefix
}

// NeedsMetadata reports the meta.needs_metadata flag set on stub markets.
func (m *Market) NeedsMetadata() bool {
	if m == nil || m.Meta == nil {
		return false
	}
	v, ok := m.Meta["needs_metadata"]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// ClobTokenIDs extracts meta.clobTokenIds, accepting either a native list or
// a JSON-encoded string of a list.
func (m *Market) ClobTokenIDs() []string {
	if m == nil || m.Meta == nil {
		return nil
	}
	raw, ok := m.Meta["clobTokenIds"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
