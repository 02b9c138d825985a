// Package tokenmap resolves opaque 256-bit token ids to the market and outcome they belong to. Two sources feed the
// map: the local markets table (via each market's clobTokenIds list) and the
// subgraph's marketDatas entity, which authoritatively pairs token ids with
// condition ids. The ingestor consults the local map first, the subgraph map
// second, and falls back to stub-market creation last.
package tokenmap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/polymarket-surveillance/insider-detector/internal/fetch/subgraph"
	"github.com/polymarket-surveillance/insider-detector/internal/store"
)

// Entry is one token id's resolution.
type Entry struct {
	MarketID     int64
	ConditionID  string
	OutcomeIndex int
}

// Mapping is an O(1) lookup table, token id -> Entry.
type Mapping map[string]Entry

// Builder builds and refreshes the local and subgraph-sourced mappings.
type Builder struct {
	store    *store.Store
	subgraph *subgraph.Client
	logger   *zap.Logger
}

// New constructs a Builder.
func New(st *store.Store, sg *subgraph.Client, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{store: st, subgraph: sg, logger: logger.Named("tokenmap")}
}

// BuildMapping scans markets, parsing their token id lists (JSON string or
// list via models.Market.ClobTokenIDs, already normalized to strings), and
// returns a mapping from each token id to its (market_id, condition_id,
// outcome_index).
func (b *Builder) BuildMapping(ctx context.Context, includeInactive bool) (Mapping, error) {
	markets, err := b.store.ListMarkets(ctx, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("listing markets for token mapping: %w", err)
	}

	mapping := make(Mapping, len(markets)*2)
	for _, m := range markets {
		tokenIDs := m.ClobTokenIDs()
		for idx, tokenID := range tokenIDs {
			if tokenID == "" {
				continue
			}
			mapping[tokenID] = Entry{
				MarketID:     m.ID,
				ConditionID:  m.ConditionID,
				OutcomeIndex: idx,
			}
		}
	}

	b.logger.Debug("built local token mapping",
		zap.Int("markets_scanned", len(markets)),
		zap.Int("tokens_mapped", len(mapping)),
	)
	return mapping, nil
}

// BuildSubgraphMapping paginates the subgraph's marketDatas entity, which
// authoritatively maps token ids to condition ids, and returns it as a
// Mapping with OutcomeIndex populated (MarketID left zero -- the subgraph
// knows nothing of our local row ids; the ingestor resolves MarketID by
// looking up ConditionID locally once it consults this map).
func (b *Builder) BuildSubgraphMapping(ctx context.Context, pageSize int) (Mapping, error) {
	if pageSize <= 0 || pageSize > subgraph.MaxPageSize {
		pageSize = subgraph.MaxPageSize
	}

	mapping := make(Mapping)
	offset := 0
	for {
		page, short, err := b.subgraph.FetchMarketDatasPage(ctx, offset, pageSize)
		if err != nil {
			return mapping, fmt.Errorf("fetching marketDatas page at offset %d: %w", offset, err)
		}
		for _, md := range page {
			if md.ID == "" {
				continue
			}
			mapping[md.ID] = Entry{ConditionID: md.ConditionID, OutcomeIndex: md.OutcomeIndex}
		}
		if short || len(page) == 0 {
			break
		}
		offset += pageSize
	}

	b.logger.Debug("built subgraph token mapping", zap.Int("tokens_mapped", len(mapping)))
	return mapping, nil
}

// Lookup is an O(1) lookup against a previously built Mapping.
func Lookup(mapping Mapping, tokenID string) (Entry, bool) {
	e, ok := mapping[tokenID]
	return e, ok
}
