// Package ingest transforms raw events from either data source into trades:
// the centralized path consumes /trades and
// /activity records, the subgraph path consumes orderFilledEvents. Both
// paths converge on the same store.UpsertTrade/UpsertMarket/EnsureWalletSeen
// calls so downstream scoring never cares which source produced a trade.
package ingest

import (
	"context"

	"go.uber.org/zap"

	"github.com/polymarket-surveillance/insider-detector/config"
	"github.com/polymarket-surveillance/insider-detector/internal/fetch/centralapi"
	"github.com/polymarket-surveillance/insider-detector/internal/fetch/subgraph"
	"github.com/polymarket-surveillance/insider-detector/internal/models"
	"github.com/polymarket-surveillance/insider-detector/internal/store"
	"github.com/polymarket-surveillance/insider-detector/internal/tokenmap"
)

// usdcDecimalScale divides wei-denominated amounts down to USDC's 6-decimal
// scale.
const usdcDecimalScale = 1_000_000.0

// Ingestor owns both ingestion paths and the stub-market bookkeeping the
// market-merge algorithm depends on.
type Ingestor struct {
	store      *store.Store
	centralapi *centralapi.Client
	subgraph   *subgraph.Client
	tokenmap   *tokenmap.Builder
	logger     *zap.Logger
	cfg        config.IngestConfig

	// localMapping/subgraphMapping are replaced by RefreshMappings, which
	// nothing in this repository schedules; reads never block on a rebuild.
	localMapping    tokenmap.Mapping
	subgraphMapping tokenmap.Mapping
}

// New constructs an Ingestor.
func New(st *store.Store, capi *centralapi.Client, sg *subgraph.Client, tm *tokenmap.Builder, logger *zap.Logger, cfg config.IngestConfig) *Ingestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{
		store:      st,
		centralapi: capi,
		subgraph:   sg,
		tokenmap:   tm,
		logger:     logger.Named("ingest"),
		cfg:        cfg,
	}
}

// Result is the outcome of ingesting one trade: whether it succeeded,
// whether it was inserted or updated, and the resulting trade and wallet.
type Result struct {
	OK       bool
	Inserted bool
	Trade    *models.Trade
	Wallet   *models.Wallet
}

// RefreshMappings rebuilds both the local and subgraph-sourced token
// mappings. No job calls it periodically; the ingestor keeps serving the
// previous mapping while a refresh is in flight.
func (ing *Ingestor) RefreshMappings(ctx context.Context) error {
	local, err := ing.tokenmap.BuildMapping(ctx, true)
	if err != nil {
		return err
	}
	sub, err := ing.tokenmap.BuildSubgraphMapping(ctx, 0)
	if err != nil {
		ing.logger.Warn("subgraph mapping refresh failed, keeping previous subgraph mapping", zap.Error(err))
		sub = ing.subgraphMapping
	}
	ing.localMapping = local
	ing.subgraphMapping = sub
	return nil
}

func roundTo4(f float64) float64 {
	return float64(int64(f*10000+0.5)) / 10000
}
