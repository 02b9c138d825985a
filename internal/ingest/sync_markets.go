package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/polymarket-surveillance/insider-detector/internal/errs"
	"github.com/polymarket-surveillance/insider-detector/internal/fetch"
	"github.com/polymarket-surveillance/insider-detector/internal/fetch/centralapi"
)

// marketsFetcher adapts centralapi.Client's distinctly-named FetchMarketsPage
// to the generic fetch.PagedFetcher interface DrainPages expects.
type marketsFetcher struct {
	client *centralapi.Client
}

func (f marketsFetcher) FetchPage(ctx context.Context, offset, limit int, filters fetch.Filters) (fetch.Page, error) {
	return f.client.FetchMarketsPage(ctx, offset, limit, filters)
}

// SyncMarkets pages through Gamma's /markets and upserts every one, the
// operator surface's "sync markets" command.
// One malformed record is skipped rather than aborting the sync, matching
// the per-record isolation the trade-ingestion paths already use.
func (ing *Ingestor) SyncMarkets(ctx context.Context, pageSize, maxItems int) errs.Summary {
	var summary errs.Summary
	if ing.centralapi == nil {
		summary.AddError(fmt.Errorf("sync markets: no central API client configured"))
		return summary
	}

	records, err := fetch.DrainPages(ctx, marketsFetcher{ing.centralapi}, pageSize, maxItems, fetch.Filters{})
	if err != nil {
		summary.AddError(fmt.Errorf("draining markets pages: %w", err))
	}

	for _, raw := range records {
		gm, err := gammaMarketFromRaw(raw)
		if err != nil {
			summary.Skipped++
			summary.AddError(err)
			continue
		}
		m := marketFromGamma(gm)
		if _, err := ing.store.UpsertMarket(ctx, m); err != nil {
			summary.Skipped++
			summary.AddError(fmt.Errorf("upserting market %s: %w", m.ConditionID, err))
			continue
		}
		summary.Updated++
	}
	return summary
}

func gammaMarketFromRaw(raw fetch.RawRecord) (*centralapi.GammaMarket, error) {
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshaling raw market record: %w", err)
	}
	var gm centralapi.GammaMarket
	if err := json.Unmarshal(encoded, &gm); err != nil {
		return nil, fmt.Errorf("unmarshaling gamma market: %w", err)
	}
	return &gm, nil
}
