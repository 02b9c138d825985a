package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/polymarket-surveillance/insider-detector/internal/errs"
	"github.com/polymarket-surveillance/insider-detector/internal/fetch"
	"github.com/polymarket-surveillance/insider-detector/internal/fetch/subgraph"
)

// tradesFetcher and activityFetcher adapt centralapi.Client's distinctly
// named page methods to fetch.PagedFetcher, the same pattern sync_markets.go
// uses for FetchMarketsPage.
type tradesFetcher struct{ ing *Ingestor }

func (f tradesFetcher) FetchPage(ctx context.Context, offset, limit int, filters fetch.Filters) (fetch.Page, error) {
	return f.ing.centralapi.FetchTradesPage(ctx, offset, limit, filters)
}

type activityFetcher struct{ ing *Ingestor }

func (f activityFetcher) FetchPage(ctx context.Context, offset, limit int, filters fetch.Filters) (fetch.Page, error) {
	return f.ing.centralapi.FetchActivityPage(ctx, offset, limit, filters)
}

type orderFilledFetcher struct{ ing *Ingestor }

func (f orderFilledFetcher) FetchPage(ctx context.Context, offset, limit int, filters fetch.Filters) (fetch.Page, error) {
	return f.ing.subgraph.FetchOrderFilledEventsPage(ctx, offset, limit, filters)
}

// Source selects which upstream the operator HTTP surface's "ingest recent
// trades" command pulls from.
type Source string

const (
	SourceCentralTrades   Source = "api_trades"
	SourceCentralActivity Source = "api_activity"
	SourceSubgraph        Source = "subgraph"
)

// IngestRecent drains one page set from the requested source and runs it
// through the matching per-record ingestion path, returning a combined batch
// summary. This is the manual, on-demand counterpart to whatever scheduled
// polling loop normally drives ingestion.
func (ing *Ingestor) IngestRecent(ctx context.Context, source string, pageSize, maxItems int) errs.Summary {
	var summary errs.Summary

	switch Source(source) {
	case SourceCentralActivity:
		if ing.centralapi == nil {
			summary.AddError(fmt.Errorf("ingest recent: no central API client configured"))
			return summary
		}
		records, err := fetch.DrainPages(ctx, activityFetcher{ing}, pageSize, maxItems, fetch.Filters{})
		if err != nil {
			summary.AddError(fmt.Errorf("draining activity pages: %w", err))
		}
		page := fetch.Page{Records: records}
		return mergeSummary(summary, ing.IngestCentralTradePage(ctx, page))

	case SourceSubgraph:
		if ing.subgraph == nil {
			summary.AddError(fmt.Errorf("ingest recent: no subgraph client configured"))
			return summary
		}
		records, err := fetch.DrainPages(ctx, orderFilledFetcher{ing}, pageSize, maxItems, fetch.Filters{})
		if err != nil {
			summary.AddError(fmt.Errorf("draining orderFilledEvents pages: %w", err))
		}
		events, convErr := orderFilledEventsFromRaw(records)
		summary.Skipped += convErr
		return mergeSummary(summary, ing.IngestOrderFilledEventsPage(ctx, events))

	default: // SourceCentralTrades is the default path.
		if ing.centralapi == nil {
			summary.AddError(fmt.Errorf("ingest recent: no central API client configured"))
			return summary
		}
		records, err := fetch.DrainPages(ctx, tradesFetcher{ing}, pageSize, maxItems, fetch.Filters{})
		if err != nil {
			summary.AddError(fmt.Errorf("draining trades pages: %w", err))
		}
		page := fetch.Page{Records: records}
		return mergeSummary(summary, ing.IngestCentralTradePage(ctx, page))
	}
}

func orderFilledEventsFromRaw(records []fetch.RawRecord) ([]subgraph.OrderFilledEvent, int) {
	var skipped int
	events := make([]subgraph.OrderFilledEvent, 0, len(records))
	for _, raw := range records {
		encoded, err := json.Marshal(raw)
		if err != nil {
			skipped++
			continue
		}
		var e subgraph.OrderFilledEvent
		if err := json.Unmarshal(encoded, &e); err != nil {
			skipped++
			continue
		}
		events = append(events, e)
	}
	return events, skipped
}

// mergeSummary folds a drain-phase summary (errors collected before any
// record was ingested) into the per-record ingestion summary that follows.
func mergeSummary(drain, ingested errs.Summary) errs.Summary {
	ingested.Inserted += drain.Inserted
	ingested.Updated += drain.Updated
	ingested.Skipped += drain.Skipped
	ingested.Errors = append(ingested.Errors, drain.Errors...)
	return ingested
}
