package ingest

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/polymarket-surveillance/insider-detector/internal/errs"
	"github.com/polymarket-surveillance/insider-detector/internal/fetch"
	"github.com/polymarket-surveillance/insider-detector/internal/fetch/subgraph"
)

// defaultConcurrentRecords bounds the worker pool processing records within
// one fetched page when config.IngestConfig.Workers isn't set.
const defaultConcurrentRecords = 8

func (ing *Ingestor) workerLimit() int {
	if ing.cfg.Workers > 0 {
		return ing.cfg.Workers
	}
	return defaultConcurrentRecords
}

// IngestCentralTradePage runs IngestCentralTradeRecord over every record in
// a page concurrently, bounded by workerLimit(). One malformed record
// increments the skip counter rather than aborting the page.
func (ing *Ingestor) IngestCentralTradePage(ctx context.Context, page fetch.Page) errs.Summary {
	var summary errs.Summary
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ing.workerLimit())

	for _, rec := range page.Records {
		rec := rec
		g.Go(func() error {
			result, err := ing.IngestCentralTradeRecord(gctx, rec)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Skipped++
				summary.AddError(err)
				return nil // per-record isolation: never abort the page
			}
			if result.Inserted {
				summary.Inserted++
			} else {
				summary.Updated++
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return a non-nil error, so this can't fail
	return summary
}

// IngestOrderFilledEventsPage is the subgraph-path equivalent of
// IngestCentralTradePage.
func (ing *Ingestor) IngestOrderFilledEventsPage(ctx context.Context, events []subgraph.OrderFilledEvent) errs.Summary {
	var summary errs.Summary
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ing.workerLimit())

	for _, evt := range events {
		evt := evt
		g.Go(func() error {
			result, err := ing.IngestOrderFilledEvent(gctx, evt)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Skipped++
				summary.AddError(err)
				return nil
			}
			if result.Inserted {
				summary.Inserted++
			} else {
				summary.Updated++
			}
			return nil
		})
	}
	_ = g.Wait()
	return summary
}
