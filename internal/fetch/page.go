// Package fetch defines the paginated-fetch contract both collectors share:
// given (offset, page_size) return a page of raw
// JSON records or an error, classified via internal/errs.
package fetch

import "context"

// Page is one page of raw external records plus a short-page signal.
type Page struct {
	Records []RawRecord
	// Short reports whether this page had fewer records than requested --
	// the driver's end-of-data signal.
	Short bool
}

// RawRecord is a single opaque external JSON object, forwarded to the
// ingestor untouched.
type RawRecord = map[string]any

// Filters narrows a page request. Fields are optional; zero values mean
// "unfiltered" for that dimension.
type Filters struct {
	FromTS  int64
	ToTS    int64
	TokenID string
	Maker   string
	Taker   string
}

// PagedFetcher is the capability both the centralized-API and subgraph
// fetchers implement.
type PagedFetcher interface {
	FetchPage(ctx context.Context, offset, limit int, filters Filters) (Page, error)
}

// DrainPages repeatedly calls fetch.FetchPage until a short page is
// returned or maxItems is reached, returning all records collected so far
// even on a late failure.
func DrainPages(ctx context.Context, fetcher PagedFetcher, pageSize, maxItems int, filters Filters) ([]RawRecord, error) {
	var out []RawRecord
	offset := 0
	for maxItems <= 0 || len(out) < maxItems {
		limit := pageSize
		if maxItems > 0 && len(out)+limit > maxItems {
			limit = maxItems - len(out)
		}
		page, err := fetcher.FetchPage(ctx, offset, limit, filters)
		if err != nil {
			return out, err
		}
		out = append(out, page.Records...)
		if page.Short || len(page.Records) == 0 {
			break
		}
		offset += len(page.Records)
	}
	return out, nil
}
