package ingest

import (
	"context"
	"fmt"

	"github.com/polymarket-surveillance/insider-detector/internal/errs"
	"github.com/polymarket-surveillance/insider-detector/internal/models"
)

// EnrichStub resolves a stub market's token id to a real condition id
// (fetched from the centralized API) and runs the market-merge algorithm:
//
//   - if a canonical market already exists with that condition id and has
//     metadata, re-parent the stub's trades onto it and delete the stub;
//   - otherwise rewrite the stub's own condition_id to the canonical value.
func (ing *Ingestor) EnrichStub(ctx context.Context, stub *models.Market, canonicalConditionID string) error {
	if !stub.IsStub() {
		return errs.NewValidation(fmt.Sprintf("market %d is not a stub", stub.ID))
	}

	canonical, err := ing.store.GetMarketByConditionID(ctx, canonicalConditionID)
	if err != nil {
		if !errs.Is(err, errs.KindNotFound) {
			return fmt.Errorf("looking up canonical market %s: %w", canonicalConditionID, err)
		}
		// No canonical row yet: the stub becomes canonical in place, then
		// picks up real metadata if the centralized API has it.
		if err := ing.store.RewriteStubConditionID(ctx, stub.ID, canonicalConditionID); err != nil {
			return fmt.Errorf("rewriting stub %d condition id: %w", stub.ID, err)
		}
		if gm, gerr := ing.centralapi.GetMarketByConditionID(ctx, canonicalConditionID); gerr == nil {
			fresh := marketFromGamma(gm)
			if _, uerr := ing.store.UpsertMarket(ctx, fresh); uerr != nil {
				return fmt.Errorf("upserting enriched metadata for %s: %w", canonicalConditionID, uerr)
			}
		}
		return nil
	}

	if canonical.NeedsMetadata() {
		// The "canonical" row is itself still a stub -- nothing to merge
		// into yet; rewrite this stub's condition id instead so the two
		// stubs converge onto one row via the unique index's race-safe path.
		if err := ing.store.RewriteStubConditionID(ctx, stub.ID, canonicalConditionID); err != nil {
			return fmt.Errorf("rewriting stub %d condition id: %w", stub.ID, err)
		}
		return nil
	}

	if err := ing.store.MergeStubIntoCanonical(ctx, stub.ID, canonical.ID); err != nil {
		return fmt.Errorf("merging stub %d into canonical %d: %w", stub.ID, canonical.ID, err)
	}
	return nil
}

// EnrichAllStubs walks every stub market, fetches its real metadata from
// the centralized API by attempting each of its candidate token ids against
// the subgraph mapping, and merges resolvable ones. Returns a summary
// rather than failing the whole pass on one bad stub.
func (ing *Ingestor) EnrichAllStubs(ctx context.Context) (errs.Summary, error) {
	var summary errs.Summary

	stubs, err := ing.store.ListStubMarkets(ctx)
	if err != nil {
		return summary, fmt.Errorf("listing stub markets: %w", err)
	}

	for _, stub := range stubs {
		conditionID, resolved := ing.resolveStubConditionID(stub)
		if !resolved {
			summary.Skipped++
			continue
		}
		if err := ing.EnrichStub(ctx, stub, conditionID); err != nil {
			summary.AddError(err)
			continue
		}
		summary.Updated++
	}
	return summary, nil
}

// resolveStubConditionID checks whether the subgraph mapping now knows a
// real condition id for any token id embedded in the stub's synthetic id.
func (ing *Ingestor) resolveStubConditionID(stub *models.Market) (string, bool) {
	for tokenID, entry := range ing.subgraphMapping {
		if syntheticConditionID(tokenID) == stub.ConditionID {
			return entry.ConditionID, true
		}
	}
	return "", false
}
