package ingest

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/polymarket-surveillance/insider-detector/internal/fetch/subgraph"
	"github.com/polymarket-surveillance/insider-detector/internal/models"
	"github.com/polymarket-surveillance/insider-detector/internal/tokenmap"
)

// stubOutcomes is the placeholder outcome pair a synthetic stub market is
// created with.
var stubOutcomes = []string{"Yes", "No"}

// IngestOrderFilledEvent implements the subgraph ingest path.
func (ing *Ingestor) IngestOrderFilledEvent(ctx context.Context, evt subgraph.OrderFilledEvent) (*Result, error) {
	side, wallet, tokenID := classifyOrderFilledEvent(evt)

	market, outcomeIndex, err := ing.resolveOrCreateStub(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("resolving token %s: %w", tokenID, err)
	}

	makerAmount := parseWeiAmount(evt.MakerAmountFilled)
	takerAmount := parseWeiAmount(evt.TakerAmountFilled)

	var size, usdcSize float64
	if side == models.SideSell {
		size = makerAmount
		usdcSize = takerAmount
	} else {
		size = takerAmount
		usdcSize = makerAmount
	}

	price := 0.0
	if size != 0 {
		price = roundTo4(usdcSize / size)
	}

	outcome := "No"
	if outcomeIndex == 0 {
		outcome = "Yes"
	}

	ts, _ := strconv.ParseInt(evt.Timestamp, 10, 64)
	tradeTime := time.Unix(ts, 0).UTC()

	if err := ing.store.EnsureWalletSeen(ctx, wallet, tradeTime); err != nil {
		return nil, fmt.Errorf("ensuring wallet %s: %w", wallet, err)
	}
	walletRow, err := ing.store.GetWalletByAddress(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("reading wallet %s after ensure: %w", wallet, err)
	}
	ageDays := walletRow.AgeDays(tradeTime)
	tradeCount := walletRow.TotalTrades

	trade := &models.Trade{
		TransactionHash:  txHashFromEventID(evt.ID),
		MarketID:         market.ID,
		WalletAddress:    wallet,
		ConditionID:      market.ConditionID,
		Side:             side,
		Outcome:          outcome,
		OutcomeIndex:     outcomeIndex,
		Size:             size,
		Price:            price,
		USDCSize:         usdcSize,
		TradeTimestamp:   tradeTime,
		WalletAgeDays:    &ageDays,
		WalletTradeCount: &tradeCount,
		PriceExtremity:   models.PriceExtremity(price),
		Meta:             map[string]any{"source": "subgraph", "token_id": tokenID},
	}

	if market.ResolvedOutcome != nil {
		hours := models.HoursBeforeResolution(resolutionTimeOf(market), tradeTime)
		trade.HoursBeforeResolution = &hours
		wasCorrect, pnl := models.EvaluateOutcome(side, outcome, *market.ResolvedOutcome, size, price)
		trade.WasCorrect = &wasCorrect
		trade.ProfitLoss = &pnl
	}

	id, wasNew, err := ing.store.UpsertTrade(ctx, trade)
	if err != nil {
		return nil, fmt.Errorf("upserting subgraph trade %s: %w", trade.TransactionHash, err)
	}
	trade.ID = id

	return &Result{OK: true, Inserted: wasNew, Trade: trade, Wallet: walletRow}, nil
}

// classifyOrderFilledEvent determines side and wallet from the raw event:
// makerAssetId != "0" means the maker is selling the outcome
// token (side SELL, wallet = maker); otherwise the taker is buying with an
// outcome token (side BUY, wallet = taker). The position token id is
// whichever of makerAssetId/takerAssetId is non-zero.
func classifyOrderFilledEvent(evt subgraph.OrderFilledEvent) (side models.Side, wallet, tokenID string) {
	if evt.MakerAssetID != "0" {
		return models.SideSell, evt.Maker, evt.MakerAssetID
	}
	return models.SideBuy, evt.Taker, evt.TakerAssetID
}

// parseWeiAmount divides a wei-denominated amount string down to USDC's
// 6-decimal scale.
func parseWeiAmount(raw string) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v / usdcDecimalScale
}

// txHashFromEventID derives a transaction hash from the orderFilledEvents
// entity id, which the subgraph already composes from the underlying tx
// hash plus a log index.
func txHashFromEventID(eventID string) string {
	return eventID
}

// resolveOrCreateStub resolves a token id via the local map, then the
// subgraph map, then falls back to synthetic stub creation.
func (ing *Ingestor) resolveOrCreateStub(ctx context.Context, tokenID string) (*models.Market, int, error) {
	if entry, ok := tokenmap.Lookup(ing.localMapping, tokenID); ok {
		m, err := ing.store.GetMarketByConditionID(ctx, entry.ConditionID)
		if err == nil {
			return m, entry.OutcomeIndex, nil
		}
	}

	if entry, ok := tokenmap.Lookup(ing.subgraphMapping, tokenID); ok {
		m, err := ing.store.GetMarketByConditionID(ctx, entry.ConditionID)
		if err == nil {
			return m, entry.OutcomeIndex, nil
		}
		// Subgraph knows the condition id but we have no local row for it
		// yet: create a stub keyed on the real condition id so a later
		// enrichment pass finds it by condition_id directly.
		stub := newStubMarket(entry.ConditionID)
		id, err := ing.store.UpsertMarket(ctx, stub)
		if err != nil {
			return nil, 0, err
		}
		stub.ID = id
		return stub, entry.OutcomeIndex, nil
	}

	synthetic := syntheticConditionID(tokenID)
	existing, err := ing.store.GetMarketByConditionID(ctx, synthetic)
	if err == nil {
		return existing, 0, nil
	}
	stub := newStubMarket(synthetic)
	id, err := ing.store.UpsertMarket(ctx, stub)
	if err != nil {
		return nil, 0, err
	}
	stub.ID = id
	return stub, 0, nil
}

// syntheticConditionID builds the placeholder condition id for a token we
// cannot yet resolve: "token_" + token_id[:32].
func syntheticConditionID(tokenID string) string {
	cut := tokenID
	if len(cut) > 32 {
		cut = cut[:32]
	}
	return models.StubConditionPrefix + cut
}

func newStubMarket(conditionID string) *models.Market {
	return &models.Market{
		ConditionID:  conditionID,
		Question:     "unresolved market (pending enrichment)",
		Outcomes:     stubOutcomes,
		Category:     models.CategoryOther,
		IsActive:     true,
		LastSyncedAt: time.Now().UTC(),
		Meta:         map[string]any{"needs_metadata": true},
	}
}
