package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/polymarket-surveillance/insider-detector/internal/errs"
	"github.com/polymarket-surveillance/insider-detector/internal/fetch"
	"github.com/polymarket-surveillance/insider-detector/internal/models"
)

// centralTradeEvent is the shape of a raw /trades or /activity record,
// field names matching Polymarket's Data API verbatim.
type centralTradeEvent struct {
	ProxyWallet     string
	Side            string
	Size            float64
	Price           float64
	USDCSize        float64
	Timestamp       int64
	ConditionID     string
	Outcome         string
	OutcomeIndex    int
	TransactionHash string
}

func parseCentralTradeEvent(raw fetch.RawRecord) (centralTradeEvent, error) {
	var e centralTradeEvent
	e.ProxyWallet, _ = raw["proxyWallet"].(string)
	e.Side, _ = raw["side"].(string)
	e.Size, _ = toFloat(raw["size"])
	e.Price, _ = toFloat(raw["price"])
	e.USDCSize, _ = toFloat(raw["usdcSize"])
	ts, _ := toFloat(raw["timestamp"])
	e.Timestamp = int64(ts)
	e.ConditionID, _ = raw["conditionId"].(string)
	e.Outcome, _ = raw["outcome"].(string)
	idx, _ := toFloat(raw["outcomeIndex"])
	e.OutcomeIndex = int(idx)
	e.TransactionHash, _ = raw["transactionHash"].(string)

	if e.ProxyWallet == "" || e.ConditionID == "" || e.TransactionHash == "" {
		return e, errs.NewValidation("trade event missing proxyWallet/conditionId/transactionHash")
	}
	if e.USDCSize == 0 {
		e.USDCSize = e.Size * e.Price
	}
	return e, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%f", &f); err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// IngestCentralTradeRecord implements the centralized-API ingest path:
// ensure wallet, ensure market, compute derived fields, upsert trade.
func (ing *Ingestor) IngestCentralTradeRecord(ctx context.Context, raw fetch.RawRecord) (*Result, error) {
	evt, err := parseCentralTradeEvent(raw)
	if err != nil {
		return nil, err
	}

	tradeTime := time.Unix(evt.Timestamp, 0).UTC()

	if err := ing.store.EnsureWalletSeen(ctx, evt.ProxyWallet, tradeTime); err != nil {
		return nil, fmt.Errorf("ensuring wallet %s: %w", evt.ProxyWallet, err)
	}
	wallet, err := ing.store.GetWalletByAddress(ctx, evt.ProxyWallet)
	if err != nil {
		return nil, fmt.Errorf("reading wallet %s after ensure: %w", evt.ProxyWallet, err)
	}

	market, err := ing.ensureMarketByConditionID(ctx, evt.ConditionID)
	if err != nil {
		return nil, fmt.Errorf("ensuring market %s: %w", evt.ConditionID, err)
	}

	side := models.SideBuy
	if evt.Side == string(models.SideSell) {
		side = models.SideSell
	}

	ageDays := wallet.AgeDays(tradeTime)
	tradeCount := wallet.TotalTrades

	trade := &models.Trade{
		TransactionHash: evt.TransactionHash,
		MarketID:        market.ID,
		WalletAddress:   evt.ProxyWallet,
		ConditionID:     evt.ConditionID,
		Side:            side,
		Outcome:         evt.Outcome,
		OutcomeIndex:    evt.OutcomeIndex,
		Size:            evt.Size,
		Price:           evt.Price,
		USDCSize:        evt.USDCSize,
		TradeTimestamp:  tradeTime,
		WalletAgeDays:   &ageDays,
		WalletTradeCount: &tradeCount,
		PriceExtremity:  models.PriceExtremity(evt.Price),
		Meta:            map[string]any{"source": "central_api"},
	}

	if market.ResolvedOutcome != nil {
		hours := models.HoursBeforeResolution(resolutionTimeOf(market), tradeTime)
		trade.HoursBeforeResolution = &hours
		wasCorrect, pnl := models.EvaluateOutcome(side, evt.Outcome, *market.ResolvedOutcome, evt.Size, evt.Price)
		trade.WasCorrect = &wasCorrect
		trade.ProfitLoss = &pnl
	}

	id, wasNew, err := ing.store.UpsertTrade(ctx, trade)
	if err != nil {
		return nil, fmt.Errorf("upserting trade %s: %w", evt.TransactionHash, err)
	}
	trade.ID = id

	return &Result{OK: true, Inserted: wasNew, Trade: trade, Wallet: wallet}, nil
}

// ensureMarketByConditionID looks the market up locally; on a miss it fetches
// metadata from the centralized API and upserts a canonical market row.
func (ing *Ingestor) ensureMarketByConditionID(ctx context.Context, conditionID string) (*models.Market, error) {
	market, err := ing.store.GetMarketByConditionID(ctx, conditionID)
	if err == nil {
		return market, nil
	}
	if !errs.Is(err, errs.KindNotFound) {
		return nil, err
	}

	gm, err := ing.centralapi.GetMarketByConditionID(ctx, conditionID)
	if err != nil {
		return nil, fmt.Errorf("fetching market metadata for %s: %w", conditionID, err)
	}
	fresh := marketFromGamma(gm)
	id, err := ing.store.UpsertMarket(ctx, fresh)
	if err != nil {
		return nil, err
	}
	fresh.ID = id
	return fresh, nil
}

func resolutionTimeOf(m *models.Market) time.Time {
	if m.ResolutionDate != nil {
		return *m.ResolutionDate
	}
	if m.EndDate != nil {
		return *m.EndDate
	}
	return time.Now().UTC()
}
