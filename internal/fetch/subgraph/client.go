package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/polymarket-surveillance/insider-detector/config"
	"github.com/polymarket-surveillance/insider-detector/internal/errs"
	"github.com/polymarket-surveillance/insider-detector/internal/fetch"
)

// Client queries the Polymarket matic-markets subgraph over plain HTTP
// POST, composing bodies with the handwritten builders in query.go.
type Client struct {
	logger     *zap.Logger
	httpClient *http.Client
	endpoint   string
}

// New constructs a Client from config.
func New(logger *zap.Logger, cfg config.SubgraphConfig) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		logger:     logger.Named("subgraph"),
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		endpoint:   cfg.Endpoint,
	}
}

// OrderFilledEvent is one fill record from the subgraph.
type OrderFilledEvent struct {
	ID                string `json:"id"`
	TransactionHash   string `json:"transactionHash"`
	Timestamp         string `json:"timestamp"`
	Maker             string `json:"maker"`
	Taker             string `json:"taker"`
	MakerAssetID      string `json:"makerAssetId"`
	TakerAssetID      string `json:"takerAssetId"`
	MakerAmountFilled string `json:"makerAmountFilled"`
	TakerAmountFilled string `json:"takerAmountFilled"`
}

// FetchOrderFilledEventsPage implements fetch.PagedFetcher over
// orderFilledEvents.
func (c *Client) FetchOrderFilledEventsPage(ctx context.Context, offset, limit int, filters fetch.Filters) (fetch.Page, error) {
	body := orderFilledEventsQuery(limit, offset, filters.FromTS, filters.ToTS, filters.TokenID, filters.Maker, filters.Taker, "timestamp", "asc")
	var resp struct {
		Data struct {
			OrderFilledEvents []OrderFilledEvent `json:"orderFilledEvents"`
		} `json:"data"`
	}
	if err := c.doQuery(ctx, body, &resp); err != nil {
		return fetch.Page{}, err
	}
	records := make([]fetch.RawRecord, 0, len(resp.Data.OrderFilledEvents))
	for _, e := range resp.Data.OrderFilledEvents {
		b, _ := json.Marshal(e)
		var m fetch.RawRecord
		_ = json.Unmarshal(b, &m)
		records = append(records, m)
	}
	return fetch.Page{Records: records, Short: len(records) < limit}, nil
}

// MarketData is one marketDatas entity row.
type MarketData struct {
	ID           string `json:"id"`
	ConditionID  string `json:"condition_id"`
	OutcomeIndex int    `json:"outcomeIndex"`
}

// FetchMarketDatasPage paginates the marketDatas entity.
func (c *Client) FetchMarketDatasPage(ctx context.Context, offset, limit int) ([]MarketData, bool, error) {
	body := marketDatasQuery(limit, offset)
	var resp struct {
		Data struct {
			MarketDatas []struct {
				ID        string `json:"id"`
				Condition struct {
					ID string `json:"id"`
				} `json:"condition"`
				OutcomeIndex int `json:"outcomeIndex"`
			} `json:"marketDatas"`
		} `json:"data"`
	}
	if err := c.doQuery(ctx, body, &resp); err != nil {
		return nil, false, err
	}
	out := make([]MarketData, 0, len(resp.Data.MarketDatas))
	for _, m := range resp.Data.MarketDatas {
		out = append(out, MarketData{ID: m.ID, ConditionID: m.Condition.ID, OutcomeIndex: m.OutcomeIndex})
	}
	return out, len(out) < limit, nil
}

// Probe implements healthmonitor.Prober with a cheap _meta query.
func (c *Client) Probe(ctx context.Context) error {
	var resp struct {
		Data struct {
			Meta struct {
				HasIndexingErrors bool `json:"hasIndexingErrors"`
			} `json:"_meta"`
		} `json:"data"`
	}
	if err := c.doQuery(ctx, metaQuery(), &resp); err != nil {
		return err
	}
	if resp.Data.Meta.HasIndexingErrors {
		return errs.NewTransport(fmt.Errorf("subgraph reports indexing errors"))
	}
	return nil
}

func (c *Client) doQuery(ctx context.Context, query string, dest any) error {
	payload := map[string]any{"query": query}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling graphql body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.NewTransport(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.NewTransport(fmt.Errorf("reading response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return errs.NewRateLimited("subgraph rate limited")
	case resp.StatusCode == http.StatusNotFound:
		return errs.NewNotFound("subgraph endpoint not found")
	case resp.StatusCode/100 != 2:
		return errs.NewHTTPStatus(resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, dest); err != nil {
		return fmt.Errorf("decoding graphql response: %w", err)
	}
	return nil
}
