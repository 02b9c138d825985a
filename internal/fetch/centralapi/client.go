// Package centralapi fetches from Polymarket's centralized Gamma/Data API
// through the fetch.PagedFetcher contract, talking to the same two base
// URLs for markets/events (gamma) and trades/activity/positions (data).
package centralapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/polymarket-surveillance/insider-detector/config"
	"github.com/polymarket-surveillance/insider-detector/internal/errs"
	"github.com/polymarket-surveillance/insider-detector/internal/fetch"
)

// Client talks to Polymarket's centralized Gamma and Data APIs.
type Client struct {
	logger       *zap.Logger
	httpClient   *http.Client
	gammaBaseURL string
	dataBaseURL  string
	maxRetries   int
}

// New constructs a Client from config, with the usual
// nil-logger-fallback idiom.
func New(logger *zap.Logger, cfg config.CentralAPIConfig) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		logger:       logger.Named("centralapi"),
		httpClient:   &http.Client{Timeout: cfg.RequestTimeout},
		gammaBaseURL: cfg.GammaAPIURL,
		dataBaseURL:  cfg.DataAPIURL,
		maxRetries:   cfg.MaxRetries,
	}
}

// WithProxy rewraps the client's HTTP transport to route through an egress
// proxy, bumping the timeout to 60s. The
// proxy itself is an external collaborator -- this is only the wiring seam.
func (c *Client) WithProxy(proxyURL string) error {
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return fmt.Errorf("parsing proxy url: %w", err)
	}
	c.httpClient = &http.Client{
		Timeout:   60 * time.Second,
		Transport: &http.Transport{Proxy: http.ProxyURL(parsed)},
	}
	return nil
}

// FetchTradesPage implements fetch.PagedFetcher against /trades.
func (c *Client) FetchTradesPage(ctx context.Context, offset, limit int, filters fetch.Filters) (fetch.Page, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	if filters.Maker != "" {
		q.Set("taker", filters.Maker)
	}
	if filters.TokenID != "" {
		q.Set("market", filters.TokenID)
	}
	var records []fetch.RawRecord
	if err := c.doGet(ctx, c.dataBaseURL+"/trades?"+q.Encode(), &records); err != nil {
		return fetch.Page{}, err
	}
	return fetch.Page{Records: records, Short: len(records) < limit}, nil
}

// FetchActivityPage implements fetch.PagedFetcher against /activity.
func (c *Client) FetchActivityPage(ctx context.Context, offset, limit int, filters fetch.Filters) (fetch.Page, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	if filters.Taker != "" {
		q.Set("user", filters.Taker)
	}
	var records []fetch.RawRecord
	if err := c.doGet(ctx, c.dataBaseURL+"/activity?"+q.Encode(), &records); err != nil {
		return fetch.Page{}, err
	}
	return fetch.Page{Records: records, Short: len(records) < limit}, nil
}

// FetchMarketsPage implements fetch.PagedFetcher against Gamma's /markets.
func (c *Client) FetchMarketsPage(ctx context.Context, offset, limit int, filters fetch.Filters) (fetch.Page, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	var records []fetch.RawRecord
	if err := c.doGet(ctx, c.gammaBaseURL+"/markets?"+q.Encode(), &records); err != nil {
		return fetch.Page{}, err
	}
	return fetch.Page{Records: records, Short: len(records) < limit}, nil
}

// GetMarketByConditionID fetches a single market's metadata by condition id.
func (c *Client) GetMarketByConditionID(ctx context.Context, conditionID string) (*GammaMarket, error) {
	var markets []GammaMarket
	q := url.Values{}
	q.Set("condition_ids", conditionID)
	if err := c.doGet(ctx, c.gammaBaseURL+"/markets?"+q.Encode(), &markets); err != nil {
		return nil, err
	}
	if len(markets) == 0 {
		return nil, errs.NewNotFound(fmt.Sprintf("market %s not found", conditionID))
	}
	return &markets[0], nil
}

// Probe implements healthmonitor.Prober with a cheap single-market lookup.
func (c *Client) Probe(ctx context.Context) error {
	var markets []GammaMarket
	q := url.Values{}
	q.Set("limit", "1")
	return c.doGet(ctx, c.gammaBaseURL+"/markets?"+q.Encode(), &markets)
}

func (c *Client) doGet(ctx context.Context, rawURL string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.NewTransport(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.NewTransport(fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return errs.NewRateLimited(fmt.Sprintf("rate limited fetching %s", rawURL))
	case resp.StatusCode == http.StatusNotFound:
		return errs.NewNotFound(fmt.Sprintf("not found: %s", rawURL))
	case resp.StatusCode/100 != 2:
		return errs.NewHTTPStatus(resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}
