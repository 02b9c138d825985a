// Package snapshot is the remote settings/state backup store
// config.SettingsManager depends on through the config.GistStorage
// interface: a GitHub gist holding the latest config.SettingsSnapshot JSON
// blob, using the GitHub Gist API's create-if-absent/PATCH-if-present
// semantics.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/polymarket-surveillance/insider-detector/config"
)

const apiBaseURL = "https://api.github.com"

// Client implements config.GistStorage against the GitHub Gist API.
type Client struct {
	logger     *zap.Logger
	httpClient *http.Client
	token      string
	gistID     string // if set, updates this gist; otherwise creates a new one
}

// gistFile is one file in a gist.
type gistFile struct {
	Content string `json:"content"`
}

// gist is a GitHub gist, decoded from the API response.
type gist struct {
	ID    string              `json:"id"`
	Files map[string]gistFile `json:"files"`
}

// gistRequest is the request body for creating/updating a gist.
type gistRequest struct {
	Description string              `json:"description,omitempty"`
	Public      bool                `json:"public"`
	Files       map[string]gistFile `json:"files"`
}

var _ config.GistStorage = (*Client)(nil)

// New constructs a Client from config.SnapshotConfig.
func New(logger *zap.Logger, cfg config.SnapshotConfig) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Token == "" {
		logger.Warn("snapshot github token not set, snapshot storage will be disabled")
	}
	return &Client{
		logger:     logger.Named("snapshot"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      cfg.Token,
		gistID:     cfg.GistID,
	}
}

// IsEnabled reports whether a token was configured.
func (c *Client) IsEnabled() bool {
	return c.token != ""
}

// GetGistID returns the gist currently in use, empty until the first Save
// creates one.
func (c *Client) GetGistID() string {
	return c.gistID
}

// SaveJSON marshals data and writes it to filename in the configured gist,
// creating the gist on first use.
func (c *Client) SaveJSON(ctx context.Context, filename string, data any) error {
	if !c.IsEnabled() {
		return fmt.Errorf("snapshot client not configured")
	}
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return c.save(ctx, filename, string(encoded))
}

func (c *Client) save(ctx context.Context, filename, content string) error {
	reqBody := gistRequest{
		Description: "insider-detector snapshot",
		Public:      false,
		Files:       map[string]gistFile{filename: {Content: content}},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := apiBaseURL + "/gists"
	method := http.MethodPost
	if c.gistID != "" {
		url = apiBaseURL + "/gists/" + c.gistID
		method = http.MethodPatch
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api error status=%d body=%s", resp.StatusCode, string(raw))
	}

	if c.gistID == "" {
		var g gist
		if err := json.NewDecoder(resp.Body).Decode(&g); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		c.gistID = g.ID
		c.logger.Info("created new snapshot gist", zap.String("id", g.ID))
	}

	c.logger.Debug("saved snapshot", zap.String("filename", filename), zap.Int("bytes", len(content)))
	return nil
}

// LoadJSON reads filename from the configured gist and unmarshals it into
// dest.
func (c *Client) LoadJSON(ctx context.Context, filename string, dest any) error {
	if !c.IsEnabled() {
		return fmt.Errorf("snapshot client not configured")
	}
	if c.gistID == "" {
		return fmt.Errorf("no gist id configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBaseURL+"/gists/"+c.gistID, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("snapshot gist not found")
	}
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api error status=%d body=%s", resp.StatusCode, string(raw))
	}

	var g gist
	if err := json.NewDecoder(resp.Body).Decode(&g); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	file, ok := g.Files[filename]
	if !ok {
		return fmt.Errorf("file %q not found in snapshot gist", filename)
	}
	if err := json.Unmarshal([]byte(file.Content), dest); err != nil {
		return fmt.Errorf("unmarshal json: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
}
