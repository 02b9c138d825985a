package snapshot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/polymarket-surveillance/insider-detector/config"
)

// testTransport rewrites requests to go to the test server, a way to stub
// apiBaseURL without making it injectable.
type testTransport struct {
	baseURL string
}

func (t *testTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	req.URL.Host = t.baseURL[len("http://"):]
	return http.DefaultTransport.RoundTrip(req)
}

func newTestClient(server *httptest.Server, cfg config.SnapshotConfig) *Client {
	c := New(nil, cfg)
	c.httpClient = &http.Client{Transport: &testTransport{baseURL: server.URL}}
	return c
}

func TestIsEnabled(t *testing.T) {
	cases := []struct {
		name  string
		token string
		want  bool
	}{
		{"with token", "tok", true},
		{"empty token", "", false},
	}
	for _, tc := range cases {
		c := New(nil, config.SnapshotConfig{Token: tc.token})
		if c.IsEnabled() != tc.want {
			t.Errorf("%s: IsEnabled() = %v, want %v", tc.name, c.IsEnabled(), tc.want)
		}
	}
}

func TestGetGistID(t *testing.T) {
	c := New(nil, config.SnapshotConfig{Token: "tok", GistID: "abc123"})
	if got := c.GetGistID(); got != "abc123" {
		t.Errorf("GetGistID() = %q, want %q", got, "abc123")
	}
}

func TestSaveJSON_Disabled(t *testing.T) {
	c := New(nil, config.SnapshotConfig{})
	if err := c.SaveJSON(context.Background(), "state.json", map[string]int{"a": 1}); err == nil {
		t.Error("expected error when client is disabled")
	}
}

func TestSaveJSON_UpdatesExistingGist(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("expected PATCH, got %s", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Error("missing or invalid authorization header")
		}
		if r.Header.Get("X-GitHub-Api-Version") != "2022-11-28" {
			t.Error("missing or invalid api version header")
		}

		var req gistRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if _, ok := req.Files["state.json"]; !ok {
			t.Error("expected state.json in request files")
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(gist{ID: "existing-id", Files: req.Files})
	}))
	defer server.Close()

	c := newTestClient(server, config.SnapshotConfig{Token: "test-token", GistID: "existing-id"})
	if err := c.SaveJSON(context.Background(), "state.json", map[string]int{"a": 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.GetGistID() != "existing-id" {
		t.Errorf("expected gist id to stay existing-id, got %s", c.GetGistID())
	}
}

func TestSaveJSON_CreatesNewGist(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(gist{ID: "brand-new-id"})
	}))
	defer server.Close()

	c := newTestClient(server, config.SnapshotConfig{Token: "test-token"})
	if err := c.SaveJSON(context.Background(), "state.json", map[string]int{"a": 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.GetGistID() != "brand-new-id" {
		t.Errorf("expected captured gist id brand-new-id, got %s", c.GetGistID())
	}
}

func TestSaveJSON_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	c := newTestClient(server, config.SnapshotConfig{Token: "test-token", GistID: "x"})
	if err := c.SaveJSON(context.Background(), "state.json", map[string]int{"a": 1}); err == nil {
		t.Error("expected error on API failure")
	}
}

func TestLoadJSON_NoGistConfigured(t *testing.T) {
	c := New(nil, config.SnapshotConfig{Token: "test-token"})
	var dest map[string]int
	if err := c.LoadJSON(context.Background(), "state.json", &dest); err == nil {
		t.Error("expected error when no gist id is configured")
	}
}

func TestLoadJSON_RoundTrips(t *testing.T) {
	type state struct {
		Count int `json:"count"`
	}
	want := state{Count: 7}
	encoded, _ := json.Marshal(want)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		json.NewEncoder(w).Encode(gist{
			ID:    "existing-id",
			Files: map[string]gistFile{"state.json": {Content: string(encoded)}},
		})
	}))
	defer server.Close()

	c := newTestClient(server, config.SnapshotConfig{Token: "test-token", GistID: "existing-id"})
	var got state
	if err := c.LoadJSON(context.Background(), "state.json", &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("LoadJSON() = %+v, want %+v", got, want)
	}
}

func TestLoadJSON_MissingFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(gist{ID: "existing-id", Files: map[string]gistFile{}})
	}))
	defer server.Close()

	c := newTestClient(server, config.SnapshotConfig{Token: "test-token", GistID: "existing-id"})
	var dest map[string]int
	if err := c.LoadJSON(context.Background(), "state.json", &dest); err == nil {
		t.Error("expected error for missing file in gist")
	}
}
