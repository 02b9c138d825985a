package httpapi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/polymarket-surveillance/insider-detector/config"
	"github.com/polymarket-surveillance/insider-detector/internal/errs"
	"github.com/polymarket-surveillance/insider-detector/internal/models"
)

func TestWriteError_MapsKindsToStatusCodes(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errs.NewNotFound("x"), http.StatusNotFound},
		{errs.NewValidation("x"), http.StatusBadRequest},
		{errs.NewConflict("x"), http.StatusConflict},
		{errs.NewInsufficientData("x"), http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, tc.err)
		if rec.Code != tc.want {
			t.Errorf("writeError(%v) = %d, want %d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestPathID_ParsesRouteVar(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/candidates/42/assign", nil)
	req = muxSetVars(req, map[string]string{"id": "42"})
	id, err := pathID(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 42 {
		t.Errorf("expected id 42, got %d", id)
	}
}

func TestPathID_RejectsNonNumeric(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/candidates/abc/assign", nil)
	req = muxSetVars(req, map[string]string{"id": "abc"})
	if _, err := pathID(req); !errs.Is(err, errs.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func muxSetVars(r *http.Request, vars map[string]string) *http.Request {
	return mux.SetURLVars(r, vars)
}

func TestUniqueMarketIDs_DedupsPreservingFirstSeen(t *testing.T) {
	trades := []*models.Trade{
		{ID: 1, MarketID: 10},
		{ID: 2, MarketID: 20},
		{ID: 3, MarketID: 10},
	}
	got := uniqueMarketIDs(trades)
	if len(got) != 2 {
		t.Fatalf("expected 2 unique market ids, got %v", got)
	}
	if got[0] != 10 || got[1] != 20 {
		t.Errorf("expected [10, 20], got %v", got)
	}
}

func TestHandlers_ServiceUnavailableWhenDependencyMissing(t *testing.T) {
	s := New(config.OperatorHTTPConfig{Enabled: true}, nil, nil, nil, nil, nil, nil, nil, nil, nil)
	r := mux.NewRouter()
	s.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 for unconfigured health monitor, got %d", rec.Code)
	}
}
