// Package httpapi is the operator-facing HTTP command surface: a small set
// of POST endpoints that trigger the pipeline's batch operations by hand --
// sync markets, ingest a page, recompute baselines, score trades, run
// discovery, manage investigation candidates, run one feedback iteration --
// plus GET endpoints for system health and the candidate listing an
// investigator's dashboard would poll. A single Server, built by New, holds
// every dependency and registers all routes in RegisterRoutes(mux), built on
// gorilla/mux for path parameters and wrapped with rs/cors so an operator
// UI on a different origin can call it.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/polymarket-surveillance/insider-detector/config"
	"github.com/polymarket-surveillance/insider-detector/internal/baseline"
	"github.com/polymarket-surveillance/insider-detector/internal/discovery"
	"github.com/polymarket-surveillance/insider-detector/internal/errs"
	"github.com/polymarket-surveillance/insider-detector/internal/feedback"
	"github.com/polymarket-surveillance/insider-detector/internal/healthmonitor"
	"github.com/polymarket-surveillance/insider-detector/internal/ingest"
	"github.com/polymarket-surveillance/insider-detector/internal/investigation"
	"github.com/polymarket-surveillance/insider-detector/internal/models"
	"github.com/polymarket-surveillance/insider-detector/internal/scoring"
	"github.com/polymarket-surveillance/insider-detector/internal/store"
)

// Server wires every operator command into a gorilla/mux router.
type Server struct {
	cfg    config.OperatorHTTPConfig
	logger *zap.Logger

	store        *store.Store
	ingestor     *ingest.Ingestor
	baseline     *baseline.Engine
	scorer       *scoring.Scorer
	discovery    *discovery.Engine
	investigation *investigation.Engine
	feedback     *feedback.Engine
	health       *healthmonitor.Monitor
}

// New constructs a Server. Any dependency may be nil; its routes then answer
// 503 rather than panicking instead of crashing the process.
func New(
	cfg config.OperatorHTTPConfig,
	logger *zap.Logger,
	st *store.Store,
	ing *ingest.Ingestor,
	be *baseline.Engine,
	sc *scoring.Scorer,
	de *discovery.Engine,
	ie *investigation.Engine,
	fe *feedback.Engine,
	hm *healthmonitor.Monitor,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:           cfg,
		logger:        logger.Named("httpapi"),
		store:         st,
		ingestor:      ing,
		baseline:      be,
		scorer:        sc,
		discovery:     de,
		investigation: ie,
		feedback:      fe,
		health:        hm,
	}
}

// IsEnabled reports whether the operator HTTP surface should be started.
func (s *Server) IsEnabled() bool {
	return s.cfg.Enabled
}

// Handler builds the routed, CORS-wrapped http.Handler. Callers own binding
// it to a listener (cmd/surveillanced decides the address/port).
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.RegisterRoutes(r)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

// RegisterRoutes registers every operator command on mux.
func (s *Server) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/markets/sync", s.handleSyncMarkets).Methods(http.MethodPost)
	r.HandleFunc("/api/trades/ingest", s.handleIngestTrades).Methods(http.MethodPost)
	r.HandleFunc("/api/baselines/recompute", s.handleRecomputeBaselines).Methods(http.MethodPost)
	r.HandleFunc("/api/scores/recompute", s.handleScoreAll).Methods(http.MethodPost)
	r.HandleFunc("/api/discovery/run", s.handleRunDiscovery).Methods(http.MethodPost)
	r.HandleFunc("/api/candidates", s.handleListCandidates).Methods(http.MethodGet)
	r.HandleFunc("/api/candidates/{id}/assign", s.handleAssign).Methods(http.MethodPost)
	r.HandleFunc("/api/candidates/{id}/notes", s.handleAddNote).Methods(http.MethodPost)
	r.HandleFunc("/api/candidates/{id}/evidence", s.handleAddEvidence).Methods(http.MethodPost)
	r.HandleFunc("/api/candidates/{id}/resolve", s.handleResolve).Methods(http.MethodPost)
	r.HandleFunc("/api/candidates/{id}/dismiss", s.handleDismiss).Methods(http.MethodPost)
	r.HandleFunc("/api/candidates/{id}/profile", s.handleProfile).Methods(http.MethodGet)
	r.HandleFunc("/api/feedback/run", s.handleRunFeedback).Methods(http.MethodPost)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errs.Is(err, errs.KindNotFound):
		status = http.StatusNotFound
	case errs.Is(err, errs.KindValidation):
		status = http.StatusBadRequest
	case errs.Is(err, errs.KindConflict):
		status = http.StatusConflict
	case errs.Is(err, errs.KindInsufficientData):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errs.NewValidation("invalid candidate id " + raw)
	}
	return id, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "health monitor not configured"})
		return
	}
	writeJSON(w, http.StatusOK, s.health.HealthSummary())
}

func (s *Server) handleSyncMarkets(w http.ResponseWriter, r *http.Request) {
	if s.ingestor == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "ingestor not configured"})
		return
	}
	var req struct {
		PageSize int `json:"page_size"`
		MaxItems int `json:"max_items"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.PageSize <= 0 {
		req.PageSize = 100
	}
	summary := s.ingestor.SyncMarkets(r.Context(), req.PageSize, req.MaxItems)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleIngestTrades(w http.ResponseWriter, r *http.Request) {
	if s.ingestor == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "ingestor not configured"})
		return
	}
	var req struct {
		Source   string `json:"source"` // "api_trades" (default), "api_activity" or "subgraph"
		PageSize int    `json:"page_size"`
		MaxItems int    `json:"max_items"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.PageSize <= 0 {
		req.PageSize = 100
	}
	summary := s.ingestor.IngestRecent(r.Context(), req.Source, req.PageSize, req.MaxItems)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRecomputeBaselines(w http.ResponseWriter, r *http.Request) {
	if s.baseline == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "baseline engine not configured"})
		return
	}
	var req struct {
		Categories []models.Category `json:"categories"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	cats := req.Categories
	if len(cats) == 0 {
		cats = models.AllCategories
	}
	summary := s.baseline.RecomputeAll(r.Context(), cats)
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleScoreAll(w http.ResponseWriter, r *http.Request) {
	if s.scorer == nil || s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "scorer not configured"})
		return
	}
	trades, err := s.store.ListUnscoredTrades(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	marketIDs := uniqueMarketIDs(trades)
	markets, err := s.store.ListMarketsByIDs(r.Context(), marketIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	marketsByID := make(map[int64]*models.Market, len(markets))
	for _, m := range markets {
		marketsByID[m.ID] = m
	}
	summary := s.scorer.ScoreAllUnscored(r.Context(), trades, marketsByID)
	writeJSON(w, http.StatusOK, summary)
}

func uniqueMarketIDs(trades []*models.Trade) []int64 {
	seen := make(map[int64]struct{})
	var out []int64
	for _, t := range trades {
		if _, ok := seen[t.MarketID]; ok {
			continue
		}
		seen[t.MarketID] = struct{}{}
		out = append(out, t.MarketID)
	}
	return out
}

func (s *Server) handleRunDiscovery(w http.ResponseWriter, r *http.Request) {
	if s.discovery == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "discovery engine not configured"})
		return
	}
	var p discovery.Params
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, errs.NewValidation("invalid discovery params: "+err.Error()))
		return
	}
	result, err := s.discovery.Run(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "store not configured"})
		return
	}
	status := models.CandidateStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = models.StatusUndiscovered
	}
	candidates, err := s.store.ListCandidatesByStatus(r.Context(), status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	if s.investigation == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "investigation engine not configured"})
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Assignee string `json:"assignee"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.NewValidation("invalid body: "+err.Error()))
		return
	}
	c, err := s.investigation.Assign(r.Context(), id, req.Assignee)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleAddNote(w http.ResponseWriter, r *http.Request) {
	if s.investigation == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "investigation engine not configured"})
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.NewValidation("invalid body: "+err.Error()))
		return
	}
	c, err := s.investigation.AddNote(r.Context(), id, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleAddEvidence(w http.ResponseWriter, r *http.Request) {
	if s.investigation == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "investigation engine not configured"})
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Author string `json:"author"`
		Body   string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.NewValidation("invalid body: "+err.Error()))
		return
	}
	c, err := s.investigation.AddEvidence(r.Context(), id, req.Author, req.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if s.investigation == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "investigation engine not configured"})
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Tag                models.ResolutionTag `json:"tag"`
		ConfirmationSource string                `json:"confirmation_source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errs.NewValidation("invalid body: "+err.Error()))
		return
	}
	c, err := s.investigation.Resolve(r.Context(), id, req.Tag, req.ConfirmationSource)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	if s.investigation == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "investigation engine not configured"})
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	c, err := s.investigation.Dismiss(r.Context(), id, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if s.investigation == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "investigation engine not configured"})
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	profile, err := s.investigation.BuildProfile(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleRunFeedback(w http.ResponseWriter, r *http.Request) {
	if s.feedback == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "feedback engine not configured"})
		return
	}
	var p feedback.Params
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, errs.NewValidation("invalid feedback params: "+err.Error()))
		return
	}
	result, err := s.feedback.Run(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
