// Package investigation drives the candidate status machine an investigator
// works through by hand: assign, annotate, attach evidence, and finally
// resolve or dismiss, plus the aggregated profile view that backs a single
// case.
package investigation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/polymarket-surveillance/insider-detector/internal/errs"
	"github.com/polymarket-surveillance/insider-detector/internal/models"
	"github.com/polymarket-surveillance/insider-detector/internal/store"
)

type Engine struct {
	store  *store.Store
	logger *zap.Logger
}

func New(st *store.Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: st, logger: logger.Named("investigation")}
}

// Assign sets the candidate's owner and, if it is still undiscovered, moves
// it into investigating.
func (e *Engine) Assign(ctx context.Context, candidateID int64, assignee string) (*models.InvestigationCandidate, error) {
	c, err := e.store.GetCandidateByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	c.AssignedTo = &assignee
	if c.Status == models.StatusUndiscovered {
		c.Status = models.StatusInvestigating
	}
	c.UpdatedAt = time.Now().UTC()
	if err := e.store.UpdateCandidate(ctx, c); err != nil {
		return nil, fmt.Errorf("assigning candidate %d: %w", candidateID, err)
	}
	return c, nil
}

// AddNote appends a free-text note.
func (e *Engine) AddNote(ctx context.Context, candidateID int64, note string) (*models.InvestigationCandidate, error) {
	c, err := e.store.GetCandidateByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	c.Notes = append(c.Notes, note)
	c.UpdatedAt = time.Now().UTC()
	if err := e.store.UpdateCandidate(ctx, c); err != nil {
		return nil, fmt.Errorf("adding note to candidate %d: %w", candidateID, err)
	}
	return c, nil
}

// AddEvidence appends a timestamped, attributed evidence note.
func (e *Engine) AddEvidence(ctx context.Context, candidateID int64, author, body string) (*models.InvestigationCandidate, error) {
	c, err := e.store.GetCandidateByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	c.Evidence = append(c.Evidence, models.EvidenceNote{Author: author, Body: body, CreatedAt: time.Now().UTC()})
	c.UpdatedAt = time.Now().UTC()
	if err := e.store.UpdateCandidate(ctx, c); err != nil {
		return nil, fmt.Errorf("adding evidence to candidate %d: %w", candidateID, err)
	}
	return c, nil
}

// Resolve closes a candidate with a resolution tag, moving it to resolved.
// When the tag is confirmed_insider or likely_insider, a ConfirmedInsider row
// is synthesized from the candidate's fields so the
// next baseline recompute and pattern validation pick it up as a labeled
// truth case.
func (e *Engine) Resolve(ctx context.Context, candidateID int64, tag models.ResolutionTag, confirmationSource string) (*models.InvestigationCandidate, error) {
	if !validResolutionTag(tag) {
		return nil, errs.NewValidation(fmt.Sprintf("unknown resolution tag %q", tag))
	}
	c, err := e.store.GetCandidateByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	resolution := string(tag)
	c.Status = models.StatusResolved
	c.Resolution = &resolution
	c.UpdatedAt = time.Now().UTC()
	if err := e.store.UpdateCandidate(ctx, c); err != nil {
		return nil, fmt.Errorf("resolving candidate %d: %w", candidateID, err)
	}

	if tag == models.ResolutionConfirmedInsider || tag == models.ResolutionLikelyInsider {
		if err := e.synthesizeConfirmedInsider(ctx, c, tag, confirmationSource); err != nil {
			return nil, fmt.Errorf("synthesizing confirmed insider for candidate %d: %w", candidateID, err)
		}
	}
	return c, nil
}

func (e *Engine) synthesizeConfirmedInsider(ctx context.Context, c *models.InvestigationCandidate, tag models.ResolutionTag, confirmationSource string) error {
	confidence := models.ConfidenceLikely
	if tag == models.ResolutionConfirmedInsider {
		confidence = models.ConfidenceConfirmed
	}
	tradeID := c.TradeID
	market, err := e.store.GetMarketByID(ctx, c.MarketID)
	var conditionID *string
	if err == nil && market != nil {
		conditionID = &market.ConditionID
	}

	ci := &models.ConfirmedInsider{
		WalletAddress:      c.WalletAddress,
		ConditionID:        conditionID,
		TradeID:            &tradeID,
		ConfidenceLevel:    confidence,
		ConfirmationSource: confirmationSource,
		Evidence:           evidenceSummary(c),
		UsedForTraining:    false,
		TrainingWeight:     1.0,
		ConfirmedAt:        time.Now().UTC(),
	}
	_, err = e.store.InsertConfirmedInsider(ctx, ci)
	return err
}

func evidenceSummary(c *models.InvestigationCandidate) string {
	if len(c.Evidence) == 0 {
		return ""
	}
	return c.Evidence[len(c.Evidence)-1].Body
}

func validResolutionTag(tag models.ResolutionTag) bool {
	switch tag {
	case models.ResolutionConfirmedInsider, models.ResolutionLikelyInsider,
		models.ResolutionNotInsider, models.ResolutionInsufficientEvidence:
		return true
	default:
		return false
	}
}

// Dismiss closes a candidate without a resolution tag.
func (e *Engine) Dismiss(ctx context.Context, candidateID int64, reason string) (*models.InvestigationCandidate, error) {
	c, err := e.store.GetCandidateByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	c.Status = models.StatusDismissed
	if reason != "" {
		c.Notes = append(c.Notes, "dismissed: "+reason)
	}
	c.UpdatedAt = time.Now().UTC()
	if err := e.store.UpdateCandidate(ctx, c); err != nil {
		return nil, fmt.Errorf("dismissing candidate %d: %w", candidateID, err)
	}
	return c, nil
}

// RiskLevel buckets a candidate's risk-factor count.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskElevated RiskLevel = "elevated"
	RiskHigh     RiskLevel = "high"
	RiskSevere   RiskLevel = "severe"
)

// RiskAssessment counts the concrete signals present on a candidate's
// anomaly breakdown and buckets them into a level.
type RiskAssessment struct {
	Factors []string
	Level   RiskLevel
}

// Profile aggregates everything an investigator needs to work one case.
type Profile struct {
	Candidate        *models.InvestigationCandidate
	Wallet           *models.Wallet
	RelatedTrades    []*models.Trade
	MarketCandidates []*models.InvestigationCandidate
	SimilarCandidates []*models.InvestigationCandidate
	Risk             RiskAssessment
}

// BuildProfile assembles the investigation profile for a candidate: the
// wallet profile, every other trade from the same wallet, other suspicious
// trades on the same market, candidates similar by wallet or market, and a
// risk assessment.
func (e *Engine) BuildProfile(ctx context.Context, candidateID int64) (*Profile, error) {
	c, err := e.store.GetCandidateByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	wallet, err := e.store.GetWalletByAddress(ctx, c.WalletAddress)
	if err != nil && !errs.Is(err, errs.KindNotFound) {
		return nil, fmt.Errorf("loading wallet %s: %w", c.WalletAddress, err)
	}

	relatedTrades, err := e.store.ListTradesByWallet(ctx, c.WalletAddress)
	if err != nil {
		return nil, fmt.Errorf("loading trades for wallet %s: %w", c.WalletAddress, err)
	}

	walletCandidates, err := e.store.ListCandidatesByWallet(ctx, c.WalletAddress)
	if err != nil {
		return nil, fmt.Errorf("loading candidates for wallet %s: %w", c.WalletAddress, err)
	}
	marketCandidates, err := e.store.ListCandidatesByMarket(ctx, c.MarketID)
	if err != nil {
		return nil, fmt.Errorf("loading candidates for market %d: %w", c.MarketID, err)
	}

	return &Profile{
		Candidate:         c,
		Wallet:            wallet,
		RelatedTrades:     relatedTrades,
		MarketCandidates:  excludeSelf(marketCandidates, c.ID),
		SimilarCandidates: mergeCandidates(walletCandidates, marketCandidates, c.ID),
		Risk:              assessRisk(c),
	}, nil
}

func excludeSelf(candidates []*models.InvestigationCandidate, selfID int64) []*models.InvestigationCandidate {
	out := make([]*models.InvestigationCandidate, 0, len(candidates))
	for _, cand := range candidates {
		if cand.ID != selfID {
			out = append(out, cand)
		}
	}
	return out
}

func mergeCandidates(a, b []*models.InvestigationCandidate, selfID int64) []*models.InvestigationCandidate {
	seen := map[int64]struct{}{selfID: {}}
	var out []*models.InvestigationCandidate
	for _, group := range [][]*models.InvestigationCandidate{a, b} {
		for _, cand := range group {
			if _, dup := seen[cand.ID]; dup {
				continue
			}
			seen[cand.ID] = struct{}{}
			out = append(out, cand)
		}
	}
	return out
}

// assessRisk counts the risk factors present in a candidate's anomaly
// breakdown (stored in Context by discovery.materialize) and buckets them
// into a RiskLevel.
func assessRisk(c *models.InvestigationCandidate) RiskAssessment {
	var factors []string

	if z, ok := zScoreFactor(c.Context, "z_size", 3.0); ok {
		factors = append(factors, z)
	}
	if z, ok := zScoreFactor(c.Context, "z_timing", 2.5); ok {
		factors = append(factors, z)
	}
	if z, ok := zScoreFactor(c.Context, "z_wallet_age", 2.0); ok {
		factors = append(factors, z)
	}
	if z, ok := zScoreFactor(c.Context, "z_price_extremity", 2.0); ok {
		factors = append(factors, z)
	}
	if trinity, ok := c.Context["trinity_pattern"].(bool); ok && trinity {
		factors = append(factors, "trinity_pattern")
	}
	switch matched := c.Context["matched_patterns"].(type) {
	case map[string]bool:
		for name, hit := range matched {
			if hit {
				factors = append(factors, "pattern:"+name)
			}
		}
	case map[string]any:
		for name, hit := range matched {
			if b, _ := hit.(bool); b {
				factors = append(factors, "pattern:"+name)
			}
		}
	}

	return RiskAssessment{Factors: factors, Level: riskLevelFromCount(len(factors))}
}

func zScoreFactor(context map[string]any, key string, cutoff float64) (string, bool) {
	raw, ok := context[key]
	if !ok || raw == nil {
		return "", false
	}
	var v float64
	switch x := raw.(type) {
	case *float64:
		if x == nil {
			return "", false
		}
		v = *x
	case float64:
		v = x
	default:
		return "", false
	}
	if abs(v) >= cutoff {
		return key, true
	}
	return "", false
}

func riskLevelFromCount(n int) RiskLevel {
	switch {
	case n >= 5:
		return RiskSevere
	case n >= 3:
		return RiskHigh
	case n >= 1:
		return RiskElevated
	default:
		return RiskLow
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
