package models

import "time"

// CandidateStatus is the investigation workflow's status machine: undiscovered -> investigating -> resolved|dismissed.
type CandidateStatus string

const (
	StatusUndiscovered  CandidateStatus = "undiscovered"
	StatusInvestigating CandidateStatus = "investigating"
	StatusResolved      CandidateStatus = "resolved"
	StatusDismissed     CandidateStatus = "dismissed"
)

// Priority buckets a candidate for triage.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// ResolutionTag classifies how an investigation was resolved.
type ResolutionTag string

const (
	ResolutionConfirmedInsider     ResolutionTag = "confirmed_insider"
	ResolutionLikelyInsider        ResolutionTag = "likely_insider"
	ResolutionNotInsider           ResolutionTag = "not_insider"
	ResolutionInsufficientEvidence ResolutionTag = "insufficient_evidence"
)

// EvidenceNote is a single timestamped annotation an investigator attaches
// to a candidate while working it.
type EvidenceNote struct {
	Author    string
	Body      string
	CreatedAt time.Time
}

// InvestigationCandidate is a trade surfaced by discovery, carried through
// the investigation workflow.
type InvestigationCandidate struct {
	ID                 int64
	BatchID            string
	TradeID            int64
	ScoreID            int64
	MarketID           int64
	WalletAddress      string
	DiscoveryRank       int
	AnomalyScore       float64
	InsiderProbability *float64
	Context            map[string]any
	Status             CandidateStatus
	Priority           Priority
	AssignedTo         *string
	Evidence           []EvidenceNote
	Notes              []string
	Resolution         *string
	DiscoveredAt       time.Time
	UpdatedAt          time.Time
}

// DiscoveryBatch groups a single discovery run's selection parameters and
// resulting candidates.
type DiscoveryBatch struct {
	BatchID         string
	MinAnomalyScore float64
	Categories      []Category
	ExcludeKnown    bool
	CandidateCount  int
	TotalEvaluated  int
	TopScore        *float64
	MedianScore     *float64
	Notes           string
	StartedAt       time.Time
	CompletedAt     *time.Time
}
