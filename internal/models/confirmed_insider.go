package models

import "time"

// ConfidenceLevel is how certain an investigator is that a wallet is an
// insider.
type ConfidenceLevel string

const (
	ConfidenceSuspected ConfidenceLevel = "suspected"
	ConfidenceLikely    ConfidenceLevel = "likely"
	ConfidenceConfirmed ConfidenceLevel = "confirmed"
)

// ConfirmedInsider is a labeled truth case feeding the baseline engine's
// insider distribution and the feedback loop.
type ConfirmedInsider struct {
	ID                 int64
	WalletAddress      string
	ConditionID        *string
	TradeID            *int64
	ConfidenceLevel    ConfidenceLevel
	ConfirmationSource string
	Evidence           string
	UsedForTraining    bool
	TrainingWeight     float64
	ConfirmedAt        time.Time
}
