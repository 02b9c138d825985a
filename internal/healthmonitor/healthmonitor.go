// Package healthmonitor tracks success/failure for the two ingestion
// sources (api, subgraph) and recommends which to use. Single-writer in-process actor (mutex-protected ring buffer);
// the state lives in this process only and is not mirrored to Redis, which
// is used solely to broadcast failover events.
package healthmonitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/polymarket-surveillance/insider-detector/internal/pubsub"
)

// Source is one of the two independent collectors.
type Source string

const (
	SourceAPI      Source = "api"
	SourceSubgraph Source = "subgraph"
)

// Status is the health status bucket for a source.
type Status string

const (
	StatusUnknown   Status = "unknown"
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// WindowSize is the rolling window length used for health tracking.
const WindowSize = 10

// HealthyThreshold is the success-rate floor for a source to count healthy.
const HealthyThreshold = 0.8

// sourceState is the mutable per-source rolling window, guarded by
// Monitor.mu (single-writer invariant).
type sourceState struct {
	outcomes       [WindowSize]bool // true = success
	count          int              // number of slots filled so far, capped at WindowSize
	next           int              // ring cursor
	lastSuccessAt  time.Time
	lastFailureAt  time.Time
	lastFailureMsg string
	status         Status
}

func (s *sourceState) record(success bool) {
	s.outcomes[s.next] = success
	s.next = (s.next + 1) % WindowSize
	if s.count < WindowSize {
		s.count++
	}
	now := time.Now().UTC()
	if success {
		s.lastSuccessAt = now
	} else {
		s.lastFailureAt = now
	}
}

func (s *sourceState) successRate() float64 {
	if s.count == 0 {
		return 1.0 // empty window counts as healthy
	}
	successes := 0
	for i := 0; i < s.count; i++ {
		if s.outcomes[i] {
			successes++
		}
	}
	return float64(successes) / float64(s.count)
}

func (s *sourceState) isHealthy() bool {
	return s.successRate() >= HealthyThreshold
}

// SourceSummary is one source's health_summary() entry.
type SourceSummary struct {
	Source         Source
	SuccessRate    float64
	Status         Status
	LastSuccessAt  time.Time
	LastFailureAt  time.Time
	LastFailureMsg string
}

// Summary is the monitor's full health_summary() response.
type Summary struct {
	Sources map[Source]SourceSummary
}

// FailoverEvent is broadcast on the failover channel when the recommended
// source changes due to a health transition.
type FailoverEvent struct {
	From      Source    `json:"from"`
	To        Source    `json:"to"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// Monitor is the process-wide health actor.
type Monitor struct {
	mu      sync.Mutex
	sources map[Source]*sourceState

	pubsub  *pubsub.PubSub
	channel string
	logger  *zap.Logger
}

// New constructs a Monitor for the api and subgraph sources. pub may be nil.
func New(pub *pubsub.PubSub, failoverChannel string, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		sources: map[Source]*sourceState{
			SourceAPI:      {status: StatusUnknown},
			SourceSubgraph: {status: StatusUnknown},
		},
		pubsub:  pub,
		channel: failoverChannel,
		logger:  logger.Named("healthmonitor"),
	}
}

// RecordSuccess records a successful call to source.
func (m *Monitor) RecordSuccess(source Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.sources[source]
	st.record(true)
	m.transition(source, st)
}

// RecordFailure records a failed call to source with a human-readable reason.
func (m *Monitor) RecordFailure(source Source, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.sources[source]
	st.record(false)
	st.lastFailureMsg = reason
	m.transition(source, st)
}

// transition recomputes status and logs healthy<->unhealthy flips. Caller
// holds m.mu.
func (m *Monitor) transition(source Source, st *sourceState) {
	prev := st.status
	if st.isHealthy() {
		st.status = StatusHealthy
	} else {
		st.status = StatusUnhealthy
	}
	if prev != StatusUnknown && prev != st.status {
		m.logger.Info("source health transition",
			zap.String("source", string(source)),
			zap.String("from", string(prev)),
			zap.String("to", string(st.status)),
			zap.Float64("success_rate", st.successRate()))
	}
}

// RecommendedSource applies the source precedence: subgraph if
// healthy, else api if healthy, else subgraph (optimistic default).
func (m *Monitor) RecommendedSource() Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sources[SourceSubgraph].isHealthy() {
		return SourceSubgraph
	}
	if m.sources[SourceAPI].isHealthy() {
		return SourceAPI
	}
	return SourceSubgraph
}

// HealthSummary returns both rates and statuses for every source.
func (m *Monitor) HealthSummary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := Summary{Sources: make(map[Source]SourceSummary, len(m.sources))}
	for src, st := range m.sources {
		out.Sources[src] = SourceSummary{
			Source:         src,
			SuccessRate:    st.successRate(),
			Status:         st.status,
			LastSuccessAt:  st.lastSuccessAt,
			LastFailureAt:  st.lastFailureAt,
			LastFailureMsg: st.lastFailureMsg,
		}
	}
	return out
}

// BroadcastFailover publishes a failover event on the configured channel, if
// a pubsub client is attached. Publish failures are logged, not fatal.
func (m *Monitor) BroadcastFailover(ctx context.Context, from, to Source, reason string) {
	if m.pubsub == nil {
		return
	}
	evt := FailoverEvent{From: from, To: to, Reason: reason, Timestamp: time.Now().UTC()}
	if err := m.pubsub.PublishJSON(ctx, m.channel, evt); err != nil {
		m.logger.Warn("failed to broadcast failover event", zap.Error(err))
	}
}
