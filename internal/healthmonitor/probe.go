package healthmonitor

import (
	"context"
)

// Prober issues a light, source-specific health check. Fetchers implement
// this so the periodic probe task can exercise them without knowing their
// transport details.
type Prober interface {
	Probe(ctx context.Context) error
}

// RunProbe calls prober.Probe and records the outcome against source. The
// cadence is driven by internal/scheduler's cron job, not by this function
// -- it separates the ticking actor from the thing being ticked.
func (m *Monitor) RunProbe(ctx context.Context, source Source, prober Prober) {
	if err := prober.Probe(ctx); err != nil {
		m.RecordFailure(source, err.Error())
		return
	}
	m.RecordSuccess(source)
}
