// Package notifier dispatches monitor-generated alerts to notification
// sinks. Concrete Discord/Telegram dispatch is out of scope -- the default sink logs and relies on internal/pubsub's
// polymarket:alerts channel for fan-out to anything that wants one.
package notifier

import (
	"go.uber.org/zap"

	"github.com/polymarket-surveillance/insider-detector/internal/models"
)

// Sink is the interface for dispatching a monitor alert to a destination.
type Sink interface {
	// SendAlert dispatches one alert.
	SendAlert(alert models.Alert)

	// Close releases any resources held by the sink.
	Close() error
}

// LogSink is the default sink: it logs every alert at Warn level and
// dispatches nothing externally.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink constructs a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger.Named("notifier")}
}

// SendAlert logs the alert.
func (s *LogSink) SendAlert(alert models.Alert) {
	s.logger.Warn("alert triggered",
		zap.String("alert_id", alert.AlertID),
		zap.String("type", string(alert.Type)),
		zap.String("severity", string(alert.Severity)),
		zap.String("wallet_address", alert.WalletAddress),
		zap.String("message", alert.Message),
	)
}

// Close is a no-op for LogSink.
func (s *LogSink) Close() error { return nil }

// MultiSink broadcasts alerts to multiple sinks.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a MultiSink from the given sinks, dropping any nils.
func NewMultiSink(sinks ...Sink) *MultiSink {
	var active []Sink
	for _, s := range sinks {
		if s != nil {
			active = append(active, s)
		}
	}
	return &MultiSink{sinks: active}
}

// SendAlert sends the alert to every registered sink.
func (m *MultiSink) SendAlert(alert models.Alert) {
	for _, s := range m.sinks {
		s.SendAlert(alert)
	}
}

// Close closes every registered sink, returning the last error encountered.
func (m *MultiSink) Close() error {
	var lastErr error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Count returns the number of active sinks.
func (m *MultiSink) Count() int {
	return len(m.sinks)
}
