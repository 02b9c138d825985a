package notifier

import (
	"errors"
	"testing"
	"time"

	"github.com/polymarket-surveillance/insider-detector/internal/models"
)

type mockSink struct {
	alerts      []models.Alert
	closeErr    error
	closeCalled bool
}

func (m *mockSink) SendAlert(alert models.Alert) {
	m.alerts = append(m.alerts, alert)
}

func (m *mockSink) Close() error {
	m.closeCalled = true
	return m.closeErr
}

func TestNewMultiSink_FiltersNil(t *testing.T) {
	mock1 := &mockSink{}
	mock2 := &mockSink{}

	mn := NewMultiSink(mock1, nil, mock2, nil)

	if mn.Count() != 2 {
		t.Errorf("expected 2 sinks, got %d", mn.Count())
	}
}

func TestNewMultiSink_AllNil(t *testing.T) {
	mn := NewMultiSink(nil, nil, nil)

	if mn.Count() != 0 {
		t.Errorf("expected 0 sinks, got %d", mn.Count())
	}
}

func TestMultiSink_SendAlert(t *testing.T) {
	mock1 := &mockSink{}
	mock2 := &mockSink{}

	mn := NewMultiSink(mock1, mock2)

	alert := models.Alert{
		AlertID:       "alert-1",
		Type:          models.AlertTypeWhaleTrade,
		Severity:      models.SeverityHigh,
		WalletAddress: "0xabc",
		Message:       "whale trade detected",
		TriggeredAt:   time.Now(),
	}

	mn.SendAlert(alert)

	if len(mock1.alerts) != 1 {
		t.Errorf("expected 1 alert for mock1, got %d", len(mock1.alerts))
	}
	if len(mock2.alerts) != 1 {
		t.Errorf("expected 1 alert for mock2, got %d", len(mock2.alerts))
	}
	if mock1.alerts[0].AlertID != "alert-1" {
		t.Errorf("expected alert id 'alert-1', got %s", mock1.alerts[0].AlertID)
	}
}

func TestMultiSink_SendAlert_NoSinks(t *testing.T) {
	mn := NewMultiSink()
	mn.SendAlert(models.Alert{AlertID: "alert-1"})
}

func TestMultiSink_Close_Success(t *testing.T) {
	mock1 := &mockSink{}
	mock2 := &mockSink{}

	mn := NewMultiSink(mock1, mock2)

	if err := mn.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !mock1.closeCalled || !mock2.closeCalled {
		t.Error("expected both sinks to be closed")
	}
}

func TestMultiSink_Close_MultipleErrors(t *testing.T) {
	err1 := errors.New("error 1")
	err2 := errors.New("error 2")
	mock1 := &mockSink{closeErr: err1}
	mock2 := &mockSink{closeErr: err2}

	mn := NewMultiSink(mock1, mock2)

	if err := mn.Close(); err != err2 {
		t.Errorf("expected last error %v, got %v", err2, err)
	}
}

func TestMultiSink_Count(t *testing.T) {
	tests := []struct {
		name     string
		sinks    []Sink
		expected int
	}{
		{"empty", []Sink{}, 0},
		{"one", []Sink{&mockSink{}}, 1},
		{"three", []Sink{&mockSink{}, &mockSink{}, &mockSink{}}, 3},
		{"with nils", []Sink{&mockSink{}, nil, &mockSink{}}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mn := NewMultiSink(tt.sinks...)
			if mn.Count() != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, mn.Count())
			}
		})
	}
}

func TestLogSink_SendAlert_NoPanic(t *testing.T) {
	sink := NewLogSink(nil)
	sink.SendAlert(models.Alert{AlertID: "alert-1", Type: models.AlertTypeCombined})
	if err := sink.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
