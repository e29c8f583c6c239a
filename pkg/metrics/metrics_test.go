package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestCountersStartAtZero(t *testing.T) {
	m, _ := New()
	if v := counterValue(t, m.TxAdmitted); v != 0 {
		t.Fatalf("expected fresh counter at 0, got %v", v)
	}
}

func TestIncrementReflectsInValue(t *testing.T) {
	m, _ := New()
	m.TxAdmitted.Inc()
	m.TxAdmitted.Inc()
	if v := counterValue(t, m.TxAdmitted); v != 2 {
		t.Fatalf("expected counter at 2, got %v", v)
	}
}
