package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordSegment(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordSegment(false)
	m.RecordSegment(true)
	m.RecordSegment(true)

	if got := testutil.ToFloat64(m.SegmentsDisplayed); got != 3 {
		t.Errorf("segments = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.ScamDetections); got != 2 {
		t.Errorf("scams = %v, want 2", got)
	}
}

func TestRecordTick(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordTick(4)
	m.RecordTick(1)

	if got := testutil.ToFloat64(m.SyncTicks); got != 2 {
		t.Errorf("ticks = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.BufferPending); got != 1 {
		t.Errorf("pending = %v, want 1", got)
	}
}

func TestRecordAlertPublish(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordAlertPublish("scam", nil, 0.01)
	m.RecordAlertPublish("scam", errors.New("broker down"), 0.5)

	if got := testutil.ToFloat64(m.AlertsPublished.WithLabelValues("scam")); got != 2 {
		t.Errorf("published = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.AlertPublishErrors.WithLabelValues("scam")); got != 1 {
		t.Errorf("errors = %v, want 1", got)
	}
}

func TestNewMetrics_SeparateRegistries(t *testing.T) {
	// Two instances on separate registries must not collide.
	a := NewMetrics(prometheus.NewRegistry())
	b := NewMetrics(prometheus.NewRegistry())
	a.RecordWarning()
	if got := testutil.ToFloat64(b.Warnings); got != 0 {
		t.Errorf("registries leaked: %v", got)
	}
}
