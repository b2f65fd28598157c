package metrics

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/VictoriaMetrics/metrics"
)

func TestObserveProbeSuccessTracksLatencyAndOctet(t *testing.T) {
	m := New(metrics.NewSet())
	m.ObserveProbe(ProbeSuccess, 42.0, netip.MustParseAddr("10.0.0.1"))

	if got := m.ProbesAttemptedTotal.Get(); got != 1 {
		t.Errorf("ProbesAttemptedTotal = %d, want 1", got)
	}
	if got := m.ProbesResultTotal.success.Get(); got != 1 {
		t.Errorf("success counter = %d, want 1", got)
	}
	if got := m.HitsByOctet.Counter(netip.MustParseAddr("10.0.0.1")).Get(); got != 1 {
		t.Errorf("HitsByOctet = %d, want 1", got)
	}
}

func TestObserveProbeTimeoutDoesNotTouchOctet(t *testing.T) {
	m := New(metrics.NewSet())
	m.ObserveProbe(ProbeConnectTimeout, 0, netip.MustParseAddr("10.0.0.2"))

	if got := m.ProbesResultTotal.connect_timeout.Get(); got != 1 {
		t.Errorf("connect_timeout counter = %d, want 1", got)
	}
	if got := m.HitsByOctet.Counter(netip.MustParseAddr("10.0.0.2")).Get(); got != 0 {
		t.Errorf("HitsByOctet = %d, want 0", got)
	}
}

func TestObserveRescanTask(t *testing.T) {
	m := New(metrics.NewSet())
	m.ObserveRescanTask(nil, false)
	m.ObserveRescanTask(errors.New("boom"), false)
	m.ObserveRescanTask(nil, true)

	if got := m.RescanTasksTotal.success.Get(); got != 1 {
		t.Errorf("success = %d, want 1", got)
	}
	if got := m.RescanTasksTotal.failed.Get(); got != 1 {
		t.Errorf("failed = %d, want 1", got)
	}
	if got := m.RescanTasksTotal.panic.Get(); got != 1 {
		t.Errorf("panic = %d, want 1", got)
	}
}

func TestObservePlayerEvent(t *testing.T) {
	m := New(metrics.NewSet())
	m.ObservePlayerEvent(true)
	m.ObservePlayerEvent(false)
	m.ObservePlayerEvent(false)

	if got := m.PlayerEventsTotal.joined.Get(); got != 1 {
		t.Errorf("joined = %d, want 1", got)
	}
	if got := m.PlayerEventsTotal.left.Get(); got != 2 {
		t.Errorf("left = %d, want 2", got)
	}
}
