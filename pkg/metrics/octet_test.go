package metrics

import (
	"net/netip"
	"testing"

	"github.com/VictoriaMetrics/metrics"
)

func TestOctetCounterBucketsByFirstOctet(t *testing.T) {
	set := metrics.NewSet()
	c := NewOctetCounter(set, `test_hits_total`)

	c.Inc(netip.MustParseAddr("10.1.2.3"))
	c.Inc(netip.MustParseAddr("10.200.0.1"))
	c.Inc(netip.MustParseAddr("203.0.113.1"))

	if got := c.Counter(netip.MustParseAddr("10.9.9.9")).Get(); got != 2 {
		t.Errorf("octet 10 counter = %d, want 2", got)
	}
	if got := c.Counter(netip.MustParseAddr("203.1.1.1")).Get(); got != 1 {
		t.Errorf("octet 203 counter = %d, want 1", got)
	}
}

func TestOctetCounterUnknownForNonIPv4(t *testing.T) {
	set := metrics.NewSet()
	c := NewOctetCounter(set, `test_hits_total`)
	c.Inc(netip.MustParseAddr("::1"))
	if got := c.unk.Get(); got != 1 {
		t.Errorf("unknown counter = %d, want 1", got)
	}
}
