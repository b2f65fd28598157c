package metrics

import (
	"net/netip"

	"github.com/VictoriaMetrics/metrics"
)

// OctetCounter is like a *metrics.Counter, but split by the first octet of
// an IPv4 address, giving a coarse view of how scan activity (or hits) is
// distributed across the address space without creating a series per
// individual address.
type OctetCounter struct {
	ctr  [256]*metrics.Counter
	unk  *metrics.Counter
	set  *metrics.Set
	base string
	arg  string
}

// NewOctetCounter creates an OctetCounter in set under name, which must not
// already carry labels other than the ones this adds.
func NewOctetCounter(set *metrics.Set, name string) *OctetCounter {
	base, arg := splitName(name)
	return &OctetCounter{
		unk:  set.NewCounter(formatName(base, arg, "octet", "unknown")),
		set:  set,
		base: base,
		arg:  arg,
	}
}

// Inc increments the counter for addr's first octet, or the unknown
// counter if addr isn't a 4-in-6 or bare IPv4 address.
func (c *OctetCounter) Inc(addr netip.Addr) {
	c.Counter(addr).Inc()
}

// Counter returns the underlying counter for addr's first octet.
func (c *OctetCounter) Counter(addr netip.Addr) *metrics.Counter {
	if !addr.Is4() && !addr.Is4In6() {
		return c.unk
	}
	octet := addr.As4()[0]
	m := c.ctr[octet]
	if m == nil {
		m = c.set.NewCounter(formatName(c.base, c.arg, "octet", itoa(octet)))
		c.ctr[octet] = m
	}
	return m
}

func itoa(b byte) string {
	if b < 10 {
		return string([]byte{'0' + b})
	}
	if b < 100 {
		return string([]byte{'0' + b/10, '0' + b%10})
	}
	return string([]byte{'0' + b/100, '0' + (b/10)%10, '0' + b%10})
}
