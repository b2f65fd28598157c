package probe

import (
	"context"
	"fmt"
	"net/netip"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultPort is the port every ISP-scan fan-out probe uses, regardless of
// the port the original hit was found on.
const DefaultPort = 25565

// FanOutConfig controls the subnet fan-out probe triggered by a positive
// hit: once one address in a subnet answers, the rest of that subnet is
// worth probing immediately rather than waiting for the enumerator to reach
// them on its own schedule, since live Minecraft servers cluster on shared
// hosting ranges and VPS subnets.
type FanOutConfig struct {
	// MaxConcurrent bounds how many fan-out probes run at once, independent
	// of the main worker pool.
	MaxConcurrent int64

	// SubnetPrefix is the IPv4 prefix length of the subnet swept around a
	// hit, e.g. 24 for a /24.
	SubnetPrefix int

	// ExtendedPortScan, when true, additionally probes ports 1024-65535 on
	// a host once its primary (DefaultPort) probe in the sweep succeeds.
	ExtendedPortScan bool
}

// FanOut probes the rest of hit's subnet on DefaultPort, skipping hit's own
// address. If ExtendedPortScan is set, a host that answers on DefaultPort
// is additionally swept across ports 1024-65535. It never recurses:
// addresses discovered via fan-out are probed with e.Probe directly rather
// than through FanOut again, so one lucky subnet cannot cascade into
// scanning the entire address space.
func (e *Engine) FanOut(ctx context.Context, hit netip.AddrPort, cfg FanOutConfig, onResult func(Result)) error {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 32
	}
	if cfg.SubnetPrefix <= 0 || cfg.SubnetPrefix > 32 {
		cfg.SubnetPrefix = 24
	}
	sem := semaphore.NewWeighted(cfg.MaxConcurrent)

	prefix := netip.PrefixFrom(hit.Addr(), cfg.SubnetPrefix).Masked()
	network, broadcast := prefix.Addr(), lastAddr(prefix)

	g, gctx := errgroup.WithContext(ctx)

	probeOne := func(addr netip.AddrPort) (Result, error) {
		if err := sem.Acquire(gctx, 1); err != nil {
			return Result{}, err
		}
		defer sem.Release(1)
		return e.Probe(gctx, addr), nil
	}

	for a := prefix.Addr(); prefix.Contains(a); a = a.Next() {
		if a == network || a == broadcast || a == hit.Addr() {
			continue
		}
		host := a
		g.Go(func() error {
			primary, err := probeOne(netip.AddrPortFrom(host, DefaultPort))
			if err != nil {
				return err
			}
			onResult(primary)

			if !cfg.ExtendedPortScan || primary.Kind != KindSuccess {
				return nil
			}
			for port := 1024; port <= 65535; port++ {
				if uint16(port) == DefaultPort {
					continue
				}
				res, err := probeOne(netip.AddrPortFrom(host, uint16(port)))
				if err != nil {
					return err
				}
				onResult(res)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("probe: fan-out: %w", err)
	}
	return nil
}

// lastAddr returns the broadcast address of p, i.e. the highest address
// within the prefix, so it can be excluded from a host sweep the way
// ipnet.Ipv4Net.hosts() excludes it upstream.
func lastAddr(p netip.Prefix) netip.Addr {
	a := p.Addr().As4()
	ones := p.Bits()
	hostBits := 32 - ones
	mask := uint32(1)<<uint(hostBits) - 1
	v := uint32(a[0])<<24 | uint32(a[1])<<16 | uint32(a[2])<<8 | uint32(a[3])
	v |= mask
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}
