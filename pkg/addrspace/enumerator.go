package addrspace

import (
	"context"
	"net/netip"
)

// Blacklist is the subset of blacklist.Blacklist the enumerator needs,
// kept narrow so tests can supply a fake.
type Blacklist interface {
	Contains(addr netip.Addr) bool
}

// Enumerator walks a contiguous slice of the permuted IPv4 index space and
// sends surviving (non-blacklisted) addresses to a bounded channel.
type Enumerator struct {
	Seed      uint64
	Rounds    uint8
	Blacklist Blacklist

	// Start and End bound the index range (in permutation-input space, not
	// address space) this enumerator walks, as [Start, End). A full sweep
	// uses Start=0, End=2^32.
	Start, End uint64
}

// Run permutes every index in [Start, End) and sends the ones that pass the
// blacklist filter to out. It blocks when out is full (back-pressure) and
// returns when ctx is canceled or the full range has been sent.
func (e Enumerator) Run(ctx context.Context, out chan<- netip.Addr) error {
	rounds := e.Rounds
	if rounds == 0 {
		rounds = DefaultRounds
	}
	for i := e.Start; i < e.End; i++ {
		addr := netip.AddrFrom4(u32ToBytes(Permute(uint32(i), rounds, e.Seed)))
		if e.Blacklist != nil && e.Blacklist.Contains(addr) {
			continue
		}
		select {
		case out <- addr:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func u32ToBytes(v uint32) [4]byte {
	return [4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}
