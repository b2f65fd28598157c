package addrspace

import (
	"context"
	"net/netip"
	"testing"
)

type fakeBlacklist struct {
	blocked map[netip.Addr]bool
}

func (f fakeBlacklist) Contains(addr netip.Addr) bool { return f.blocked[addr] }

func TestEnumeratorSkipsBlacklisted(t *testing.T) {
	e := Enumerator{Seed: 7, Rounds: DefaultRounds, Start: 0, End: 1000}

	blocked := make(map[netip.Addr]bool)
	for i := uint32(0); i < 1000; i++ {
		addr := netip.AddrFrom4(u32ToBytes(Permute(i, DefaultRounds, 7)))
		if i%3 == 0 {
			blocked[addr] = true
		}
	}
	e.Blacklist = fakeBlacklist{blocked: blocked}

	out := make(chan netip.Addr, 1000)
	if err := e.Run(context.Background(), out); err != nil {
		t.Fatal(err)
	}
	close(out)

	var count int
	for addr := range out {
		count++
		if blocked[addr] {
			t.Fatalf("enumerator emitted blacklisted address %s", addr)
		}
	}
	want := 1000 - len(blocked)
	if count != want {
		t.Fatalf("expected %d addresses, got %d", want, count)
	}
}

func TestEnumeratorHonorsCancellation(t *testing.T) {
	e := Enumerator{Seed: 1, Rounds: DefaultRounds, Start: 0, End: 1 << 20}
	out := make(chan netip.Addr) // unbuffered, so Run blocks until canceled

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Run(ctx, out)
	if err == nil {
		t.Fatal("expected context.Canceled error")
	}
}
