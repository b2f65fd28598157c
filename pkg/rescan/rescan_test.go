package rescan

import (
	"net/netip"
	"testing"

	"github.com/kybe236/mc-scanner/pkg/blacklist"
)

func TestFilterTargetsParsesAndDefaultsPort(t *testing.T) {
	keys := []string{
		"203.0.113.1:25566",
		"203.0.113.2",
		"not-an-ip:25565",
		"203.0.113.3:not-a-port",
	}
	got := filterTargets(keys, nil)
	want := []netip.AddrPort{
		netip.MustParseAddrPort("203.0.113.1:25566"),
		netip.MustParseAddrPort("203.0.113.2:25565"),
		netip.MustParseAddrPort("203.0.113.3:25565"),
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("target %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestFilterTargetsDropsBlacklisted(t *testing.T) {
	bl, err := blacklist.LoadFromLines([]string{"203.0.113.1"})
	if err != nil {
		t.Fatal(err)
	}
	keys := []string{"203.0.113.1:25565", "203.0.113.2:25565"}
	got := filterTargets(keys, bl)
	if len(got) != 1 || got[0].Addr().String() != "203.0.113.2" {
		t.Fatalf("got %v, want only 203.0.113.2", got)
	}
}

func TestChunkTargetsSpreadsAcrossWorkers(t *testing.T) {
	targets := make([]netip.AddrPort, 10)
	for i := range targets {
		targets[i] = netip.AddrPortFrom(netip.AddrFrom4([4]byte{203, 0, 113, byte(i)}), 25565)
	}

	chunks := chunkTargets(targets, 3)
	if len(chunks) > 3 {
		t.Fatalf("got %d chunks, want at most 3", len(chunks))
	}
	var total int
	for _, c := range chunks {
		total += len(c)
	}
	if total != len(targets) {
		t.Fatalf("chunks covered %d targets, want %d", total, len(targets))
	}
}

func TestChunkTargetsEmpty(t *testing.T) {
	if chunks := chunkTargets(nil, 5); len(chunks) != 0 {
		t.Fatalf("got %d chunks for empty input, want 0", len(chunks))
	}
}
