package blacklist

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"
)

func addr(s string) netip.Addr {
	a, err := netip.ParseAddr(s)
	if err != nil {
		panic(err)
	}
	return a
}

func writeFile(t *testing.T, contents string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "blacklist.txt")
	if err := os.WriteFile(p, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadMixedEntries(t *testing.T) {
	p := writeFile(t, `
# comment
10.0.0.1
10.1.0.0/24

192.168.1.10-192.168.1.20
not a valid line
`)
	b, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Entries()) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(b.Entries()))
	}

	cases := []struct {
		ip   string
		want bool
	}{
		{"10.0.0.1", true},
		{"10.0.0.2", false},
		{"10.1.0.5", true},
		{"10.1.1.5", false},
		{"192.168.1.15", true},
		{"192.168.1.25", false},
	}
	for _, c := range cases {
		if got := b.Contains(addr(c.ip)); got != c.want {
			t.Errorf("Contains(%s) = %v, want %v", c.ip, got, c.want)
		}
	}
}

func TestRangeEndpointsOutOfOrder(t *testing.T) {
	p := writeFile(t, "10.0.0.20-10.0.0.10\n")
	b, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if !b.Contains(addr("10.0.0.15")) {
		t.Fatal("expected range to normalize regardless of endpoint order")
	}
	if b.Contains(addr("10.0.0.25")) {
		t.Fatal("did not expect address outside range to match")
	}
}

func TestContainsIPv6NeverMatches(t *testing.T) {
	p := writeFile(t, "0.0.0.0/0\n")
	b, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	v6 := netip.MustParseAddr("::1")
	if b.Contains(v6) {
		t.Fatal("ipv6 address must never be blacklisted")
	}
}

func TestIgnoresUnparseableLine(t *testing.T) {
	p := writeFile(t, "definitely not an entry\n10.0.0.1\n")
	b, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Entries()) != 1 {
		t.Fatalf("expected 1 valid entry, got %d", len(b.Entries()))
	}
}
