// Package blacklist parses and evaluates the IPv4 blacklist: single
// addresses, CIDR prefixes, and inclusive ranges.
package blacklist

import (
	"bufio"
	"fmt"
	"net/netip"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Kind tags which textual form a blacklist line used.
type Kind int

const (
	KindSingle Kind = iota
	KindCIDR
	KindRange
)

// Entry is one parsed blacklist line, kept for introspection; Contains
// evaluates against the flattened prefix list derived from all entries.
type Entry struct {
	Kind Kind

	// Set for KindSingle and KindCIDR.
	Prefix netip.Prefix

	// Set for KindRange.
	Lo, Hi netip.Addr
}

// Blacklist answers IPv4 membership queries against a mix of single
// addresses, CIDR prefixes, and ranges, loaded once from a file and shared
// read-only afterward.
type Blacklist struct {
	entries  []Entry
	prefixes []netip.Prefix // flattened form used by Contains
}

// Contains reports whether addr is covered by any entry in the blacklist.
// addr must be an IPv4 address; IPv6 addresses are never blacklisted since
// they are out of scope for the scanner (spec non-goal).
func (b *Blacklist) Contains(addr netip.Addr) bool {
	if !addr.Is4() {
		return false
	}
	for _, p := range b.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Entries returns the parsed entries backing this blacklist, for tests and
// diagnostics.
func (b *Blacklist) Entries() []Entry {
	return b.entries
}

// Load reads a blacklist file: one entry per line, blank lines and lines
// starting with '#' ignored, each remaining line a single IPv4 address, a
// CIDR, or an inclusive "lo-hi" range (endpoints may be given out of
// order). Unparseable lines are logged and skipped, never fatal.
func Load(path string) (*Blacklist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("blacklist: open %s: %w", path, err)
	}
	defer f.Close()

	b, err := loadFromScanner(bufio.NewScanner(f))
	if err != nil {
		return nil, fmt.Errorf("blacklist: read %s: %w", path, err)
	}
	return b, nil
}

// LoadFromLines builds a Blacklist from in-memory lines using the same
// syntax and error tolerance as Load, without touching the filesystem;
// useful for tests and for a config-embedded blacklist.
func LoadFromLines(lines []string) (*Blacklist, error) {
	var b Blacklist
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := b.addLine(line); err != nil {
			log.Warn().Str("line", line).Err(err).Msg("ignoring invalid blacklist line")
		}
	}
	return &b, nil
}

func loadFromScanner(s *bufio.Scanner) (*Blacklist, error) {
	var b Blacklist
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := b.addLine(line); err != nil {
			log.Warn().Str("line", line).Err(err).Msg("ignoring invalid blacklist line")
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return &b, nil
}

func (b *Blacklist) addLine(line string) error {
	if addr, err := netip.ParseAddr(line); err == nil {
		if !addr.Is4() {
			return fmt.Errorf("not an ipv4 address: %s", line)
		}
		p := netip.PrefixFrom(addr, 32)
		b.entries = append(b.entries, Entry{Kind: KindSingle, Prefix: p})
		b.prefixes = append(b.prefixes, p)
		return nil
	}

	if p, err := netip.ParsePrefix(line); err == nil {
		if !p.Addr().Is4() {
			return fmt.Errorf("not an ipv4 cidr: %s", line)
		}
		p = p.Masked()
		b.entries = append(b.entries, Entry{Kind: KindCIDR, Prefix: p})
		b.prefixes = append(b.prefixes, p)
		return nil
	}

	if lo, hi, ok := parseRange(line); ok {
		b.entries = append(b.entries, Entry{Kind: KindRange, Lo: lo, Hi: hi})
		b.prefixes = append(b.prefixes, RangeToCIDRs(lo, hi)...)
		return nil
	}

	return fmt.Errorf("unrecognized blacklist line")
}

func parseRange(line string) (lo, hi netip.Addr, ok bool) {
	before, after, found := strings.Cut(line, "-")
	if !found {
		return netip.Addr{}, netip.Addr{}, false
	}
	a, err := netip.ParseAddr(strings.TrimSpace(before))
	if err != nil || !a.Is4() {
		return netip.Addr{}, netip.Addr{}, false
	}
	c, err := netip.ParseAddr(strings.TrimSpace(after))
	if err != nil || !c.Is4() {
		return netip.Addr{}, netip.Addr{}, false
	}
	if addrToU32(c) < addrToU32(a) {
		a, c = c, a
	}
	return a, c, true
}
