package blacklist

import (
	"math/bits"
	"net/netip"
)

// RangeToCIDRs decomposes the inclusive IPv4 range [lo, hi] into
// CIDR-aligned blocks covering exactly that range, with no gaps or
// overlaps. At each step the block size is the largest power of two that
// divides both cur and the number of addresses still to cover, so the
// block is aligned to cur and does not overrun the range; cur then
// advances past it. The result is not the fewest blocks in general: a
// range such as 0.0.0.1-0.0.0.254 comes out as one /32 per address.
//
// The running position is tracked as a uint64 even though addresses are
// 32-bit, so that a range ending at 255.255.255.255 can advance one past
// the last address without wrapping around to zero.
func RangeToCIDRs(lo, hi netip.Addr) []netip.Prefix {
	cur := uint64(addrToU32(lo))
	end := uint64(addrToU32(hi))

	var out []netip.Prefix
	for cur <= end {
		alignment := bits.TrailingZeros32(-uint32(cur))
		remaining := bits.TrailingZeros32(uint32(end - cur + 1))
		prefixLen := 32 - min(alignment, remaining)

		out = append(out, netip.PrefixFrom(u32ToAddr(uint32(cur)), prefixLen))

		hosts := uint64(1) << uint(32-prefixLen)
		cur += hosts
	}
	return out
}

func addrToU32(a netip.Addr) uint32 {
	b := a.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func u32ToAddr(v uint32) netip.Addr {
	return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}
