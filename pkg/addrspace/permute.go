// Package addrspace generates a deterministic pseudo-random permutation of
// the IPv4 address space and enumerates it, filtering through a blacklist.
package addrspace

import "math/bits"

// DefaultRounds is the number of Feistel rounds applied by Permute when the
// caller has no specific requirement. The construction needs at least 3
// rounds to spread adjacent indexes across distant addresses.
const DefaultRounds = 6

// Permute maps x through a balanced Feistel network parameterized by seed
// and rounds, producing a bijection on the full uint32 domain: applying it
// to every value in [0, 2^32) yields every uint32 exactly once.
func Permute(x uint32, rounds uint8, seed uint64) uint32 {
	for i := uint8(0); i < rounds; i++ {
		key := uint32(seed + uint64(i))
		x = feistelRound(x, key)
	}
	return x
}

func feistelRound(x, key uint32) uint32 {
	l := x >> 16
	r := x & 0xFFFF
	f := bits.RotateLeft32(r*0x5bd1e995, 13) ^ key
	newL := r
	newR := l ^ (f & 0xFFFF)
	return newL<<16 | newR
}
