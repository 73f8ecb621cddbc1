package bloom

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
)

// HashFunc is the primitive behind every probe: a fast, non-cryptographic
// 64-bit hash parameterized by an integer seed. It must be pure; the same
// (key, seed) always yields the same digest.
type HashFunc func(key []byte, seed uint64) uint64

// Hash names one of the built-in HashFunc primitives. The name is what gets
// persisted alongside a bitfield, so a reloaded filter probes the same bits.
type Hash uint8

const (
	// HashXXH64 is xxHash64 with the probe index as seed. It is the default.
	HashXXH64 Hash = iota + 1

	// HashMurmur3 is the 64-bit half of MurmurHash3 x64_128 with the probe
	// index as seed.
	HashMurmur3
)

// Func returns the primitive for h, or nil if h is unknown.
func (h Hash) Func() HashFunc {
	switch h {
	case HashXXH64:
		return xxh64
	case HashMurmur3:
		return murmur64
	default:
		return nil
	}
}

// Valid reports whether h names a built-in primitive.
func (h Hash) Valid() bool {
	return h.Func() != nil
}

func (h Hash) String() string {
	switch h {
	case HashXXH64:
		return "xxh64"
	case HashMurmur3:
		return "murmur3"
	default:
		return fmt.Sprintf("Hash(%d)", uint8(h))
	}
}

// ParseHash maps a primitive name ("xxh64", "murmur3") to its Hash.
func ParseHash(s string) (Hash, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xxh64", "xxhash":
		return HashXXH64, nil
	case "murmur3", "murmur":
		return HashMurmur3, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidHash, s)
	}
}

// xxh64 seeds a stack-allocated digest so probing a key never touches the heap.
func xxh64(key []byte, seed uint64) uint64 {
	var d xxhash.Digest
	d.ResetWithSeed(seed)
	_, _ = d.Write(key)
	return d.Sum64()
}

func murmur64(key []byte, seed uint64) uint64 {
	return murmur3.Sum64WithSeed(key, uint32(seed))
}

// position returns the i-th probe for key folded into [0, modulus).
// The caller guarantees modulus > 0.
func position(fn HashFunc, key []byte, i int, modulus uint64) uint64 {
	return fn(key, uint64(i)) % modulus
}

// Positions appends to dst the k probe positions for key, each reduced into
// [0, modulus). Probe i is fn(key, seed=i) mod modulus.
//
// Seeding one well-mixed hash by the probe index stands in for k independent
// hash families. A zero modulus has no valid positions and is rejected.
func Positions(fn HashFunc, key []byte, k int, modulus uint64, dst []uint64) ([]uint64, error) {
	if modulus == 0 {
		return dst, ErrDegenerateModulus
	}
	for i := 0; i < k; i++ {
		dst = append(dst, position(fn, key, i, modulus))
	}
	return dst, nil
}
