// Package bloom implements a fixed-size Bloom filter over arbitrary byte keys.
//
// A Bloom filter is a probabilistic data structure that allows checking if an
// element is *definitely not* in a set or *probably* in a set. It stores no
// keys, only a bit array, and it does not support deletion.
//
// Unlike a scalable filter, the bit array here never grows. Size (in bytes)
// and expected capacity are fixed at construction; capacity is used once to
// derive the number of probes per key and is not enforced afterwards. Adding
// more elements than the capacity keeps working, with a rising false positive
// rate.
//
// The Algorithm
// =============
//
//  1. Parameters: k = floor((m/n) * ln 2), clamped to [1, 8], where m is the
//     bit count and n the expected capacity (ComputeHashCount).
//
//  2. Probes: for i in 0..k-1 the key is hashed with a single fast 64-bit
//     hash seeded by i (xxHash64 by default, MurmurHash3 optionally). Each
//     digest is folded into [0, m) by modulus.
//
//  3. Bits: probe p addresses byte p/8, flag p%8. Add sets every probed bit;
//     Check returns false at the first unset bit.
//
// A second strategy, ChecksumFilter, probes a single bit chosen by a CRC-64
// checksum of the key. Both satisfy Membership and are chosen at construction
// time.
//
// Data Layout
// ===========
//
// The serialized form of a filter is the bitfield and nothing else:
//
//	+--------+--------+--------+-----+----------+
//	| Byte 0 | Byte 1 | Byte 2 | ... | Byte N-1 |
//	+--------+--------+--------+-----+----------+
//	  bits 0-7 (LSB first)
//
// Capacity, hash count, element count and hash primitive are not embedded.
// Callers that need to reload a filter must carry them alongside (see the
// snapshot package).
//
// Concurrency
// ===========
//
// Filters are not safe for concurrent use. Add is a read-modify-write on
// shared bytes. Wrap a filter in Locked to share it between goroutines.
package bloom

// Config holds the construction parameters that are not part of the
// size/capacity contract.
type Config struct {
	// Hash selects the seeded primitive used for probing. A reloaded filter
	// must use the same Hash it was built with.
	Hash Hash
}

// DefaultConfig returns the configuration used when none is specified.
func DefaultConfig() Config {
	return Config{Hash: HashXXH64}
}

func (c Config) withDefaults() Config {
	if !c.Hash.Valid() {
		c.Hash = HashXXH64
	}
	return c
}

// Filter is the seeded multi-hash Bloom filter.
type Filter struct {
	bits      Bitfield
	capacity  uint64
	elements  uint64
	hashCount int
	hash      Hash
	fn        HashFunc
}

var _ Membership = (*Filter)(nil)

// New creates an empty filter with a bitfield of size bytes, sized for
// capacity expected elements. It fails with an error matching
// ErrInvalidArgument if size or capacity is zero.
func New(size, capacity uint64, cfg Config) (*Filter, error) {
	k, err := ComputeHashCount(size, capacity)
	if err != nil {
		return nil, err
	}

	cfg = cfg.withDefaults()
	return &Filter{
		bits:      make(Bitfield, size),
		capacity:  capacity,
		hashCount: k,
		hash:      cfg.Hash,
		fn:        cfg.Hash.Func(),
	}, nil
}

// Load reconstructs a filter from a bitfield previously returned by Bytes.
//
// The bytes are copied. The hash count is recomputed from len(data) and
// capacity, so capacity (and cfg.Hash) must match the values the filter was
// created with, or probes will land on different bits. elementCount is
// trusted as given; it cannot be recovered from bit density.
func Load(data []byte, capacity, elementCount uint64, cfg Config) (*Filter, error) {
	f, err := New(uint64(len(data)), capacity, cfg)
	if err != nil {
		return nil, err
	}
	copy(f.bits, data)
	f.elements = elementCount
	return f, nil
}

// Add inserts key. The element count is incremented on every call, including
// duplicates that set no new bits.
func (f *Filter) Add(key []byte) {
	m := f.bits.Bits()
	for i := 0; i < f.hashCount; i++ {
		f.bits.Set(position(f.fn, key, i, m))
	}
	f.elements++
}

// Check reports whether key is possibly present. A false result is exact:
// the key was never added.
func (f *Filter) Check(key []byte) bool {
	m := f.bits.Bits()
	for i := 0; i < f.hashCount; i++ {
		if !f.bits.Check(position(f.fn, key, i, m)) {
			return false
		}
	}
	return true
}

// Bytes returns a copy of the bitfield exactly as stored.
func (f *Filter) Bytes() []byte {
	out := make([]byte, len(f.bits))
	copy(out, f.bits)
	return out
}

// Bitfield returns the bits without copying. The view is valid only until the
// next Add and must not be modified.
func (f *Filter) Bitfield() Bitfield { return f.bits }

// ElementCount returns the number of Add calls made so far (plus the count
// supplied to Load).
func (f *Filter) ElementCount() uint64 { return f.elements }

// HashCount returns k, the number of probes per key.
func (f *Filter) HashCount() int { return f.hashCount }

// Size returns the bitfield length in bytes.
func (f *Filter) Size() uint64 { return uint64(len(f.bits)) }

// Capacity returns the expected element count the filter was sized for.
func (f *Filter) Capacity() uint64 { return f.capacity }

// Hash returns the seeded primitive used for probing.
func (f *Filter) Hash() Hash { return f.hash }

// Strategy returns StrategySeeded.
func (f *Filter) Strategy() Strategy { return StrategySeeded }

// FalsePositiveRate estimates the current false positive rate from the
// element count.
func (f *Filter) FalsePositiveRate() float64 {
	return ComputeFalsePositiveRate(f.Size(), f.elements, f.hashCount)
}

// Clone returns a deep copy that shares no memory with f.
func (f *Filter) Clone() *Filter {
	c := *f
	c.bits = Bitfield(f.Bytes())
	return &c
}
