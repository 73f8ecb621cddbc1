package bloom

import (
	"fmt"
	"strings"
)

// Membership is the capability shared by every filter strategy. Callers pick
// a strategy once, at construction, and program against this interface.
type Membership interface {
	// Add inserts key and increments the element count.
	Add(key []byte)
	// Check reports whether key is possibly present. False is definitive.
	Check(key []byte) bool

	ElementCount() uint64
	HashCount() int
	Size() uint64
	Capacity() uint64
	Strategy() Strategy

	// Bytes returns a copy of the bitfield.
	Bytes() []byte
	// Bitfield returns the bitfield without copying. The view aliases the
	// filter: it is valid only until the next Add and must not be modified.
	// Use Bytes for a copy that outlives the call.
	Bitfield() Bitfield
	// FalsePositiveRate estimates the error rate at the current element count.
	FalsePositiveRate() float64
}

// Strategy selects a Membership implementation.
type Strategy uint8

const (
	// StrategySeeded is Filter: k probes from one seeded 64-bit hash.
	StrategySeeded Strategy = iota + 1

	// StrategyChecksum is ChecksumFilter: one probe from a CRC-64 of the key.
	StrategyChecksum
)

func (s Strategy) Valid() bool {
	return s == StrategySeeded || s == StrategyChecksum
}

func (s Strategy) String() string {
	switch s {
	case StrategySeeded:
		return "seeded"
	case StrategyChecksum:
		return "checksum"
	default:
		return fmt.Sprintf("Strategy(%d)", uint8(s))
	}
}

// ParseStrategy maps "seeded" or "checksum" to its Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "seeded", "multi", "":
		return StrategySeeded, nil
	case "checksum", "crc", "crc64":
		return StrategyChecksum, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidStrategy, s)
	}
}

// NewMembership creates an empty filter of the given strategy. cfg only
// applies to StrategySeeded.
func NewMembership(s Strategy, size, capacity uint64, cfg Config) (Membership, error) {
	switch s {
	case StrategySeeded:
		return New(size, capacity, cfg)
	case StrategyChecksum:
		return NewChecksum(size, capacity)
	default:
		return nil, ErrInvalidStrategy
	}
}

// LoadMembership reconstructs a filter of the given strategy from its
// serialized bitfield and the counts carried alongside it.
func LoadMembership(s Strategy, data []byte, capacity, elementCount uint64, cfg Config) (Membership, error) {
	switch s {
	case StrategySeeded:
		return Load(data, capacity, elementCount, cfg)
	case StrategyChecksum:
		return LoadChecksum(data, capacity, elementCount)
	default:
		return nil, ErrInvalidStrategy
	}
}

// HashOf returns the seeded primitive behind m, or 0 if m does not use one.
func HashOf(m Membership) Hash {
	if h, ok := m.(interface{ Hash() Hash }); ok {
		return h.Hash()
	}
	return 0
}
