package bloom

import "math"

const (
	// MinHashCount is the lower clamp for the derived hash count. A filter
	// always probes at least one bit per key.
	MinHashCount = 1

	// MaxHashCount is the upper clamp for the derived hash count. Beyond eight
	// probes the marginal FPR gain is small for the sizes this package targets,
	// and it keeps every Add/Check bounded to eight hash evaluations.
	MaxHashCount = 8
)

// ComputeHashCount returns the optimal number of hash functions k for a
// bitfield of byteSize bytes expected to hold elementCount elements.
//
// The optimum is k = (m/n) * ln(2) with m = byteSize*8. The result is
// truncated and clamped to [MinHashCount, MaxHashCount].
func ComputeHashCount(byteSize, elementCount uint64) (int, error) {
	if byteSize == 0 {
		return 0, ErrInvalidSize
	}
	if elementCount == 0 {
		return 0, ErrInvalidCapacity
	}

	// Clamp before converting: very large ratios overflow int.
	bits := float64(byteSize) * 8
	k := math.Min((bits/float64(elementCount))*math.Ln2, MaxHashCount)

	return max(int(k), MinHashCount), nil
}

// ComputeFalsePositiveRate estimates the probability that Check returns true
// for a key never added, for a filter of byteSize bytes holding elementCount
// elements probed with hashCount hash functions:
//
//	P ≈ (1 - e^(-k*n/m))^k
//
// The result is in [0, 1]. An empty filter (n = 0) has rate 0.
func ComputeFalsePositiveRate(byteSize, elementCount uint64, hashCount int) float64 {
	if byteSize == 0 || hashCount <= 0 {
		return 1
	}
	if elementCount == 0 {
		return 0
	}

	m := float64(byteSize) * 8
	n := float64(elementCount)
	k := float64(hashCount)

	return math.Pow(1-math.Exp(-k*n/m), k)
}

// LegacyFalsePositiveRate is the single-hash approximation 1 - (1 - 1/m)^n.
// It is the fraction of bits expected to be set after n single-bit inserts,
// which matches the checksum strategy but overstates the error of the seeded
// filter. Kept for reporting only.
func LegacyFalsePositiveRate(byteSize, elementCount uint64) float64 {
	if byteSize == 0 {
		return 1
	}
	m := float64(byteSize) * 8
	return 1 - math.Pow(1-1/m, float64(elementCount))
}

// FlagValue returns the single-bit mask 2^i for an intra-byte flag index.
// The index is folded modulo 8 so the mask always fits in a byte.
func FlagValue(i uint) byte {
	return byte(1) << (i & 7)
}

// EstimateSize returns the bitfield size in bytes needed to hold capacity
// elements at the target false positive rate, using the standard sizing
// formula m = -(n * ln(p)) / (ln(2)^2) rounded up to whole bytes.
func EstimateSize(capacity uint64, errorRate float64) uint64 {
	// A zero capacity sizes for one key; the rate is pulled into (0, 1).
	if capacity == 0 {
		capacity = 1
	}
	if errorRate <= 0 {
		errorRate = 1e-9
	} else if errorRate >= 1.0 {
		errorRate = 0.99
	}

	m := -float64(capacity) * math.Log(errorRate) / (math.Ln2 * math.Ln2)

	size := uint64(math.Ceil(m / 8.0))
	if size == 0 {
		size = 1
	}
	return size
}
