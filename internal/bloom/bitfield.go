package bloom

import "math/bits"

// Bitfield is a flyweight over the raw bytes backing a filter. Bit i lives in
// byte i/8 at flag position i%8, least-significant bit first, so the byte
// slice is the persisted form with no translation.
//
// Every accessor folds its index modulo Bits(), which keeps the operations
// total for any 64-bit digest. Methods panic on an empty Bitfield; filters
// never construct one.
type Bitfield []byte

// Bits returns the addressable bit count, len*8.
func (b Bitfield) Bits() uint64 {
	return uint64(len(b)) * 8
}

// locate folds bitIndex into range and returns the byte offset and the mask
// selecting the bit within that byte.
func (b Bitfield) locate(bitIndex uint64) (uint64, byte) {
	folded := bitIndex % b.Bits()
	return folded / 8, FlagValue(uint(folded % 8))
}

// Check reports whether the bit at bitIndex (folded into range) is set.
func (b Bitfield) Check(bitIndex uint64) bool {
	idx, mask := b.locate(bitIndex)
	return b[idx]&mask == mask
}

// Set turns on the bit at bitIndex (folded into range). It returns true if
// the bit flipped from 0 to 1 and false if it was already set.
func (b Bitfield) Set(bitIndex uint64) bool {
	idx, mask := b.locate(bitIndex)
	if b[idx]&mask == mask {
		return false
	}
	b[idx] |= mask
	return true
}

// OnesCount returns the number of set bits.
func (b Bitfield) OnesCount() uint64 {
	var n uint64
	for _, v := range b {
		n += uint64(bits.OnesCount8(v))
	}
	return n
}

// FillRatio returns the fraction of bits that are set, in [0, 1].
func (b Bitfield) FillRatio() float64 {
	if len(b) == 0 {
		return 0
	}
	return float64(b.OnesCount()) / float64(b.Bits())
}
