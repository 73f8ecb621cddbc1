package bloom

import "hash/crc64"

var crcTable = crc64.MakeTable(crc64.ISO)

// ChecksumFilter is the single-hash strategy: each key sets exactly one bit,
// chosen by the CRC-64 (ISO polynomial) of the key. It trades a higher false
// positive rate for one cheap checksum per operation.
type ChecksumFilter struct {
	bits     Bitfield
	capacity uint64
	elements uint64
}

var _ Membership = (*ChecksumFilter)(nil)

// NewChecksum creates an empty checksum filter of size bytes. capacity does
// not influence probing (k is always 1) but is validated and recorded so the
// filter round-trips through the same companion record as Filter.
func NewChecksum(size, capacity uint64) (*ChecksumFilter, error) {
	if size == 0 {
		return nil, ErrInvalidSize
	}
	if capacity == 0 {
		return nil, ErrInvalidCapacity
	}
	return &ChecksumFilter{
		bits:     make(Bitfield, size),
		capacity: capacity,
	}, nil
}

// LoadChecksum reconstructs a checksum filter from bytes returned by Bytes.
// The bytes are copied and elementCount is trusted.
func LoadChecksum(data []byte, capacity, elementCount uint64) (*ChecksumFilter, error) {
	f, err := NewChecksum(uint64(len(data)), capacity)
	if err != nil {
		return nil, err
	}
	copy(f.bits, data)
	f.elements = elementCount
	return f, nil
}

func (f *ChecksumFilter) Add(key []byte) {
	f.bits.Set(crc64.Checksum(key, crcTable))
	f.elements++
}

func (f *ChecksumFilter) Check(key []byte) bool {
	return f.bits.Check(crc64.Checksum(key, crcTable))
}

func (f *ChecksumFilter) Bytes() []byte {
	out := make([]byte, len(f.bits))
	copy(out, f.bits)
	return out
}

func (f *ChecksumFilter) Bitfield() Bitfield { return f.bits }
func (f *ChecksumFilter) ElementCount() uint64 { return f.elements }
func (f *ChecksumFilter) HashCount() int { return 1 }
func (f *ChecksumFilter) Size() uint64 { return uint64(len(f.bits)) }
func (f *ChecksumFilter) Capacity() uint64 { return f.capacity }
func (f *ChecksumFilter) Strategy() Strategy { return StrategyChecksum }

// FalsePositiveRate uses the single-hash estimate, which is exact for k = 1.
func (f *ChecksumFilter) FalsePositiveRate() float64 {
	return LegacyFalsePositiveRate(f.Size(), f.elements)
}
