package snapshot

import "encoding/binary"

// Header is a flyweight over the fixed-size header that precedes the
// bitfield in a bundled snapshot. It gives endian-aware access to the fields
// without copying them out of the buffer.
//
//	+--------+--------+--------+--------+----+----+----+----+----------+
//	| Magic  | Size   | Cap    | Count  | K  | S  | H  | V  | Reserved |
//	+--------+--------+--------+--------+----+----+----+----+----------+
//	  8B       8B       8B       8B       1B   1B   1B   1B   4B
//
// K is the hash count, S the strategy, H the hash primitive (0 for the
// checksum strategy) and V the format version.
type Header []byte

const (
	// Magic is the signature "IBLOOM01" in hex, stored little-endian.
	Magic = 0x49424C4F4F4D3031

	// Version is the current header format version.
	Version = 1

	HeaderSize   = 40
	ChecksumSize = 8
)

func (h Header) Magic() uint64 {
	return binary.LittleEndian.Uint64(h[0:8])
}

func (h Header) SetMagic(v uint64) {
	binary.LittleEndian.PutUint64(h[0:8], v)
}

// Size returns the bitfield length in bytes.
func (h Header) Size() uint64 {
	return binary.LittleEndian.Uint64(h[8:16])
}

func (h Header) SetSize(v uint64) {
	binary.LittleEndian.PutUint64(h[8:16], v)
}

func (h Header) Capacity() uint64 {
	return binary.LittleEndian.Uint64(h[16:24])
}

func (h Header) SetCapacity(v uint64) {
	binary.LittleEndian.PutUint64(h[16:24], v)
}

func (h Header) ElementCount() uint64 {
	return binary.LittleEndian.Uint64(h[24:32])
}

func (h Header) SetElementCount(v uint64) {
	binary.LittleEndian.PutUint64(h[24:32], v)
}

func (h Header) HashCount() uint8 { return h[32] }
func (h Header) SetHashCount(v uint8) { h[32] = v }
func (h Header) Strategy() uint8 { return h[33] }
func (h Header) SetStrategy(v uint8) { h[33] = v }
func (h Header) Hash() uint8 { return h[34] }
func (h Header) SetHash(v uint8) { h[34] = v }
func (h Header) Version() uint8 { return h[35] }
func (h Header) SetVersion(v uint8) { h[35] = v }
