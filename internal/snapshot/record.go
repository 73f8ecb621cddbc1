package snapshot

import (
	"fmt"
	"hash/crc64"

	"github.com/fxamacker/cbor/v2"

	"ibloom.lopezb.com/internal/bloom"
)

// Record is the companion record for a detached bitfield. It carries every
// parameter the raw bytes do not, plus a checksum of those bytes so a record
// cannot silently be paired with the wrong bitfield.
type Record struct {
	Strategy     string `cbor:"1,keyasint"`
	Hash         string `cbor:"2,keyasint,omitempty"`
	Size         uint64 `cbor:"3,keyasint"`
	Capacity     uint64 `cbor:"4,keyasint"`
	HashCount    int    `cbor:"5,keyasint"`
	ElementCount uint64 `cbor:"6,keyasint"`
	Checksum     uint64 `cbor:"7,keyasint"`
}

// encMode produces deterministic (core deterministic) CBOR so the same
// record always encodes to the same bytes.
var encMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// RecordOf captures the parameters of m.
func RecordOf(m bloom.Membership) Record {
	rec := Record{
		Strategy:     m.Strategy().String(),
		Size:         m.Size(),
		Capacity:     m.Capacity(),
		HashCount:    m.HashCount(),
		ElementCount: m.ElementCount(),
		Checksum:     crc64.Checksum(m.Bitfield(), crcTable),
	}
	if h := bloom.HashOf(m); h.Valid() {
		rec.Hash = h.String()
	}
	return rec
}

// MarshalRecord encodes rec as CBOR.
func MarshalRecord(rec Record) ([]byte, error) {
	return encMode.Marshal(rec)
}

// UnmarshalRecord decodes a CBOR record produced by MarshalRecord.
func UnmarshalRecord(data []byte) (Record, error) {
	var rec Record
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("snapshot: decode record: %w", err)
	}
	return rec, nil
}

// Load pairs rec with the detached bitfield bits and reconstructs the filter.
func (rec Record) Load(bits []byte) (bloom.Membership, error) {
	if uint64(len(bits)) != rec.Size {
		return nil, fmt.Errorf("%w: record says %d bytes, got %d", ErrBadSize, rec.Size, len(bits))
	}
	if crc64.Checksum(bits, crcTable) != rec.Checksum {
		return nil, ErrChecksumMismatch
	}

	s, err := bloom.ParseStrategy(rec.Strategy)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}

	var h bloom.Hash
	if s == bloom.StrategySeeded {
		if h, err = bloom.ParseHash(rec.Hash); err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
	}

	return load(s, h, bits, rec.Capacity, rec.ElementCount, rec.HashCount)
}
