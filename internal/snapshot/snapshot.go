// Package snapshot persists bloom filters together with the parameters
// needed to reload them.
//
// A filter's serialized form is its raw bitfield. Size is implied by the
// byte length, but capacity, hash count, element count and the probing
// strategy are not, so this package carries them in a companion record.
// Two layouts are supported:
//
// Bundled
// =======
//
// A single stream holding the header, the bitfield and a checksum:
//
//	+--------+----------------------+----------+
//	| Header | Bitfield             | Checksum |
//	+--------+----------------------+----------+
//	  40B      Header.Size() bytes    8B
//
// Checksum is a CRC-64 (ISO polynomial) over the header and bitfield,
// little-endian. It detects truncation and bit rot.
//
// Detached
// ========
//
// The bitfield is written verbatim to its own file, exactly as Bytes returns
// it, and the parameters go to a CBOR-encoded Record in a sidecar file. This
// is the form to use when the bitfield is shipped by a transport that cannot
// carry a header.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc64"
	"io"

	"ibloom.lopezb.com/internal/bloom"
)

// MaxSize caps the bitfield length accepted from a stream. Read grows its
// buffer only as body bytes arrive, so a header claiming MaxSize over a short
// stream costs no more than the stream itself.
const MaxSize = 1 << 32

var crcTable = crc64.MakeTable(crc64.ISO)

var (
	ErrBadMagic          = errors.New("snapshot: invalid magic number")
	ErrBadVersion        = errors.New("snapshot: unsupported version")
	ErrBadSize           = errors.New("snapshot: bitfield size out of range")
	ErrTruncated         = errors.New("snapshot: data truncated")
	ErrChecksumMismatch  = errors.New("snapshot: checksum mismatch")
	ErrHashCountMismatch = errors.New("snapshot: stored hash count does not match parameters")
)

// Write encodes m as a bundled snapshot.
func Write(w io.Writer, m bloom.Membership) error {
	hdr := Header(make([]byte, HeaderSize))
	hdr.SetMagic(Magic)
	hdr.SetSize(m.Size())
	hdr.SetCapacity(m.Capacity())
	hdr.SetElementCount(m.ElementCount())
	hdr.SetHashCount(uint8(m.HashCount()))
	hdr.SetStrategy(uint8(m.Strategy()))
	hdr.SetHash(uint8(bloom.HashOf(m)))
	hdr.SetVersion(Version)

	hasher := crc64.New(crcTable)
	mw := io.MultiWriter(w, hasher)

	if _, err := mw.Write(hdr); err != nil {
		return err
	}
	if _, err := mw.Write(m.Bitfield()); err != nil {
		return err
	}

	var sum [ChecksumSize]byte
	binary.LittleEndian.PutUint64(sum[:], hasher.Sum64())
	_, err := w.Write(sum[:])
	return err
}

// Read decodes a bundled snapshot written by Write and reconstructs the
// filter it describes. It consumes exactly the snapshot bytes from r.
func Read(r io.Reader) (bloom.Membership, error) {
	hasher := crc64.New(crcTable)
	tr := io.TeeReader(r, hasher)

	hdr := Header(make([]byte, HeaderSize))
	if _, err := io.ReadFull(tr, hdr); err != nil {
		return nil, truncated(err)
	}
	if err := validateHeader(hdr); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	if _, err := io.CopyN(&body, tr, int64(hdr.Size())); err != nil {
		return nil, truncated(err)
	}
	bits := body.Bytes()

	var sum [ChecksumSize]byte
	if _, err := io.ReadFull(r, sum[:]); err != nil {
		return nil, truncated(err)
	}
	if binary.LittleEndian.Uint64(sum[:]) != hasher.Sum64() {
		return nil, ErrChecksumMismatch
	}

	return load(
		bloom.Strategy(hdr.Strategy()),
		bloom.Hash(hdr.Hash()),
		bits,
		hdr.Capacity(),
		hdr.ElementCount(),
		int(hdr.HashCount()),
	)
}

// ReadHeader decodes and validates only the header of a bundled snapshot.
func ReadHeader(r io.Reader) (Header, error) {
	hdr := Header(make([]byte, HeaderSize))
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, truncated(err)
	}
	if err := validateHeader(hdr); err != nil {
		return nil, err
	}
	return hdr, nil
}

func validateHeader(hdr Header) error {
	if hdr.Magic() != Magic {
		return ErrBadMagic
	}
	if hdr.Version() != Version {
		return fmt.Errorf("%w: %d", ErrBadVersion, hdr.Version())
	}
	if hdr.Size() == 0 || hdr.Size() > MaxSize {
		return fmt.Errorf("%w: %d", ErrBadSize, hdr.Size())
	}
	return nil
}

// load rebuilds a filter and cross-checks the stored hash count against the
// one derived from size and capacity. A mismatch means the parameters were
// edited or the filter was built with different bounds, and probes would
// miss bits set under the k the filter was built with.
func load(s bloom.Strategy, h bloom.Hash, bits []byte, capacity, elementCount uint64, hashCount int) (bloom.Membership, error) {
	if s == bloom.StrategySeeded && !h.Valid() {
		return nil, fmt.Errorf("snapshot: %w", bloom.ErrInvalidHash)
	}
	m, err := bloom.LoadMembership(s, bits, capacity, elementCount, bloom.Config{Hash: h})
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	if m.HashCount() != hashCount {
		return nil, fmt.Errorf("%w: stored %d, derived %d", ErrHashCountMismatch, hashCount, m.HashCount())
	}
	return m, nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}
