package snapshot

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"ibloom.lopezb.com/internal/bloom"
)

// RecordSuffix is appended to a detached bitfield path to name its sidecar.
const RecordSuffix = ".cbor"

// SaveFile writes m to path as a bundled snapshot. The file is replaced
// atomically; readers see either the old snapshot or the new one.
func SaveFile(path string, m bloom.Membership) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		return Write(w, m)
	})
}

// LoadFile reads a bundled snapshot from path.
func LoadFile(path string) (bloom.Membership, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	m, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// SaveDetached writes the raw bitfield of m to path and its Record to
// path+RecordSuffix. The bitfield is written first so a crash between the
// two renames leaves a record that fails its checksum rather than one that
// silently describes stale bits.
func SaveDetached(path string, m bloom.Membership) error {
	rec := RecordOf(m)
	data, err := MarshalRecord(rec)
	if err != nil {
		return err
	}

	if err := writeFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(m.Bitfield())
		return err
	}); err != nil {
		return err
	}

	return writeFileAtomic(path+RecordSuffix, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// LoadDetached reads the bitfield at path and its sidecar record.
func LoadDetached(path string) (bloom.Membership, error) {
	rec, err := LoadRecord(path + RecordSuffix)
	if err != nil {
		return nil, err
	}

	bits, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	m, err := rec.Load(bits)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// LoadRecord reads and decodes a sidecar record.
func LoadRecord(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}
	return UnmarshalRecord(data)
}

// writeFileAtomic streams fill into a temporary file next to path, syncs it
// and renames it over path. On any error the temporary file is removed and
// the existing file at path is left untouched.
func writeFileAtomic(path string, fill func(w io.Writer) error) error {
	tmpName := path + ".tmp"
	f, err := os.Create(tmpName)
	if err != nil {
		return err
	}

	// State flags for deferred cleanup.
	var (
		fileClosed    bool
		renameSuccess bool
	)
	defer func() {
		if !fileClosed {
			_ = f.Close()
		}
		if !renameSuccess {
			_ = os.Remove(tmpName)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := fill(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	// Ensure data is physically on disk before we swap.
	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fileClosed = true

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	renameSuccess = true

	return nil
}
