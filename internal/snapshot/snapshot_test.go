package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc64"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ibloom.lopezb.com/internal/bloom"
)

func populated(t *testing.T, s bloom.Strategy, h bloom.Hash, n int) (bloom.Membership, [][]byte) {
	t.Helper()

	m, err := bloom.NewMembership(s, 1024, uint64(n), bloom.Config{Hash: h})
	require.NoError(t, err)

	keys := make([][]byte, n)
	for i := range keys {
		keys[i] = []byte(fmt.Sprintf("item-%d", i))
		m.Add(keys[i])
	}
	return m, keys
}

func TestHeaderAccessors(t *testing.T) {
	hdr := Header(make([]byte, HeaderSize))
	assert.Zero(t, hdr.Magic())

	hdr.SetMagic(Magic)
	hdr.SetSize(1024)
	hdr.SetCapacity(1000)
	hdr.SetElementCount(999)
	hdr.SetHashCount(5)
	hdr.SetStrategy(uint8(bloom.StrategySeeded))
	hdr.SetHash(uint8(bloom.HashMurmur3))
	hdr.SetVersion(Version)

	assert.Equal(t, uint64(Magic), hdr.Magic())
	assert.Equal(t, "10MOOLBI", string(hdr[0:8]))
	assert.Equal(t, uint64(1024), hdr.Size())
	assert.Equal(t, uint64(1000), hdr.Capacity())
	assert.Equal(t, uint64(999), hdr.ElementCount())
	assert.Equal(t, uint8(5), hdr.HashCount())
	assert.Equal(t, uint8(bloom.StrategySeeded), hdr.Strategy())
	assert.Equal(t, uint8(bloom.HashMurmur3), hdr.Hash())
	assert.Equal(t, uint8(Version), hdr.Version())
}

func TestWriteRead_RoundTrip(t *testing.T) {
	tests := []struct {
		strategy bloom.Strategy
		hash     bloom.Hash
	}{
		{bloom.StrategySeeded, bloom.HashXXH64},
		{bloom.StrategySeeded, bloom.HashMurmur3},
		{bloom.StrategyChecksum, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.strategy, tt.hash), func(t *testing.T) {
			m, keys := populated(t, tt.strategy, tt.hash, 300)

			var buf bytes.Buffer
			require.NoError(t, Write(&buf, m))
			assert.Equal(t, HeaderSize+1024+ChecksumSize, buf.Len())

			got, err := Read(&buf)
			require.NoError(t, err)
			assert.Zero(t, buf.Len(), "Read must consume the whole snapshot")

			assert.Equal(t, m.Strategy(), got.Strategy())
			assert.Equal(t, bloom.HashOf(m), bloom.HashOf(got))
			assert.Equal(t, m.Size(), got.Size())
			assert.Equal(t, m.Capacity(), got.Capacity())
			assert.Equal(t, m.HashCount(), got.HashCount())
			assert.Equal(t, m.ElementCount(), got.ElementCount())
			assert.Equal(t, m.Bytes(), got.Bytes())

			for _, k := range keys {
				assert.True(t, got.Check(k))
			}
		})
	}
}

func TestRead_LeavesTrailingData(t *testing.T) {
	m, _ := populated(t, bloom.StrategySeeded, bloom.HashXXH64, 10)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, m))
	buf.WriteString("tail")

	_, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, "tail", buf.String())
}

func TestRead_DetectsCorruption(t *testing.T) {
	m, _ := populated(t, bloom.StrategySeeded, bloom.HashXXH64, 100)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, m))
	good := buf.Bytes()

	t.Run("flipped bit", func(t *testing.T) {
		data := bytes.Clone(good)
		data[HeaderSize+17] ^= 0x10
		_, err := Read(bytes.NewReader(data))
		require.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("truncated bitfield", func(t *testing.T) {
		_, err := Read(bytes.NewReader(good[:HeaderSize+100]))
		require.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("truncated checksum", func(t *testing.T) {
		_, err := Read(bytes.NewReader(good[:len(good)-3]))
		require.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Read(bytes.NewReader(nil))
		require.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("bad magic", func(t *testing.T) {
		data := bytes.Clone(good)
		copy(data, "NOTBLOOM")
		_, err := Read(bytes.NewReader(data))
		require.ErrorIs(t, err, ErrBadMagic)
	})

	t.Run("bad version", func(t *testing.T) {
		data := bytes.Clone(good)
		Header(data).SetVersion(9)
		_, err := Read(bytes.NewReader(data))
		require.ErrorIs(t, err, ErrBadVersion)
	})

	t.Run("absurd size", func(t *testing.T) {
		data := bytes.Clone(good)
		Header(data).SetSize(MaxSize + 1)
		_, err := Read(bytes.NewReader(data))
		require.ErrorIs(t, err, ErrBadSize)
	})
}

func TestWriteRead_Locked(t *testing.T) {
	m, keys := populated(t, bloom.StrategySeeded, bloom.HashMurmur3, 100)
	l := bloom.NewLocked(m)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, l))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, bloom.HashMurmur3, bloom.HashOf(got))
	assert.Equal(t, m.Bytes(), got.Bytes())
	for _, k := range keys {
		assert.True(t, got.Check(k))
	}
}

func TestRead_ShortBodyAllocatesLittle(t *testing.T) {
	hdr := Header(make([]byte, HeaderSize))
	hdr.SetMagic(Magic)
	hdr.SetVersion(Version)
	hdr.SetSize(MaxSize)
	hdr.SetCapacity(1)
	hdr.SetHashCount(bloom.MaxHashCount)
	hdr.SetStrategy(uint8(bloom.StrategySeeded))
	hdr.SetHash(uint8(bloom.HashXXH64))

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := Read(bytes.NewReader(hdr))
	runtime.ReadMemStats(&after)

	require.ErrorIs(t, err, ErrTruncated)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20),
		"a header-only stream must not allocate the claimed bitfield size")
}

// rewriteChecksum recomputes the trailer after a deliberate header edit.
func rewriteChecksum(data []byte) {
	n := len(data) - ChecksumSize
	binary.LittleEndian.PutUint64(data[n:], crc64.Checksum(data[:n], crcTable))
}

func TestRead_RejectsInconsistentParameters(t *testing.T) {
	m, _ := populated(t, bloom.StrategySeeded, bloom.HashXXH64, 100)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, m))
	good := buf.Bytes()

	t.Run("hash count", func(t *testing.T) {
		data := bytes.Clone(good)
		Header(data).SetHashCount(uint8(m.HashCount() - 1))
		rewriteChecksum(data)
		_, err := Read(bytes.NewReader(data))
		require.ErrorIs(t, err, ErrHashCountMismatch)
	})

	t.Run("unknown hash", func(t *testing.T) {
		data := bytes.Clone(good)
		Header(data).SetHash(77)
		rewriteChecksum(data)
		_, err := Read(bytes.NewReader(data))
		require.ErrorIs(t, err, bloom.ErrInvalidHash)
	})

	t.Run("unknown strategy", func(t *testing.T) {
		data := bytes.Clone(good)
		Header(data).SetStrategy(0)
		rewriteChecksum(data)
		_, err := Read(bytes.NewReader(data))
		require.ErrorIs(t, err, bloom.ErrInvalidStrategy)
	})

	t.Run("zero capacity", func(t *testing.T) {
		data := bytes.Clone(good)
		Header(data).SetCapacity(0)
		rewriteChecksum(data)
		_, err := Read(bytes.NewReader(data))
		require.ErrorIs(t, err, bloom.ErrInvalidCapacity)
	})
}

func TestReadHeader(t *testing.T) {
	m, _ := populated(t, bloom.StrategyChecksum, 0, 42)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, m))

	hdr, err := ReadHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), hdr.ElementCount())
	assert.Equal(t, uint8(1), hdr.HashCount())
	assert.Equal(t, uint8(bloom.StrategyChecksum), hdr.Strategy())
	assert.Zero(t, hdr.Hash())
}
