package bloom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitfieldFold(t *testing.T) {
	b := make(Bitfield, 1)
	require.Equal(t, uint64(8), b.Bits())

	// Bit 8 folds back onto bit 0 of a one-byte field.
	assert.True(t, b.Set(0))
	assert.False(t, b.Set(8), "bit 8 should alias bit 0")

	assert.True(t, b.Check(0))
	assert.True(t, b.Check(8))
	for i := uint64(1); i < 8; i++ {
		assert.False(t, b.Check(i), "bit %d should be clear", i)
	}
	assert.Equal(t, byte(0x01), b[0])
}

func TestBitfieldLayout(t *testing.T) {
	b := make(Bitfield, 4)

	// Bit i lives in byte i/8 at flag i%8, LSB first.
	b.Set(3)
	b.Set(9)
	b.Set(31)

	assert.Equal(t, []byte{0x08, 0x02, 0x00, 0x80}, []byte(b))
	assert.Equal(t, uint64(3), b.OnesCount())
}

func TestBitfieldSetIdempotent(t *testing.T) {
	b := make(Bitfield, 8)

	assert.True(t, b.Set(42))
	snapshot := append([]byte(nil), b...)

	assert.False(t, b.Set(42))
	assert.False(t, b.Set(42+64))
	assert.Equal(t, snapshot, []byte(b))
}

func TestBitfieldLargeIndex(t *testing.T) {
	b := make(Bitfield, 3)

	// Any 64-bit digest is a valid index.
	idx := ^uint64(0)
	b.Set(idx)
	assert.True(t, b.Check(idx))
	assert.True(t, b.Check(idx%b.Bits()))
	assert.Equal(t, uint64(1), b.OnesCount())
}

func TestBitfieldFillRatio(t *testing.T) {
	b := make(Bitfield, 2)
	assert.Zero(t, b.FillRatio())

	for i := uint64(0); i < 4; i++ {
		b.Set(i)
	}
	assert.InDelta(t, 0.25, b.FillRatio(), 1e-9)

	assert.Zero(t, Bitfield(nil).FillRatio())
}
