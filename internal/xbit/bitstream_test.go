package xbit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitWriterReaderRoundTrip(t *testing.T) {
	w := NewBitWriter()
	w.WriteBits(0b101, 3)
	w.WriteBits(0b11110000, 8)
	w.WriteBits(0b1, 1)
	buf := w.Bytes()

	r := NewBitReader(buf)
	v, err := r.ReadBits(3)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b101), v)

	v, err = r.ReadBits(8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b11110000), v)

	v, err = r.ReadBits(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)
}

func TestBitWriterPadsTrailingByte(t *testing.T) {
	w := NewBitWriter()
	w.WriteBits(0b1, 1)
	buf := w.Bytes()
	require.Len(t, buf, 1)
	assert.Equal(t, byte(0b10000000), buf[0])
}

func TestBitReaderExhaustedReturnsError(t *testing.T) {
	r := NewBitReader([]byte{0xFF})
	_, err := r.ReadBits(8)
	require.NoError(t, err)
	_, err = r.ReadBits(1)
	assert.Error(t, err)
}

func TestBitReaderRemaining(t *testing.T) {
	r := NewBitReader([]byte{0xAB})
	assert.True(t, r.Remaining())
	_, err := r.ReadBits(8)
	require.NoError(t, err)
	assert.False(t, r.Remaining())
}

func TestLittleEndianRoundTrips(t *testing.T) {
	var buf []byte
	buf = PutUint16LE(buf, 0x1234)
	buf = PutUint32LE(buf, 0x89ABCDEF)
	buf = PutUint64LE(buf, 0x0123456789ABCDEF)

	assert.Equal(t, uint16(0x1234), Uint16LE(buf[0:2]))
	assert.Equal(t, uint32(0x89ABCDEF), Uint32LE(buf[2:6]))
	assert.Equal(t, uint64(0x0123456789ABCDEF), Uint64LE(buf[6:14]))
}
