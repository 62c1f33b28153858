package basetype

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAcceptsBaseTypeNumber(t *testing.T) {
	bt, ok := Parse(0x04)
	require.True(t, ok)
	assert.Equal(t, Uint16, bt)

	bt, ok = Parse(0x84)
	require.True(t, ok)
	assert.Equal(t, Uint16, bt)

	bt, ok = Parse(0x90)
	require.True(t, ok)
	assert.Equal(t, Uint64z, bt)
}

func TestParseUnknownCode(t *testing.T) {
	bt, ok := Parse(0x1F)
	assert.False(t, ok)
	assert.False(t, bt.Known())
	assert.Equal(t, 1, bt.Size())
	assert.Equal(t, "unknown_0x1F", bt.String())
}

func TestAllCoversEveryType(t *testing.T) {
	all := All()
	assert.Len(t, all, 17)
	assert.Equal(t, Enum, all[0])
	assert.Equal(t, Uint64z, all[len(all)-1])
}

func TestSentinels(t *testing.T) {
	cases := []struct {
		bt      BaseType
		invalid uint64
	}{
		{Enum, 0xFF},
		{Sint8, 0x7F},
		{Uint8, 0xFF},
		{Sint16, 0x7FFF},
		{Uint16, 0xFFFF},
		{Sint32, 0x7FFFFFFF},
		{Uint32, 0xFFFFFFFF},
		{Float32, 0xFFFFFFFF},
		{Float64, 0xFFFFFFFFFFFFFFFF},
		{Uint8z, 0},
		{Uint16z, 0},
		{Uint32z, 0},
		{Byte, 0xFF},
		{Sint64, 0x7FFFFFFFFFFFFFFF},
		{Uint64, 0xFFFFFFFFFFFFFFFF},
		{Uint64z, 0},
	}
	for _, tc := range cases {
		t.Run(tc.bt.String(), func(t *testing.T) {
			assert.True(t, tc.bt.IsInvalid(tc.invalid))
			assert.False(t, tc.bt.IsInvalid(1))
		})
	}
}

func TestReadPutRawRespectsOrder(t *testing.T) {
	buf := make([]byte, 4)
	Uint32.PutRaw(buf, binary.BigEndian, 0x12345678)
	assert.Equal(t, []byte{0x12, 0x34, 0x56, 0x78}, buf)
	assert.Equal(t, uint64(0x78563412), Uint32.ReadRaw(buf, binary.LittleEndian))
	assert.Equal(t, uint64(0x12345678), Uint32.ReadRaw(buf, binary.BigEndian))
}

func TestSignExtend(t *testing.T) {
	assert.Equal(t, int64(-1), Sint8.SignExtend(0xFF))
	assert.Equal(t, int64(-2), Sint16.SignExtend(0xFFFE))
	assert.Equal(t, int64(-3), Sint32.SignExtend(0xFFFFFFFD))
}

func TestIntRange(t *testing.T) {
	lo, hi := Sint8.IntRange()
	assert.Equal(t, int64(-128), lo)
	assert.Equal(t, uint64(127), hi)

	lo, hi = Uint16.IntRange()
	assert.Equal(t, int64(0), lo)
	assert.Equal(t, uint64(0xFFFF), hi)

	_, hi = Uint64.IntRange()
	assert.Equal(t, uint64(0xFFFFFFFFFFFFFFFF), hi)
}

func TestClassification(t *testing.T) {
	assert.True(t, Enum.Integer())
	assert.True(t, Uint32z.Integer())
	assert.False(t, Float32.Integer())
	assert.False(t, String.Integer())
	assert.False(t, Byte.Integer())
	assert.True(t, Float64.Float())
	assert.True(t, Sint16.EndianAble())
	assert.False(t, Uint8.EndianAble())
}

func TestParseNameMatchesString(t *testing.T) {
	for _, bt := range All() {
		got, ok := ParseName(bt.String())
		require.True(t, ok, bt.String())
		assert.Equal(t, bt, got)
	}
	_, ok := ParseName("uint128")
	assert.False(t, ok)
}
