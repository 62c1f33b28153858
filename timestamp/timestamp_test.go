package timestamp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressedWrapsForward(t *testing.T) {
	var s State
	s.Observe(100)
	ts, ok := s.Compressed(2)
	require.True(t, ok)
	assert.Equal(t, uint32(130), ts)

	// The resolved value is the next reference.
	ts, ok = s.Compressed(3)
	require.True(t, ok)
	assert.Equal(t, uint32(131), ts)
}

func TestCompressedWithinPeriod(t *testing.T) {
	var s State
	s.Observe(100)
	ts, ok := s.Compressed(10)
	require.True(t, ok)
	assert.Equal(t, uint32(106), ts)

	ts, _ = s.Compressed(10)
	assert.Equal(t, uint32(106), ts)
}

func TestCompressedWithoutReference(t *testing.T) {
	var s State
	_, ok := s.Compressed(5)
	assert.False(t, ok)
	_, ok = s.Last()
	assert.False(t, ok)
}

func TestReconstruct16(t *testing.T) {
	last := uint32(0x3F001234)
	assert.Equal(t, uint32(0x3F002000), Reconstruct16(last, 0x2000))
	assert.Equal(t, uint32(0x3F011000), Reconstruct16(last, 0x1000))
	assert.Equal(t, last, Reconstruct16(last, 0x1234))
}

func TestRolloverEdges(t *testing.T) {
	assert.Equal(t, uint64(7), Rollover(1000, 7, 0))
	assert.Equal(t, uint64(7), Rollover(1000, 7, 64))
	assert.Equal(t, uint64(0x1_0000_0001), Rollover(0xFFFF_FFF0, 1, 8))
	assert.Equal(t, uint32(0x1F), Reconstruct(0, 0xFF, 5))
}

func TestAccumulator(t *testing.T) {
	acc := NewAccumulator()
	assert.Equal(t, uint64(250), acc.Accumulate(20, 19, 250, 8))
	assert.Equal(t, uint64(260), acc.Accumulate(20, 19, 4, 8))
	assert.Equal(t, uint64(260), acc.Accumulate(20, 19, 4, 8))
	assert.Equal(t, uint64(5), acc.Accumulate(20, 5, 5, 8))

	v, ok := acc.Peek(20, 19)
	require.True(t, ok)
	assert.Equal(t, uint64(260), v)

	acc.Reset()
	_, ok = acc.Peek(20, 19)
	assert.False(t, ok)
}

func TestEpochConversions(t *testing.T) {
	assert.Equal(t, Epoch, ToTime(0))
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, at, ToTime(FromTime(at)))
	assert.Equal(t, uint32(0), FromTime(time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, uint32(631065600), uint32(Epoch.Unix()))
}
