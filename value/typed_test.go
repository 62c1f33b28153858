package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsIntegerConversions(t *testing.T) {
	n, ok := As[uint8](Uint(200))
	require.True(t, ok)
	assert.Equal(t, uint8(200), n)

	_, ok = As[uint8](Uint(300))
	assert.False(t, ok)

	i, ok := As[int32](Uint(7))
	require.True(t, ok)
	assert.Equal(t, int32(7), i)

	_, ok = As[uint16](Int(-1))
	assert.False(t, ok)
}

func TestAsMismatchIsNotAvailable(t *testing.T) {
	_, ok := As[float64](Uint(1))
	assert.False(t, ok)

	_, ok = As[string](Float(1))
	assert.False(t, ok)

	_, ok = As[uint32](String("x"))
	assert.False(t, ok)

	_, ok = As[int](Absent())
	assert.False(t, ok)
}

func TestAsSlice(t *testing.T) {
	vals, valid, ok := AsSlice[uint16](Array(Uint(1), Absent(), Uint(3)))
	require.True(t, ok)
	assert.Equal(t, []uint16{1, 0, 3}, vals)
	assert.Equal(t, []bool{true, false, true}, valid)

	vals, valid, ok = AsSlice[uint16](Uint(9))
	require.True(t, ok)
	assert.Equal(t, []uint16{9}, vals)
	assert.Equal(t, []bool{true}, valid)

	_, _, ok = AsSlice[float64](Array(Uint(1)))
	assert.False(t, ok)
}

func TestOfAndInterface(t *testing.T) {
	assert.Equal(t, KindUint, Of(uint16(3)).Kind())
	assert.Equal(t, KindInt, Of(int8(-3)).Kind())
	assert.Equal(t, KindFloat, Of(float32(1)).Kind())
	assert.True(t, Of(struct{}{}).IsAbsent())

	arr := Array(Uint(1), Absent())
	assert.Equal(t, []any{uint64(1), nil}, arr.Interface())
}
