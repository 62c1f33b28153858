package proto

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/fit-codec/basetype"
	"github.com/lucasjlepore/fit-codec/value"
)

func TestParseHeader(t *testing.T) {
	cases := []struct {
		name string
		b    byte
		want Header
	}{
		{"definition", 0x40, Header{Definition: true}},
		{"definition dev", 0x63, Header{Definition: true, DevData: true, LocalType: 3}},
		{"data", 0x05, Header{LocalType: 5}},
		{"data ignores dev bit", 0x25, Header{LocalType: 5}},
		{"compressed", 0xA2, Header{Compressed: true, LocalType: 1, TimeOffset: 2}},
		{"compressed max", 0xFF, Header{Compressed: true, LocalType: 3, TimeOffset: 31}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseHeader(tc.b))
		})
	}
}

func TestHeaderByteRoundTrip(t *testing.T) {
	for _, b := range []byte{0x00, 0x0F, 0x40, 0x4F, 0x60, 0x6A, 0x80, 0x9F, 0xE0, 0xFF} {
		assert.Equal(t, b, ParseHeader(b).Byte(), "header 0x%02X", b)
	}
}

func fileIDDefinition(bigEndian bool) *Definition {
	return &Definition{
		BigEndian: bigEndian,
		Global:    0,
		Fields: []FieldDef{
			NewFieldDef(0, 1, basetype.Enum),
			NewFieldDef(1, 2, basetype.Uint16),
			NewFieldDef(2, 2, basetype.Uint16),
			NewFieldDef(3, 4, basetype.Uint32z),
			NewFieldDef(4, 4, basetype.Uint32),
		},
	}
}

func TestDefinitionRoundTripBothArchitectures(t *testing.T) {
	for _, big := range []bool{false, true} {
		def := fileIDDefinition(big)
		def.Global = 0x1234
		raw, err := def.AppendBinary(nil)
		require.NoError(t, err)

		src := NewByteSource(raw)
		hb, err := src.Next(1)
		require.NoError(t, err)
		h := ParseHeader(hb[0])
		require.True(t, h.Definition)

		got, err := ParseDefinition(h, src)
		require.NoError(t, err)
		assert.Equal(t, uint16(0x1234), got.Global)
		assert.Equal(t, big, got.BigEndian)
		assert.True(t, def.SameShape(got))
		assert.Equal(t, 13, got.DataSize())
	}
}

func TestDefinitionGlobalNumberByteOrder(t *testing.T) {
	raw := []byte{0x40, 0x00, 0x01, 0x00, 0x14, 0x00}
	src := NewByteSource(raw[1:])
	def, err := ParseDefinition(ParseHeader(raw[0]), src)
	require.NoError(t, err)
	assert.Equal(t, uint16(20), def.Global)
	assert.Equal(t, binary.BigEndian, def.ByteOrder())
}

func TestDefinitionUnknownBaseTypeIsKept(t *testing.T) {
	raw := []byte{0x00, 0x00, 0x14, 0x00, 0x02, 3, 1, 0x02, 7, 3, 0x1F}
	def, err := ParseDefinition(Header{Definition: true}, NewByteSource(raw))
	require.NoError(t, err)
	require.Len(t, def.Fields, 2)
	assert.False(t, def.Fields[0].Unknown)
	assert.True(t, def.Fields[1].Unknown)
	assert.Equal(t, byte(0x1F), def.Fields[1].RawType)

	v := def.Fields[1].Decode([]byte{1, 2, 3}, def.ByteOrder(), value.Scaling{})
	b, ok := v.Bytes()
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, b)
}

func TestDefinitionDeveloperFields(t *testing.T) {
	def := fileIDDefinition(false)
	def.DevFields = []DevFieldDef{{Num: 0, Size: 4, DevIndex: 1}}
	raw, err := def.AppendBinary(nil)
	require.NoError(t, err)
	assert.Equal(t, byte(0x60), raw[0])

	got, err := ParseDefinition(ParseHeader(raw[0]), NewByteSource(raw[1:]))
	require.NoError(t, err)
	assert.Equal(t, def.DevFields, got.DevFields)
	assert.Equal(t, 17, got.DataSize())
}

func TestDefinitionBadArchitecture(t *testing.T) {
	_, err := ParseDefinition(Header{Definition: true}, NewByteSource([]byte{0, 2, 0, 0, 0}))
	assert.ErrorIs(t, err, ErrArchitecture)
}

func TestReaderTruncatedDefinitionIsFraming(t *testing.T) {
	def := fileIDDefinition(false)
	raw, err := def.AppendBinary(nil)
	require.NoError(t, err)

	r := NewReader(NewByteSource(raw[:len(raw)-2]))
	_, err = r.Next()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFraming))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 1, de.Record)
	assert.Equal(t, int64(0), de.Offset)
}

func TestReaderUndefinedLocalType(t *testing.T) {
	r := NewReader(NewByteSource([]byte{0x03, 0x00}))
	_, err := r.Next()
	assert.ErrorIs(t, err, ErrFraming)
	assert.ErrorIs(t, err, ErrUndefinedLocalType)
}

func TestReaderLocalTypeOverride(t *testing.T) {
	var buf []byte
	first := &Definition{Global: 20, Fields: []FieldDef{NewFieldDef(3, 1, basetype.Uint8)}}
	second := &Definition{Global: 21, Fields: []FieldDef{NewFieldDef(0, 2, basetype.Uint16)}}
	buf, _ = first.AppendBinary(buf)
	buf = append(buf, 0x00, 0x64)
	buf, _ = second.AppendBinary(buf)
	buf = append(buf, 0x00, 0x01, 0x02)

	r := NewReader(NewByteSource(buf))
	var data []*Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if !rec.Header.Definition {
			data = append(data, rec)
		}
	}
	require.Len(t, data, 2)
	assert.Equal(t, uint16(20), data[0].Definition.Global)
	assert.Equal(t, []byte{0x64}, data[0].Fields[0])
	assert.Equal(t, uint16(21), data[1].Definition.Global)
	assert.Equal(t, []byte{0x01, 0x02}, data[1].Fields[0])
	assert.Equal(t, 4, data[1].Index)
	assert.Equal(t, 3, data[1].Len())
}

func TestReaderSourceMatchesByteSource(t *testing.T) {
	def := fileIDDefinition(true)
	raw, err := def.AppendBinary(nil)
	require.NoError(t, err)
	raw = append(raw, 0x00)
	raw = append(raw, bytes.Repeat([]byte{0x01}, 13)...)

	for _, src := range []Source{NewByteSource(raw), NewReaderSource(bytes.NewReader(raw))} {
		r := NewReader(src)
		_, err := r.Next()
		require.NoError(t, err)
		rec, err := r.Next()
		require.NoError(t, err)
		assert.Len(t, rec.Fields, 5)
		assert.Equal(t, int64(len(raw)), r.Offset())
		_, err = r.Next()
		assert.Equal(t, io.EOF, err)
	}
}

func TestLocalTable(t *testing.T) {
	var tab LocalTable
	a := &Definition{LocalType: 200, Global: 1}
	b := &Definition{LocalType: 200, Global: 2}
	assert.Nil(t, tab.Install(a))
	assert.Same(t, a, tab.Install(b))
	assert.Same(t, b, tab.Lookup(200))
	assert.Equal(t, []uint8{200}, tab.Defined())
	tab.Reset()
	assert.Nil(t, tab.Lookup(200))
}
