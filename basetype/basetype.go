// Package basetype describes the fixed FIT primitive encodings: their width,
// signedness and the reserved bit pattern that marks a value as invalid.
package basetype

import (
	"encoding/binary"
	"fmt"
	"math"
)

// BaseType is the canonical FIT base type byte as written in field definitions.
type BaseType uint8

const (
	Enum    BaseType = 0x00
	Sint8   BaseType = 0x01
	Uint8   BaseType = 0x02
	Sint16  BaseType = 0x83
	Uint16  BaseType = 0x84
	Sint32  BaseType = 0x85
	Uint32  BaseType = 0x86
	String  BaseType = 0x07
	Float32 BaseType = 0x88
	Float64 BaseType = 0x89
	Uint8z  BaseType = 0x0A
	Uint16z BaseType = 0x8B
	Uint32z BaseType = 0x8C
	Byte    BaseType = 0x0D
	Sint64  BaseType = 0x8E
	Uint64  BaseType = 0x8F
	Uint64z BaseType = 0x90
)

const (
	numberMask     = 0x1F
	endianAbleFlag = 0x80
)

type traits struct {
	name          string
	size          int
	signed        bool
	floating      bool
	zeroIsInvalid bool
	invalid       uint64
}

var traitsByType = map[BaseType]traits{
	Enum:    {name: "enum", size: 1, invalid: 0xFF},
	Sint8:   {name: "sint8", size: 1, signed: true, invalid: 0x7F},
	Uint8:   {name: "uint8", size: 1, invalid: 0xFF},
	Sint16:  {name: "sint16", size: 2, signed: true, invalid: 0x7FFF},
	Uint16:  {name: "uint16", size: 2, invalid: 0xFFFF},
	Sint32:  {name: "sint32", size: 4, signed: true, invalid: 0x7FFFFFFF},
	Uint32:  {name: "uint32", size: 4, invalid: 0xFFFFFFFF},
	String:  {name: "string", size: 1, invalid: 0x00},
	Float32: {name: "float32", size: 4, signed: true, floating: true, invalid: 0xFFFFFFFF},
	Float64: {name: "float64", size: 8, signed: true, floating: true, invalid: 0xFFFFFFFFFFFFFFFF},
	Uint8z:  {name: "uint8z", size: 1, zeroIsInvalid: true},
	Uint16z: {name: "uint16z", size: 2, zeroIsInvalid: true},
	Uint32z: {name: "uint32z", size: 4, zeroIsInvalid: true},
	Byte:    {name: "byte", size: 1, invalid: 0xFF},
	Sint64:  {name: "sint64", size: 8, signed: true, invalid: 0x7FFFFFFFFFFFFFFF},
	Uint64:  {name: "uint64", size: 8, invalid: 0xFFFFFFFFFFFFFFFF},
	Uint64z: {name: "uint64z", size: 8, zeroIsInvalid: true},
}

// byNumber maps the low five "base type number" bits to the canonical type.
var byNumber = func() map[uint8]BaseType {
	m := make(map[uint8]BaseType, len(traitsByType))
	for bt := range traitsByType {
		m[uint8(bt)&numberMask] = bt
	}
	return m
}()

// Parse resolves a base type byte from a field definition. Writers sometimes
// omit the endian-ability bit, so only the low five bits are significant.
// The second result is false for codes outside the known set.
func Parse(b byte) (BaseType, bool) {
	bt, ok := byNumber[b&numberMask]
	if !ok {
		return BaseType(b), false
	}
	return bt, true
}

// ParseName resolves a profile type name such as "uint16z".
func ParseName(name string) (BaseType, bool) {
	for bt, s := range traitsByType {
		if s.name == name {
			return bt, true
		}
	}
	return 0, false
}

// All returns every known base type in canonical-number order.
func All() []BaseType {
	out := make([]BaseType, 0, len(traitsByType))
	for n := uint8(0); n <= numberMask; n++ {
		if bt, ok := byNumber[n]; ok {
			out = append(out, bt)
		}
	}
	return out
}

// Known reports whether t is one of the FIT base types.
func (t BaseType) Known() bool {
	_, ok := traitsByType[t]
	return ok
}

// Size is the width in bytes of a single element. Unknown types report 1 so
// they can be carried as raw bytes.
func (t BaseType) Size() int {
	if s, ok := traitsByType[t]; ok {
		return s.size
	}
	return 1
}

func (t BaseType) Signed() bool        { return traitsByType[t].signed }
func (t BaseType) Float() bool         { return traitsByType[t].floating }
func (t BaseType) ZeroIsInvalid() bool { return traitsByType[t].zeroIsInvalid }

// Integer reports whether t holds an integer (enum and z types included).
func (t BaseType) Integer() bool {
	s, ok := traitsByType[t]
	return ok && !s.floating && t != String && t != Byte
}

// EndianAble reports whether the byte order of the record matters for t.
func (t BaseType) EndianAble() bool {
	return uint8(t)&endianAbleFlag != 0
}

// InvalidRaw is the raw bit pattern that marks an element as absent.
func (t BaseType) InvalidRaw() uint64 {
	return traitsByType[t].invalid
}

// IsInvalid reports whether a raw element equals the type's sentinel.
func (t BaseType) IsInvalid(raw uint64) bool {
	s, ok := traitsByType[t]
	if !ok {
		return false
	}
	if s.zeroIsInvalid {
		return raw == 0
	}
	return raw == s.invalid
}

// ReadRaw reads one element of t from b. b must hold at least Size() bytes.
func (t BaseType) ReadRaw(b []byte, order binary.ByteOrder) uint64 {
	switch t.Size() {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(order.Uint16(b))
	case 4:
		return uint64(order.Uint32(b))
	default:
		return order.Uint64(b)
	}
}

// PutRaw writes one element of t into b.
func (t BaseType) PutRaw(b []byte, order binary.ByteOrder, raw uint64) {
	switch t.Size() {
	case 1:
		b[0] = byte(raw)
	case 2:
		order.PutUint16(b, uint16(raw))
	case 4:
		order.PutUint32(b, uint32(raw))
	default:
		order.PutUint64(b, raw)
	}
}

// SignExtend interprets raw as a two's complement integer of t's width.
func (t BaseType) SignExtend(raw uint64) int64 {
	switch t.Size() {
	case 1:
		return int64(int8(raw))
	case 2:
		return int64(int16(raw))
	case 4:
		return int64(int32(raw))
	default:
		return int64(raw)
	}
}

// FloatFromRaw converts a raw float element to float64.
func (t BaseType) FloatFromRaw(raw uint64) float64 {
	if t == Float32 {
		return float64(math.Float32frombits(uint32(raw)))
	}
	return math.Float64frombits(raw)
}

// IntRange returns the representable range of an integer type. The sentinel
// is inside the range; callers decide whether it may be written.
func (t BaseType) IntRange() (lo int64, hi uint64) {
	shift := uint(64 - t.Size()*8)
	if t.Signed() {
		return math.MinInt64 >> shift, uint64(math.MaxInt64 >> shift)
	}
	return 0, math.MaxUint64 >> shift
}

func (t BaseType) String() string {
	if s, ok := traitsByType[t]; ok {
		return s.name
	}
	return fmt.Sprintf("unknown_0x%02X", uint8(t))
}
