package value

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/lucasjlepore/fit-codec/basetype"
)

var (
	// ErrKind is returned when a value cannot be written as the target base type.
	ErrKind = errors.New("value kind incompatible with base type")
	// ErrRange is returned for values outside the base type's range, including
	// values that would collide with the invalid sentinel.
	ErrRange = errors.New("value out of range for base type")
	// ErrSize is returned when the declared field size cannot hold the value.
	ErrSize = errors.New("value does not fit field size")
)

// Scaling carries a field's scale and offset. The zero value is the identity.
type Scaling struct {
	Scale  float64
	Offset float64
}

// Identity reports whether applying s leaves values unchanged.
func (s Scaling) Identity() bool {
	return (s.Scale == 0 || s.Scale == 1) && s.Offset == 0
}

func (s Scaling) factor() float64 {
	if s.Scale == 0 {
		return 1
	}
	return s.Scale
}

// Apply converts a raw number to its real value: raw/scale - offset.
func (s Scaling) Apply(raw float64) float64 {
	return raw/s.factor() - s.Offset
}

// Invert converts a real value back to its raw form: (v + offset) * scale.
func (s Scaling) Invert(v float64) float64 {
	return (v + s.Offset) * s.factor()
}

// Decode interprets raw as a field of base type bt. A byte span that is an
// exact multiple of the element width and longer than one element decodes to
// an array. The sentinel is checked before scaling. Decode is total: it never
// panics on any content and degrades odd spans and unknown types to raw bytes.
func Decode(raw []byte, bt basetype.BaseType, order binary.ByteOrder, sc Scaling) Value {
	if len(raw) == 0 {
		return Absent()
	}
	switch {
	case !bt.Known():
		return Bytes(raw)
	case bt == basetype.Byte:
		if allBytes(raw, 0xFF) {
			return Absent()
		}
		return Bytes(raw)
	case bt == basetype.String:
		return decodeString(raw)
	}

	size := bt.Size()
	if len(raw)%size != 0 {
		return Bytes(raw)
	}
	n := len(raw) / size
	if n == 1 {
		return decodeElem(raw, bt, order, sc)
	}

	elems := make([]Value, n)
	present := 0
	for i := range elems {
		elems[i] = decodeElem(raw[i*size:(i+1)*size], bt, order, sc)
		if !elems[i].IsAbsent() {
			present++
		}
	}
	if present == 0 {
		return Absent()
	}
	return Value{kind: KindArray, elems: elems}
}

func decodeElem(b []byte, bt basetype.BaseType, order binary.ByteOrder, sc Scaling) Value {
	raw := bt.ReadRaw(b, order)
	if bt.IsInvalid(raw) {
		return Absent()
	}
	switch {
	case bt.Float():
		f := bt.FloatFromRaw(raw)
		if !sc.Identity() {
			f = sc.Apply(f)
		}
		return Float(f)
	case bt.Signed():
		i := bt.SignExtend(raw)
		if sc.Identity() {
			return Int(i)
		}
		return Float(sc.Apply(float64(i)))
	default:
		if sc.Identity() {
			return Uint(raw)
		}
		return Float(sc.Apply(float64(raw)))
	}
}

func decodeString(raw []byte) Value {
	end := len(raw)
	for i, b := range raw {
		if b == 0x00 {
			end = i
			break
		}
	}
	if end == 0 {
		return Absent()
	}
	return String(string(raw[:end]))
}

// Encode renders v into exactly size bytes of base type bt, inverting the
// scaling. Absent values and absent array elements become the sentinel.
func Encode(v Value, bt basetype.BaseType, size int, order binary.ByteOrder, sc Scaling) ([]byte, error) {
	if size <= 0 || size > 255 {
		return nil, fmt.Errorf("%w: size %d", ErrSize, size)
	}
	out := make([]byte, size)

	if b, ok := v.Bytes(); ok {
		if bt.Integer() || bt.Float() || bt == basetype.String {
			return nil, fmt.Errorf("%w: bytes as %s", ErrKind, bt)
		}
		if len(b) > size {
			return nil, fmt.Errorf("%w: %d bytes into %d", ErrSize, len(b), size)
		}
		copy(out, b)
		for i := len(b); i < size; i++ {
			out[i] = 0xFF
		}
		return out, nil
	}

	if bt == basetype.String {
		if v.IsAbsent() {
			return out, nil
		}
		s, ok := v.Str()
		if !ok {
			return nil, fmt.Errorf("%w: %s as string", ErrKind, v.Kind())
		}
		if len(s)+1 > size {
			return nil, fmt.Errorf("%w: string of %d bytes into %d", ErrSize, len(s), size)
		}
		copy(out, s)
		return out, nil
	}

	if !bt.Known() {
		if v.IsAbsent() {
			for i := range out {
				out[i] = 0xFF
			}
			return out, nil
		}
		return nil, fmt.Errorf("%w: %s as %s", ErrKind, v.Kind(), bt)
	}

	width := bt.Size()
	if size%width != 0 {
		return nil, fmt.Errorf("%w: size %d not a multiple of %s", ErrSize, size, bt)
	}
	n := size / width

	elems := []Value{v}
	if e, ok := v.Elems(); ok {
		elems = e
	}
	if len(elems) > n {
		return nil, fmt.Errorf("%w: %d elements into %d", ErrSize, len(elems), n)
	}
	for i := 0; i < n; i++ {
		ev := Absent()
		if i < len(elems) {
			ev = elems[i]
		}
		raw, err := encodeElem(ev, bt, sc)
		if err != nil {
			return nil, err
		}
		bt.PutRaw(out[i*width:(i+1)*width], order, raw)
	}
	return out, nil
}

func encodeElem(v Value, bt basetype.BaseType, sc Scaling) (uint64, error) {
	if v.IsAbsent() {
		if bt.ZeroIsInvalid() {
			return 0, nil
		}
		return bt.InvalidRaw(), nil
	}

	if bt.Float() {
		f, ok := v.Numeric()
		if !ok {
			return 0, fmt.Errorf("%w: %s as %s", ErrKind, v.Kind(), bt)
		}
		if !sc.Identity() {
			f = sc.Invert(f)
		}
		var raw uint64
		if bt == basetype.Float32 {
			raw = uint64(math.Float32bits(float32(f)))
		} else {
			raw = math.Float64bits(f)
		}
		if bt.IsInvalid(raw) {
			return 0, fmt.Errorf("%w: %v collides with %s sentinel", ErrRange, f, bt)
		}
		return raw, nil
	}

	lo, hi := bt.IntRange()
	var raw uint64
	switch {
	case sc.Identity() && v.Kind() == KindInt:
		i, _ := v.Int()
		if i < lo || (i > 0 && uint64(i) > hi) {
			return 0, fmt.Errorf("%w: %d as %s", ErrRange, i, bt)
		}
		raw = uint64(i)
	case sc.Identity() && v.Kind() == KindUint:
		u, _ := v.Uint()
		if u > hi {
			return 0, fmt.Errorf("%w: %d as %s", ErrRange, u, bt)
		}
		raw = u
	default:
		f, ok := v.Numeric()
		if !ok {
			return 0, fmt.Errorf("%w: %s as %s", ErrKind, v.Kind(), bt)
		}
		if !sc.Identity() {
			f = sc.Invert(f)
		}
		f = math.Round(f)
		if math.IsNaN(f) || f < float64(lo) || f > float64(hi) {
			return 0, fmt.Errorf("%w: %v as %s", ErrRange, f, bt)
		}
		if f < 0 {
			raw = uint64(int64(f))
		} else {
			raw = uint64(f)
		}
	}

	// Sentinel comparison happens on the element width.
	raw &= math.MaxUint64 >> uint(64-bt.Size()*8)
	if bt.IsInvalid(raw) {
		return 0, fmt.Errorf("%w: raw 0x%X collides with %s sentinel", ErrRange, raw, bt)
	}
	return raw, nil
}

func allBytes(raw []byte, value byte) bool {
	for _, b := range raw {
		if b != value {
			return false
		}
	}
	return len(raw) > 0
}
