// Package value holds decoded FIT field values and the codec that turns raw
// field bytes into them and back.
package value

import (
	"bytes"
	"fmt"
	"math"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindInt
	KindUint
	KindFloat
	KindString
	KindBytes
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is an immutable decoded field value. The zero Value is absent.
type Value struct {
	kind  Kind
	i     int64
	u     uint64
	f     float64
	s     string
	b     []byte
	elems []Value
}

func Absent() Value         { return Value{} }
func Int(v int64) Value     { return Value{kind: KindInt, i: v} }
func Uint(v uint64) Value   { return Value{kind: KindUint, u: v} }
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }
func String(v string) Value { return Value{kind: KindString, s: v} }

// Bytes copies b.
func Bytes(b []byte) Value {
	return Value{kind: KindBytes, b: append([]byte(nil), b...)}
}

// Array builds an array value. Absent elements keep their position.
func Array(elems ...Value) Value {
	return Value{kind: KindArray, elems: append([]Value(nil), elems...)}
}

// Of wraps a Go scalar or slice in a Value. Unsupported types yield absent.
func Of(v any) Value {
	switch x := v.(type) {
	case Value:
		return x
	case int8:
		return Int(int64(x))
	case int16:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case int:
		return Int(int64(x))
	case uint8:
		return Uint(uint64(x))
	case uint16:
		return Uint(uint64(x))
	case uint32:
		return Uint(uint64(x))
	case uint64:
		return Uint(x)
	case uint:
		return Uint(uint64(x))
	case float32:
		return Float(float64(x))
	case float64:
		return Float(x)
	case string:
		return String(x)
	case []byte:
		return Bytes(x)
	case []uint16:
		out := make([]Value, len(x))
		for i, e := range x {
			out[i] = Uint(uint64(e))
		}
		return Value{kind: KindArray, elems: out}
	case []uint32:
		out := make([]Value, len(x))
		for i, e := range x {
			out[i] = Uint(uint64(e))
		}
		return Value{kind: KindArray, elems: out}
	case []float64:
		out := make([]Value, len(x))
		for i, e := range x {
			out[i] = Float(e)
		}
		return Value{kind: KindArray, elems: out}
	default:
		return Absent()
	}
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }
func (v Value) IsArray() bool  { return v.kind == KindArray }

func (v Value) Int() (int64, bool)     { return v.i, v.kind == KindInt }
func (v Value) Uint() (uint64, bool)   { return v.u, v.kind == KindUint }
func (v Value) Float() (float64, bool) { return v.f, v.kind == KindFloat }
func (v Value) Str() (string, bool)    { return v.s, v.kind == KindString }

// Bytes returns the raw bytes of a bytes value. The slice must not be modified.
func (v Value) Bytes() ([]byte, bool) { return v.b, v.kind == KindBytes }

// Elems returns the elements of an array value. The slice must not be modified.
func (v Value) Elems() ([]Value, bool) { return v.elems, v.kind == KindArray }

// Numeric returns any numeric variant as float64.
func (v Value) Numeric() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindUint:
		return float64(v.u), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Len is the element count: 0 for absent, len for arrays, 1 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindAbsent:
		return 0
	case KindArray:
		return len(v.elems)
	default:
		return 1
	}
}

// Interface renders v as a plain Go value for serialization. Absent is nil
// and arrays become []any with nil holes.
func (v Value) Interface() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindUint:
		return v.u
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBytes:
		return append([]byte(nil), v.b...)
	case KindArray:
		out := make([]any, len(v.elems))
		for i, e := range v.elems {
			out[i] = e.Interface()
		}
		return out
	default:
		return nil
	}
}

// Equal reports structural equality. Floats compare exactly.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindAbsent:
		return true
	case KindInt:
		return v.i == o.i
	case KindUint:
		return v.u == o.u
	case KindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindString:
		return v.s == o.s
	case KindBytes:
		return bytes.Equal(v.b, o.b)
	case KindArray:
		if len(v.elems) != len(o.elems) {
			return false
		}
		for i := range v.elems {
			if !v.elems[i].Equal(o.elems[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func (v Value) String() string {
	switch v.kind {
	case KindAbsent:
		return "<absent>"
	case KindInt:
		return fmt.Sprint(v.i)
	case KindUint:
		return fmt.Sprint(v.u)
	case KindFloat:
		return fmt.Sprint(v.f)
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindBytes:
		return fmt.Sprintf("%x", v.b)
	case KindArray:
		parts := make([]string, len(v.elems))
		for i, e := range v.elems {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	}
	return "<?>"
}
