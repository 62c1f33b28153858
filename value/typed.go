package value

import "math"

// Scalar lists the Go types a Value can be extracted as.
type Scalar interface {
	int8 | int16 | int32 | int64 | int |
		uint8 | uint16 | uint32 | uint64 | uint |
		float32 | float64 | string
}

// As extracts v as T. It returns false when v is absent, when its kind does
// not match T, or when an integer does not fit T. Integer kinds convert
// between signed and unsigned targets when the value fits; floats only
// extract as float32 or float64.
func As[T Scalar](v Value) (T, bool) {
	var zero T
	switch any(zero).(type) {
	case int8:
		n, ok := v.signedIn(math.MinInt8, math.MaxInt8)
		return any(int8(n)).(T), ok
	case int16:
		n, ok := v.signedIn(math.MinInt16, math.MaxInt16)
		return any(int16(n)).(T), ok
	case int32:
		n, ok := v.signedIn(math.MinInt32, math.MaxInt32)
		return any(int32(n)).(T), ok
	case int64:
		n, ok := v.signedIn(math.MinInt64, math.MaxInt64)
		return any(n).(T), ok
	case int:
		n, ok := v.signedIn(math.MinInt, math.MaxInt)
		return any(int(n)).(T), ok
	case uint8:
		n, ok := v.unsignedIn(math.MaxUint8)
		return any(uint8(n)).(T), ok
	case uint16:
		n, ok := v.unsignedIn(math.MaxUint16)
		return any(uint16(n)).(T), ok
	case uint32:
		n, ok := v.unsignedIn(math.MaxUint32)
		return any(uint32(n)).(T), ok
	case uint64:
		n, ok := v.unsignedIn(math.MaxUint64)
		return any(n).(T), ok
	case uint:
		n, ok := v.unsignedIn(math.MaxUint)
		return any(uint(n)).(T), ok
	case float32:
		f, ok := v.Float()
		return any(float32(f)).(T), ok
	case float64:
		f, ok := v.Float()
		return any(f).(T), ok
	case string:
		s, ok := v.Str()
		return any(s).(T), ok
	}
	return zero, false
}

// AsSlice extracts every element of an array value as T. A scalar value is
// treated as a one-element array. Absent elements report false in the
// parallel validity slice rather than being dropped.
func AsSlice[T Scalar](v Value) ([]T, []bool, bool) {
	elems, ok := v.Elems()
	if !ok {
		if v.IsAbsent() {
			return nil, nil, false
		}
		elems = []Value{v}
	}
	out := make([]T, len(elems))
	valid := make([]bool, len(elems))
	for i, e := range elems {
		if e.IsAbsent() {
			continue
		}
		x, ok := As[T](e)
		if !ok {
			return nil, nil, false
		}
		out[i], valid[i] = x, true
	}
	return out, valid, true
}

func (v Value) signedIn(lo, hi int64) (int64, bool) {
	switch v.kind {
	case KindInt:
		if v.i < lo || v.i > hi {
			return 0, false
		}
		return v.i, true
	case KindUint:
		if v.u > uint64(hi) {
			return 0, false
		}
		return int64(v.u), true
	}
	return 0, false
}

func (v Value) unsignedIn(hi uint64) (uint64, bool) {
	switch v.kind {
	case KindUint:
		if v.u > hi {
			return 0, false
		}
		return v.u, true
	case KindInt:
		if v.i < 0 || uint64(v.i) > hi {
			return 0, false
		}
		return uint64(v.i), true
	}
	return 0, false
}
