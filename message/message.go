// Package message is the generic field store decoded data records land in,
// the registry that wraps them in typed shims and the mutable field map the
// encoder consumes.
package message

import (
	"bytes"
	"fmt"
	"time"

	"github.com/lucasjlepore/fit-codec/proto"
	"github.com/lucasjlepore/fit-codec/timestamp"
	"github.com/lucasjlepore/fit-codec/value"
)

// FieldTimestamp is the field number FIT reserves for a message's timestamp.
const FieldTimestamp = 253

// Field is one decoded field together with the bytes it was decoded from.
type Field struct {
	Def   proto.FieldDef
	Name  string
	Units string
	Value value.Value
	Raw   []byte
}

func (f Field) Num() uint8 { return f.Def.Num }

// DevField is one decoded developer field. Key is the described field name,
// or dev_<index>_<field> when no description was available.
type DevField struct {
	Def      proto.DevFieldDef
	Key      string
	Units    string
	Value    value.Value
	Raw      []byte
	Resolved bool
}

// DevKey builds the fallback key of an unresolved developer field.
func DevKey(devIndex, num uint8) string {
	return fmt.Sprintf("dev_%d_%d", devIndex, num)
}

// Parts are the inputs to New.
type Parts struct {
	Definition *proto.Definition
	Name       string
	Fields     []Field
	DevFields  []DevField
	Index      int
	Offset     int64
	Compressed bool

	Timestamp    uint32
	HasTimestamp bool
	// Reference is the session's last absolute timestamp before this record.
	Reference    uint32
	HasReference bool

	Accumulated map[uint8]uint64
}

// Message is an immutable decoded data record.
type Message struct {
	def        *proto.Definition
	name       string
	fields     []Field
	dev        []DevField
	index      int
	offset     int64
	compressed bool

	ts     uint32
	hasTS  bool
	ref    uint32
	hasRef bool

	accum map[uint8]uint64
}

func New(p Parts) *Message {
	m := &Message{
		def:        p.Definition,
		name:       p.Name,
		fields:     append([]Field(nil), p.Fields...),
		dev:        append([]DevField(nil), p.DevFields...),
		index:      p.Index,
		offset:     p.Offset,
		compressed: p.Compressed,
		ts:         p.Timestamp,
		hasTS:      p.HasTimestamp,
		ref:        p.Reference,
		hasRef:     p.HasReference,
	}
	if len(p.Accumulated) > 0 {
		m.accum = make(map[uint8]uint64, len(p.Accumulated))
		for k, v := range p.Accumulated {
			m.accum[k] = v
		}
	}
	return m
}

// Base lets any struct embedding *Message satisfy Shim.
func (m *Message) Base() *Message { return m }

func (m *Message) Definition() *proto.Definition { return m.def }
func (m *Message) GlobalMessageNumber() uint16   { return m.def.Global }
func (m *Message) LocalMessageType() uint8       { return m.def.LocalType }

// Name is the profile name of the message, or "" when unknown.
func (m *Message) Name() string { return m.name }

// Index is the 1-based record index within the session.
func (m *Message) Index() int { return m.index }

// Offset is the byte offset of the record header.
func (m *Message) Offset() int64 { return m.offset }

// Compressed reports whether the record used a compressed timestamp header.
func (m *Message) Compressed() bool { return m.compressed }

// Fields returns the fields in definition order. The slice and each
// Field.Raw share the record body and must not be modified; use Raw for a
// copy.
func (m *Message) Fields() []Field { return m.fields }

// DevFields returns the developer fields in definition order. The slice must
// not be modified.
func (m *Message) DevFields() []DevField { return m.dev }

// Field looks up a field by number.
func (m *Message) Field(num uint8) (Field, bool) {
	for _, f := range m.fields {
		if f.Def.Num == num {
			return f, true
		}
	}
	return Field{}, false
}

// Value is the decoded value of field num, absent when the field is missing.
func (m *Message) Value(num uint8) value.Value {
	f, _ := m.Field(num)
	return f.Value
}

// Scalar returns field num when it is present, not an array and of kind.
func (m *Message) Scalar(num uint8, kind value.Kind) (value.Value, bool) {
	v := m.Value(num)
	if v.IsAbsent() || v.IsArray() || v.Kind() != kind {
		return value.Value{}, false
	}
	return v, true
}

// Array returns the elements of field num when every present element is of
// kind. A scalar of kind is returned as a one element array. Absent elements
// keep their position.
func (m *Message) Array(num uint8, kind value.Kind) ([]value.Value, bool) {
	v := m.Value(num)
	switch {
	case v.IsAbsent():
		return nil, false
	case !v.IsArray():
		if v.Kind() != kind {
			return nil, false
		}
		return []value.Value{v}, true
	}
	elems, _ := v.Elems()
	for _, e := range elems {
		if !e.IsAbsent() && e.Kind() != kind {
			return nil, false
		}
	}
	return elems, true
}

// Raw returns a copy of the bytes field num was decoded from.
func (m *Message) Raw(num uint8) ([]byte, bool) {
	f, ok := m.Field(num)
	if !ok {
		return nil, false
	}
	return bytes.Clone(f.Raw), true
}

// Developer looks up a developer field by key.
func (m *Message) Developer(key string) (DevField, bool) {
	for _, f := range m.dev {
		if f.Key == key {
			return f, true
		}
	}
	return DevField{}, false
}

// TimestampRaw is the message timestamp in seconds since the FIT epoch,
// either from field 253 or reconstructed from a compressed header.
func (m *Message) TimestampRaw() (uint32, bool) { return m.ts, m.hasTS }

// Timestamp is TimestampRaw as UTC time.
func (m *Message) Timestamp() (time.Time, bool) {
	if !m.hasTS {
		return time.Time{}, false
	}
	return timestamp.ToTime(m.ts), true
}

// Reference is the session's last absolute timestamp before this record was
// decoded. Message specific helpers resolve partial timestamps against it.
func (m *Message) Reference() (uint32, bool) { return m.ref, m.hasRef }

// Accumulated is the widened value of a rolling counter field.
func (m *Message) Accumulated(num uint8) (uint64, bool) {
	v, ok := m.accum[num]
	return v, ok
}

// FieldMap copies the decoded values into a mutable map for re-encoding.
// Fields whose values were degraded to raw bytes are carried as bytes.
func (m *Message) FieldMap() *FieldMap {
	fm := NewFieldMap()
	for _, f := range m.fields {
		fm.Set(f.Def.Num, f.Value)
	}
	for _, f := range m.dev {
		fm.SetDeveloper(f.Def.DevIndex, f.Def.Num, f.Value)
	}
	return fm
}

// Map renders named values for serialization. Unnamed fields use
// field_<num>; absent values are omitted.
func (m *Message) Map() map[string]any {
	out := make(map[string]any, len(m.fields)+len(m.dev))
	for _, f := range m.fields {
		if f.Value.IsAbsent() {
			continue
		}
		key := f.Name
		if key == "" {
			key = fmt.Sprintf("field_%d", f.Def.Num)
		}
		out[key] = f.Value.Interface()
	}
	for _, f := range m.dev {
		if f.Value.IsAbsent() {
			continue
		}
		out[f.Key] = f.Value.Interface()
	}
	return out
}

// Get extracts field num as T. Arrays, absent values and mismatched kinds
// yield (zero, false).
func Get[T value.Scalar](m *Message, num uint8) (T, bool) {
	v := m.Value(num)
	if v.IsArray() {
		var zero T
		return zero, false
	}
	return value.As[T](v)
}

// GetArray extracts field num as []T with a validity mask marking absent
// elements.
func GetArray[T value.Scalar](m *Message, num uint8) ([]T, []bool, bool) {
	return value.AsSlice[T](m.Value(num))
}
