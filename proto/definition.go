package proto

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/lucasjlepore/fit-codec/basetype"
	"github.com/lucasjlepore/fit-codec/value"
)

// ErrArchitecture is returned for an architecture byte other than 0 or 1.
var ErrArchitecture = errors.New("invalid architecture byte")

// FieldDef is one field of a definition record.
type FieldDef struct {
	Num  uint8
	Size uint8
	// RawType is the base type byte exactly as written.
	RawType  byte
	BaseType basetype.BaseType
	// Unknown is set when RawType is not a known base type; the field is
	// then carried as raw bytes.
	Unknown bool
}

// NewFieldDef builds a field definition for a known base type.
func NewFieldDef(num, size uint8, bt basetype.BaseType) FieldDef {
	return FieldDef{Num: num, Size: size, RawType: byte(bt), BaseType: bt}
}

func parseFieldDef(raw []byte) FieldDef {
	bt, ok := basetype.Parse(raw[2])
	return FieldDef{
		Num:      raw[0],
		Size:     raw[1],
		RawType:  raw[2],
		BaseType: bt,
		Unknown:  !ok,
	}
}

// Decode decodes raw bytes of this field with the record's byte order.
func (f FieldDef) Decode(raw []byte, order binary.ByteOrder, sc value.Scaling) value.Value {
	return value.Decode(raw, f.BaseType, order, sc)
}

// Elems is the number of base type elements the field spans.
func (f FieldDef) Elems() int {
	w := f.BaseType.Size()
	if f.Unknown || int(f.Size)%w != 0 {
		return 1
	}
	return int(f.Size) / w
}

// DevFieldDef is one developer field of a definition record.
type DevFieldDef struct {
	Num      uint8
	Size     uint8
	DevIndex uint8
}

// Definition is a schema installed for a local message type. Definitions are
// never mutated once installed, so holding a pointer pins the schema that was
// active when a record was read.
type Definition struct {
	LocalType uint8
	BigEndian bool
	Global    uint16
	Fields    []FieldDef
	DevFields []DevFieldDef
}

// ByteOrder is the architecture of the records described by d.
func (d *Definition) ByteOrder() binary.ByteOrder {
	if d.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// DataSize is the byte length of a data record body for d.
func (d *Definition) DataSize() int {
	n := 0
	for _, f := range d.Fields {
		n += int(f.Size)
	}
	for _, f := range d.DevFields {
		n += int(f.Size)
	}
	return n
}

// Field looks up a field by number.
func (d *Definition) Field(num uint8) (FieldDef, bool) {
	for _, f := range d.Fields {
		if f.Num == num {
			return f, true
		}
	}
	return FieldDef{}, false
}

// SameShape reports whether o describes byte-identical records, ignoring the
// local type it is bound to.
func (d *Definition) SameShape(o *Definition) bool {
	if o == nil || d.BigEndian != o.BigEndian || d.Global != o.Global ||
		len(d.Fields) != len(o.Fields) || len(d.DevFields) != len(o.DevFields) {
		return false
	}
	for i := range d.Fields {
		a, b := d.Fields[i], o.Fields[i]
		if a.Num != b.Num || a.Size != b.Size || a.RawType != b.RawType {
			return false
		}
	}
	for i := range d.DevFields {
		if d.DevFields[i] != o.DevFields[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of d.
func (d *Definition) Clone() *Definition {
	c := *d
	c.Fields = append([]FieldDef(nil), d.Fields...)
	c.DevFields = append([]DevFieldDef(nil), d.DevFields...)
	return &c
}

// AppendBinary appends the full definition record, header byte included.
func (d *Definition) AppendBinary(b []byte) ([]byte, error) {
	if len(d.Fields) > 255 || len(d.DevFields) > 255 {
		return b, fmt.Errorf("definition for message %d has too many fields", d.Global)
	}
	h := Header{Definition: true, DevData: len(d.DevFields) > 0, LocalType: d.LocalType}
	arch := byte(0)
	if d.BigEndian {
		arch = 1
	}
	b = append(b, h.Byte(), 0, arch)
	if d.BigEndian {
		b = binary.BigEndian.AppendUint16(b, d.Global)
	} else {
		b = binary.LittleEndian.AppendUint16(b, d.Global)
	}
	b = append(b, byte(len(d.Fields)))
	for _, f := range d.Fields {
		b = append(b, f.Num, f.Size, f.RawType)
	}
	if len(d.DevFields) > 0 {
		b = append(b, byte(len(d.DevFields)))
		for _, f := range d.DevFields {
			b = append(b, f.Num, f.Size, f.DevIndex)
		}
	}
	return b, nil
}

// ParseDefinition reads the body of a definition record whose header h has
// already been consumed. Unknown base types are kept, not rejected. Any
// shortfall returns the source error (io.ErrUnexpectedEOF or io.EOF).
func ParseDefinition(h Header, src Source) (*Definition, error) {
	fixed, err := src.Next(5)
	if err != nil {
		return nil, err
	}
	// fixed[0] is reserved.
	def := &Definition{LocalType: h.LocalType}
	switch fixed[1] {
	case 0:
	case 1:
		def.BigEndian = true
	default:
		return nil, fmt.Errorf("%w: %d", ErrArchitecture, fixed[1])
	}
	def.Global = def.ByteOrder().Uint16(fixed[2:4])
	numFields := int(fixed[4])

	if numFields > 0 {
		raw, err := src.Next(3 * numFields)
		if err != nil {
			return nil, err
		}
		def.Fields = make([]FieldDef, numFields)
		for i := range def.Fields {
			def.Fields[i] = parseFieldDef(raw[3*i : 3*i+3])
		}
	}

	if !h.DevData {
		return def, nil
	}
	countRaw, err := src.Next(1)
	if err != nil {
		return nil, err
	}
	numDev := int(countRaw[0])
	if numDev == 0 {
		return def, nil
	}
	raw, err := src.Next(3 * numDev)
	if err != nil {
		return nil, err
	}
	def.DevFields = make([]DevFieldDef, numDev)
	for i := range def.DevFields {
		def.DevFields[i] = DevFieldDef{
			Num:      raw[3*i],
			Size:     raw[3*i+1],
			DevIndex: raw[3*i+2],
		}
	}
	return def, nil
}
