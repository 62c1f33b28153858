package messages

import (
	"github.com/lucasjlepore/fit-codec/basetype"
	"github.com/lucasjlepore/fit-codec/message"
	"github.com/lucasjlepore/fit-codec/value"
)

// FieldDescription is the field_description message that defines a
// developer field.
type FieldDescription struct {
	*message.Message
}

func (m FieldDescription) DeveloperDataIndex() (uint8, bool) { return message.Get[uint8](m.Message, 0) }
func (m FieldDescription) FieldDefinitionNumber() (uint8, bool) {
	return message.Get[uint8](m.Message, 1)
}

func (m FieldDescription) BaseType() (basetype.BaseType, bool) {
	raw, ok := message.Get[uint8](m.Message, 2)
	if !ok {
		return 0, false
	}
	return basetype.Parse(raw)
}

func (m FieldDescription) FieldName() (string, bool) { return message.Get[string](m.Message, 3) }
func (m FieldDescription) Scale() (uint8, bool)      { return message.Get[uint8](m.Message, 6) }
func (m FieldDescription) Offset() (int8, bool)      { return message.Get[int8](m.Message, 7) }
func (m FieldDescription) Units() (string, bool)     { return message.Get[string](m.Message, 8) }

// FieldDescriptionFields builds a field_description message.
type FieldDescriptionFields struct {
	DeveloperDataIndex    uint8
	FieldDefinitionNumber uint8
	BaseType              basetype.BaseType
	FieldName             string
	Units                 string
	Scale                 uint8
	Offset                int8
}

func (f FieldDescriptionFields) FieldMap() *message.FieldMap {
	fm := message.NewFieldMap()
	fm.Set(0, value.Uint(uint64(f.DeveloperDataIndex)))
	fm.Set(1, value.Uint(uint64(f.FieldDefinitionNumber)))
	fm.Set(2, value.Uint(uint64(f.BaseType)))
	setString(fm, 3, f.FieldName)
	// Scale 0 and offset 0 both mean no scaling.
	if f.Scale != 0 {
		fm.Set(6, value.Uint(uint64(f.Scale)))
	}
	if f.Offset != 0 {
		fm.Set(7, value.Int(int64(f.Offset)))
	}
	setString(fm, 8, f.Units)
	return fm
}

// DeveloperField converts f into a catalog entry.
func (f FieldDescriptionFields) DeveloperField() message.DeveloperField {
	df := message.DeveloperField{
		DevIndex: f.DeveloperDataIndex,
		Num:      f.FieldDefinitionNumber,
		Name:     f.FieldName,
		BaseType: f.BaseType,
		Units:    f.Units,
	}
	if f.Scale != 0 {
		df.Scaling.Scale = float64(f.Scale)
	}
	df.Scaling.Offset = float64(f.Offset)
	return df
}

// DeveloperDataID is the developer_data_id message that binds a developer
// data index to an application.
type DeveloperDataID struct {
	*message.Message
}

func (m DeveloperDataID) DeveloperID() []byte   { return bytesField(m.Message, 0) }
func (m DeveloperDataID) ApplicationID() []byte { return bytesField(m.Message, 1) }

func (m DeveloperDataID) ManufacturerID() (uint16, bool) { return message.Get[uint16](m.Message, 2) }
func (m DeveloperDataID) DeveloperDataIndex() (uint8, bool) {
	return message.Get[uint8](m.Message, 3)
}
func (m DeveloperDataID) ApplicationVersion() (uint32, bool) {
	return message.Get[uint32](m.Message, 4)
}

// DeveloperDataIDFields builds a developer_data_id message.
type DeveloperDataIDFields struct {
	DeveloperDataIndex uint8
	ApplicationID      []byte
	ManufacturerID     *uint16
	ApplicationVersion *uint32
}

func (f DeveloperDataIDFields) FieldMap() *message.FieldMap {
	fm := message.NewFieldMap()
	setBytes(fm, 1, f.ApplicationID)
	setUint(fm, 2, f.ManufacturerID)
	fm.Set(3, value.Uint(uint64(f.DeveloperDataIndex)))
	setUint(fm, 4, f.ApplicationVersion)
	return fm
}
