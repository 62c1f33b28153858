package messages

import (
	"time"

	"github.com/lucasjlepore/fit-codec/message"
	"github.com/lucasjlepore/fit-codec/value"
)

// File types used in file_id.type.
const (
	FileTypeDevice     uint8 = 1
	FileTypeSettings   uint8 = 2
	FileTypeActivity   uint8 = 4
	FileTypeMonitoring uint8 = 15
)

// FileID is the file_id message.
type FileID struct {
	*message.Message
}

func (m FileID) Type() (uint8, bool) { return message.Get[uint8](m.Message, 0) }

func (m FileID) Manufacturer() (uint16, bool) { return message.Get[uint16](m.Message, 1) }

func (m FileID) Product() (uint16, bool) { return message.Get[uint16](m.Message, 2) }

func (m FileID) SerialNumber() (uint32, bool) { return message.Get[uint32](m.Message, 3) }

func (m FileID) TimeCreated() (time.Time, bool) { return timeField(m.Message, 4) }

func (m FileID) Number() (uint16, bool) { return message.Get[uint16](m.Message, 5) }

func (m FileID) ProductName() (string, bool) { return message.Get[string](m.Message, 8) }

// FileIDFields builds a file_id message.
type FileIDFields struct {
	Type         uint8
	Manufacturer *uint16
	Product      *uint16
	SerialNumber *uint32
	TimeCreated  time.Time
	Number       *uint16
	ProductName  string
}

func (f FileIDFields) FieldMap() *message.FieldMap {
	fm := message.NewFieldMap()
	// type 0 (device) is a real value.
	fm.Set(0, value.Uint(uint64(f.Type)))
	setUint(fm, 1, f.Manufacturer)
	setUint(fm, 2, f.Product)
	setUint(fm, 3, f.SerialNumber)
	setTime(fm, 4, f.TimeCreated)
	setUint(fm, 5, f.Number)
	setString(fm, 8, f.ProductName)
	return fm
}
