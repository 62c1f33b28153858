package messages

import (
	"time"

	"github.com/lucasjlepore/fit-codec/message"
)

// DeviceInfo is the device_info message.
type DeviceInfo struct {
	*message.Message
}

func (m DeviceInfo) DeviceIndex() (uint8, bool)   { return message.Get[uint8](m.Message, 0) }
func (m DeviceInfo) DeviceType() (uint8, bool)    { return message.Get[uint8](m.Message, 1) }
func (m DeviceInfo) Manufacturer() (uint16, bool) { return message.Get[uint16](m.Message, 2) }
func (m DeviceInfo) SerialNumber() (uint32, bool) { return message.Get[uint32](m.Message, 3) }
func (m DeviceInfo) Product() (uint16, bool)      { return message.Get[uint16](m.Message, 4) }
func (m DeviceInfo) SoftwareVersion() (float64, bool) {
	return message.Get[float64](m.Message, 5)
}

// BatteryVoltage in volts.
func (m DeviceInfo) BatteryVoltage() (float64, bool) { return message.Get[float64](m.Message, 10) }

func (m DeviceInfo) ProductName() (string, bool) { return message.Get[string](m.Message, 27) }

// DeviceInfoFields builds a device_info message.
type DeviceInfoFields struct {
	Timestamp       time.Time
	DeviceIndex     *uint8
	DeviceType      *uint8
	Manufacturer    *uint16
	SerialNumber    *uint32
	Product         *uint16
	SoftwareVersion *float64
	BatteryVoltage  *float64
	ProductName     string
}

func (f DeviceInfoFields) FieldMap() *message.FieldMap {
	fm := message.NewFieldMap()
	setTime(fm, message.FieldTimestamp, f.Timestamp)
	setUint(fm, 0, f.DeviceIndex)
	setUint(fm, 1, f.DeviceType)
	setUint(fm, 2, f.Manufacturer)
	setUint(fm, 3, f.SerialNumber)
	setUint(fm, 4, f.Product)
	setFloat(fm, 5, f.SoftwareVersion)
	setFloat(fm, 10, f.BatteryVoltage)
	setString(fm, 27, f.ProductName)
	return fm
}
