// Package messages holds typed views over the generic message store for the
// common FIT messages, and builders that produce encoder field maps.
package messages

import (
	"time"

	"github.com/lucasjlepore/fit-codec/message"
	"github.com/lucasjlepore/fit-codec/timestamp"
	"github.com/lucasjlepore/fit-codec/value"
)

// Global message numbers.
const (
	NumFileID           uint16 = 0
	NumSession          uint16 = 18
	NumLap              uint16 = 19
	NumRecord           uint16 = 20
	NumEvent            uint16 = 21
	NumDeviceInfo       uint16 = 23
	NumActivity         uint16 = 34
	NumFileCreator      uint16 = 49
	NumMonitoring       uint16 = 55
	NumHRV              uint16 = 78
	NumFieldDescription uint16 = message.GlobalFieldDescription
	NumDeveloperDataID  uint16 = message.GlobalDeveloperDataID
)

// Registry returns a registry with every shim in this package.
func Registry() *message.Registry {
	r := message.NewRegistry()
	r.Register(NumFileID, func(m *message.Message) message.Shim { return FileID{m} })
	r.Register(NumRecord, func(m *message.Message) message.Shim { return Record{m} })
	r.Register(NumEvent, func(m *message.Message) message.Shim { return Event{m} })
	r.Register(NumDeviceInfo, func(m *message.Message) message.Shim { return DeviceInfo{m} })
	r.Register(NumMonitoring, func(m *message.Message) message.Shim { return Monitoring{m} })
	r.Register(NumHRV, func(m *message.Message) message.Shim { return HRV{m} })
	r.Register(NumFieldDescription, func(m *message.Message) message.Shim { return FieldDescription{m} })
	r.Register(NumDeveloperDataID, func(m *message.Message) message.Shim { return DeveloperDataID{m} })
	return r
}

func timeField(m *message.Message, num uint8) (time.Time, bool) {
	ts, ok := message.Get[uint32](m, num)
	if !ok {
		return time.Time{}, false
	}
	return timestamp.ToTime(ts), true
}

func bytesField(m *message.Message, num uint8) []byte {
	b, ok := m.Value(num).Bytes()
	if !ok {
		return nil
	}
	return append([]byte(nil), b...)
}

// Builder fields use pointers for numeric values so that zero is a value
// and nil is unset. A zero time, empty string or nil slice is unset.

// Ptr returns a pointer to v, for filling builder fields.
func Ptr[T any](v T) *T { return &v }

type unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

type signed interface {
	~int8 | ~int16 | ~int32 | ~int64
}

func setUint[T unsigned](fm *message.FieldMap, num uint8, v *T) {
	if v != nil {
		fm.Set(num, value.Uint(uint64(*v)))
	}
}

func setInt[T signed](fm *message.FieldMap, num uint8, v *T) {
	if v != nil {
		fm.Set(num, value.Int(int64(*v)))
	}
}

func setFloat(fm *message.FieldMap, num uint8, v *float64) {
	if v != nil {
		fm.Set(num, value.Float(*v))
	}
}

func setString(fm *message.FieldMap, num uint8, v string) {
	if v != "" {
		fm.Set(num, value.String(v))
	}
}

func setTime(fm *message.FieldMap, num uint8, t time.Time) {
	if !t.IsZero() {
		fm.Set(num, value.Uint(uint64(timestamp.FromTime(t))))
	}
}

func setBytes(fm *message.FieldMap, num uint8, b []byte) {
	if len(b) > 0 {
		fm.Set(num, value.Bytes(b))
	}
}
