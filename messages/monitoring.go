package messages

import (
	"time"

	"github.com/lucasjlepore/fit-codec/message"
	"github.com/lucasjlepore/fit-codec/timestamp"
)

// Monitoring is the monitoring message. Devices write a full timestamp
// occasionally and timestamp_16 in between.
type Monitoring struct {
	*message.Message
}

func (m Monitoring) DeviceIndex() (uint8, bool)  { return message.Get[uint8](m.Message, 0) }
func (m Monitoring) Calories() (uint16, bool)    { return message.Get[uint16](m.Message, 1) }
func (m Monitoring) Distance() (float64, bool)   { return message.Get[float64](m.Message, 2) }
func (m Monitoring) Cycles() (float64, bool)     { return message.Get[float64](m.Message, 3) }
func (m Monitoring) ActiveTime() (float64, bool) { return message.Get[float64](m.Message, 4) }
func (m Monitoring) ActivityType() (uint8, bool) { return message.Get[uint8](m.Message, 5) }
func (m Monitoring) Timestamp16() (uint16, bool) { return message.Get[uint16](m.Message, 26) }
func (m Monitoring) HeartRate() (uint8, bool)    { return message.Get[uint8](m.Message, 27) }

// TotalCalories is the calories counter widened across 16-bit rollovers.
func (m Monitoring) TotalCalories() (uint64, bool) { return m.Accumulated(1) }

// ResolvedTimestamp is the full timestamp when present, otherwise
// timestamp_16 placed against the last absolute timestamp seen before this
// message.
func (m Monitoring) ResolvedTimestamp() (time.Time, bool) {
	if t, ok := m.Timestamp(); ok {
		return t, true
	}
	t16, ok := m.Timestamp16()
	if !ok {
		return time.Time{}, false
	}
	ref, ok := m.Reference()
	if !ok {
		return time.Time{}, false
	}
	return timestamp.ToTime(timestamp.Reconstruct16(ref, t16)), true
}

// MonitoringFields builds a monitoring message. Set either Timestamp or
// Timestamp16.
type MonitoringFields struct {
	Timestamp    time.Time
	Timestamp16  *uint16
	DeviceIndex  *uint8
	Calories     *uint16
	Distance     *float64
	Cycles       *float64
	ActiveTime   *float64
	ActivityType *uint8
	HeartRate    *uint8
}

func (f MonitoringFields) FieldMap() *message.FieldMap {
	fm := message.NewFieldMap()
	setTime(fm, message.FieldTimestamp, f.Timestamp)
	setUint(fm, 26, f.Timestamp16)
	setUint(fm, 0, f.DeviceIndex)
	setUint(fm, 1, f.Calories)
	setFloat(fm, 2, f.Distance)
	setFloat(fm, 3, f.Cycles)
	setFloat(fm, 4, f.ActiveTime)
	setUint(fm, 5, f.ActivityType)
	setUint(fm, 27, f.HeartRate)
	return fm
}
