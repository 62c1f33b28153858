package messages

import (
	"time"

	"github.com/lucasjlepore/fit-codec/message"
)

const semicirclesToDegrees = 180.0 / (1 << 31)

// Record is the record message: one sample of an activity.
type Record struct {
	*message.Message
}

func (m Record) PositionLat() (int32, bool)  { return message.Get[int32](m.Message, 0) }
func (m Record) PositionLong() (int32, bool) { return message.Get[int32](m.Message, 1) }

// Position returns the position in degrees.
func (m Record) Position() (lat, long float64, ok bool) {
	la, ok1 := m.PositionLat()
	lo, ok2 := m.PositionLong()
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	return float64(la) * semicirclesToDegrees, float64(lo) * semicirclesToDegrees, true
}

// Altitude in meters.
func (m Record) Altitude() (float64, bool) { return message.Get[float64](m.Message, 2) }

func (m Record) HeartRate() (uint8, bool) { return message.Get[uint8](m.Message, 3) }
func (m Record) Cadence() (uint8, bool)   { return message.Get[uint8](m.Message, 4) }

// Distance in meters.
func (m Record) Distance() (float64, bool) { return message.Get[float64](m.Message, 5) }

// Speed in m/s.
func (m Record) Speed() (float64, bool) { return message.Get[float64](m.Message, 6) }

func (m Record) Power() (uint16, bool)     { return message.Get[uint16](m.Message, 7) }
func (m Record) Grade() (float64, bool)    { return message.Get[float64](m.Message, 9) }
func (m Record) Temperature() (int8, bool) { return message.Get[int8](m.Message, 13) }
func (m Record) Cycles() (uint8, bool)     { return message.Get[uint8](m.Message, 18) }
func (m Record) EnhancedSpeed() (float64, bool) {
	return message.Get[float64](m.Message, 73)
}

// TotalCycles is the cycles counter widened across rollovers.
func (m Record) TotalCycles() (uint64, bool) { return m.Accumulated(18) }

// RecordFields builds a record message. Nil fields are left out.
type RecordFields struct {
	Timestamp    time.Time
	PositionLat  *int32
	PositionLong *int32
	Altitude     *float64
	HeartRate    *uint8
	Cadence      *uint8
	Distance     *float64
	Speed        *float64
	Power        *uint16
	Grade        *float64
	Temperature  *int8
	Cycles       *uint8
}

func (f RecordFields) FieldMap() *message.FieldMap {
	fm := message.NewFieldMap()
	setTime(fm, message.FieldTimestamp, f.Timestamp)
	setInt(fm, 0, f.PositionLat)
	setInt(fm, 1, f.PositionLong)
	setFloat(fm, 2, f.Altitude)
	setUint(fm, 3, f.HeartRate)
	setUint(fm, 4, f.Cadence)
	setFloat(fm, 5, f.Distance)
	setFloat(fm, 6, f.Speed)
	setUint(fm, 7, f.Power)
	setFloat(fm, 9, f.Grade)
	setInt(fm, 13, f.Temperature)
	setUint(fm, 18, f.Cycles)
	return fm
}
