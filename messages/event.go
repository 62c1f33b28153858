package messages

import (
	"time"

	"github.com/lucasjlepore/fit-codec/message"
	"github.com/lucasjlepore/fit-codec/value"
)

// Event and event type values.
const (
	EventTimer   uint8 = 0
	EventLap     uint8 = 9
	EventSession uint8 = 8

	EventTypeStart   uint8 = 0
	EventTypeStop    uint8 = 1
	EventTypeStopAll uint8 = 4
)

// Event is the event message.
type Event struct {
	*message.Message
}

func (m Event) Event() (uint8, bool)      { return message.Get[uint8](m.Message, 0) }
func (m Event) EventType() (uint8, bool)  { return message.Get[uint8](m.Message, 1) }
func (m Event) Data16() (uint16, bool)    { return message.Get[uint16](m.Message, 2) }
func (m Event) Data() (uint32, bool)      { return message.Get[uint32](m.Message, 3) }
func (m Event) EventGroup() (uint8, bool) { return message.Get[uint8](m.Message, 4) }

// EventFields builds an event message. Event and EventType are always set.
type EventFields struct {
	Timestamp  time.Time
	Event      uint8
	EventType  uint8
	Data       *uint32
	EventGroup *uint8
}

func (f EventFields) FieldMap() *message.FieldMap {
	fm := message.NewFieldMap()
	setTime(fm, message.FieldTimestamp, f.Timestamp)
	fm.Set(0, value.Uint(uint64(f.Event)))
	fm.Set(1, value.Uint(uint64(f.EventType)))
	setUint(fm, 3, f.Data)
	setUint(fm, 4, f.EventGroup)
	return fm
}
