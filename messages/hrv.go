package messages

import (
	"github.com/lucasjlepore/fit-codec/message"
	"github.com/lucasjlepore/fit-codec/value"
)

// HRV is the hrv message: beat to beat intervals.
type HRV struct {
	*message.Message
}

// Times returns the intervals in seconds. Absent slots are marked false in
// valid.
func (m HRV) Times() (times []float64, valid []bool, ok bool) {
	return message.GetArray[float64](m.Message, 0)
}

// HRVFields builds an hrv message.
type HRVFields struct {
	Times []float64
}

func (f HRVFields) FieldMap() *message.FieldMap {
	fm := message.NewFieldMap()
	if len(f.Times) > 0 {
		fm.Set(0, value.Of(f.Times))
	}
	return fm
}
