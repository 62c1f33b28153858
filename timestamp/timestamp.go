// Package timestamp reconstructs FIT timestamps and rolling counters that
// are stored with fewer bits than their logical range.
package timestamp

import "time"

const (
	// CompressedBits is the width of a compressed header's time offset.
	CompressedBits = 5
	// MinAbsolute is the smallest timestamp that is an absolute date. Smaller
	// values count seconds since device power-up.
	MinAbsolute = 0x10000000
)

// Epoch is the FIT time origin.
var Epoch = time.Date(1989, time.December, 31, 0, 0, 0, 0, time.UTC)

// ToTime converts seconds since Epoch to UTC.
func ToTime(ts uint32) time.Time {
	return Epoch.Add(time.Duration(ts) * time.Second)
}

// FromTime converts t to seconds since Epoch, clamped to the uint32 range.
func FromTime(t time.Time) uint32 {
	d := t.Unix() - Epoch.Unix()
	switch {
	case d < 0:
		return 0
	case d > 0xFFFFFFFF:
		return 0xFFFFFFFF
	}
	return uint32(d)
}

// Rollover places the low bits of a counter next to the last known full
// value: candidate = (last &^ mask) | partial, plus one period when the
// candidate lands before last.
func Rollover(last, partial uint64, bits uint) uint64 {
	if bits == 0 || bits >= 64 {
		return partial
	}
	mask := uint64(1)<<bits - 1
	c := (last &^ mask) | (partial & mask)
	if c < last {
		c += mask + 1
	}
	return c
}

// Reconstruct applies Rollover to 32-bit timestamps.
func Reconstruct(last, partial uint32, bits uint) uint32 {
	return uint32(Rollover(uint64(last), uint64(partial), bits))
}

// Reconstruct16 resolves a 16-bit partial timestamp such as monitoring's
// timestamp_16 against the last absolute timestamp.
func Reconstruct16(last uint32, partial uint16) uint32 {
	return Reconstruct(last, uint32(partial), 16)
}

// State is the timestamp continuity of one decode session.
type State struct {
	last  uint32
	valid bool
}

// Observe records a full timestamp.
func (s *State) Observe(ts uint32) {
	s.last = ts
	s.valid = true
}

// Last returns the last resolved absolute timestamp.
func (s *State) Last() (uint32, bool) {
	return s.last, s.valid
}

// Compressed resolves a compressed header's 5-bit offset. Without a prior
// full timestamp there is nothing to anchor to and ok is false. A resolved
// value becomes the new reference.
func (s *State) Compressed(offset uint8) (ts uint32, ok bool) {
	if !s.valid {
		return 0, false
	}
	s.last = Reconstruct(s.last, uint32(offset), CompressedBits)
	return s.last, true
}

// Reset forgets the reference timestamp.
func (s *State) Reset() {
	*s = State{}
}
