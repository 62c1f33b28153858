package timestamp

type counterKey struct {
	global uint16
	field  uint8
}

// Accumulator widens rolling counters marked as accumulated in the profile.
// Each (message, field) pair keeps its own running value.
type Accumulator struct {
	last map[counterKey]uint64
}

func NewAccumulator() *Accumulator {
	return &Accumulator{last: make(map[counterKey]uint64)}
}

// Accumulate folds a raw counter of the given bit width into the running
// value for (global, field) and returns the widened value. The first raw
// value seen for a key is taken as is.
func (a *Accumulator) Accumulate(global uint16, field uint8, raw uint64, bits uint) uint64 {
	k := counterKey{global, field}
	prev, ok := a.last[k]
	v := raw
	if ok {
		v = Rollover(prev, raw, bits)
	}
	a.last[k] = v
	return v
}

// Peek returns the running value without updating it.
func (a *Accumulator) Peek(global uint16, field uint8) (uint64, bool) {
	v, ok := a.last[counterKey{global, field}]
	return v, ok
}

// Reset drops every running value.
func (a *Accumulator) Reset() {
	clear(a.last)
}
