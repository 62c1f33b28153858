package message

import (
	"sort"
	"time"

	"github.com/lucasjlepore/fit-codec/timestamp"
	"github.com/lucasjlepore/fit-codec/value"
)

// DevFieldKey addresses a developer field by developer data index and field
// number.
type DevFieldKey struct {
	DevIndex uint8
	Num      uint8
}

// FieldMap is the mutable input to the encoder: field number to value. A
// field that is set to an absent value is still written, as its sentinel.
// The zero FieldMap is ready to use.
type FieldMap struct {
	fields map[uint8]value.Value
	dev    map[DevFieldKey]value.Value
}

func NewFieldMap() *FieldMap {
	return &FieldMap{}
}

// Set stores v for field num. It returns m for chaining.
func (m *FieldMap) Set(num uint8, v value.Value) *FieldMap {
	if m.fields == nil {
		m.fields = make(map[uint8]value.Value)
	}
	m.fields[num] = v
	return m
}

// SetTimestamp stores t in the timestamp field.
func (m *FieldMap) SetTimestamp(t time.Time) *FieldMap {
	return m.Set(FieldTimestamp, value.Uint(uint64(timestamp.FromTime(t))))
}

// Clear keeps field num in the record but marks it absent.
func (m *FieldMap) Clear(num uint8) *FieldMap {
	return m.Set(num, value.Absent())
}

// Delete removes field num from the record entirely.
func (m *FieldMap) Delete(num uint8) *FieldMap {
	delete(m.fields, num)
	return m
}

// Get returns the value stored for num.
func (m *FieldMap) Get(num uint8) (value.Value, bool) {
	v, ok := m.fields[num]
	return v, ok
}

func (m *FieldMap) Has(num uint8) bool {
	_, ok := m.fields[num]
	return ok
}

func (m *FieldMap) Len() int { return len(m.fields) }

// Nums lists the stored field numbers in ascending order.
func (m *FieldMap) Nums() []uint8 {
	out := make([]uint8, 0, len(m.fields))
	for n := range m.fields {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SetDeveloper stores a developer field value.
func (m *FieldMap) SetDeveloper(devIndex, num uint8, v value.Value) *FieldMap {
	if m.dev == nil {
		m.dev = make(map[DevFieldKey]value.Value)
	}
	m.dev[DevFieldKey{devIndex, num}] = v
	return m
}

// DeleteDeveloper removes a developer field.
func (m *FieldMap) DeleteDeveloper(devIndex, num uint8) *FieldMap {
	delete(m.dev, DevFieldKey{devIndex, num})
	return m
}

// Developer returns a stored developer field value.
func (m *FieldMap) Developer(devIndex, num uint8) (value.Value, bool) {
	v, ok := m.dev[DevFieldKey{devIndex, num}]
	return v, ok
}

// DeveloperKeys lists the developer fields ordered by index then number.
func (m *FieldMap) DeveloperKeys() []DevFieldKey {
	out := make([]DevFieldKey, 0, len(m.dev))
	for k := range m.dev {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DevIndex != out[j].DevIndex {
			return out[i].DevIndex < out[j].DevIndex
		}
		return out[i].Num < out[j].Num
	})
	return out
}

// Clone returns an independent copy of m.
func (m *FieldMap) Clone() *FieldMap {
	c := &FieldMap{}
	for k, v := range m.fields {
		c.Set(k, v)
	}
	for k, v := range m.dev {
		c.SetDeveloper(k.DevIndex, k.Num, v)
	}
	return c
}
