package message

import (
	"sort"
	"sync"

	"github.com/lucasjlepore/fit-codec/basetype"
	"github.com/lucasjlepore/fit-codec/value"
)

const (
	GlobalFieldDescription = 206
	GlobalDeveloperDataID  = 207
)

// field_description field numbers.
const (
	fdDeveloperDataIndex = 0
	fdFieldDefNumber     = 1
	fdBaseTypeID         = 2
	fdFieldName          = 3
	fdScale              = 6
	fdOffset             = 7
	fdUnits              = 8
	fdNativeMesgNum      = 14
	fdNativeFieldNum     = 15
)

// developer_data_id field numbers.
const (
	ddDeveloperID        = 0
	ddApplicationID      = 1
	ddManufacturerID     = 2
	ddDeveloperDataIndex = 3
	ddAppVersion         = 4
)

// DeveloperField describes one developer field.
type DeveloperField struct {
	DevIndex uint8
	Num      uint8
	Name     string
	BaseType basetype.BaseType
	Units    string
	Scaling  value.Scaling

	NativeMesgNum  uint16
	NativeFieldNum uint8
	HasNative      bool
}

// DeveloperApp identifies the application behind a developer data index.
type DeveloperApp struct {
	DevIndex       uint8
	DeveloperID    []byte
	ApplicationID  []byte
	ManufacturerID uint16
	AppVersion     uint32
}

// DeveloperCatalog resolves developer fields by (developer data index,
// field number). A catalog may be shared between decoders.
type DeveloperCatalog struct {
	mu     sync.RWMutex
	fields map[DevFieldKey]DeveloperField
	apps   map[uint8]DeveloperApp
}

func NewDeveloperCatalog() *DeveloperCatalog {
	return &DeveloperCatalog{
		fields: make(map[DevFieldKey]DeveloperField),
		apps:   make(map[uint8]DeveloperApp),
	}
}

// Add registers or replaces a field description.
func (c *DeveloperCatalog) Add(f DeveloperField) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fields[DevFieldKey{f.DevIndex, f.Num}] = f
}

func (c *DeveloperCatalog) Lookup(devIndex, num uint8) (DeveloperField, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.fields[DevFieldKey{devIndex, num}]
	return f, ok
}

// App returns the application registered for devIndex.
func (c *DeveloperCatalog) App(devIndex uint8) (DeveloperApp, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.apps[devIndex]
	return a, ok
}

// Fields lists every description ordered by index then number.
func (c *DeveloperCatalog) Fields() []DeveloperField {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]DeveloperField, 0, len(c.fields))
	for _, f := range c.fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DevIndex != out[j].DevIndex {
			return out[i].DevIndex < out[j].DevIndex
		}
		return out[i].Num < out[j].Num
	})
	return out
}

func (c *DeveloperCatalog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.fields)
	clear(c.apps)
}

// Describe registers the description carried by a field_description
// message. It returns false when m is not one or lacks the index, number or
// base type.
func (c *DeveloperCatalog) Describe(m *Message) (DeveloperField, bool) {
	if m.GlobalMessageNumber() != GlobalFieldDescription {
		return DeveloperField{}, false
	}
	idx, ok1 := Get[uint8](m, fdDeveloperDataIndex)
	num, ok2 := Get[uint8](m, fdFieldDefNumber)
	btRaw, ok3 := Get[uint8](m, fdBaseTypeID)
	if !ok1 || !ok2 || !ok3 {
		return DeveloperField{}, false
	}
	bt, _ := basetype.Parse(btRaw)
	f := DeveloperField{DevIndex: idx, Num: num, BaseType: bt}
	f.Name, _ = Get[string](m, fdFieldName)
	f.Units, _ = Get[string](m, fdUnits)
	if scale, ok := Get[uint8](m, fdScale); ok && scale != 0 {
		f.Scaling.Scale = float64(scale)
	}
	if off, ok := Get[int8](m, fdOffset); ok {
		f.Scaling.Offset = float64(off)
	}
	if mesg, ok := Get[uint16](m, fdNativeMesgNum); ok {
		f.NativeMesgNum = mesg
		f.NativeFieldNum, f.HasNative = Get[uint8](m, fdNativeFieldNum)
	}
	c.Add(f)
	return f, true
}

// DescribeApp registers the application carried by a developer_data_id
// message.
func (c *DeveloperCatalog) DescribeApp(m *Message) (DeveloperApp, bool) {
	if m.GlobalMessageNumber() != GlobalDeveloperDataID {
		return DeveloperApp{}, false
	}
	idx, ok := Get[uint8](m, ddDeveloperDataIndex)
	if !ok {
		return DeveloperApp{}, false
	}
	a := DeveloperApp{DevIndex: idx}
	a.DeveloperID = bytesOf(m.Value(ddDeveloperID))
	a.ApplicationID = bytesOf(m.Value(ddApplicationID))
	a.ManufacturerID, _ = Get[uint16](m, ddManufacturerID)
	a.AppVersion, _ = Get[uint32](m, ddAppVersion)

	c.mu.Lock()
	c.apps[idx] = a
	c.mu.Unlock()
	return a, true
}

func bytesOf(v value.Value) []byte {
	if b, ok := v.Bytes(); ok {
		return append([]byte(nil), b...)
	}
	if elems, ok := v.Elems(); ok {
		out := make([]byte, len(elems))
		for i, e := range elems {
			if u, ok := e.Uint(); ok {
				out[i] = byte(u)
			} else {
				out[i] = 0xFF
			}
		}
		return out
	}
	return nil
}
