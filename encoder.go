package fitcodec

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/lucasjlepore/fit-codec/basetype"
	"github.com/lucasjlepore/fit-codec/message"
	"github.com/lucasjlepore/fit-codec/proto"
	"github.com/lucasjlepore/fit-codec/value"
)

// EncodeWarning reports a field the encoder dropped. The record itself is
// still written without it.
type EncodeWarning struct {
	Global    uint16
	Field     uint8
	Developer bool
	DevIndex  uint8
	Reason    string
	Err       error
}

func (w EncodeWarning) Error() string {
	field := fmt.Sprintf("field %d", w.Field)
	if w.Developer {
		field = fmt.Sprintf("developer field %d/%d", w.DevIndex, w.Field)
	}
	if w.Err != nil {
		return fmt.Sprintf("message %d %s dropped: %s: %v", w.Global, field, w.Reason, w.Err)
	}
	return fmt.Sprintf("message %d %s dropped: %s", w.Global, field, w.Reason)
}

func (w EncodeWarning) Unwrap() error { return w.Err }

// slotCache tracks the definitions bound to the encoder's local types and
// evicts the least recently used binding when a new shape needs a slot.
type slotCache struct {
	defs  [proto.MaxLocalType + 1]*proto.Definition
	used  [proto.MaxLocalType + 1]uint64
	clock uint64
}

// assign binds def to a slot in [0, limit) and reports whether a definition
// record has to be written first.
func (c *slotCache) assign(def *proto.Definition, limit int) (uint8, bool) {
	c.clock++
	for i := 0; i < limit; i++ {
		if c.defs[i] != nil && c.defs[i].SameShape(def) {
			c.used[i] = c.clock
			return uint8(i), false
		}
	}
	victim := 0
	for i := 0; i < limit; i++ {
		if c.defs[i] == nil {
			victim = i
			break
		}
		if c.used[i] < c.used[victim] {
			victim = i
		}
	}
	def.LocalType = uint8(victim)
	c.defs[victim] = def
	c.used[victim] = c.clock
	return uint8(victim), true
}

func (c *slotCache) reset() {
	*c = slotCache{}
}

// Encoder writes FIT records to w. Every record is written with a single
// Write call. It is not safe for concurrent use.
type Encoder struct {
	cfg      encoderConfig
	w        io.Writer
	order    binary.ByteOrder
	slots    slotCache
	last     uint32
	hasLast  bool
	warnings []EncodeWarning
	buf      []byte
	log      zerolog.Logger
}

func NewEncoder(w io.Writer, opts ...EncoderOption) *Encoder {
	cfg := newEncoderConfig(opts)
	e := &Encoder{cfg: cfg, w: w, order: binary.LittleEndian, log: cfg.logger}
	if cfg.bigEndian {
		e.order = binary.BigEndian
	}
	return e
}

// Warnings returns the fields dropped so far.
func (e *Encoder) Warnings() []EncodeWarning {
	return append([]EncodeWarning(nil), e.warnings...)
}

// Reset forgets local type bindings and the timestamp reference so the next
// record starts a new stream.
func (e *Encoder) Reset() {
	e.slots.reset()
	e.hasLast = false
	e.warnings = nil
}

func (e *Encoder) warn(w EncodeWarning) {
	e.warnings = append(e.warnings, w)
	ev := e.log.Warn().Uint16("global", w.Global).Uint8("field", w.Field).Str("reason", w.Reason)
	if w.Developer {
		ev = ev.Uint8("dev_index", w.DevIndex)
	}
	ev.Err(w.Err).Msg("encode field dropped")
}

type encodedField struct {
	def proto.FieldDef
	raw []byte
}

// Encode writes fields as a data message of the given global number,
// preceded by a definition record when no local type holds the same shape.
// Base types and scaling come from the profile; fields the profile does not
// know or that cannot be encoded are dropped and reported as warnings. When
// every field is dropped nothing is written.
func (e *Encoder) Encode(global uint16, fields *message.FieldMap) error {
	pm, known := e.cfg.profile.Message(global)
	def := &proto.Definition{Global: global, BigEndian: e.cfg.bigEndian}
	var body []byte

	ts, hasTS := uint32(0), false
	for _, num := range fields.Nums() {
		v, _ := fields.Get(num)
		if !known {
			e.warn(EncodeWarning{Global: global, Field: num, Reason: "message not in profile"})
			continue
		}
		pf, ok := pm.Field(num)
		if !ok {
			e.warn(EncodeWarning{Global: global, Field: num, Reason: "field not in profile"})
			continue
		}
		sc := pf.Scaling()
		if num == message.FieldTimestamp {
			sc = value.Scaling{}
		}
		raw, err := e.encodeValue(v, pf.BaseType, sc)
		if err != nil {
			e.warn(EncodeWarning{Global: global, Field: num, Reason: "not encodable", Err: err})
			continue
		}
		if num == message.FieldTimestamp {
			ts, hasTS = value.As[uint32](v)
		}
		def.Fields = append(def.Fields, proto.NewFieldDef(num, uint8(len(raw)), pf.BaseType))
		body = append(body, raw...)
	}

	var devBody []byte
	for _, k := range fields.DeveloperKeys() {
		v, _ := fields.Developer(k.DevIndex, k.Num)
		w := EncodeWarning{Global: global, Field: k.Num, Developer: true, DevIndex: k.DevIndex}
		desc, ok := e.cfg.catalog.Lookup(k.DevIndex, k.Num)
		if !ok {
			w.Reason = "developer field not described"
			e.warn(w)
			continue
		}
		raw, err := e.encodeValue(v, desc.BaseType, desc.Scaling)
		if err != nil {
			w.Reason, w.Err = "not encodable", err
			e.warn(w)
			continue
		}
		def.DevFields = append(def.DevFields, proto.DevFieldDef{Num: k.Num, Size: uint8(len(raw)), DevIndex: k.DevIndex})
		devBody = append(devBody, raw...)
	}
	body = append(body, devBody...)
	if len(def.Fields) == 0 && len(def.DevFields) == 0 {
		e.log.Debug().Uint16("global", global).Msg("encode skipped, no fields left")
		return nil
	}

	if hasTS && e.cfg.compress && e.hasLast && ts >= e.last && ts-e.last <= 0x1F {
		if i := timestampIndex(def); i >= 0 {
			return e.writeCompressed(def, body, i, ts)
		}
	}
	if hasTS {
		e.last, e.hasLast = ts, true
	}
	return e.write(def, body, false, 0)
}

// EncodeMessage re-encodes a decoded message with its own definition and
// raw field bytes, so unknown messages and fields pass through unchanged.
func (e *Encoder) EncodeMessage(m *message.Message) error {
	src := m.Definition()
	def := &proto.Definition{
		BigEndian: src.BigEndian,
		Global:    src.Global,
		Fields:    append([]proto.FieldDef(nil), src.Fields...),
		DevFields: append([]proto.DevFieldDef(nil), src.DevFields...),
	}
	var body []byte
	for _, f := range m.Fields() {
		body = append(body, f.Raw...)
	}
	for _, f := range m.DevFields() {
		body = append(body, f.Raw...)
	}

	ts, hasTS := m.TimestampRaw()
	if m.Compressed() && hasTS {
		e.last, e.hasLast = ts, true
		return e.write(def, body, true, uint8(ts&0x1F))
	}
	if _, ok := def.Field(message.FieldTimestamp); ok && hasTS {
		e.last, e.hasLast = ts, true
	}
	return e.write(def, body, false, 0)
}

func (e *Encoder) writeCompressed(def *proto.Definition, body []byte, tsIndex int, ts uint32) error {
	// Drop field 253 and its bytes.
	pos := 0
	for _, f := range def.Fields[:tsIndex] {
		pos += int(f.Size)
	}
	size := int(def.Fields[tsIndex].Size)
	body = append(body[:pos:pos], body[pos+size:]...)
	def.Fields = append(def.Fields[:tsIndex:tsIndex], def.Fields[tsIndex+1:]...)

	e.last, e.hasLast = ts, true
	return e.write(def, body, true, uint8(ts&0x1F))
}

func (e *Encoder) write(def *proto.Definition, body []byte, compressed bool, offset uint8) error {
	limit := e.cfg.localTypes
	if compressed {
		limit = min(limit, proto.MaxCompressedLocalType+1)
	}
	local, fresh := e.slots.assign(def, limit)

	e.buf = e.buf[:0]
	if fresh {
		var err error
		e.buf, err = def.AppendBinary(e.buf)
		if err != nil {
			e.slots.defs[local] = nil
			return fmt.Errorf("encode definition: %w", err)
		}
		e.log.Debug().Uint8("local", local).Uint16("global", def.Global).Msg("definition written")
	}
	h := proto.Header{LocalType: local, Compressed: compressed, TimeOffset: offset}
	e.buf = append(e.buf, h.Byte())
	e.buf = append(e.buf, body...)
	if _, err := e.w.Write(e.buf); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

func (e *Encoder) encodeValue(v value.Value, bt basetype.BaseType, sc value.Scaling) ([]byte, error) {
	size := fieldSize(v, bt)
	if size > 255 {
		return nil, fmt.Errorf("%w: %d bytes", value.ErrSize, size)
	}
	return value.Encode(v, bt, size, e.order, sc)
}

// fieldSize picks the declared size for v: one element for scalars, every
// element for arrays, the bytes plus a terminator for strings.
func fieldSize(v value.Value, bt basetype.BaseType) int {
	if b, ok := v.Bytes(); ok {
		return max(len(b), 1)
	}
	if s, ok := v.Str(); ok {
		return len(s) + 1
	}
	if bt == basetype.String {
		return 1
	}
	if elems, ok := v.Elems(); ok {
		return max(len(elems), 1) * bt.Size()
	}
	return bt.Size()
}

func timestampIndex(def *proto.Definition) int {
	for i, f := range def.Fields {
		if f.Num == message.FieldTimestamp {
			return i
		}
	}
	return -1
}
