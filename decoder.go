// Package fitcodec decodes and encodes FIT record streams. A Decoder owns
// one session: its local message type table, timestamp continuity and
// rolling counters. Independent sessions share nothing and may run in
// parallel.
package fitcodec

import (
	"encoding/binary"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lucasjlepore/fit-codec/message"
	"github.com/lucasjlepore/fit-codec/proto"
	"github.com/lucasjlepore/fit-codec/timestamp"
	"github.com/lucasjlepore/fit-codec/value"
)

// Record is one decoded record. Message and Shim are nil for definition
// records.
type Record struct {
	Frame   *proto.Record
	Message *message.Message
	Shim    message.Shim
}

// IsDefinition reports whether r is a definition record.
func (r *Record) IsDefinition() bool { return r.Frame.Header.Definition }

// Decoder decodes one session from a byte source. It is not safe for
// concurrent use.
type Decoder struct {
	cfg     decoderConfig
	reader  *proto.Reader
	ts      timestamp.State
	accum   *timestamp.Accumulator
	catalog *message.DeveloperCatalog
	session string
	log     zerolog.Logger
	failed  error
}

// NewDecoder starts a session on src.
func NewDecoder(src proto.Source, opts ...Option) *Decoder {
	cfg := newDecoderConfig(opts)
	d := &Decoder{
		cfg:    cfg,
		reader: proto.NewReader(src),
		accum:  timestamp.NewAccumulator(),
	}
	d.catalog = cfg.catalog
	if d.catalog == nil {
		d.catalog = message.NewDeveloperCatalog()
	}
	d.newSession()
	return d
}

// NewStreamDecoder is NewDecoder over a blocking reader.
func NewStreamDecoder(r io.Reader, opts ...Option) *Decoder {
	return NewDecoder(proto.NewReaderSource(r), opts...)
}

func (d *Decoder) newSession() {
	d.session = uuid.NewString()
	d.log = d.cfg.logger.With().Str("session", d.session).Logger()
}

// Session is the id attached to this session's log lines.
func (d *Decoder) Session() string { return d.session }

// Reset starts a new session on the same source: the local type table,
// timestamp state and rolling counters are cleared. A per-session developer
// catalog is cleared too; a shared one is left alone.
func (d *Decoder) Reset() {
	d.reader.Reset()
	d.ts.Reset()
	d.accum.Reset()
	if d.cfg.catalog == nil {
		d.catalog.Reset()
	}
	d.failed = nil
	d.newSession()
}

// Define installs def for its local type without a definition record. It
// is the only way to bind local types above 15. The table keeps its own
// copy, so later changes to def do not reach decoded messages.
func (d *Decoder) Define(def *proto.Definition) {
	d.reader.Table().Install(def.Clone())
}

// Catalog is the developer catalog the session resolves against.
func (d *Decoder) Catalog() *message.DeveloperCatalog { return d.catalog }

// LastTimestamp is the session's last absolute timestamp.
func (d *Decoder) LastTimestamp() (uint32, bool) { return d.ts.Last() }

// Offset is the number of source bytes consumed.
func (d *Decoder) Offset() int64 { return d.reader.Offset() }

// Next returns the next data message wrapped by the registry, skipping
// definition records. It returns io.EOF at the end of the source. After a
// framing error every call returns that error.
func (d *Decoder) Next() (message.Shim, error) {
	for {
		rec, err := d.NextRecord()
		if err != nil {
			return nil, err
		}
		if rec.Shim != nil {
			return rec.Shim, nil
		}
	}
}

// NextRecord returns the next record of either kind.
func (d *Decoder) NextRecord() (*Record, error) {
	if d.failed != nil {
		return nil, d.failed
	}
	fr, err := d.reader.Next()
	if err != nil {
		if err != io.EOF {
			d.failed = err
			d.log.Error().Err(err).Msg("framing error, session stopped")
		}
		return nil, err
	}
	if fr.Header.Definition {
		d.logDefinition(fr)
		return &Record{Frame: fr}, nil
	}
	msg := d.decodeData(fr)
	return &Record{Frame: fr, Message: msg, Shim: d.cfg.registry.Wrap(msg)}, nil
}

func (d *Decoder) logDefinition(fr *proto.Record) {
	def := fr.Definition
	if e := d.log.Debug(); e.Enabled() {
		e.Uint8("local", def.LocalType).
			Uint16("global", def.Global).
			Int("fields", len(def.Fields)).
			Int("dev_fields", len(def.DevFields)).
			Bool("redefined", fr.Redefined).
			Msg("definition installed")
	}
	for _, f := range def.Fields {
		if f.Unknown {
			d.log.Warn().
				Uint16("global", def.Global).
				Uint8("field", f.Num).
				Uint8("base_type", f.RawType).
				Msg("unknown base type, field kept as raw bytes")
		}
	}
}

func (d *Decoder) decodeData(fr *proto.Record) *message.Message {
	def := fr.Definition
	order := def.ByteOrder()
	pm, known := d.cfg.profile.Message(def.Global)
	if !known {
		d.log.Debug().Uint16("global", def.Global).Msg("message not in profile")
	}

	parts := message.Parts{
		Definition: def,
		Name:       d.cfg.profile.MessageName(def.Global),
		Index:      fr.Index,
		Offset:     fr.Offset,
		Compressed: fr.Header.Compressed,
		Fields:     make([]message.Field, len(def.Fields)),
	}
	parts.Reference, parts.HasReference = d.ts.Last()

	for i, fd := range def.Fields {
		raw := fr.Fields[i]
		f := message.Field{Def: fd, Raw: raw}
		var sc value.Scaling
		if known {
			if pf, ok := pm.Field(fd.Num); ok {
				f.Name, f.Units = pf.Name, pf.Units
				sc = pf.Scaling()
				if pf.Accumulate > 0 {
					d.accumulate(&parts, def.Global, fd, raw, uint(pf.Accumulate))
				}
			}
		}
		if fd.Num == message.FieldTimestamp {
			sc = value.Scaling{}
		}
		f.Value = fd.Decode(raw, order, sc)
		parts.Fields[i] = f
	}

	if ts, ok := timestampField(parts.Fields); ok {
		d.ts.Observe(ts)
		parts.Timestamp, parts.HasTimestamp = ts, true
	} else if fr.Header.Compressed {
		parts.Timestamp, parts.HasTimestamp = d.ts.Compressed(fr.Header.TimeOffset)
		if !parts.HasTimestamp {
			d.log.Debug().Int("record", fr.Index).Msg("compressed timestamp without reference")
		}
	}

	if len(def.DevFields) > 0 {
		parts.DevFields = make([]message.DevField, len(def.DevFields))
		for i, dd := range def.DevFields {
			parts.DevFields[i] = d.decodeDev(dd, fr.DevFields[i], order)
		}
	}

	msg := message.New(parts)
	if d.cfg.autoCatalog {
		switch def.Global {
		case message.GlobalFieldDescription:
			if f, ok := d.catalog.Describe(msg); ok {
				d.log.Debug().Uint8("dev_index", f.DevIndex).Uint8("field", f.Num).
					Str("name", f.Name).Msg("developer field described")
			}
		case message.GlobalDeveloperDataID:
			d.catalog.DescribeApp(msg)
		}
	}
	return msg
}

func (d *Decoder) accumulate(parts *message.Parts, global uint16, fd proto.FieldDef, raw []byte, bits uint) {
	u, ok := fd.Decode(raw, parts.Definition.ByteOrder(), value.Scaling{}).Uint()
	if !ok {
		return
	}
	if parts.Accumulated == nil {
		parts.Accumulated = make(map[uint8]uint64)
	}
	parts.Accumulated[fd.Num] = d.accum.Accumulate(global, fd.Num, u, bits)
}

func (d *Decoder) decodeDev(dd proto.DevFieldDef, raw []byte, order binary.ByteOrder) message.DevField {
	f := message.DevField{Def: dd, Raw: raw, Key: message.DevKey(dd.DevIndex, dd.Num)}
	desc, ok := d.catalog.Lookup(dd.DevIndex, dd.Num)
	if !ok {
		f.Value = value.Bytes(raw)
		return f
	}
	f.Resolved = true
	f.Units = desc.Units
	if desc.Name != "" {
		f.Key = desc.Name
	}
	f.Value = value.Decode(raw, desc.BaseType, order, desc.Scaling)
	return f
}

func timestampField(fields []message.Field) (uint32, bool) {
	for _, f := range fields {
		if f.Def.Num == message.FieldTimestamp {
			return value.As[uint32](f.Value)
		}
	}
	return 0, false
}
