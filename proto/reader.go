package proto

import (
	"errors"
	"fmt"
	"io"
)

// ErrUndefinedLocalType is returned for a data record whose local type has no
// definition installed.
var ErrUndefinedLocalType = errors.New("data record for undefined local message type")

// Record is one framed record. For definition records Definition is the
// newly installed schema and Fields is empty. For data records Definition is
// the schema the body was read with and Fields/DevFields hold per-field byte
// slices into Body.
type Record struct {
	Index      int
	Offset     int64
	Header     Header
	Definition *Definition
	// Redefined is set on definition records that replaced an active binding.
	Redefined bool
	Body      []byte
	Fields    [][]byte
	DevFields [][]byte
}

// Len is the number of bytes the record occupied, header included.
func (r *Record) Len() int {
	if !r.Header.Definition {
		return 1 + len(r.Body)
	}
	n := 6 + 3*len(r.Definition.Fields)
	if r.Header.DevData {
		n += 1 + 3*len(r.Definition.DevFields)
	}
	return n
}

// Reader frames records from a Source. It owns the session's LocalTable.
type Reader struct {
	src   Source
	table LocalTable
	index int
}

func NewReader(src Source) *Reader {
	return &Reader{src: src}
}

// Table exposes the local type table, e.g. to pre-install definitions.
func (r *Reader) Table() *LocalTable { return &r.table }

// Offset is the number of bytes consumed from the source.
func (r *Reader) Offset() int64 { return r.src.Offset() }

// Reset starts a new session on the same source.
func (r *Reader) Reset() {
	r.table.Reset()
	r.index = 0
}

// Next reads one record. It returns io.EOF at a clean record boundary and a
// *DecodeError for anything that leaves the stream position unknown.
func (r *Reader) Next() (*Record, error) {
	start := r.src.Offset()
	hb, err := r.src.Next(1)
	if err == io.EOF {
		return nil, io.EOF
	}
	r.index++
	if err != nil {
		return nil, Framing("read record header", r.index, start, err)
	}
	h := ParseHeader(hb[0])

	if h.Definition {
		def, err := ParseDefinition(h, r.src)
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, Framing("read definition", r.index, start, err)
		}
		prev := r.table.Install(def)
		return &Record{Index: r.index, Offset: start, Header: h, Definition: def, Redefined: prev != nil}, nil
	}

	def := r.table.Lookup(h.LocalType)
	if def == nil {
		return nil, Framing("resolve local type", r.index, start,
			fmt.Errorf("%w %d", ErrUndefinedLocalType, h.LocalType))
	}
	size := def.DataSize()
	var body []byte
	if size > 0 {
		raw, err := r.src.Next(size)
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, Framing("read data record", r.index, start, err)
		}
		body = append([]byte(nil), raw...)
	}

	rec := &Record{
		Index:      r.index,
		Offset:     start,
		Header:     h,
		Definition: def,
		Body:       body,
		Fields:     make([][]byte, len(def.Fields)),
		DevFields:  make([][]byte, len(def.DevFields)),
	}
	pos := 0
	for i, f := range def.Fields {
		rec.Fields[i] = body[pos : pos+int(f.Size) : pos+int(f.Size)]
		pos += int(f.Size)
	}
	for i, f := range def.DevFields {
		rec.DevFields[i] = body[pos : pos+int(f.Size) : pos+int(f.Size)]
		pos += int(f.Size)
	}
	return rec, nil
}
