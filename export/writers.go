package export

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// WriteJSONL writes one envelope per line. With compress set the stream is
// zstd framed.
func WriteJSONL(w io.Writer, records []RecordEnvelope, compress bool) error {
	var zw *zstd.Encoder
	if compress {
		var err error
		zw, err = zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		w = zw
	}

	buf := bufio.NewWriterSize(w, 1<<20)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	for _, record := range records {
		if err := enc.Encode(record); err != nil {
			return err
		}
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if zw != nil {
		return zw.Close()
	}
	return nil
}

// ReadJSONL reads envelopes written by WriteJSONL.
func ReadJSONL(r io.Reader, compressed bool) ([]RecordEnvelope, error) {
	if compressed {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	}
	var out []RecordEnvelope
	dec := json.NewDecoder(r)
	for dec.More() {
		var env RecordEnvelope
		if err := dec.Decode(&env); err != nil {
			return out, err
		}
		out = append(out, env)
	}
	return out, nil
}

// WriteMsgpack writes the envelopes as a single msgpack array using the
// JSON field names.
func WriteMsgpack(w io.Writer, records []RecordEnvelope) error {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	enc.SetOmitEmpty(true)
	return enc.Encode(records)
}

// ReadMsgpack reads envelopes written by WriteMsgpack.
func ReadMsgpack(r io.Reader) ([]RecordEnvelope, error) {
	dec := msgpack.NewDecoder(r)
	dec.SetCustomStructTag("json")
	var out []RecordEnvelope
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
