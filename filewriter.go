package fitcodec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/tormoder/fit/dyncrc16"

	"github.com/lucasjlepore/fit-codec/message"
)

// FileWriter buffers encoded records and frames them as a FIT file with a
// header and trailing CRC.
type FileWriter struct {
	*Encoder
	data bytes.Buffer
	dev  bool
}

func NewFileWriter(opts ...EncoderOption) *FileWriter {
	fw := &FileWriter{}
	fw.Encoder = NewEncoder(&fw.data, opts...)
	return fw
}

// Encode is Encoder.Encode, noting developer fields for the protocol version.
func (fw *FileWriter) Encode(global uint16, fields *message.FieldMap) error {
	if len(fields.DeveloperKeys()) > 0 {
		fw.dev = true
	}
	return fw.Encoder.Encode(global, fields)
}

// EncodeMessage is Encoder.EncodeMessage, noting developer fields.
func (fw *FileWriter) EncodeMessage(m *message.Message) error {
	if len(m.DevFields()) > 0 {
		fw.dev = true
	}
	return fw.Encoder.EncodeMessage(m)
}

// Bytes returns the complete file.
func (fw *FileWriter) Bytes() []byte {
	version := uint8(ProtocolV10)
	if fw.dev {
		version = ProtocolV20
	}
	h := FileHeader{
		Size:            headerSizeCRC,
		ProtocolVersion: version,
		ProfileVersion:  ProfileVersion,
		DataSize:        uint32(fw.data.Len()),
	}
	out := h.AppendBinary(make([]byte, 0, headerSizeCRC+fw.data.Len()+2))
	out = append(out, fw.data.Bytes()...)
	return binary.LittleEndian.AppendUint16(out, dyncrc16.Checksum(out))
}

// WriteTo writes the complete file to w.
func (fw *FileWriter) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(fw.Bytes())
	return int64(n), err
}

// EncodeFile runs fn against a FileWriter and writes the resulting file.
func EncodeFile(w io.Writer, fn func(*FileWriter) error, opts ...EncoderOption) error {
	fw := NewFileWriter(opts...)
	if err := fn(fw); err != nil {
		return err
	}
	if _, err := fw.WriteTo(w); err != nil {
		return fmt.Errorf("write fit file: %w", err)
	}
	return nil
}
