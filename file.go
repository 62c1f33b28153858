package fitcodec

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tormoder/fit/dyncrc16"
	"golang.org/x/sync/errgroup"

	"github.com/lucasjlepore/fit-codec/message"
	"github.com/lucasjlepore/fit-codec/proto"
)

const (
	headerSizeNoCRC = 12
	headerSizeCRC   = 14
	dataTypeFIT     = ".FIT"

	// ProtocolV10 and ProtocolV20 are the header protocol version bytes.
	ProtocolV10 = 0x10
	ProtocolV20 = 0x20
	// ProfileVersion is written into headers of encoded files.
	ProfileVersion = 2132
)

var (
	// ErrHeader is returned for a missing or malformed file header.
	ErrHeader = errors.New("invalid fit file header")
	// ErrTruncated is returned when the file is shorter than its header says.
	ErrTruncated = errors.New("fit file truncated")
	// ErrCRC is returned under WithStrictCRC for a checksum mismatch.
	ErrCRC = errors.New("fit crc mismatch")
)

// FileHeader is the 12 or 14 byte FIT file header.
type FileHeader struct {
	Size            uint8
	ProtocolVersion uint8
	ProfileVersion  uint16
	DataSize        uint32
	DataType        string
	// CRC is the stored header CRC; zero when absent or not computed.
	CRC uint16
}

// ParseFileHeader decodes the file header at the start of data.
func ParseFileHeader(data []byte) (FileHeader, error) {
	if len(data) < headerSizeNoCRC {
		return FileHeader{}, fmt.Errorf("%w: %d bytes", ErrHeader, len(data))
	}
	size := data[0]
	if size != headerSizeNoCRC && size != headerSizeCRC {
		return FileHeader{}, fmt.Errorf("%w: size %d", ErrHeader, size)
	}
	if len(data) < int(size) {
		return FileHeader{}, fmt.Errorf("%w: need %d header bytes", ErrHeader, size)
	}
	h := FileHeader{
		Size:            size,
		ProtocolVersion: data[1],
		ProfileVersion:  binary.LittleEndian.Uint16(data[2:4]),
		DataSize:        binary.LittleEndian.Uint32(data[4:8]),
		DataType:        string(data[8:12]),
	}
	if h.DataType != dataTypeFIT {
		return FileHeader{}, fmt.Errorf("%w: data type %q", ErrHeader, h.DataType)
	}
	if size == headerSizeCRC {
		h.CRC = binary.LittleEndian.Uint16(data[12:14])
	}
	return h, nil
}

// AppendBinary appends the header. A 14 byte header gets its CRC computed.
func (h FileHeader) AppendBinary(b []byte) []byte {
	size := h.Size
	if size != headerSizeNoCRC {
		size = headerSizeCRC
	}
	start := len(b)
	b = append(b, size, h.ProtocolVersion)
	b = binary.LittleEndian.AppendUint16(b, h.ProfileVersion)
	b = binary.LittleEndian.AppendUint32(b, h.DataSize)
	b = append(b, dataTypeFIT...)
	if size == headerSizeCRC {
		b = binary.LittleEndian.AppendUint16(b, dyncrc16.Checksum(b[start:]))
	}
	return b
}

// CRCCheck is the outcome of one checksum comparison.
type CRCCheck struct {
	Present  bool
	Stored   uint16
	Computed uint16
}

// Valid reports a match. An absent or zero header CRC is valid.
func (c CRCCheck) Valid() bool {
	return !c.Present || c.Stored == 0 || c.Stored == c.Computed
}

// File is one decoded FIT file.
type File struct {
	Header    FileHeader
	HeaderCRC CRCCheck
	CRC       CRCCheck
	Records   []*Record
	// Leftover counts bytes after the trailing CRC.
	Leftover int
}

// Messages returns the data messages in order.
func (f *File) Messages() []*message.Message {
	var out []*message.Message
	for _, r := range f.Records {
		if r.Message != nil {
			out = append(out, r.Message)
		}
	}
	return out
}

// Shims returns the typed views of the data messages in order.
func (f *File) Shims() []message.Shim {
	var out []message.Shim
	for _, r := range f.Records {
		if r.Shim != nil {
			out = append(out, r.Shim)
		}
	}
	return out
}

// DefinitionCount is the number of definition records.
func (f *File) DefinitionCount() int {
	n := 0
	for _, r := range f.Records {
		if r.IsDefinition() {
			n++
		}
	}
	return n
}

// DecodeFile decodes a complete FIT file. On a framing error or truncation
// the records decoded so far are returned together with the error.
func DecodeFile(data []byte, opts ...Option) (*File, error) {
	cfg := newDecoderConfig(opts)
	h, err := ParseFileHeader(data)
	if err != nil {
		return nil, err
	}
	f := &File{Header: h}
	if h.Size == headerSizeCRC {
		f.HeaderCRC = CRCCheck{Present: true, Stored: h.CRC, Computed: dyncrc16.Checksum(data[:headerSizeNoCRC])}
	}

	start := int(h.Size)
	end := start + int(h.DataSize)
	var truncated error
	if len(data) < end+2 {
		truncated = fmt.Errorf("%w: have %d bytes, need %d", ErrTruncated, len(data), end+2)
		end = min(end, len(data))
	} else {
		f.CRC = CRCCheck{
			Present:  true,
			Stored:   binary.LittleEndian.Uint16(data[end : end+2]),
			Computed: dyncrc16.Checksum(data[:end]),
		}
		f.Leftover = len(data) - end - 2
	}

	dec := NewDecoder(proto.NewByteSource(data[start:end]), opts...)
	log := dec.log
	for {
		rec, err := dec.NextRecord()
		if err == io.EOF {
			break
		}
		if err != nil {
			return f, err
		}
		f.Records = append(f.Records, rec)
	}
	if truncated != nil {
		return f, truncated
	}

	if !f.HeaderCRC.Valid() || !f.CRC.Valid() {
		log.Warn().
			Str("header_crc", fmt.Sprintf("0x%04X/0x%04X", f.HeaderCRC.Stored, f.HeaderCRC.Computed)).
			Str("file_crc", fmt.Sprintf("0x%04X/0x%04X", f.CRC.Stored, f.CRC.Computed)).
			Msg("crc mismatch")
		if cfg.strictCRC {
			return f, crcError(f.HeaderCRC, f.CRC)
		}
	}
	return f, nil
}

// crcError names each failed check, e.g. "header 0x1234 != 0x5678".
func crcError(header, file CRCCheck) error {
	var errs []error
	if !header.Valid() {
		errs = append(errs, fmt.Errorf("%w: header 0x%04X != 0x%04X", ErrCRC, header.Stored, header.Computed))
	}
	if !file.Valid() {
		errs = append(errs, fmt.Errorf("%w: file 0x%04X != 0x%04X", ErrCRC, file.Stored, file.Computed))
	}
	return errors.Join(errs...)
}

// DecodeChain decodes chained FIT files laid end to end, each in a fresh
// session. Files decoded before an error are returned with it.
func DecodeChain(data []byte, opts ...Option) ([]*File, error) {
	var files []*File
	for len(data) > 0 {
		f, err := DecodeFile(data, opts...)
		if f != nil {
			files = append(files, f)
		}
		if err != nil {
			return files, fmt.Errorf("chained file %d: %w", len(files), err)
		}
		if f.Leftover == 0 {
			break
		}
		data = data[len(data)-f.Leftover:]
	}
	return files, nil
}

// DecodeFiles decodes independent files in parallel, one session each, with
// at most limit files in flight (limit <= 0 means unbounded). Results and
// errors keep the order of paths: errs[i] is the error for paths[i], and
// files[i] holds whatever was decoded even when errs[i] is set. A failing
// file does not stop the others; only ctx cancellation skips files that
// have not started.
func DecodeFiles(ctx context.Context, paths []string, limit int, opts ...Option) (files []*File, errs []error) {
	files = make([]*File, len(paths))
	errs = make([]error, len(paths))
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				errs[i] = fmt.Errorf("read %s: %w", path, err)
				return nil
			}
			files[i], err = DecodeFile(data, opts...)
			if err != nil {
				errs[i] = fmt.Errorf("decode %s: %w", path, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return files, errs
}
