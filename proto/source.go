package proto

import (
	"bufio"
	"io"
)

// Source is a forward-only byte cursor. Next returns exactly n bytes or an
// error: io.EOF when no bytes remain, io.ErrUnexpectedEOF when fewer than n
// remain. The returned slice is only valid until the following call.
type Source interface {
	Next(n int) ([]byte, error)
	// Offset is the number of bytes consumed so far.
	Offset() int64
}

type byteSource struct {
	data []byte
	pos  int
}

// NewByteSource reads from an in-memory buffer without copying.
func NewByteSource(data []byte) Source {
	return &byteSource{data: data}
}

func (s *byteSource) Next(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	if s.pos >= len(s.data) {
		return nil, io.EOF
	}
	if s.pos+n > len(s.data) {
		s.pos = len(s.data)
		return nil, io.ErrUnexpectedEOF
	}
	out := s.data[s.pos : s.pos+n]
	s.pos += n
	return out, nil
}

func (s *byteSource) Offset() int64 { return int64(s.pos) }

type readerSource struct {
	r   *bufio.Reader
	buf []byte
	off int64
}

// NewReaderSource adapts a blocking reader such as a transport stream.
func NewReaderSource(r io.Reader) Source {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 64<<10)
	}
	return &readerSource{r: br, buf: make([]byte, 0, 256)}
}

func (s *readerSource) Next(n int) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	if cap(s.buf) < n {
		s.buf = make([]byte, n)
	}
	s.buf = s.buf[:n]
	read, err := io.ReadFull(s.r, s.buf)
	s.off += int64(read)
	if err != nil {
		return nil, err
	}
	return s.buf, nil
}

func (s *readerSource) Offset() int64 { return s.off }
