package proto

import (
	"errors"
	"fmt"
)

// ErrFraming marks errors after which the stream position is unknown. A
// session that returns it must stop; there is no resync point.
var ErrFraming = errors.New("fit framing error")

// DecodeError is a framing error with its location in the stream.
type DecodeError struct {
	Offset int64  // byte offset of the record start
	Record int    // 1-based record index within the session
	Op     string // what was being read
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("fit: %s at record %d (offset %d): %v", e.Op, e.Record, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is makes every DecodeError match ErrFraming.
func (e *DecodeError) Is(target error) bool { return target == ErrFraming }

// Framing builds a DecodeError.
func Framing(op string, record int, offset int64, err error) *DecodeError {
	return &DecodeError{Offset: offset, Record: record, Op: op, Err: err}
}
