// Package proto implements FIT record framing: record headers, definition
// records, the per-session local message type table and the byte sources
// records are read from.
package proto

const (
	compressedHeaderMask       = 0x80
	compressedLocalMesgNumMask = 0x60
	compressedTimeMask         = 0x1F
	mesgDefinitionMask         = 0x40
	devDataMask                = 0x20
	localMesgNumMask           = 0x0F

	// MaxCompressedLocalType is the highest local type a compressed
	// timestamp header can address.
	MaxCompressedLocalType = 3
	// MaxLocalType is the highest local type a normal header can address.
	MaxLocalType = localMesgNumMask
)

// Header is the decoded leading byte of a record.
type Header struct {
	Definition bool
	DevData    bool
	Compressed bool
	LocalType  uint8
	TimeOffset uint8
}

// ParseHeader decodes a record header byte. Every byte is a structurally
// valid header; whether its local type has a schema is checked by the caller.
func ParseHeader(b byte) Header {
	if b&compressedHeaderMask != 0 {
		return Header{
			Compressed: true,
			LocalType:  (b & compressedLocalMesgNumMask) >> 5,
			TimeOffset: b & compressedTimeMask,
		}
	}
	h := Header{
		Definition: b&mesgDefinitionMask != 0,
		LocalType:  b & localMesgNumMask,
	}
	if h.Definition {
		h.DevData = b&devDataMask != 0
	}
	return h
}

// Byte encodes h. Local types and offsets wider than their bit fields are
// truncated.
func (h Header) Byte() byte {
	if h.Compressed {
		return compressedHeaderMask |
			(h.LocalType&MaxCompressedLocalType)<<5 |
			h.TimeOffset&compressedTimeMask
	}
	b := h.LocalType & localMesgNumMask
	if h.Definition {
		b |= mesgDefinitionMask
		if h.DevData {
			b |= devDataMask
		}
	}
	return b
}

// Kind names the record kind for logs and exports.
func (h Header) Kind() string {
	if h.Definition {
		return "definition"
	}
	return "data"
}
