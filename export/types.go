package export

import "time"

const (
	// FormatVersion identifies the on-disk schema of export bundles.
	FormatVersion = "fitcodec_jsonl_v1"
)

// Options controls export behavior.
type Options struct {
	// Overwrite allows writing into a non-empty output directory.
	Overwrite bool

	// CopySourceFile writes a byte-for-byte copy of the source FIT file to the output directory.
	CopySourceFile bool

	// Zstd compresses records.jsonl into records.jsonl.zst.
	Zstd bool

	// Msgpack additionally writes records.msgpack.
	Msgpack bool

	// Parquet additionally writes record_samples.parquet when the file has
	// record messages.
	Parquet bool
}

// Result describes generated files.
type Result struct {
	OutputDir        string `json:"output_dir"`
	ManifestPath     string `json:"manifest_path"`
	RecordsPath      string `json:"records_path"`
	IndexPath        string `json:"index_path"`
	MsgpackPath      string `json:"msgpack_path,omitempty"`
	ParquetPath      string `json:"parquet_path,omitempty"`
	SourceCopyPath   string `json:"source_copy_path,omitempty"`
	RecordCount      int    `json:"record_count"`
	DefinitionCount  int    `json:"definition_count"`
	DataMessageCount int    `json:"data_message_count"`
	SampleCount      int    `json:"sample_count"`
	SourceSHA256     string `json:"source_sha256"`
	SourceSizeBytes  int64  `json:"source_size_bytes"`
	FileCRCValid     bool   `json:"file_crc_valid"`
	HeaderCRCValid   bool   `json:"header_crc_valid"`
	LeftoverBytes    int    `json:"leftover_bytes"`
}

// Manifest captures export metadata and pointers to exported files.
type Manifest struct {
	FormatVersion    string      `json:"format_version"`
	GeneratedAt      time.Time   `json:"generated_at"`
	SourceFile       string      `json:"source_file"`
	SourceFileName   string      `json:"source_file_name"`
	SourceSHA256     string      `json:"source_sha256"`
	SourceSizeBytes  int64       `json:"source_size_bytes"`
	Header           HeaderInfo  `json:"header"`
	HeaderCRC        CRCInfo     `json:"header_crc"`
	FileCRC          CRCInfo     `json:"file_crc"`
	RecordsPath      string      `json:"records_path"`
	RecordsEncoding  string      `json:"records_encoding"`
	IndexPath        string      `json:"index_path"`
	MsgpackPath      string      `json:"msgpack_path,omitempty"`
	ParquetPath      string      `json:"parquet_path,omitempty"`
	RecordCount      int         `json:"record_count"`
	DefinitionCount  int         `json:"definition_count"`
	DataMessageCount int         `json:"data_message_count"`
	MessageCounts    []NameCount `json:"message_counts"`
	LeftoverBytes    int         `json:"leftover_bytes"`
	DecodeError      string      `json:"decode_error,omitempty"`
	FileID           *FileIDInfo `json:"file_id,omitempty"`
}

// NameCount is the number of data messages of one global message number.
type NameCount struct {
	GlobalMessageNum uint16 `json:"global_message_num"`
	Name             string `json:"name"`
	Count            int    `json:"count"`
}

// HeaderInfo stores parsed FIT header values.
type HeaderInfo struct {
	Size            uint8  `json:"size"`
	ProtocolVersion uint8  `json:"protocol_version"`
	ProfileVersion  uint16 `json:"profile_version"`
	DataSize        uint32 `json:"data_size"`
	DataType        string `json:"data_type"`
}

// CRCInfo describes one CRC validation result.
type CRCInfo struct {
	Present     bool   `json:"present"`
	StoredHex   string `json:"stored_hex,omitempty"`
	ComputedHex string `json:"computed_hex,omitempty"`
	Valid       bool   `json:"valid"`
}

// FileIDInfo is a convenience projection from the file_id message.
type FileIDInfo struct {
	Type         uint8  `json:"type"`
	Manufacturer uint16 `json:"manufacturer,omitempty"`
	Product      uint16 `json:"product,omitempty"`
	SerialNumber uint32 `json:"serial_number,omitempty"`
	TimeCreated  string `json:"time_created,omitempty"`
	ProductName  string `json:"product_name,omitempty"`
}

// RecordEnvelope is one line of records.jsonl. The stream preserves the
// original FIT record order.
type RecordEnvelope struct {
	FormatVersion    string            `json:"format_version"`
	RecordIndex      int               `json:"record_index"`
	FileOffset       int64             `json:"file_offset"`
	HeaderByte       uint8             `json:"header_byte"`
	RecordKind       string            `json:"record_kind"` // "definition" or "data"
	LocalMessageType uint8             `json:"local_message_type"`
	GlobalMessageNum uint16            `json:"global_message_num"`
	MessageName      string            `json:"message_name,omitempty"`
	Definition       *DefinitionRecord `json:"definition,omitempty"`
	Data             *DataRecord       `json:"data,omitempty"`
	RawRecordHex     string            `json:"raw_record_hex"`
}

// DefinitionRecord captures a FIT definition message.
type DefinitionRecord struct {
	Architecture        string                     `json:"architecture"`
	Redefined           bool                       `json:"redefined,omitempty"`
	FieldDefinitions    []FieldDefinition          `json:"field_definitions"`
	DeveloperDefinition []DeveloperFieldDefinition `json:"developer_field_definitions,omitempty"`
}

// FieldDefinition captures a standard field definition.
type FieldDefinition struct {
	FieldNumber uint8        `json:"field_number"`
	Size        uint8        `json:"size"`
	BaseTypeRaw uint8        `json:"base_type_raw"`
	BaseType    BaseTypeInfo `json:"base_type"`
}

// DeveloperFieldDefinition captures a developer-data field definition.
type DeveloperFieldDefinition struct {
	FieldNumber      uint8 `json:"field_number"`
	Size             uint8 `json:"size"`
	DeveloperDataIdx uint8 `json:"developer_data_index"`
}

// BaseTypeInfo describes canonical FIT base type information.
type BaseTypeInfo struct {
	CanonicalByte uint8  `json:"canonical_byte"`
	Name          string `json:"name"`
	SizeBytes     int    `json:"size_bytes"`
	Known         bool   `json:"known"`
}

// DataRecord captures a FIT data message.
type DataRecord struct {
	CompressedTimestamp *CompressedTimestampInfo `json:"compressed_timestamp,omitempty"`
	Timestamp           *TimeProjection          `json:"timestamp,omitempty"`
	Fields              []FieldValue             `json:"fields"`
	DeveloperFields     []DeveloperFieldValue    `json:"developer_fields,omitempty"`
}

// CompressedTimestampInfo includes reconstructed timestamp state for compressed headers.
type CompressedTimestampInfo struct {
	Offset5bit   uint8 `json:"offset_5bit"`
	HadReference bool  `json:"had_reference"`
}

// TimeProjection pairs a raw FIT timestamp with its UTC rendering.
type TimeProjection struct {
	Raw uint32 `json:"raw"`
	UTC string `json:"utc"`
}

// FieldValue is a decoded field from a standard message field definition.
type FieldValue struct {
	FieldNumber uint8   `json:"field_number"`
	Name        string  `json:"name,omitempty"`
	Units       string  `json:"units,omitempty"`
	Size        uint8   `json:"size"`
	BaseType    string  `json:"base_type"`
	RawHex      string  `json:"raw_hex"`
	Decoded     any     `json:"decoded"`
	DecodedType string  `json:"decoded_type"`
	Invalid     bool    `json:"invalid"`
	Accumulated *uint64 `json:"accumulated,omitempty"`
}

// DeveloperFieldValue is a developer-data field, decoded when described.
type DeveloperFieldValue struct {
	FieldNumber      uint8  `json:"field_number"`
	DeveloperDataIdx uint8  `json:"developer_data_index"`
	Key              string `json:"key"`
	Units            string `json:"units,omitempty"`
	Size             uint8  `json:"size"`
	RawHex           string `json:"raw_hex"`
	Resolved         bool   `json:"resolved"`
	Decoded          any    `json:"decoded"`
}
