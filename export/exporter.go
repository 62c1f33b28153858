// Package export writes decoded FIT files as a lossless bundle: a manifest,
// one JSON envelope per record, and optional msgpack and parquet renderings.
package export

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	fitcodec "github.com/lucasjlepore/fit-codec"
	"github.com/lucasjlepore/fit-codec/profile"
)

// ExportFile decodes a FIT file and writes its export bundle.
// Output files:
//   - manifest.json
//   - records.jsonl (or records.jsonl.zst)
//   - messages_index.json
//   - records.msgpack (optional)
//   - record_samples.parquet (optional)
//   - source.fit (optional)
func ExportFile(inputPath, outputDir string, opts Options, decodeOpts ...fitcodec.Option) (*Result, error) {
	if strings.TrimSpace(inputPath) == "" {
		return nil, fmt.Errorf("input path is required")
	}
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, fmt.Errorf("read fit file: %w", err)
	}
	f, decodeErr := fitcodec.DecodeFile(data, decodeOpts...)
	if f == nil {
		return nil, fmt.Errorf("decode fit file: %w", decodeErr)
	}
	return Write(f, decodeErr, data, inputPath, outputDir, opts)
}

// Write writes the bundle for an already decoded file. decodeErr is the
// error DecodeFile returned alongside f, if any; a partial file is exported
// and the error recorded in the manifest.
func Write(f *fitcodec.File, decodeErr error, source []byte, sourcePath, outputDir string, opts Options) (*Result, error) {
	if strings.TrimSpace(outputDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := ensureOutputDir(outputDir, opts.Overwrite); err != nil {
		return nil, err
	}

	p := profile.Default()
	sum := sha256.Sum256(source)
	sha := hex.EncodeToString(sum[:])
	records := Envelopes(f, p)
	dataCount := len(f.Messages())

	recordsPath := filepath.Join(outputDir, "records.jsonl")
	encoding := "jsonl"
	if opts.Zstd {
		recordsPath += ".zst"
		encoding = "jsonl+zstd"
	}
	if err := writeFile(recordsPath, func(w io.Writer) error {
		return WriteJSONL(w, records, opts.Zstd)
	}); err != nil {
		return nil, fmt.Errorf("write %s: %w", filepath.Base(recordsPath), err)
	}

	result := &Result{
		OutputDir:        outputDir,
		RecordsPath:      recordsPath,
		RecordCount:      len(records),
		DefinitionCount:  f.DefinitionCount(),
		DataMessageCount: dataCount,
		SourceSHA256:     sha,
		SourceSizeBytes:  int64(len(source)),
		FileCRCValid:     f.CRC.Valid(),
		HeaderCRCValid:   f.HeaderCRC.Valid(),
		LeftoverBytes:    f.Leftover,
	}

	result.IndexPath = filepath.Join(outputDir, "messages_index.json")
	if err := writeJSON(result.IndexPath, BuildMessageIndex(f, p)); err != nil {
		return nil, fmt.Errorf("write messages_index.json: %w", err)
	}

	if opts.Msgpack {
		result.MsgpackPath = filepath.Join(outputDir, "records.msgpack")
		if err := writeFile(result.MsgpackPath, func(w io.Writer) error {
			return WriteMsgpack(w, records)
		}); err != nil {
			return nil, fmt.Errorf("write records.msgpack: %w", err)
		}
	}

	if opts.Parquet {
		samples := Samples(f)
		result.SampleCount = len(samples)
		if len(samples) > 0 {
			pq, err := MarshalParquet(samples)
			if err != nil {
				return nil, fmt.Errorf("marshal parquet: %w", err)
			}
			result.ParquetPath = filepath.Join(outputDir, "record_samples.parquet")
			if err := os.WriteFile(result.ParquetPath, pq, 0o644); err != nil {
				return nil, fmt.Errorf("write record_samples.parquet: %w", err)
			}
		}
	}

	manifest := Manifest{
		FormatVersion:   FormatVersion,
		GeneratedAt:     time.Now().UTC(),
		SourceFile:      sourcePath,
		SourceFileName:  filepath.Base(sourcePath),
		SourceSHA256:    sha,
		SourceSizeBytes: int64(len(source)),
		Header: HeaderInfo{
			Size:            f.Header.Size,
			ProtocolVersion: f.Header.ProtocolVersion,
			ProfileVersion:  f.Header.ProfileVersion,
			DataSize:        f.Header.DataSize,
			DataType:        f.Header.DataType,
		},
		HeaderCRC:        crcInfo(f.HeaderCRC),
		FileCRC:          crcInfo(f.CRC),
		RecordsPath:      filepath.Base(recordsPath),
		RecordsEncoding:  encoding,
		IndexPath:        filepath.Base(result.IndexPath),
		RecordCount:      len(records),
		DefinitionCount:  result.DefinitionCount,
		DataMessageCount: dataCount,
		MessageCounts:    messageCounts(f, p),
		LeftoverBytes:    f.Leftover,
		FileID:           fileIDInfo(f),
	}
	if result.MsgpackPath != "" {
		manifest.MsgpackPath = filepath.Base(result.MsgpackPath)
	}
	if result.ParquetPath != "" {
		manifest.ParquetPath = filepath.Base(result.ParquetPath)
	}
	if decodeErr != nil {
		manifest.DecodeError = decodeErr.Error()
	}

	result.ManifestPath = filepath.Join(outputDir, "manifest.json")
	if err := writeJSON(result.ManifestPath, manifest); err != nil {
		return nil, fmt.Errorf("write manifest.json: %w", err)
	}

	if opts.CopySourceFile {
		result.SourceCopyPath = filepath.Join(outputDir, "source.fit")
		if err := os.WriteFile(result.SourceCopyPath, source, 0o644); err != nil {
			return nil, fmt.Errorf("copy source fit file: %w", err)
		}
	}
	return result, nil
}

// ReadManifest loads manifest.json from an export directory.
func ReadManifest(outputDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(outputDir, "manifest.json"))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

func ensureOutputDir(path string, overwrite bool) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	if len(entries) > 0 && !overwrite {
		return fmt.Errorf("output directory is not empty: %s (set overwrite=true to allow)", path)
	}
	return nil
}

func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func writeFile(path string, fn func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return fn(f)
}
