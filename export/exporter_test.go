package export

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fitcodec "github.com/lucasjlepore/fit-codec"
	"github.com/lucasjlepore/fit-codec/messages"
)

var sampleStart = time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

func buildSampleFIT(t *testing.T) []byte {
	t.Helper()
	fw := fitcodec.NewFileWriter(fitcodec.WithCompressedTimestamps())
	require.NoError(t, fw.Encode(messages.NumFileID, messages.FileIDFields{
		Type:         messages.FileTypeActivity,
		Manufacturer: messages.Ptr[uint16](255),
		SerialNumber: messages.Ptr[uint32](1234),
		TimeCreated:  sampleStart,
	}.FieldMap()))
	// The last record has no power channel.
	for i, power := range []*uint16{messages.Ptr[uint16](200), messages.Ptr[uint16](210), nil} {
		require.NoError(t, fw.Encode(messages.NumRecord, messages.RecordFields{
			Timestamp: sampleStart.Add(time.Duration(i) * time.Second),
			HeartRate: messages.Ptr(120 + uint8(i)),
			Power:     power,
			Altitude:  messages.Ptr(100.0),
		}.FieldMap()))
	}
	require.Empty(t, fw.Warnings())
	return fw.Bytes()
}

func TestEnvelopesPreserveOrder(t *testing.T) {
	f, err := fitcodec.DecodeFile(buildSampleFIT(t))
	require.NoError(t, err)

	envs := Envelopes(f, nil)
	require.Len(t, envs, len(f.Records))

	assert.Equal(t, "definition", envs[0].RecordKind)
	assert.Equal(t, "file_id", envs[0].MessageName)
	require.NotNil(t, envs[0].Definition)
	assert.Equal(t, "little_endian", envs[0].Definition.Architecture)

	var last int64 = -1
	dataSeen := 0
	for i, env := range envs {
		assert.Equal(t, i+1, env.RecordIndex)
		assert.Greater(t, env.FileOffset, last)
		last = env.FileOffset
		raw, err := hex.DecodeString(env.RawRecordHex)
		require.NoError(t, err)
		assert.Equal(t, env.HeaderByte, raw[0])
		if env.RecordKind == "data" {
			dataSeen++
			require.NotNil(t, env.Data)
		}
	}
	assert.Equal(t, 4, dataSeen)

	// The second and third records are within the compression window.
	rec := envs[len(envs)-1]
	require.NotNil(t, rec.Data.CompressedTimestamp)
	assert.True(t, rec.Data.CompressedTimestamp.HadReference)
	require.NotNil(t, rec.Data.Timestamp)
	assert.Equal(t, sampleStart.Add(2*time.Second).Format(time.RFC3339), rec.Data.Timestamp.UTC)
}

func TestEnvelopeFieldValues(t *testing.T) {
	f, err := fitcodec.DecodeFile(buildSampleFIT(t))
	require.NoError(t, err)

	var data *DataRecord
	for _, env := range Envelopes(f, nil) {
		if env.RecordKind == "data" && env.GlobalMessageNum == messages.NumRecord {
			data = env.Data
			break
		}
	}
	require.NotNil(t, data)

	byName := map[string]FieldValue{}
	for _, fv := range data.Fields {
		byName[fv.Name] = fv
	}
	hr := byName["heart_rate"]
	assert.Equal(t, uint64(120), hr.Decoded)
	assert.Equal(t, "uint", hr.DecodedType)
	assert.Equal(t, "bpm", hr.Units)
	assert.Equal(t, "78", hr.RawHex)

	alt := byName["altitude"]
	assert.Equal(t, "float", alt.DecodedType)
	assert.InDelta(t, 100.0, alt.Decoded, 1e-9)
}

func TestExportFileWritesBundle(t *testing.T) {
	data := buildSampleFIT(t)

	tmp := t.TempDir()
	inputPath := filepath.Join(tmp, "sample.fit")
	if err := os.WriteFile(inputPath, data, 0o644); err != nil {
		t.Fatalf("write sample fit: %v", err)
	}

	outDir := filepath.Join(tmp, "export")
	result, err := ExportFile(inputPath, outDir, Options{
		Overwrite:      true,
		CopySourceFile: true,
		Zstd:           true,
		Msgpack:        true,
		Parquet:        true,
	})
	if err != nil {
		t.Fatalf("ExportFile error: %v", err)
	}

	if result.RecordCount == 0 {
		t.Fatal("expected exported records")
	}
	for _, p := range []string{result.ManifestPath, result.RecordsPath, result.MsgpackPath, result.ParquetPath, result.SourceCopyPath} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("bundle file missing: %v", err)
		}
	}
	assert.True(t, strings.HasSuffix(result.RecordsPath, ".jsonl.zst"))
	assert.True(t, result.FileCRCValid)
	assert.True(t, result.HeaderCRCValid)
	assert.Equal(t, 3, result.SampleCount)

	manifest, err := ReadManifest(outDir)
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, manifest.FormatVersion)
	assert.Equal(t, ".FIT", manifest.Header.DataType)
	assert.Equal(t, "jsonl+zstd", manifest.RecordsEncoding)
	assert.True(t, manifest.FileCRC.Valid)
	assert.Equal(t, result.SourceSHA256, manifest.SourceSHA256)
	assert.Empty(t, manifest.DecodeError)
	require.NotNil(t, manifest.FileID)
	assert.Equal(t, uint32(1234), manifest.FileID.SerialNumber)
	assert.Equal(t, []NameCount{
		{GlobalMessageNum: messages.NumFileID, Name: "file_id", Count: 1},
		{GlobalMessageNum: messages.NumRecord, Name: "record", Count: 3},
	}, manifest.MessageCounts)

	zf, err := os.Open(result.RecordsPath)
	require.NoError(t, err)
	defer zf.Close()
	envs, err := ReadJSONL(zf, true)
	require.NoError(t, err)
	assert.Len(t, envs, result.RecordCount)

	mf, err := os.Open(result.MsgpackPath)
	require.NoError(t, err)
	defer mf.Close()
	packed, err := ReadMsgpack(mf)
	require.NoError(t, err)
	require.Len(t, packed, result.RecordCount)
	assert.Equal(t, envs[0].RawRecordHex, packed[0].RawRecordHex)

	pq, err := os.ReadFile(result.ParquetPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pq, []byte("PAR1")))

	src, err := os.ReadFile(result.SourceCopyPath)
	require.NoError(t, err)
	assert.Equal(t, data, src)
}

func TestExportRefusesNonEmptyDir(t *testing.T) {
	tmp := t.TempDir()
	inputPath := filepath.Join(tmp, "sample.fit")
	require.NoError(t, os.WriteFile(inputPath, buildSampleFIT(t), 0o644))

	_, err := ExportFile(inputPath, tmp, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not empty")
}

func TestExportPartialFileRecordsError(t *testing.T) {
	data := buildSampleFIT(t)
	truncated := data[:len(data)-10]

	f, decodeErr := fitcodec.DecodeFile(truncated)
	require.Error(t, decodeErr)
	require.NotNil(t, f)

	outDir := filepath.Join(t.TempDir(), "partial")
	result, err := Write(f, decodeErr, truncated, "partial.fit", outDir, Options{})
	require.NoError(t, err)
	assert.False(t, result.FileCRCValid && f.CRC.Present)

	manifest, err := ReadManifest(outDir)
	require.NoError(t, err)
	assert.NotEmpty(t, manifest.DecodeError)
	assert.Equal(t, "jsonl", manifest.RecordsEncoding)
}

func TestSamples(t *testing.T) {
	f, err := fitcodec.DecodeFile(buildSampleFIT(t))
	require.NoError(t, err)

	samples := Samples(f)
	require.Len(t, samples, 3)

	assert.Equal(t, 0.0, samples[0].ElapsedS)
	assert.Equal(t, 2.0, samples[2].ElapsedS)
	require.NotNil(t, samples[1].PowerW)
	assert.Equal(t, 210.0, *samples[1].PowerW)
	// Zero power is not set by the builder, so the channel is missing.
	assert.Nil(t, samples[2].PowerW)
	require.NotNil(t, samples[2].HRBPM)
	assert.Equal(t, 122.0, *samples[2].HRBPM)
	assert.Nil(t, samples[0].SpeedMPS)
	require.NotNil(t, samples[0].AltitudeM)
	assert.InDelta(t, 100.0, *samples[0].AltitudeM, 1e-9)
}

func TestWriteJSONLPlainRoundTrip(t *testing.T) {
	f, err := fitcodec.DecodeFile(buildSampleFIT(t))
	require.NoError(t, err)
	envs := Envelopes(f, nil)

	var buf bytes.Buffer
	require.NoError(t, WriteJSONL(&buf, envs, false))
	assert.Equal(t, len(envs), bytes.Count(buf.Bytes(), []byte("\n")))

	back, err := ReadJSONL(&buf, false)
	require.NoError(t, err)
	require.Len(t, back, len(envs))
	for i := range envs {
		assert.Equal(t, envs[i].RawRecordHex, back[i].RawRecordHex)
		assert.Equal(t, envs[i].RecordKind, back[i].RecordKind)
	}
}
