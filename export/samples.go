package export

import (
	"math"
	"time"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	fitcodec "github.com/lucasjlepore/fit-codec"
	"github.com/lucasjlepore/fit-codec/messages"
)

// RecordSample is one record message flattened to the common channels.
// Nil pointers mark channels the record did not carry.
type RecordSample struct {
	TSUTC        string   `json:"ts_utc"`
	ElapsedS     float64  `json:"elapsed_s"`
	PowerW       *float64 `json:"power_w,omitempty"`
	HRBPM        *float64 `json:"hr_bpm,omitempty"`
	CadenceRPM   *float64 `json:"cadence_rpm,omitempty"`
	SpeedMPS     *float64 `json:"speed_mps,omitempty"`
	DistanceM    *float64 `json:"distance_m,omitempty"`
	AltitudeM    *float64 `json:"altitude_m,omitempty"`
	TemperatureC *float64 `json:"temperature_c,omitempty"`
	GradePct     *float64 `json:"grade_pct,omitempty"`
	FileOffset   int64    `json:"file_offset"`
	RecordIndex  int      `json:"record_index"`
}

// Samples extracts every record message of f. Elapsed time is measured from
// the first timestamped record.
func Samples(f *fitcodec.File) []RecordSample {
	var (
		out   []RecordSample
		start time.Time
	)
	for _, m := range f.Messages() {
		if m.GlobalMessageNumber() != messages.NumRecord {
			continue
		}
		rec := messages.Record{Message: m}
		s := RecordSample{FileOffset: m.Offset(), RecordIndex: m.Index()}
		if ts, ok := m.Timestamp(); ok {
			if start.IsZero() {
				start = ts
			}
			s.TSUTC = ts.UTC().Format(time.RFC3339)
			s.ElapsedS = ts.Sub(start).Seconds()
		}
		s.PowerW = num[uint16](rec.Power())
		s.HRBPM = num[uint8](rec.HeartRate())
		s.CadenceRPM = num[uint8](rec.Cadence())
		s.SpeedMPS = num[float64](rec.Speed())
		s.DistanceM = num[float64](rec.Distance())
		s.AltitudeM = num[float64](rec.Altitude())
		s.TemperatureC = num[int8](rec.Temperature())
		s.GradePct = num[float64](rec.Grade())
		out = append(out, s)
	}
	return out
}

func num[T uint8 | int8 | uint16 | float64](v T, ok bool) *float64 {
	if !ok {
		return nil
	}
	f := float64(v)
	return &f
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

type recordParquetRow struct {
	TSUTC        string  `parquet:"name=ts_utc, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ElapsedS     float64 `parquet:"name=elapsed_s, type=DOUBLE"`
	PowerW       float64 `parquet:"name=power_w, type=DOUBLE"`
	HRBPM        float64 `parquet:"name=hr_bpm, type=DOUBLE"`
	CadenceRPM   float64 `parquet:"name=cadence_rpm, type=DOUBLE"`
	SpeedMPS     float64 `parquet:"name=speed_mps, type=DOUBLE"`
	DistanceM    float64 `parquet:"name=distance_m, type=DOUBLE"`
	AltitudeM    float64 `parquet:"name=altitude_m, type=DOUBLE"`
	TemperatureC float64 `parquet:"name=temperature_c, type=DOUBLE"`
	GradePct     float64 `parquet:"name=grade_pct, type=DOUBLE"`
	FileOffset   int64   `parquet:"name=file_offset, type=INT64"`
	RecordIndex  int64   `parquet:"name=record_index, type=INT64"`
}

// MarshalParquet renders samples as a snappy-compressed parquet file.
// Missing channels are written as NaN.
func MarshalParquet(samples []RecordSample) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(recordParquetRow), 4)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, s := range samples {
		row := recordParquetRow{
			TSUTC:        s.TSUTC,
			ElapsedS:     s.ElapsedS,
			PowerW:       valueOrNaN(s.PowerW),
			HRBPM:        valueOrNaN(s.HRBPM),
			CadenceRPM:   valueOrNaN(s.CadenceRPM),
			SpeedMPS:     valueOrNaN(s.SpeedMPS),
			DistanceM:    valueOrNaN(s.DistanceM),
			AltitudeM:    valueOrNaN(s.AltitudeM),
			TemperatureC: valueOrNaN(s.TemperatureC),
			GradePct:     valueOrNaN(s.GradePct),
			FileOffset:   s.FileOffset,
			RecordIndex:  int64(s.RecordIndex),
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}
