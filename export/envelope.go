package export

import (
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	fitcodec "github.com/lucasjlepore/fit-codec"
	"github.com/lucasjlepore/fit-codec/message"
	"github.com/lucasjlepore/fit-codec/messages"
	"github.com/lucasjlepore/fit-codec/profile"
	"github.com/lucasjlepore/fit-codec/proto"
	"github.com/lucasjlepore/fit-codec/timestamp"
)

// Envelopes renders every record of f, definitions included, in file order.
// Message names come from p; nil means the default profile.
func Envelopes(f *fitcodec.File, p *profile.Profile) []RecordEnvelope {
	if p == nil {
		p = profile.Default()
	}
	out := make([]RecordEnvelope, 0, len(f.Records))
	for _, r := range f.Records {
		out = append(out, envelope(r, p))
	}
	return out
}

func envelope(r *fitcodec.Record, p *profile.Profile) RecordEnvelope {
	fr := r.Frame
	def := fr.Definition
	env := RecordEnvelope{
		FormatVersion:    FormatVersion,
		RecordIndex:      fr.Index,
		FileOffset:       fr.Offset,
		HeaderByte:       fr.Header.Byte(),
		LocalMessageType: fr.Header.LocalType,
		GlobalMessageNum: def.Global,
		MessageName:      p.MessageName(def.Global),
	}
	if r.IsDefinition() {
		env.RecordKind = "definition"
		env.Definition = definitionRecord(fr)
		// Re-rendered from the parsed definition; identical for canonical input.
		raw, err := def.AppendBinary(nil)
		if err == nil {
			env.RawRecordHex = hex.EncodeToString(raw)
		}
		return env
	}

	env.RecordKind = "data"
	env.RawRecordHex = hex.EncodeToString(append([]byte{fr.Header.Byte()}, fr.Body...))
	env.Data = dataRecord(r.Message, fr.Header)
	return env
}

func definitionRecord(fr *proto.Record) *DefinitionRecord {
	def := fr.Definition
	out := &DefinitionRecord{
		Architecture:     "little_endian",
		Redefined:        fr.Redefined,
		FieldDefinitions: make([]FieldDefinition, 0, len(def.Fields)),
	}
	if def.BigEndian {
		out.Architecture = "big_endian"
	}
	for _, f := range def.Fields {
		out.FieldDefinitions = append(out.FieldDefinitions, FieldDefinition{
			FieldNumber: f.Num,
			Size:        f.Size,
			BaseTypeRaw: f.RawType,
			BaseType: BaseTypeInfo{
				CanonicalByte: uint8(f.BaseType),
				Name:          f.BaseType.String(),
				SizeBytes:     f.BaseType.Size(),
				Known:         !f.Unknown,
			},
		})
	}
	for _, f := range def.DevFields {
		out.DeveloperDefinition = append(out.DeveloperDefinition, DeveloperFieldDefinition{
			FieldNumber:      f.Num,
			Size:             f.Size,
			DeveloperDataIdx: f.DevIndex,
		})
	}
	return out
}

func dataRecord(m *message.Message, h proto.Header) *DataRecord {
	out := &DataRecord{Fields: make([]FieldValue, 0, len(m.Fields()))}
	if ts, ok := m.TimestampRaw(); ok {
		out.Timestamp = projectTime(ts)
	}
	if h.Compressed {
		_, hadRef := m.Reference()
		out.CompressedTimestamp = &CompressedTimestampInfo{Offset5bit: h.TimeOffset, HadReference: hadRef}
	}

	for _, f := range m.Fields() {
		fv := FieldValue{
			FieldNumber: f.Num(),
			Name:        f.Name,
			Units:       f.Units,
			Size:        f.Def.Size,
			BaseType:    f.Def.BaseType.String(),
			RawHex:      hex.EncodeToString(f.Raw),
			Decoded:     f.Value.Interface(),
			DecodedType: f.Value.Kind().String(),
			Invalid:     f.Value.IsAbsent(),
		}
		if acc, ok := m.Accumulated(f.Num()); ok {
			fv.Accumulated = &acc
		}
		out.Fields = append(out.Fields, fv)
	}
	for _, f := range m.DevFields() {
		out.DeveloperFields = append(out.DeveloperFields, DeveloperFieldValue{
			FieldNumber:      f.Def.Num,
			DeveloperDataIdx: f.Def.DevIndex,
			Key:              f.Key,
			Units:            f.Units,
			Size:             f.Def.Size,
			RawHex:           hex.EncodeToString(f.Raw),
			Resolved:         f.Resolved,
			Decoded:          f.Value.Interface(),
		})
	}
	return out
}

func projectTime(ts uint32) *TimeProjection {
	return &TimeProjection{Raw: ts, UTC: timestamp.ToTime(ts).UTC().Format(time.RFC3339)}
}

func messageCounts(f *fitcodec.File, p *profile.Profile) []NameCount {
	counts := map[uint16]int{}
	for _, m := range f.Messages() {
		counts[m.GlobalMessageNumber()]++
	}
	out := make([]NameCount, 0, len(counts))
	for g, n := range counts {
		out = append(out, NameCount{GlobalMessageNum: g, Name: p.MessageName(g), Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GlobalMessageNum < out[j].GlobalMessageNum })
	return out
}

func crcInfo(c fitcodec.CRCCheck) CRCInfo {
	info := CRCInfo{Present: c.Present, Valid: c.Valid()}
	if c.Present {
		info.StoredHex = fmt.Sprintf("0x%04X", c.Stored)
		info.ComputedHex = fmt.Sprintf("0x%04X", c.Computed)
	}
	return info
}

func fileIDInfo(f *fitcodec.File) *FileIDInfo {
	for _, m := range f.Messages() {
		if m.GlobalMessageNumber() != messages.NumFileID {
			continue
		}
		id := messages.FileID{Message: m}
		info := &FileIDInfo{}
		info.Type, _ = id.Type()
		info.Manufacturer, _ = id.Manufacturer()
		info.Product, _ = id.Product()
		info.SerialNumber, _ = id.SerialNumber()
		info.ProductName, _ = id.ProductName()
		if tc, ok := id.TimeCreated(); ok {
			info.TimeCreated = tc.UTC().Format(time.RFC3339)
		}
		return info
	}
	return nil
}
