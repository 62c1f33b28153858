package messages_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fitcodec "github.com/lucasjlepore/fit-codec"
	"github.com/lucasjlepore/fit-codec/message"
	"github.com/lucasjlepore/fit-codec/messages"
)

func encodeDecode(t *testing.T, build func(fw *fitcodec.FileWriter)) []message.Shim {
	t.Helper()
	fw := fitcodec.NewFileWriter()
	build(fw)
	require.Empty(t, fw.Warnings())
	f, err := fitcodec.DecodeFile(fw.Bytes(), fitcodec.WithRegistry(messages.Registry()))
	require.NoError(t, err)
	return f.Shims()
}

func TestFileIDShim(t *testing.T) {
	created := time.Date(2024, 3, 9, 7, 30, 0, 0, time.UTC)
	shims := encodeDecode(t, func(fw *fitcodec.FileWriter) {
		require.NoError(t, fw.Encode(messages.NumFileID, messages.FileIDFields{
			Type:         messages.FileTypeMonitoring,
			Manufacturer: messages.Ptr[uint16](1),
			SerialNumber: messages.Ptr[uint32](42),
			TimeCreated:  created,
			ProductName:  "bench unit",
		}.FieldMap()))
	})
	require.Len(t, shims, 1)
	id, ok := shims[0].(messages.FileID)
	require.True(t, ok)

	typ, _ := id.Type()
	assert.Equal(t, messages.FileTypeMonitoring, typ)
	serial, _ := id.SerialNumber()
	assert.Equal(t, uint32(42), serial)
	tc, ok := id.TimeCreated()
	require.True(t, ok)
	assert.True(t, created.Equal(tc))
	name, _ := id.ProductName()
	assert.Equal(t, "bench unit", name)
	_, ok = id.Product()
	assert.False(t, ok)
}

func TestMonitoringTimestamp16(t *testing.T) {
	base := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	shims := encodeDecode(t, func(fw *fitcodec.FileWriter) {
		require.NoError(t, fw.Encode(messages.NumMonitoring, messages.MonitoringFields{
			Timestamp: base,
			Calories:  messages.Ptr[uint16](65530),
		}.FieldMap()))
		later := base.Add(90 * time.Minute)
		ts16 := uint16(uint32(later.Sub(time.Date(1989, 12, 31, 0, 0, 0, 0, time.UTC)).Seconds()) & 0xFFFF)
		require.NoError(t, fw.Encode(messages.NumMonitoring, messages.MonitoringFields{
			Timestamp16: &ts16,
			Calories:    messages.Ptr[uint16](10),
			HeartRate:   messages.Ptr[uint8](61),
		}.FieldMap()))
	})
	require.Len(t, shims, 2)
	second, ok := shims[1].(messages.Monitoring)
	require.True(t, ok)

	_, ok = second.Timestamp()
	assert.False(t, ok)
	at, ok := second.ResolvedTimestamp()
	require.True(t, ok)
	assert.True(t, base.Add(90*time.Minute).Equal(at), at)

	total, ok := second.TotalCalories()
	require.True(t, ok)
	assert.Equal(t, uint64(65546), total)
}

func TestHRVBuilder(t *testing.T) {
	shims := encodeDecode(t, func(fw *fitcodec.FileWriter) {
		require.NoError(t, fw.Encode(messages.NumHRV, messages.HRVFields{Times: []float64{0.812, 0.798, 0.805}}.FieldMap()))
	})
	require.Len(t, shims, 1)
	times, valid, ok := shims[0].(messages.HRV).Times()
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{0.812, 0.798, 0.805}, times, 1e-9)
	assert.Equal(t, []bool{true, true, true}, valid)
}

func TestRecordAndEventShims(t *testing.T) {
	at := time.Date(2024, 3, 9, 6, 0, 0, 0, time.UTC)
	shims := encodeDecode(t, func(fw *fitcodec.FileWriter) {
		require.NoError(t, fw.Encode(messages.NumEvent, messages.EventFields{
			Timestamp: at, Event: messages.EventTimer, EventType: messages.EventTypeStart,
		}.FieldMap()))
		require.NoError(t, fw.Encode(messages.NumRecord, messages.RecordFields{
			Timestamp:    at.Add(time.Second),
			PositionLat:  messages.Ptr[int32](1 << 30),
			PositionLong: messages.Ptr[int32](-(1 << 30)),
			Altitude:     messages.Ptr(123.4),
			Speed:        messages.Ptr(3.25),
			Temperature:  messages.Ptr[int8](-4),
		}.FieldMap()))
	})
	require.Len(t, shims, 2)

	ev := shims[0].(messages.Event)
	et, ok := ev.EventType()
	require.True(t, ok)
	assert.Equal(t, messages.EventTypeStart, et)

	rec := shims[1].(messages.Record)
	lat, long, ok := rec.Position()
	require.True(t, ok)
	assert.InDelta(t, 90.0, lat, 1e-9)
	assert.InDelta(t, -90.0, long, 1e-9)
	alt, _ := rec.Altitude()
	assert.InDelta(t, 123.4, alt, 0.1)
	speed, _ := rec.Speed()
	assert.InDelta(t, 3.25, speed, 1e-9)
	temp, ok := rec.Temperature()
	require.True(t, ok)
	assert.Equal(t, int8(-4), temp)
}

func TestBuildersKeepZeroValues(t *testing.T) {
	at := time.Date(2024, 3, 9, 6, 0, 0, 0, time.UTC)
	shims := encodeDecode(t, func(fw *fitcodec.FileWriter) {
		require.NoError(t, fw.Encode(messages.NumRecord, messages.RecordFields{
			Timestamp:    at,
			PositionLat:  messages.Ptr[int32](0),
			PositionLong: messages.Ptr[int32](0),
			HeartRate:    messages.Ptr[uint8](120),
			Cadence:      messages.Ptr[uint8](0),
			Power:        messages.Ptr[uint16](0),
			Grade:        messages.Ptr(0.0),
			Temperature:  messages.Ptr[int8](0),
		}.FieldMap()))
		require.NoError(t, fw.Encode(messages.NumEvent, messages.EventFields{
			Timestamp:  at,
			Event:      messages.EventTimer,
			EventType:  messages.EventTypeStart,
			Data:       messages.Ptr[uint32](0),
			EventGroup: messages.Ptr[uint8](0),
		}.FieldMap()))
		require.NoError(t, fw.Encode(messages.NumDeviceInfo, messages.DeviceInfoFields{
			Timestamp:   at,
			DeviceIndex: messages.Ptr[uint8](0),
		}.FieldMap()))
	})
	require.Len(t, shims, 3)

	rec := shims[0].(messages.Record)
	lat, long, ok := rec.Position()
	require.True(t, ok, "position on the equator and prime meridian")
	assert.Zero(t, lat)
	assert.Zero(t, long)
	cad, ok := rec.Cadence()
	require.True(t, ok)
	assert.Zero(t, cad)
	pw, ok := rec.Power()
	require.True(t, ok)
	assert.Zero(t, pw)
	grade, ok := rec.Grade()
	require.True(t, ok)
	assert.Zero(t, grade)
	temp, ok := rec.Temperature()
	require.True(t, ok)
	assert.Zero(t, temp)
	_, ok = rec.Altitude()
	assert.False(t, ok, "unset field stays absent")

	ev := shims[1].(messages.Event)
	et, ok := ev.EventType()
	require.True(t, ok)
	assert.Equal(t, messages.EventTypeStart, et)
	data, ok := ev.Data()
	require.True(t, ok)
	assert.Zero(t, data)
	group, ok := ev.EventGroup()
	require.True(t, ok)
	assert.Zero(t, group)

	dev := shims[2].(messages.DeviceInfo)
	idx, ok := dev.DeviceIndex()
	require.True(t, ok)
	assert.Zero(t, idx)
}

func TestDeveloperShims(t *testing.T) {
	desc := messages.FieldDescriptionFields{
		DeveloperDataIndex:    2,
		FieldDefinitionNumber: 0,
		BaseType:              0x88,
		FieldName:             "core_temp",
		Units:                 "C",
	}
	shims := encodeDecode(t, func(fw *fitcodec.FileWriter) {
		require.NoError(t, fw.Encode(messages.NumDeveloperDataID, messages.DeveloperDataIDFields{
			DeveloperDataIndex: 2,
			ApplicationID:      []byte{0xDE, 0xAD, 0xBE, 0xEF},
			ApplicationVersion: messages.Ptr[uint32](7),
		}.FieldMap()))
		require.NoError(t, fw.Encode(messages.NumFieldDescription, desc.FieldMap()))
	})
	require.Len(t, shims, 2)

	app := shims[0].(messages.DeveloperDataID)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, app.ApplicationID())
	v, _ := app.ApplicationVersion()
	assert.Equal(t, uint32(7), v)

	fd := shims[1].(messages.FieldDescription)
	bt, ok := fd.BaseType()
	require.True(t, ok)
	assert.Equal(t, desc.BaseType, bt)
	name, _ := fd.FieldName()
	assert.Equal(t, "core_temp", name)
	assert.Equal(t, "C", desc.DeveloperField().Units)
}
