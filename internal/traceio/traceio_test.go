package traceio

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/trace"
)

const bsmpHeader = "RxDevice,FileId,TxDevice,Gentime,TxRandom,MsgCount,DSecond,Latitude,Longitude,Elevation,Speed,Heading,Ax,Ay,Az,Yawrate,PathCount,RadiusOfCurve,Confidence"

// bsmpRow builds a 19-column BSMP1 row with the consumed fields set.
func bsmpRow(device, file string, gentimeMicros int64, lat, lon, speed, heading float64) string {
	fields := make([]string, 19)
	for i := range fields {
		fields[i] = "0"
	}
	fields[0] = device
	fields[1] = file
	fields[3] = fmt.Sprintf("%d", gentimeMicros)
	fields[7] = fmt.Sprintf("%.7f", lat)
	fields[8] = fmt.Sprintf("%.7f", lon)
	fields[10] = fmt.Sprintf("%.2f", speed)
	fields[11] = fmt.Sprintf("%.1f", heading)
	return strings.Join(fields, ",")
}

func TestReadTraceParsesConsumedFields(t *testing.T) {
	row := bsmpRow("2035", "10", 1234567890, 35.955, -83.930, 12.5, 90)
	res, err := ReadTrace(strings.NewReader(bsmpHeader + "\n" + row + "\n"))
	require.NoError(t, err)

	assert.Equal(t, "2035_10", res.UID)
	assert.Equal(t, bsmpHeader, res.Header)
	require.Len(t, res.Samples, 1)

	s := res.Samples[0]
	assert.True(t, s.Valid)
	assert.Equal(t, trace.ErrorNone, s.Error)
	assert.Equal(t, int64(1234567), s.Timestamp) // microseconds to ms
	assert.InDelta(t, 35.955, s.Lat(), 1e-9)
	assert.InDelta(t, -83.930, s.Lon(), 1e-9)
	assert.Equal(t, 12.5, s.Speed)
	assert.Equal(t, 90.0, s.Azimuth)
	assert.True(t, s.HasAzimuth)
	assert.Equal(t, row, s.Record)
}

func TestReadTraceFlagsInvalidRows(t *testing.T) {
	rows := []struct {
		row  string
		kind trace.ErrorKind
	}{
		{"1,2,3", trace.ErrorField},
		{bsmpRow("1", "1", 1000000, 85, -83.9, 1, 90), trace.ErrorGeo},
		{bsmpRow("1", "1", 1000000, -85, -83.9, 1, 90), trace.ErrorGeo},
		{bsmpRow("1", "1", 1000000, 35.9, 180, 1, 90), trace.ErrorGeo},
		{bsmpRow("1", "1", 1000000, 0, 0, 1, 90), trace.ErrorGeo},
		{bsmpRow("1", "1", 1000000, 35.9, -83.9, 1, 361), trace.ErrorHeading},
		{bsmpRow("1", "1", 1000000, 35.9, -83.9, 1, -1), trace.ErrorHeading},
	}

	var b strings.Builder
	b.WriteString(bsmpHeader + "\n")
	for _, r := range rows {
		b.WriteString(r.row + "\n")
	}

	res, err := ReadTrace(strings.NewReader(b.String()))
	require.NoError(t, err)
	require.Len(t, res.Samples, len(rows))
	for i, r := range rows {
		assert.Equal(t, r.kind, res.Samples[i].Error, "row %d", i)
		assert.False(t, res.Samples[i].Valid, "row %d", i)
	}
}

func TestReadTraceUnparseableNumberIsFieldError(t *testing.T) {
	row := bsmpRow("1", "1", 1000000, 35.9, -83.9, 1, 90)
	row = strings.Replace(row, "35.9", "n/a", 1)
	res, err := ReadTrace(strings.NewReader(bsmpHeader + "\n" + row + "\n"))
	require.NoError(t, err)
	require.Len(t, res.Samples, 1)
	assert.Equal(t, trace.ErrorField, res.Samples[0].Error)
}

func TestReadTraceRawIndexOrdering(t *testing.T) {
	var b strings.Builder
	b.WriteString(bsmpHeader + "\n")
	for i := 0; i < 5; i++ {
		b.WriteString(bsmpRow("1", "1", int64(i+1)*1000000, 35.9, -83.9, 1, 90) + "\n")
	}
	res, err := ReadTrace(strings.NewReader(b.String()))
	require.NoError(t, err)
	for i, s := range res.Samples {
		assert.Equal(t, i, s.RawIndex)
	}
}

func TestReadTraceEmptyFileErrors(t *testing.T) {
	_, err := ReadTrace(strings.NewReader(""))
	assert.Error(t, err)
}

func TestWriteTracePreservesRecordBytes(t *testing.T) {
	row1 := bsmpRow("9", "3", 1000000, 35.955, -83.93, 1, 90)
	row2 := bsmpRow("9", "3", 2000000, 35.956, -83.93, 1, 90)
	res, err := ReadTrace(strings.NewReader(bsmpHeader + "\n" + row1 + "\n" + row2 + "\n"))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, WriteTrace(&out, res.Header, res.Samples))

	want := bsmpHeader + "\n" + row1 + "\n" + row2 + "\n"
	assert.Equal(t, want, out.String())
}

func TestWriteMapMatchFormat(t *testing.T) {
	var out bytes.Buffer
	rows := []MapMatchRow{
		{Index: 0, OSMID: 555, Explicit: true, OutDegree: 0},
		{Index: 1, OSMID: -1, Explicit: false, OutDegree: 2},
	}
	require.NoError(t, WriteMapMatch(&out, rows))

	want := "index,osm_id,explicit,out_degree\n0,555,true,0\n1,-1,false,2\n"
	assert.Equal(t, want, out.String())
}
