package roadio

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wkbHex(t *testing.T, ls orb.LineString) string {
	t.Helper()
	raw, err := wkb.Marshal(ls)
	require.NoError(t, err)
	return "0x" + hex.EncodeToString(raw)
}

func rowFields(t *testing.T, geom string) []string {
	t.Helper()
	return []string{
		"42",    // gid
		"100",   // source
		"101",   // target
		"55501", // osm_id
		"1",     // reverse (>= 0: two-way)
		"106",   // class_id
		"2",     // priority
		"70",    // maxspeed_forward
		"60",    // maxspeed_backward
		"8.5",   // width
		"false", // excluded
		geom,
		"true", // valid
		"",     // error
	}
}

func testLine() orb.LineString {
	return orb.LineString{{-83.930, 35.955}, {-83.925, 35.956}}
}

func TestParseRoadFields(t *testing.T) {
	rec, err := ParseRoad(rowFields(t, wkbHex(t, testLine())))
	require.NoError(t, err)

	r := rec.Road
	assert.Equal(t, int64(42), r.Gid)
	assert.Equal(t, int64(55501), r.OSMID)
	assert.EqualValues(t, 100, r.Source)
	assert.EqualValues(t, 101, r.Target)
	assert.Equal(t, 106, r.ClassID)
	assert.Equal(t, 2, r.Priority)
	assert.Equal(t, 70.0, r.MaxSpeedForward)
	assert.Equal(t, 60.0, r.MaxSpeedBackward)
	assert.Equal(t, 8.5, r.Width)
	assert.False(t, r.OneWay)
	assert.True(t, r.Valid)
	require.Len(t, r.Polyline, 2)
	assert.InDelta(t, -83.930, r.Polyline[0].Lon(), 1e-9)
}

func TestParseRoadOneWay(t *testing.T) {
	fields := rowFields(t, wkbHex(t, testLine()))
	fields[fieldReverse] = "-1"
	rec, err := ParseRoad(fields)
	require.NoError(t, err)
	assert.True(t, rec.Road.OneWay)
}

func TestParseRoadExcludedIsInvalid(t *testing.T) {
	fields := rowFields(t, wkbHex(t, testLine()))
	fields[fieldExcluded] = "true"
	rec, err := ParseRoad(fields)
	require.NoError(t, err)
	assert.False(t, rec.Road.Valid)
}

func TestParseRoadRejectsMalformedNumeric(t *testing.T) {
	fields := rowFields(t, wkbHex(t, testLine()))
	fields[fieldPriority] = "high"
	_, err := ParseRoad(fields)
	assert.Error(t, err)
}

func TestParseRoadRejectsBadGeometry(t *testing.T) {
	fields := rowFields(t, "0xzz")
	_, err := ParseRoad(fields)
	assert.Error(t, err)

	// A WKB point is not a line string.
	raw, merr := wkb.Marshal(orb.Point{-83.93, 35.955})
	require.NoError(t, merr)
	fields = rowFields(t, "0x"+hex.EncodeToString(raw))
	_, err = ParseRoad(fields)
	assert.Error(t, err)
}

func TestRecordStringRoundTripsRow(t *testing.T) {
	fields := rowFields(t, wkbHex(t, testLine()))
	row := strings.Join(fields, ",")
	rec, err := ParseRoad(fields)
	require.NoError(t, err)
	assert.Equal(t, row, rec.String())
}

func TestReadRoadsSkipsBadRowsAndCounts(t *testing.T) {
	good := strings.Join(rowFields(t, wkbHex(t, testLine())), ",")
	bad := strings.Join(rowFields(t, "0xzz"), ",")
	input := Header + "\n" + good + "\n" + bad + "\n"

	roads, rejected, err := ReadRoads(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, roads, 1)
	assert.Equal(t, 1, rejected)
}

func TestReadRoadsMalformedHeaderFatal(t *testing.T) {
	_, _, err := ReadRoads(strings.NewReader("id,name\n1,foo\n"))
	assert.Error(t, err)
}
