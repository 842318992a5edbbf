// Package traceio reads and writes vehicle trip files in the BSMP1
// CSV dialect and writes the per-sample map-match auxiliary file. Only
// the fields the pipeline consumes are interpreted; each row's raw
// text is preserved so de-identified output is byte-identical to the
// input for every emitted sample.
package traceio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/geo"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/trace"
)

// BSMP1 columns consumed by the pipeline.
const (
	colDeviceID = 0
	colFileID   = 1
	colGentime  = 3
	colLatitude = 7
	colLongitude = 8
	colSpeed    = 10
	colHeading  = 11
)

// numColumns is the full BSMP1 column count.
const numColumns = 19

// ReadResult is one trip file's parse output: the raw samples in file
// order (invalid ones flagged, not dropped), the trace uid, and the
// header line for round-tripping.
type ReadResult struct {
	UID     string
	Header  string
	Samples []trace.Sample
}

// parseRow interprets one BSMP1 row into a Sample. The returned
// sample carries the raw record text and, when a field fails
// validation, the error kind that flagged it.
func parseRow(record string, fields []string, rawIndex int) trace.Sample {
	s := trace.Sample{
		RawIndex: rawIndex,
		Record:   record,
	}

	if len(fields) != numColumns {
		s.Error = trace.ErrorField
		return s
	}

	s.ID = fields[colDeviceID] + "_" + fields[colFileID]

	gentime, err := strconv.ParseInt(strings.TrimSpace(fields[colGentime]), 10, 64)
	if err != nil {
		s.Error = trace.ErrorField
		return s
	}
	// Gentime is microseconds; the pipeline only uses differences and
	// works at millisecond resolution.
	s.Timestamp = gentime / 1000

	lat, err := strconv.ParseFloat(strings.TrimSpace(fields[colLatitude]), 64)
	if err != nil {
		s.Error = trace.ErrorField
		return s
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(fields[colLongitude]), 64)
	if err != nil {
		s.Error = trace.ErrorField
		return s
	}
	speed, err := strconv.ParseFloat(strings.TrimSpace(fields[colSpeed]), 64)
	if err != nil {
		s.Error = trace.ErrorField
		return s
	}
	heading, err := strconv.ParseFloat(strings.TrimSpace(fields[colHeading]), 64)
	if err != nil {
		s.Error = trace.ErrorField
		return s
	}

	if lat > 80 || lat < -84 || lon >= 180 || lon <= -180 || (lat == 0 && lon == 0) {
		s.Error = trace.ErrorGeo
		return s
	}
	if heading < 0 || heading > 360 {
		s.Error = trace.ErrorHeading
		return s
	}

	s.Point = geo.Point{lon, lat}
	s.Speed = speed
	s.Azimuth = heading
	s.HasAzimuth = true
	s.Valid = true
	return s
}

// ReadTrace reads a BSMP1 trip file: a header line then one row per
// GPS fix. Every row is returned; rows failing validation are flagged
// with their error kind and excluded from the working trace by
// trace.BuildTrace.
func ReadTrace(r io.Reader) (ReadResult, error) {
	var res ReadResult
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return res, fmt.Errorf("trace header: %w", err)
		}
		return res, fmt.Errorf("trace header: empty file")
	}
	res.Header = scanner.Text()

	rawIndex := 0
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		s := parseRow(line, strings.Split(line, ","), rawIndex)
		if res.UID == "" && s.ID != "" {
			res.UID = s.ID
		}
		res.Samples = append(res.Samples, s)
		rawIndex++
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("trace rows: %w", err)
	}
	return res, nil
}

// WriteTrace writes the de-identified trip file: the original header
// then each emitted sample's raw record, byte-identical to the input
// row.
func WriteTrace(w io.Writer, header string, samples []trace.Sample) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, header); err != nil {
		return err
	}
	for i := range samples {
		if _, err := fmt.Fprintln(bw, samples[i].Record); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// MapMatchRow is one line of the auxiliary map-match file.
type MapMatchRow struct {
	Index     int
	OSMID     int64
	Explicit  bool
	OutDegree int
}

// WriteMapMatch writes the per-sample map-match file: index, osm way
// id (-1 for implicit fits), explicit flag, cumulative out-degree.
func WriteMapMatch(w io.Writer, rows []MapMatchRow) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, "index,osm_id,explicit,out_degree"); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(bw, "%d,%d,%t,%d\n", row.Index, row.OSMID, row.Explicit, row.OutDegree); err != nil {
			return err
		}
	}
	return bw.Flush()
}
