// Package roadio reads the road-network CSV: one row per road with
// topology, classification, speeds, width and a WKB-hex polyline in
// WGS-84. Accepted rows become roadgraph.Road values.
package roadio

import (
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/geo"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/roadgraph"
)

// Header is the expected road CSV header.
const Header = "gid,source,target,osm_id,reverse,class_id,priority,maxspeed_forward,maxspeed_backward,width,excluded,geom_wkb_hex,valid,error"

const numFields = 14

// Field positions within a road CSV row.
const (
	fieldGid = iota
	fieldSource
	fieldTarget
	fieldOSMID
	fieldReverse
	fieldClassID
	fieldPriority
	fieldMaxspeedForward
	fieldMaxspeedBackward
	fieldWidth
	fieldExcluded
	fieldGeomWKBHex
	fieldValid
	fieldError
)

// Record pairs a parsed Road with the raw CSV fields it came from, so
// a row can be re-serialised byte-equal to its source.
type Record struct {
	Fields []string
	Road   roadgraph.Road
}

// String re-serialises the record's raw fields as the original CSV row.
func (r Record) String() string {
	return strings.Join(r.Fields, ",")
}

// decodeLine decodes a 0x-prefixed WKB hex line string into a
// polyline.
func decodeLine(s string) (geo.Line, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("road geometry hex: %w", err)
	}
	g, err := wkb.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("road geometry wkb: %w", err)
	}
	ls, ok := g.(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("road geometry: want line string, got %T", g)
	}
	return geo.Line(ls), nil
}

// ParseRoad parses one road CSV row. A row with a malformed numeric
// field or geometry returns an error; a structurally sound row whose
// polyline is degenerate or whose excluded flag is set parses into an
// invalid Road, which NewGraph will reject.
func ParseRoad(fields []string) (Record, error) {
	if len(fields) < fieldValid {
		return Record{}, fmt.Errorf("road row: want at least %d fields, got %d", fieldValid, len(fields))
	}

	gid, err := strconv.ParseInt(fields[fieldGid], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("road gid: %w", err)
	}
	source, err := strconv.ParseInt(fields[fieldSource], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("road source: %w", err)
	}
	target, err := strconv.ParseInt(fields[fieldTarget], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("road target: %w", err)
	}
	osmID, err := strconv.ParseInt(fields[fieldOSMID], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("road osm_id: %w", err)
	}
	reverse, err := strconv.ParseFloat(fields[fieldReverse], 64)
	if err != nil {
		return Record{}, fmt.Errorf("road reverse: %w", err)
	}
	classID, err := strconv.Atoi(fields[fieldClassID])
	if err != nil {
		return Record{}, fmt.Errorf("road class_id: %w", err)
	}
	priority, err := strconv.Atoi(fields[fieldPriority])
	if err != nil {
		return Record{}, fmt.Errorf("road priority: %w", err)
	}
	maxFwd, err := strconv.ParseFloat(fields[fieldMaxspeedForward], 64)
	if err != nil {
		return Record{}, fmt.Errorf("road maxspeed_forward: %w", err)
	}
	maxBwd, err := strconv.ParseFloat(fields[fieldMaxspeedBackward], 64)
	if err != nil {
		return Record{}, fmt.Errorf("road maxspeed_backward: %w", err)
	}
	width, err := strconv.ParseFloat(fields[fieldWidth], 64)
	if err != nil {
		return Record{}, fmt.Errorf("road width: %w", err)
	}
	excluded, err := strconv.ParseBool(strings.ToLower(fields[fieldExcluded]))
	if err != nil {
		return Record{}, fmt.Errorf("road excluded: %w", err)
	}

	line, err := decodeLine(fields[fieldGeomWKBHex])
	if err != nil {
		return Record{}, err
	}

	road := roadgraph.NewRoad(gid, osmID,
		roadgraph.VertexID(source), roadgraph.VertexID(target),
		classID, priority, maxFwd, maxBwd, width,
		reverse < 0, excluded, line)

	return Record{Fields: append([]string(nil), fields...), Road: road}, nil
}

// ReadRoads reads the full road CSV from r: a header line followed by
// one row per road. Rows that fail to parse are skipped and counted;
// a malformed header is fatal.
func ReadRoads(r io.Reader) ([]roadgraph.Road, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("road csv header: %w", err)
	}
	if len(header) < numFields || strings.TrimSpace(header[0]) != "gid" {
		return nil, 0, fmt.Errorf("road csv header: malformed: %q", strings.Join(header, ","))
	}

	var roads []roadgraph.Road
	rejected := 0
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rejected++
			continue
		}
		rec, err := ParseRoad(fields)
		if err != nil {
			rejected++
			continue
		}
		roads = append(roads, rec.Road)
	}
	return roads, rejected, nil
}
