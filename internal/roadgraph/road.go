// Package roadgraph implements the directed road graph and its spatial
// index: Road/Edge construction from two-way roads, successor/neighbor
// adjacency, and nearest/radius/minset candidate queries used by the
// map matcher.
package roadgraph

import (
	"github.com/paulmach/orb"

	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/geo"
)

// VertexID identifies a graph vertex (an OSM node id in practice).
type VertexID int64

// RoadID identifies an accepted Road by its arena position in a Graph.
type RoadID int32

// Road is a real-world roadway segment: the undirected record read
// from the road CSV, before it is split into one or two directed
// Edges. Gid is the source record's id; ID is the road's arena
// position, assigned by NewGraph when the road is accepted.
type Road struct {
	ID    RoadID
	Gid   int64
	OSMID int64

	Source, Target VertexID

	ClassID  int
	Priority int

	MaxSpeedForward  float64 // km/h
	MaxSpeedBackward float64 // km/h

	Width float64 // meters

	OneWay   bool
	Excluded bool

	Polyline geo.Line
	Valid    bool
	Bound    orb.Bound
}

// NewRoad constructs a Road from its parsed fields and derives the
// bounding rectangle from the polyline. A Road with fewer than two
// polyline points, or with Excluded set, is constructed but marked
// invalid (Valid=false); NewGraph rejects invalid roads.
func NewRoad(gid, osmID int64, source, target VertexID, classID, priority int,
	maxFwd, maxBwd, width float64, oneWay, excluded bool, polyline geo.Line) Road {

	r := Road{
		ID:               -1,
		Gid:              gid,
		OSMID:            osmID,
		Source:           source,
		Target:           target,
		ClassID:          classID,
		Priority:         priority,
		MaxSpeedForward:  maxFwd,
		MaxSpeedBackward: maxBwd,
		Width:            width,
		OneWay:           oneWay,
		Excluded:         excluded,
		Polyline:         polyline,
	}

	if excluded || len(polyline) < 2 {
		r.Valid = false
		return r
	}

	r.Bound = polyline.Bound()
	r.Valid = true
	return r
}
