package roadgraph

import "github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/geo"

// EdgeID identifies a directed Edge, either a real Edge owned by a
// Graph (non-negative, its arena slot: 2*road_id for the forward
// direction, 2*road_id+1 for the backward) or an implicit edge owned
// by a single trace (negative, assigned by the area fitter).
type EdgeID int32

// NoEdge is the sentinel meaning "no edge" for optional EdgeID fields
// (Successor, Neighbor). It is distinct from every valid real or
// implicit edge id.
const NoEdge EdgeID = -1 << 31

// ImplicitType is the Edge.Type value used for synthetic implicit
// edges, which have no backing Road.
const ImplicitType = -1

// Edge is a directed traversal of a Road (or, for implicit edges, a
// synthetic two-point segment with no backing Road). Real edges are
// immutable and shared across a batch run; implicit edges are owned
// and mutated by a single trace's area fitter, then frozen.
type Edge struct {
	ID     EdgeID
	RoadID RoadID // negative for implicit edges

	Source, Target VertexID

	Type     int
	Priority int
	MaxSpeed float64 // km/h
	Width    float64 // meters, inherited from the Road

	Polyline geo.Line // in the direction of travel
	Length   float64  // meters, cached geodesic polyline length

	Successor EdgeID // first outgoing edge at Target, or NoEdge
	Neighbor  EdgeID // next edge sharing Source in a circular list, or NoEdge
}

// IsImplicit reports whether e is a synthetic implicit edge rather
// than a real graph edge backed by a Road.
func (e *Edge) IsImplicit() bool {
	return e.Type == ImplicitType
}

// ForwardEdgeID returns the edge id of the forward direction of road r.
func ForwardEdgeID(r RoadID) EdgeID { return EdgeID(2 * int32(r)) }

// BackwardEdgeID returns the edge id of the backward direction of road r.
func BackwardEdgeID(r RoadID) EdgeID { return EdgeID(2*int32(r) + 1) }

func reverseLine(line geo.Line) geo.Line {
	out := make(geo.Line, len(line))
	for i, p := range line {
		out[len(line)-1-i] = p
	}
	return out
}

// forwardEdge builds the forward-direction Edge for an accepted Road.
func forwardEdge(r Road) Edge {
	return Edge{
		ID:        ForwardEdgeID(r.ID),
		RoadID:    r.ID,
		Source:    r.Source,
		Target:    r.Target,
		Type:      r.ClassID,
		Priority:  r.Priority,
		MaxSpeed:  r.MaxSpeedForward,
		Width:     r.Width,
		Polyline:  r.Polyline,
		Length:    geo.LineLength(r.Polyline),
		Successor: NoEdge,
		Neighbor:  NoEdge,
	}
}

// backwardEdge builds the backward-direction Edge for an accepted
// two-way Road: source/target swapped and the polyline reversed so it
// runs in the direction of travel.
func backwardEdge(r Road) Edge {
	line := reverseLine(r.Polyline)
	return Edge{
		ID:        BackwardEdgeID(r.ID),
		RoadID:    r.ID,
		Source:    r.Target,
		Target:    r.Source,
		Type:      r.ClassID,
		Priority:  r.Priority,
		MaxSpeed:  r.MaxSpeedBackward,
		Width:     r.Width,
		Polyline:  line,
		Length:    geo.LineLength(line),
		Successor: NoEdge,
		Neighbor:  NoEdge,
	}
}
