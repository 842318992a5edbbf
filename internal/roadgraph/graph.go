package roadgraph

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"

	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/geo"
)

// Graph is the arena of Roads and Edges built once for a batch run and
// shared read-only across worker goroutines. Edges reference each
// other by EdgeID rather than pointer, per the arena design: this
// avoids both a cyclic ownership graph and reference counting on the
// hot map-matching path.
//
// Edge slots are paired: road i occupies slots 2i (forward) and 2i+1
// (backward). A one-way road leaves its backward slot empty, so an
// EdgeID is always derivable from its RoadID and direction.
type Graph struct {
	Roads []Road
	Edges []Edge

	index *quadtree.Quadtree

	// maxRoadExtent is the largest distance (meters) from any indexed
	// road's center point to a corner of its bounding rectangle. Radius
	// queries pad their search envelope by this much so long roads
	// whose center lies outside the envelope are still found.
	maxRoadExtent float64
}

// roadEntry is the Pointer stored in the spatial index: one per
// accepted Road, keyed by the center of its bounding rectangle. The
// index only narrows candidates; exact geodesic distance is always
// recomputed by the caller against the road's actual polyline.
type roadEntry struct {
	roadID RoadID // arena position in Graph.Roads
	center orb.Point
}

func (e roadEntry) Point() orb.Point { return e.center }

// NewGraph builds a Graph from a list of Roads read from the input
// source. Roads that are invalid (see Road.Valid) or explicitly
// excluded are rejected and never appear in the graph. Accepted roads
// are renumbered by arena position.
func NewGraph(roads []Road) *Graph {
	g := &Graph{}

	worldBound := orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}
	g.index = quadtree.New(worldBound)

	bySource := make(map[VertexID][]EdgeID)

	for _, r := range roads {
		if !r.Valid || r.Excluded {
			continue
		}
		r.ID = RoadID(len(g.Roads))
		g.Roads = append(g.Roads, r)

		fwd := forwardEdge(r)
		g.Edges = append(g.Edges, fwd)
		bySource[fwd.Source] = append(bySource[fwd.Source], fwd.ID)

		if r.OneWay {
			// Keep the slot pairing: the backward slot stays empty.
			g.Edges = append(g.Edges, Edge{ID: BackwardEdgeID(r.ID), RoadID: r.ID, Successor: NoEdge, Neighbor: NoEdge})
		} else {
			bwd := backwardEdge(r)
			g.Edges = append(g.Edges, bwd)
			bySource[bwd.Source] = append(bySource[bwd.Source], bwd.ID)
		}

		center := r.Bound.Center()
		g.index.Add(roadEntry{roadID: r.ID, center: center})

		for _, corner := range []orb.Point{r.Bound.Min, r.Bound.Max} {
			if d := geo.Distance(center, corner); d > g.maxRoadExtent {
				g.maxRoadExtent = d
			}
		}
	}

	// Stable edge ordering within each source group keeps neighbor
	// chains deterministic across runs.
	for v := range bySource {
		ids := bySource[v]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		bySource[v] = ids
	}

	for _, ids := range bySource {
		n := len(ids)
		for i, id := range ids {
			g.Edges[id].Neighbor = ids[(i+1)%n]
		}
	}

	for i := range g.Edges {
		e := &g.Edges[i]
		if len(e.Polyline) < 2 {
			continue
		}
		if list, ok := bySource[e.Target]; ok && len(list) > 0 {
			e.Successor = list[0]
		} else {
			e.Successor = NoEdge
		}
	}

	return g
}

// Edge returns a pointer to the Edge with the given id, or nil if id
// is out of range, NoEdge, or an empty backward slot of a one-way
// road. Implicit edges (negative ids) are never resolved here:
// callers holding implicit edges keep them directly.
func (g *Graph) Edge(id EdgeID) *Edge {
	if id < 0 || int(id) >= len(g.Edges) {
		return nil
	}
	e := &g.Edges[id]
	if len(e.Polyline) < 2 {
		return nil
	}
	return e
}

// Road returns a pointer to the Road with the given arena id, or nil.
func (g *Graph) Road(id RoadID) *Road {
	if id < 0 || int(id) >= len(g.Roads) {
		return nil
	}
	return &g.Roads[id]
}

// OutDegree returns the number of distinct outgoing edges at the
// vertex reached by following an edge's Successor and its Neighbor
// chain. Callers crediting a traversed intersection subtract one, per
// the "edges leaving the vertex other than the one the vehicle
// entered on" definition.
func (g *Graph) OutDegree(e *Edge) int {
	if e == nil || e.Successor == NoEdge {
		return 0
	}
	count := 0
	start := e.Successor
	cur := start
	for {
		next := g.Edge(cur)
		if next == nil {
			break
		}
		count++
		cur = next.Neighbor
		if cur == start || cur == NoEdge {
			break
		}
	}
	return count
}
