package roadgraph

import (
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/geo"
)

// Candidate is a road point produced by a spatial query: a directed
// edge, the fraction along it, the interpolated geometry and bearing
// at that fraction, and the projected distance from the query point.
type Candidate struct {
	EdgeID   EdgeID
	Fraction float64
	Point    geo.Point
	Azimuth  float64
	Distance float64
}

const (
	nearestInitialRadius = 100.0 // meters
	nearestMaxRadius     = 50000.0
)

// candidatesForRoad projects p onto road's polyline once, then builds
// one candidate per direction the road supports: the forward edge at
// fraction f, and (if the road is not one-way) the backward edge at
// fraction 1-f.
func (g *Graph) candidatesForRoad(road *Road, p geo.Point) []Candidate {
	f := geo.InterceptLine(road.Polyline, p)
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}

	fwd := g.Edge(ForwardEdgeID(road.ID))
	fwdPt := geo.InterpolateLine(fwd.Polyline, f)
	out := []Candidate{{
		EdgeID:   fwd.ID,
		Fraction: f,
		Point:    fwdPt,
		Azimuth:  geo.BearingLine(fwd.Polyline, f),
		Distance: geo.Distance(p, fwdPt),
	}}

	if bwd := g.Edge(BackwardEdgeID(road.ID)); bwd != nil {
		bf := 1 - f
		bwdPt := geo.InterpolateLine(bwd.Polyline, bf)
		out = append(out, Candidate{
			EdgeID:   bwd.ID,
			Fraction: bf,
			Point:    bwdPt,
			Azimuth:  geo.BearingLine(bwd.Polyline, bf),
			Distance: geo.Distance(p, bwdPt),
		})
	}
	return out
}

// Radius returns all road points whose projected point lies within r
// meters of p.
func (g *Graph) Radius(p geo.Point, r float64) []Candidate {
	env := geo.EnvelopeForRadius(p, r+g.maxRoadExtent)
	entries := g.index.InBound(nil, env)

	var out []Candidate
	for _, ptr := range entries {
		entry, ok := ptr.(roadEntry)
		if !ok {
			continue
		}
		road := g.Road(entry.roadID)
		for _, c := range g.candidatesForRoad(road, p) {
			if c.Distance <= r {
				out = append(out, c)
			}
		}
	}
	return out
}

// Nearest grows a search radius (starting at 100m, doubling) until at
// least one road's projected point is within it, then returns every
// candidate whose projected distance equals that minimum.
func (g *Graph) Nearest(p geo.Point) []Candidate {
	radius := nearestInitialRadius
	var found []Candidate
	for radius <= nearestMaxRadius {
		found = g.Radius(p, radius)
		if len(found) > 0 {
			break
		}
		radius *= 2
	}
	if len(found) == 0 {
		return nil
	}

	best := found[0].Distance
	for _, c := range found {
		if c.Distance < best {
			best = c.Distance
		}
	}
	var out []Candidate
	for _, c := range found {
		if c.Distance <= best+geo.Epsilon {
			out = append(out, c)
		}
	}
	return out
}

// roundFraction snaps a fraction to 0 or 1 when it is within the GPS
// coordinate tolerance of an endpoint.
func roundFraction(f float64) float64 {
	if f <= geo.CoordEpsilon {
		return 0
	}
	if f >= 1-geo.CoordEpsilon {
		return 1
	}
	return f
}

// MinSet reduces a candidate set by removing duplicates at edge
// boundaries: a candidate at fraction 0 of an outgoing edge is the
// same physical point as a candidate at fraction 1 of the edge it
// follows, so the fraction-0 candidate on the successor chain is
// dropped, and a fraction-1 candidate whose every successor-chain
// edge also carries a candidate is dropped in its favor.
func (g *Graph) MinSet(candidates []Candidate) []Candidate {
	byEdge := make(map[EdgeID]int, len(candidates))
	misses := make(map[EdgeID]int, len(candidates))
	removes := make(map[EdgeID]bool)

	for i, c := range candidates {
		byEdge[c.EdgeID] = i
		misses[c.EdgeID] = 0
	}

	for _, c := range candidates {
		e := g.Edge(c.EdgeID)
		if e == nil {
			continue
		}
		start := e.Successor
		cur := start
		for cur != NoEdge {
			next := g.Edge(cur)
			if next == nil {
				break
			}
			if idx, ok := byEdge[cur]; !ok {
				misses[c.EdgeID]++
			} else if roundFraction(candidates[idx].Fraction) == 0 {
				removes[cur] = true
				misses[c.EdgeID]++
			}
			cur = next.Neighbor
			if cur == start {
				break
			}
		}
	}

	for _, c := range candidates {
		if !removes[c.EdgeID] && roundFraction(c.Fraction) == 1 && misses[c.EdgeID] == 0 {
			removes[c.EdgeID] = true
		}
	}

	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !removes[c.EdgeID] {
			out = append(out, c)
		}
	}
	return out
}
