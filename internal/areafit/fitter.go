package areafit

import (
	"math"

	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/geo"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/roadgraph"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/trace"
)

// implicitAreaWidth is the fixed buffer width used when materialising
// areas for implicit edges, which carry no road width of their own.
const implicitAreaWidth = 10.0

// Fitter assigns each valid sample a fit edge: the matched explicit
// edge when the sample lies inside that edge's buffered area, or a
// synthetic implicit edge grown across consecutive unfit samples
// sharing a heading sector.
type Fitter struct {
	graph *roadgraph.Graph

	widthScale float64
	extension  float64
	sectors    int
	sectorSize float64
	minPoints  int

	// per-trace state
	nextImplicitID roadgraph.EdgeID
	currentSector  int
	numFitPoints   int
	implicitEdge   *roadgraph.Edge
	matchedEdge    *roadgraph.Edge
	matchedArea    *Area

	result *Fit
}

// Fit is the frozen output of one trace's area-fitting pass: the
// implicit edges the fitter synthesised, keyed by their (negative)
// ids, and the areas materialised for every implicit and explicit fit
// edge.
type Fit struct {
	graph    *roadgraph.Graph
	Implicit map[roadgraph.EdgeID]*roadgraph.Edge
	Areas    map[roadgraph.EdgeID]*Area

	explicit map[roadgraph.EdgeID]bool
}

// NewFit assembles a Fit from pre-built implicit edges, for callers
// that construct fit state directly rather than running a Fitter.
func NewFit(g *roadgraph.Graph, implicit map[roadgraph.EdgeID]*roadgraph.Edge) *Fit {
	if implicit == nil {
		implicit = make(map[roadgraph.EdgeID]*roadgraph.Edge)
	}
	return &Fit{
		graph:    g,
		Implicit: implicit,
		Areas:    make(map[roadgraph.EdgeID]*Area),
		explicit: make(map[roadgraph.EdgeID]bool),
	}
}

// Edge resolves a fit-edge id to its Edge: real edges come from the
// graph, implicit edges from this trace's fit result.
func (f *Fit) Edge(id roadgraph.EdgeID) *roadgraph.Edge {
	if id < 0 {
		return f.Implicit[id]
	}
	return f.graph.Edge(id)
}

// NewFitter constructs a Fitter. widthScale scales each road's width
// when buffering explicit edges; extension extends area ends;
// sectors divides the compass rose for implicit-edge changes;
// minPoints is the minimum samples accumulated on an implicit edge
// before a sector change may finalise it.
func NewFitter(g *roadgraph.Graph, widthScale, extension float64, sectors, minPoints int) *Fitter {
	if sectors <= 0 {
		sectors = 36
	}
	return &Fitter{
		graph:          g,
		widthScale:     widthScale,
		extension:      extension,
		sectors:        sectors,
		sectorSize:     360.0 / float64(sectors),
		minPoints:      minPoints,
		nextImplicitID: -2,
	}
}

func (f *Fitter) sector(azimuth float64) int {
	s := int(math.Floor(azimuth / f.sectorSize))
	return s % f.sectors
}

func (f *Fitter) isEdgeChange(sector int) bool {
	return f.currentSector != sector && f.numFitPoints >= f.minPoints
}

func (f *Fitter) newImplicitEdge(p geo.Point) *roadgraph.Edge {
	e := &roadgraph.Edge{
		ID:        f.nextImplicitID,
		RoadID:    -1,
		Type:      roadgraph.ImplicitType,
		Polyline:  geo.Line{p, p},
		Successor: roadgraph.NoEdge,
		Neighbor:  roadgraph.NoEdge,
	}
	f.nextImplicitID--
	f.result.Implicit[e.ID] = e
	return e
}

// fitSample fits one valid sample, per the pass described in the
// package comment. The sample's FitEdge/IsExplicitFit annotations are
// the only fields written.
func (f *Fitter) fitSample(s *trace.Sample) {
	if s.HasMatched {
		matched := f.graph.Edge(s.MatchedEdge)
		if matched != nil {
			if f.matchedArea == nil || f.matchedEdge == nil || matched.ID != f.matchedEdge.ID {
				area := NewArea(matched.ID, matched.Polyline, matched.Width*f.widthScale, f.extension)
				if area != nil {
					f.matchedArea = area
					f.matchedEdge = matched
				}
			}

			if f.matchedEdge != nil && f.matchedArea.Contains(s.Point) {
				s.FitEdge = f.matchedEdge.ID
				s.HasFit = true
				s.IsExplicitFit = true

				f.result.explicit[f.matchedEdge.ID] = true
				f.implicitEdge = nil
				f.numFitPoints = 0
				return
			}
		}
	}

	// Not explicitly fit: grow or start an implicit edge.
	s.IsExplicitFit = false

	if f.implicitEdge == nil {
		f.currentSector = f.sector(s.Azimuth)
		f.implicitEdge = f.newImplicitEdge(s.Point)
		f.numFitPoints = 1
	} else {
		sector := f.sector(s.Azimuth)
		if f.isEdgeChange(sector) {
			// Finalise the previous implicit edge at this sample and
			// start a new one from the same point.
			f.implicitEdge.Polyline[1] = s.Point
			f.implicitEdge = f.newImplicitEdge(s.Point)
			f.numFitPoints = 1
			f.currentSector = sector
		} else {
			f.implicitEdge.Polyline[1] = s.Point
			f.numFitPoints++
		}
	}

	s.FitEdge = f.implicitEdge.ID
	s.HasFit = true
}

// FitTrace runs the area-fitting pass over every valid sample in
// order, then freezes the implicit edges (caching their lengths) and
// materialises areas for all implicit and explicit fit edges.
func (f *Fitter) FitTrace(tr *trace.Trace) *Fit {
	f.result = &Fit{
		graph:    f.graph,
		Implicit: make(map[roadgraph.EdgeID]*roadgraph.Edge),
		Areas:    make(map[roadgraph.EdgeID]*Area),
		explicit: make(map[roadgraph.EdgeID]bool),
	}
	f.implicitEdge = nil
	f.matchedEdge = nil
	f.matchedArea = nil
	f.numFitPoints = 0
	f.nextImplicitID = -2

	for i := range tr.Samples {
		s := &tr.Samples[i]
		if !s.Valid {
			continue
		}
		f.fitSample(s)
	}

	for id, e := range f.result.Implicit {
		e.Length = geo.LineLength(e.Polyline)
		if a := NewArea(id, e.Polyline, implicitAreaWidth, 0); a != nil {
			f.result.Areas[id] = a
		}
	}
	for id := range f.result.explicit {
		e := f.graph.Edge(id)
		if e == nil {
			continue
		}
		if a := NewArea(id, e.Polyline, e.Width*f.widthScale, f.extension); a != nil {
			f.result.Areas[id] = a
		}
	}

	return f.result
}
