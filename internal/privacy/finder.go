// Package privacy implements the privacy-interval finder: each
// critical interval is expanded backward toward the trace start and
// forward toward the trace end until randomised minimum thresholds
// for direct distance, Manhattan distance and intersection out-degree
// are all met, or a maximum cap stops the expansion early.
package privacy

import (
	"math/rand"

	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/areafit"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/geo"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/roadgraph"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/trace"
)

// Params bundles the privacy-interval thresholds. Minimums must be
// met before an expansion stops; maximums cap how far it may run.
// The randomisation factors in [0,1] scale how much of the min..max
// range each expansion's effective minimum may be raised by.
type Params struct {
	MinDirectDistance    float64
	MaxDirectDistance    float64
	MinManhattanDistance float64
	MaxManhattanDistance float64
	MinOutDegree         int
	MaxOutDegree         int

	RandDirectDistance    float64
	RandManhattanDistance float64
	RandOutDegree         float64
}

// Finder expands critical intervals into privacy intervals. Per-trace
// state; construct one Finder per trace.
type Finder struct {
	params Params
	fit    *areafit.Fit
	rng    *rand.Rand

	ddRand float64
	mdRand float64
	odRand float64

	// expansion state
	initPoint   *trace.Sample
	md          float64
	outDegree   int
	start       int
	rMinDD      float64
	rMinMD      float64
	rMinOD      int
	curCritical *trace.Interval
	lastPIEnd   int
	cursor      int

	intervals []*trace.Interval
}

// NewFinder constructs a Finder. rng drives the per-expansion
// threshold randomisation; pass a seeded source for reproducible
// runs.
func NewFinder(p Params, fit *areafit.Fit, rng *rand.Rand) *Finder {
	return &Finder{
		params: p,
		fit:    fit,
		rng:    rng,
		ddRand: (p.MaxDirectDistance - p.MinDirectDistance) * p.RandDirectDistance,
		mdRand: (p.MaxManhattanDistance - p.MinManhattanDistance) * p.RandManhattanDistance,
		odRand: float64(p.MaxOutDegree-p.MinOutDegree) * p.RandOutDegree,
	}
}

// isEdgeChange reports whether the fit transitions between two
// samples constitute an edge change: switching between explicit and
// implicit fit, or a different edge id.
func isEdgeChange(a, b *roadgraph.Edge) bool {
	if a == nil || b == nil {
		return a != b
	}
	if a.IsImplicit() != b.IsImplicit() {
		return true
	}
	return a.ID != b.ID
}

func (f *Finder) edgeOf(s *trace.Sample) *roadgraph.Edge {
	if !s.HasFit {
		return nil
	}
	return f.fit.Edge(s.FitEdge)
}

// FindIntervals walks the trace and returns the privacy intervals
// found around every critical interval, in discovery order.
func (f *Finder) FindIntervals(tr *trace.Trace) []*trace.Interval {
	f.intervals = nil
	f.curCritical = nil
	f.lastPIEnd = 0

	for f.cursor = 0; f.cursor < tr.Len(); f.cursor++ {
		f.updateIntervals(tr, f.cursor)
	}

	return f.intervals
}

func (f *Finder) updateIntervals(tr *trace.Trace, idx int) {
	s := &tr.Samples[idx]
	ci := criticalOf(s)

	switch {
	case f.curCritical == nil:
		if ci != nil {
			// Entering a critical interval; expand backward from its
			// first sample unless a prior privacy interval already
			// reaches here.
			f.curCritical = ci
			if idx > 0 && idx > f.lastPIEnd {
				f.findBackward(tr, idx)
			}
		}
	case ci == nil:
		// Leaving the critical interval; expand forward from the
		// first sample past it.
		f.curCritical = nil
		if idx+1 < tr.Len() {
			f.findForward(tr, idx)
		}
	case ci != f.curCritical:
		// Critical interval to critical interval without a gap.
		f.curCritical = ci
	}
}

func criticalOf(s *trace.Sample) *trace.Interval {
	if s.Interval != nil && s.Interval.Type == trace.Critical {
		return s.Interval
	}
	return nil
}

// beginExpansion resets the expansion state and draws this
// expansion's randomised minimum thresholds.
func (f *Finder) beginExpansion(s *trace.Sample) {
	f.initPoint = s
	f.rMinMD = f.params.MinManhattanDistance + f.mdRand*f.rng.Float64()
	f.rMinDD = f.params.MinDirectDistance + f.ddRand*f.rng.Float64()
	f.rMinOD = f.params.MinOutDegree + int(f.odRand*f.rng.Float64())
	f.md = 0
	f.outDegree = s.OutDegree
	f.start = s.Index
}

func (f *Finder) emit(left, right int, tag string) {
	f.intervals = append(f.intervals, trace.NewInterval(left, right, trace.Privacy, tag))
}

/*
Forward expansion: walks from the first sample past the critical
interval toward the trace end, stopping at threshold satisfaction, a
cap crossing, another critical interval, or the trace boundary. The
outer scan cursor is advanced past each emitted interval so it is not
revisited.
*/

func (f *Finder) findForward(tr *trace.Trace, startIdx int) {
	f.beginExpansion(&tr.Samples[startIdx])

	intervalEnd := f.start
	edge := f.edgeOf(&tr.Samples[startIdx])
	edgeStart := startIdx
	last := startIdx

	for i := startIdx; i < tr.Len(); i++ {
		s := &tr.Samples[i]
		last = i
		intervalEnd = s.Index

		if criticalOf(s) != nil {
			// Ran into another critical interval; everything up to it
			// is a privacy interval.
			f.lastPIEnd = intervalEnd
			f.cursor += (intervalEnd - f.start) - 1
			f.emit(f.start, intervalEnd, "ci")
			return
		}

		cur := f.edgeOf(s)
		if isEdgeChange(cur, edge) {
			if f.forwardEdgeChange(tr, edgeStart, i, edge) {
				return
			}
			edgeStart = i
			edge = cur
		}
	}

	// Trace boundary: check whether a cap is crossed within the final
	// edge.
	edgeEnd := f.forwardCapScan(tr, edgeStart, last)
	if edgeEnd != intervalEnd {
		f.lastPIEnd = edgeEnd
		f.cursor += (edgeEnd - f.start) - 1
		f.emit(f.start, edgeEnd, "max_dist")
	} else {
		f.cursor += (intervalEnd - f.start) - 1
		f.emit(f.start, intervalEnd, "end")
	}
}

// forwardEdgeChange handles a fit-edge change between the samples at
// prevIdx (first on the previous edge) and curIdx. Reports whether an
// interval was emitted and the expansion is finished.
func (f *Finder) forwardEdgeChange(tr *trace.Trace, prevIdx, curIdx int, prevEdge *roadgraph.Edge) bool {
	prev := &tr.Samples[prevIdx]
	cur := &tr.Samples[curIdx]

	dd := geo.Distance(f.initPoint.Point, cur.Point)

	if !prev.IsExplicitFit {
		// The previous edge was implicit: its full length counts
		// toward the Manhattan distance, and only the caps apply.
		edgeLen := edgeLength(prevEdge)
		if edgeLen+f.md >= f.params.MaxManhattanDistance || dd >= f.params.MaxDirectDistance {
			end := f.forwardCapScan(tr, prevIdx, curIdx)
			f.lastPIEnd = end
			f.cursor += (end - f.start) - 1
			f.emit(f.start, end, "max_dist")
			return true
		}
		f.md += edgeLen
		return false
	}

	// The previous edge was explicit.
	edgeOD := cur.OutDegree - f.outDegree
	var edgeLen float64
	if cur.IsExplicitFit {
		edgeLen = edgeLength(prevEdge)
	} else {
		edgeLen = geo.Distance(prev.Point, cur.Point)
	}

	switch {
	case edgeLen+f.md >= f.rMinMD && dd >= f.rMinDD && edgeOD >= f.rMinOD:
		// All minimums met. The out-degree threshold is only known
		// after traversing the edge, so the interval ends at the
		// current sample.
		f.lastPIEnd = cur.Index
		f.cursor += (f.lastPIEnd - f.start) - 1
		f.emit(f.start, f.lastPIEnd, "min")
		return true
	case edgeLen+f.md >= f.params.MaxManhattanDistance || dd >= f.params.MaxDirectDistance:
		end := f.forwardCapScan(tr, prevIdx, curIdx)
		f.lastPIEnd = end
		f.cursor += (end - f.start) - 1
		f.emit(f.start, end, "max_dist")
		return true
	case edgeOD >= f.params.MaxOutDegree:
		f.lastPIEnd = cur.Index
		f.cursor += (f.lastPIEnd - f.start) - 1
		f.emit(f.start, f.lastPIEnd, "max_out_degree")
		return true
	}

	f.md += edgeLen
	return false
}

// forwardCapScan finds the first sample within (startIdx, endIdx]
// whose Manhattan or direct distance crosses a cap, or endIdx's index
// if none does.
func (f *Finder) forwardCapScan(tr *trace.Trace, startIdx, endIdx int) int {
	base := &tr.Samples[startIdx]
	for i := startIdx + 1; i < endIdx; i++ {
		s := &tr.Samples[i]
		edgeDist := geo.Distance(base.Point, s.Point)
		dd := geo.Distance(f.initPoint.Point, s.Point)
		if f.md+edgeDist > f.params.MaxManhattanDistance || dd > f.params.MaxDirectDistance {
			return s.Index
		}
	}
	return tr.Samples[endIdx].Index
}

/*
Backward expansion: identical structure walking in reverse from the
sample before the critical interval toward the trace start, emitting
intervals as [end, start+1) so the half-open convention is preserved.
The backward pass additionally stops when it runs into the previous
privacy interval's end watermark.
*/

func (f *Finder) findBackward(tr *trace.Trace, ciIdx int) {
	startIdx := ciIdx - 1
	f.beginExpansion(&tr.Samples[startIdx])

	intervalEnd := f.start
	edge := f.edgeOf(&tr.Samples[startIdx])
	edgeStart := startIdx
	last := startIdx

	for i := startIdx; i >= 0; i-- {
		s := &tr.Samples[i]
		last = i
		intervalEnd = s.Index

		if criticalOf(s) != nil {
			f.emit(intervalEnd, f.start+1, "ci")
			return
		}

		if s.Index == f.lastPIEnd && f.lastPIEnd > 0 {
			f.emit(intervalEnd, f.start+1, "pi")
			return
		}

		cur := f.edgeOf(s)
		if isEdgeChange(cur, edge) {
			if f.backwardEdgeChange(tr, edgeStart, i, edge) {
				return
			}
			edgeStart = i
			edge = cur
		}
	}

	edgeEnd := f.backwardCapScan(tr, edgeStart, last)
	if edgeEnd != intervalEnd {
		f.emit(edgeEnd, f.start+1, "max_dist")
	} else {
		f.emit(intervalEnd, f.start+1, "end")
	}
}

func (f *Finder) backwardEdgeChange(tr *trace.Trace, prevIdx, curIdx int, prevEdge *roadgraph.Edge) bool {
	prev := &tr.Samples[prevIdx]
	cur := &tr.Samples[curIdx]

	dd := geo.Distance(f.initPoint.Point, cur.Point)

	if !prev.IsExplicitFit {
		edgeLen := edgeLength(prevEdge)
		if edgeLen+f.md >= f.params.MaxManhattanDistance || dd >= f.params.MaxDirectDistance {
			end := f.backwardCapScan(tr, prevIdx, curIdx)
			f.emit(end, f.start+1, "max_dist")
			return true
		}
		f.md += edgeLen
		return false
	}

	// Walking backward, the cumulative out-degree decreases.
	edgeOD := f.outDegree - cur.OutDegree
	var edgeLen float64
	if cur.IsExplicitFit {
		edgeLen = edgeLength(prevEdge)
	} else {
		edgeLen = geo.Distance(prev.Point, cur.Point)
	}

	switch {
	case edgeLen+f.md >= f.rMinMD && dd >= f.rMinDD && edgeOD >= f.rMinOD:
		f.emit(cur.Index, f.start+1, "min")
		return true
	case edgeLen+f.md >= f.params.MaxManhattanDistance || dd >= f.params.MaxDirectDistance:
		end := f.backwardCapScan(tr, prevIdx, curIdx)
		f.emit(end, f.start+1, "max_dist")
		return true
	case edgeOD >= f.params.MaxOutDegree:
		f.emit(cur.Index, f.start+1, "max_out_degree")
		return true
	}

	f.md += edgeLen
	return false
}

func (f *Finder) backwardCapScan(tr *trace.Trace, startIdx, endIdx int) int {
	base := &tr.Samples[startIdx]
	for i := startIdx - 1; i > endIdx; i-- {
		s := &tr.Samples[i]
		edgeDist := geo.Distance(base.Point, s.Point)
		dd := geo.Distance(f.initPoint.Point, s.Point)
		if f.md+edgeDist > f.params.MaxManhattanDistance || dd > f.params.MaxDirectDistance {
			return s.Index
		}
	}
	return tr.Samples[endIdx].Index
}

func edgeLength(e *roadgraph.Edge) float64 {
	if e == nil {
		return 0
	}
	return e.Length
}
