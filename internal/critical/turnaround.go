package critical

import (
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/areafit"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/geo"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/roadgraph"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/trace"
)

// TurnAround detects turn-around behavior two ways: a heading
// reversal between losing and re-entering explicit fit ("ta_fit"),
// and re-entry into the buffered area of a recently traversed edge at
// low speed ("ta").
type TurnAround struct {
	MaxQSize     int
	AreaWidth    float64
	MaxSpeed     float64 // m/s
	HeadingDelta float64 // degrees

	fit *areafit.Fit

	// areaQ holds (area, entry index) pairs for recently traversed
	// edges, most recent first, bounded by MaxQSize.
	areaQ []areaIndexPair

	previousFit  bool
	haveFitExit  bool
	fitExitPoint *trace.Sample
	currentEdge  *roadgraph.Edge

	intervals []*trace.Interval
}

type areaIndexPair struct {
	area  *areafit.Area
	index int
}

// NewTurnAround constructs a turn-around detector over the trace's
// area-fit result.
func NewTurnAround(maxQSize int, areaWidth, maxSpeed, headingDelta float64, fit *areafit.Fit) *TurnAround {
	return &TurnAround{
		MaxQSize:     maxQSize,
		AreaWidth:    areaWidth,
		MaxSpeed:     maxSpeed,
		HeadingDelta: headingDelta,
		fit:          fit,
		previousFit:  true,
	}
}

// isCriticalInterval checks the sample against every queued area but
// the most recent. A hit at low speed emits a "ta" interval from the
// area's entry index to the sample.
func (d *TurnAround) isCriticalInterval(s *trace.Sample) bool {
	for i, pair := range d.areaQ {
		if i == 0 {
			continue
		}
		if pair.area.Contains(s.Point) && s.Speed < d.MaxSpeed {
			d.intervals = append(d.intervals,
				trace.NewInterval(pair.index, s.Index, trace.Critical, "ta"))
			return true
		}
	}
	return false
}

func (d *TurnAround) update(s *trace.Sample) {
	var fitEdge *roadgraph.Edge
	if s.HasFit {
		fitEdge = d.fit.Edge(s.FitEdge)
	}

	if s.IsExplicitFit {
		if !d.previousFit {
			// Re-entering explicit fit: compare headings across the
			// unfit gap.
			if d.haveFitExit && geo.CircularDiff(s.Azimuth, d.fitExitPoint.Azimuth) >= d.HeadingDelta {
				d.intervals = append(d.intervals,
					trace.NewInterval(d.fitExitPoint.Index, s.Index, trace.Critical, "ta_fit"))
			}
			d.currentEdge = nil
			d.areaQ = d.areaQ[:0]
			d.previousFit = true
		}
		d.haveFitExit = true
		d.fitExitPoint = s
		return
	}

	if d.currentEdge == nil {
		// First sample after losing explicit fit.
		d.currentEdge = fitEdge
		d.previousFit = false
		return
	}

	if d.isCriticalInterval(s) {
		d.areaQ = d.areaQ[:0]
	}

	if fitEdge != nil && d.currentEdge.ID != fitEdge.ID {
		// The fit edge changed: queue the traversed edge's area.
		if a := areafit.NewArea(d.currentEdge.ID, d.currentEdge.Polyline, d.AreaWidth, 0); a != nil {
			d.areaQ = append([]areaIndexPair{{area: a, index: s.Index}}, d.areaQ...)
			if len(d.areaQ) > d.MaxQSize {
				d.areaQ = d.areaQ[:len(d.areaQ)-1]
			}
		}
		d.currentEdge = fitEdge
	}
}

// FindTurnArounds scans the trace and returns the detected
// turn-around intervals.
func (d *TurnAround) FindTurnArounds(tr *trace.Trace) []*trace.Interval {
	d.intervals = nil
	for i := range tr.Samples {
		d.update(&tr.Samples[i])
	}
	return d.intervals
}
