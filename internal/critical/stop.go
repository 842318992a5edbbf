package critical

import (
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/areafit"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/geo"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/trace"
)

// DefaultExcludedClasses is the default stop-detector road-class
// blacklist: motorway, trunk, primary and their link variants. Stops
// detected on these ways are ignored.
var DefaultExcludedClasses = map[int]bool{
	101: true, // motorway
	102: true, // motorway link
	104: true, // trunk
	105: true, // trunk link
	106: true, // primary
	107: true, // primary link
}

// Stop detects stop behavior: a window of samples spanning more than
// MaxTime whose straight-line cover distance stays within MinDistance.
// Stop detectors find stops using distance and time, not speed alone;
// MaxSpeed only gates which samples are eligible for the window.
type Stop struct {
	MaxTime     int64   // microseconds
	MinDistance float64 // meters
	MaxSpeed    float64 // m/s

	// Excluded maps road class ids whose stops are ignored. Nil means
	// DefaultExcludedClasses.
	Excluded map[int]bool

	fit       *areafit.Fit
	intervals []*trace.Interval
}

// NewStop constructs a stop detector. maxTime is in seconds and is
// converted to the microsecond resolution the window arithmetic uses.
func NewStop(maxTime float64, minDistance, maxSpeed float64, fit *areafit.Fit) *Stop {
	return &Stop{
		MaxTime:     int64(maxTime * 1e6),
		MinDistance: minDistance,
		MaxSpeed:    maxSpeed,
		Excluded:    DefaultExcludedClasses,
		fit:         fit,
	}
}

// validHighway reports whether the sample's road is one stops may be
// detected on: implicitly fit samples always qualify; explicitly fit
// samples qualify unless their road class is blacklisted.
func (d *Stop) validHighway(s *trace.Sample) bool {
	if !s.IsExplicitFit || !s.HasFit {
		return true
	}
	e := d.fit.Edge(s.FitEdge)
	if e == nil {
		return true
	}
	excluded := d.Excluded
	if excluded == nil {
		excluded = DefaultExcludedClasses
	}
	return !excluded[e.Type]
}

func (d *Stop) underSpeed(s *trace.Sample) bool {
	return s.Speed < d.MaxSpeed
}

// stopDeque is the sliding window over sample indices. The cumulative
// point-to-point distance is maintained incrementally for diagnostics;
// the detection predicate uses the front-to-back cover distance.
type stopDeque struct {
	d          *Stop
	tr         *trace.Trace
	q          []int
	cumulative float64
}

func (q *stopDeque) empty() bool { return len(q.q) == 0 }

func (q *stopDeque) front() *trace.Sample { return &q.tr.Samples[q.q[0]] }
func (q *stopDeque) back() *trace.Sample  { return &q.tr.Samples[q.q[len(q.q)-1]] }

// coverDistance is the straight-line distance between the front and
// back samples; zero with fewer than two samples in the window.
func (q *stopDeque) coverDistance() float64 {
	if len(q.q) < 2 {
		return 0
	}
	return geo.Distance(q.front().Point, q.back().Point)
}

func (q *stopDeque) underTime(s *trace.Sample) bool {
	return microsDelta(s, q.front()) <= q.d.MaxTime
}

func (q *stopDeque) underDistance() bool {
	return q.coverDistance() <= q.d.MinDistance
}

func (q *stopDeque) pushRight(idx int) {
	if !q.empty() {
		q.cumulative += geo.Distance(q.tr.Samples[idx].Point, q.back().Point)
	}
	q.q = append(q.q, idx)
}

func (q *stopDeque) popLeft() {
	first := q.q[0]
	q.q = q.q[1:]
	if len(q.q) > 1 {
		q.cumulative -= geo.Distance(q.tr.Samples[first].Point, q.tr.Samples[q.q[0]].Point)
	} else {
		q.cumulative = 0
	}
}

// unwind shrinks the window from the front until the cover distance is
// back under the limit, then sheds samples that only entered because
// earlier samples satisfied the eligibility conditions. Reports
// whether the window emptied.
func (q *stopDeque) unwind() bool {
	for !q.empty() && !q.underDistance() {
		q.popLeft()
	}
	for !q.empty() && !(q.d.underSpeed(q.front()) && q.d.validHighway(q.front())) {
		q.popLeft()
	}
	return q.empty()
}

func (q *stopDeque) reset() {
	q.q = q.q[:0]
	q.cumulative = 0
}

// microsDelta returns the timestamp difference in microseconds between
// two samples whose Timestamp fields are milliseconds.
func microsDelta(a, b *trace.Sample) int64 {
	return (a.Timestamp - b.Timestamp) * 1000
}

// FindStops scans the trace and returns the detected stop intervals,
// each tagged "stop". A window that never satisfies the conditions by
// trace end is discarded; the start/end intervals cover those samples.
func (d *Stop) FindStops(tr *trace.Trace) []*trace.Interval {
	d.intervals = nil
	q := &stopDeque{d: d, tr: tr}

	i := 0
	n := tr.Len()

	for i < n {
		s := &tr.Samples[i]
		if !(d.underSpeed(s) && d.validHighway(s)) {
			i++
			continue
		}

		q.pushRight(i)
		i++

		for i < n {
			s = &tr.Samples[i]

			if q.underTime(s) {
				q.pushRight(i)
				i++
				continue
			}

			// The window now spans more than MaxTime.
			if q.underDistance() {
				d.intervals = append(d.intervals,
					trace.NewInterval(q.front().Index, q.back().Index, trace.Critical, "stop"))
				q.reset()
				break
			}

			if q.unwind() {
				break
			}
		}
	}

	return d.intervals
}
