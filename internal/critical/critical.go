// Package critical implements the critical-interval detectors: the
// start/end intervals, the stop detector, and the turn-around
// detector. Each detector emits intervals over trace indices tagged
// with the detector that produced them.
package critical

import (
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/trace"
)

// StartEndIntervals emits the two endpoint intervals every trace
// carries: [0,1) tagged start_pt and [N-1,N) tagged end_pt. A trace
// of length 1 yields two intervals covering the same sample.
func StartEndIntervals(tr *trace.Trace) []*trace.Interval {
	n := tr.Len()
	if n == 0 {
		return nil
	}
	return []*trace.Interval{
		trace.NewInterval(0, 1, trace.Critical, "start_pt"),
		trace.NewInterval(n-1, n, trace.Critical, "end_pt"),
	}
}
