// Package deident merges detector intervals, marks the samples they
// cover, and emits the de-identified trace: the subsequence of
// samples no interval claims.
package deident

import (
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/trace"
)

// MergeIntervals sorts the given interval lists by (left, right) and
// merges every overlapping or abutting-at-start run into one interval
// carrying the union of the tag sets. The result is disjoint and
// sorted by left.
func MergeIntervals(typ trace.IntervalType, lists ...[]*trace.Interval) []*trace.Interval {
	var all []*trace.Interval
	for _, list := range lists {
		all = append(all, list...)
	}
	if len(all) == 0 {
		return nil
	}
	if len(all) == 1 {
		return all
	}

	trace.SortIntervals(all)

	var merged []*trace.Interval
	cur := trace.NewInterval(all[0].Left, all[0].Right, typ, all[0].Tags()...)

	for _, iv := range all[1:] {
		if iv.Left <= cur.Right {
			// Starts within the saved interval: union tags and extend.
			cur.UnionTags(iv)
			if iv.Right > cur.Right {
				cur.Right = iv.Right
			}
		} else {
			merged = append(merged, cur)
			cur = trace.NewInterval(iv.Left, iv.Right, typ, iv.Tags()...)
		}
	}
	merged = append(merged, cur)

	return merged
}

// Marker walks a trace with a pointer into a sorted, merged interval
// list and annotates each covered sample with its interval. A sample
// already claimed by a critical interval is never overwritten by a
// privacy interval.
type Marker struct {
	intervals []*trace.Interval
	next      int
}

// NewMarker constructs a Marker over merged, disjoint, left-sorted
// intervals (the output of MergeIntervals).
func NewMarker(intervals []*trace.Interval) *Marker {
	return &Marker{intervals: intervals}
}

// Mark annotates every sample covered by one of the marker's
// intervals. Critical wins on collision.
func (m *Marker) Mark(tr *trace.Trace) {
	for i := range tr.Samples {
		m.markSample(&tr.Samples[i])
	}
}

func (m *Marker) markSample(s *trace.Sample) {
	for m.next < len(m.intervals) && m.intervals[m.next].Right <= s.Index {
		m.next++
	}
	if m.next >= len(m.intervals) {
		return
	}
	iv := m.intervals[m.next]
	if !iv.Contains(s.Index) {
		return
	}
	if s.Interval != nil && s.Interval.Type == trace.Critical {
		return
	}
	s.Interval = iv
}

// DeIdentify returns the de-identified subsequence: every sample whose
// interval annotation is nil, in order, raw record content preserved.
func DeIdentify(tr *trace.Trace) []trace.Sample {
	return tr.Emit()
}
