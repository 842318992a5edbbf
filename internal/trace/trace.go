package trace

// Trace is an ordered sequence of Samples from a single vehicle trip.
// Indices are 0..N-1 in order and timestamps are non-decreasing.
type Trace struct {
	ID      string
	Samples []Sample
}

// Len returns the number of samples in the trace.
func (t *Trace) Len() int { return len(t.Samples) }

// BuildTrace assembles the working Trace for id from the raw samples:
// samples flagged invalid are excluded and the remainder re-indexed
// 0..N-1 in place. Consecutive equal timestamps are kept; the map
// matcher treats the second of an equal-timestamp pair as a duplicate
// at model entry.
func BuildTrace(id string, raw []Sample) *Trace {
	var kept []Sample

	for _, s := range raw {
		if s.Error != ErrorNone || !s.Valid {
			continue
		}
		kept = append(kept, s)
	}

	for i := range kept {
		kept[i].Index = i
		kept[i].MatchedEdge = 0
		kept[i].HasMatched = false
		kept[i].FitEdge = 0
		kept[i].HasFit = false
	}

	return &Trace{ID: id, Samples: kept}
}

// Emit returns the subsequence of samples whose Interval is nil,
// preserving order and raw record content: the de-identified output.
func (t *Trace) Emit() []Sample {
	out := make([]Sample, 0, len(t.Samples))
	for _, s := range t.Samples {
		if !s.Suppressed() {
			out = append(out, s)
		}
	}
	return out
}
