package mapmatch

import (
	"math"

	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/geo"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/roadgraph"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/trace"
)

// roadPoint is one hidden state of the HMM: a candidate road position
// (edge + fraction) with its interpolated geometry, bearing, emission
// probability, and the Viterbi bookkeeping for the layer it sits in.
type roadPoint struct {
	edge     roadgraph.EdgeID
	fraction float64
	point    geo.Point
	azimuth  float64

	emission float64
	filter   float64
	seq      float64 // sequence log10-probability
	pred     int     // index into the previous layer, or -1
}

// layer is one trellis column: the surviving candidates for a single
// trace sample.
type layer struct {
	sampleIdx int
	points    []roadPoint
}

// Matcher runs the HMM map matcher over one trace at a time. A
// Matcher is per-trace state and must not be shared across
// goroutines; the Graph it reads is shared and read-only.
type Matcher struct {
	graph  *roadgraph.Graph
	params Params

	layers []layer
}

// NewMatcher constructs a Matcher over g with the given tuning.
func NewMatcher(g *roadgraph.Graph, p Params) *Matcher {
	return &Matcher{graph: g, params: p}
}

// candidates builds the emission state for a sample: radius query,
// minset reduction, predecessor preference, then emission
// probabilities.
func (m *Matcher) candidates(s *trace.Sample, predecessors []roadPoint) []roadPoint {
	cands := m.graph.MinSet(m.graph.Radius(s.Point, m.params.MatchRadius))

	if len(predecessors) > 0 {
		byEdge := make(map[roadgraph.EdgeID]int, len(cands))
		for i, c := range cands {
			byEdge[c.EdgeID] = i
		}
		// A predecessor on the same edge, ahead of the raw candidate
		// and within sigma of it, replaces the candidate: the vehicle
		// does not travel backwards along an edge between samples.
		for _, p := range predecessors {
			i, ok := byEdge[p.edge]
			if !ok {
				continue
			}
			c := &cands[i]
			if geo.Distance(c.Point, p.point) < m.params.SigmaZ && c.Fraction < p.fraction {
				e := m.graph.Edge(p.edge)
				c.Fraction = p.fraction
				c.Point = geo.InterpolateLine(e.Polyline, p.fraction)
				c.Azimuth = geo.BearingLine(e.Polyline, p.fraction)
				c.Distance = geo.Distance(s.Point, c.Point)
			}
		}
	}

	out := make([]roadPoint, 0, len(cands))
	for _, c := range cands {
		out = append(out, roadPoint{
			edge:     c.EdgeID,
			fraction: c.Fraction,
			point:    c.Point,
			azimuth:  c.Azimuth,
			emission: emissionProbability(s.Azimuth, s.HasAzimuth, c.Azimuth, c.Distance, m.params.SigmaZ, m.params.SigmaA),
			seq:      math.Inf(-1),
			pred:     -1,
		})
	}
	return out
}

// transition is the route path and probability from one predecessor
// candidate to one current candidate.
type transition struct {
	path []roadgraph.EdgeID
	prob float64
}

// transitions routes every predecessor candidate to every current
// candidate within the distance bound and converts route costs into
// transition probabilities. The result is indexed [pred][cand]; a nil
// path marks an unreachable pair.
func (m *Matcher) transitions(prev layer, prevTS int64, cur []roadPoint, curTS int64) [][]transition {
	deltaMS := curTS - prevTS
	bound := math.Max(1000, math.Min(m.params.MaxRouteDist, float64(deltaMS)/1000*100))

	beta := 1.0
	if m.params.Lambda == 0 {
		beta = math.Max(1, float64(deltaMS)/1000)
	} else {
		beta = 1 / m.params.Lambda
	}

	out := make([][]transition, len(prev.points))
	for pi, p := range prev.points {
		paths := route(m.graph, p, cur, bound)
		row := make([]transition, len(cur))
		for ci, path := range paths {
			if path == nil {
				continue
			}
			start, end := p, cur[ci]
			start, end, path = m.shortenTurn(start, end, path)
			cost := routeCost(m.graph, start, end, path)
			row[ci] = transition{path: path, prob: (1 / beta) * math.Exp(-cost/beta)}
		}
		out[pi] = row
	}
	return out
}

// shortenTurn rewrites a path whose first two travelled edges are the
// two directions of the same road (a one-road U-turn) so the return
// leg is dropped. The path is ordered target-first with the source
// edge last.
func (m *Matcher) shortenTurn(start, end roadPoint, path []roadgraph.EdgeID) (roadPoint, roadPoint, []roadgraph.EdgeID) {
	if !m.params.ShortenTurns || len(path) < 2 {
		return start, end, path
	}
	last := len(path) - 1
	penul := len(path) - 2
	eLast := m.graph.Edge(path[last])
	ePenul := m.graph.Edge(path[penul])
	if eLast == nil || ePenul == nil || eLast.RoadID != ePenul.RoadID || eLast.ID == ePenul.ID {
		return start, end, path
	}

	if len(path) > 2 {
		start = roadPoint{edge: ePenul.ID, fraction: 1 - start.fraction}
		return start, end, path[:last]
	}

	// Two-edge path: the whole transition is an out-and-back on one
	// road. Collapse onto the leg with the shorter backtrack, nudged
	// 5m so the start and end never coincide exactly.
	if start.fraction < 1-end.fraction {
		f := math.Min(1, 1-end.fraction+5/eLast.Length)
		end = roadPoint{edge: eLast.ID, fraction: f}
		return start, end, path[1:]
	}
	f := math.Max(0, 1-start.fraction-5/ePenul.Length)
	start = roadPoint{edge: ePenul.ID, fraction: f}
	return start, end, path[:last]
}

// Match runs the HMM over the trace, assigning MatchedEdge to every
// sample the Viterbi chain covers. A break condition (no candidates,
// or no surviving transition) closes the current model, assigns its
// chain, and starts a fresh model.
func (m *Matcher) Match(tr *trace.Trace) {
	i := 0
	n := len(tr.Samples)

	for i < n {
		m.layers = m.layers[:0]
		var prevTS int64

		for i < n {
			s := &tr.Samples[i]
			if !s.Valid {
				i++
				continue
			}

			if len(m.layers) > 0 {
				prev := &tr.Samples[m.layers[len(m.layers)-1].sampleIdx]
				// An equal timestamp marks a duplicate of the last state.
				if s.Timestamp == prev.Timestamp ||
					geo.Distance(s.Point, prev.Point) < math.Max(0, m.params.MinSkipDistance) ||
					float64(s.Timestamp-prev.Timestamp) < math.Max(0, m.params.MinSkipTime*1000) {
					i++
					continue
				}
			}

			var predecessors []roadPoint
			if len(m.layers) > 0 {
				predecessors = m.layers[len(m.layers)-1].points
			}

			cands := m.candidates(s, predecessors)
			if len(cands) == 0 {
				// No roads near the sample: break the model and start
				// the next one after this sample.
				i++
				break
			}

			survivors := cands
			if len(predecessors) > 0 {
				survivors = m.viterbiStep(m.layers[len(m.layers)-1], prevTS, cands, s.Timestamp)
				if len(survivors) == 0 {
					// Candidates and predecessors but no transitions:
					// break the model, restart at this sample.
					break
				}
			} else {
				m.initLayer(survivors)
			}

			m.layers = append(m.layers, layer{sampleIdx: s.Index, points: survivors})
			prevTS = s.Timestamp
			i++
		}

		m.assign(tr)
	}
}

// initLayer seeds the first layer of a model from emissions alone.
func (m *Matcher) initLayer(points []roadPoint) {
	var norm float64
	for i := range points {
		points[i].filter = points[i].emission
		if points[i].emission > 0 {
			points[i].seq = math.Log10(points[i].emission)
		}
		norm += points[i].filter
	}
	if norm > 0 {
		for i := range points {
			points[i].filter /= norm
		}
	}
}

// viterbiStep computes filter and sequence probabilities for the
// candidate layer given the previous layer, returning only candidates
// reachable by at least one nonzero transition, with filter
// probabilities normalised to sum to one.
func (m *Matcher) viterbiStep(prev layer, prevTS int64, cands []roadPoint, curTS int64) []roadPoint {
	trans := m.transitions(prev, prevTS, cands, curTS)

	var norm float64
	out := make([]roadPoint, 0, len(cands))
	for ci := range cands {
		c := cands[ci]
		c.filter = 0
		c.seq = math.Inf(-1)
		c.pred = -1

		for pi := range prev.points {
			t := trans[pi][ci]
			if t.path == nil || t.prob == 0 {
				continue
			}
			p := prev.points[pi]
			c.filter += t.prob * p.filter
			seq := p.seq + math.Log10(t.prob) + math.Log10(c.emission)
			if seq > c.seq {
				c.seq = seq
				c.pred = pi
			}
		}

		if c.filter == 0 {
			continue
		}
		c.filter *= c.emission
		norm += c.filter
		out = append(out, c)
	}

	if norm > 0 {
		for i := range out {
			out[i].filter /= norm
		}
	}
	return out
}

// assign recovers the Viterbi chain from the completed model and
// writes MatchedEdge onto each covered sample.
func (m *Matcher) assign(tr *trace.Trace) {
	if len(m.layers) == 0 {
		return
	}

	last := m.layers[len(m.layers)-1]
	best := -1
	for i, p := range last.points {
		if best < 0 || p.filter > last.points[best].filter {
			best = i
		}
	}
	if best < 0 {
		return
	}

	cur := best
	for li := len(m.layers) - 1; li >= 0 && cur >= 0; li-- {
		point := m.layers[li].points[cur]
		s := &tr.Samples[m.layers[li].sampleIdx]
		s.MatchedEdge = point.edge
		s.HasMatched = true
		cur = point.pred
	}
}
