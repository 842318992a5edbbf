// Package outdegree annotates each trace sample with the cumulative
// intersection out-degree accumulated along the driven path, the
// signal the privacy-interval finder uses to decide how many
// intersections an expansion has crossed.
package outdegree

import (
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/roadgraph"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/trace"
)

// Counter walks a trace in order and maintains the running cumulative
// out-degree. Per-trace state; construct a new Counter per trace.
type Counter struct {
	graph *roadgraph.Graph

	current    *roadgraph.Edge
	lastRoad   roadgraph.RoadID
	hasLast    bool
	cumulative int
}

// NewCounter constructs a Counter over g.
func NewCounter(g *roadgraph.Graph) *Counter {
	return &Counter{graph: g}
}

// vertexOutDegree is the out-degree credited when a vertex is
// traversed: the number of outgoing edges at the edge's target, minus
// the one the vehicle continues on. Vertices with a single outgoing
// edge contribute nothing.
func (c *Counter) vertexOutDegree(e *roadgraph.Edge) int {
	d := c.graph.OutDegree(e)
	if d > 1 {
		return d - 1
	}
	return 0
}

// currentCount updates the running cumulative for one sample and
// returns it. Only explicitly fit samples can advance the count;
// everything else inherits the previous value.
func (c *Counter) currentCount(s *trace.Sample) int {
	if !s.HasFit || !s.IsExplicitFit {
		return c.cumulative
	}

	fit := c.graph.Edge(s.FitEdge)
	if fit == nil {
		return c.cumulative
	}

	if c.current == nil {
		c.current = fit
		return c.cumulative
	}

	if c.current.RoadID == fit.RoadID {
		// Still on the same road; no intersection crossed.
		return c.cumulative
	}

	// The fit edge changed roads: look for a shared vertex. Direction
	// of travel is not tracked, so all four endpoint pairings count.
	shared := c.current.Source == fit.Source || c.current.Source == fit.Target ||
		c.current.Target == fit.Source || c.current.Target == fit.Target

	if shared {
		if !c.hasLast || c.lastRoad != fit.RoadID {
			// A new intersection, not a re-visit of the last credited
			// vertex.
			c.cumulative += c.vertexOutDegree(c.current)
			c.lastRoad = c.current.RoadID
			c.hasLast = true
		}
	}
	// No shared vertex means the matcher fit a disconnected edge; the
	// count is left unchanged.

	c.current = fit

	return c.cumulative
}

// Count annotates every sample in the trace with the cumulative
// intersection out-degree up to that sample. The annotation is
// non-decreasing along the trace.
func (c *Counter) Count(tr *trace.Trace) {
	for i := range tr.Samples {
		s := &tr.Samples[i]
		s.OutDegree = c.currentCount(s)
	}
}
