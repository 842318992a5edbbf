package mapmatch

import (
	"container/heap"

	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/roadgraph"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/units"
)

// heuristicSpeedCap caps the per-edge speed used in time costs, km/h.
const heuristicSpeedCap = 130.0

// timeCost is the routing cost of traversing an edge end to end:
// length * 3.6 / min(maxspeed, 130) * max(1, priority).
func timeCost(e *roadgraph.Edge) float64 {
	speed := e.MaxSpeed
	if speed > heuristicSpeedCap {
		speed = heuristicSpeedCap
	}
	if speed <= 0 {
		speed = 1
	}
	prio := float64(e.Priority)
	if prio < 1 {
		prio = 1
	}
	return e.Length * units.KPHPerMPS / speed * prio
}

func partialTimeCost(e *roadgraph.Edge, fraction float64) float64 {
	return timeCost(e) * fraction
}

// mark is one Dijkstra frontier entry: an edge reached at a cumulative
// time cost, with a cumulative distance bound used for termination.
// A reach mark (target >= 0) represents arriving at a specific target
// road point partway along the edge.
type mark struct {
	edge   roadgraph.EdgeID
	pred   roadgraph.EdgeID // edge this one was entered from, or NoEdge
	cost   float64          // cumulative time cost
	bound  float64          // cumulative distance, meters
	target int              // target index this mark finishes, or -1
}

type markHeap []*mark

func (h markHeap) Len() int            { return len(h) }
func (h markHeap) Less(i, j int) bool  { return h[i].cost < h[j].cost }
func (h markHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *markHeap) Push(x interface{}) { *h = append(*h, x.(*mark)) }
func (h *markHeap) Pop() interface{} {
	old := *h
	n := len(old)
	m := old[n-1]
	*h = old[:n-1]
	return m
}

// route runs a bounded least-time Dijkstra from src to every target
// road point, terminating once the cumulative distance bound exceeds
// max. The result holds, per target, the path as an edge list ordered
// target-first back to the source edge, or nil when the target was
// not reached within the bound.
func route(g *roadgraph.Graph, src roadPoint, targets []roadPoint, max float64) [][]roadgraph.EdgeID {
	paths := make([][]roadgraph.EdgeID, len(targets))

	targetsByEdge := make(map[roadgraph.EdgeID][]int)
	for i, t := range targets {
		targetsByEdge[t.edge] = append(targetsByEdge[t.edge], i)
	}
	remaining := len(targets)

	srcEdge := g.Edge(src.edge)
	if srcEdge == nil {
		return paths
	}

	entries := make(map[roadgraph.EdgeID]*mark)
	finishes := make([]*mark, len(targets))

	h := &markHeap{}
	heap.Init(h)

	startCost := partialTimeCost(srcEdge, 1-src.fraction)
	startBound := srcEdge.Length * (1 - src.fraction)

	// Targets on the source edge, ahead of the source fraction, are
	// reachable without leaving the edge.
	for _, ti := range targetsByEdge[src.edge] {
		t := targets[ti]
		if t.fraction < src.fraction {
			continue
		}
		heap.Push(h, &mark{
			edge:   src.edge,
			pred:   roadgraph.NoEdge,
			cost:   startCost - partialTimeCost(srcEdge, 1-t.fraction),
			bound:  startBound - srcEdge.Length*(1-t.fraction),
			target: ti,
		})
	}

	start := &mark{edge: src.edge, pred: roadgraph.NoEdge, cost: startCost, bound: startBound, target: -1}
	entries[src.edge] = start
	heap.Push(h, start)

	for h.Len() > 0 && remaining > 0 {
		cur := heap.Pop(h).(*mark)

		if cur.bound > max {
			break
		}

		if cur.target >= 0 {
			if finishes[cur.target] == nil {
				finishes[cur.target] = cur
				remaining--
			}
			continue
		}

		curEdge := g.Edge(cur.edge)
		if curEdge == nil || curEdge.Successor == roadgraph.NoEdge {
			continue
		}

		succ := curEdge.Successor
		next := succ
		for next != roadgraph.NoEdge {
			nextEdge := g.Edge(next)
			if nextEdge == nil {
				break
			}
			nextCost := cur.cost + timeCost(nextEdge)
			nextBound := cur.bound + nextEdge.Length

			for _, ti := range targetsByEdge[next] {
				t := targets[ti]
				heap.Push(h, &mark{
					edge:   next,
					pred:   cur.edge,
					cost:   nextCost - partialTimeCost(nextEdge, 1-t.fraction),
					bound:  nextBound - nextEdge.Length*(1-t.fraction),
					target: ti,
				})
			}

			if _, seen := entries[next]; !seen {
				m := &mark{edge: next, pred: cur.edge, cost: nextCost, bound: nextBound, target: -1}
				entries[next] = m
				heap.Push(h, m)
			}

			next = nextEdge.Neighbor
			if next == succ {
				break
			}
		}
	}

	for i, fin := range finishes {
		if fin == nil {
			continue
		}
		path := []roadgraph.EdgeID{fin.edge}
		pred := fin.pred
		for pred != roadgraph.NoEdge {
			path = append(path, pred)
			entry, ok := entries[pred]
			if !ok {
				break
			}
			pred = entry.pred
		}
		paths[i] = path
	}
	return paths
}

// routeCost converts a path (target-first, source edge last) into the
// time cost of travelling from start to end: the tail of the source
// edge, every intermediate edge in full, minus the untravelled tail of
// the target edge.
func routeCost(g *roadgraph.Graph, start, end roadPoint, path []roadgraph.EdgeID) float64 {
	cost := partialTimeCost(g.Edge(start.edge), 1-start.fraction)
	for i := len(path) - 2; i >= 0; i-- {
		cost += timeCost(g.Edge(path[i]))
	}
	cost -= partialTimeCost(g.Edge(end.edge), 1-end.fraction)
	return cost
}
