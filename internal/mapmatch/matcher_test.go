package mapmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/geo"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/roadgraph"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/testutil"
)

func TestTimeCostScalesWithSpeedAndPriority(t *testing.T) {
	e := &roadgraph.Edge{Length: 1000, MaxSpeed: 50, Priority: 1}
	assert.InDelta(t, 1000*3.6/50, timeCost(e), 1e-9)

	// Speed capped at 130 km/h.
	fast := &roadgraph.Edge{Length: 1000, MaxSpeed: 200, Priority: 1}
	assert.InDelta(t, 1000*3.6/130, timeCost(fast), 1e-9)

	// Priority multiplies, floored at 1.
	slow := &roadgraph.Edge{Length: 1000, MaxSpeed: 50, Priority: 3}
	assert.InDelta(t, 3*1000*3.6/50, timeCost(slow), 1e-9)
}

func TestRouteSameEdgeForward(t *testing.T) {
	g := testutil.EastWestChain(t, 1, 1000)
	src := roadPoint{edge: roadgraph.ForwardEdgeID(0), fraction: 0.2}
	dst := roadPoint{edge: roadgraph.ForwardEdgeID(0), fraction: 0.7}

	paths := route(g, src, []roadPoint{dst}, 5000)
	require.NotNil(t, paths[0])
	assert.Equal(t, []roadgraph.EdgeID{roadgraph.ForwardEdgeID(0)}, paths[0])

	cost := routeCost(g, src, dst, paths[0])
	e := g.Edge(roadgraph.ForwardEdgeID(0))
	assert.InDelta(t, timeCost(e)*0.5, cost, 1e-6)
}

func TestRouteAcrossChain(t *testing.T) {
	g := testutil.EastWestChain(t, 3, 500)
	src := roadPoint{edge: roadgraph.ForwardEdgeID(0), fraction: 0.5}
	dst := roadPoint{edge: roadgraph.ForwardEdgeID(2), fraction: 0.5}

	paths := route(g, src, []roadPoint{dst}, 5000)
	require.NotNil(t, paths[0])

	// Path is ordered target-first back to the source edge.
	want := []roadgraph.EdgeID{
		roadgraph.ForwardEdgeID(2),
		roadgraph.ForwardEdgeID(1),
		roadgraph.ForwardEdgeID(0),
	}
	assert.Equal(t, want, paths[0])

	// Half of edge 0, all of edge 1, half of edge 2.
	e := g.Edge(roadgraph.ForwardEdgeID(0))
	assert.InDelta(t, timeCost(e)*2, routeCost(g, src, dst, paths[0]), 1e-6)
}

func TestRouteRespectsDistanceBound(t *testing.T) {
	g := testutil.EastWestChain(t, 10, 1000)
	src := roadPoint{edge: roadgraph.ForwardEdgeID(0), fraction: 0}
	dst := roadPoint{edge: roadgraph.ForwardEdgeID(9), fraction: 0.9}

	paths := route(g, src, []roadPoint{dst}, 2000)
	assert.Nil(t, paths[0])
}

func TestRouteUnreachableBehindSource(t *testing.T) {
	// One one-way road: a target behind the source fraction is
	// unreachable.
	line := geo.Line{testutil.Origin, testutil.Offset(1000, 0)}
	road := roadgraph.NewRoad(1, 1, 0, 1, 1, 1, 50, 50, 7, true, false, line)
	g := roadgraph.NewGraph([]roadgraph.Road{road})

	src := roadPoint{edge: roadgraph.ForwardEdgeID(0), fraction: 0.8}
	dst := roadPoint{edge: roadgraph.ForwardEdgeID(0), fraction: 0.2}
	paths := route(g, src, []roadPoint{dst}, 5000)
	assert.Nil(t, paths[0])
}

func TestEmissionProbabilityAzimuthFloor(t *testing.T) {
	aligned := emissionProbability(90, true, 90, 0, 10, 10)
	opposed := emissionProbability(90, true, 270, 0, 10, 10)
	require.Greater(t, aligned, opposed)

	// The azimuth factor never drops below 0.01 of the distance
	// factor.
	noAz := emissionProbability(0, false, 0, 0, 10, 10)
	assert.InDelta(t, noAz*0.01, opposed, 1e-9)
}

func TestMatcherMatchesEastboundTrace(t *testing.T) {
	g := testutil.EastWestChain(t, 4, 200)
	tr := testutil.EastboundTrace(16, 50)

	m := NewMatcher(g, DefaultParams())
	m.Match(tr)

	matched := 0
	for i := range tr.Samples {
		s := &tr.Samples[i]
		if !s.HasMatched {
			continue
		}
		matched++
		// Eastbound heading must select forward-direction edges.
		e := g.Edge(s.MatchedEdge)
		require.NotNil(t, e)
		assert.Equal(t, int32(0), int32(s.MatchedEdge)%2, "sample %d matched backward edge", i)
	}
	assert.Equal(t, tr.Len(), matched)
}

func TestMatcherBreaksWhenOffMap(t *testing.T) {
	g := testutil.EastWestChain(t, 2, 200)

	// A trace far away from every road.
	far := testutil.EastboundTrace(5, 50)
	for i := range far.Samples {
		p := far.Samples[i].Point
		far.Samples[i].Point = geo.Point{p.Lon(), p.Lat() + 1}
	}

	m := NewMatcher(g, DefaultParams())
	m.Match(far)

	for i := range far.Samples {
		assert.False(t, far.Samples[i].HasMatched, "sample %d", i)
	}
}

func TestMatcherSkipsInvalidSamples(t *testing.T) {
	g := testutil.EastWestChain(t, 4, 200)
	tr := testutil.EastboundTrace(8, 50)
	tr.Samples[3].Valid = false

	m := NewMatcher(g, DefaultParams())
	m.Match(tr)

	assert.False(t, tr.Samples[3].HasMatched)
	assert.True(t, tr.Samples[2].HasMatched)
	assert.True(t, tr.Samples[4].HasMatched)
}

func TestShortenTurnDropsReturnLeg(t *testing.T) {
	g := testutil.EastWestChain(t, 2, 500)
	m := NewMatcher(g, DefaultParams())

	fwd := roadgraph.ForwardEdgeID(0)
	bwd := roadgraph.BackwardEdgeID(0)
	next := roadgraph.ForwardEdgeID(1)

	// Path travel order fwd(0) -> bwd(0) -> ... is an out-and-back on
	// road 0; target-first list ends [..., bwd, fwd].
	start := roadPoint{edge: fwd, fraction: 0.6}
	end := roadPoint{edge: next, fraction: 0.5}
	path := []roadgraph.EdgeID{next, bwd, fwd}

	// bwd and fwd share a road: the source edge is dropped and the
	// start moves onto the return leg.
	gotStart, gotEnd, gotPath := m.shortenTurn(start, end, path)
	assert.Equal(t, bwd, gotStart.edge)
	assert.InDelta(t, 0.4, gotStart.fraction, 1e-9)
	assert.Equal(t, end, gotEnd)
	assert.Equal(t, []roadgraph.EdgeID{next, bwd}, gotPath)
}
