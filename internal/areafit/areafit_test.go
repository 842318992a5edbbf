package areafit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/geo"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/roadgraph"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/testutil"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/trace"
)

func TestNewAreaContainsPolylinePoints(t *testing.T) {
	a := testutil.Origin
	b := testutil.Offset(100, 0)
	area := NewArea(0, geo.Line{a, b}, 20, 5)
	require.NotNil(t, area)

	assert.True(t, area.Contains(geo.Interpolate(a, b, 0.5)))
	assert.True(t, area.Contains(testutil.Offset(50, 5)))
	assert.False(t, area.Contains(testutil.Offset(50, 50)))
}

func TestNewAreaSkipsDegenerateSegments(t *testing.T) {
	p := testutil.Origin
	assert.Nil(t, NewArea(0, geo.Line{p, p}, 20, 0))
	assert.Nil(t, NewArea(0, geo.Line{p}, 20, 0))
	assert.Nil(t, NewArea(0, geo.Line{p, testutil.Offset(10, 0)}, 0, 0))
}

func TestFitterExplicitFit(t *testing.T) {
	g := testutil.EastWestChain(t, 1, 200)
	tr := testutil.EastboundTrace(4, 50)
	for i := range tr.Samples {
		tr.Samples[i].MatchedEdge = roadgraph.ForwardEdgeID(0)
		tr.Samples[i].HasMatched = true
	}

	fit := NewFitter(g, 1, 5, 36, 3).FitTrace(tr)

	for i := range tr.Samples {
		s := &tr.Samples[i]
		assert.True(t, s.IsExplicitFit, "sample %d", i)
		assert.Equal(t, roadgraph.ForwardEdgeID(0), s.FitEdge)
	}
	assert.Empty(t, fit.Implicit)
	assert.Contains(t, fit.Areas, roadgraph.ForwardEdgeID(0))
}

func TestFitterImplicitEdgeGrowsAcrossUnmatchedRun(t *testing.T) {
	g := testutil.EastWestChain(t, 1, 200)
	tr := testutil.EastboundTrace(5, 50) // no matched edges at all

	fit := NewFitter(g, 1, 5, 36, 10).FitTrace(tr)

	require.Len(t, fit.Implicit, 1)
	for i := range tr.Samples {
		s := &tr.Samples[i]
		assert.False(t, s.IsExplicitFit)
		assert.Less(t, int32(s.FitEdge), int32(0))
	}

	e := fit.Implicit[tr.Samples[0].FitEdge]
	require.NotNil(t, e)
	require.Len(t, e.Polyline, 2)
	assert.Equal(t, tr.Samples[0].Point, e.Polyline[0])
	assert.Equal(t, tr.Samples[4].Point, e.Polyline[1])
	assert.Greater(t, e.Length, 150.0)
	assert.True(t, e.IsImplicit())
}

func TestFitterSectorChangeStartsNewImplicitEdge(t *testing.T) {
	g := testutil.EastWestChain(t, 1, 200)

	// Head east for four samples, then north: the heading sector
	// changes after enough accumulated points, splitting the edge.
	samples := []trace.Sample{
		testutil.Sample(0, testutil.Offset(0, 0), 10, 90),
		testutil.Sample(1, testutil.Offset(50, 0), 10, 90),
		testutil.Sample(2, testutil.Offset(100, 0), 10, 90),
		testutil.Sample(3, testutil.Offset(150, 0), 10, 90),
		testutil.Sample(4, testutil.Offset(150, 50), 10, 0),
		testutil.Sample(5, testutil.Offset(150, 100), 10, 0),
	}
	tr := testutil.Trace(samples...)

	fit := NewFitter(g, 1, 5, 36, 2).FitTrace(tr)

	require.Len(t, fit.Implicit, 2)
	first := tr.Samples[0].FitEdge
	second := tr.Samples[5].FitEdge
	assert.NotEqual(t, first, second)

	// The finalised first edge ends where the second begins.
	e1 := fit.Implicit[first]
	e2 := fit.Implicit[second]
	assert.Equal(t, tr.Samples[4].Point, e1.Polyline[1])
	assert.Equal(t, tr.Samples[4].Point, e2.Polyline[0])
}

func TestFitterExplicitFitResetsImplicitState(t *testing.T) {
	g := testutil.EastWestChain(t, 1, 200)
	tr := testutil.EastboundTrace(6, 30)

	// Middle samples match the road; outer samples do not.
	for _, i := range []int{2, 3} {
		tr.Samples[i].MatchedEdge = roadgraph.ForwardEdgeID(0)
		tr.Samples[i].HasMatched = true
	}

	fit := NewFitter(g, 1, 5, 36, 1).FitTrace(tr)

	assert.False(t, tr.Samples[0].IsExplicitFit)
	assert.True(t, tr.Samples[2].IsExplicitFit)
	assert.False(t, tr.Samples[4].IsExplicitFit)

	// The run before and the run after the explicit stretch are
	// distinct implicit edges.
	assert.NotEqual(t, tr.Samples[0].FitEdge, tr.Samples[4].FitEdge)
	assert.Len(t, fit.Implicit, 2)
}

func TestFitEdgeResolvesBothKinds(t *testing.T) {
	g := testutil.EastWestChain(t, 1, 200)
	imp := &roadgraph.Edge{ID: -2, Type: roadgraph.ImplicitType, Polyline: geo.Line{testutil.Origin, testutil.Offset(10, 0)}}
	fit := NewFit(g, map[roadgraph.EdgeID]*roadgraph.Edge{imp.ID: imp})

	assert.Equal(t, imp, fit.Edge(-2))
	assert.NotNil(t, fit.Edge(roadgraph.ForwardEdgeID(0)))
	assert.Nil(t, fit.Edge(-99))
}
