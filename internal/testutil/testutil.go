// Package testutil provides shared test fixtures: small synthetic
// road networks and traces in the reference area near Knoxville, TN.
//
// This package centralises common test helpers to reduce code
// duplication across test files and improve test maintainability.
package testutil

import (
	"math"
	"testing"

	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/geo"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/roadgraph"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/trace"
)

// Origin is the reference point all fixture geometry is laid out
// around.
var Origin = geo.Point{-83.930, 35.955}

// MetersPerDegreeLat is the approximate north-south meters per degree
// at the fixture latitude.
const MetersPerDegreeLat = 111132.0

// Offset returns the point east/north of Origin by the given meters.
func Offset(eastM, northM float64) geo.Point {
	latRad := Origin.Lat() * math.Pi / 180
	return geo.Point{
		Origin.Lon() + eastM/(MetersPerDegreeLat*math.Cos(latRad)),
		Origin.Lat() + northM/MetersPerDegreeLat,
	}
}

// Road builds a valid two-way residential road between two fixture
// points.
func Road(t *testing.T, gid int64, source, target roadgraph.VertexID, pts ...geo.Point) roadgraph.Road {
	t.Helper()
	r := roadgraph.NewRoad(gid, gid*10, source, target, 1, 1, 50, 50, 7, false, false, geo.Line(pts))
	if !r.Valid {
		t.Fatalf("fixture road %d invalid", gid)
	}
	return r
}

// EastWestChain builds a graph of n two-way roads laid end to end
// eastward from Origin, each segM meters long, vertices numbered
// 0..n.
func EastWestChain(t *testing.T, n int, segM float64) *roadgraph.Graph {
	t.Helper()
	roads := make([]roadgraph.Road, 0, n)
	for i := 0; i < n; i++ {
		a := Offset(float64(i)*segM, 0)
		b := Offset(float64(i+1)*segM, 0)
		roads = append(roads, Road(t, int64(i+1), roadgraph.VertexID(i), roadgraph.VertexID(i+1), a, b))
	}
	return roadgraph.NewGraph(roads)
}

// Sample builds a valid trace sample at the given index and position
// with a 1 Hz timestamp cadence.
func Sample(index int, p geo.Point, speed, azimuth float64) trace.Sample {
	return trace.Sample{
		ID:         "veh_1",
		Index:      index,
		RawIndex:   index,
		Timestamp:  int64(index) * 1000,
		Point:      p,
		Azimuth:    azimuth,
		HasAzimuth: true,
		Speed:      speed,
		Valid:      true,
	}
}

// Trace builds a working trace from samples, re-indexing them.
func Trace(samples ...trace.Sample) *trace.Trace {
	for i := range samples {
		samples[i].Index = i
	}
	return &trace.Trace{ID: "veh_1", Samples: samples}
}

// EastboundTrace builds a trace of n samples moving east from Origin
// at stepM meters per second (one sample per second, azimuth 90).
func EastboundTrace(n int, stepM float64) *trace.Trace {
	samples := make([]trace.Sample, 0, n)
	for i := 0; i < n; i++ {
		samples = append(samples, Sample(i, Offset(float64(i)*stepM, 0), stepM, 90))
	}
	return Trace(samples...)
}
