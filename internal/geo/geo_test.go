package geo

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ptA = Point{-83.930, 35.955} // near Knoxville, TN (utk reference area)
	ptB = Point{-83.920, 35.960}
)

func TestInterpolateEndpoints(t *testing.T) {
	assert.Equal(t, ptA, Interpolate(ptA, ptB, 0))
	assert.Equal(t, ptB, Interpolate(ptA, ptB, 1))
}

func TestInterpolateClampsOutOfRange(t *testing.T) {
	assert.Equal(t, ptA, Interpolate(ptA, ptB, -5))
	assert.Equal(t, ptB, Interpolate(ptA, ptB, 5))
}

func TestDistanceSymmetricNonNegative(t *testing.T) {
	d1 := Distance(ptA, ptB)
	d2 := Distance(ptB, ptA)
	require.InDelta(t, d1, d2, 1e-9)
	assert.GreaterOrEqual(t, d1, 0.0)
}

func TestInterceptEndpoints(t *testing.T) {
	fA := Intercept(ptA, ptB, ptA)
	fB := Intercept(ptA, ptB, ptB)
	assert.InDelta(t, 0.0, fA, 1e-6)
	assert.InDelta(t, 1.0, fB, 1e-6)
}

func TestInterceptMidpoint(t *testing.T) {
	mid := Interpolate(ptA, ptB, 0.5)
	f := Intercept(ptA, ptB, mid)
	assert.InDelta(t, 0.5, f, 1e-4)
}

func TestInterceptBeyondSegment(t *testing.T) {
	beyond := Interpolate(ptA, ptB, 1)
	// extend further past B in the same direction using the bearing.
	farther := Point{beyond.Lon() + (ptB.Lon() - ptA.Lon()), beyond.Lat() + (ptB.Lat() - ptA.Lat())}
	f := Intercept(ptA, ptB, farther)
	assert.Greater(t, f, 1.0)
}

func TestBearingFractionBounds(t *testing.T) {
	initial := Bearing(ptA, ptB, 0)
	final := Bearing(ptA, ptB, 1)
	assert.GreaterOrEqual(t, initial, 0.0)
	assert.Less(t, initial, 360.0)
	assert.GreaterOrEqual(t, final, 0.0)
	assert.Less(t, final, 360.0)
}

func TestInterceptLinePicksClosestSegment(t *testing.T) {
	line := orb.LineString{ptA, ptB, Interpolate(ptB, Point{-83.910, 35.965}, 1)}
	f := InterceptLine(line, ptB)
	got := InterpolateLine(line, f)
	assert.InDelta(t, Distance(ptB, got), 0, 1.0)
}

func TestRectRingIsClosedPentagon(t *testing.T) {
	ring := RectRing(ptA, ptB, 10, 2)
	require.Len(t, ring, 5)
	assert.Equal(t, ring[0], ring[4])
}

func TestRectRingContainsMidpoint(t *testing.T) {
	ring := RectRing(ptA, ptB, 20, 0)
	mid := Interpolate(ptA, ptB, 0.5)
	assert.True(t, PointInRing(ring, mid))
}

func TestEnvelopeForRadiusContainsCenter(t *testing.T) {
	bound := EnvelopeForRadius(ptA, 100)
	assert.True(t, bound.Contains(ptA))
}

func TestLineLengthMatchesSumOfSegments(t *testing.T) {
	line := orb.LineString{ptA, ptB, Point{-83.910, 35.965}}
	want := Distance(line[0], line[1]) + Distance(line[1], line[2])
	assert.InDelta(t, want, LineLength(line), 1e-6)
}

func TestBearingLinePicksContainingSegment(t *testing.T) {
	// East then north: the first half bears ~90, the second ~0.
	east := Point{ptA.Lon() + 0.01, ptA.Lat()}
	north := Point{east.Lon(), east.Lat() + 0.008}
	line := Line{ptA, east, north}

	assert.InDelta(t, 90, BearingLine(line, 0.2), 1.0)
	assert.InDelta(t, 0, BearingLine(line, 0.9), 1.0)
}

func TestCircularDiff(t *testing.T) {
	assert.InDelta(t, 0, CircularDiff(10, 10), 1e-12)
	assert.InDelta(t, 20, CircularDiff(350, 10), 1e-12)
	assert.InDelta(t, 180, CircularDiff(90, 270), 1e-12)
	assert.InDelta(t, 90, CircularDiff(0, 90), 1e-12)
}
