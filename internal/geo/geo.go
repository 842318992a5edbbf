package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// Point is a WGS-84 coordinate, (lon, lat) as orb convention.
type Point = orb.Point

// Line is an ordered polyline of WGS-84 points.
type Line = orb.LineString

// clampUnit clamps f into [0,1].
func clampUnit(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// normalizeBearing folds a bearing in degrees into [0,360).
func normalizeBearing(b float64) float64 {
	b = math.Mod(b, 360)
	if b < 0 {
		b += 360
	}
	return b
}

// Distance returns the geodesic distance between A and B, in meters.
func Distance(a, b Point) float64 {
	return orbgeo.Distance(a, b)
}

// initialBearing returns the normalized initial bearing, in degrees
// from north, of the geodesic from a to b.
func initialBearing(a, b Point) float64 {
	if a == b {
		return 0
	}
	return normalizeBearing(orbgeo.Bearing(a, b))
}

// finalBearing returns the normalized bearing of arrival at b when
// travelling the geodesic from a to b.
func finalBearing(a, b Point) float64 {
	if a == b {
		return 0
	}
	return normalizeBearing(orbgeo.Bearing(b, a) + 180)
}

// Bearing returns the bearing (degrees from north, [0,360)) along the
// geodesic A->B at the given fraction. fraction<=0 returns the
// initial bearing; fraction>=1 returns the final bearing (bearing of
// arrival); intermediate values interpolate direction along the curve
// by sampling a short chord straddling the fraction.
func Bearing(a, b Point, fraction float64) float64 {
	if fraction <= 0 {
		return initialBearing(a, b)
	}
	if fraction >= 1 {
		return finalBearing(a, b)
	}
	const delta = 1e-6
	lo := fraction - delta
	if lo < 0 {
		lo = 0
	}
	hi := fraction + delta
	if hi > 1 {
		hi = 1
	}
	p0 := Interpolate(a, b, lo)
	p1 := Interpolate(a, b, hi)
	if p0 == p1 {
		return initialBearing(a, b)
	}
	return normalizeBearing(orbgeo.Bearing(p0, p1))
}

// Interpolate returns the point at fraction f along the geodesic A->B.
// f is clamped to [0,1].
func Interpolate(a, b Point, f float64) Point {
	f = clampUnit(f)
	if f == 0 {
		return a
	}
	if f == 1 {
		return b
	}
	total := Distance(a, b)
	if total < Epsilon {
		return a
	}
	brg := initialBearing(a, b)
	return orbgeo.PointAtBearingAndDistance(a, brg, f*total)
}

// lineLength returns the total geodesic length of a polyline.
func lineLength(line Line) float64 {
	var total float64
	for i := 1; i < len(line); i++ {
		total += Distance(line[i-1], line[i])
	}
	return total
}

// LineLength exposes the total geodesic length of a polyline.
func LineLength(line Line) float64 {
	return lineLength(line)
}

// InterpolateLine returns the point at fraction f (of total geodesic
// length) along the polyline. f is clamped to [0,1].
func InterpolateLine(line Line, f float64) Point {
	if len(line) == 0 {
		return Point{}
	}
	if len(line) == 1 {
		return line[0]
	}
	f = clampUnit(f)
	total := lineLength(line)
	if total < Epsilon {
		return line[0]
	}
	target := f * total
	var covered float64
	for i := 1; i < len(line); i++ {
		segLen := Distance(line[i-1], line[i])
		if covered+segLen >= target || i == len(line)-1 {
			remaining := target - covered
			segFrac := 1.0
			if segLen > Epsilon {
				segFrac = remaining / segLen
			}
			return Interpolate(line[i-1], line[i], segFrac)
		}
		covered += segLen
	}
	return line[len(line)-1]
}

// gnomonicProject projects p onto a tangent plane centered at center,
// returning planar (x,y) coordinates in meters. Standard forward
// Gnomonic (central) projection.
func gnomonicProject(center, p Point) (x, y float64) {
	lat0 := center.Lat() * math.Pi / 180
	lon0 := center.Lon() * math.Pi / 180
	lat := p.Lat() * math.Pi / 180
	lon := p.Lon() * math.Pi / 180

	cosc := math.Sin(lat0)*math.Sin(lat) + math.Cos(lat0)*math.Cos(lat)*math.Cos(lon-lon0)
	if math.Abs(cosc) < Epsilon {
		cosc = Epsilon
	}
	x = EarthRadiusMeters * math.Cos(lat) * math.Sin(lon-lon0) / cosc
	y = EarthRadiusMeters * (math.Cos(lat0)*math.Sin(lat) - math.Sin(lat0)*math.Cos(lat)*math.Cos(lon-lon0)) / cosc
	return x, y
}

// Intercept returns the fractional position on segment A->B of the
// foot of the geodesic perpendicular dropped from C. The value is
// unclamped: 0 and 1 are the segment endpoints, values outside [0,1]
// mean C projects beyond the segment. Implemented by iterating a
// Gnomonic projection centered on the current foot estimate until the
// foot stops moving (or interceptIterations is exhausted).
func Intercept(a, b, c Point) float64 {
	if a == b {
		return 0
	}
	f := 0.5
	foot := Interpolate(a, b, f)
	for i := 0; i < interceptIterations; i++ {
		ax, ay := gnomonicProject(foot, a)
		bx, by := gnomonicProject(foot, b)
		cx, cy := gnomonicProject(foot, c)

		dx, dy := bx-ax, by-ay
		denom := dx*dx + dy*dy
		var t float64
		if denom < Epsilon {
			t = 0
		} else {
			t = ((cx-ax)*dx + (cy-ay)*dy) / denom
		}
		f = t
		newFoot := Interpolate(a, b, clampUnit(f))
		dLat := newFoot.Lat() - foot.Lat()
		dLon := newFoot.Lon() - foot.Lon()
		foot = newFoot
		if math.Abs(dLat) < interceptTolerance && math.Abs(dLon) < interceptTolerance {
			break
		}
	}
	return f
}

// InterceptLine returns the fractional position along the full
// polyline's geodesic length that minimizes point-to-line distance
// from c. For each segment the clamped foot is computed and the
// segment with the smallest foot-to-c distance wins.
func InterceptLine(line Line, c Point) float64 {
	if len(line) == 0 {
		return 0
	}
	if len(line) == 1 {
		return 0
	}
	total := lineLength(line)
	if total < Epsilon {
		return 0
	}

	bestDist := math.Inf(1)
	bestFrac := 0.0
	var covered float64
	for i := 1; i < len(line); i++ {
		a, b := line[i-1], line[i]
		segLen := Distance(a, b)
		t := clampUnit(Intercept(a, b, c))
		foot := Interpolate(a, b, t)
		d := Distance(foot, c)
		if d < bestDist {
			bestDist = d
			bestFrac = (covered + t*segLen) / total
		}
		covered += segLen
	}
	return bestFrac
}

// RectRing builds a 5-vertex closed rectangular ring whose long edges
// run parallel to the A->B geodesic, offset by width/2 on each side,
// with both ends optionally extended by ext meters.
func RectRing(a, b Point, width, ext float64) orb.Ring {
	brg := initialBearing(a, b)
	left := normalizeBearing(brg - 90)
	right := normalizeBearing(brg + 90)
	half := width / 2

	startPt := a
	endPt := b
	if ext > 0 {
		startPt = orbgeo.PointAtBearingAndDistance(a, normalizeBearing(brg+180), ext)
		endPt = orbgeo.PointAtBearingAndDistance(b, brg, ext)
	}

	c1 := orbgeo.PointAtBearingAndDistance(startPt, right, half)
	c2 := orbgeo.PointAtBearingAndDistance(endPt, right, half)
	c3 := orbgeo.PointAtBearingAndDistance(endPt, left, half)
	c4 := orbgeo.PointAtBearingAndDistance(startPt, left, half)

	return orb.Ring{c1, c2, c3, c4, c1}
}

// EnvelopeForRadius returns the axis-aligned lat/lon bounding
// rectangle covering every point within r meters of p.
func EnvelopeForRadius(p Point, r float64) orb.Bound {
	north := orbgeo.PointAtBearingAndDistance(p, 0, r)
	south := orbgeo.PointAtBearingAndDistance(p, 180, r)
	east := orbgeo.PointAtBearingAndDistance(p, 90, r)
	west := orbgeo.PointAtBearingAndDistance(p, 270, r)

	return orb.Bound{
		Min: orb.Point{west.Lon(), south.Lat()},
		Max: orb.Point{east.Lon(), north.Lat()},
	}
}

// BearingLine returns the bearing (degrees from north, [0,360)) of
// the polyline segment containing fraction f of the line's total
// geodesic length, at the in-segment position.
func BearingLine(line Line, f float64) float64 {
	if len(line) < 2 {
		return 0
	}
	f = clampUnit(f)
	total := lineLength(line)
	if total < Epsilon {
		return initialBearing(line[0], line[len(line)-1])
	}
	target := f * total
	var covered float64
	for i := 1; i < len(line); i++ {
		segLen := Distance(line[i-1], line[i])
		if covered+segLen >= target || i == len(line)-1 {
			segFrac := 1.0
			if segLen > Epsilon {
				segFrac = clampUnit((target - covered) / segLen)
			}
			return Bearing(line[i-1], line[i], segFrac)
		}
		covered += segLen
	}
	return finalBearing(line[len(line)-2], line[len(line)-1])
}

// CircularDiff returns the minimum circular difference in degrees
// between two azimuths, in [0,180].
func CircularDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// PointInRing reports whether p lies inside ring (even-odd rule).
// Points on the boundary get no special handling and may be reported
// either way.
func PointInRing(ring orb.Ring, p Point) bool {
	inside := false
	n := len(ring)
	if n < 3 {
		return false
	}
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].Lon(), ring[i].Lat()
		xj, yj := ring[j].Lon(), ring[j].Lat()
		if (yi > p.Lat()) != (yj > p.Lat()) {
			slope := (xj - xi) * (p.Lat() - yi) / (yj - yi)
			if p.Lon() < slope+xi {
				inside = !inside
			}
		}
	}
	return inside
}
