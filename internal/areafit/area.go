// Package areafit decides, per sample, whether the HMM-matched edge's
// buffered area contains the sample, and synthesises implicit edges
// for runs of samples no explicit edge area covers.
package areafit

import (
	"github.com/paulmach/orb"

	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/geo"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/roadgraph"
)

// Area is one or more rectangular linear rings covering an edge's
// polyline, one ring per polyline segment, each offset by width/2 on
// both sides and optionally extended by ext meters at the ends. A
// point lies in the area iff it lies in any ring.
type Area struct {
	EdgeID roadgraph.EdgeID
	Rings  []orb.Ring
}

// NewArea buffers the polyline into an Area. Degenerate segments
// (coincident endpoints) are skipped; a polyline with no usable
// segment yields a nil Area.
func NewArea(id roadgraph.EdgeID, line geo.Line, width, ext float64) *Area {
	if len(line) < 2 || width <= 0 {
		return nil
	}
	a := &Area{EdgeID: id}
	for i := 1; i < len(line); i++ {
		s, e := line[i-1], line[i]
		if geo.Distance(s, e) < geo.Epsilon {
			continue
		}
		a.Rings = append(a.Rings, geo.RectRing(s, e, width, ext))
	}
	if len(a.Rings) == 0 {
		return nil
	}
	return a
}

// Contains reports whether p lies inside any of the area's rings.
func (a *Area) Contains(p geo.Point) bool {
	if a == nil {
		return false
	}
	for _, r := range a.Rings {
		if geo.PointInRing(r, p) {
			return true
		}
	}
	return false
}
