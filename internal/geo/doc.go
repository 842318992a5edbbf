// Package geo implements the WGS-84 geodesic primitives shared by the
// road graph, map matcher and area fitter: distance, bearing,
// interpolation, perpendicular intercept and bounding geometry.
//
// All angles are degrees; all distances are meters. Bearings are
// normalized to [0,360). Coordinates follow orb's (lon, lat) ordering.
package geo
