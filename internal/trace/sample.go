// Package trace defines the Sample/Trace data model shared by every
// pipeline stage: the validated GPS fix sequence for one vehicle trip,
// plus the mutable per-sample annotations (matched edge, fit edge,
// interval, out-degree) each pipeline stage writes as the sole owner
// of the fields it produces.
package trace

import (
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/geo"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/roadgraph"
)

// ErrorKind classifies why a sample failed validation at model entry.
type ErrorKind int

const (
	// ErrorNone marks a sample that passed validation.
	ErrorNone ErrorKind = iota
	// ErrorField marks a row with the wrong column count or an
	// unparseable numeric field.
	ErrorField
	// ErrorGeo marks a sample with an out-of-range or degenerate
	// lat/lon.
	ErrorGeo
	// ErrorHeading marks a sample whose heading is outside [0,360].
	ErrorHeading
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "None"
	case ErrorField:
		return "Field"
	case ErrorGeo:
		return "Geo"
	case ErrorHeading:
		return "Heading"
	default:
		return "Unknown"
	}
}

// Sample is one GPS fix in a Trace.
//
// Index equals the sample's position in the trace after filtering;
// RawIndex is its position in the original source file. Once Interval
// is set it is never cleared. OutDegree is non-decreasing along the
// trace. A sample with ErrorKind != ErrorNone never receives a
// MatchedEdge.
type Sample struct {
	ID       string
	Index    int
	RawIndex int

	Timestamp int64 // milliseconds, or a consistent monotonic integer

	Point geo.Point // (lon, lat)

	Azimuth    float64 // degrees from north, [0,360)
	HasAzimuth bool

	Speed float64 // m/s

	Record string
	Valid  bool
	Error  ErrorKind

	// Mutable annotations, each written by exactly one pipeline stage.
	MatchedEdge   roadgraph.EdgeID
	HasMatched    bool
	FitEdge       roadgraph.EdgeID
	HasFit        bool
	IsExplicitFit bool
	Interval      *Interval
	OutDegree     int
}

// Lat returns the sample's latitude.
func (s *Sample) Lat() float64 { return s.Point.Lat() }

// Lon returns the sample's longitude.
func (s *Sample) Lon() float64 { return s.Point.Lon() }

// Suppressed reports whether the sample falls inside a critical or
// privacy interval and must be dropped from de-identified output.
func (s *Sample) Suppressed() bool {
	return s.Interval != nil
}
