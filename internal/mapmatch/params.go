// Package mapmatch implements the Hidden Markov Model map matcher:
// emission and transition probabilities over road-point candidates,
// a bounded Dijkstra route cost between candidates, and a Viterbi
// trellis that recovers the matched edge for each trace sample.
package mapmatch

// Params bundles the tunables for the HMM map matcher. Zero-value
// Params is invalid; use DefaultParams().
type Params struct {
	// SigmaZ is the standard deviation (meters) of the emission
	// distance factor. Default 10.
	SigmaZ float64

	// SigmaA is the standard deviation (degrees) of the emission
	// azimuth factor. Fixed at 10.
	SigmaA float64

	// MatchRadius is the candidate search radius in meters. Default 200.
	MatchRadius float64

	// MaxRouteDist (D_max) bounds the Dijkstra route search, in
	// meters. Default 15000.
	MaxRouteDist float64

	// Lambda, when > 0, sets beta = 1/Lambda for the transition
	// probability's exponential scale. When 0 (the default), beta is
	// derived per-transition from the sample time gap instead.
	Lambda float64

	// ShortenTurns, when true, rewrites a path whose final two edges
	// are the two directions of the same road (a one-road U-turn) to
	// drop the return leg.
	ShortenTurns bool

	// MinSkipDistance and MinSkipTime gate the "keep the model warm"
	// skip: samples within these thresholds of the last accepted
	// state are skipped rather than processed or treated as a break.
	MinSkipDistance float64 // meters
	MinSkipTime     float64 // seconds
}

// DefaultParams returns the default tuning values.
func DefaultParams() Params {
	return Params{
		SigmaZ:          10,
		SigmaA:          10,
		MatchRadius:     200,
		MaxRouteDist:    15000,
		Lambda:          0,
		ShortenTurns:    true,
		MinSkipDistance: 0,
		MinSkipTime:     0,
	}
}
