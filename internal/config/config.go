// Package config loads the de-identification pipeline's tuning from a
// flat key=value file. Unknown keys are warned and ignored; malformed
// values for known keys fail the load.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Config is the flat record of every pipeline tunable.
type Config struct {
	// Output toggles.
	SaveMapMatch bool // save_mm
	PlotKML      bool // plot_kml
	CountPoints  bool // count_points

	// HMM map matcher.
	SigmaZ       float64 // sigma_z, meters
	MatchRadius  float64 // match_radius, meters
	MaxRouteDist float64 // max_route_dist, meters
	Lambda       float64 // lambda
	ShortenTurns bool    // shorten_turns

	// Area fitting.
	FitExt          float64 // fit_ext, meters
	ScaleMapFit     bool    // scale_map_fit
	MapFitScale     float64 // map_fit_scale
	HeadingGroups   int     // n_heading_groups
	MinEdgePoints   int     // min_edge_trip_points

	// Turn-around detector.
	TAMaxQSize     int     // ta_max_q_size
	TAAreaWidth    float64 // ta_area_width, meters
	TAMaxSpeed     float64 // ta_max_speed, m/s
	TAHeadingDelta float64 // ta_heading_delta, degrees

	// Stop detector.
	StopMaxTime     float64 // stop_max_time, seconds
	StopMinDistance float64 // stop_min_distance, meters
	StopMaxSpeed    float64 // stop_max_speed, m/s

	// Privacy intervals.
	MinDirectDistance     float64 // min_direct_distance, meters
	MaxDirectDistance     float64 // max_direct_distance, meters
	MinManhattanDistance  float64 // min_manhattan_distance, meters
	MaxManhattanDistance  float64 // max_manhattan_distance, meters
	MinOutDegree          int     // min_out_degree
	MaxOutDegree          int     // max_out_degree
	RandDirectDistance    float64 // rand_direct_distance, [0,1]
	RandManhattanDistance float64 // rand_manhattan_distance, [0,1]
	RandOutDegree         float64 // rand_out_degree, [0,1]

	// KML rendering.
	KMLStride     int  // kml_stride
	KMLSuppressDI bool // kml_suppress_di
}

// Default returns the default tuning values.
func Default() Config {
	return Config{
		SaveMapMatch: false,
		PlotKML:      false,
		CountPoints:  true,

		SigmaZ:       10,
		MatchRadius:  200,
		MaxRouteDist: 15000,
		Lambda:       0,
		ShortenTurns: true,

		FitExt:        5,
		ScaleMapFit:   false,
		MapFitScale:   1,
		HeadingGroups: 36,
		MinEdgePoints: 50,

		TAMaxQSize:     20,
		TAAreaWidth:    30,
		TAMaxSpeed:     100,
		TAHeadingDelta: 90,

		StopMaxTime:     120,
		StopMinDistance: 15,
		StopMaxSpeed:    2.5,

		MinDirectDistance:     500,
		MaxDirectDistance:     2500,
		MinManhattanDistance:  650,
		MaxManhattanDistance:  3000,
		MinOutDegree:          8,
		MaxOutDegree:          16,
		RandDirectDistance:    0,
		RandManhattanDistance: 0,
		RandOutDegree:         0,

		KMLStride:     10,
		KMLSuppressDI: false,
	}
}

// WidthScale returns the effective road-width multiplier: MapFitScale
// when ScaleMapFit is enabled, 1 otherwise.
func (c Config) WidthScale() float64 {
	if c.ScaleMapFit && c.MapFitScale > 0 {
		return c.MapFitScale
	}
	return 1
}

// Validate cross-checks threshold pairs.
func (c Config) Validate() error {
	if c.MinDirectDistance > c.MaxDirectDistance {
		return fmt.Errorf("min_direct_distance %g exceeds max_direct_distance %g", c.MinDirectDistance, c.MaxDirectDistance)
	}
	if c.MinManhattanDistance > c.MaxManhattanDistance {
		return fmt.Errorf("min_manhattan_distance %g exceeds max_manhattan_distance %g", c.MinManhattanDistance, c.MaxManhattanDistance)
	}
	if c.MinOutDegree > c.MaxOutDegree {
		return fmt.Errorf("min_out_degree %d exceeds max_out_degree %d", c.MinOutDegree, c.MaxOutDegree)
	}
	for _, r := range []struct {
		key string
		val float64
	}{
		{"rand_direct_distance", c.RandDirectDistance},
		{"rand_manhattan_distance", c.RandManhattanDistance},
		{"rand_out_degree", c.RandOutDegree},
	} {
		if r.val < 0 || r.val > 1 {
			return fmt.Errorf("%s %g outside [0,1]", r.key, r.val)
		}
	}
	if c.HeadingGroups <= 0 {
		return fmt.Errorf("n_heading_groups must be positive, got %d", c.HeadingGroups)
	}
	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "on", "yes":
		return true, nil
	case "0", "false", "off", "no":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}

// Parse reads key=value lines from r into a Config starting from the
// defaults. Blank lines and #-comments are skipped. Unknown keys are
// collected into warnings and ignored.
func Parse(r io.Reader) (Config, []string, error) {
	c := Default()
	var warnings []string

	setFloat := func(dst *float64, key, val string) error {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
		*dst = f
		return nil
	}
	setInt := func(dst *int, key, val string) error {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
		*dst = n
		return nil
	}
	setBool := func(dst *bool, key, val string) error {
		b, err := parseBool(val)
		if err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
		*dst = b
		return nil
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, val, ok := strings.Cut(line, "=")
		if !ok {
			key, val, ok = strings.Cut(line, ":")
		}
		if !ok {
			warnings = append(warnings, fmt.Sprintf("line %d: not a key=value pair: %q", lineNo, line))
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		var err error
		switch key {
		case "save_mm":
			err = setBool(&c.SaveMapMatch, key, val)
		case "plot_kml":
			err = setBool(&c.PlotKML, key, val)
		case "count_points":
			err = setBool(&c.CountPoints, key, val)
		case "sigma_z":
			err = setFloat(&c.SigmaZ, key, val)
		case "match_radius":
			err = setFloat(&c.MatchRadius, key, val)
		case "max_route_dist":
			err = setFloat(&c.MaxRouteDist, key, val)
		case "lambda":
			err = setFloat(&c.Lambda, key, val)
		case "shorten_turns":
			err = setBool(&c.ShortenTurns, key, val)
		case "fit_ext":
			err = setFloat(&c.FitExt, key, val)
		case "scale_map_fit":
			err = setBool(&c.ScaleMapFit, key, val)
		case "map_fit_scale":
			err = setFloat(&c.MapFitScale, key, val)
		case "n_heading_groups":
			err = setInt(&c.HeadingGroups, key, val)
		case "min_edge_trip_points":
			err = setInt(&c.MinEdgePoints, key, val)
		case "ta_max_q_size":
			err = setInt(&c.TAMaxQSize, key, val)
		case "ta_area_width":
			err = setFloat(&c.TAAreaWidth, key, val)
		case "ta_max_speed":
			err = setFloat(&c.TAMaxSpeed, key, val)
		case "ta_heading_delta":
			err = setFloat(&c.TAHeadingDelta, key, val)
		case "stop_max_time":
			err = setFloat(&c.StopMaxTime, key, val)
		case "stop_min_distance":
			err = setFloat(&c.StopMinDistance, key, val)
		case "stop_max_speed":
			err = setFloat(&c.StopMaxSpeed, key, val)
		case "min_direct_distance":
			err = setFloat(&c.MinDirectDistance, key, val)
		case "max_direct_distance":
			err = setFloat(&c.MaxDirectDistance, key, val)
		case "min_manhattan_distance":
			err = setFloat(&c.MinManhattanDistance, key, val)
		case "max_manhattan_distance":
			err = setFloat(&c.MaxManhattanDistance, key, val)
		case "min_out_degree":
			err = setInt(&c.MinOutDegree, key, val)
		case "max_out_degree":
			err = setInt(&c.MaxOutDegree, key, val)
		case "rand_direct_distance":
			err = setFloat(&c.RandDirectDistance, key, val)
		case "rand_manhattan_distance":
			err = setFloat(&c.RandManhattanDistance, key, val)
		case "rand_out_degree":
			err = setFloat(&c.RandOutDegree, key, val)
		case "kml_stride":
			err = setInt(&c.KMLStride, key, val)
		case "kml_suppress_di":
			err = setBool(&c.KMLSuppressDI, key, val)
		default:
			warnings = append(warnings, fmt.Sprintf("line %d: unknown key %q ignored", lineNo, key))
		}
		if err != nil {
			return c, warnings, err
		}
	}
	if err := scanner.Err(); err != nil {
		return c, warnings, err
	}
	return c, warnings, nil
}

// Load reads a config file from disk. A missing path returns the
// defaults without error only when path is empty.
func Load(path string) (Config, []string, error) {
	if path == "" {
		return Default(), nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Default(), nil, err
	}
	defer f.Close()
	return Parse(f)
}
