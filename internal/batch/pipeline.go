package batch

import (
	"errors"
	"hash/fnv"
	"math/rand"

	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/areafit"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/config"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/critical"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/deident"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/dilog"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/mapmatch"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/outdegree"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/privacy"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/roadgraph"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/trace"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/traceio"
)

// ErrEmptyTrace marks a trip file with no valid samples after
// filtering; a warning is logged and no output written.
var ErrEmptyTrace = errors.New("empty trace after filtering")

// Processor runs the full per-trace pipeline: map-match, area fit,
// out-degree annotation, critical detection, privacy expansion,
// marking and suppression. The graph and config are shared read-only;
// everything else is created per trace, so one Processor may be used
// from many workers concurrently.
type Processor struct {
	Graph *roadgraph.Graph
	Cfg   config.Config

	// Seed drives the per-trace threshold randomisation. Each trace
	// derives its own deterministic stream from Seed and its uid, so
	// batch results are reproducible regardless of worker scheduling.
	Seed int64
}

// TraceResult is one trace's pipeline output.
type TraceResult struct {
	UID     string
	Header  string
	Emitted []trace.Sample

	MapMatch []traceio.MapMatchRow
	Stats    PointStats
}

func traceSeed(base int64, uid string) int64 {
	h := fnv.New64a()
	h.Write([]byte(uid))
	return base ^ int64(h.Sum64())
}

// Process runs the pipeline over one parsed trip file.
func (p *Processor) Process(res traceio.ReadResult) (*TraceResult, error) {
	out := &TraceResult{UID: res.UID, Header: res.Header}
	out.Stats.Total = int64(len(res.Samples))
	for i := range res.Samples {
		switch res.Samples[i].Error {
		case trace.ErrorField:
			out.Stats.InvalidField++
		case trace.ErrorGeo:
			out.Stats.InvalidGeo++
		case trace.ErrorHeading:
			out.Stats.InvalidHeading++
		}
	}

	tr := trace.BuildTrace(res.UID, res.Samples)
	if tr.Len() == 0 {
		return out, ErrEmptyTrace
	}

	matcher := mapmatch.NewMatcher(p.Graph, mapmatch.Params{
		SigmaZ:       p.Cfg.SigmaZ,
		SigmaA:       10,
		MatchRadius:  p.Cfg.MatchRadius,
		MaxRouteDist: p.Cfg.MaxRouteDist,
		Lambda:       p.Cfg.Lambda,
		ShortenTurns: p.Cfg.ShortenTurns,
	})
	matcher.Match(tr)

	fitter := areafit.NewFitter(p.Graph, p.Cfg.WidthScale(), p.Cfg.FitExt,
		p.Cfg.HeadingGroups, p.Cfg.MinEdgePoints)
	fit := fitter.FitTrace(tr)

	outdegree.NewCounter(p.Graph).Count(tr)

	// Critical intervals: endpoints, stops, turn-arounds.
	startEnd := critical.StartEndIntervals(tr)
	stops := critical.NewStop(p.Cfg.StopMaxTime, p.Cfg.StopMinDistance, p.Cfg.StopMaxSpeed, fit).
		FindStops(tr)
	turnArounds := critical.NewTurnAround(p.Cfg.TAMaxQSize, p.Cfg.TAAreaWidth,
		p.Cfg.TAMaxSpeed, p.Cfg.TAHeadingDelta, fit).
		FindTurnArounds(tr)

	criticalSet := deident.MergeIntervals(trace.Critical, startEnd, stops, turnArounds)
	deident.NewMarker(criticalSet).Mark(tr)
	dilog.Diagf("trace %s: %d critical intervals (%d stop, %d turn-around)",
		tr.ID, len(criticalSet), len(stops), len(turnArounds))

	// Privacy intervals around each critical interval.
	rng := rand.New(rand.NewSource(traceSeed(p.Seed, res.UID)))
	finder := privacy.NewFinder(privacy.Params{
		MinDirectDistance:     p.Cfg.MinDirectDistance,
		MaxDirectDistance:     p.Cfg.MaxDirectDistance,
		MinManhattanDistance:  p.Cfg.MinManhattanDistance,
		MaxManhattanDistance:  p.Cfg.MaxManhattanDistance,
		MinOutDegree:          p.Cfg.MinOutDegree,
		MaxOutDegree:          p.Cfg.MaxOutDegree,
		RandDirectDistance:    p.Cfg.RandDirectDistance,
		RandManhattanDistance: p.Cfg.RandManhattanDistance,
		RandOutDegree:         p.Cfg.RandOutDegree,
	}, fit, rng)
	privacySet := deident.MergeIntervals(trace.Privacy, finder.FindIntervals(tr))
	deident.NewMarker(privacySet).Mark(tr)
	dilog.Diagf("trace %s: %d privacy intervals", tr.ID, len(privacySet))

	for i := range tr.Samples {
		s := &tr.Samples[i]
		if s.Interval == nil {
			continue
		}
		if s.Interval.Type == trace.Critical {
			out.Stats.CriticalPoints++
		} else {
			out.Stats.PrivacyPoints++
		}
	}

	out.Emitted = deident.DeIdentify(tr)
	out.Stats.Emitted = int64(len(out.Emitted))

	if p.Cfg.SaveMapMatch {
		out.MapMatch = mapMatchRows(p.Graph, fit, tr)
	}

	return out, nil
}

// mapMatchRows builds the auxiliary map-match file content: one row
// per working-trace sample with the fit road's OSM way id (-1 for
// implicit fits), the explicit flag, and the cumulative out-degree.
func mapMatchRows(g *roadgraph.Graph, fit *areafit.Fit, tr *trace.Trace) []traceio.MapMatchRow {
	rows := make([]traceio.MapMatchRow, 0, tr.Len())
	for i := range tr.Samples {
		s := &tr.Samples[i]
		row := traceio.MapMatchRow{Index: s.Index, OSMID: -1, Explicit: s.IsExplicitFit, OutDegree: s.OutDegree}
		if s.IsExplicitFit && s.HasFit {
			if e := fit.Edge(s.FitEdge); e != nil {
				if r := g.Road(e.RoadID); r != nil {
					row.OSMID = r.OSMID
				}
			}
		}
		rows = append(rows, row)
	}
	return rows
}
