// Command deident de-identifies a batch of vehicle GPS trip files:
// it map-matches each trace against an OSM road network, detects
// privacy-sensitive critical intervals (endpoints, stops,
// turn-arounds), expands them into privacy intervals, and writes each
// trace with the covered samples suppressed.
//
// Usage:
//
//	deident [flags] <batch_file>
//
// The batch file lists one trip-file path per line.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/batch"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/config"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/dilog"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/roadgraph"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/roadio"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("deident", flag.ContinueOnError)
	roadFile := fs.String("roads", "", "road network CSV file (required)")
	outDir := fs.String("out", "out", "output directory for de-identified traces")
	configFile := fs.String("config", "", "pipeline config file (key=value lines)")
	threads := fs.Int("threads", 1, "worker thread count")
	seed := fs.Int64("seed", 0, "randomisation seed for privacy thresholds")
	quiet := fs.Bool("quiet", false, "suppress diagnostic logging")
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *showVersion {
		fmt.Printf("deident %s (%s)\n", version.Version, version.GitSHA)
		return 0
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: deident [flags] <batch_file>")
		fs.PrintDefaults()
		return 1
	}
	if *roadFile == "" {
		fmt.Fprintln(os.Stderr, "deident: -roads is required")
		return 1
	}

	if *quiet {
		dilog.SetLogWriters(os.Stderr, nil, nil)
	} else {
		dilog.SetLogWriters(os.Stderr, os.Stderr, nil)
	}

	cfg, warnings, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "deident: config: %v\n", err)
		return 1
	}
	for _, w := range warnings {
		dilog.Opsf("config: %s", w)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "deident: config: %v\n", err)
		return 1
	}

	rf, err := os.Open(*roadFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "deident: roads: %v\n", err)
		return 1
	}
	roads, rejected, err := roadio.ReadRoads(rf)
	rf.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "deident: roads: %v\n", err)
		return 1
	}
	if rejected > 0 {
		dilog.Opsf("roads: %d rows rejected", rejected)
	}

	graph := roadgraph.NewGraph(roads)
	dilog.Opsf("roads: %d accepted, %d directed edges", len(graph.Roads), len(graph.Edges))

	runner := &batch.Runner{
		Proc:    &batch.Processor{Graph: graph, Cfg: cfg, Seed: *seed},
		OutDir:  *outDir,
		Threads: *threads,
	}
	if _, err := runner.Run(fs.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "deident: %v\n", err)
		return 1
	}
	return 0
}
