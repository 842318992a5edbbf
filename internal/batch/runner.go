// Package batch drives the de-identification pipeline over a batch of
// trip files: a bounded queue of file descriptors consumed by a pool
// of workers, each running the full per-trace pipeline in isolation,
// with a shared point-statistics counter aggregated at the end.
package batch

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"

	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/dilog"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/fsutil"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/timeutil"
	"github.com/usdot-its-jpo-data-portal/privacy-protection-application-sub000/internal/traceio"
)

// Runner owns the batch run: the processor, the output directory, and
// the worker pool configuration.
type Runner struct {
	Proc    *Processor
	OutDir  string
	Threads int

	FS    fsutil.FileSystem
	Clock timeutil.Clock
}

// ClampThreads bounds a requested worker count to
// [1, hardware_threads + hardware_threads/2].
func ClampThreads(n int) int {
	hw := runtime.NumCPU()
	max := hw + hw/2
	if n < 1 {
		return 1
	}
	if n > max {
		return max
	}
	return n
}

// ReadBatchFile reads the list of trip-file paths, one per line,
// skipping blank lines and #-comments.
func ReadBatchFile(fs fsutil.FileSystem, path string) ([]string, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("batch file: %w", err)
	}
	var paths []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	return paths, scanner.Err()
}

// Run processes every trip file in the batch list and returns the
// aggregated point statistics. Workers consume from a shared queue;
// closing the queue is the per-worker shutdown sentinel. Per-trace
// failures are logged and skipped; only batch-level input failures
// are returned.
func (r *Runner) Run(batchFile string) (PointStats, error) {
	if r.FS == nil {
		r.FS = fsutil.OSFileSystem{}
	}
	if r.Clock == nil {
		r.Clock = timeutil.RealClock{}
	}

	runID := uuid.New()
	started := r.Clock.Now()

	paths, err := ReadBatchFile(r.FS, batchFile)
	if err != nil {
		return PointStats{}, err
	}

	threads := ClampThreads(r.Threads)
	dilog.Opsf("run %s: %d trip files, %d workers", runID, len(paths), threads)

	queue := make(chan string, threads)
	done := make(chan struct{}, threads)
	counts := &counter{}

	for w := 0; w < threads; w++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for path := range queue {
				r.processFile(runID, path, counts)
			}
		}()
	}

	for _, p := range paths {
		queue <- p
	}
	close(queue)
	for w := 0; w < threads; w++ {
		<-done
	}

	stats := counts.snapshot()
	dilog.Opsf("run %s: done in %s: total=%d invalid_field=%d invalid_geo=%d invalid_heading=%d critical=%d privacy=%d emitted=%d",
		runID, r.Clock.Since(started), stats.Total, stats.InvalidField, stats.InvalidGeo,
		stats.InvalidHeading, stats.CriticalPoints, stats.PrivacyPoints, stats.Emitted)
	return stats, nil
}

// processFile runs one trip file end to end: read, pipeline, write.
// Every failure is local to the file.
func (r *Runner) processFile(runID uuid.UUID, path string, counts *counter) {
	f, err := r.FS.Open(path)
	if err != nil {
		dilog.Opsf("run %s: %s: open: %v", runID, path, err)
		return
	}
	res, err := traceio.ReadTrace(f)
	f.Close()
	if err != nil {
		dilog.Opsf("run %s: %s: read: %v", runID, path, err)
		return
	}
	if res.UID == "" {
		res.UID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	dilog.Opsf("run %s: trace %s: start (%d rows)", runID, res.UID, len(res.Samples))

	out, err := r.Proc.Process(res)
	if out != nil && r.Proc.Cfg.CountPoints {
		counts.add(out.Stats)
	}
	if err == ErrEmptyTrace {
		dilog.Opsf("run %s: trace %s: empty after filtering, no output", runID, res.UID)
		return
	}
	if err != nil {
		dilog.Opsf("run %s: trace %s: %v", runID, res.UID, err)
		return
	}

	if err := r.writeOutputs(out); err != nil {
		dilog.Opsf("run %s: trace %s: write: %v", runID, res.UID, err)
		return
	}
	dilog.Opsf("run %s: trace %s: emitted %d of %d", runID, res.UID, out.Stats.Emitted, out.Stats.Total)
}

func (r *Runner) writeOutputs(out *TraceResult) error {
	if err := r.FS.MkdirAll(r.OutDir, 0o755); err != nil {
		return err
	}

	w, err := r.FS.Create(filepath.Join(r.OutDir, out.UID+".di.csv"))
	if err != nil {
		return err
	}
	if err := traceio.WriteTrace(w, out.Header, out.Emitted); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	if r.Proc.Cfg.SaveMapMatch {
		mm, err := r.FS.Create(filepath.Join(r.OutDir, out.UID+".mm.csv"))
		if err != nil {
			return err
		}
		if err := traceio.WriteMapMatch(mm, out.MapMatch); err != nil {
			mm.Close()
			return err
		}
		if err := mm.Close(); err != nil {
			return err
		}
	}
	return nil
}
