package pipeline

import (
	"context"
	"log"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Runner fans files out to parallel workers. Files are independent units
// of work with no cross-file state; only the sink is shared, and sinks
// serialize their own writes.
type Runner struct {
	processor *Processor
	sink      Sink
	reporter  ProgressReporter
	workers   int
}

// NewRunner creates a runner. workers <= 0 means one worker per CPU; a
// nil reporter disables progress reporting.
func NewRunner(p *Processor, sink Sink, reporter ProgressReporter, workers int) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if reporter == nil {
		reporter = NoOpProgressReporter{}
	}
	return &Runner{processor: p, sink: sink, reporter: reporter, workers: workers}
}

// Run processes every discovered file under root. Per-file failures are
// logged and skipped; only context cancellation or a sink failure aborts
// the batch.
func (r *Runner) Run(ctx context.Context, d *Discovery) (*Stats, error) {
	r.reporter.OnDiscoveryStart()
	files, err := d.Discover()
	if err != nil {
		return nil, err
	}
	r.reporter.OnDiscoveryComplete(len(files))

	return r.RunFiles(ctx, files, d.Abs)
}

// RunFiles processes an explicit relative-path list, resolving each to an
// absolute path through abs.
func (r *Runner) RunFiles(ctx context.Context, files []string, abs func(string) string) (*Stats, error) {
	start := time.Now()
	stats := &Stats{}
	var mu sync.Mutex

	r.reporter.OnProcessingStart(len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, relPath := range files {
		g.Go(func() error {
			records, err := r.processor.ProcessFile(ctx, abs(relPath), relPath)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("warning: skipping %s: %v", relPath, err)
				mu.Lock()
				stats.FilesSkipped++
				mu.Unlock()
				r.reporter.OnFileSkipped(relPath, err)
				return nil
			}

			for _, rec := range records {
				if err := r.sink.Write(rec); err != nil {
					return err
				}
			}

			mu.Lock()
			stats.FilesProcessed++
			stats.ChunksEmitted += len(records)
			mu.Unlock()
			r.reporter.OnFileProcessed(relPath, len(records))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.Duration = time.Since(start)
	r.reporter.OnComplete(stats)
	return stats, nil
}
