package pipeline

import "time"

// Stats summarizes one pipeline run.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	ChunksEmitted  int
	Duration       time.Duration
}

// ProgressReporter receives pipeline progress callbacks. Implementations
// can draw progress bars, log, or stay silent.
type ProgressReporter interface {
	// OnDiscoveryStart is called when file discovery begins.
	OnDiscoveryStart()

	// OnDiscoveryComplete is called with the number of files found.
	OnDiscoveryComplete(files int)

	// OnProcessingStart is called before the file workers start.
	OnProcessingStart(totalFiles int)

	// OnFileProcessed is called after each successful file.
	OnFileProcessed(fileName string, chunks int)

	// OnFileSkipped is called when a file is skipped on error.
	OnFileSkipped(fileName string, err error)

	// OnComplete is called once the run finishes.
	OnComplete(stats *Stats)
}

// NoOpProgressReporter discards all progress callbacks.
type NoOpProgressReporter struct{}

func (NoOpProgressReporter) OnDiscoveryStart()                           {}
func (NoOpProgressReporter) OnDiscoveryComplete(files int)               {}
func (NoOpProgressReporter) OnProcessingStart(totalFiles int)            {}
func (NoOpProgressReporter) OnFileProcessed(fileName string, chunks int) {}
func (NoOpProgressReporter) OnFileSkipped(fileName string, err error)    {}
func (NoOpProgressReporter) OnComplete(stats *Stats)                     {}
