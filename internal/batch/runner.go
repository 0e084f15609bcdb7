package batch

import (
	"context"
	"time"

	"call-qa-go/internal/logger"
	"call-qa-go/internal/report"
	"call-qa-go/internal/scanner"
	"call-qa-go/internal/types"
)

// RunStats summarizes one whole invocation across folders.
type RunStats struct {
	Folders    int
	Files      int
	Successful int
	Failed     int
	Elapsed    time.Duration
}

// Runner drives the full batch: discovery, per-folder scheduling, and
// report persistence.
type Runner struct {
	sched      *Scheduler
	outputDir  string
	exportXLSX bool
	runID      string
	log        *logger.Logger
}

func NewRunner(sched *Scheduler, outputDir string, exportXLSX bool, runID string, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Quiet()
	}
	return &Runner{
		sched:      sched,
		outputDir:  outputDir,
		exportXLSX: exportXLSX,
		runID:      runID,
		log:        log.WithModule("runner"),
	}
}

// ProcessRoot discovers source folders under root and writes one report
// per folder that contains at least one recording. Item failures only
// show up inside reports; the run itself keeps going.
func (r *Runner) ProcessRoot(ctx context.Context, root string) (RunStats, error) {
	start := time.Now()
	var stats RunStats

	folders, err := scanner.Scan(root)
	if err != nil {
		return stats, err
	}
	if len(folders) == 0 {
		r.log.WithField("root", root).Warn("no audio files found in directory or its subdirectories")
		stats.Elapsed = time.Since(start)
		return stats, nil
	}

	for _, folder := range folders {
		log := r.log.WithField("folder", folder.Name)
		log.WithField("files", len(folder.Items)).Info("processing folder")

		results := r.sched.RunAll(ctx, folder.Items)
		if !Aligned(folder.Items, results) {
			log.Error("results misaligned with discovery order")
		}
		rep := report.Aggregate(folder.Name, results)
		rep.RunID = r.runID

		stats.Folders++
		stats.Files += rep.TotalFiles
		stats.Successful += rep.SuccessfulFiles
		stats.Failed += rep.FailedFiles

		path, err := report.WriteJSON(rep, r.outputDir)
		if err != nil {
			log.WithError(err).Error("failed to write report")
			continue
		}
		log.WithField("report", path).
			WithField("successful", rep.SuccessfulFiles).
			WithField("failed", rep.FailedFiles).
			Info("report written")

		if r.exportXLSX {
			if path, err := report.WriteWorkbook(rep, r.outputDir); err != nil {
				log.WithError(err).Warn("failed to write scorecard workbook")
			} else {
				log.WithField("workbook", path).Info("scorecard written")
			}
		}
	}

	stats.Elapsed = time.Since(start)
	r.log.WithField("folders", stats.Folders).
		WithField("files", stats.Files).
		WithField("failed", stats.Failed).
		WithField("elapsed_s", int(stats.Elapsed.Seconds())).
		Info("run complete")
	return stats, nil
}

// Aligned checks the ordering contract: one result per item, matched by
// index.
func Aligned(items []types.AudioItem, results []types.ItemResult) bool {
	if len(items) != len(results) {
		return false
	}
	for i := range items {
		if items[i].Path != results[i].FilePath {
			return false
		}
	}
	return true
}
