package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// BatchJob is one export of a batch.
type BatchJob struct {
	Records  []Record
	Filename string // Overrides Config.Filename
	Format   ExportFormat
	Config   ExportConfig
}

// JobResult reports the outcome of one BatchJob.
type JobResult struct {
	ID       uuid.UUID
	Filename string
	Format   ExportFormat
	Records  int
	Err      error
}

// BatchResult holds job results in declaration order.
type BatchResult struct {
	Results []JobResult
}

// Failed returns the results of jobs that did not export.
func (b BatchResult) Failed() []JobResult {
	var failed []JobResult
	for _, r := range b.Results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

// Err joins the errors of all failed jobs, or returns nil.
func (b BatchResult) Err() error {
	var errs []error
	for _, r := range b.Results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Filename, r.Err))
		}
	}
	return errors.Join(errs...)
}

// ExportMultiple runs every job as an independent csv, excel or json export.
// A failing job does not stop the others. Up to the configured concurrency
// jobs run at once; results keep the order of jobs.
func (e *Exporter) ExportMultiple(ctx context.Context, jobs []BatchJob) BatchResult {
	results := make([]JobResult, len(jobs))

	var g errgroup.Group
	g.SetLimit(e.concurrency)

	for i, job := range jobs {
		results[i] = JobResult{
			ID:       uuid.New(),
			Filename: job.Filename,
			Format:   job.Format,
			Records:  len(job.Records),
		}

		g.Go(func() error {
			results[i].Err = e.runJob(ctx, job)
			// Job failures are reported per result, never through the group.
			return nil
		})
	}
	_ = g.Wait()

	return BatchResult{Results: results}
}

func (e *Exporter) runJob(ctx context.Context, job BatchJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := job.Config
	cfg.Filename = job.Filename

	switch job.Format {
	case FormatCSV, FormatExcel, FormatJSON:
		return e.export(ctx, job.Format, job.Records, cfg)
	}
	return exportError(job.Format, len(job.Records), fmt.Errorf("%w: %q", ErrUnsupportedFormat, job.Format))
}
