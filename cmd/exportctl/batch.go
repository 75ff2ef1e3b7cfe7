package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/tabexport/internal/core"
	"github.com/JonMunkholm/tabexport/internal/sink"
	"github.com/JonMunkholm/tabexport/internal/source"
)

// Manifest lists the jobs of a batch run.
//
//	jobs:
//	  - input: orders.json
//	    filename: orders.csv
//	    format: csv
//	    config:
//	      excludeColumns: [internalId]
//	      columnMapping:
//	        orderNumber: "Order #"
type Manifest struct {
	Jobs []ManifestJob `yaml:"jobs"`
}

// ManifestJob is one export of a manifest. Relative inputs resolve against
// the manifest's directory.
type ManifestJob struct {
	Input    string             `yaml:"input"`
	NoHeader bool               `yaml:"noHeader,omitempty"`
	Filename string             `yaml:"filename"`
	Format   string             `yaml:"format"`
	Config   core.ConfigOptions `yaml:"config,omitempty"`

	// Err is set when the entry could not be decoded. The job is reported
	// as failed and the rest of the manifest still runs.
	Err error `yaml:"-"`
}

// LoadManifest reads and decodes a YAML manifest. Only a manifest that is
// not YAML or has no jobs fails as a whole; each job decodes on its own.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	var raw struct {
		Jobs []yaml.Node `yaml:"jobs"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if len(raw.Jobs) == 0 {
		return nil, fmt.Errorf("manifest %s has no jobs", path)
	}

	m := &Manifest{Jobs: make([]ManifestJob, len(raw.Jobs))}
	base := filepath.Dir(path)
	for i := range raw.Jobs {
		m.Jobs[i] = decodeJob(&raw.Jobs[i], i+1)
		if in := m.Jobs[i].Input; in != "" && !filepath.IsAbs(in) {
			m.Jobs[i].Input = filepath.Join(base, in)
		}
	}
	return m, nil
}

// decodeJob decodes one manifest entry. A broken entry keeps whatever plain
// fields it has so the failure can still be reported by name.
func decodeJob(node *yaml.Node, n int) ManifestJob {
	var job ManifestJob
	err := node.Decode(&job)
	if err == nil {
		return job
	}

	var names struct {
		Filename string `yaml:"filename"`
		Format   string `yaml:"format"`
	}
	node.Decode(&names)
	return ManifestJob{
		Filename: names.Filename,
		Format:   names.Format,
		Err:      fmt.Errorf("invalid manifest job %d (line %d): %w", n, node.Line, err),
	}
}

var batchFlags struct {
	out         string
	concurrency int
}

var batchCmd = &cobra.Command{
	Use:   "batch <manifest.yaml>",
	Short: "Run every export of a YAML manifest",
	Long: `Run every export listed in a YAML manifest. Jobs are independent: a job
whose input cannot be read or whose format is unsupported is reported as
failed and the rest still run. The command exits non-zero when any job failed.

PDF is not available in batches.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&batchFlags.out, "out", "o", ".", "output directory")
	batchCmd.Flags().IntVar(&batchFlags.concurrency, "concurrency", 0, "jobs run at once (default EXPORT_BATCH_CONCURRENCY)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	manifest, err := LoadManifest(args[0])
	if err != nil {
		return err
	}

	policy, err := cfg.FormatPolicy()
	if err != nil {
		return err
	}

	dir, err := sink.NewDir(batchFlags.out)
	if err != nil {
		return err
	}

	concurrency := batchFlags.concurrency
	if concurrency <= 0 {
		concurrency = cfg.Export.BatchConcurrency
	}
	exporter := core.New(dir,
		core.WithPolicy(policy),
		core.WithConcurrency(concurrency),
		core.WithLogger(slog.Default()),
	)

	jobs, readErrs := manifestJobs(ctx, manifest)
	result := runJobs(ctx, exporter, jobs, readErrs)

	printResults(cmd.OutOrStdout(), result)

	if failed := result.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d jobs failed: %w", len(failed), len(result.Results), result.Err())
	}
	return nil
}

// manifestJobs reads each job's input. readErrs[i] is set for jobs that
// failed to decode or whose input could not be read.
func manifestJobs(ctx context.Context, m *Manifest) ([]core.BatchJob, []error) {
	jobs := make([]core.BatchJob, len(m.Jobs))
	readErrs := make([]error, len(m.Jobs))

	for i, mj := range m.Jobs {
		format, err := core.ParseFormat(mj.Format)
		if err != nil {
			format = core.ExportFormat(mj.Format)
		}
		jobs[i] = core.BatchJob{
			Filename: mj.Filename,
			Format:   format,
			Config:   mj.Config.Config(),
		}

		if mj.Err != nil {
			readErrs[i] = mj.Err
			continue
		}
		if mj.Input == "" {
			readErrs[i] = fmt.Errorf("job %d: no input", i+1)
			continue
		}
		records, err := source.File{Path: mj.Input, NoHeader: mj.NoHeader}.Records(ctx)
		if err != nil {
			readErrs[i] = err
			continue
		}
		jobs[i].Records = records
	}
	return jobs, readErrs
}

// runJobs exports the jobs whose input was read and merges their results
// with the read failures, keeping manifest order.
func runJobs(ctx context.Context, exporter *core.Exporter, jobs []core.BatchJob, readErrs []error) core.BatchResult {
	results := make([]core.JobResult, len(jobs))

	var runnable []core.BatchJob
	var positions []int
	for i, job := range jobs {
		if readErrs[i] != nil {
			results[i] = core.JobResult{
				ID:       uuid.New(),
				Filename: job.Filename,
				Format:   job.Format,
				Err:      readErrs[i],
			}
			continue
		}
		runnable = append(runnable, job)
		positions = append(positions, i)
	}

	ran := exporter.ExportMultiple(ctx, runnable)
	for k, r := range ran.Results {
		results[positions[k]] = r
	}
	return core.BatchResult{Results: results}
}

func printResults(w io.Writer, result core.BatchResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "FILENAME\tFORMAT\tRECORDS\tSTATUS")
	for _, r := range result.Results {
		status := "ok"
		if r.Err != nil {
			status = "failed: " + core.FormatUserError(r.Err)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.Filename, r.Format, r.Records, status)
	}
}
