package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"rawconv/logger"
	"rawconv/rawdec"
)

// rawExtensions is the supported RAW extension set, matched
// case-insensitively during discovery.
var rawExtensions = map[string]bool{
	".cr2": true,
	".dng": true,
}

// Job is one planned conversion: a discovered source and its computed
// destination. Constructed during planning, consumed once by a worker.
type Job struct {
	Source string
	Dest   string
}

// BatchStats aggregates counters for one run, mutated by workers under
// the mutex.
type BatchStats struct {
	mu          sync.Mutex
	TotalFiles  int
	Converted   int
	Skipped     int
	Failed      int
	RawBytes    int64
	OutputBytes int64
}

// Processor drives a whole batch run: discovery, planning, conversion,
// progress, and the final summary.
type Processor struct {
	Config    *Config
	Converter *Converter
	Console   *logger.Console
}

func NewProcessor(cfg *Config, console *logger.Console) *Processor {
	return &Processor{
		Config: cfg,
		Converter: &Converter{
			Decoder:   rawdec.NewDCRaw(),
			Format:    cfg.Format,
			Quality:   cfg.Quality,
			ResizeMax: cfg.Resize,
		},
		Console: console,
	}
}

// Run executes the batch. It returns ErrNoInputFiles when discovery finds
// nothing, a *CollisionError when two sources map to the same destination,
// the first conversion error under the abort policy, or a *BatchError
// when the continue policy finished with failures.
func (p *Processor) Run(ctx context.Context) error {
	runID := uuid.NewString()[:8]

	files, err := collectRawFiles(p.Config.InputDir)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", p.Config.InputDir, err)
	}
	if len(files) == 0 {
		p.Console.Error("No RAW files found under %s", p.Config.InputDir)
		return ErrNoInputFiles
	}

	jobs, err := planJobs(files, p.Config.InputDir, p.Config.OutputDir, p.Config.Format)
	if err != nil {
		return err
	}

	p.Console.Info("Run %s: %d RAW files under %s (format: %s, resize: %d, quality: %d, workers: %d)",
		runID, len(jobs), p.Config.InputDir, p.Config.Format, p.Config.Resize, p.Config.Quality, p.Config.Workers)

	stats := &BatchStats{TotalFiles: len(jobs)}
	start := time.Now()

	runErr := p.processJobs(ctx, jobs, stats)

	elapsed := time.Since(start)
	p.summarize(stats, elapsed)

	if runErr != nil {
		return runErr
	}
	if stats.Failed > 0 {
		return &BatchError{Failed: stats.Failed}
	}
	return nil
}

// collectRawFiles walks dir recursively and returns every file whose
// extension matches the RAW set, sorted so processing order does not
// depend on the platform's directory ordering.
func collectRawFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if rawExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// planJobs maps each source to outputDir/<relative path> with the
// extension swapped for the output format's, and rejects plans where two
// sources land on the same destination.
func planJobs(files []string, inputDir, outputDir string, format Format) ([]Job, error) {
	jobs := make([]Job, 0, len(files))
	claimed := make(map[string]string, len(files))

	for _, src := range files {
		rel, err := filepath.Rel(inputDir, src)
		if err != nil {
			return nil, fmt.Errorf("resolving %s relative to %s: %w", src, inputDir, err)
		}

		rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + format.Ext()
		dest := filepath.Join(outputDir, rel)

		if first, ok := claimed[dest]; ok {
			return nil, &CollisionError{First: first, Second: src, Dest: dest}
		}
		claimed[dest] = src

		jobs = append(jobs, Job{Source: src, Dest: dest})
	}

	return jobs, nil
}

// processJobs runs the worker pool. With one worker (the default) jobs
// are processed sequentially in planned order. Destinations are unique by
// planning and each job's skip check runs inside the worker that owns it,
// so workers never race on an output path.
func (p *Processor) processJobs(ctx context.Context, jobs []Job, stats *BatchStats) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan Job)
	bar := p.Console.NewProgressBar(int64(len(jobs)), "Processing")

	var wg sync.WaitGroup
	var firstErr error
	var errOnce sync.Once

	for w := 0; w < p.Config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				select {
				case <-ctx.Done():
					continue
				default:
				}

				if err := p.processJob(ctx, job, stats, bar); err != nil {
					stats.mu.Lock()
					stats.Failed++
					stats.mu.Unlock()
					p.Console.Error("Failed %s: %v", job.Source, err)
					bar.Increment(1)

					if p.Config.OnError == AbortOnError {
						errOnce.Do(func() {
							firstErr = err
							cancel()
						})
					}
				}
			}
		}()
	}

	for _, job := range jobs {
		select {
		case <-ctx.Done():
		case queue <- job:
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(queue)

	wg.Wait()
	bar.Complete()

	return firstErr
}

func (p *Processor) processJob(ctx context.Context, job Job, stats *BatchStats, bar *logger.ProgressBar) error {
	if _, err := os.Stat(job.Dest); err == nil {
		p.Console.Skip("Skipping %s → %s (already exists)", job.Source, job.Dest)
		stats.mu.Lock()
		stats.Skipped++
		stats.mu.Unlock()
		bar.Increment(1)
		return nil
	}

	p.Console.Convert("Converting %s → %s", job.Source, job.Dest)

	srcInfo, err := os.Stat(job.Source)
	if err != nil {
		return &DecodeError{Path: job.Source, Err: err}
	}

	written, err := p.Converter.Convert(ctx, job.Source, job.Dest)
	if err != nil {
		return err
	}

	stats.mu.Lock()
	stats.Converted++
	stats.RawBytes += srcInfo.Size()
	stats.OutputBytes += written
	stats.mu.Unlock()
	bar.Increment(1)
	return nil
}

func (p *Processor) summarize(stats *BatchStats, elapsed time.Duration) {
	table := p.Console.NewTable([]string{"Metric", "Value"})
	table.AddRow("Total files", fmt.Sprintf("%d", stats.TotalFiles))
	table.AddRow("Converted", fmt.Sprintf("%d", stats.Converted))
	table.AddRow("Skipped", fmt.Sprintf("%d", stats.Skipped))
	table.AddRow("Failed", fmt.Sprintf("%d", stats.Failed))
	table.AddRow("RAW bytes read", fmt.Sprintf("%.2f MB", float64(stats.RawBytes)/1024/1024))
	table.AddRow("Output bytes written", fmt.Sprintf("%.2f MB", float64(stats.OutputBytes)/1024/1024))
	table.Print()

	if stats.Failed > 0 {
		p.Console.Warn("Done with failures: %d files processed in %.2fs (%d skipped, %d failed)",
			stats.TotalFiles, elapsed.Seconds(), stats.Skipped, stats.Failed)
		return
	}
	p.Console.Success("Done! %d files processed in %.2fs (%d skipped)",
		stats.TotalFiles, elapsed.Seconds(), stats.Skipped)
}
