package gen

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"mmreg/log"
	"mmreg/svd"
)

// Job is the generation of one Go file from one SVD file.
type Job struct {
	SVD     string
	Output  string
	Options Options
}

// Run parses the SVD file, generates the source and writes it to Output.
func (j Job) Run() error {
	start := time.Now()
	dev, err := svd.ParseFile(j.SVD)
	if err != nil {
		return err
	}

	opts := j.Options
	if opts.Source == "" {
		opts.Source = j.SVD
	}
	src, err := Generate(dev, opts)
	if err != nil {
		return errors.Wrapf(err, "generate %s", j.SVD)
	}

	if dir := filepath.Dir(j.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create output directory")
		}
	}
	if err := os.WriteFile(j.Output, src, 0o644); err != nil {
		return errors.Wrap(err, "write output")
	}

	log.ModGen.InfoZ("wrote register definitions").
		String("svd", j.SVD).
		String("output", j.Output).
		Int("bytes", len(src)).
		Duration("took", time.Since(start)).
		End()
	return nil
}

// RunJobs runs all jobs concurrently. It stops scheduling new jobs after the
// first failure, which it returns.
func RunJobs(ctx context.Context, jobs []Job) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return job.Run()
		})
	}
	return g.Wait()
}
