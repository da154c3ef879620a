package pipeline

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"variantgen/internal/config"
)

// BatchResult pairs a job with its outcome.
type BatchResult struct {
	Job    config.Job
	Result *Result
	Err    error
}

// RunBatch runs jobs concurrently, at most workers at a time (GOMAXPROCS
// when workers <= 0). A failing job does not stop its siblings; results
// come back in input order.
func RunBatch(ctx context.Context, jobs []config.Job, workers int, logger *zap.Logger) []BatchResult {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	out := make([]BatchResult, len(jobs))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, job := range jobs {
		g.Go(func() error {
			res, err := Run(ctx, job, logger)
			if err != nil {
				logger.Error("pipeline: job failed", zap.String("job", job.Job), zap.String("source", job.Source.Location()), zap.Error(err))
			}
			out[i] = BatchResult{Job: job, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
