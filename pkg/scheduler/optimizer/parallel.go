package optimizer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/paiban/escala/pkg/logger"
	"github.com/paiban/escala/pkg/scheduler/instance"
)

// Job 一次独立的搜索运行
type Job struct {
	Name     string
	Provider InitialSolutionProvider
	Config   OptimizationConfig
}

// JobResult 单个运行的结果
type JobResult struct {
	Job    Job
	Result *Result
	Err    error
}

// RunParallel 并行执行多个独立运行
//
// 各运行共享只读实例，各自持有搜索状态。任一运行失败时取消其余运行，
// 已完成的结果仍按输入顺序返回。
func RunParallel(ctx context.Context, inst *instance.Instance, jobs []Job, workers int) ([]JobResult, error) {
	if workers <= 0 {
		workers = 1
	}

	results := make([]JobResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	logger.Info().Int("jobs", len(jobs)).Int("workers", workers).Msg("开始并行搜索")

	for i := range jobs {
		job := jobs[i]
		g.Go(func() error {
			vns := NewVNS(inst, job.Provider, job.Config.Seed)
			if job.Name != "" {
				vns.WithLogger(logger.NewSchedulerLogger().With(job.Name))
			}
			res, err := vns.Run(gctx, job.Config.Kmax, job.Config.MaxIterations)
			results[i] = JobResult{Job: job, Result: res, Err: err}
			return err
		})
	}

	err := g.Wait()
	return results, err
}

// Best 返回代价最小的成功结果，代价相同时取靠前者
func Best(results []JobResult) *JobResult {
	var best *JobResult
	for i := range results {
		r := &results[i]
		if r.Err != nil || r.Result == nil {
			continue
		}
		if best == nil || r.Result.BestCost < best.Result.BestCost {
			best = r
		}
	}
	return best
}
