// Package experiment 按月份批量运行随机构造与邻域搜索，汇总为结果表
package experiment

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/escala/internal/config"
	"github.com/paiban/escala/internal/dataset"
	"github.com/paiban/escala/internal/metrics"
	"github.com/paiban/escala/internal/repository"
	apperrors "github.com/paiban/escala/pkg/errors"
	"github.com/paiban/escala/pkg/logger"
	"github.com/paiban/escala/pkg/scheduler/instance"
	"github.com/paiban/escala/pkg/scheduler/optimizer"
	"github.com/paiban/escala/pkg/stats"
)

// RunStore 运行记录存储
type RunStore interface {
	Create(ctx context.Context, run *repository.Run) error
	CreateAssignments(ctx context.Context, runID uuid.UUID, assignments []repository.Assignment) error
}

// Runner 参数扫描执行器
type Runner struct {
	sweep *config.Sweep
	store RunStore
}

// NewRunner 创建执行器，store 为 nil 时不持久化
func NewRunner(sweep *config.Sweep, store RunStore) *Runner {
	return &Runner{sweep: sweep, store: store}
}

// Summary 一次扫描的汇总
type Summary struct {
	Table     *Table
	Runs      int
	Persisted int
	Duration  time.Duration
}

// rowKey 与运行参数对应的行名
func rowKey(metric string, seed int64, kmax, maxIter int) string {
	return fmt.Sprintf("%s - Seed: %d - k_max: %d - max_iter%d", metric, seed, kmax, maxIter)
}

// warmSchedulePath 某月份热启动排班文件
func warmSchedulePath(dir, month string) string {
	return filepath.Join(dir, month+"_schedule.json")
}

// Run 执行全部月份，返回结果表
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{Table: NewTable()}

	for _, m := range r.sweep.Months {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := r.runMonth(ctx, m, summary); err != nil {
			return summary, fmt.Errorf("月份 %s: %w", m.Month, err)
		}
	}

	summary.Duration = time.Since(start)
	logger.Info().
		Int("months", len(r.sweep.Months)).
		Int("runs", summary.Runs).
		Int("persisted", summary.Persisted).
		Dur("duration", summary.Duration).
		Msg("参数扫描完成")
	return summary, nil
}

func (r *Runner) runMonth(ctx context.Context, m config.SweepMonth, summary *Summary) error {
	restrictions, err := dataset.Month(r.sweep.DataDir, r.sweep.CatalogFile, m.Month, r.sweep.LimitsFor(m))
	if err != nil {
		return err
	}
	inst, err := instance.New(restrictions)
	if err != nil {
		return err
	}

	t := summary.Table
	t.Set("People", m.Month, inst.PeopleCount())
	t.Set("Shifts", m.Month, len(restrictions.Shifts))
	t.Set("MinShifts", m.Month, m.MinShifts)

	results, err := r.execute(ctx, inst, m.Month, r.jobs(optimizer.RandomStart{}), summary)
	if err != nil {
		return err
	}

	if r.sweep.WarmStart {
		path := warmSchedulePath(r.sweep.DataDir, m.Month)
		ext, err := dataset.LoadExternalSchedule(path)
		switch {
		case err == nil:
			warm, err := r.execute(ctx, inst, m.Month, r.jobs(optimizer.WarmStart{Schedule: ext}), summary)
			if err != nil && !apperrors.Is(err, apperrors.CodeIncompatibleSchedule) {
				return err
			}
			if err != nil {
				logger.Warn().Err(err).Str("month", m.Month).Msg("热启动排班与实例不兼容，跳过")
			}
			results = append(results, warm...)
		case errors.Is(err, fs.ErrNotExist):
			logger.Warn().Str("month", m.Month).Str("path", path).Msg("缺少热启动排班，跳过")
		default:
			return err
		}
	}

	if best := optimizer.Best(results); best != nil {
		cov := stats.NewCoverageAnalyzer().Analyze(inst, best.Result.Matrix)
		t.Set("BestCost", m.Month, best.Result.BestCost)
		t.Set("Coverage", m.Month, fmt.Sprintf("%.4f", cov.OverallCoverage))
		metrics.SetCoverageRate(m.Month, cov.OverallCoverage)
	}
	return nil
}

// execute 并行执行一组运行，记录结果并按需持久化
func (r *Runner) execute(ctx context.Context, inst *instance.Instance, month string, jobs []optimizer.Job, summary *Summary) ([]optimizer.JobResult, error) {
	done := metrics.TrackActiveRun()
	results, err := optimizer.RunParallel(ctx, inst, jobs, r.sweep.Workers)
	done()

	for _, jr := range results {
		if jr.Result == nil {
			if jr.Err != nil {
				metrics.RecordVNSRun(jr.Job.Provider.Name(), month, false, 0, 0, 0)
			}
			continue
		}
		res := jr.Result
		metrics.RecordVNSRun(res.Start, month, jr.Err == nil, res.Improvements, res.BestCost, res.Duration)
		if jr.Err != nil {
			continue
		}
		summary.Runs++
		r.record(summary.Table, month, res)

		if r.store != nil {
			if perr := r.persist(ctx, month, inst, res); perr != nil {
				return results, perr
			}
			summary.Persisted++
		}
	}
	return results, err
}

// jobs 生成种子与 kmax 的全部组合
func (r *Runner) jobs(provider optimizer.InitialSolutionProvider) []optimizer.Job {
	var jobs []optimizer.Job
	for _, seed := range r.sweep.Seeds {
		for _, kmax := range r.sweep.Kmax {
			jobs = append(jobs, optimizer.Job{
				Name:     fmt.Sprintf("%s-s%d-k%d", provider.Name(), seed, kmax),
				Provider: provider,
				Config: optimizer.OptimizationConfig{
					Kmax:          kmax,
					MaxIterations: r.sweep.MaxIterations,
					Seed:          seed,
				},
			})
		}
	}
	return jobs
}

// record 写入一次运行的初始代价、最优代价和耗时
func (r *Runner) record(t *Table, month string, res *optimizer.Result) {
	initial, best := "Cost(Random)", "Cost(VNS)"
	if res.Start == optimizer.StartWarm {
		initial, best = "Cost(Warm)", "Cost(VNS Warm)"
	}
	t.Set(rowKey(initial, res.Seed, res.Kmax, res.MaxIterations), month, res.InitialCost)
	t.Set(rowKey(best, res.Seed, res.Kmax, res.MaxIterations), month, res.BestCost)
	t.Set(rowKey("Duration", res.Seed, res.Kmax, res.MaxIterations), month, fmt.Sprintf("%.6f", res.Duration.Seconds()))
}

func (r *Runner) persist(ctx context.Context, month string, inst *instance.Instance, res *optimizer.Result) error {
	run := repository.NewRun(month, res)
	if err := r.store.Create(ctx, run); err != nil {
		return err
	}
	return r.store.CreateAssignments(ctx, run.ID, repository.AssignmentsFromMatrix(inst.People(), res.Matrix))
}
