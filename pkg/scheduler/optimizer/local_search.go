package optimizer

import (
	"context"
	"time"

	"github.com/paiban/escala/pkg/errors"
	"github.com/paiban/escala/pkg/logger"
	"github.com/paiban/escala/pkg/scheduler/constraint"
	"github.com/paiban/escala/pkg/scheduler/instance"
	"github.com/paiban/escala/pkg/scheduler/solver"
)

// OptimizationConfig 优化配置
type OptimizationConfig struct {
	Kmax          int   `json:"kmax" yaml:"kmax" validate:"min=1"`                     // 最大邻域规模
	MaxIterations int   `json:"max_iterations" yaml:"max_iterations" validate:"min=0"` // 外层迭代次数
	Seed          int64 `json:"seed" yaml:"seed"`                                      // 随机种子
}

// DefaultOptConfig 默认优化配置
func DefaultOptConfig() *OptimizationConfig {
	return &OptimizationConfig{
		Kmax:          10,
		MaxIterations: 1,
		Seed:          0,
	}
}

// Result 邻域搜索结果
type Result struct {
	Start         string            `json:"start"`
	Seed          int64             `json:"seed"`
	Kmax          int               `json:"kmax"`
	MaxIterations int               `json:"max_iterations"`
	InitialCost   int               `json:"initial_cost"`
	BestCost      int               `json:"best_cost"`
	Initial       constraint.Matrix `json:"-"`
	Matrix        constraint.Matrix `json:"-"`
	Improvements  int               `json:"improvements"`
	Iterations    int               `json:"iterations"` // 完成的外层迭代
	Moves         int               `json:"moves"`      // 破坏/修复次数
	CostTrace     []int             `json:"cost_trace"` // 初始代价及每次接受后的最优代价
	Duration      time.Duration     `json:"duration"`
}

// VNS 变邻域搜索
//
// 每次外层迭代从 k=1 开始：从最优解恢复，破坏 k 个人的一个班段后修复；
// 严格更优则接受并回到 k=1，否则 k 增加 2，直到超过 kmax。
type VNS struct {
	inst     *instance.Instance
	rc       *solver.RandomConstructor
	provider InitialSolutionProvider
	seed     int64
	logger   *logger.SchedulerLogger
}

// NewVNS 创建变邻域搜索
func NewVNS(inst *instance.Instance, provider InitialSolutionProvider, seed int64) *VNS {
	if provider == nil {
		provider = RandomStart{}
	}
	return &VNS{
		inst:     inst,
		rc:       solver.NewRandomConstructor(inst, seed),
		provider: provider,
		seed:     seed,
		logger:   logger.NewSchedulerLogger(),
	}
}

// WithLogger 设置日志器（通常附带运行ID）
func (v *VNS) WithLogger(l *logger.SchedulerLogger) *VNS {
	v.logger = l
	return v
}

// Constructor 返回底层构造器
func (v *VNS) Constructor() *solver.RandomConstructor { return v.rc }

// Run 执行搜索
//
// 上下文取消时返回目前为止的最优解以及 ctx.Err()。
func (v *VNS) Run(ctx context.Context, kmax, maxIterations int) (*Result, error) {
	if kmax < 1 {
		return nil, errors.InvalidInput("kmax", "必须大于等于1")
	}
	if maxIterations < 0 {
		return nil, errors.InvalidInput("max_iterations", "不能为负数")
	}

	start := time.Now()
	v.logger.StartSchedule(v.provider.Name(), v.inst.PeopleCount(), v.inst.SlotCount())

	v.rc.Reset()
	initial, err := v.provider.Initial(v.rc)
	if err != nil {
		return nil, err
	}
	v.logger.InitialSolution(v.provider.Name(), initial)

	best := v.rc.Matrix()
	bestCost := initial
	result := &Result{
		Start:         v.provider.Name(),
		Seed:          v.seed,
		Kmax:          kmax,
		MaxIterations: maxIterations,
		InitialCost:   initial,
		Initial:       best.Clone(),
		CostTrace:     []int{initial},
	}

	finish := func(runErr error) (*Result, error) {
		if err := v.rc.Load(best); err != nil {
			return nil, err
		}
		result.BestCost = bestCost
		result.Matrix = best
		result.Duration = time.Since(start)
		v.logger.SearchComplete(result.Duration, initial, bestCost)
		return result, runErr
	}

	if v.inst.PeopleCount() == 0 {
		return finish(nil)
	}

	// k 只在严格改进时回到 1；首轮结束后阶梯已越过 kmax，后续迭代不再移动
	ladder := NewLadder(kmax)
	for it := 0; it < maxIterations; it++ {
		for ladder.Active() {
			if err := ctx.Err(); err != nil {
				return finish(err)
			}

			if err := v.rc.Load(best); err != nil {
				return nil, err
			}
			Destroy(v.rc, ladder.K())
			cost := Repair(v.rc)
			result.Moves++

			if cost < bestCost {
				best = v.rc.Matrix()
				bestCost = cost
				result.Improvements++
				result.CostTrace = append(result.CostTrace, bestCost)
				v.logger.Improvement(it, ladder.K(), bestCost)
				ladder.Reset()
				continue
			}
			ladder.Next()
		}
		result.Iterations++
	}

	return finish(nil)
}

// Optimize 按配置执行一次完整搜索
func Optimize(ctx context.Context, inst *instance.Instance, provider InitialSolutionProvider, cfg *OptimizationConfig) (*Result, error) {
	if cfg == nil {
		cfg = DefaultOptConfig()
	}
	return NewVNS(inst, provider, cfg.Seed).Run(ctx, cfg.Kmax, cfg.MaxIterations)
}
