package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/paiban/escala/internal/config"
	"github.com/paiban/escala/internal/metrics"
	"github.com/paiban/escala/internal/repository"
	"github.com/paiban/escala/pkg/errors"
	"github.com/paiban/escala/pkg/logger"
	"github.com/paiban/escala/pkg/model"
	"github.com/paiban/escala/pkg/scheduler/constraint"
	"github.com/paiban/escala/pkg/scheduler/instance"
	"github.com/paiban/escala/pkg/scheduler/optimizer"
	"github.com/paiban/escala/pkg/scheduler/solver"
	"github.com/paiban/escala/pkg/stats"
	"github.com/paiban/escala/pkg/validator"
)

// ScheduleHandler 排班处理器
type ScheduleHandler struct {
	cfg  config.SchedulerConfig
	runs repository.RunRepositoryInterface // 为 nil 时不持久化
}

// NewScheduleHandler 创建排班处理器
func NewScheduleHandler(cfg config.SchedulerConfig, runs repository.RunRepositoryInterface) *ScheduleHandler {
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 30 * time.Second
	}
	if cfg.DefaultKmax <= 0 {
		cfg.DefaultKmax = optimizer.DefaultOptConfig().Kmax
	}
	return &ScheduleHandler{cfg: cfg, runs: runs}
}

// RandomRequest 随机构造请求
type RandomRequest struct {
	ProblemInput
	Seed int64 `json:"seed"`
}

// GreedyInput 三班制贪心排班输入
type GreedyInput struct {
	People    []model.GreedyPerson `json:"people" validate:"required,dive"`
	Vacancies []string             `json:"vacancies" validate:"required"`
}

// VNSRequest 邻域搜索请求
type VNSRequest struct {
	ProblemInput
	Seed          *int64 `json:"seed,omitempty"`
	Kmax          int    `json:"kmax,omitempty" validate:"omitempty,min=1"`
	MaxIterations *int   `json:"max_iterations,omitempty" validate:"omitempty,min=0"`
	// Runs 并行独立运行次数，种子依次递增，返回最优者
	Runs int `json:"runs,omitempty" validate:"omitempty,min=1,max=64"`
	// WarmStart 与 Greedy 二选一：直接给出外部排班，或先运行贪心排班
	WarmStart *model.ExternalSchedule `json:"warm_start,omitempty"`
	Greedy    *GreedyInput            `json:"greedy,omitempty"`
	Persist   bool                    `json:"persist,omitempty"`
}

// ScheduleResponse 排班响应
type ScheduleResponse struct {
	Success      bool                   `json:"success"`
	Partial      bool                   `json:"partial,omitempty"` // 超时或取消时的当前最优解
	Message      string                 `json:"message,omitempty"`
	RunID        string                 `json:"run_id,omitempty"`
	Start        string                 `json:"start"`
	Seed         int64                  `json:"seed"`
	InitialCost  int                    `json:"initial_cost"`
	Cost         int                    `json:"cost"`
	Improvements int                    `json:"improvements,omitempty"`
	Iterations   int                    `json:"iterations,omitempty"`
	Moves        int                    `json:"moves,omitempty"`
	CostTrace    []int                  `json:"cost_trace,omitempty"`
	Schedule     map[string][]string    `json:"schedule"`
	People       []stats.PersonStat     `json:"people"`
	Coverage     *stats.CoverageMetrics `json:"coverage"`
	Runs         []RunSummary           `json:"runs,omitempty"`
	Duration     string                 `json:"duration"`
}

// RunSummary 并行运行中单次运行的摘要
type RunSummary struct {
	Seed        int64  `json:"seed"`
	InitialCost int    `json:"initial_cost"`
	Cost        int    `json:"cost"`
	Error       string `json:"error,omitempty"`
}

// Random 只运行随机构造
func (h *ScheduleHandler) Random(w http.ResponseWriter, r *http.Request) {
	var req RandomRequest
	if err := decodeRequest(r, &req); err != nil {
		respondError(w, err)
		return
	}
	inst, appErr := req.instance()
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	start := time.Now()
	rc := solver.NewRandomConstructor(inst, req.Seed)
	cost := rc.RandomSchedule()
	x := rc.Matrix()

	resp := buildResponse(inst, x)
	resp.Start = optimizer.StartRandom
	resp.Seed = req.Seed
	resp.InitialCost = cost
	resp.Cost = cost
	resp.Duration = time.Since(start).String()
	respondJSON(w, http.StatusOK, resp)
}

// VNS 运行变邻域搜索
func (h *ScheduleHandler) VNS(w http.ResponseWriter, r *http.Request) {
	var req VNSRequest
	if err := decodeRequest(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.WarmStart != nil && req.Greedy != nil {
		respondError(w, errors.New(errors.CodeInvalidInput, "warm_start 与 greedy 只能提供一个"))
		return
	}
	cfg, appErr := h.optConfig(&req)
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	inst, appErr := req.instance()
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.DefaultTimeout)
	defer cancel()

	provider, appErr := h.provider(ctx, &req)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	done := metrics.TrackActiveRun()
	defer done()

	runs := req.Runs
	if runs == 0 {
		runs = 1
	}
	jobs := make([]optimizer.Job, runs)
	for i := range jobs {
		c := *cfg
		c.Seed = cfg.Seed + int64(i)
		jobs[i] = optimizer.Job{Name: fmt.Sprintf("http-s%d", c.Seed), Provider: provider, Config: c}
	}

	results, runErr := optimizer.RunParallel(ctx, inst, jobs, h.cfg.Workers)
	for _, jr := range results {
		if jr.Result != nil {
			metrics.RecordVNSRun(jr.Result.Start, req.Month, jr.Err == nil, jr.Result.Improvements, jr.Result.BestCost, jr.Result.Duration)
		}
	}

	best := bestAvailable(results)
	if best == nil {
		if runErr == nil {
			runErr = errors.New(errors.CodeInternal, "没有可用的运行结果")
		}
		respondError(w, searchError(runErr))
		return
	}

	res := best.Result
	resp := buildResponse(inst, res.Matrix)
	resp.Start = res.Start
	resp.Seed = res.Seed
	resp.InitialCost = res.InitialCost
	resp.Cost = res.BestCost
	resp.Improvements = res.Improvements
	resp.Iterations = res.Iterations
	resp.Moves = res.Moves
	resp.CostTrace = res.CostTrace
	resp.Duration = res.Duration.String()
	if runs > 1 {
		for _, jr := range results {
			s := RunSummary{Seed: jr.Job.Config.Seed}
			if jr.Result != nil {
				s.InitialCost, s.Cost = jr.Result.InitialCost, jr.Result.BestCost
			}
			if jr.Err != nil {
				s.Error = jr.Err.Error()
			}
			resp.Runs = append(resp.Runs, s)
		}
	}
	if runErr != nil {
		resp.Partial = true
		resp.Message = "搜索未完成，返回当前最优解: " + runErr.Error()
	}

	if req.Persist && h.runs != nil && !resp.Partial {
		id, err := h.persist(r.Context(), req.Month, inst, res)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "保存运行记录失败"))
			return
		}
		resp.RunID = id
	}

	respondJSON(w, http.StatusOK, resp)
}

// optConfig 合并请求参数与默认配置
func (h *ScheduleHandler) optConfig(req *VNSRequest) (*optimizer.OptimizationConfig, *errors.AppError) {
	cfg := &optimizer.OptimizationConfig{
		Kmax:          h.cfg.DefaultKmax,
		MaxIterations: h.cfg.DefaultMaxIterations,
		Seed:          h.cfg.DefaultSeed,
	}
	if req.Kmax > 0 {
		cfg.Kmax = req.Kmax
	}
	if req.MaxIterations != nil {
		cfg.MaxIterations = *req.MaxIterations
	}
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}

	if h.cfg.KmaxLimit > 0 && cfg.Kmax > h.cfg.KmaxLimit {
		return nil, errors.InvalidInput("kmax", fmt.Sprintf("不能超过 %d", h.cfg.KmaxLimit))
	}
	if h.cfg.MaxIterationsLimit > 0 && cfg.MaxIterations > h.cfg.MaxIterationsLimit {
		return nil, errors.InvalidInput("max_iterations", fmt.Sprintf("不能超过 %d", h.cfg.MaxIterationsLimit))
	}
	return cfg, nil
}

// provider 根据请求选择初始解来源
func (h *ScheduleHandler) provider(ctx context.Context, req *VNSRequest) (optimizer.InitialSolutionProvider, *errors.AppError) {
	switch {
	case req.WarmStart != nil:
		return optimizer.WarmStart{Schedule: *req.WarmStart}, nil
	case req.Greedy != nil:
		res, err := solver.NewGreedyScheduler().Schedule(ctx, req.Greedy.People, req.Greedy.Vacancies)
		metrics.RecordGreedyRun(err == nil)
		if err != nil {
			return nil, searchError(err)
		}
		return optimizer.WarmStart{Schedule: res.Schedule}, nil
	default:
		return optimizer.RandomStart{}, nil
	}
}

func (h *ScheduleHandler) persist(ctx context.Context, month string, inst *instance.Instance, res *optimizer.Result) (string, error) {
	run := repository.NewRun(month, res)
	if err := h.runs.Create(ctx, run); err != nil {
		return "", err
	}
	if err := h.runs.CreateAssignments(ctx, run.ID, repository.AssignmentsFromMatrix(inst.People(), res.Matrix)); err != nil {
		return "", err
	}
	ctx = context.WithValue(ctx, logger.RunIDKey, run.ID.String())
	logger.WithContext(ctx).Info().Int("cost", res.BestCost).Msg("运行记录已保存")
	return run.ID.String(), nil
}

// GreedyResponse 贪心排班响应
type GreedyResponse struct {
	*solver.GreedyResult
	Display map[string][]string `json:"display"` // 合并 M+T、D+N 后的展示标签
}

// Greedy 运行三班制贪心排班
func (h *ScheduleHandler) Greedy(w http.ResponseWriter, r *http.Request) {
	var req GreedyInput
	if err := decodeRequest(r, &req); err != nil {
		respondError(w, err)
		return
	}

	res, err := solver.NewGreedyScheduler().Schedule(r.Context(), req.People, req.Vacancies)
	metrics.RecordGreedyRun(err == nil)
	if err != nil {
		respondError(w, searchError(err))
		return
	}

	resp := GreedyResponse{GreedyResult: res, Display: make(map[string][]string, len(res.Schedule.Schedule))}
	for name, labels := range res.Schedule.Schedule {
		resp.Display[name] = solver.DisplayLabels(labels)
	}
	respondJSON(w, http.StatusOK, resp)
}

// ValidateRequest 排班验证请求
type ValidateRequest struct {
	ProblemInput
	Schedule map[string][]string `json:"schedule" validate:"required"`
}

// Validate 验证已有排班
func (h *ScheduleHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := decodeRequest(r, &req); err != nil {
		respondError(w, err)
		return
	}
	inst, appErr := req.instance()
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	detector := validator.NewConflictDetector(inst)
	x, err := detector.BuildMatrix(req.Schedule)
	if err != nil {
		respondError(w, toAppError(err))
		return
	}

	report := detector.Validate(x)
	for _, c := range report.Conflicts {
		metrics.RecordConflict(string(c.Type))
	}
	respondJSON(w, http.StatusOK, report)
}

// buildResponse 填充与运行方式无关的结果字段
func buildResponse(inst *instance.Instance, x constraint.Matrix) *ScheduleResponse {
	people := stats.Display(inst, x)
	schedule := make(map[string][]string, len(people))
	for _, p := range people {
		schedule[p.Name] = p.Shifts
	}
	return &ScheduleResponse{
		Success:  true,
		Schedule: schedule,
		People:   people,
		Coverage: stats.NewCoverageAnalyzer().Analyze(inst, x),
	}
}

// bestAvailable 优先取成功的运行，全部未完成时取已有的最优解
func bestAvailable(results []optimizer.JobResult) *optimizer.JobResult {
	if best := optimizer.Best(results); best != nil {
		return best
	}
	var best *optimizer.JobResult
	for i := range results {
		r := &results[i]
		if r.Result == nil {
			continue
		}
		if best == nil || r.Result.BestCost < best.Result.BestCost {
			best = r
		}
	}
	return best
}

// searchError 把搜索错误转换为响应错误
func searchError(err error) *errors.AppError {
	switch err {
	case context.DeadlineExceeded:
		return errors.New(errors.CodeTimeout, "排班计算超时，请减小 kmax 或 max_iterations")
	case context.Canceled:
		return errors.New(errors.CodeInternal, "排班请求已取消")
	}
	return toAppError(err)
}
