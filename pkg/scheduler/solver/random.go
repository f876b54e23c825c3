// Package solver 提供排班求解器
package solver

import (
	"fmt"
	"math/rand"

	"github.com/paiban/escala/pkg/logger"
	"github.com/paiban/escala/pkg/scheduler/constraint"
	"github.com/paiban/escala/pkg/scheduler/constraint/builtin"
	"github.com/paiban/escala/pkg/scheduler/instance"
)

// RandomConstructor 随机构造器
//
// 持有一次运行的全部可变状态：分配矩阵、剩余候选、可用容量、覆盖向量、
// 最少/最多标记和处理顺序。实例只读共享，构造器本身不可并发使用。
type RandomConstructor struct {
	inst   *instance.Instance
	cm     *constraint.Manager
	rng    *rand.Rand
	logger *logger.SchedulerLogger

	catalog     []int
	x           constraint.Matrix
	requests    [][]bool // 本轮仍可尝试的班段
	notPossible [][]bool // 本轮因约束被排除的班段
	available   []int
	covered     []bool
	minReached  []bool
	maxReached  []bool
	order       []int
}

// NewRandomConstructor 创建随机构造器，同一种子产生相同结果
func NewRandomConstructor(inst *instance.Instance, seed int64) *RandomConstructor {
	people, slots := inst.PeopleCount(), inst.SlotCount()

	rc := &RandomConstructor{
		inst:        inst,
		cm:          builtin.NewDefaultManager(inst.Limits()),
		rng:         rand.New(rand.NewSource(seed)),
		logger:      logger.NewSchedulerLogger(),
		catalog:     inst.Catalog(),
		x:           constraint.NewMatrix(people, slots),
		requests:    constraint.NewMatrix(people, slots),
		notPossible: constraint.NewMatrix(people, slots),
		available:   make([]int, slots),
		covered:     make([]bool, slots),
		minReached:  make([]bool, people),
		maxReached:  make([]bool, people),
		order:       make([]int, people),
	}
	for p := range rc.order {
		rc.order[p] = p
	}
	for _, w := range inst.Warnings() {
		rc.logger.InfeasibleRequest(fmt.Sprint(w.Fields["person"]), w.Message)
	}

	rc.Reset()
	return rc
}

// Instance 返回问题实例
func (rc *RandomConstructor) Instance() *instance.Instance { return rc.inst }

// Constraints 返回约束管理器
func (rc *RandomConstructor) Constraints() *constraint.Manager { return rc.cm }

// Rand 返回本次运行的随机数生成器
func (rc *RandomConstructor) Rand() *rand.Rand { return rc.rng }

// Reset 恢复到实例的初始状态
func (rc *RandomConstructor) Reset() {
	for p := range rc.x {
		for s := range rc.x[p] {
			rc.x[p][s] = false
			rc.requests[p][s] = rc.inst.Requested(p, s)
			rc.notPossible[p][s] = false
		}
		rc.minReached[p] = false
		rc.maxReached[p] = false
	}
	for s := range rc.available {
		rc.available[s] = rc.inst.Capacity(s)
		rc.covered[s] = false
	}
}

// RandomOrder 随机打乱人员处理顺序
func (rc *RandomConstructor) RandomOrder() {
	rc.rng.Shuffle(len(rc.order), func(i, j int) {
		rc.order[i], rc.order[j] = rc.order[j], rc.order[i]
	})
}

// Order 返回当前处理顺序
func (rc *RandomConstructor) Order() []int {
	out := make([]int, len(rc.order))
	copy(out, rc.order)
	return out
}

// candidates 返回某人本轮仍可尝试的班段
func (rc *RandomConstructor) candidates(p int) []int {
	var out []int
	for s, ok := range rc.requests[p] {
		if ok && !rc.notPossible[p][s] {
			out = append(out, s)
		}
	}
	return out
}

// HasRequests 判断某人是否还有可尝试的班段
func (rc *RandomConstructor) HasRequests(p int) bool {
	for s, ok := range rc.requests[p] {
		if ok && !rc.notPossible[p][s] {
			return true
		}
	}
	return false
}

// AssignOne 随机选取某人的一个剩余申请并尝试分配
//
// 被选中的申请无论是否分配成功都会被消耗。只有设置该位后两条约束都满足才提交，
// 否则回滚并记入 notPossible。
func (rc *RandomConstructor) AssignOne(p int) bool {
	cands := rc.candidates(p)
	if len(cands) == 0 {
		return false
	}
	s := cands[rc.rng.Intn(len(cands))]
	rc.requests[p][s] = false

	if rc.available[s] <= 0 {
		return false
	}

	// 其余人员的行不变且已可行，只需检查本行
	rc.x[p][s] = true
	if !rc.cm.FeasibleRow(rc.x[p]) {
		rc.x[p][s] = false
		rc.notPossible[p][s] = true
		return false
	}
	rc.available[s]--
	return true
}

// FillToMinimum 为未达到最少班次的人员补充分配
func (rc *RandomConstructor) FillToMinimum() {
	rc.fill(rc.minReached)
}

// FillRemaining 持续分配直到所有人达到最多班次或用尽申请
func (rc *RandomConstructor) FillRemaining() {
	rc.fill(rc.maxReached)
}

// fill 按处理顺序轮流分配，每轮结束后刷新最少/最多标记
func (rc *RandomConstructor) fill(done []bool) {
	for {
		active := false
		for _, p := range rc.order {
			if done[p] || !rc.HasRequests(p) {
				continue
			}
			rc.AssignOne(p)
			active = true
		}
		rc.UpdateMinMax()
		if !active {
			return
		}
	}
}

// CatalogCount 返回某人在班段目录内的分配数
func (rc *RandomConstructor) CatalogCount(p int) int {
	n := 0
	for _, s := range rc.catalog {
		if rc.x[p][s] {
			n++
		}
	}
	return n
}

// UpdateMinMax 刷新最少/最多标记，标记只会被置位
func (rc *RandomConstructor) UpdateMinMax() {
	limits := rc.inst.Limits()
	for p := range rc.x {
		n := rc.CatalogCount(p)
		if n >= limits.MinShifts {
			rc.minReached[p] = true
		}
		if n >= limits.MaxShifts {
			rc.maxReached[p] = true
		}
	}
}

// UpdateCoverage 根据分配矩阵重新计算覆盖向量
func (rc *RandomConstructor) UpdateCoverage() {
	for s := range rc.covered {
		rc.covered[s] = rc.x.ColumnCount(s) > 0
	}
}

// Cost 计算当前解的代价
func (rc *RandomConstructor) Cost() int {
	return Cost(rc.x, rc.covered, rc.inst.Limits().MaxPeoplePerShift)
}

// Cost 每个班段贡献 N - 已分配人数，完全无人时再加 N
func Cost(x constraint.Matrix, covered []bool, n int) int {
	total := 0
	for s := range covered {
		total += n - x.ColumnCount(s)
		if !covered[s] {
			total += n
		}
	}
	return total
}

// RandomSchedule 从当前状态随机填充并返回代价
//
// 最少班次只是软目标，这里不做校验。
func (rc *RandomConstructor) RandomSchedule() int {
	rc.FillRemaining()
	rc.UpdateCoverage()
	return rc.Cost()
}

// Load 用给定矩阵替换当前解，并据此重新计算可用容量、覆盖和标记
func (rc *RandomConstructor) Load(x constraint.Matrix) error {
	if len(x) != len(rc.x) {
		return fmt.Errorf("矩阵行数 %d 与人员数 %d 不一致", len(x), len(rc.x))
	}
	for p := range x {
		if len(x[p]) != len(rc.x[p]) {
			return fmt.Errorf("人员 %s 的矩阵列数 %d 与班段数 %d 不一致", rc.inst.PersonName(p), len(x[p]), len(rc.x[p]))
		}
	}

	rc.x.CopyFrom(x)
	rc.recomputeAvailable()
	for p := range rc.minReached {
		rc.minReached[p] = false
		rc.maxReached[p] = false
	}
	rc.UpdateMinMax()
	rc.UpdateCoverage()
	return nil
}

// recomputeAvailable 可用容量 = 容量 - 已分配人数
func (rc *RandomConstructor) recomputeAvailable() {
	for s := range rc.available {
		rc.available[s] = rc.inst.Capacity(s) - rc.x.ColumnCount(s)
	}
}

// RemoveRandom 随机移除某人的一个已分配班段并归还容量
func (rc *RandomConstructor) RemoveRandom(p int) (int, bool) {
	assigned := rc.x.Assigned(p)
	if len(assigned) == 0 {
		return 0, false
	}
	s := assigned[rc.rng.Intn(len(assigned))]
	rc.x[p][s] = false
	rc.available[s]++
	return s, true
}

// PrepareRepair 为修复阶段重建派生状态
//
// 候选 = 申请且未分配的班段，并预先剔除单独加入就会违反约束的班段；
// notPossible 在此清空，不会跨修复轮次累积。随后刷新标记并打乱处理顺序。
func (rc *RandomConstructor) PrepareRepair() {
	for p := range rc.x {
		row := rc.x[p]
		for s := range row {
			rc.notPossible[p][s] = false
			rc.requests[p][s] = rc.inst.Requested(p, s) && !row[s]
			if !rc.requests[p][s] {
				continue
			}
			row[s] = true
			if !rc.cm.FeasibleRow(row) {
				rc.requests[p][s] = false
				rc.notPossible[p][s] = true
			}
			row[s] = false
		}
		rc.minReached[p] = false
		rc.maxReached[p] = false
	}
	rc.UpdateMinMax()
	rc.RandomOrder()
}

// Matrix 返回分配矩阵的副本
func (rc *RandomConstructor) Matrix() constraint.Matrix { return rc.x.Clone() }

// View 返回分配矩阵本身，调用方不得修改
func (rc *RandomConstructor) View() constraint.Matrix { return rc.x }

// Available 返回各班段剩余容量的副本
func (rc *RandomConstructor) Available() []int {
	out := make([]int, len(rc.available))
	copy(out, rc.available)
	return out
}

// Covered 返回覆盖向量的副本
func (rc *RandomConstructor) Covered() []bool {
	out := make([]bool, len(rc.covered))
	copy(out, rc.covered)
	return out
}

// Counts 返回每人的总分配数
func (rc *RandomConstructor) Counts() []int {
	out := make([]int, len(rc.x))
	for p := range rc.x {
		out[p] = rc.x.RowCount(p)
	}
	return out
}

// MinReached 返回某人是否已达到最少班次
func (rc *RandomConstructor) MinReached(p int) bool { return rc.minReached[p] }

// MaxReached 返回某人是否已达到最多班次
func (rc *RandomConstructor) MaxReached(p int) bool { return rc.maxReached[p] }

// Feasible 对当前矩阵做全局约束检查
func (rc *RandomConstructor) Feasible() bool { return rc.cm.Feasible(rc.x) }
