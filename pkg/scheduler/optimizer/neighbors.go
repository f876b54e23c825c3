// Package optimizer 提供排班优化算法
package optimizer

import (
	"github.com/paiban/escala/pkg/scheduler/solver"
)

// Ladder 邻域规模阶梯：k 依次取 1, 3, 5, … 直到 kmax
type Ladder struct {
	kmax int
	k    int
}

// NewLadder 创建邻域阶梯
func NewLadder(kmax int) *Ladder {
	return &Ladder{kmax: kmax, k: 1}
}

// K 返回当前邻域规模
func (l *Ladder) K() int { return l.k }

// Active 当前规模是否仍在阶梯内
func (l *Ladder) Active() bool { return l.k <= l.kmax }

// Reset 发现更优解后回到 k=1
func (l *Ladder) Reset() { l.k = 1 }

// Next 未改进时跳过偶数规模
func (l *Ladder) Next() { l.k += 2 }

// Destroy 随机选 k 个人（可重复），每人移除一个已分配班段
func Destroy(rc *solver.RandomConstructor, k int) int {
	people := rc.Instance().PeopleCount()
	removed := 0
	for i := 0; i < k; i++ {
		p := rc.Rand().Intn(people)
		if _, ok := rc.RemoveRandom(p); ok {
			removed++
		}
	}
	return removed
}

// Repair 重建候选后贪心补齐，返回修复后的代价
func Repair(rc *solver.RandomConstructor) int {
	rc.PrepareRepair()
	rc.FillRemaining()
	rc.UpdateCoverage()
	return rc.Cost()
}
