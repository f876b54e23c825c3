package builtin

import (
	"github.com/paiban/escala/pkg/scheduler/constraint"
)

// MaxConsecutiveRunConstraint 最大连续班段约束
//
// 任意完整落在月内、长度为 C+1 的窗口中，已分配班段数不得超过 C。
// 窗口不跨越月末，因此月末最后 C 个班段不会单独触发违反。
type MaxConsecutiveRunConstraint struct {
	*BaseConstraint
	maxRun int
}

// NewMaxConsecutiveRunConstraint 创建最大连续班段约束
func NewMaxConsecutiveRunConstraint(maxRun int) *MaxConsecutiveRunConstraint {
	return &MaxConsecutiveRunConstraint{
		BaseConstraint: NewBaseConstraint("最大连续班段", constraint.TypeMaxConsecutiveRun),
		maxRun:         maxRun,
	}
}

// MaxRun 返回允许的最大连续班段数
func (c *MaxConsecutiveRunConstraint) MaxRun() int { return c.maxRun }

// CheckRow 检查一行
func (c *MaxConsecutiveRunConstraint) CheckRow(row []bool) bool {
	run := 0
	for _, v := range row {
		if !v {
			run = 0
			continue
		}
		run++
		if run > c.maxRun {
			return false
		}
	}
	return true
}

// Violations 返回每个超长窗口的起点
func (c *MaxConsecutiveRunConstraint) Violations(row []bool) []int {
	var starts []int
	for i := 0; i+c.maxRun < len(row); i++ {
		if fullRun(row, i, c.maxRun+1) {
			starts = append(starts, i)
		}
	}
	return starts
}
