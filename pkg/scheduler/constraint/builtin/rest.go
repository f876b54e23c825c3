package builtin

import (
	"github.com/paiban/escala/pkg/scheduler/constraint"
)

// RestAfterRunConstraint 连续上满后强制休息约束
//
// 若 [i, i+C) 全部已分配，则 [i+C, i+C+D) 中不得有任何分配，休息窗口在月末截断。
type RestAfterRunConstraint struct {
	*BaseConstraint
	runLength int
	restTime  int
}

// NewRestAfterRunConstraint 创建强制休息约束
func NewRestAfterRunConstraint(runLength, restTime int) *RestAfterRunConstraint {
	return &RestAfterRunConstraint{
		BaseConstraint: NewBaseConstraint("连续班段后休息", constraint.TypeRestAfterRun),
		runLength:      runLength,
		restTime:       restTime,
	}
}

// CheckRow 检查一行
func (c *RestAfterRunConstraint) CheckRow(row []bool) bool {
	for i := 0; i+c.runLength <= len(row); i++ {
		if c.violatesAt(row, i) {
			return false
		}
	}
	return true
}

// Violations 返回每个违反休息要求的连续段起点
func (c *RestAfterRunConstraint) Violations(row []bool) []int {
	var starts []int
	for i := 0; i+c.runLength <= len(row); i++ {
		if c.violatesAt(row, i) {
			starts = append(starts, i)
		}
	}
	return starts
}

func (c *RestAfterRunConstraint) violatesAt(row []bool, i int) bool {
	if !fullRun(row, i, c.runLength) {
		return false
	}
	end := i + c.runLength + c.restTime
	if end > len(row) {
		end = len(row)
	}
	for s := i + c.runLength; s < end; s++ {
		if row[s] {
			return true
		}
	}
	return false
}
