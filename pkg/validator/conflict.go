// Package validator 提供排班验证功能
package validator

import (
	"fmt"
	"sort"

	"github.com/paiban/escala/pkg/errors"
	"github.com/paiban/escala/pkg/scheduler/constraint"
	"github.com/paiban/escala/pkg/scheduler/constraint/builtin"
	"github.com/paiban/escala/pkg/scheduler/instance"
	"github.com/paiban/escala/pkg/scheduler/solver"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictConsecutive ConflictType = "consecutive" // 连续班段过多
	ConflictRestTime    ConflictType = "rest_time"   // 连续上满后休息不足
	ConflictCapacity    ConflictType = "capacity"    // 超过班段容量
	ConflictUnrequested ConflictType = "unrequested" // 分配了未申请的班段
	ConflictMaxShifts   ConflictType = "max_shifts"  // 超过最多班次
	ConflictMinShifts   ConflictType = "min_shifts"  // 未达到最少班次
)

// Conflict 冲突信息
type Conflict struct {
	Type     ConflictType `json:"type"`
	Severity string       `json:"severity"` // error/warning
	Person   string       `json:"person,omitempty"`
	Slot     string       `json:"slot,omitempty"`
	Message  string       `json:"message"`
}

// Report 验证报告
type Report struct {
	Valid     bool       `json:"valid"`
	Cost      int        `json:"cost"`
	Errors    int        `json:"errors"`
	Warnings  int        `json:"warnings"`
	Conflicts []Conflict `json:"conflicts"`
}

// ConflictDetector 冲突检测器
type ConflictDetector struct {
	inst *instance.Instance
	cm   *constraint.Manager
}

// NewConflictDetector 创建冲突检测器
func NewConflictDetector(inst *instance.Instance) *ConflictDetector {
	return &ConflictDetector{
		inst: inst,
		cm:   builtin.NewDefaultManager(inst.Limits()),
	}
}

// BuildMatrix 把 人员 → 班段标签 的排班转换为矩阵
//
// 未知人员或无法解析的标签返回 INVALID_INPUT；未申请的班段照常置位，由 DetectAll 报告。
func (d *ConflictDetector) BuildMatrix(schedule map[string][]string) (constraint.Matrix, error) {
	x := constraint.NewMatrix(d.inst.PeopleCount(), d.inst.SlotCount())

	names := make([]string, 0, len(schedule))
	for name := range schedule {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p, ok := d.inst.PersonIndex(name)
		if !ok {
			return nil, errors.InvalidInput("schedule", fmt.Sprintf("人员 %s 不存在", name))
		}
		for _, label := range schedule[name] {
			s, err := d.inst.SlotIndex(label)
			if err != nil {
				return nil, errors.InvalidInput("schedule", err.Error())
			}
			x[p][s] = true
		}
	}
	return x, nil
}

// DetectAll 检测所有冲突
func (d *ConflictDetector) DetectAll(x constraint.Matrix) []Conflict {
	var conflicts []Conflict

	for _, v := range d.cm.Evaluate(x, d.inst.People()).Violations {
		typ := ConflictConsecutive
		if v.ConstraintType == constraint.TypeRestAfterRun {
			typ = ConflictRestTime
		}
		conflicts = append(conflicts, Conflict{
			Type:     typ,
			Severity: "error",
			Person:   v.Person,
			Slot:     v.Slot,
			Message:  v.Message,
		})
	}

	conflicts = append(conflicts, d.detectCapacity(x)...)
	conflicts = append(conflicts, d.detectUnrequested(x)...)
	conflicts = append(conflicts, d.detectShiftCounts(x)...)

	return conflicts
}

// detectCapacity 检测超过容量的班段
func (d *ConflictDetector) detectCapacity(x constraint.Matrix) []Conflict {
	var conflicts []Conflict
	for s := 0; s < d.inst.SlotCount(); s++ {
		n := x.ColumnCount(s)
		if n > d.inst.Capacity(s) {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictCapacity,
				Severity: "error",
				Slot:     d.inst.Label(s),
				Message:  fmt.Sprintf("班段 %s 分配 %d 人，超过容量 %d", d.inst.Label(s), n, d.inst.Capacity(s)),
			})
		}
	}
	return conflicts
}

// detectUnrequested 检测未申请的分配
func (d *ConflictDetector) detectUnrequested(x constraint.Matrix) []Conflict {
	var conflicts []Conflict
	for p := range x {
		for s, v := range x[p] {
			if v && !d.inst.Requested(p, s) {
				name := d.inst.PersonName(p)
				conflicts = append(conflicts, Conflict{
					Type:     ConflictUnrequested,
					Severity: "error",
					Person:   name,
					Slot:     d.inst.Label(s),
					Message:  fmt.Sprintf("人员 %s 未申请班段 %s", name, d.inst.Label(s)),
				})
			}
		}
	}
	return conflicts
}

// detectShiftCounts 最多班次是错误，最少班次只是警告
func (d *ConflictDetector) detectShiftCounts(x constraint.Matrix) []Conflict {
	var conflicts []Conflict
	limits := d.inst.Limits()
	for p := range x {
		n := x.RowCount(p)
		name := d.inst.PersonName(p)
		switch {
		case n > limits.MaxShifts:
			conflicts = append(conflicts, Conflict{
				Type:     ConflictMaxShifts,
				Severity: "error",
				Person:   name,
				Message:  fmt.Sprintf("人员 %s 分配 %d 个班段，超过最多 %d 个", name, n, limits.MaxShifts),
			})
		case n < limits.MinShifts:
			conflicts = append(conflicts, Conflict{
				Type:     ConflictMinShifts,
				Severity: "warning",
				Person:   name,
				Message:  fmt.Sprintf("人员 %s 只分配 %d 个班段，少于最少 %d 个", name, n, limits.MinShifts),
			})
		}
	}
	return conflicts
}

// Validate 生成完整验证报告
func (d *ConflictDetector) Validate(x constraint.Matrix) *Report {
	report := &Report{Conflicts: d.DetectAll(x)}
	if report.Conflicts == nil {
		report.Conflicts = make([]Conflict, 0)
	}
	for _, c := range report.Conflicts {
		if c.Severity == "error" {
			report.Errors++
		} else {
			report.Warnings++
		}
	}
	report.Valid = report.Errors == 0

	covered := make([]bool, d.inst.SlotCount())
	for s := range covered {
		covered[s] = x.ColumnCount(s) > 0
	}
	report.Cost = solver.Cost(x, covered, d.inst.Limits().MaxPeoplePerShift)
	return report
}
