// Package stats 提供排班统计分析功能
package stats

import (
	"github.com/paiban/escala/pkg/model"
	"github.com/paiban/escala/pkg/scheduler/constraint"
	"github.com/paiban/escala/pkg/scheduler/instance"
)

// CoverageMetrics 覆盖率指标
type CoverageMetrics struct {
	// 整体覆盖率（只统计容量大于0的班段）
	TotalSlots      int     `json:"total_slots"`      // 需要排班的班段数
	CoveredSlots    int     `json:"covered_slots"`    // 至少一人的班段数
	OverallCoverage float64 `json:"overall_coverage"` // 覆盖率 (%)
	TotalCapacity   int     `json:"total_capacity"`   // 总容量
	Assigned        int     `json:"assigned"`         // 总分配数
	FillRate        float64 `json:"fill_rate"`        // 人数满足率 (%)

	// 按日期统计
	DailyCoverage []DayCoverage `json:"daily_coverage"`

	// 问题识别
	UncoveredSlots []string           `json:"uncovered_slots"` // 无人班段
	Understaffed   []UnderstaffedSlot `json:"understaffed"`    // 人手不足班段
}

// DayCoverage 每日覆盖情况
type DayCoverage struct {
	Day           int `json:"day"`
	DayCapacity   int `json:"day_capacity"`
	DayAssigned   int `json:"day_assigned"`
	NightCapacity int `json:"night_capacity"`
	NightAssigned int `json:"night_assigned"`
}

// UnderstaffedSlot 人手不足班段
type UnderstaffedSlot struct {
	Slot     string `json:"slot"`
	Capacity int    `json:"capacity"`
	Assigned int    `json:"assigned"`
	Shortage int    `json:"shortage"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze 分析覆盖率
func (c *CoverageAnalyzer) Analyze(inst *instance.Instance, x constraint.Matrix) *CoverageMetrics {
	metrics := &CoverageMetrics{
		DailyCoverage:  make([]DayCoverage, inst.MonthDays()),
		UncoveredSlots: make([]string, 0),
		Understaffed:   make([]UnderstaffedSlot, 0),
	}

	for s := 0; s < inst.SlotCount(); s++ {
		capacity := inst.Capacity(s)
		assigned := x.ColumnCount(s)
		slot := model.SlotAt(s)

		day := &metrics.DailyCoverage[slot.Day-1]
		day.Day = slot.Day
		if slot.Period == model.PeriodDay {
			day.DayCapacity, day.DayAssigned = capacity, assigned
		} else {
			day.NightCapacity, day.NightAssigned = capacity, assigned
		}

		if capacity == 0 {
			continue
		}
		metrics.TotalSlots++
		metrics.TotalCapacity += capacity
		metrics.Assigned += assigned

		if assigned == 0 {
			metrics.UncoveredSlots = append(metrics.UncoveredSlots, slot.Label())
		} else {
			metrics.CoveredSlots++
		}
		if assigned < capacity {
			metrics.Understaffed = append(metrics.Understaffed, UnderstaffedSlot{
				Slot:     slot.Label(),
				Capacity: capacity,
				Assigned: assigned,
				Shortage: capacity - assigned,
			})
		}
	}

	metrics.OverallCoverage = 100
	if metrics.TotalSlots > 0 {
		metrics.OverallCoverage = float64(metrics.CoveredSlots) / float64(metrics.TotalSlots) * 100
	}
	metrics.FillRate = 100
	if metrics.TotalCapacity > 0 {
		metrics.FillRate = float64(metrics.Assigned) / float64(metrics.TotalCapacity) * 100
	}

	return metrics
}
