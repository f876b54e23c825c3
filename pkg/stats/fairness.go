package stats

import (
	"math"
	"sort"

	"github.com/paiban/escala/pkg/model"
	"github.com/paiban/escala/pkg/scheduler/constraint"
	"github.com/paiban/escala/pkg/scheduler/instance"
)

// FairnessMetrics 公平性指标
type FairnessMetrics struct {
	// 班数公平性
	ShiftGini      float64 `json:"shift_gini"` // 班数基尼系数 (0=完全公平, 1=完全不公平)
	ShiftVariance  float64 `json:"shift_variance"`
	ShiftStdDev    float64 `json:"shift_std_dev"`
	AvgShifts      float64 `json:"avg_shifts"`
	MaxShifts      float64 `json:"max_shifts"`
	MinShifts      float64 `json:"min_shifts"`
	NightShiftGini float64 `json:"night_shift_gini"` // 夜班分配基尼系数

	// 人员级别统计，按输入顺序
	PersonStats []PersonStat `json:"person_stats"`
	// BelowMinimum 未达到最少班次的人员
	BelowMinimum []string `json:"below_minimum"`

	// 综合评分
	OverallFairnessScore float64 `json:"overall_fairness_score"` // 0-100
}

// PersonStat 人员统计
type PersonStat struct {
	Name        string   `json:"name"`
	Shifts      []string `json:"shifts"` // 按时间排序的班段标签
	ShiftCount  int      `json:"shift_count"`
	NightShifts int      `json:"night_shifts"`
	Requested   int      `json:"requested"`
	GrantRate   float64  `json:"grant_rate"` // 申请满足率 (%)
	Deviation   float64  `json:"deviation"`  // 与平均值的偏差百分比
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct{}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{}
}

// Analyze 分析排班公平性
func (f *FairnessAnalyzer) Analyze(inst *instance.Instance, x constraint.Matrix) *FairnessMetrics {
	metrics := &FairnessMetrics{
		PersonStats:          Display(inst, x),
		BelowMinimum:         make([]string, 0),
		OverallFairnessScore: 100,
	}
	if len(metrics.PersonStats) == 0 {
		return metrics
	}

	counts := make([]float64, len(metrics.PersonStats))
	nights := make([]float64, len(metrics.PersonStats))
	for i, stat := range metrics.PersonStats {
		counts[i] = float64(stat.ShiftCount)
		nights[i] = float64(stat.NightShifts)
		if stat.ShiftCount < inst.Limits().MinShifts {
			metrics.BelowMinimum = append(metrics.BelowMinimum, stat.Name)
		}
	}

	metrics.AvgShifts = mean(counts)
	metrics.ShiftVariance = variance(counts, metrics.AvgShifts)
	metrics.ShiftStdDev = math.Sqrt(metrics.ShiftVariance)
	metrics.MaxShifts, metrics.MinShifts = valueRange(counts)
	metrics.ShiftGini = gini(counts)
	metrics.NightShiftGini = gini(nights)

	for i := range metrics.PersonStats {
		if metrics.AvgShifts > 0 {
			metrics.PersonStats[i].Deviation = (counts[i] - metrics.AvgShifts) / metrics.AvgShifts * 100
		}
	}

	metrics.OverallFairnessScore = overallScore(metrics.ShiftGini, metrics.NightShiftGini, metrics.ShiftStdDev, metrics.AvgShifts)
	return metrics
}

// Display 每人按时间排序的班段及数量
func Display(inst *instance.Instance, x constraint.Matrix) []PersonStat {
	stats := make([]PersonStat, 0, inst.PeopleCount())
	for p := 0; p < inst.PeopleCount(); p++ {
		stat := PersonStat{Name: inst.PersonName(p), Shifts: make([]string, 0)}
		for s := 0; s < inst.SlotCount(); s++ {
			if inst.Requested(p, s) {
				stat.Requested++
			}
			if !x[p][s] {
				continue
			}
			stat.Shifts = append(stat.Shifts, inst.Label(s))
			stat.ShiftCount++
			if model.SlotAt(s).Period == model.PeriodNight {
				stat.NightShifts++
			}
		}
		if stat.Requested > 0 {
			stat.GrantRate = float64(stat.ShiftCount) / float64(stat.Requested) * 100
		}
		stats = append(stats, stat)
	}
	return stats
}

// mean 计算平均值
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// variance 计算方差
func variance(values []float64, m float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - m
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

// valueRange 计算极值
func valueRange(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// gini 计算基尼系数
func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	g := 0.0
	for i, v := range sorted {
		g += (2*float64(i+1) - float64(n) - 1) * v
	}
	g = g / (float64(n) * sum)
	return math.Max(0, math.Min(1, g))
}

// overallScore 计算综合公平性评分
func overallScore(shiftGini, nightGini, stdDev, avg float64) float64 {
	const (
		shiftWeight  = 0.5
		nightWeight  = 0.3
		stdDevWeight = 0.2
	)

	shiftScore := (1 - shiftGini) * 100
	nightScore := (1 - nightGini) * 100

	// 变异系数越低分数越高
	cvScore := 100.0
	if avg > 0 {
		cvScore = math.Max(0, 100-stdDev/avg*200)
	}

	score := shiftWeight*shiftScore + nightWeight*nightScore + stdDevWeight*cvScore
	return math.Max(0, math.Min(100, score))
}
