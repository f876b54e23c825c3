// Package constraints 约束说明库，供客户端展示可配置的排班限制
package constraints

import (
	"github.com/paiban/escala/pkg/scheduler/constraint"
)

// ConstraintParam 约束参数定义，Name 对应请求中 limits 的字段
type ConstraintParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Min         string `json:"min,omitempty"`
}

// ConstraintDefinition 约束定义
type ConstraintDefinition struct {
	Name        string            `json:"name"`
	DisplayName string            `json:"display_name"`
	Type        string            `json:"type"` // hard 硬约束, soft 软目标
	Category    string            `json:"category"`
	Description string            `json:"description"`
	Params      []ConstraintParam `json:"params"`
}

// LibraryResponse 约束库响应
type LibraryResponse struct {
	Library []ConstraintDefinition `json:"library"`
}

var (
	paramMaxConsecutive = ConstraintParam{Name: "max_consecutive_shifts", Type: "int", Description: "最多连续班段数 C", Default: "2", Min: "1"}
	paramRestTime       = ConstraintParam{Name: "consecutive_rest_time", Type: "int", Description: "连续上满后的休息班段数 D", Default: "2", Min: "0"}
)

// GetLibrary 获取完整的约束库
func GetLibrary() []ConstraintDefinition {
	return []ConstraintDefinition{
		{
			Name:        string(constraint.TypeMaxConsecutiveRun),
			DisplayName: "最大连续班段",
			Type:        "hard",
			Category:    "休息保障",
			Description: "任意完整落在月内的 C+1 个连续班段中，同一人最多被分配 C 个。",
			Params:      []ConstraintParam{paramMaxConsecutive},
		},
		{
			Name:        string(constraint.TypeRestAfterRun),
			DisplayName: "连续班段后休息",
			Type:        "hard",
			Category:    "休息保障",
			Description: "连续上满 C 个班段后，随后的 D 个班段不得分配，休息窗口在月末截断。",
			Params:      []ConstraintParam{paramMaxConsecutive, paramRestTime},
		},
		{
			Name:        "shift_capacity",
			DisplayName: "班段容量",
			Type:        "hard",
			Category:    "覆盖",
			Description: "每个班段的人数不超过目录中该标签的出现次数；未提供目录时均为 N。",
			Params: []ConstraintParam{
				{Name: "max_people_per_shift", Type: "int", Description: "每班段目标人数 N", Default: "2", Min: "1"},
			},
		},
		{
			Name:        "requested_only",
			DisplayName: "仅排申请班段",
			Type:        "hard",
			Category:    "个人意愿",
			Description: "人员只会被分配到自己申请过的班段。",
		},
		{
			Name:        "max_shifts",
			DisplayName: "每月最多班段",
			Type:        "hard",
			Category:    "工作量",
			Description: "每人当月分配的班段数不超过 M。",
			Params: []ConstraintParam{
				{Name: "max_shifts", Type: "int", Description: "每月最多班段数 M", Default: "10", Min: "1"},
			},
		},
		{
			Name:        "min_shifts",
			DisplayName: "每月最少班段",
			Type:        "soft",
			Category:    "工作量",
			Description: "每人当月分配的班段数目标不少于 m，未达到时在统计和校验中提示。",
			Params: []ConstraintParam{
				{Name: "min_shifts", Type: "int", Description: "每月最少班段数 m", Default: "1", Min: "0"},
			},
		},
	}
}

// Find 按名称查找约束定义
func Find(name string) (ConstraintDefinition, bool) {
	for _, d := range GetLibrary() {
		if d.Name == name {
			return d, true
		}
	}
	return ConstraintDefinition{}, false
}
