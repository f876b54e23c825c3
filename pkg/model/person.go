// Package model 定义排班引擎的核心数据模型
package model

// Person 参与排班的人员
type Person struct {
	Name string `json:"name" yaml:"name" validate:"required"`
	// Requests 按偏好顺序排列的申请班段（"<day><D|N>"）
	Requests []string `json:"requests" yaml:"requests"`
}

// Limits 排班的标量限制
type Limits struct {
	MaxPeoplePerShift    int `json:"max_people_per_shift" yaml:"max_people_per_shift"`       // N
	MinShifts            int `json:"min_shifts" yaml:"min_shifts"`                           // m
	MaxShifts            int `json:"max_shifts" yaml:"max_shifts"`                           // M
	MaxConsecutiveShifts int `json:"max_consecutive_shifts" yaml:"max_consecutive_shifts"`   // C
	ConsecutiveRestTime  int `json:"consecutive_rest_time" yaml:"consecutive_rest_time"`     // D
}

// Restrictions 一个月排班问题的完整输入
type Restrictions struct {
	People []Person `json:"people"`
	// Shifts 班段目录，标签重复次数即该班段容量；为空时每个班段容量均为 N
	Shifts    []string `json:"shifts,omitempty"`
	Limits    Limits   `json:"limits"`
	MonthDays int      `json:"month_days"`
}

// GreedyPerson 三班制贪心排班的人员输入
type GreedyPerson struct {
	Name      string   `json:"name" validate:"required"`
	Priority  int      `json:"priority"`
	MaxShifts int      `json:"max_shifts" validate:"min=0"`
	Requests  []string `json:"requests"` // "<day><M|T|D|N>"
}
