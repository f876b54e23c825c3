// Package constraint 定义约束接口和管理器
package constraint

// Type 约束类型标识
type Type string

const (
	TypeMaxConsecutiveRun Type = "max_consecutive_run" // 最大连续班段
	TypeRestAfterRun      Type = "rest_after_run"      // 连续上满后强制休息
)

// Constraint 硬约束接口
//
// 约束按人员逐行评估：某人的排班行是一个按月内顺序排列的布尔切片。
// 约束对行内的班段数单调：去掉一个班段不会制造新的违反。
type Constraint interface {
	// Name 返回约束名称
	Name() string

	// Type 返回约束类型
	Type() Type

	// CheckRow 检查一行是否满足约束
	CheckRow(row []bool) bool

	// Violations 返回一行中所有违反的起始班段下标
	Violations(row []bool) []int
}

// ViolationDetail 约束违反详情
type ViolationDetail struct {
	ConstraintType Type   `json:"constraint_type"`
	ConstraintName string `json:"constraint_name"`
	Person         string `json:"person"`
	Slot           string `json:"slot"`
	Message        string `json:"message"`
}

// Result 约束评估结果
type Result struct {
	IsValid    bool              `json:"is_valid"`
	Violations []ViolationDetail `json:"violations"`
}

// Matrix 分配矩阵 x[p][s]，行为人员，列为月内所有班段
type Matrix [][]bool

// NewMatrix 创建全零矩阵
func NewMatrix(people, slots int) Matrix {
	m := make(Matrix, people)
	for p := range m {
		m[p] = make([]bool, slots)
	}
	return m
}

// Clone 深拷贝矩阵
func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	for p, row := range m {
		out[p] = make([]bool, len(row))
		copy(out[p], row)
	}
	return out
}

// CopyFrom 把 src 复制到 m（尺寸必须一致）
func (m Matrix) CopyFrom(src Matrix) {
	for p := range m {
		copy(m[p], src[p])
	}
}

// Equal 判断两个矩阵是否完全相同
func (m Matrix) Equal(other Matrix) bool {
	if len(m) != len(other) {
		return false
	}
	for p := range m {
		if len(m[p]) != len(other[p]) {
			return false
		}
		for s := range m[p] {
			if m[p][s] != other[p][s] {
				return false
			}
		}
	}
	return true
}

// RowCount 返回某人已分配的班段数
func (m Matrix) RowCount(p int) int {
	n := 0
	for _, v := range m[p] {
		if v {
			n++
		}
	}
	return n
}

// ColumnCount 返回某班段已分配的人数
func (m Matrix) ColumnCount(s int) int {
	n := 0
	for p := range m {
		if m[p][s] {
			n++
		}
	}
	return n
}

// Assigned 返回某人已分配的班段下标（升序）
func (m Matrix) Assigned(p int) []int {
	var out []int
	for s, v := range m[p] {
		if v {
			out = append(out, s)
		}
	}
	return out
}
