// Package constraint 定义约束接口和管理器
package constraint

import (
	"fmt"
	"sync"

	"github.com/paiban/escala/pkg/model"
)

// Manager 约束管理器
type Manager struct {
	constraints []Constraint
	mu          sync.RWMutex
}

// NewManager 创建约束管理器
func NewManager() *Manager {
	return &Manager{
		constraints: make([]Constraint, 0),
	}
}

// Register 注册约束，同类型约束会被替换
func (m *Manager) Register(c Constraint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.constraints {
		if existing.Type() == c.Type() {
			m.constraints[i] = c
			return
		}
	}
	m.constraints = append(m.constraints, c)
}

// Unregister 注销约束
func (m *Manager) Unregister(t Type) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, c := range m.constraints {
		if c.Type() == t {
			m.constraints = append(m.constraints[:i], m.constraints[i+1:]...)
			return
		}
	}
}

// GetConstraint 获取约束
func (m *Manager) GetConstraint(t Type) Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.constraints {
		if c.Type() == t {
			return c
		}
	}
	return nil
}

// GetAll 获取所有约束
func (m *Manager) GetAll() []Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Constraint, len(m.constraints))
	copy(result, m.constraints)
	return result
}

// Count 返回约束数量
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.constraints)
}

// FeasibleRow 检查一行是否满足全部约束
func (m *Manager) FeasibleRow(row []bool) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.constraints {
		if !c.CheckRow(row) {
			return false
		}
	}
	return true
}

// Feasible 对整个矩阵做全局检查
func (m *Manager) Feasible(x Matrix) bool {
	for _, row := range x {
		if !m.FeasibleRow(row) {
			return false
		}
	}
	return true
}

// Evaluate 评估整个矩阵并列出所有违反
func (m *Manager) Evaluate(x Matrix, people []string) *Result {
	constraints := m.GetAll()

	result := &Result{
		IsValid:    true,
		Violations: make([]ViolationDetail, 0),
	}

	for p, row := range x {
		name := fmt.Sprintf("#%d", p)
		if p < len(people) {
			name = people[p]
		}
		for _, c := range constraints {
			for _, start := range c.Violations(row) {
				label := model.SlotAt(start).Label()
				result.IsValid = false
				result.Violations = append(result.Violations, ViolationDetail{
					ConstraintType: c.Type(),
					ConstraintName: c.Name(),
					Person:         name,
					Slot:           label,
					Message:        fmt.Sprintf("人员 %s 自班段 %s 起违反约束: %s", name, label, c.Name()),
				})
			}
		}
	}

	return result
}

// Clear 清除所有约束
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.constraints = make([]Constraint, 0)
}
