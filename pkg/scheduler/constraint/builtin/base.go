// Package builtin 提供内置约束实现
package builtin

import (
	"github.com/paiban/escala/pkg/scheduler/constraint"
)

// BaseConstraint 约束基类
type BaseConstraint struct {
	name string
	typ  constraint.Type
}

// NewBaseConstraint 创建基础约束
func NewBaseConstraint(name string, typ constraint.Type) *BaseConstraint {
	return &BaseConstraint{name: name, typ: typ}
}

// Name 返回约束名称
func (c *BaseConstraint) Name() string { return c.name }

// Type 返回约束类型
func (c *BaseConstraint) Type() constraint.Type { return c.typ }

// fullRun 判断 row[start, start+length) 是否全部已分配
func fullRun(row []bool, start, length int) bool {
	if start < 0 || start+length > len(row) {
		return false
	}
	for s := start; s < start+length; s++ {
		if !row[s] {
			return false
		}
	}
	return true
}
