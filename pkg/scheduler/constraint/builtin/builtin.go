package builtin

import (
	"github.com/paiban/escala/pkg/model"
	"github.com/paiban/escala/pkg/scheduler/constraint"
)

// RegisterDefaultConstraints 按标量限制注册两条硬约束
func RegisterDefaultConstraints(manager *constraint.Manager, limits model.Limits) {
	manager.Register(NewMaxConsecutiveRunConstraint(limits.MaxConsecutiveShifts))
	manager.Register(NewRestAfterRunConstraint(limits.MaxConsecutiveShifts, limits.ConsecutiveRestTime))
}

// NewDefaultManager 创建已注册默认约束的管理器
func NewDefaultManager(limits model.Limits) *constraint.Manager {
	manager := constraint.NewManager()
	RegisterDefaultConstraints(manager, limits)
	return manager
}
