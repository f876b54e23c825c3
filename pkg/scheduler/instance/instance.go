// Package instance 定义不可变的月度排班问题实例
package instance

import (
	"fmt"

	"github.com/paiban/escala/pkg/errors"
	"github.com/paiban/escala/pkg/model"
)

// Instance 月度排班问题实例，构造后只读，可在多个搜索之间共享
type Instance struct {
	people    []string
	index     map[string]int
	requests  [][]bool // R[p][s]
	capacity  []int
	catalog   []int // 计入最少/最多班次计数的班段下标
	limits    model.Limits
	monthDays int
	warnings  []*errors.AppError
}

// New 根据输入构建问题实例
func New(r model.Restrictions) (*Instance, error) {
	if err := validateLimits(r); err != nil {
		return nil, err
	}

	slots := model.SlotCount(r.MonthDays)
	inst := &Instance{
		people:    make([]string, 0, len(r.People)),
		index:     make(map[string]int, len(r.People)),
		requests:  make([][]bool, len(r.People)),
		capacity:  make([]int, slots),
		limits:    r.Limits,
		monthDays: r.MonthDays,
	}

	for p, person := range r.People {
		if person.Name == "" {
			return nil, errors.InvalidInstance(fmt.Sprintf("第 %d 个人员缺少姓名", p+1))
		}
		if _, dup := inst.index[person.Name]; dup {
			return nil, errors.InvalidInstance(fmt.Sprintf("人员 %s 重复", person.Name))
		}
		inst.index[person.Name] = p
		inst.people = append(inst.people, person.Name)

		row := make([]bool, slots)
		for _, label := range person.Requests {
			s, err := inst.slotIndex(label)
			if err != nil {
				return nil, errors.InvalidInstance(fmt.Sprintf("人员 %s 申请了不存在的班段: %v", person.Name, err))
			}
			row[s] = true
		}
		inst.requests[p] = row
	}

	if len(r.Shifts) == 0 {
		for s := range inst.capacity {
			inst.capacity[s] = r.Limits.MaxPeoplePerShift
		}
		inst.catalog = make([]int, slots)
		for s := range inst.catalog {
			inst.catalog[s] = s
		}
	} else {
		// 目录中标签的重复次数即容量
		seen := make(map[int]bool)
		for _, label := range r.Shifts {
			s, err := inst.slotIndex(label)
			if err != nil {
				return nil, errors.InvalidInstance(fmt.Sprintf("班段目录包含不存在的班段: %v", err))
			}
			inst.capacity[s]++
			if !seen[s] {
				seen[s] = true
				inst.catalog = append(inst.catalog, s)
			}
		}
	}

	for p, person := range r.People {
		if len(person.Requests) == 0 {
			inst.warnings = append(inst.warnings, errors.InfeasibleRequest(person.Name, "申请班段为空"))
		} else if !inst.anyCapacity(p) {
			inst.warnings = append(inst.warnings, errors.InfeasibleRequest(person.Name, "申请的班段在目录中均无名额"))
		}
	}

	return inst, nil
}

// anyCapacity 判断人员是否至少申请了一个有名额的班段
func (i *Instance) anyCapacity(p int) bool {
	for s, requested := range i.requests[p] {
		if requested && i.capacity[s] > 0 {
			return true
		}
	}
	return false
}

// validateLimits 校验标量限制
func validateLimits(r model.Restrictions) error {
	ve := &errors.ValidationErrors{}
	l := r.Limits
	if l.MaxPeoplePerShift <= 0 {
		ve.Add("max_people_per_shift", "必须为正数")
	}
	if l.MinShifts <= 0 {
		ve.Add("min_shifts", "必须为正数")
	}
	if l.MaxShifts <= 0 {
		ve.Add("max_shifts", "必须为正数")
	}
	if l.MinShifts > l.MaxShifts {
		ve.Add("min_shifts", "不能大于 max_shifts")
	}
	if l.MaxConsecutiveShifts <= 0 {
		ve.Add("max_consecutive_shifts", "必须为正数")
	}
	if l.ConsecutiveRestTime <= 0 {
		ve.Add("consecutive_rest_time", "必须为正数")
	}
	if r.MonthDays <= 0 {
		ve.Add("month_days", "必须为正数")
	}
	if ve.HasErrors() {
		return errors.InvalidInstance(ve.Error()).WithCause(ve)
	}
	return nil
}

// slotIndex 把标签转换为班段下标，并检查是否在本月范围内
func (i *Instance) slotIndex(label string) (int, error) {
	slot, err := model.ParseSlot(label)
	if err != nil {
		return 0, err
	}
	if slot.Day > i.monthDays {
		return 0, fmt.Errorf("班段 %s 超出本月 %d 天", label, i.monthDays)
	}
	return slot.Index(), nil
}

// SlotIndex 返回标签对应的班段下标
func (i *Instance) SlotIndex(label string) (int, error) {
	return i.slotIndex(label)
}

// People 返回人员姓名（输入顺序）
func (i *Instance) People() []string {
	out := make([]string, len(i.people))
	copy(out, i.people)
	return out
}

// PeopleCount 返回人员数
func (i *Instance) PeopleCount() int { return len(i.people) }

// PersonIndex 根据姓名查找人员下标
func (i *Instance) PersonIndex(name string) (int, bool) {
	p, ok := i.index[name]
	return p, ok
}

// PersonName 返回人员姓名
func (i *Instance) PersonName(p int) string { return i.people[p] }

// SlotCount 返回本月班段数
func (i *Instance) SlotCount() int { return len(i.capacity) }

// MonthDays 返回本月天数
func (i *Instance) MonthDays() int { return i.monthDays }

// Requested 返回 R[p][s]
func (i *Instance) Requested(p, s int) bool { return i.requests[p][s] }

// Capacity 返回班段容量
func (i *Instance) Capacity(s int) int { return i.capacity[s] }

// Capacities 返回所有班段容量的副本
func (i *Instance) Capacities() []int {
	out := make([]int, len(i.capacity))
	copy(out, i.capacity)
	return out
}

// Catalog 返回计入班次计数的班段下标的副本
func (i *Instance) Catalog() []int {
	out := make([]int, len(i.catalog))
	copy(out, i.catalog)
	return out
}

// Limits 返回标量限制
func (i *Instance) Limits() model.Limits { return i.limits }

// Warnings 返回构建时发现的非致命问题（例如申请为空的人员）
func (i *Instance) Warnings() []*errors.AppError { return i.warnings }

// Label 返回班段下标对应的标签
func (i *Instance) Label(s int) string { return model.SlotAt(s).Label() }
